// Package openai implements the OpenAI chat completions streaming protocol.
// The same adapter serves OpenAI and any OpenAI-compatible endpoint such as
// Groq; only the base URL and credential differ.
package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/Sherif-Aboulnasr/FGCU-LLM-Router/internal/logx"
	"github.com/Sherif-Aboulnasr/FGCU-LLM-Router/internal/provider"
)

const (
	DefaultOpenAIBaseURL = "https://api.openai.com/v1"
	DefaultGroqBaseURL   = "https://api.groq.com/openai/v1"

	chatCompletionsPath = "/chat/completions"
)

// Config selects the endpoint and credential of one OpenAI-compatible provider.
type Config struct {
	Name       string
	BaseURL    string
	KeyEnv     string
	HTTPClient *http.Client
	Getenv     provider.Getenv
}

// OpenAIConfig returns the configuration for api.openai.com.
func OpenAIConfig() Config {
	return Config{Name: "openai", BaseURL: DefaultOpenAIBaseURL, KeyEnv: "OPENAI_API_KEY"}
}

// GroqConfig returns the configuration for Groq's OpenAI-compatible API.
func GroqConfig() Config {
	return Config{Name: "groq", BaseURL: DefaultGroqBaseURL, KeyEnv: "GROQ_API_KEY"}
}

type client struct {
	baseURL string
	header  http.Header
	http    *http.Client
}

// Adapter streams chat completions from an OpenAI-compatible API.
type Adapter struct {
	cfg    Config
	client *provider.Lazy[*client]
}

// New returns an adapter. The credential is resolved on the first Stream call.
func New(cfg Config) *Adapter {
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = http.DefaultClient
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	a := &Adapter{cfg: cfg}
	a.client = provider.NewLazy(a.newClient)
	return a
}

func (a *Adapter) newClient() (*client, error) {
	key, err := provider.Credential(a.cfg.Name, a.cfg.KeyEnv, a.cfg.Getenv)
	if err != nil {
		return nil, err
	}
	logx.Log.Info().Str("provider", a.cfg.Name).Str("base_url", a.cfg.BaseURL).Str("key", logx.Mask(key)).Msg("provider client initialized")
	return &client{
		baseURL: a.cfg.BaseURL,
		header:  http.Header{"Authorization": {"Bearer " + key}},
		http:    a.cfg.HTTPClient,
	}, nil
}

// Name returns the provider tag.
func (a *Adapter) Name() string { return a.cfg.Name }

// Configured reports whether the credential is present in the environment.
func (a *Adapter) Configured() bool {
	_, err := provider.Credential(a.cfg.Name, a.cfg.KeyEnv, a.cfg.Getenv)
	return err == nil
}

// Initialized reports whether the client has been built.
func (a *Adapter) Initialized() bool { return a.client.Built() }

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string    `json:"model"`
	Messages []message `json:"messages"`
	Stream   bool      `json:"stream"`
}

type chunk struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Stream opens a streaming chat completion.
func (a *Adapter) Stream(ctx context.Context, req provider.Request) (provider.Fragments, error) {
	c, err := a.client.Get()
	if err != nil {
		return nil, err
	}
	var msgs []message
	if req.System != "" {
		msgs = append(msgs, message{Role: "system", Content: req.System})
	}
	msgs = append(msgs, message{Role: "user", Content: req.Prompt})
	body := chatRequest{Model: req.Model, Messages: msgs, Stream: true}

	resp, err := provider.PostStream(ctx, c.http, a.cfg.Name, c.baseURL+chatCompletionsPath, body, c.header)
	if err != nil {
		return nil, err
	}
	return provider.SSEFragments(a.cfg.Name, resp, a.decode), nil
}

func (a *Adapter) decode(payload string) ([]string, error) {
	var ch chunk
	if err := json.Unmarshal([]byte(payload), &ch); err != nil {
		return nil, &provider.UpstreamError{Provider: a.cfg.Name, Message: "malformed stream chunk", Err: err}
	}
	if ch.Error != nil {
		return nil, &provider.UpstreamError{Provider: a.cfg.Name, Message: ch.Error.Message}
	}
	out := make([]string, 0, len(ch.Choices))
	for _, c := range ch.Choices {
		out = append(out, c.Delta.Content)
	}
	return out, nil
}
