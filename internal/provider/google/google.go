// Package google streams completions from the Gemini generateContent API.
package google

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/Sherif-Aboulnasr/FGCU-LLM-Router/internal/logx"
	"github.com/Sherif-Aboulnasr/FGCU-LLM-Router/internal/provider"
)

const (
	DefaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"
	DefaultKeyEnv  = "GOOGLE_API_KEY"

	name = "google"
)

// Config selects the Gemini endpoint and credential.
type Config struct {
	BaseURL    string
	KeyEnv     string
	HTTPClient *http.Client
	Getenv     provider.Getenv
}

type part struct {
	Text string `json:"text,omitempty"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type generateRequest struct {
	SystemInstruction *content  `json:"systemInstruction,omitempty"`
	Contents          []content `json:"contents"`
}

type generateResponse struct {
	Candidates []struct {
		Content      *content `json:"content"`
		FinishReason string   `json:"finishReason"`
	} `json:"candidates"`
	PromptFeedback *struct {
		BlockReason string `json:"blockReason"`
	} `json:"promptFeedback"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

type client struct {
	baseURL string
	header  http.Header
	http    *http.Client
}

// generativeModel is a model handle. The system instruction belongs to the
// handle rather than to the conversation contents.
type generativeModel struct {
	c                 *client
	name              string
	systemInstruction *content
}

func (c *client) model(modelName, system string) *generativeModel {
	m := &generativeModel{c: c, name: modelName}
	if system != "" {
		m.systemInstruction = &content{Parts: []part{{Text: system}}}
	}
	return m
}

func (m *generativeModel) streamURL() string {
	return fmt.Sprintf("%s/models/%s:streamGenerateContent?alt=sse", m.c.baseURL, url.PathEscape(m.name))
}

func (m *generativeModel) stream(ctx context.Context, prompt string) (provider.Fragments, error) {
	body := generateRequest{
		SystemInstruction: m.systemInstruction,
		Contents:          []content{{Role: "user", Parts: []part{{Text: prompt}}}},
	}
	resp, err := provider.PostStream(ctx, m.c.http, name, m.streamURL(), body, m.c.header)
	if err != nil {
		return nil, err
	}
	return provider.SSEFragments(name, resp, decode), nil
}

// Adapter streams completions from Gemini.
type Adapter struct {
	cfg    Config
	client *provider.Lazy[*client]
}

// New returns an adapter. The credential is resolved on the first Stream call.
func New(cfg Config) *Adapter {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.KeyEnv == "" {
		cfg.KeyEnv = DefaultKeyEnv
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = http.DefaultClient
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	a := &Adapter{cfg: cfg}
	a.client = provider.NewLazy(a.newClient)
	return a
}

func (a *Adapter) newClient() (*client, error) {
	key, err := provider.Credential(name, a.cfg.KeyEnv, a.cfg.Getenv)
	if err != nil {
		return nil, err
	}
	logx.Log.Info().Str("provider", name).Str("base_url", a.cfg.BaseURL).Str("key", logx.Mask(key)).Msg("provider client initialized")
	return &client{
		baseURL: a.cfg.BaseURL,
		header:  http.Header{"X-Goog-Api-Key": {key}},
		http:    a.cfg.HTTPClient,
	}, nil
}

// Name returns the provider tag.
func (a *Adapter) Name() string { return name }

// Configured reports whether the credential is present in the environment.
func (a *Adapter) Configured() bool {
	_, err := provider.Credential(name, a.cfg.KeyEnv, a.cfg.Getenv)
	return err == nil
}

// Initialized reports whether the client has been built.
func (a *Adapter) Initialized() bool { return a.client.Built() }

// Stream opens a streamGenerateContent call.
func (a *Adapter) Stream(ctx context.Context, req provider.Request) (provider.Fragments, error) {
	c, err := a.client.Get()
	if err != nil {
		return nil, err
	}
	return c.model(req.Model, req.System).stream(ctx, req.Prompt)
}

// blockedFinish lists finish reasons that cut a candidate short without text.
var blockedFinish = map[string]bool{
	"SAFETY":             true,
	"RECITATION":         true,
	"BLOCKLIST":          true,
	"PROHIBITED_CONTENT": true,
	"SPII":               true,
}

// decode extracts the text of one SSE event. Each event carries only the
// newly generated parts.
func decode(payload string) ([]string, error) {
	var r generateResponse
	if err := json.Unmarshal([]byte(payload), &r); err != nil {
		return nil, &provider.UpstreamError{Provider: name, Message: "malformed stream chunk", Err: err}
	}
	if r.Error != nil {
		return nil, &provider.UpstreamError{Provider: name, Message: r.Error.Message}
	}
	if len(r.Candidates) == 0 && r.PromptFeedback != nil && r.PromptFeedback.BlockReason != "" {
		return nil, &provider.UpstreamError{Provider: name, Message: "prompt blocked: " + r.PromptFeedback.BlockReason}
	}
	var out []string
	for _, c := range r.Candidates {
		if blockedFinish[c.FinishReason] {
			return nil, &provider.UpstreamError{Provider: name, Message: "response blocked: " + c.FinishReason}
		}
		if c.Content == nil {
			continue
		}
		for _, p := range c.Content.Parts {
			out = append(out, p.Text)
		}
	}
	return out, nil
}
