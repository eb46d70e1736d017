package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/Sherif-Aboulnasr/FGCU-LLM-Router/internal/provider"
)

func collect(t *testing.T, frags provider.Fragments) (string, error) {
	t.Helper()
	var sb strings.Builder
	for s, err := range frags {
		if err != nil {
			return sb.String(), err
		}
		sb.WriteString(s)
	}
	return sb.String(), nil
}

func sseServer(t *testing.T, calls *atomic.Int32, events ...string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		if r.URL.Path != "/openai/v1/chat/completions" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer gsk_test" {
			t.Errorf("authorization = %q", got)
		}
		var req chatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode: %v", err)
		}
		if req.Model != "llama-3.3-70b-versatile" || !req.Stream {
			t.Errorf("request = %+v", req)
		}
		if len(req.Messages) != 2 || req.Messages[0].Role != "system" || req.Messages[0].Content != provider.SystemInstruction {
			t.Errorf("system message missing: %+v", req.Messages)
		}
		if req.Messages[1].Role != "user" || req.Messages[1].Content != "hi" {
			t.Errorf("user message = %+v", req.Messages[1])
		}
		w.Header().Set("Content-Type", "text/event-stream")
		for _, e := range events {
			fmt.Fprintf(w, "data: %s\n\n", e)
			w.(http.Flusher).Flush()
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func groq(srv *httptest.Server, key string, lookups *atomic.Int32) *Adapter {
	cfg := GroqConfig()
	cfg.BaseURL = srv.URL + "/openai/v1/"
	cfg.HTTPClient = srv.Client()
	cfg.Getenv = func(k string) string {
		if lookups != nil {
			lookups.Add(1)
		}
		if k == "GROQ_API_KEY" {
			return key
		}
		return ""
	}
	return New(cfg)
}

func req() provider.Request {
	return provider.Request{Prompt: "hi", Model: "llama-3.3-70b-versatile", System: provider.SystemInstruction}
}

func TestStreamFragments(t *testing.T) {
	var calls atomic.Int32
	srv := sseServer(t, &calls,
		`{"choices":[{"delta":{"role":"assistant"}}]}`,
		`{"choices":[{"delta":{"content":"Hel"}}]}`,
		`{"choices":[{"delta":{"content":"lo!"}}]}`,
		`{"choices":[{"delta":{},"finish_reason":"stop"}]}`,
		`[DONE]`,
	)
	a := groq(srv, "gsk_test", nil)
	if a.Name() != "groq" {
		t.Fatalf("name = %s", a.Name())
	}
	if a.Initialized() {
		t.Fatalf("client built before first use")
	}
	frags, err := a.Stream(context.Background(), req())
	if err != nil {
		t.Fatalf("Stream: %v", err)
	}
	got, err := collect(t, frags)
	if err != nil || got != "Hello!" {
		t.Fatalf("got %q, %v", got, err)
	}
	if !a.Initialized() || calls.Load() != 1 {
		t.Fatalf("initialized=%v calls=%d", a.Initialized(), calls.Load())
	}
}

func TestMissingCredential(t *testing.T) {
	var calls atomic.Int32
	srv := sseServer(t, &calls)
	a := groq(srv, "", nil)
	_, err := a.Stream(context.Background(), req())
	var cfgErr *provider.ConfigurationError
	if !errors.As(err, &cfgErr) || cfgErr.Env != "GROQ_API_KEY" {
		t.Fatalf("expected ConfigurationError for GROQ_API_KEY, got %v", err)
	}
	if calls.Load() != 0 {
		t.Fatalf("upstream called %d times without credential", calls.Load())
	}
	if a.Configured() {
		t.Fatalf("Configured = true without credential")
	}
}

func TestCredentialResolvedOnce(t *testing.T) {
	var calls, lookups atomic.Int32
	srv := sseServer(t, &calls, `{"choices":[{"delta":{"content":"x"}}]}`)
	a := groq(srv, "gsk_test", &lookups)
	for i := 0; i < 3; i++ {
		frags, err := a.Stream(context.Background(), req())
		if err != nil {
			t.Fatalf("Stream: %v", err)
		}
		if _, err := collect(t, frags); err != nil {
			t.Fatalf("collect: %v", err)
		}
	}
	if lookups.Load() != 1 {
		t.Fatalf("credential looked up %d times; want 1", lookups.Load())
	}
}

func TestMidStreamError(t *testing.T) {
	var calls atomic.Int32
	srv := sseServer(t, &calls,
		`{"choices":[{"delta":{"content":"partial"}}]}`,
		`{"error":{"message":"rate limited mid-stream"}}`,
	)
	frags, err := groq(srv, "gsk_test", nil).Stream(context.Background(), req())
	if err != nil {
		t.Fatalf("Stream: %v", err)
	}
	got, err := collect(t, frags)
	var up *provider.UpstreamError
	if got != "partial" || !errors.As(err, &up) || up.Message != "rate limited mid-stream" {
		t.Fatalf("got %q, %v", got, err)
	}
}

func TestMalformedChunk(t *testing.T) {
	var calls atomic.Int32
	srv := sseServer(t, &calls, `{not json`)
	frags, err := groq(srv, "gsk_test", nil).Stream(context.Background(), req())
	if err != nil {
		t.Fatalf("Stream: %v", err)
	}
	if _, err := collect(t, frags); err == nil {
		t.Fatalf("expected decode error")
	}
}

func TestUpstreamRejectsRequest(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":{"message":"The model does not exist"}}`))
	}))
	defer srv.Close()
	cfg := OpenAIConfig()
	cfg.BaseURL = srv.URL
	cfg.HTTPClient = srv.Client()
	cfg.Getenv = func(string) string { return "sk-test" }
	_, err := New(cfg).Stream(context.Background(), provider.Request{Prompt: "hi", Model: "nope"})
	var up *provider.UpstreamError
	if !errors.As(err, &up) || up.Status != http.StatusNotFound || up.Provider != "openai" {
		t.Fatalf("got %v", err)
	}
}
