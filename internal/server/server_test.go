package server

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/Sherif-Aboulnasr/FGCU-LLM-Router/internal/config"
	"github.com/Sherif-Aboulnasr/FGCU-LLM-Router/internal/inflight"
)

// fakeGroq serves an OpenAI-compatible SSE stream that emits "Hel", "lo!".
func fakeGroq(t *testing.T, calls *atomic.Int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		if r.URL.Path != "/openai/v1/chat/completions" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer gsk-test" {
			t.Errorf("authorization = %q", r.Header.Get("Authorization"))
		}
		var body struct {
			Model    string `json:"model"`
			Stream   bool   `json:"stream"`
			Messages []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body.Model != "llama-3.3-70b-versatile" || !body.Stream || len(body.Messages) != 2 || body.Messages[0].Role != "system" {
			t.Errorf("body = %+v", body)
		}
		w.Header().Set("Content-Type", "text/event-stream")
		for _, s := range []string{"Hel", "lo!"} {
			fmt.Fprintf(w, "data: {\"choices\":[{\"index\":0,\"delta\":{\"content\":%q}}]}\n\n", s)
			w.(http.Flusher).Flush()
		}
		fmt.Fprint(w, "data: [DONE]\n\n")
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestServer(t *testing.T, cfg config.ServerConfig, env map[string]string) *httptest.Server {
	t.Helper()
	reg := NewProviderRegistry(cfg, nil, func(k string) string { return env[k] })
	ts := httptest.NewServer(New(Options{Config: cfg, Registry: reg, Inflight: &inflight.Counter{}, Version: "test"}))
	t.Cleanup(ts.Close)
	return ts
}

func post(t *testing.T, url, body string) (*http.Response, string) {
	t.Helper()
	resp, err := http.Post(url+"/api/generate", "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("POST /api/generate: %v", err)
	}
	defer resp.Body.Close()
	b, _ := io.ReadAll(resp.Body)
	return resp, string(b)
}

func TestGenerateEndToEnd(t *testing.T) {
	var calls atomic.Int32
	upstream := fakeGroq(t, &calls)
	cfg := config.ServerConfig{Port: 8080, MetricsAddr: ":8080"}
	cfg.SetProviderBaseURL("groq", upstream.URL+"/openai/v1")
	ts := newTestServer(t, cfg, map[string]string{"GROQ_API_KEY": "gsk-test"})

	resp, body := post(t, ts.URL, `{"prompt":"hi","model":"llama-3.3-70b"}`)
	if resp.StatusCode != http.StatusOK || body != "Hello!" {
		t.Fatalf("got %d %q", resp.StatusCode, body)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "text/plain; charset=utf-8" {
		t.Fatalf("content type = %q", ct)
	}

	resp, body = post(t, ts.URL, `{"prompt":"","model":"llama-3.3-70b"}`)
	if resp.StatusCode != http.StatusBadRequest || !strings.Contains(body, `"Prompt is required"`) {
		t.Fatalf("empty prompt: %d %q", resp.StatusCode, body)
	}

	resp, body = post(t, ts.URL, `{"prompt":"hi","model":"not-a-model"}`)
	if resp.StatusCode != http.StatusBadRequest || !strings.Contains(body, `"Invalid model selection"`) {
		t.Fatalf("unknown model: %d %q", resp.StatusCode, body)
	}
	if n := calls.Load(); n != 1 {
		t.Fatalf("upstream calls = %d; want 1", n)
	}
}

func TestGenerateMissingCredential(t *testing.T) {
	ts := newTestServer(t, config.ServerConfig{Port: 8080}, nil)
	resp, body := post(t, ts.URL, `{"prompt":"hi","model":"llama-3.1-8b"}`)
	if resp.StatusCode != http.StatusBadRequest || !strings.Contains(body, "GROQ_API_KEY is not set") {
		t.Fatalf("got %d %q", resp.StatusCode, body)
	}
}

func TestMetricsEndpointDefaultPort(t *testing.T) {
	ts := newTestServer(t, config.ServerConfig{Port: 8080, MetricsAddr: ":8080"}, nil)
	post(t, ts.URL, `{"prompt":"hi","model":"not-a-model"}`)
	resp, err := http.Get(ts.URL + "/metrics")
	if err != nil {
		t.Fatalf("GET /metrics: %v", err)
	}
	defer resp.Body.Close()
	b, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if !strings.Contains(string(b), "llmrouter_generate_requests_total") {
		t.Fatalf("router metrics missing from /metrics")
	}
}

func TestMetricsEndpointSeparatePort(t *testing.T) {
	ts := newTestServer(t, config.ServerConfig{Port: 8080, MetricsAddr: ":9090"}, nil)
	resp, err := http.Get(ts.URL + "/metrics")
	if err != nil {
		t.Fatalf("GET /metrics: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}

func TestIndexPage(t *testing.T) {
	ts := newTestServer(t, config.ServerConfig{Port: 8080}, nil)
	resp, err := http.Get(ts.URL + "/")
	if err != nil {
		t.Fatalf("GET /: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK || !strings.Contains(resp.Header.Get("Content-Type"), "text/html") {
		t.Fatalf("got %d %s", resp.StatusCode, resp.Header.Get("Content-Type"))
	}
}

func TestCORS(t *testing.T) {
	ts := newTestServer(t, config.ServerConfig{Port: 8080, AllowedOrigins: []string{"https://chat.example.com"}}, nil)
	req, _ := http.NewRequest(http.MethodOptions, ts.URL+"/api/generate", nil)
	req.Header.Set("Origin", "https://chat.example.com")
	req.Header.Set("Access-Control-Request-Method", "POST")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if got := resp.Header.Get("Access-Control-Allow-Origin"); got != "https://chat.example.com" {
		t.Fatalf("allow origin = %q", got)
	}
}
