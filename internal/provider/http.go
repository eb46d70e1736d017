package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"sync/atomic"

	"github.com/Sherif-Aboulnasr/FGCU-LLM-Router/internal/sse"
)

// ErrConsumed is yielded when a Fragments sequence is ranged a second time.
var ErrConsumed = errors.New("provider: fragments already consumed")

// maxErrorBody caps how much of a failed upstream response is read.
const maxErrorBody = 64 << 10

// Getenv looks up an environment variable.
type Getenv func(key string) string

// Credential resolves the API key held in the environment variable env.
func Credential(name, env string, getenv Getenv) (string, error) {
	if getenv == nil {
		getenv = os.Getenv
	}
	v := strings.TrimSpace(getenv(env))
	if v == "" {
		return "", &ConfigurationError{Provider: name, Env: env}
	}
	return v, nil
}

// PostStream sends body as JSON and returns the open response of a 2xx reply.
// Any other status is read, closed and returned as an *UpstreamError.
func PostStream(ctx context.Context, hc *http.Client, name, url string, body any, header http.Header) (*http.Response, error) {
	if hc == nil {
		hc = http.DefaultClient
	}
	b, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("%s: encode request: %w", name, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(b))
	if err != nil {
		return nil, fmt.Errorf("%s: build request: %w", name, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/event-stream")
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Set(k, v)
		}
	}
	resp, err := hc.Do(req)
	if err != nil {
		return nil, &UpstreamError{Provider: name, Message: "request failed", Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		defer resp.Body.Close()
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, statusError(name, resp.StatusCode, raw)
	}
	return resp, nil
}

// SSEFragments turns an open SSE response into Fragments. decode converts one
// event payload into zero or more text fragments. The body is closed when
// iteration stops.
func SSEFragments(name string, resp *http.Response, decode func(payload string) ([]string, error)) Fragments {
	var used atomic.Bool
	return func(yield func(string, error) bool) {
		if used.Swap(true) {
			yield("", ErrConsumed)
			return
		}
		defer resp.Body.Close()
		sc := sse.NewScanner(resp.Body)
		for {
			payload, err := sc.Next()
			if err == io.EOF {
				return
			}
			if err != nil {
				yield("", &UpstreamError{Provider: name, Message: "stream interrupted", Err: err})
				return
			}
			texts, err := decode(payload)
			if err != nil {
				yield("", err)
				return
			}
			for _, t := range texts {
				if t == "" {
					continue
				}
				if !yield(t, nil) {
					return
				}
			}
		}
	}
}
