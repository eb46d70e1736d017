// Package streamclient is a Go client for the router's streaming generate
// endpoint. It mirrors the browser page: bytes are decoded incrementally and
// the whole answer is re-rendered as sanitized markdown after every chunk.
package streamclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/Sherif-Aboulnasr/FGCU-LLM-Router/internal/models"
)

// APIError is a structured error returned before any text was streamed.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("status %d: %s", e.Status, e.Message)
}

// Client talks to one router instance.
type Client struct {
	BaseURL string
	HTTP    *http.Client
	// ChunkSize bounds each read from the response body.
	ChunkSize int
}

// New returns a client for the router at baseURL.
func New(baseURL string) *Client {
	return &Client{BaseURL: strings.TrimRight(baseURL, "/"), HTTP: http.DefaultClient, ChunkSize: 4096}
}

func (c *Client) httpClient() *http.Client {
	if c.HTTP == nil {
		return http.DefaultClient
	}
	return c.HTTP
}

// Update is called after every chunk with the session state.
type Update func(s *Session)

// Generate streams the answer for prompt into s. onUpdate, when set, runs
// after each chunk is rendered. A failure before streaming starts returns an
// *APIError; the session is left holding the error as plain text.
func (c *Client) Generate(ctx context.Context, s *Session, model, prompt string, onUpdate Update) error {
	if err := s.Begin(); err != nil {
		return err
	}
	err := c.generate(ctx, s, model, prompt, onUpdate)
	if err != nil {
		s.Fail(err)
		if onUpdate != nil {
			onUpdate(s)
		}
	}
	return err
}

func (c *Client) generate(ctx context.Context, s *Session, model, prompt string, onUpdate Update) error {
	body, err := json.Marshal(map[string]string{"prompt": prompt, "model": model})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.httpClient().Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return readAPIError(resp)
	}

	size := c.ChunkSize
	if size <= 0 {
		size = 4096
	}
	buf := make([]byte, size)
	for {
		n, rerr := resp.Body.Read(buf)
		if n > 0 {
			if _, err := s.Feed(buf[:n]); err != nil {
				return err
			}
			if onUpdate != nil {
				onUpdate(s)
			}
		}
		if errors.Is(rerr, io.EOF) {
			break
		}
		if rerr != nil {
			return rerr
		}
	}
	if _, err := s.Finish(); err != nil {
		return err
	}
	if onUpdate != nil {
		onUpdate(s)
	}
	return nil
}

func readAPIError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	var env struct {
		Error string `json:"error"`
	}
	msg := strings.TrimSpace(string(raw))
	if json.Unmarshal(raw, &env) == nil && env.Error != "" {
		msg = env.Error
	}
	if msg == "" {
		msg = http.StatusText(resp.StatusCode)
	}
	return &APIError{Status: resp.StatusCode, Message: msg}
}

// Models lists the router's selectable models.
func (c *Client) Models(ctx context.Context) ([]models.Descriptor, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/api/models", nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.httpClient().Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, readAPIError(resp)
	}
	var body struct {
		Data []models.Descriptor `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode models: %w", err)
	}
	return body.Data, nil
}
