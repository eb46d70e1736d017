package provider

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// ConfigurationError reports a missing upstream credential.
type ConfigurationError struct {
	Provider string
	Env      string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("%s is not set", e.Env)
}

// UpstreamError reports a failed or interrupted provider call.
type UpstreamError struct {
	Provider string
	// Status is the upstream HTTP status, zero when the failure happened
	// outside an HTTP response (transport error, bad stream payload).
	Status  int
	Message string
	Err     error
}

func (e *UpstreamError) Error() string {
	var b strings.Builder
	b.WriteString(e.Provider)
	b.WriteString(": ")
	if e.Status != 0 {
		fmt.Fprintf(&b, "upstream status %d: ", e.Status)
	}
	b.WriteString(e.Message)
	if e.Err != nil {
		if e.Message != "" {
			b.WriteString(": ")
		}
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// errorEnvelope matches the error body used by OpenAI, Groq and Gemini.
type errorEnvelope struct {
	Error *struct {
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

// ParseErrorEnvelope extracts the upstream error message from raw, if any.
func ParseErrorEnvelope(raw []byte) (string, bool) {
	var env errorEnvelope
	if err := json.Unmarshal(raw, &env); err != nil || env.Error == nil {
		return "", false
	}
	return env.Error.Message, env.Error.Message != ""
}

func statusError(name string, status int, body []byte) *UpstreamError {
	msg, ok := ParseErrorEnvelope(body)
	if !ok {
		msg = strings.TrimSpace(string(body))
	}
	if msg == "" {
		msg = http.StatusText(status)
	}
	return &UpstreamError{Provider: name, Status: status, Message: msg}
}
