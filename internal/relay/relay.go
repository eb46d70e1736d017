// Package relay copies provider fragments onto a streaming HTTP response.
//
// A response is committed once its status line has gone out. Before that
// point a failure can still be reported as a JSON body with any status;
// after it the only channel left is the text stream itself.
package relay

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/Sherif-Aboulnasr/FGCU-LLM-Router/internal/provider"
)

// ErrCommitted is returned when a status is set on a committed response.
var ErrCommitted = errors.New("relay: response already committed")

// StreamWriter stages stream headers and commits them on the first
// non-empty fragment.
type StreamWriter struct {
	w         http.ResponseWriter
	flusher   http.Flusher
	committed bool
	written   int64
}

// NewStreamWriter stages the plain-text stream headers on w.
func NewStreamWriter(w http.ResponseWriter) *StreamWriter {
	h := w.Header()
	h.Set("Content-Type", "text/plain; charset=utf-8")
	h.Set("Cache-Control", "no-cache")
	h.Set("X-Content-Type-Options", "nosniff")
	f, _ := w.(http.Flusher)
	return &StreamWriter{w: w, flusher: f}
}

// Header returns the staged header map.
func (s *StreamWriter) Header() http.Header { return s.w.Header() }

// Committed reports whether the status line has been sent.
func (s *StreamWriter) Committed() bool { return s.committed }

// BytesWritten returns the number of body bytes sent.
func (s *StreamWriter) BytesWritten() int64 { return s.written }

// WriteStatus sends code and commits the response.
func (s *StreamWriter) WriteStatus(code int) error {
	if s.committed {
		return ErrCommitted
	}
	s.committed = true
	s.w.WriteHeader(code)
	return nil
}

// WriteFragment sends one fragment and flushes it. Empty fragments are
// dropped so they never commit the response.
func (s *StreamWriter) WriteFragment(text string) error {
	if text == "" {
		return nil
	}
	if !s.committed {
		if err := s.WriteStatus(http.StatusOK); err != nil {
			return err
		}
	}
	n, err := s.w.Write([]byte(text))
	s.written += int64(n)
	if err != nil {
		return err
	}
	if s.flusher != nil {
		s.flusher.Flush()
	}
	return nil
}

// WriteJSON replaces the staged stream headers with a JSON reply.
func (s *StreamWriter) WriteJSON(code int, v any) error {
	if s.committed {
		return ErrCommitted
	}
	h := s.w.Header()
	h.Del("Cache-Control")
	h.Set("Content-Type", "application/json")
	if err := s.WriteStatus(code); err != nil {
		return err
	}
	return json.NewEncoder(s.w).Encode(v)
}

// Fail reports msg at the failure boundary. An uncommitted response gets
// {"error": msg} with code; a committed one gets the message appended
// inline and keeps its original status.
func (s *StreamWriter) Fail(code int, msg string) error {
	if !s.committed {
		return s.WriteJSON(code, map[string]string{"error": msg})
	}
	return s.WriteFragment("\n\nError: " + msg)
}

// Result summarizes one relayed stream.
type Result struct {
	Fragments int
	Bytes     int64
	Err       error
}

// Copy writes every fragment to s until the sequence ends, yields an error,
// or the client stops accepting writes. Ending the range releases the
// upstream body.
func Copy(s *StreamWriter, frags provider.Fragments) Result {
	var res Result
	for text, err := range frags {
		if err != nil {
			res.Err = err
			break
		}
		if text == "" {
			continue
		}
		if err := s.WriteFragment(text); err != nil {
			res.Err = err
			break
		}
		res.Fragments++
	}
	res.Bytes = s.BytesWritten()
	return res
}
