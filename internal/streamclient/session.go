package streamclient

import (
	"errors"
	"html"
	"strings"
	"sync"
)

var (
	// ErrStreaming is returned by Begin while a generation is in progress.
	ErrStreaming = errors.New("streamclient: generation already streaming")
	// ErrIdle is returned when chunks arrive outside a generation.
	ErrIdle = errors.New("streamclient: no generation in progress")
)

// Session holds the client-side state of one answer: the accumulated text,
// its rendered HTML and whether a stream is open.
type Session struct {
	mu        sync.Mutex
	r         *Renderer
	dec       *Decoder
	text      strings.Builder
	html      string
	streaming bool
	err       error
}

// NewSession returns an idle session rendering with r.
func NewSession(r *Renderer) *Session {
	if r == nil {
		r = NewRenderer()
	}
	return &Session{r: r}
}

// Begin clears the previous answer and marks the session streaming.
func (s *Session) Begin() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.streaming {
		return ErrStreaming
	}
	s.text.Reset()
	s.html = ""
	s.err = nil
	s.dec = NewDecoder()
	s.streaming = true
	return nil
}

// Feed appends one chunk and re-renders the whole buffer.
func (s *Session) Feed(p []byte) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.streaming {
		return "", ErrIdle
	}
	s.text.WriteString(s.dec.Decode(p))
	return s.renderLocked()
}

// Finish flushes the decoder, renders the final text and ends the stream.
func (s *Session) Finish() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.streaming {
		return "", ErrIdle
	}
	s.text.WriteString(s.dec.Flush())
	s.streaming = false
	return s.renderLocked()
}

// Fail ends the stream and replaces the content with err as plain text.
func (s *Session) Fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.streaming = false
	s.err = err
	s.text.Reset()
	s.text.WriteString("Error: " + err.Error())
	s.html = html.EscapeString(s.text.String())
}

// Clear drops the accumulated text and rendered content.
func (s *Session) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.text.Reset()
	s.html = ""
	s.err = nil
}

func (s *Session) renderLocked() (string, error) {
	out, err := s.r.Render(s.text.String())
	if err != nil {
		return s.html, err
	}
	s.html = out
	return out, nil
}

// Text returns the accumulated text.
func (s *Session) Text() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.text.String()
}

// HTML returns the last rendered content.
func (s *Session) HTML() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.html
}

// Streaming reports whether a stream is open.
func (s *Session) Streaming() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.streaming
}

// Err returns the error that ended the last stream, if any.
func (s *Session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}
