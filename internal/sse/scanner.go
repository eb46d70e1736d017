// Package sse reads Server-Sent Event data payloads from upstream streams.
package sse

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// maxLineSize caps a single SSE line. Long completions and Gemini chunks can
// exceed bufio's 64 KiB default.
const maxLineSize = 1 << 20

// Scanner yields the data payload of each event. Comments and fields other
// than "data" are skipped; consecutive data lines are joined with "\n".
type Scanner struct {
	s    *bufio.Scanner
	done bool
}

// NewScanner returns a Scanner reading from r.
func NewScanner(r io.Reader) *Scanner {
	s := bufio.NewScanner(r)
	s.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	return &Scanner{s: s}
}

// Next returns the next payload. It returns io.EOF at the end of the stream
// and when the OpenAI "[DONE]" sentinel is read. Data collected for the event
// holding the sentinel is returned first.
func (sc *Scanner) Next() (string, error) {
	if sc.done {
		return "", io.EOF
	}
	var data []string
	for sc.s.Scan() {
		line := sc.s.Text()
		if line == "" {
			if len(data) > 0 {
				return strings.Join(data, "\n"), nil
			}
			continue
		}
		if strings.HasPrefix(line, ":") {
			continue
		}
		if v, ok := strings.CutPrefix(line, "data:"); ok {
			v = strings.TrimPrefix(v, " ")
			if v == "[DONE]" {
				sc.done = true
				if len(data) > 0 {
					return strings.Join(data, "\n"), nil
				}
				return "", io.EOF
			}
			data = append(data, v)
		}
	}
	if err := sc.s.Err(); err != nil {
		return "", fmt.Errorf("sse: %w", err)
	}
	if len(data) > 0 {
		return strings.Join(data, "\n"), nil
	}
	return "", io.EOF
}
