package sse

import (
	"bufio"
	"errors"
	"io"
	"strings"
	"testing"
)

func collect(t *testing.T, input string) []string {
	t.Helper()
	sc := NewScanner(strings.NewReader(input))
	var out []string
	for {
		p, err := sc.Next()
		if err == io.EOF {
			return out
		}
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		out = append(out, p)
	}
}

func TestScannerEvents(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{"single", "data: hello\n\n", []string{"hello"}},
		{"ordered", "data: a\n\ndata: b\n\ndata: c\n\n", []string{"a", "b", "c"}},
		{"multiline", "data: l1\ndata: l2\n\n", []string{"l1\nl2"}},
		{"comments and fields", ": keepalive\nevent: message\nid: 7\ndata: x\n\n", []string{"x"}},
		{"no space after colon", "data:{\"a\":1}\n\n", []string{`{"a":1}`}},
		{"done sentinel", "data: a\n\ndata: [DONE]\n\ndata: ignored\n\n", []string{"a"}},
		{"done in same event", "data: a\ndata: [DONE]\n\ndata: ignored\n\n", []string{"a"}},
		{"unterminated tail", "data: tail", []string{"tail"}},
		{"crlf", "data: a\r\n\r\n", []string{"a"}},
		{"empty", "", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := collect(t, tt.input)
			if strings.Join(got, "|") != strings.Join(tt.want, "|") || len(got) != len(tt.want) {
				t.Fatalf("got %q want %q", got, tt.want)
			}
		})
	}
}

func TestScannerLineTooLong(t *testing.T) {
	input := "data: " + strings.Repeat("x", maxLineSize+1) + "\n\n"
	_, err := NewScanner(strings.NewReader(input)).Next()
	if !errors.Is(err, bufio.ErrTooLong) {
		t.Fatalf("expected ErrTooLong, got %v", err)
	}
}
