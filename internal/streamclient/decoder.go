package streamclient

import (
	"errors"
	"unicode/utf8"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// Decoder turns a byte stream into text across arbitrary read boundaries.
// A multi-byte sequence split between reads is held back until its
// remaining bytes arrive. Invalid bytes decode to U+FFFD.
type Decoder struct {
	t       transform.Transformer
	pending []byte
}

// NewDecoder returns a UTF-8 decoder with no carried state.
func NewDecoder() *Decoder {
	return &Decoder{t: unicode.UTF8.NewDecoder()}
}

func (d *Decoder) run(src []byte, atEOF bool) string {
	dst := make([]byte, 3*len(src)+utf8.UTFMax)
	nDst, nSrc, err := d.t.Transform(dst, src, atEOF)
	d.pending = nil
	if errors.Is(err, transform.ErrShortSrc) {
		d.pending = append([]byte(nil), src[nSrc:]...)
	}
	return string(dst[:nDst])
}

// Decode returns the text completed by p.
func (d *Decoder) Decode(p []byte) string {
	src := p
	if len(d.pending) > 0 {
		src = append(d.pending, p...)
	}
	return d.run(src, false)
}

// Flush ends the stream. An incomplete trailing sequence becomes U+FFFD.
func (d *Decoder) Flush() string {
	if len(d.pending) == 0 {
		d.t.Reset()
		return ""
	}
	out := d.run(d.pending, true)
	d.pending = nil
	d.t.Reset()
	return out
}
