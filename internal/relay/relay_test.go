package relay

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Sherif-Aboulnasr/FGCU-LLM-Router/internal/provider"
)

func fragments(texts []string, tail error) provider.Fragments {
	return func(yield func(string, error) bool) {
		for _, t := range texts {
			if !yield(t, nil) {
				return
			}
		}
		if tail != nil {
			yield("", tail)
		}
	}
}

func TestCopyCommitsOnFirstFragment(t *testing.T) {
	rr := httptest.NewRecorder()
	sw := NewStreamWriter(rr)
	if sw.Committed() {
		t.Fatalf("committed before any write")
	}
	res := Copy(sw, fragments([]string{"", "Hel", "lo!"}, nil))
	if res.Err != nil || res.Fragments != 2 || res.Bytes != 6 {
		t.Fatalf("result = %+v", res)
	}
	if rr.Code != http.StatusOK || rr.Body.String() != "Hello!" {
		t.Fatalf("got %d %q", rr.Code, rr.Body.String())
	}
	if ct := rr.Header().Get("Content-Type"); ct != "text/plain; charset=utf-8" {
		t.Fatalf("content type = %q", ct)
	}
	if rr.Header().Get("Cache-Control") != "no-cache" || rr.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Fatalf("stream headers missing: %v", rr.Header())
	}
	if !rr.Flushed {
		t.Fatalf("fragments not flushed")
	}
}

func TestWriteStatusAfterCommit(t *testing.T) {
	rr := httptest.NewRecorder()
	sw := NewStreamWriter(rr)
	if err := sw.WriteFragment("x"); err != nil {
		t.Fatal(err)
	}
	if err := sw.WriteStatus(http.StatusInternalServerError); !errors.Is(err, ErrCommitted) {
		t.Fatalf("expected ErrCommitted, got %v", err)
	}
	if err := sw.WriteJSON(http.StatusBadRequest, nil); !errors.Is(err, ErrCommitted) {
		t.Fatalf("expected ErrCommitted, got %v", err)
	}
	if rr.Code != http.StatusOK {
		t.Fatalf("status changed to %d", rr.Code)
	}
}

func TestFailBeforeCommit(t *testing.T) {
	rr := httptest.NewRecorder()
	sw := NewStreamWriter(rr)
	res := Copy(sw, fragments(nil, errors.New("boom")))
	if res.Err == nil || sw.Committed() {
		t.Fatalf("result = %+v committed=%v", res, sw.Committed())
	}
	if err := sw.Fail(http.StatusInternalServerError, res.Err.Error()); err != nil {
		t.Fatal(err)
	}
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("content type = %q", ct)
	}
	var body map[string]string
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil || body["error"] != "boom" {
		t.Fatalf("body = %q (%v)", rr.Body.String(), err)
	}
}

func TestFailAfterCommit(t *testing.T) {
	rr := httptest.NewRecorder()
	sw := NewStreamWriter(rr)
	res := Copy(sw, fragments([]string{"partial"}, errors.New("upstream dropped")))
	if res.Err == nil || !sw.Committed() {
		t.Fatalf("result = %+v", res)
	}
	if err := sw.Fail(http.StatusInternalServerError, res.Err.Error()); err != nil {
		t.Fatal(err)
	}
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	if got := rr.Body.String(); got != "partial\n\nError: upstream dropped" {
		t.Fatalf("body = %q", got)
	}
}

type failingWriter struct {
	*httptest.ResponseRecorder
	writes int
}

func (f *failingWriter) Write(p []byte) (int, error) {
	f.writes++
	return 0, errors.New("client gone")
}

func TestCopyStopsOnWriteError(t *testing.T) {
	fw := &failingWriter{ResponseRecorder: httptest.NewRecorder()}
	sw := NewStreamWriter(fw)
	stopped := true
	frags := func(yield func(string, error) bool) {
		if yield("a", nil) {
			stopped = false
			yield("b", nil)
		}
	}
	res := Copy(sw, frags)
	if res.Err == nil || !stopped || fw.writes != 1 {
		t.Fatalf("result = %+v stopped=%v writes=%d", res, stopped, fw.writes)
	}
}
