package inflight

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestWaitForZero(t *testing.T) {
	var c Counter
	if !c.WaitForZero(context.Background()) {
		t.Fatalf("zero-value counter should be idle")
	}
	c.Inc()
	c.Inc()
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if c.WaitForZero(ctx) {
		t.Fatalf("wait returned true with %d in flight", c.Load())
	}

	done := make(chan bool)
	go func() { done <- c.WaitForZero(context.Background()) }()
	c.Dec()
	c.Dec()
	select {
	case ok := <-done:
		if !ok {
			t.Fatalf("wait reported timeout")
		}
	case <-time.After(time.Second):
		t.Fatalf("wait did not return after count reached zero")
	}
	c.Dec()
	if c.Load() != 0 {
		t.Fatalf("count = %d after unbalanced Dec", c.Load())
	}
}

func TestMiddleware(t *testing.T) {
	var c Counter
	var seen int64
	h := c.Middleware()(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		seen = c.Load()
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/api/generate", nil))
	if seen != 1 || c.Load() != 0 {
		t.Fatalf("seen=%d after=%d", seen, c.Load())
	}
}
