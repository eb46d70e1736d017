// Package inflight counts open generate streams so a drain can wait for them.
package inflight

import (
	"context"
	"net/http"
	"sync"
)

// Counter tracks in-flight requests. The zero value is ready to use.
type Counter struct {
	mu    sync.Mutex
	count int64
	idle  chan struct{} // closed while count is zero
}

func closedChan() chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}

// Inc records the start of a request.
func (c *Counter) Inc() {
	c.mu.Lock()
	if c.count == 0 {
		c.idle = make(chan struct{})
	}
	c.count++
	c.mu.Unlock()
}

// Dec records the end of a request. Unbalanced calls are ignored.
func (c *Counter) Dec() {
	c.mu.Lock()
	if c.count > 0 {
		c.count--
		if c.count == 0 && c.idle != nil {
			close(c.idle)
		}
	}
	c.mu.Unlock()
}

// Load returns the current count.
func (c *Counter) Load() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.count
}

// WaitForZero blocks until the count is zero or ctx is done. It reports
// whether the count reached zero.
func (c *Counter) WaitForZero(ctx context.Context) bool {
	c.mu.Lock()
	ch := c.idle
	if c.count == 0 || ch == nil {
		ch = closedChan()
	}
	c.mu.Unlock()
	select {
	case <-ch:
		return true
	case <-ctx.Done():
		return false
	}
}

// Middleware counts each request for its full duration.
func (c *Counter) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			c.Inc()
			defer c.Dec()
			next.ServeHTTP(w, r)
		})
	}
}
