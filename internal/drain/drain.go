// Package drain implements the two-stage shutdown of the router. The first
// termination request stops new generations and waits for open streams; a
// second request, or the drain timeout, ends the process.
package drain

import (
	"context"
	"os"
	"sync"
	"time"

	"github.com/Sherif-Aboulnasr/FGCU-LLM-Router/internal/inflight"
	"github.com/Sherif-Aboulnasr/FGCU-LLM-Router/internal/logx"
	"github.com/Sherif-Aboulnasr/FGCU-LLM-Router/internal/serverstate"
)

// Controller owns the shutdown context.
type Controller struct {
	timeout  time.Duration
	counter  *inflight.Counter
	ctx      context.Context
	cancel   context.CancelFunc
	mu       sync.Mutex
	draining bool
}

// New returns a controller whose Done channel closes when the process
// should shut down. timeout bounds the wait for open streams: zero skips the
// drain and a negative value waits indefinitely.
func New(timeout time.Duration, counter *inflight.Counter) *Controller {
	if counter == nil {
		counter = &inflight.Counter{}
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Controller{timeout: timeout, counter: counter, ctx: ctx, cancel: cancel}
}

// Done is closed once shutdown should begin.
func (c *Controller) Done() <-chan struct{} { return c.ctx.Done() }

// Request handles one termination request.
func (c *Controller) Request() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.draining || c.timeout == 0 {
		logx.Log.Warn().Msg("termination requested")
		c.cancel()
		return
	}
	c.draining = true
	serverstate.StartDrain()
	logx.Log.Info().Dur("timeout", c.timeout).Int64("in_flight", c.counter.Load()).Msg("draining; send SIGTERM again to terminate immediately")
	go c.wait()
}

func (c *Controller) wait() {
	ctx := c.ctx
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}
	if c.counter.WaitForZero(ctx) {
		logx.Log.Info().Msg("in-flight streams finished")
	} else if c.ctx.Err() == nil {
		logx.Log.Warn().Int64("in_flight", c.counter.Load()).Msg("drain timeout exceeded; terminating")
	}
	c.cancel()
}

// Watch feeds signals from ch into Request until shutdown begins.
func (c *Controller) Watch(ch <-chan os.Signal) {
	for {
		select {
		case <-ch:
			c.Request()
		case <-c.ctx.Done():
			return
		}
	}
}
