package drain

import (
	"testing"
	"time"

	"github.com/Sherif-Aboulnasr/FGCU-LLM-Router/internal/inflight"
	"github.com/Sherif-Aboulnasr/FGCU-LLM-Router/internal/serverstate"
)

func useMemoryState(t *testing.T) {
	t.Helper()
	prev := serverstate.Active()
	serverstate.UseStore(serverstate.NewMemoryStore())
	t.Cleanup(func() { serverstate.UseStore(prev) })
}

func done(c *Controller, d time.Duration) bool {
	select {
	case <-c.Done():
		return true
	case <-time.After(d):
		return false
	}
}

func TestZeroTimeoutExitsImmediately(t *testing.T) {
	useMemoryState(t)
	c := New(0, nil)
	c.Request()
	if !done(c, time.Second) {
		t.Fatalf("controller did not stop")
	}
	if serverstate.IsDraining() {
		t.Fatalf("zero timeout should not enter the draining state")
	}
}

func TestDrainWaitsForStreams(t *testing.T) {
	useMemoryState(t)
	var counter inflight.Counter
	counter.Inc()
	c := New(time.Minute, &counter)
	c.Request()
	if !serverstate.IsDraining() {
		t.Fatalf("state not draining")
	}
	if done(c, 20*time.Millisecond) {
		t.Fatalf("stopped with a stream still open")
	}
	counter.Dec()
	if !done(c, time.Second) {
		t.Fatalf("did not stop after the last stream ended")
	}
}

func TestDrainTimeout(t *testing.T) {
	useMemoryState(t)
	var counter inflight.Counter
	counter.Inc()
	defer counter.Dec()
	c := New(10*time.Millisecond, &counter)
	c.Request()
	if !done(c, time.Second) {
		t.Fatalf("drain timeout not enforced")
	}
}

func TestSecondRequestTerminates(t *testing.T) {
	useMemoryState(t)
	var counter inflight.Counter
	counter.Inc()
	defer counter.Dec()
	c := New(-1, &counter)
	c.Request()
	if done(c, 20*time.Millisecond) {
		t.Fatalf("indefinite drain stopped early")
	}
	c.Request()
	if !done(c, time.Second) {
		t.Fatalf("second request did not terminate")
	}
}
