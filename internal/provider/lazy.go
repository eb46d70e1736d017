package provider

import "sync"

// Lazy builds a value on first use and memoizes it. Concurrent first callers
// share a single construction. A failed construction is not memoized, so a
// credential added later is picked up by the next call.
type Lazy[T any] struct {
	build func() (T, error)

	mu    sync.Mutex
	done  bool
	value T
}

// NewLazy returns a Lazy that calls build on first Get.
func NewLazy[T any](build func() (T, error)) *Lazy[T] {
	return &Lazy[T]{build: build}
}

// Get returns the memoized value, building it if needed.
func (l *Lazy[T]) Get() (T, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.done {
		return l.value, nil
	}
	v, err := l.build()
	if err != nil {
		var zero T
		return zero, err
	}
	l.value, l.done = v, true
	return v, nil
}

// Built reports whether the value has been constructed.
func (l *Lazy[T]) Built() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.done
}
