// Package provider defines the contract shared by upstream model adapters and
// the lookup table the router uses to pick one.
package provider

import (
	"context"
	"iter"

	"github.com/Sherif-Aboulnasr/FGCU-LLM-Router/internal/models"
)

// SystemInstruction is sent with every upstream call regardless of provider.
const SystemInstruction = "You are a helpful assistant. Be concise and direct. Avoid filler, preambles and restating the question."

// Fragments is a lazy, finite sequence of response text. It can be ranged
// over once; the upstream stream is released when iteration ends. A non-nil
// error terminates the sequence.
type Fragments = iter.Seq2[string, error]

// Request is one single-turn completion.
type Request struct {
	Prompt string
	Model  string
	System string
}

// Adapter opens streaming completions against one upstream provider.
type Adapter interface {
	// Name is the provider tag used in logs and metrics.
	Name() string
	// Stream opens the upstream call. Errors that happen before the first
	// fragment is available (missing credential, rejected request) are
	// returned; failures while streaming are yielded by the sequence.
	Stream(ctx context.Context, req Request) (Fragments, error)
}

// Registry maps provider tags to adapters.
type Registry struct {
	adapters map[models.Provider]Adapter
}

// NewRegistry returns a registry serving the given adapters.
func NewRegistry(adapters map[models.Provider]Adapter) *Registry {
	r := &Registry{adapters: make(map[models.Provider]Adapter, len(adapters))}
	for p, a := range adapters {
		r.adapters[p] = a
	}
	return r
}

// Adapter returns the adapter registered for p.
func (r *Registry) Adapter(p models.Provider) (Adapter, bool) {
	a, ok := r.adapters[p]
	return a, ok
}

// Status reports per-provider readiness for state endpoints.
type Status struct {
	Provider    models.Provider `json:"provider"`
	Configured  bool            `json:"configured"`
	Initialized bool            `json:"initialized"`
}

// Inspector is implemented by adapters that can report their lazy client state.
type Inspector interface {
	Configured() bool
	Initialized() bool
}

// Statuses returns readiness for every provider in ps.
func (r *Registry) Statuses(ps []models.Provider) []Status {
	out := make([]Status, 0, len(ps))
	for _, p := range ps {
		st := Status{Provider: p}
		if in, ok := r.adapters[p].(Inspector); ok {
			st.Configured = in.Configured()
			st.Initialized = in.Initialized()
		}
		out = append(out, st)
	}
	return out
}
