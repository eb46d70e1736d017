// Package models holds the fixed table mapping public model identifiers to
// the provider and upstream model name that serve them.
package models

import (
	"fmt"
	"sort"
)

// Provider identifies an upstream model vendor.
type Provider string

const (
	ProviderOpenAI Provider = "openai"
	ProviderGroq   Provider = "groq"
	ProviderGoogle Provider = "google"
)

// Descriptor maps a public model id onto one provider and its upstream name.
type Descriptor struct {
	ID           string   `json:"id"`
	Provider     Provider `json:"provider"`
	UpstreamName string   `json:"upstream_name"`
	Label        string   `json:"label,omitempty"`
}

// Catalog is an immutable lookup table of descriptors keyed by id.
type Catalog struct {
	byID  map[string]Descriptor
	order []string
}

// NewCatalog builds a catalog. Ids must be unique and every descriptor must
// name a provider and an upstream model.
func NewCatalog(descs []Descriptor) (*Catalog, error) {
	c := &Catalog{byID: make(map[string]Descriptor, len(descs))}
	for _, d := range descs {
		if d.ID == "" || d.Provider == "" || d.UpstreamName == "" {
			return nil, fmt.Errorf("models: incomplete descriptor %+v", d)
		}
		if _, dup := c.byID[d.ID]; dup {
			return nil, fmt.Errorf("models: duplicate id %q", d.ID)
		}
		c.byID[d.ID] = d
		c.order = append(c.order, d.ID)
	}
	return c, nil
}

// Resolve returns the descriptor for id.
func (c *Catalog) Resolve(id string) (Descriptor, bool) {
	d, ok := c.byID[id]
	return d, ok
}

// List returns descriptors in declaration order.
func (c *Catalog) List() []Descriptor {
	out := make([]Descriptor, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.byID[id])
	}
	return out
}

// Providers returns the distinct providers referenced by the catalog, sorted.
func (c *Catalog) Providers() []Provider {
	seen := map[Provider]bool{}
	var out []Provider
	for _, d := range c.byID {
		if !seen[d.Provider] {
			seen[d.Provider] = true
			out = append(out, d.Provider)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

var defaultDescriptors = []Descriptor{
	{ID: "gpt-4o-mini", Provider: ProviderOpenAI, UpstreamName: "gpt-4o-mini", Label: "GPT-4o mini"},
	{ID: "gpt-4o", Provider: ProviderOpenAI, UpstreamName: "gpt-4o", Label: "GPT-4o"},
	{ID: "llama-3.3-70b", Provider: ProviderGroq, UpstreamName: "llama-3.3-70b-versatile", Label: "Llama 3.3 70B (Groq)"},
	{ID: "llama-3.1-8b", Provider: ProviderGroq, UpstreamName: "llama-3.1-8b-instant", Label: "Llama 3.1 8B (Groq)"},
	{ID: "gemini-2.0-flash", Provider: ProviderGoogle, UpstreamName: "gemini-2.0-flash", Label: "Gemini 2.0 Flash"},
	{ID: "gemini-1.5-pro", Provider: ProviderGoogle, UpstreamName: "gemini-1.5-pro", Label: "Gemini 1.5 Pro"},
}

// Default returns the built-in catalog.
func Default() *Catalog {
	c, err := NewCatalog(defaultDescriptors)
	if err != nil {
		panic(err)
	}
	return c
}
