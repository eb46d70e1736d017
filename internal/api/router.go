package api

import (
	"github.com/go-chi/chi/v5"

	"github.com/Sherif-Aboulnasr/FGCU-LLM-Router/internal/inflight"
	"github.com/Sherif-Aboulnasr/FGCU-LLM-Router/internal/logx"
	"github.com/Sherif-Aboulnasr/FGCU-LLM-Router/internal/models"
	"github.com/Sherif-Aboulnasr/FGCU-LLM-Router/internal/provider"
)

// Options wires the API router.
type Options struct {
	Catalog  *models.Catalog
	Registry *provider.Registry
	Inflight *inflight.Counter
	Version  string
}

// NewRouter builds the router mounted under /api.
func NewRouter(opts Options) chi.Router {
	if opts.Catalog == nil {
		opts.Catalog = models.Default()
	}
	if opts.Registry == nil {
		opts.Registry = provider.NewRegistry(nil)
	}
	if opts.Version == "" {
		opts.Version = "dev"
	}
	if opts.Inflight == nil {
		opts.Inflight = &inflight.Counter{}
	}
	r := chi.NewRouter()
	for _, m := range middlewareChain() {
		r.Use(m)
	}
	r.With(opts.Inflight.Middleware()).Post("/generate", GenerateHandler(opts.Catalog, opts.Registry))
	r.Get("/health", HealthHandler())
	r.Get("/models", ModelsHandler(opts.Catalog))

	sh := &StateHandler{Catalog: opts.Catalog, Registry: opts.Registry, Inflight: opts.Inflight, Version: opts.Version}
	r.Get("/state", sh.GetState)
	r.Get("/state/stream", sh.GetStateStream)

	if h, err := OpenAPIHandler(NewOpenAPIDoc(opts.Catalog, opts.Version)); err != nil {
		logx.Log.Error().Err(err).Msg("openapi document")
	} else {
		r.Get("/openapi.json", h)
	}
	r.Get("/docs", SwaggerHandler())
	return r
}
