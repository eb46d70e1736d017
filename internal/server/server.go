package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Sherif-Aboulnasr/FGCU-LLM-Router/internal/api"
	"github.com/Sherif-Aboulnasr/FGCU-LLM-Router/internal/config"
	"github.com/Sherif-Aboulnasr/FGCU-LLM-Router/internal/inflight"
	"github.com/Sherif-Aboulnasr/FGCU-LLM-Router/internal/metrics"
	"github.com/Sherif-Aboulnasr/FGCU-LLM-Router/internal/models"
	"github.com/Sherif-Aboulnasr/FGCU-LLM-Router/internal/provider"
	"github.com/Sherif-Aboulnasr/FGCU-LLM-Router/internal/provider/google"
	"github.com/Sherif-Aboulnasr/FGCU-LLM-Router/internal/provider/openai"
	"github.com/Sherif-Aboulnasr/FGCU-LLM-Router/internal/ui"
)

// Options wires the root handler.
type Options struct {
	Config   config.ServerConfig
	Catalog  *models.Catalog
	Registry *provider.Registry
	Inflight *inflight.Counter
	// Metrics is served on /metrics when the metrics address is the main port.
	Metrics *prometheus.Registry
	Version string
}

// NewMetricsRegistry returns a registry holding the router metrics and the
// Go runtime and process collectors.
func NewMetricsRegistry() *prometheus.Registry {
	preg := prometheus.NewRegistry()
	preg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics.Register(preg)
	return preg
}

// MetricsHandler exposes preg in the Prometheus text format.
func MetricsHandler(preg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(preg, promhttp.HandlerOpts{})
}

// NewProviderRegistry builds one adapter per provider, applying base URL and
// credential variable overrides from cfg. No credential is read here.
func NewProviderRegistry(cfg config.ServerConfig, hc *http.Client, getenv provider.Getenv) *provider.Registry {
	oa := openai.OpenAIConfig()
	groq := openai.GroqConfig()
	for _, c := range []*openai.Config{&oa, &groq} {
		pc := cfg.Provider(c.Name)
		if pc.BaseURL != "" {
			c.BaseURL = pc.BaseURL
		}
		if pc.KeyEnv != "" {
			c.KeyEnv = pc.KeyEnv
		}
		c.HTTPClient = hc
		c.Getenv = getenv
	}
	gpc := cfg.Provider(string(models.ProviderGoogle))
	return provider.NewRegistry(map[models.Provider]provider.Adapter{
		models.ProviderOpenAI: openai.New(oa),
		models.ProviderGroq:   openai.New(groq),
		models.ProviderGoogle: google.New(google.Config{
			BaseURL:    gpc.BaseURL,
			KeyEnv:     gpc.KeyEnv,
			HTTPClient: hc,
			Getenv:     getenv,
		}),
	})
}

// New constructs the HTTP handler for the server.
func New(opts Options) http.Handler {
	cfg := opts.Config
	if opts.Catalog == nil {
		opts.Catalog = models.Default()
	}
	if opts.Registry == nil {
		opts.Registry = NewProviderRegistry(cfg, nil, nil)
	}
	if opts.Metrics == nil {
		opts.Metrics = NewMetricsRegistry()
	}

	r := chi.NewRouter()
	if len(cfg.AllowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: cfg.AllowedOrigins,
			AllowedMethods: []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders: []string{"Content-Type", "X-Request-Id"},
			ExposedHeaders: []string{"X-Generation-Id", "X-Request-Id"},
			MaxAge:         300,
		}))
	}

	r.Get("/", ui.Handler())
	r.Mount("/api", api.NewRouter(api.Options{
		Catalog:  opts.Catalog,
		Registry: opts.Registry,
		Inflight: opts.Inflight,
		Version:  opts.Version,
	}))

	if cfg.MetricsOnMainPort() {
		r.Handle("/metrics", MetricsHandler(opts.Metrics))
	}
	return r
}
