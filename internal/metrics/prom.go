package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	buildInfo = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name:        "llmrouter_build_info",
			Help:        "Build information",
			ConstLabels: prometheus.Labels{"component": "server"},
		},
		[]string{"date", "sha", "version"},
	)

	generateRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "llmrouter_generate_requests_total",
			Help: "Generate requests by model, provider and outcome",
		},
		[]string{"model", "provider", "outcome"},
	)

	streamFragments = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "llmrouter_stream_fragments_total",
			Help: "Text fragments relayed per provider",
		},
		[]string{"provider"},
	)

	streamBytes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "llmrouter_stream_bytes_total",
			Help: "Response bytes relayed per provider",
		},
		[]string{"provider"},
	)

	streamDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "llmrouter_stream_duration_seconds",
			Help:    "Time from adapter call to end of stream",
			Buckets: []float64{.1, .25, .5, 1, 2.5, 5, 10, 30, 60, 120},
		},
		[]string{"model", "provider"},
	)

	inFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "llmrouter_inflight_streams",
			Help: "Generate streams currently open",
		},
	)
)

// Outcome labels for generate requests.
const (
	OutcomeSuccess  = "success"
	OutcomeRejected = "rejected"
	OutcomeError    = "error"
	OutcomePartial  = "partial"
)

// Register registers all metrics with the provided registerer.
func Register(r prometheus.Registerer) {
	r.MustRegister(buildInfo, generateRequests, streamFragments, streamBytes, streamDuration, inFlight)
}

// SetServerBuildInfo sets the build info metric for the server.
func SetServerBuildInfo(version, sha, date string) {
	buildInfo.WithLabelValues(date, sha, version).Set(1)
}

// RecordGenerate increments the generate request counter.
func RecordGenerate(model, provider, outcome string) {
	generateRequests.WithLabelValues(model, provider, outcome).Inc()
}

// RecordStream records the volume and duration of one relayed stream.
func RecordStream(model, provider string, fragments int, bytes int64, d time.Duration) {
	streamFragments.WithLabelValues(provider).Add(float64(fragments))
	streamBytes.WithLabelValues(provider).Add(float64(bytes))
	streamDuration.WithLabelValues(model, provider).Observe(d.Seconds())
}

// StreamStarted bumps the in-flight gauge; the returned func undoes it.
func StreamStarted() func() {
	inFlight.Inc()
	return inFlight.Dec
}
