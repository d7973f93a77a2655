// Package observability provides Prometheus metrics for the Codex CLI
// adapter and helpers to record them around each model call.
package observability

import "github.com/prometheus/client_golang/prometheus"

// LLMBuckets defines histogram buckets suited for LLM inference latencies,
// ranging from 100ms to 10 minutes. Agentic Codex turns routinely run for
// several minutes.
var LLMBuckets = []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120, 300, 600}

var (
	// RequestsTotal counts model calls by operation, model, and outcome.
	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "codexcli_requests_total",
			Help: "Model calls",
		},
		[]string{"operation", "model", "status"},
	)

	// RequestDuration records model call duration in seconds.
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "codexcli_request_duration_seconds",
			Help:    "Model call duration",
			Buckets: LLMBuckets,
		},
		[]string{"operation", "model"},
	)

	// StreamsActive tracks streaming calls currently relaying output.
	StreamsActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "codexcli_streams_active",
			Help: "Active streaming calls",
		},
	)

	// TokensTotal counts tokens reported by the backend by direction (input/output).
	TokensTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "codexcli_tokens_total",
			Help: "Token count",
		},
		[]string{"model", "direction"},
	)

	// UnsupportedWarningsTotal counts ignored call options by setting name.
	UnsupportedWarningsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "codexcli_unsupported_warnings_total",
			Help: "Ignored call options",
		},
		[]string{"setting"},
	)

	// BackendLoadsTotal counts backend resolution attempts by result.
	// With a memoized loader this is at most one per process and loader.
	BackendLoadsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "codexcli_backend_loads_total",
			Help: "Backend load attempts",
		},
		[]string{"result"},
	)
)

func init() {
	prometheus.MustRegister(
		RequestsTotal,
		RequestDuration,
		StreamsActive,
		TokensTotal,
		UnsupportedWarningsTotal,
		BackendLoadsTotal,
	)
}
