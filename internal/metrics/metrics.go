// Package metrics provides Prometheus metrics for the validation and
// ingestion pipelines.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "vouch"

// Metrics holds all Prometheus metrics.
type Metrics struct {
	// Completion service
	CompletionCalls   *prometheus.CounterVec
	CompletionLatency *prometheus.HistogramVec
	CompletionTokens  *prometheus.CounterVec
	Retries           *prometheus.CounterVec

	// Validation
	RetrievalFailures prometheus.Counter
	CandidatesFetched prometheus.Histogram
	FilterFailOpen    prometheus.Counter
	FilterDropped     *prometheus.CounterVec
	VerdictsTotal     *prometheus.CounterVec

	// Ingestion
	FilesProcessed   *prometheus.CounterVec
	QuotesExtracted  prometheus.Counter
	QuotesDropped    *prometheus.CounterVec
	ChunksFailed     prometheus.Counter
	IngestionLatency prometheus.Histogram

	// Embedding cache
	CacheLookups *prometheus.CounterVec
}

// DefaultMetrics is the global metrics instance.
var DefaultMetrics = NewMetrics(prometheus.DefaultRegisterer)

// NewMetrics creates and registers all metrics on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		CompletionCalls: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "llm",
			Name:      "calls_total",
			Help:      "Total number of completion calls.",
		}, []string{"provider", "status"}),
		CompletionLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "llm",
			Name:      "call_duration_seconds",
			Help:      "Duration of completion calls in seconds.",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120},
		}, []string{"provider", "status"}),
		CompletionTokens: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "llm",
			Name:      "tokens_total",
			Help:      "Total tokens consumed by completion calls.",
		}, []string{"provider"}),
		Retries: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "retries_total",
			Help:      "Total number of retried external calls.",
		}, []string{"operation"}),

		RetrievalFailures: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "validate",
			Name:      "retrieval_failures_total",
			Help:      "Retrievals that failed and were treated as zero candidates.",
		}),
		CandidatesFetched: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "validate",
			Name:      "candidates_fetched",
			Help:      "Number of candidates returned by the vector index per assumption.",
			Buckets:   []float64{0, 5, 10, 25, 50, 100, 200},
		}),
		FilterFailOpen: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "validate",
			Name:      "filter_fail_open_total",
			Help:      "Justification stages skipped because the service failed.",
		}),
		FilterDropped: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "validate",
			Name:      "filter_dropped_total",
			Help:      "Candidates dropped by a filter stage.",
		}, []string{"stage"}),
		VerdictsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "validate",
			Name:      "verdicts_total",
			Help:      "Verdicts produced, by result kind.",
		}, []string{"kind"}),

		FilesProcessed: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingest",
			Name:      "files_total",
			Help:      "Transcript files processed, by final status.",
		}, []string{"status"}),
		QuotesExtracted: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingest",
			Name:      "quotes_extracted_total",
			Help:      "Quotes retained after extraction and classification.",
		}),
		QuotesDropped: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingest",
			Name:      "quotes_dropped_total",
			Help:      "Quotes dropped during ingestion.",
		}, []string{"reason"}),
		ChunksFailed: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingest",
			Name:      "chunks_failed_total",
			Help:      "Chunks whose extraction failed after retries.",
		}),
		IngestionLatency: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "ingest",
			Name:      "file_duration_seconds",
			Help:      "Per-file ingestion duration in seconds.",
			Buckets:   []float64{1, 5, 10, 30, 60, 120, 300, 600},
		}),

		CacheLookups: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "lookups_total",
			Help:      "Embedding cache lookups by result.",
		}, []string{"result"}),
	}
}

// NewTestMetrics returns metrics registered on a private registry.
func NewTestMetrics() *Metrics {
	return NewMetrics(prometheus.NewRegistry())
}
