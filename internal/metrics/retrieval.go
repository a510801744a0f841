package metrics

import "github.com/prometheus/client_golang/prometheus"

// Ingest and retrieval Prometheus metrics.
var (
	IngestDocumentsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ragcore",
			Name:      "ingest_documents_total",
			Help:      "Documents processed by ingest",
		},
		[]string{"result"}, // "ok" / "failed" / "empty"
	)

	IngestChunksTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "ragcore",
			Name:      "ingest_chunks_total",
			Help:      "Chunks written to the vector index",
		},
	)

	RetrievalQueriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ragcore",
			Name:      "retrieval_queries_total",
			Help:      "Retrieval queries by outcome",
		},
		[]string{"result"}, // "hit" / "empty" / "failed"
	)

	RetrievalSelectedChunks = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "ragcore",
			Name:      "retrieval_selected_chunks",
			Help:      "Chunks selected per query after filtering",
			Buckets:   []float64{0, 1, 2, 3, 4, 5},
		},
	)

	RetrievalDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "ragcore",
			Name:      "retrieval_duration_seconds",
			Help:      "End-to-end retrieval duration in seconds",
			Buckets:   []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
	)
)

var retrievalMetricsRegistered bool

// RegisterRetrievalMetrics registers ingest and retrieval metrics. Must be called once from main.
func RegisterRetrievalMetrics() {
	if retrievalMetricsRegistered {
		return
	}
	prometheus.MustRegister(IngestDocumentsTotal)
	prometheus.MustRegister(IngestChunksTotal)
	prometheus.MustRegister(RetrievalQueriesTotal)
	prometheus.MustRegister(RetrievalSelectedChunks)
	prometheus.MustRegister(RetrievalDuration)
	retrievalMetricsRegistered = true
}
