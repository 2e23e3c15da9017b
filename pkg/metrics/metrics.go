// Package metrics holds the Prometheus collectors shared by the ingest, index
// and query paths. Collectors register with the default registry on import.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "menurag"

var (
	// QueriesTotal counts answered queries by final state.
	// Labels: state (respond_answer, respond_not_found, respond_error, not_loaded)
	QueriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "query",
			Name:      "queries_total",
			Help:      "Total number of queries by final state",
		},
		[]string{"state"},
	)

	// RetrievalDuration tracks similarity search latency.
	RetrievalDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "query",
			Name:      "retrieval_duration_seconds",
			Help:      "Duration of index retrieval in seconds",
			Buckets:   prometheus.DefBuckets,
		},
	)

	// RetrievalTotal counts retrievals by outcome.
	// Labels: status (ok, empty, error)
	RetrievalTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "query",
			Name:      "retrievals_total",
			Help:      "Total number of retrievals by outcome",
		},
		[]string{"status"},
	)

	// GenerationDuration tracks text generation latency.
	GenerationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "query",
			Name:      "generation_duration_seconds",
			Help:      "Duration of answer generation in seconds",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
	)

	// IndexBatchesTotal counts index write batches.
	// Labels: result (success, error)
	IndexBatchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "index",
			Name:      "batches_total",
			Help:      "Total number of index write batches",
		},
		[]string{"result"},
	)

	// IndexedChunksTotal counts chunks successfully written to the index.
	IndexedChunksTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "index",
			Name:      "chunks_total",
			Help:      "Total number of chunks written to the index",
		},
	)

	// EmbeddingRequestsTotal counts embedding calls.
	// Labels: provider, status (success, error)
	EmbeddingRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "embedding",
			Name:      "requests_total",
			Help:      "Total number of embedding requests",
		},
		[]string{"provider", "status"},
	)

	// EmbeddingRequestDuration tracks embedding call latency.
	EmbeddingRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "embedding",
			Name:      "request_duration_seconds",
			Help:      "Embedding request duration in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"provider"},
	)

	// IngestItemsTotal counts items per ingest stage.
	// Labels: stage (normalized, dropped, duplicate, consolidated)
	IngestItemsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingest",
			Name:      "items_total",
			Help:      "Total number of menu items by ingest stage",
		},
		[]string{"stage"},
	)

	// IngestSourcesTotal counts processed sources.
	// Labels: result (ok, format_error, load_error)
	IngestSourcesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingest",
			Name:      "sources_total",
			Help:      "Total number of restaurant sources processed",
		},
		[]string{"result"},
	)
)
