package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	MessagesHandled = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "chatresolver_messages_handled_total",
		Help: "The total number of incoming messages by handling result",
	}, []string{"result"})

	ReferencesSkipped = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "chatresolver_references_skipped_total",
		Help: "References dropped before resolution by cause",
	}, []string{"cause"})

	ResolveOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "chatresolver_resolve_outcomes_total",
		Help: "Resolution outcomes by status",
	}, []string{"status"})

	BatchOverflows = promauto.NewCounter(prometheus.CounterOpts{
		Name: "chatresolver_batch_overflows_total",
		Help: "Number of batches truncated by the batch cap",
	})

	BatchSize = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "chatresolver_batch_size",
		Help:    "Number of handles resolved in one batch",
		Buckets: []float64{1, 2, 5, 10, 20, 30},
	})

	DirectoryLookupDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "chatresolver_directory_lookup_duration_seconds",
		Help:    "Duration of a single directory lookup",
		Buckets: prometheus.DefBuckets,
	}, []string{"backend"})
)

// Результаты обработки сообщения для MessagesHandled.
const (
	ResultResolved     = "resolved"
	ResultCollected    = "collected"
	ResultEmpty        = "empty"
	ResultAcknowledged = "acknowledged"
	ResultFailed       = "failed"
)
