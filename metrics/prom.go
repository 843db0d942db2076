package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	PasteCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pasty_paste_created_total",
		Help: "no. of pastes created",
	})
	PasteRetrieved = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pasty_paste_retrieved_total",
		Help: "no. of pastes retrieved by id",
	})
	PasteNotFound = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pasty_paste_not_found_total",
		Help: "no. of lookups for well-formed ids with no paste",
	})
	AuthorLookups = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pasty_author_lookups_total",
		Help: "no. of list-by-author lookups",
	})
	StorageErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pasty_storage_errors_total",
			Help: "no. of failed backing store calls",
		},
		[]string{"operation"},
	)
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pasty_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)
)
