package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ClaimsAddedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bookswap_claims_added_total",
		Help: "Claims successfully added, by kind.",
	}, []string{"kind"})

	ClaimsRemovedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bookswap_claims_removed_total",
		Help: "Claims successfully removed.",
	})

	BooksCreatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bookswap_books_created_total",
		Help: "Books created on their first claim.",
	})

	BooksDeletedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bookswap_books_deleted_total",
		Help: "Books deleted after their last claim was removed.",
	})

	StaleWritesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bookswap_stale_writes_total",
		Help: "Book writes rejected because the book changed since it was read.",
	})

	MatchesFoundTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bookswap_matches_found_total",
		Help: "Swap matches returned to callers.",
	})

	MatchDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "bookswap_match_duration_seconds",
		Help:    "Time spent computing matches for one user.",
		Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
	})
)
