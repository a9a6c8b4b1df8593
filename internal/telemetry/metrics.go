// Package telemetry exposes Prometheus metrics for the search pipeline.
package telemetry

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// DiscoveredTotal counts candidates that survived dedup and filtering.
	DiscoveredTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "jobradar_candidates_discovered_total",
		Help: "Candidates that passed dedup, blocklist and filter checks.",
	})

	// DuplicatesTotal counts candidates dropped by the fingerprint cache.
	DuplicatesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "jobradar_candidates_duplicate_total",
		Help: "Candidates dropped as duplicates within the cache TTL.",
	})

	// BlockedTotal counts candidates dropped by the blocklist.
	BlockedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "jobradar_candidates_blocked_total",
		Help: "Candidates dropped by blocklist terms.",
	})

	// TaskFailures counts search tasks that returned an error.
	TaskFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "jobradar_search_task_failures_total",
		Help: "Search tasks that failed inside a batch.",
	})

	// AutoApprovals counts postings approved without manual review.
	AutoApprovals = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "jobradar_auto_approvals_total",
		Help: "Review items auto-approved at or above the score threshold.",
	})

	// PublishedTotal counts postings created in the external catalog.
	PublishedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "jobradar_catalog_published_total",
		Help: "Approved postings successfully created in the catalog.",
	})

	// PublishFailures counts catalog create calls that failed.
	PublishFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "jobradar_catalog_publish_failures_total",
		Help: "Catalog create calls that failed.",
	})

	// PendingReviews tracks the current review queue depth.
	PendingReviews = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "jobradar_pending_reviews",
		Help: "Review items currently awaiting a decision.",
	})
)

var registerOnce sync.Once

// Handler registers all collectors once and returns the /metrics handler.
func Handler() http.Handler {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			DiscoveredTotal,
			DuplicatesTotal,
			BlockedTotal,
			TaskFailures,
			AutoApprovals,
			PublishedTotal,
			PublishFailures,
			PendingReviews,
		)
	})
	return promhttp.Handler()
}
