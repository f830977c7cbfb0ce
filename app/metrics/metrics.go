// Package metrics provides Prometheus metrics for topviews.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// UpstreamRequests counts requests to the pageview API.
	UpstreamRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "topviews",
			Name:      "upstream_requests_total",
			Help:      "Total number of requests to the pageview API",
		},
		[]string{"endpoint", "status"},
	)

	// UpstreamDuration measures request duration to the pageview API.
	UpstreamDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "topviews",
			Name:      "upstream_request_duration_seconds",
			Help:      "Duration of requests to the pageview API in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"endpoint"},
	)

	// QueryLookups counts query cache lookups by result.
	QueryLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "topviews",
			Name:      "query_lookups_total",
			Help:      "Total number of query cache lookups",
		},
		[]string{"kind", "result"},
	)

	// Sessions tracks the amount of live dashboard sessions.
	Sessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "topviews",
			Name:      "sessions",
			Help:      "Number of live dashboard sessions",
		},
	)
)

// RecordUpstream records a request to the pageview API.
func RecordUpstream(endpoint, status string, d time.Duration) {
	UpstreamRequests.WithLabelValues(endpoint, status).Inc()
	UpstreamDuration.WithLabelValues(endpoint).Observe(d.Seconds())
}

// RecordLookup records a query cache lookup, result is one of
// "hit", "store" or "fetch".
func RecordLookup(kind, result string) {
	QueryLookups.WithLabelValues(kind, result).Inc()
}
