// Package metrics provides Prometheus metrics for the mediscan API. Beyond
// the usual HTTP request metrics it tracks the resolution pipeline
// (resolutions by source, remote fallback failures) and the ADR report store
// (submissions, high-dose flags).
//
// All metrics are registered with the Prometheus default registry during
// package initialization.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	HTTPRequestTotals = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_request_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		},
		[]string{"method", "path"},
	)

	HTTPRequestInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_request_in_flight",
			Help: "Current in-flight requests",
		},
	)

	RateLimiterBucketsTotal = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "rate_limiter_buckets_total",
			Help: "Total number of per-client rate limiter buckets currently held",
		},
	)

	// ResolutionsTotal counts resolutions by outcome source: "local" (DRAP
	// index hit), "remote" (openFDA fallback consulted), "none" (empty
	// candidate name, nothing queried).
	ResolutionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "resolutions_total",
			Help: "Total scan/search resolutions by source",
		},
		[]string{"source"},
	)

	// RemoteQueryFailures counts degraded openFDA queries by kind ("label"
	// or "event"). A failure never fails the resolution itself.
	RemoteQueryFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "remote_query_failures_total",
			Help: "Total failed openFDA fallback queries by query kind",
		},
		[]string{"query"},
	)

	ReportsSubmitted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "adr_reports_submitted_total",
			Help: "Total ADR reports accepted by the store",
		},
	)

	HighDoseFlags = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "adr_high_dose_flags_total",
			Help: "Total submitted reports flagged as exceeding the reference max dose",
		},
	)
)

func init() {
	prometheus.MustRegister(HTTPRequestTotals)
	prometheus.MustRegister(HTTPRequestDuration)
	prometheus.MustRegister(HTTPRequestInFlight)
	prometheus.MustRegister(RateLimiterBucketsTotal)
	prometheus.MustRegister(ResolutionsTotal)
	prometheus.MustRegister(RemoteQueryFailures)
	prometheus.MustRegister(ReportsSubmitted)
	prometheus.MustRegister(HighDoseFlags)
}
