// Package telemetry provides application-level observability for the
// analytics dashboard.
//
// # Prometheus Metrics Endpoint
//
// All metrics are registered against the default Prometheus registry and are
// served by the side-channel HTTP server started by cmd/server:
//
//	GET http://<host>:<DASH_TELEMETRY_METRICS_PROMETHEUS_PORT>/metrics
//
// Default port: 9090. The endpoint is NOT served by the Gin router so the
// scrape path stays off the public ingress and is never rate limited.
//
// # Metric Groups
//
//   - HTTP request counters and latency histograms (labelled by route
//     template, not raw URL, to keep label cardinality bounded)
//   - Upstream analytics-provider request counters and latency
//   - Report cache hit/miss counters
//   - Report computation counters
package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP metrics — labelled by method, route template, and status code.
//
// The path label holds the Gin route template (e.g. /app/dash/downloads),
// NOT the raw URL, to prevent unbounded cardinality.
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests processed, by method, route template, and status code.",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Histogram of HTTP request latencies, by method and route template.",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"method", "path"},
	)
)

// Upstream provider metrics.
//
// UpstreamRequestsTotal counts every HTTP round-trip to the analytics
// provider, by endpoint path and status code ("error" for transport
// failures). Cache hits never increment this counter, so
//
//	rate(distimo_requests_total[5m])
//
// measures real upstream call volume — the quantity the report cache exists
// to bound.
var (
	UpstreamRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "distimo_requests_total",
			Help: "Total number of requests issued to the upstream analytics provider, by path and status.",
		},
		[]string{"path", "status"},
	)

	UpstreamRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "distimo_request_duration_seconds",
			Help:    "Histogram of upstream analytics-provider request latencies, by path.",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"path"},
	)
)

// Cache and report metrics.
var (
	CacheHitsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "report_cache_hits_total",
			Help: "Total number of report payloads served from the cache store, by endpoint path.",
		},
		[]string{"path"},
	)

	CacheMissesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "report_cache_misses_total",
			Help: "Total number of cache misses (including cache-store errors) that triggered an upstream fetch, by endpoint path.",
		},
		[]string{"path"},
	)

	ReportsComputedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reports_computed_total",
			Help: "Total number of report computations, by report name.",
		},
		[]string{"report"},
	)
)
