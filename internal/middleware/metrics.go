// Package middleware provides Gin HTTP middleware for the dashboard API. All
// middleware in this package is registered in internal/api/router.go before
// any route handlers so that every request is covered regardless of handler.
package middleware

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tsumanga/analytics-dashboard/internal/telemetry"
)

// MetricsMiddleware returns a Gin handler that records Prometheus request
// counters and latency histograms for every request.
//
// The path label is set from c.FullPath(), the matched Gin route template,
// rather than the raw URL. Requests that match no registered route (404/405)
// use the literal string "<no-route>" so unhandled paths do not inflate
// label cardinality.
//
// Must be registered AFTER gin.Recovery() so the response status set by
// error handlers is captured correctly.
func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "<no-route>"
		}

		duration := time.Since(start).Seconds()
		method := c.Request.Method
		status := fmt.Sprintf("%d", c.Writer.Status())

		telemetry.HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
		telemetry.HTTPRequestDuration.WithLabelValues(method, path).Observe(duration)
	}
}
