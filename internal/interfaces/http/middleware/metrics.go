package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/wmsexpress/backend/internal/infrastructure/telemetry"
)

// HTTPMetrics records request count, latency and body sizes per route
// pattern. A nil metrics set turns the middleware into a pass-through.
func HTTPMetrics(metrics *telemetry.HTTPMetrics) gin.HandlerFunc {
	if metrics == nil {
		return func(c *gin.Context) { c.Next() }
	}
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		start := time.Now()

		done := metrics.Begin(ctx)
		c.Next()
		done()

		metrics.Record(ctx, telemetry.HTTPRequest{
			Method:        c.Request.Method,
			Route:         routePattern(c),
			Status:        c.Writer.Status(),
			Duration:      time.Since(start),
			RequestBytes:  max(c.Request.ContentLength, 0),
			ResponseBytes: c.Writer.Size(),
		})
	}
}

// routePattern returns the matched route (e.g. "/api/v1/receipts/:id") so
// receipt ids never become metric labels.
func routePattern(c *gin.Context) string {
	if route := c.FullPath(); route != "" {
		return route
	}
	return "unknown"
}
