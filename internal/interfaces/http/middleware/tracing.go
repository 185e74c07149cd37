// Package middleware provides HTTP middleware for the warehouse lookup API.
package middleware

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/wmsexpress/backend/internal/infrastructure/logger"
	"github.com/wmsexpress/backend/internal/infrastructure/telemetry"
)

// MaxClientIDLength is the maximum number of digits accepted for a client id.
const MaxClientIDLength = 10

// TracingConfig holds configuration for the tracing middleware.
type TracingConfig struct {
	ServiceName string
	Enabled     bool
	// SkipPaths are request paths that never get a server span.
	SkipPaths []string
}

// DefaultTracingConfig traces everything except the health probe.
func DefaultTracingConfig() TracingConfig {
	return TracingConfig{
		ServiceName: "wms-backend",
		Enabled:     true,
		SkipPaths:   []string{"/api/v1/health"},
	}
}

// TracingWithConfig returns the otelgin middleware. Span names follow
// "METHOD route", e.g. "GET /api/v1/clients/:id/receipts".
func TracingWithConfig(cfg TracingConfig) gin.HandlerFunc {
	if !cfg.Enabled {
		return func(c *gin.Context) { c.Next() }
	}
	var opts []otelgin.Option
	if len(cfg.SkipPaths) > 0 {
		skip := make(map[string]struct{}, len(cfg.SkipPaths))
		for _, p := range cfg.SkipPaths {
			skip[p] = struct{}{}
		}
		opts = append(opts, otelgin.WithFilter(func(r *http.Request) bool {
			_, skipped := skip[r.URL.Path]
			return !skipped
		}))
	}
	return otelgin.Middleware(cfg.ServiceName, opts...)
}

// TracingAttributeInjector tags the server span with the request id and the
// client the request is scoped to, and records that client on the request
// context so every log line of the request carries it. Place it after
// RequestID and TracingWithConfig.
func TracingAttributeInjector() gin.HandlerFunc {
	return func(c *gin.Context) {
		clientID, hasClient := requestClientID(c)
		if hasClient {
			c.Request = c.Request.WithContext(logger.WithClientID(c.Request.Context(), clientID))
		}

		if span := trace.SpanFromContext(c.Request.Context()); span.IsRecording() {
			if requestID := c.GetString(RequestIDKey); requestID != "" {
				span.SetAttributes(attribute.String(telemetry.SpanAttrRequestID, requestID))
			}
			if hasClient {
				span.SetAttributes(attribute.Int(telemetry.SpanAttrClientID, clientID))
			}
		}
		c.Next()
	}
}

// requestClientID reads the client from the client_id query parameter or, on
// /clients/:id routes, from the path.
func requestClientID(c *gin.Context) (int, bool) {
	raw := c.Query("client_id")
	if raw == "" && strings.Contains(c.FullPath(), "/clients/:id") {
		raw = c.Param("id")
	}
	return parseClientID(raw)
}

func parseClientID(raw string) (int, bool) {
	if raw == "" || len(raw) > MaxClientIDLength || strings.ContainsAny(raw, "+-") {
		return 0, false
	}
	id, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return id, true
}

// SpanErrorMarker marks the server span failed for 4xx responses. otelgin
// already sets the error status for 5xx. Place it after TracingWithConfig.
func SpanErrorMarker() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		span := trace.SpanFromContext(c.Request.Context())
		status := c.Writer.Status()
		if !span.IsRecording() || status < http.StatusBadRequest || status >= http.StatusInternalServerError {
			return
		}
		span.SetStatus(codes.Error, http.StatusText(status))
		span.SetAttributes(attribute.Int("http.status_code", status))
	}
}
