package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// HTTPRequest is one finished API request as seen by HTTPMetrics.
type HTTPRequest struct {
	Method        string
	Route         string
	Status        int
	Duration      time.Duration
	RequestBytes  int64
	ResponseBytes int
}

// HTTPMetrics holds the HTTP server instruments. A nil *HTTPMetrics records
// nothing.
type HTTPMetrics struct {
	requestTotal    metric.Int64Counter
	requestDuration metric.Float64Histogram
	requestSize     metric.Float64Histogram
	responseSize    metric.Float64Histogram
	activeRequests  metric.Int64UpDownCounter
}

// NewHTTPMetrics creates the HTTP server instruments on meter:
//   - http_server_request_total: count by method, route, status code and status class
//   - http_server_request_duration_seconds: latency by method and route
//   - http_server_request_size_bytes / http_server_response_size_bytes: body sizes
//   - http_server_active_requests: requests in flight
func NewHTTPMetrics(meter metric.Meter) (*HTTPMetrics, error) {
	if meter == nil {
		return nil, &MetricsError{Op: "NewHTTPMetrics", Err: "meter cannot be nil"}
	}

	set := &instrumentSet{meter: meter}
	m := &HTTPMetrics{
		requestTotal: set.counter("http_server_request_total",
			"Total number of HTTP requests", "{request}"),
		requestDuration: set.histogram("http_server_request_duration_seconds",
			"HTTP request latency distribution in seconds", "s", httpDurationBuckets),
		requestSize: set.histogram("http_server_request_size_bytes",
			"HTTP request body size distribution in bytes", "By", bodySizeBuckets),
		responseSize: set.histogram("http_server_response_size_bytes",
			"HTTP response body size distribution in bytes", "By", bodySizeBuckets),
		activeRequests: set.upDownCounter("http_server_active_requests",
			"Number of currently active HTTP requests", "{request}"),
	}
	if set.err != nil {
		return nil, set.err
	}
	return m, nil
}

// Begin marks a request as in flight and returns the function ending it.
func (m *HTTPMetrics) Begin(ctx context.Context) func() {
	if m == nil {
		return func() {}
	}
	m.activeRequests.Add(ctx, 1)
	return func() { m.activeRequests.Add(ctx, -1) }
}

// Record counts a finished request. Empty bodies are left out of the size
// histograms.
func (m *HTTPMetrics) Record(ctx context.Context, r HTTPRequest) {
	if m == nil {
		return
	}
	base := []attribute.KeyValue{
		AttrHTTPMethod.String(r.Method),
		AttrHTTPRoute.String(r.Route),
	}
	route := metric.WithAttributes(base...)

	m.requestTotal.Add(ctx, 1, metric.WithAttributes(append(base,
		AttrHTTPStatusCode.Int(r.Status),
		AttrHTTPStatusClass.String(StatusClass(r.Status)),
	)...))
	m.requestDuration.Record(ctx, r.Duration.Seconds(), route)

	if r.RequestBytes > 0 {
		m.requestSize.Record(ctx, float64(r.RequestBytes), route)
	}
	if r.ResponseBytes > 0 {
		m.responseSize.Record(ctx, float64(r.ResponseBytes), route)
	}
}

// StatusClass groups status codes into classes (2xx, 4xx, 5xx).
func StatusClass(status int) string {
	switch {
	case status >= 200 && status < 300:
		return "2xx"
	case status >= 300 && status < 400:
		return "3xx"
	case status >= 400 && status < 500:
		return "4xx"
	case status >= 500:
		return "5xx"
	default:
		return "other"
	}
}
