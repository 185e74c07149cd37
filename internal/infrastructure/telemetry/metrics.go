package telemetry

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.uber.org/zap"
)

// MetricsConfig holds metrics configuration.
type MetricsConfig struct {
	Exporter
	ExportInterval time.Duration // 60s when zero
}

// MeterProvider owns the SDK meter provider and its periodic reader.
type MeterProvider struct {
	provider *sdkmetric.MeterProvider
	logger   *zap.Logger
}

// NewMeterProvider installs a periodically exporting OTLP meter provider as
// the global one. When metrics are disabled Meter falls back to the global
// no-op provider.
func NewMeterProvider(ctx context.Context, cfg MetricsConfig, logger *zap.Logger) (*MeterProvider, error) {
	mp := &MeterProvider{logger: logger}
	if !cfg.Enabled {
		logger.Info("Metrics disabled, using no-op meter provider")
		return mp, nil
	}

	interval := cfg.ExportInterval
	if interval <= 0 {
		interval = 60 * time.Second
	}

	opts := []otlpmetricgrpc.Option{otlpmetricgrpc.WithEndpoint(cfg.CollectorEndpoint)}
	if cfg.Insecure {
		opts = append(opts, otlpmetricgrpc.WithInsecure())
	}
	exporter, err := otlpmetricgrpc.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create OTLP metrics exporter: %w", err)
	}

	res, err := newResource(cfg.ServiceName, cfg.ServiceVersion)
	if err != nil {
		return nil, err
	}

	mp.provider = sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(interval))),
	)
	otel.SetMeterProvider(mp.provider)

	logger.Info("OpenTelemetry MeterProvider initialized",
		zap.String("collector_endpoint", cfg.CollectorEndpoint),
		zap.Duration("export_interval", interval),
	)
	return mp, nil
}

// Shutdown flushes pending metrics and stops the provider.
func (mp *MeterProvider) Shutdown(ctx context.Context) error {
	var shutdown func(context.Context) error
	if mp.provider != nil {
		shutdown = mp.provider.Shutdown
	}
	return shutdownProvider(ctx, mp.logger, "metrics", shutdown)
}

// Meter returns a named meter, falling back to the global provider.
func (mp *MeterProvider) Meter(name string, opts ...metric.MeterOption) metric.Meter {
	if mp.provider == nil {
		return otel.GetMeterProvider().Meter(name, opts...)
	}
	return mp.provider.Meter(name, opts...)
}

// IsEnabled returns whether metrics are exported.
func (mp *MeterProvider) IsEnabled() bool {
	return mp.provider != nil
}

// ForceFlush exports all metrics that have not yet been exported.
func (mp *MeterProvider) ForceFlush(ctx context.Context) error {
	if mp.provider == nil {
		return nil
	}
	return mp.provider.ForceFlush(ctx)
}

// instrumentSet creates instruments on one meter and keeps the first error,
// so a metrics set reports a single failure after all instruments are built.
type instrumentSet struct {
	meter metric.Meter
	err   error
}

func (s *instrumentSet) fail(name string, err error) {
	if err != nil && s.err == nil {
		s.err = fmt.Errorf("failed to create instrument %s: %w", name, err)
	}
}

func (s *instrumentSet) counter(name, description, unit string) metric.Int64Counter {
	c, err := s.meter.Int64Counter(name, metric.WithDescription(description), metric.WithUnit(unit))
	s.fail(name, err)
	return c
}

func (s *instrumentSet) upDownCounter(name, description, unit string) metric.Int64UpDownCounter {
	c, err := s.meter.Int64UpDownCounter(name, metric.WithDescription(description), metric.WithUnit(unit))
	s.fail(name, err)
	return c
}

func (s *instrumentSet) gauge(name, description, unit string) metric.Int64Gauge {
	g, err := s.meter.Int64Gauge(name, metric.WithDescription(description), metric.WithUnit(unit))
	s.fail(name, err)
	return g
}

func (s *instrumentSet) histogram(name, description, unit string, buckets []float64) metric.Float64Histogram {
	h, err := s.meter.Float64Histogram(name,
		metric.WithDescription(description),
		metric.WithUnit(unit),
		metric.WithExplicitBucketBoundaries(buckets...),
	)
	s.fail(name, err)
	return h
}

// Metric attribute keys.
var (
	AttrOutcome  = attribute.Key("outcome")
	AttrCodeType = attribute.Key("code_type")
	AttrInArea   = attribute.Key("in_area")
	AttrResult   = attribute.Key("result")
	AttrSource   = attribute.Key("source")

	AttrHTTPMethod      = attribute.Key("http.method")
	AttrHTTPStatusCode  = attribute.Key("http.status_code")
	AttrHTTPRoute       = attribute.Key("http.route")
	AttrHTTPStatusClass = attribute.Key("http.status_class")
)

var (
	// resolveBuckets cover in-memory catalog lookups (seconds).
	resolveBuckets = []float64{0.00001, 0.00005, 0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05}

	// httpDurationBuckets cover whole request handling (seconds).
	httpDurationBuckets = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10}

	// bodySizeBuckets cover JSON bodies up to the default 1MB limit (bytes).
	bodySizeBuckets = []float64{100, 500, 1000, 5000, 10000, 50000, 100000, 500000, 1000000}
)
