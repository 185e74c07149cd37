package telemetry

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.37.0"
	"go.uber.org/zap"
)

// shutdownTimeout bounds the final flush of each provider
const shutdownTimeout = 10 * time.Second

// Exporter describes the OTLP collector shared by traces, metrics and logs.
type Exporter struct {
	Enabled           bool
	CollectorEndpoint string
	ServiceName       string
	ServiceVersion    string
	Insecure          bool
}

// newResource describes this service to the collector.
func newResource(serviceName, serviceVersion string) (*resource.Resource, error) {
	if serviceVersion == "" {
		serviceVersion = "dev"
	}
	res, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(serviceName),
			semconv.ServiceVersion(serviceVersion),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}
	return res, nil
}

// shutdownProvider flushes and stops one signal's provider. A nil shutdown
// func means the signal was disabled.
func shutdownProvider(ctx context.Context, logger *zap.Logger, signal string, shutdown func(context.Context) error) error {
	if shutdown == nil {
		logger.Debug("Telemetry signal disabled, nothing to shut down", zap.String("signal", signal))
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()

	if err := shutdown(ctx); err != nil {
		logger.Error("Error shutting down telemetry provider", zap.String("signal", signal), zap.Error(err))
		return fmt.Errorf("failed to shutdown %s provider: %w", signal, err)
	}
	logger.Info("Telemetry provider shut down", zap.String("signal", signal))
	return nil
}
