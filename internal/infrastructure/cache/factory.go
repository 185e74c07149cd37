package cache

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/wmsexpress/backend/internal/domain/receipt"
	"github.com/wmsexpress/backend/internal/infrastructure/config"
	"github.com/wmsexpress/backend/internal/infrastructure/telemetry"
)

// DetailProviderFactory wraps a receipt.DetailProvider with the cache the configuration asks for
type DetailProviderFactory struct {
	redisConfig           config.RedisConfig
	logger                *zap.Logger
	metrics               *telemetry.LookupMetrics
	allowInMemoryFallback bool
	connect               func(context.Context, RedisConfig) (DetailCache, error)
}

// DetailProviderFactoryOption is a functional option for configuring the factory
type DetailProviderFactoryOption func(*DetailProviderFactory)

// WithLogger sets the logger for the factory and the providers it builds
func WithLogger(logger *zap.Logger) DetailProviderFactoryOption {
	return func(f *DetailProviderFactory) {
		f.logger = logger
	}
}

// WithMetrics sets the metrics recorded by the providers it builds
func WithMetrics(metrics *telemetry.LookupMetrics) DetailProviderFactoryOption {
	return func(f *DetailProviderFactory) {
		f.metrics = metrics
	}
}

// WithInMemoryFallback controls whether an unreachable Redis falls back to an
// in-memory cache. Default is true.
func WithInMemoryFallback(allow bool) DetailProviderFactoryOption {
	return func(f *DetailProviderFactory) {
		f.allowInMemoryFallback = allow
	}
}

// NewDetailProviderFactory creates a new factory
func NewDetailProviderFactory(cfg config.RedisConfig, opts ...DetailProviderFactoryOption) *DetailProviderFactory {
	f := &DetailProviderFactory{
		redisConfig:           cfg,
		logger:                zap.NewNop(),
		allowInMemoryFallback: true,
		connect: func(ctx context.Context, rc RedisConfig) (DetailCache, error) {
			return NewRedisDetailCache(ctx, rc)
		},
	}

	for _, opt := range opts {
		opt(f)
	}

	return f
}

// CreateProvider returns next unchanged when Redis is disabled. Otherwise it
// wraps next with a Redis cache, or an in-memory cache when Redis cannot be
// reached and fallback is allowed.
func (f *DetailProviderFactory) CreateProvider(ctx context.Context, next receipt.DetailProvider) (receipt.DetailProvider, error) {
	if !f.redisConfig.Enabled {
		f.logger.Info("Receipt detail cache disabled")
		return next, nil
	}

	store, err := f.connect(ctx, RedisConfig{
		Host:     f.redisConfig.Host,
		Port:     f.redisConfig.Port,
		Password: f.redisConfig.Password,
		DB:       f.redisConfig.DB,
	})
	if err == nil {
		f.logger.Info("Using Redis receipt detail cache",
			zap.String("host", f.redisConfig.Host),
			zap.Int("port", f.redisConfig.Port),
			zap.Duration("ttl", f.redisConfig.DetailTTL),
		)
		return NewCachedDetailProvider(next, store, f.redisConfig.DetailTTL, f.logger, f.metrics), nil
	}

	if !f.allowInMemoryFallback {
		return nil, fmt.Errorf("redis required for receipt detail cache but unavailable: %w", err)
	}

	f.logger.Warn("Redis unavailable, falling back to in-memory receipt detail cache",
		zap.Error(err),
	)
	return NewCachedDetailProvider(next, NewInMemoryDetailCache(0), f.redisConfig.DetailTTL, f.logger, f.metrics), nil
}
