package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/wmsexpress/backend/internal/infrastructure/config"
)

func TestDetailProviderFactory_CreateProvider(t *testing.T) {
	enabled := config.RedisConfig{Enabled: true, Host: "redis", Port: 6379, DetailTTL: time.Minute}
	unreachable := func(context.Context, RedisConfig) (DetailCache, error) {
		return nil, errors.New("dial tcp redis:6379: connect: connection refused")
	}

	t.Run("disabled returns the wrapped provider", func(t *testing.T) {
		next := &countingProvider{}
		f := NewDetailProviderFactory(config.RedisConfig{Enabled: false})

		p, err := f.CreateProvider(context.Background(), next)
		require.NoError(t, err)
		assert.Same(t, next, p)
	})

	t.Run("reachable redis wraps with redis cache", func(t *testing.T) {
		client, fake := newFakeRedisClient(t)
		var got RedisConfig
		f := NewDetailProviderFactory(enabled)
		f.connect = func(_ context.Context, rc RedisConfig) (DetailCache, error) {
			got = rc
			return NewRedisDetailCacheWithClient(client, ""), nil
		}

		p, err := f.CreateProvider(context.Background(), &countingProvider{})
		require.NoError(t, err)
		assert.Equal(t, RedisConfig{Host: "redis", Port: 6379}, got)

		cached, ok := p.(*CachedDetailProvider)
		require.True(t, ok)
		assert.Equal(t, time.Minute, cached.ttl)

		_, err = p.Detail(context.Background(), "WR-001")
		require.NoError(t, err)
		assert.Contains(t, fake.data, "receipt:detail:WR-001")
	})

	t.Run("unreachable redis falls back to memory", func(t *testing.T) {
		core, recorded := observer.New(zapcore.WarnLevel)
		f := NewDetailProviderFactory(enabled, WithLogger(zap.New(core)))
		f.connect = unreachable

		p, err := f.CreateProvider(context.Background(), &countingProvider{})
		require.NoError(t, err)

		cached, ok := p.(*CachedDetailProvider)
		require.True(t, ok)
		defer cached.Close()
		assert.IsType(t, &InMemoryDetailCache{}, cached.cache)
		assert.Equal(t, 1, recorded.FilterMessage("Redis unavailable, falling back to in-memory receipt detail cache").Len())
	})

	t.Run("unreachable redis without fallback fails", func(t *testing.T) {
		f := NewDetailProviderFactory(enabled, WithInMemoryFallback(false))
		f.connect = unreachable

		_, err := f.CreateProvider(context.Background(), &countingProvider{})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "redis required for receipt detail cache")
	})
}

func TestDetailProviderFactory_WithMetrics(t *testing.T) {
	metrics, _ := newTestMetrics(t)
	f := NewDetailProviderFactory(config.RedisConfig{}, WithMetrics(metrics))
	assert.Same(t, metrics, f.metrics)
}
