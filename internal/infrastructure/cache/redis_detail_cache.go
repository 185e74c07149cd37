package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/wmsexpress/backend/internal/domain/receipt"
)

// DefaultKeyPrefix namespaces receipt detail entries in Redis
const DefaultKeyPrefix = "receipt:detail:"

// RedisDetailCache stores receipt details as JSON in Redis.
// Suitable for multi-instance deployments that share one Redis.
type RedisDetailCache struct {
	client    *redis.Client
	keyPrefix string
}

// RedisConfig holds Redis connection configuration
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// NewRedisDetailCache connects to Redis and verifies the connection
func NewRedisDetailCache(ctx context.Context, cfg RedisConfig) (*RedisDetailCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisDetailCache{
		client:    client,
		keyPrefix: DefaultKeyPrefix,
	}, nil
}

// NewRedisDetailCacheWithClient creates a cache on an existing client
func NewRedisDetailCacheWithClient(client *redis.Client, keyPrefix string) *RedisDetailCache {
	if keyPrefix == "" {
		keyPrefix = DefaultKeyPrefix
	}
	return &RedisDetailCache{
		client:    client,
		keyPrefix: keyPrefix,
	}
}

// Get returns the cached detail. A missing key is reported as (nil, false, nil).
func (c *RedisDetailCache) Get(ctx context.Context, receiptID string) (*receipt.Detail, bool, error) {
	raw, err := c.client.Get(ctx, c.keyPrefix+receiptID).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read receipt detail: %w", err)
	}

	var d receipt.Detail
	if err := json.Unmarshal(raw, &d); err != nil {
		return nil, false, fmt.Errorf("failed to decode receipt detail: %w", err)
	}
	return &d, true, nil
}

// Set stores d under its receipt ID with the given TTL
func (c *RedisDetailCache) Set(ctx context.Context, d *receipt.Detail, ttl time.Duration) error {
	raw, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("failed to encode receipt detail: %w", err)
	}
	if err := c.client.Set(ctx, c.keyPrefix+d.ReceiptID, raw, ttl).Err(); err != nil {
		return fmt.Errorf("failed to write receipt detail: %w", err)
	}
	return nil
}

// Close closes the Redis client
func (c *RedisDetailCache) Close() error {
	return c.client.Close()
}

var _ DetailCache = (*RedisDetailCache)(nil)
