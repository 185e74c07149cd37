package cache

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/wmsexpress/backend/internal/domain/receipt"
	"github.com/wmsexpress/backend/internal/infrastructure/telemetry"
)

// DetailCache stores receipt details keyed by receipt ID
type DetailCache interface {
	Get(ctx context.Context, receiptID string) (*receipt.Detail, bool, error)
	Set(ctx context.Context, d *receipt.Detail, ttl time.Duration) error
	Close() error
}

// Cache lookup results reported to metrics
const (
	resultHit   = "hit"
	resultMiss  = "miss"
	resultError = "error"
)

// CachedDetailProvider serves details from a DetailCache and fills it from the
// wrapped provider on a miss. Cache failures are logged and bypassed.
type CachedDetailProvider struct {
	next    receipt.DetailProvider
	cache   DetailCache
	ttl     time.Duration
	logger  *zap.Logger
	metrics *telemetry.LookupMetrics
}

// NewCachedDetailProvider wraps next with cache
func NewCachedDetailProvider(next receipt.DetailProvider, cache DetailCache, ttl time.Duration, logger *zap.Logger, metrics *telemetry.LookupMetrics) *CachedDetailProvider {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CachedDetailProvider{
		next:    next,
		cache:   cache,
		ttl:     ttl,
		logger:  logger,
		metrics: metrics,
	}
}

// Detail implements receipt.DetailProvider
func (p *CachedDetailProvider) Detail(ctx context.Context, receiptID string) (*receipt.Detail, error) {
	d, ok, err := p.cache.Get(ctx, receiptID)
	switch {
	case err != nil:
		p.metrics.RecordDetailCache(ctx, resultError)
		p.logger.Warn("Receipt detail cache read failed",
			zap.String("receipt_id", receiptID),
			zap.Error(err),
		)
		return p.next.Detail(ctx, receiptID)
	case ok:
		p.metrics.RecordDetailCache(ctx, resultHit)
		return d, nil
	}

	p.metrics.RecordDetailCache(ctx, resultMiss)
	d, err = p.next.Detail(ctx, receiptID)
	if err != nil {
		return nil, err
	}
	if err := p.cache.Set(ctx, d, p.ttl); err != nil {
		p.logger.Warn("Receipt detail cache write failed",
			zap.String("receipt_id", receiptID),
			zap.Error(err),
		)
	}
	return d, nil
}

// Close releases the underlying cache
func (p *CachedDetailProvider) Close() error {
	return p.cache.Close()
}

var _ receipt.DetailProvider = (*CachedDetailProvider)(nil)
