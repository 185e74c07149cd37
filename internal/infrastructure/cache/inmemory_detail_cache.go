package cache

import (
	"context"
	"sync"
	"time"

	"github.com/wmsexpress/backend/internal/domain/receipt"
)

// entry is a cached detail with its expiration
type entry struct {
	detail    receipt.Detail
	expiresAt time.Time
}

// InMemoryDetailCache keeps receipt details in a process-local map.
// Used when Redis is unavailable; entries are not shared across instances.
type InMemoryDetailCache struct {
	mu        sync.RWMutex
	entries   map[string]entry
	stopChan  chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// NewInMemoryDetailCache creates the cache and starts its cleanup goroutine
func NewInMemoryDetailCache(cleanupInterval time.Duration) *InMemoryDetailCache {
	if cleanupInterval <= 0 {
		cleanupInterval = 5 * time.Minute
	}
	c := &InMemoryDetailCache{
		entries:  make(map[string]entry),
		stopChan: make(chan struct{}),
	}

	c.wg.Add(1)
	go c.cleanupLoop(cleanupInterval)

	return c
}

// Get returns a copy of the cached detail if present and not expired
func (c *InMemoryDetailCache) Get(_ context.Context, receiptID string) (*receipt.Detail, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entries[receiptID]
	if !ok || time.Now().After(e.expiresAt) {
		return nil, false, nil
	}
	d := e.detail
	return &d, true, nil
}

// Set stores a copy of d
func (c *InMemoryDetailCache) Set(_ context.Context, d *receipt.Detail, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[d.ReceiptID] = entry{
		detail:    *d,
		expiresAt: time.Now().Add(ttl),
	}
	return nil
}

// Close stops the cleanup goroutine. Safe to call multiple times.
func (c *InMemoryDetailCache) Close() error {
	c.closeOnce.Do(func() {
		close(c.stopChan)
		c.wg.Wait()
	})
	return nil
}

func (c *InMemoryDetailCache) cleanupLoop(interval time.Duration) {
	defer c.wg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-c.stopChan:
			return
		case <-ticker.C:
			c.cleanup()
		}
	}
}

// cleanup removes expired entries
func (c *InMemoryDetailCache) cleanup() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	for id, e := range c.entries {
		if now.After(e.expiresAt) {
			delete(c.entries, id)
		}
	}
}

// Size returns the number of stored entries, expired ones included
func (c *InMemoryDetailCache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

var _ DetailCache = (*InMemoryDetailCache)(nil)
