// Package cache provides a read-through TTL cache whose value is replaced
// wholesale on refresh and never mutated in place.
package cache

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

type entry[T any] struct {
	value    T
	loadedAt time.Time
}

// Cache holds one lazily loaded value
type Cache[T any] struct {
	name   string
	ttl    time.Duration
	now    func() time.Time
	logger *zap.Logger

	current atomic.Pointer[entry[T]]
	loadMu  sync.Mutex
}

// New creates a cache whose value expires ttl after loading.
// A ttl <= 0 disables caching: every Get loads.
func New[T any](name string, ttl time.Duration, logger *zap.Logger) *Cache[T] {
	return &Cache[T]{
		name:   name,
		ttl:    ttl,
		now:    time.Now,
		logger: logger,
	}
}

// Get returns the cached value, loading it when missing or expired.
// Readers never block on a load in progress unless the value is stale.
func (c *Cache[T]) Get(ctx context.Context, load func(context.Context) (T, error)) (T, error) {
	if v, ok := c.fresh(); ok {
		return v, nil
	}

	c.loadMu.Lock()
	defer c.loadMu.Unlock()

	// another caller may have refreshed while we waited
	if v, ok := c.fresh(); ok {
		return v, nil
	}

	v, err := load(ctx)
	if err != nil {
		var zero T
		return zero, err
	}
	if c.ttl > 0 {
		c.current.Store(&entry[T]{value: v, loadedAt: c.now()})
		c.logger.Debug("Cache refreshed", zap.String("cache", c.name))
	}
	return v, nil
}

// Reset drops the cached value so the next Get reloads it
func (c *Cache[T]) Reset() {
	c.current.Store(nil)
	c.logger.Debug("Cache reset", zap.String("cache", c.name))
}

func (c *Cache[T]) fresh() (T, bool) {
	e := c.current.Load()
	if e == nil || c.now().Sub(e.loadedAt) > c.ttl {
		var zero T
		return zero, false
	}
	return e.value, true
}
