// Package cache is a TTL key/value cache with request coalescing.
//
// Entries expire lazily: validity is checked on read against the instance TTL
// and nothing sweeps the map in the background. GetOrLoad guarantees a single
// in-flight loader per key; concurrent callers wait for and share its result.
package cache

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"golang.org/x/sync/singleflight"

	"matchpulse/internal/metrics"
)

// Entry is a stored value with the time it was stored.
type Entry[T any] struct {
	Value    T
	StoredAt time.Time
}

// Valid reports whether the entry is still fresh at now.
func (e Entry[T]) Valid(now time.Time, ttl time.Duration) bool {
	return now.Sub(e.StoredAt) < ttl
}

type Loader[T any] func(ctx context.Context) (T, error)

type Cache[T any] struct {
	name    string
	ttl     time.Duration
	items   *gocache.Cache
	group   singleflight.Group
	now     func() time.Time
	metrics *metrics.Metrics
}

// New creates a cache whose entries live for ttl. m may be nil.
func New[T any](name string, ttl time.Duration, m *metrics.Metrics) *Cache[T] {
	return &Cache[T]{
		name: name,
		ttl:  ttl,
		// No janitor: expiry is decided on read.
		items:   gocache.New(gocache.NoExpiration, 0),
		now:     time.Now,
		metrics: m,
	}
}

// SetClock replaces the time source. Intended for tests.
func (c *Cache[T]) SetClock(now func() time.Time) {
	c.now = now
}

func (c *Cache[T]) TTL() time.Duration {
	return c.ttl
}

func (c *Cache[T]) Get(key string) (T, bool) {
	value, ok := c.lookup(key)
	c.count(ok)
	return value, ok
}

func (c *Cache[T]) Set(key string, value T) {
	c.items.Set(key, Entry[T]{Value: value, StoredAt: c.now()}, gocache.NoExpiration)
}

// Len counts stored entries, expired ones included until they are read.
func (c *Cache[T]) Len() int {
	return c.items.ItemCount()
}

// GetOrLoad returns the cached value for key or runs loader to fill it. Only
// one loader per key runs at a time. Loader errors are returned to every
// waiting caller and are not cached.
func (c *Cache[T]) GetOrLoad(ctx context.Context, key string, loader Loader[T]) (T, error) {
	if value, ok := c.Get(key); ok {
		return value, nil
	}

	// The shared load must not die with whichever caller happened to start it.
	loadCtx := context.WithoutCancel(ctx)
	ch := c.group.DoChan(key, func() (any, error) {
		if value, ok := c.lookup(key); ok {
			return value, nil
		}
		if c.metrics != nil {
			c.metrics.CacheLoads.WithLabelValues(c.name).Inc()
		}
		value, err := loader(loadCtx)
		if err != nil {
			return nil, err
		}
		c.Set(key, value)
		return value, nil
	})

	var zero T
	select {
	case <-ctx.Done():
		return zero, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return zero, res.Err
		}
		return res.Val.(T), nil
	}
}

func (c *Cache[T]) lookup(key string) (T, bool) {
	var zero T
	raw, ok := c.items.Get(key)
	if !ok {
		return zero, false
	}
	entry := raw.(Entry[T])
	if !entry.Valid(c.now(), c.ttl) {
		c.items.Delete(key)
		return zero, false
	}
	return entry.Value, true
}

func (c *Cache[T]) count(hit bool) {
	if c.metrics == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	c.metrics.CacheRequests.WithLabelValues(c.name, result).Inc()
}
