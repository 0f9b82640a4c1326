// Package memo provides a process-wide TTL memo cache for expensive, rarely
// changing lookups (the current tenant, category lists). Entries are fetched
// through a caller-supplied function, served from memory until the TTL
// elapses, and can be bypassed with a force refresh or dropped explicitly.
package memo

import (
	"context"
	"sync"
	"time"

	"github.com/puzpuzpuz/xsync/v3"
)

type entry[V any] struct {
	value     V
	fetchedAt time.Time
}

// Cache memoizes values per key with a fixed TTL. Concurrent callers for the
// same key share a single in-flight fetch.
type Cache[V any] struct {
	ttl     time.Duration
	entries *xsync.MapOf[string, entry[V]]
	mu      sync.Mutex
	clock   func() time.Time
}

// New builds a cache with the given TTL.
func New[V any](ttl time.Duration) *Cache[V] {
	return &Cache[V]{
		ttl:     ttl,
		entries: xsync.NewMapOf[string, entry[V]](),
		clock:   time.Now,
	}
}

// Get returns the cached value for key, fetching it when absent, expired or
// forced. Fetch errors are not cached.
func (c *Cache[V]) Get(ctx context.Context, key string, forceRefresh bool, fetch func(ctx context.Context) (V, error)) (V, error) {
	if !forceRefresh {
		if e, ok := c.entries.Load(key); ok && c.clock().Sub(e.fetchedAt) < c.ttl {
			return e.value, nil
		}
	}

	// Serialize fetches so a burst of callers does one backend round trip.
	c.mu.Lock()
	defer c.mu.Unlock()

	if !forceRefresh {
		if e, ok := c.entries.Load(key); ok && c.clock().Sub(e.fetchedAt) < c.ttl {
			return e.value, nil
		}
	}

	value, err := fetch(ctx)
	if err != nil {
		var zero V
		return zero, err
	}
	c.entries.Store(key, entry[V]{value: value, fetchedAt: c.clock()})
	return value, nil
}

// Clear drops the given keys, or every entry when called with none.
func (c *Cache[V]) Clear(keys ...string) {
	if len(keys) == 0 {
		c.entries.Clear()
		return
	}
	for _, key := range keys {
		c.entries.Delete(key)
	}
}

// SetClock overrides the time source, for tests.
func (c *Cache[V]) SetClock(clock func() time.Time) {
	c.clock = clock
}
