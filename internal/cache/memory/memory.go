// Package memory implements the in-process cache backend. It is the default
// backend: a mutex-guarded map of entries plus a reverse index from tag to
// the keys carrying it, so invalidation touches only the affected keys.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/webshoplabs/catalog/internal/cache"
)

const backendName = "memory"

type entry[V any] struct {
	value     V
	tags      []string
	expiresAt time.Time
}

// Cache is an in-memory implementation of cache.Cache.
type Cache[V any] struct {
	mu       sync.Mutex
	entries  map[string]entry[V]
	tagIndex map[string]map[string]struct{}

	nowFunc func() time.Time
}

// New returns an empty in-memory cache.
func New[V any]() *Cache[V] {
	return &Cache[V]{
		entries:  make(map[string]entry[V]),
		tagIndex: make(map[string]map[string]struct{}),
		nowFunc:  time.Now,
	}
}

// Get implements cache.Cache. Compute runs outside the lock, so concurrent
// misses for the same key may each compute; last writer wins.
func (c *Cache[V]) Get(ctx context.Context, key string, ttl time.Duration, tags []string, compute cache.ComputeFunc[V]) (V, error) {
	c.mu.Lock()
	if e, ok := c.entries[key]; ok {
		if c.nowFunc().Before(e.expiresAt) {
			c.mu.Unlock()
			cache.Hits.WithLabelValues(backendName).Inc()
			return e.value, nil
		}
		c.removeLocked(key)
	}
	c.mu.Unlock()

	cache.Misses.WithLabelValues(backendName).Inc()

	value, err := compute(ctx)
	if err != nil {
		var zero V
		return zero, err
	}

	c.mu.Lock()
	c.storeLocked(key, value, ttl, tags)
	c.mu.Unlock()

	return value, nil
}

// Invalidate implements cache.Cache. Every entry carrying the tag is gone by
// the time this returns.
func (c *Cache[V]) Invalidate(_ context.Context, tag string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for key := range c.tagIndex[tag] {
		c.removeLocked(key)
	}
	delete(c.tagIndex, tag)

	cache.Invalidations.WithLabelValues(backendName).Inc()
	return nil
}

// Clear implements cache.Cache.
func (c *Cache[V]) Clear(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string]entry[V])
	c.tagIndex = make(map[string]map[string]struct{})
	return nil
}

func (c *Cache[V]) storeLocked(key string, value V, ttl time.Duration, tags []string) {
	c.removeLocked(key)

	c.entries[key] = entry[V]{
		value:     value,
		tags:      tags,
		expiresAt: c.nowFunc().Add(ttl),
	}
	for _, tag := range tags {
		keys, ok := c.tagIndex[tag]
		if !ok {
			keys = make(map[string]struct{})
			c.tagIndex[tag] = keys
		}
		keys[key] = struct{}{}
	}
}

// removeLocked drops the entry and unlinks it from every tag it carries.
func (c *Cache[V]) removeLocked(key string) {
	e, ok := c.entries[key]
	if !ok {
		return
	}
	delete(c.entries, key)
	for _, tag := range e.tags {
		if keys, ok := c.tagIndex[tag]; ok {
			delete(keys, key)
			if len(keys) == 0 {
				delete(c.tagIndex, tag)
			}
		}
	}
}
