// Package cache defines the tagged read-through cache used by the catalog
// service. Entries carry a TTL and a set of tags; invalidating a tag removes
// every entry carrying it before the call returns, so a read issued after an
// invalidation never sees the stale value.
package cache

import (
	"context"
	"time"
)

// ComputeFunc produces the value for a key on a cache miss.
type ComputeFunc[V any] func(ctx context.Context) (V, error)

// Cache is a read-through cache with tag-based invalidation.
type Cache[V any] interface {
	// Get returns the cached value for key if present and unexpired.
	// Otherwise it calls compute; a successful result is stored under key
	// with the given ttl and tags and returned. If compute fails, nothing
	// is cached and the error is returned.
	Get(ctx context.Context, key string, ttl time.Duration, tags []string, compute ComputeFunc[V]) (V, error)

	// Invalidate removes every entry tagged with tag. The removal is fully
	// applied before Invalidate returns.
	Invalidate(ctx context.Context, tag string) error

	// Clear drops all entries.
	Clear(ctx context.Context) error
}
