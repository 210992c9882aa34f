// Package redis implements the cache backend shared across service replicas.
// Values are stored as JSON with a TTL; each tag is a Redis set holding the
// keys that carry it, and invalidation deletes the tag set and its members
// atomically with a Lua script.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/webshoplabs/catalog/internal/cache"
)

const backendName = "redis"

// invalidateScript deletes every key in the tag set, then the set itself,
// in one atomic step so a concurrent Get cannot observe a half-applied
// invalidation.
var invalidateScript = goredis.NewScript(`
local keys = redis.call('SMEMBERS', KEYS[1])
for i = 1, #keys do
    redis.call('DEL', keys[i])
end
redis.call('DEL', KEYS[1])
return #keys
`)

// Cache is a Redis-backed implementation of cache.Cache.
type Cache[V any] struct {
	client *goredis.Client
	prefix string
}

// New returns a cache storing entries under "<prefix>:" in the given client.
func New[V any](client *goredis.Client, prefix string) *Cache[V] {
	return &Cache[V]{client: client, prefix: prefix}
}

func (c *Cache[V]) entryKey(key string) string {
	return c.prefix + ":entry:" + key
}

func (c *Cache[V]) tagKey(tag string) string {
	return c.prefix + ":tag:" + tag
}

// Get implements cache.Cache.
func (c *Cache[V]) Get(ctx context.Context, key string, ttl time.Duration, tags []string, compute cache.ComputeFunc[V]) (V, error) {
	var zero V

	raw, err := c.client.Get(ctx, c.entryKey(key)).Bytes()
	switch {
	case err == nil:
		var value V
		if err := json.Unmarshal(raw, &value); err == nil {
			cache.Hits.WithLabelValues(backendName).Inc()
			return value, nil
		}
		// Undecodable entry, fall through and recompute.
	case !errors.Is(err, goredis.Nil):
		return zero, fmt.Errorf("cache get %q: %w", key, err)
	}

	cache.Misses.WithLabelValues(backendName).Inc()

	value, err := compute(ctx)
	if err != nil {
		return zero, err
	}

	raw, err = json.Marshal(value)
	if err != nil {
		return zero, fmt.Errorf("cache encode %q: %w", key, err)
	}

	pipe := c.client.TxPipeline()
	pipe.Set(ctx, c.entryKey(key), raw, ttl)
	for _, tag := range tags {
		pipe.SAdd(ctx, c.tagKey(tag), c.entryKey(key))
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return zero, fmt.Errorf("cache store %q: %w", key, err)
	}

	return value, nil
}

// Invalidate implements cache.Cache.
func (c *Cache[V]) Invalidate(ctx context.Context, tag string) error {
	if err := invalidateScript.Run(ctx, c.client, []string{c.tagKey(tag)}).Err(); err != nil {
		return fmt.Errorf("cache invalidate %q: %w", tag, err)
	}
	cache.Invalidations.WithLabelValues(backendName).Inc()
	return nil
}

// Clear implements cache.Cache. It scans the cache's key space; entries
// written mid-scan may survive.
func (c *Cache[V]) Clear(ctx context.Context) error {
	iter := c.client.Scan(ctx, 0, c.prefix+":*", 100).Iterator()
	for iter.Next(ctx) {
		if err := c.client.Del(ctx, iter.Val()).Err(); err != nil {
			return fmt.Errorf("cache clear: %w", err)
		}
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("cache clear scan: %w", err)
	}
	return nil
}
