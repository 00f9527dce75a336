package redisadapter

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/samirrijal/sgrent/internal/core/ports"
	"github.com/samirrijal/sgrent/internal/pkg/metrics"
)

const layer = "redis"

// Cache implements ports.CacheService on a plain Redis server.
type Cache struct {
	client *redis.Client
	prefix string
}

// New creates a Redis-backed cache. Every key is stored under prefix.
func New(addr, prefix string) *Cache {
	rdb := redis.NewClient(&redis.Options{
		Addr: addr,
	})
	return &Cache{client: rdb, prefix: prefix}
}

// Get retrieves a value by key. A missing key yields ports.ErrCacheMiss.
func (c *Cache) Get(ctx context.Context, key string) ([]byte, error) {
	val, err := c.client.Get(ctx, c.prefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			metrics.CacheMisses.WithLabelValues(layer).Inc()
			return nil, ports.ErrCacheMiss
		}
		return nil, fmt.Errorf("redis get %s: %w", key, err)
	}
	metrics.CacheHits.WithLabelValues(layer).Inc()
	return val, nil
}

// Set stores a value with a TTL in seconds.
func (c *Cache) Set(ctx context.Context, key string, value []byte, ttlSeconds int) error {
	return c.client.Set(ctx, c.prefix+key, value, time.Duration(ttlSeconds)*time.Second).Err()
}

// Delete removes a key.
func (c *Cache) Delete(ctx context.Context, key string) error {
	return c.client.Del(ctx, c.prefix+key).Err()
}

// Ping checks connectivity for readiness probes.
func (c *Cache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close releases the client.
func (c *Cache) Close() {
	_ = c.client.Close()
}
