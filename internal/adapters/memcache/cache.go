// Package memcache provides an in-process LRU cache and a two-level cache
// that puts it in front of a remote one.
package memcache

import (
	"context"
	"errors"
	"time"

	"github.com/bluele/gcache"

	"github.com/samirrijal/sgrent/internal/core/ports"
	"github.com/samirrijal/sgrent/internal/pkg/metrics"
)

const layer = "memory"

// Cache implements ports.CacheService with a bounded in-memory LRU.
type Cache struct {
	lru gcache.Cache
}

// New creates an LRU cache holding at most size entries.
func New(size int) *Cache {
	if size <= 0 {
		size = 10000
	}
	return &Cache{lru: gcache.New(size).LRU().Build()}
}

// Get retrieves a value by key. A missing or expired key yields ports.ErrCacheMiss.
func (c *Cache) Get(ctx context.Context, key string) ([]byte, error) {
	v, err := c.lru.Get(key)
	if err != nil {
		metrics.CacheMisses.WithLabelValues(layer).Inc()
		if errors.Is(err, gcache.KeyNotFoundError) {
			return nil, ports.ErrCacheMiss
		}
		return nil, err
	}
	metrics.CacheHits.WithLabelValues(layer).Inc()
	return v.([]byte), nil
}

// Set stores a copy of value. ttlSeconds <= 0 keeps it until evicted.
func (c *Cache) Set(ctx context.Context, key string, value []byte, ttlSeconds int) error {
	b := append([]byte(nil), value...)
	if ttlSeconds <= 0 {
		return c.lru.Set(key, b)
	}
	return c.lru.SetWithExpire(key, b, time.Duration(ttlSeconds)*time.Second)
}

// Delete removes a key.
func (c *Cache) Delete(ctx context.Context, key string) error {
	c.lru.Remove(key)
	return nil
}

// Len returns the number of live entries.
func (c *Cache) Len() int {
	return c.lru.Len(true)
}
