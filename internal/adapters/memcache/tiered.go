package memcache

import (
	"context"
	"errors"

	"github.com/samirrijal/sgrent/internal/core/ports"
)

// Tiered reads through a local cache before a remote one. Remote hits are
// copied into the local cache with localTTL.
type Tiered struct {
	local    *Cache
	remote   ports.CacheService
	localTTL int
}

// NewTiered wraps remote with local. localTTLSeconds bounds how stale the
// local copy may get.
func NewTiered(local *Cache, remote ports.CacheService, localTTLSeconds int) *Tiered {
	return &Tiered{local: local, remote: remote, localTTL: localTTLSeconds}
}

func (t *Tiered) Get(ctx context.Context, key string) ([]byte, error) {
	if v, err := t.local.Get(ctx, key); err == nil {
		return v, nil
	}
	v, err := t.remote.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	_ = t.local.Set(ctx, key, v, t.localTTL)
	return v, nil
}

// Set writes both levels. The local copy never outlives the remote one.
func (t *Tiered) Set(ctx context.Context, key string, value []byte, ttlSeconds int) error {
	ttl := t.localTTL
	if ttlSeconds > 0 && (ttl <= 0 || ttlSeconds < ttl) {
		ttl = ttlSeconds
	}
	_ = t.local.Set(ctx, key, value, ttl)
	return t.remote.Set(ctx, key, value, ttlSeconds)
}

func (t *Tiered) Delete(ctx context.Context, key string) error {
	_ = t.local.Delete(ctx, key)
	if err := t.remote.Delete(ctx, key); err != nil && !errors.Is(err, ports.ErrCacheMiss) {
		return err
	}
	return nil
}
