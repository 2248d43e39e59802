package cache

import (
	"context"
	"errors"
	"time"
)

// LayeredCache fronts a shared Service with a process-local LRU. Writes go through to the
// shared tier first; reads warm the local tier from the shared one.
type LayeredCache struct {
	local  *MemoryCache
	shared Service
	maxTTL time.Duration
}

func NewLayeredCache(shared Service, opts ...LayeredOption) *LayeredCache {
	cfg := &LayeredConfig{MemoryMaxSize: 1000, MemoryTTL: time.Minute}
	for _, opt := range opts {
		opt(cfg)
	}
	return &LayeredCache{
		local:  NewMemoryCache(WithMemoryMaxSize(cfg.MemoryMaxSize)),
		shared: shared,
		maxTTL: cfg.MemoryTTL,
	}
}

func (lc *LayeredCache) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	if err := lc.shared.Set(ctx, key, value, expiration); err != nil {
		return err
	}
	return lc.local.Set(ctx, key, value, lc.localTTL(expiration))
}

func (lc *LayeredCache) Get(ctx context.Context, key string, dest interface{}) error {
	err := lc.local.Get(ctx, key, dest)
	if !errors.Is(err, ErrCacheMiss) {
		return err
	}

	// pull the encoded form so the local copy does not depend on dest's type
	var raw []byte
	if err := lc.shared.Get(ctx, key, &raw); err != nil {
		return err
	}
	_ = lc.local.Set(ctx, key, raw, lc.maxTTL)
	return decode(raw, dest)
}

func (lc *LayeredCache) Delete(ctx context.Context, keys ...string) error {
	_ = lc.local.Delete(ctx, keys...)
	return lc.shared.Delete(ctx, keys...)
}

func (lc *LayeredCache) Exists(ctx context.Context, keys ...string) (bool, error) {
	if ok, _ := lc.local.Exists(ctx, keys...); ok {
		return true, nil
	}
	return lc.shared.Exists(ctx, keys...)
}

func (lc *LayeredCache) Close() error {
	return errors.Join(lc.local.Close(), lc.shared.Close())
}

func (lc *LayeredCache) localTTL(expiration time.Duration) time.Duration {
	if expiration > 0 && expiration < lc.maxTTL {
		return expiration
	}
	return lc.maxTTL
}
