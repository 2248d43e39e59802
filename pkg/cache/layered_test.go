package cache

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRedis keeps values in a map and ignores expirations.
type fakeRedis struct {
	mu     sync.Mutex
	data   map[string]string
	gets   int
	closed bool
}

func newFakeRedis() *fakeRedis { return &fakeRedis{data: make(map[string]string)} }

func (f *fakeRedis) Get(_ context.Context, key string) *redis.StringCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gets++
	v, ok := f.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (f *fakeRedis) Set(_ context.Context, key string, value interface{}, _ time.Duration) *redis.StatusCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.data[key] = string(value.([]byte))
	return redis.NewStatusResult("OK", nil)
}

func (f *fakeRedis) Unlink(_ context.Context, keys ...string) *redis.IntCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, k := range keys {
		if _, ok := f.data[k]; ok {
			delete(f.data, k)
			n++
		}
	}
	return redis.NewIntResult(n, nil)
}

func (f *fakeRedis) Exists(_ context.Context, keys ...string) *redis.IntCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, k := range keys {
		if _, ok := f.data[k]; ok {
			n++
		}
	}
	return redis.NewIntResult(n, nil)
}

func (f *fakeRedis) Close() error {
	f.closed = true
	return nil
}

type series struct {
	Symbol string    `json:"symbol"`
	Closes []float64 `json:"closes"`
}

func TestRedisCachePrefixesKeys(t *testing.T) {
	fr := newFakeRedis()
	rc := newRedisCache(fr, "stockpredictor")
	ctx := context.Background()

	require.NoError(t, rc.Set(ctx, "history:AAPL", series{Symbol: "AAPL", Closes: []float64{1, 2}}, time.Minute))
	assert.Contains(t, fr.data, "stockpredictor:history:AAPL")

	var got series
	require.NoError(t, rc.Get(ctx, "history:AAPL", &got))
	assert.Equal(t, []float64{1, 2}, got.Closes)

	assert.ErrorIs(t, rc.Get(ctx, "history:MSFT", &got), ErrCacheMiss)
}

func TestLayeredCacheWarmsMemoryFromRedis(t *testing.T) {
	fr := newFakeRedis()
	rc := newRedisCache(fr, "p")
	lc := NewLayeredCache(rc, WithLayeredMemorySize(10), WithLayeredMemoryTTL(time.Minute))
	defer lc.Close()
	ctx := context.Background()

	// written by another replica
	require.NoError(t, rc.Set(ctx, "k", series{Symbol: "TCS.NS", Closes: []float64{3}}, time.Hour))

	var first, second series
	require.NoError(t, lc.Get(ctx, "k", &first))
	require.NoError(t, lc.Get(ctx, "k", &second))
	assert.Equal(t, "TCS.NS", first.Symbol)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, fr.gets)
}

func TestLayeredCacheWriteThroughAndDelete(t *testing.T) {
	fr := newFakeRedis()
	lc := NewLayeredCache(newRedisCache(fr, ""), WithLayeredMemorySize(10))
	ctx := context.Background()

	require.NoError(t, lc.Set(ctx, "k", "v", time.Hour))
	assert.Equal(t, "v", fr.data["k"])

	ok, err := lc.Exists(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, lc.Delete(ctx, "k"))
	var s string
	assert.ErrorIs(t, lc.Get(ctx, "k", &s), ErrCacheMiss)

	require.NoError(t, lc.Close())
	assert.True(t, fr.closed)
}

func TestLayeredCacheOverAnyService(t *testing.T) {
	shared := NewMemoryCache(WithMemoryMaxSize(10))
	lc := NewLayeredCache(shared, WithLayeredMemoryTTL(time.Second))
	defer lc.Close()
	ctx := context.Background()

	require.NoError(t, lc.Set(ctx, "k", series{Symbol: "INFY.NS"}, time.Hour))
	require.NoError(t, shared.Delete(ctx, "k"))

	// still served from the local tier
	var got series
	require.NoError(t, lc.Get(ctx, "k", &got))
	assert.Equal(t, "INFY.NS", got.Symbol)
}
