package db

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupCache(t *testing.T) (*Cache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	cache := NewCacheFromClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	return cache, mr
}

func TestCacheRoundTrip(t *testing.T) {
	cache, _ := setupCache(t)
	ctx := context.Background()

	type payload struct {
		Name  string `json:"name"`
		Count int    `json:"count"`
	}

	cache.Set(ctx, "posts:page:1", payload{Name: "first", Count: 3}, time.Minute)

	var got payload
	require.True(t, cache.Get(ctx, "posts:page:1", &got))
	assert.Equal(t, "first", got.Name)
	assert.Equal(t, 3, got.Count)
}

func TestCacheMiss(t *testing.T) {
	cache, _ := setupCache(t)

	var got string
	assert.False(t, cache.Get(context.Background(), "absent", &got))
}

func TestCacheExpiry(t *testing.T) {
	cache, mr := setupCache(t)
	ctx := context.Background()

	cache.Set(ctx, "ephemeral", "value", time.Second)
	mr.FastForward(2 * time.Second)

	var got string
	assert.False(t, cache.Get(ctx, "ephemeral", &got))
}

func TestCacheInvalidatePattern(t *testing.T) {
	cache, _ := setupCache(t)
	ctx := context.Background()

	cache.Set(ctx, "posts:page:1", "a", time.Minute)
	cache.Set(ctx, "posts:page:2", "b", time.Minute)
	cache.Set(ctx, "games:all", "c", time.Minute)

	cache.Invalidate(ctx, "posts:*")

	var got string
	assert.False(t, cache.Get(ctx, "posts:page:1", &got))
	assert.False(t, cache.Get(ctx, "posts:page:2", &got))
	assert.True(t, cache.Get(ctx, "games:all", &got))
}

func TestNilCacheIsSafe(t *testing.T) {
	var cache *Cache
	ctx := context.Background()

	cache.Set(ctx, "k", "v", time.Minute)
	cache.Invalidate(ctx, "*")

	var got string
	assert.False(t, cache.Get(ctx, "k", &got))
}
