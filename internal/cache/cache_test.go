package cache_test

import (
	"context"
	"testing"
	"time"

	"inquill/internal/cache"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedisCache(t *testing.T) (*cache.RedisCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return cache.NewRedisCache(rdb, "inquill:"), mr
}

func TestRedisCache_PrefixAndTTL(t *testing.T) {
	c, mr := newRedisCache(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", "v", time.Minute))
	assert.True(t, mr.Exists("inquill:k"))
	assert.Equal(t, time.Minute, mr.TTL("inquill:k"))

	got, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v", got)

	require.NoError(t, c.Delete(ctx, "k"))
	_, err = c.Get(ctx, "k")
	assert.ErrorIs(t, err, cache.ErrMiss)
}

func TestRedisCache_SetNX(t *testing.T) {
	c, _ := newRedisCache(t)
	ctx := context.Background()

	ok, err := c.SetNX(ctx, "lock", "1", time.Second)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = c.SetNX(ctx, "lock", "1", time.Second)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestJSONHelpers(t *testing.T) {
	c, mr := newRedisCache(t)
	ctx := context.Background()

	type payload struct {
		Tags []string `json:"tags"`
	}
	require.NoError(t, cache.SetJSON(ctx, c, "meta", payload{Tags: []string{"a"}}, 0))

	var got payload
	hit, err := cache.GetJSON(ctx, c, "meta", &got)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, []string{"a"}, got.Tags)

	require.NoError(t, mr.Set("inquill:meta", "{not json"))
	hit, err = cache.GetJSON(ctx, c, "meta", &got)
	require.NoError(t, err)
	assert.False(t, hit)
	assert.False(t, mr.Exists("inquill:meta"))
}

func TestNoOpCache_AlwaysMisses(t *testing.T) {
	c := cache.NewNoOpCache()
	ctx := context.Background()
	require.NoError(t, c.Set(ctx, "k", "v", 0))
	var v string
	hit, err := cache.GetJSON(ctx, c, "k", &v)
	require.NoError(t, err)
	assert.False(t, hit)
}
