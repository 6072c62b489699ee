package cache

import (
	"context"
	"testing"
	"time"

	"storefront/internal/config"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type entry struct {
	Name  string `json:"name"`
	Price int64  `json:"price"`
}

func setupCache(t *testing.T) (Cache, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return New(client, "test", zap.NewNop()), mr
}

func TestCache_RoundTripAndExpiry(t *testing.T) {
	c, mr := setupCache(t)
	ctx := context.Background()

	var got entry
	assert.False(t, c.Get(ctx, "k", &got))

	c.Set(ctx, "k", entry{Name: "Serum", Price: 12000}, time.Minute)
	assert.True(t, mr.Exists("test:k"))

	require.True(t, c.Get(ctx, "k", &got))
	assert.Equal(t, entry{Name: "Serum", Price: 12000}, got)

	mr.FastForward(2 * time.Minute)
	assert.False(t, c.Get(ctx, "k", &got))
}

func TestCache_DeleteAndCorruptEntry(t *testing.T) {
	c, mr := setupCache(t)
	ctx := context.Background()

	c.Set(ctx, "a", entry{Name: "a"}, time.Minute)
	c.Set(ctx, "b", entry{Name: "b"}, time.Minute)
	c.Delete(ctx, "a", "b")
	assert.False(t, mr.Exists("test:a"))
	assert.False(t, mr.Exists("test:b"))

	require.NoError(t, mr.Set("test:bad", "{not json"))
	var got entry
	assert.False(t, c.Get(ctx, "bad", &got))
}

func TestCache_NilClientIsNoop(t *testing.T) {
	c := New(nil, "test", zap.NewNop())
	ctx := context.Background()

	c.Set(ctx, "k", entry{Name: "x"}, time.Minute)
	var got entry
	assert.False(t, c.Get(ctx, "k", &got))
	c.Delete(ctx, "k")
}

func TestConnect_UnreachableReturnsNil(t *testing.T) {
	client := Connect(config.RedisConfig{Host: "127.0.0.1", Port: "1"}, zap.NewNop())
	assert.Nil(t, client)
}

func TestConnect_Reachable(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	client := Connect(config.RedisConfig{Host: mr.Host(), Port: mr.Port()}, zap.NewNop())
	require.NotNil(t, client)
	_ = client.Close()
}
