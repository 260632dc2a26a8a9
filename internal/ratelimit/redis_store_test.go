package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisStore(client), mr
}

func TestRedisStore_Incr(t *testing.T) {
	t.Parallel()

	store, mr := newTestRedisStore(t)
	ctx := context.Background()

	count, resetAt, err := store.Incr(ctx, "caller", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
	assert.WithinDuration(t, time.Now().Add(time.Minute), resetAt, 2*time.Second)

	count, _, err = store.Incr(ctx, "caller", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	ttl := mr.TTL(redisKeyPrefix + "caller")
	assert.Greater(t, ttl, time.Duration(0), "window key carries an expiry")
}

func TestRedisStore_WindowReset(t *testing.T) {
	t.Parallel()

	store, mr := newTestRedisStore(t)
	ctx := context.Background()

	count, _, err := store.Incr(ctx, "caller", time.Minute)
	require.NoError(t, err)
	require.Equal(t, int64(1), count)

	mr.FastForward(2 * time.Minute)

	count, _, err = store.Incr(ctx, "caller", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count, "expired key starts a fresh window")
}

func TestRedisStore_WithLimiter(t *testing.T) {
	t.Parallel()

	store, _ := newTestRedisStore(t)
	limiter := NewLimiter(store, 3, time.Minute)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		result, err := limiter.Check(ctx, "1.2.3.4")
		require.NoError(t, err)
		assert.True(t, result.Allowed)
	}

	result, err := limiter.Check(ctx, "1.2.3.4")
	require.NoError(t, err)
	assert.False(t, result.Allowed)
}
