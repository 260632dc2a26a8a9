package ratelimit

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLimiter_AllowsExactlyMax(t *testing.T) {
	t.Parallel()

	limiter := NewLimiter(NewMemoryStore(), 5, time.Minute)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		result, err := limiter.Check(ctx, "caller-1")
		require.NoError(t, err)
		assert.True(t, result.Allowed, "request %d within budget", i+1)
		assert.Equal(t, 4-i, result.Remaining)
	}

	result, err := limiter.Check(ctx, "caller-1")
	require.NoError(t, err)
	assert.False(t, result.Allowed, "request over budget is denied")
	assert.Equal(t, 0, result.Remaining)
	assert.Greater(t, result.RetryAfterSeconds(), 0)
}

func TestLimiter_IdentifiersAreIndependent(t *testing.T) {
	t.Parallel()

	limiter := NewLimiter(NewMemoryStore(), 1, time.Minute)
	ctx := context.Background()

	first, err := limiter.Check(ctx, "a")
	require.NoError(t, err)
	assert.True(t, first.Allowed)

	denied, err := limiter.Check(ctx, "a")
	require.NoError(t, err)
	assert.False(t, denied.Allowed)

	other, err := limiter.Check(ctx, "b")
	require.NoError(t, err)
	assert.True(t, other.Allowed, "another identifier has its own budget")
}

func TestLimiter_WindowReset(t *testing.T) {
	t.Parallel()

	limiter := NewLimiter(NewMemoryStore(), 1, 20*time.Millisecond)
	ctx := context.Background()

	result, err := limiter.Check(ctx, "caller")
	require.NoError(t, err)
	require.True(t, result.Allowed)

	result, err = limiter.Check(ctx, "caller")
	require.NoError(t, err)
	require.False(t, result.Allowed)

	time.Sleep(30 * time.Millisecond)

	result, err = limiter.Check(ctx, "caller")
	require.NoError(t, err)
	assert.True(t, result.Allowed, "fresh window after expiry")
	assert.Equal(t, 0, result.Remaining)
}

func TestLimiter_Defaults(t *testing.T) {
	t.Parallel()

	limiter := NewLimiter(NewMemoryStore(), 0, 0)
	assert.Equal(t, 10, limiter.Max())
}

func TestMemoryStore_ConcurrentCounting(t *testing.T) {
	t.Parallel()

	store := NewMemoryStore()
	ctx := context.Background()

	const hits = 100
	var wg sync.WaitGroup
	for i := 0; i < hits; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, err := store.Incr(ctx, "shared", time.Minute)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	count, _, err := store.Incr(ctx, "shared", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(hits+1), count, "no hits lost under concurrency")
}

func TestMemoryStore_Sweep(t *testing.T) {
	t.Parallel()

	store := NewMemoryStore()
	ctx := context.Background()

	_, _, err := store.Incr(ctx, "short", 10*time.Millisecond)
	require.NoError(t, err)
	_, _, err = store.Incr(ctx, "long", time.Hour)
	require.NoError(t, err)
	require.Equal(t, 2, store.Len())

	time.Sleep(20 * time.Millisecond)

	assert.Equal(t, 1, store.Sweep(), "only the expired window is dropped")
	assert.Equal(t, 1, store.Len())
}

func TestResult_RetryAfterSeconds(t *testing.T) {
	t.Parallel()

	past := Result{ResetAt: time.Now().Add(-time.Minute)}
	assert.Equal(t, 0, past.RetryAfterSeconds(), "never negative")

	future := Result{ResetAt: time.Now().Add(10 * time.Second)}
	assert.InDelta(t, 10, future.RetryAfterSeconds(), 1)
}
