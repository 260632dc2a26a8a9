package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "rl:"

// RedisStore keeps fixed-window counters in Redis so the budget is shared
// across service instances. INCR plus a conditional EXPIRE on the first hit
// gives the same window semantics as the in-memory store.
type RedisStore struct {
	client redis.UniversalClient
}

// NewRedisStore builds a Redis-backed counter store.
func NewRedisStore(client redis.UniversalClient) *RedisStore {
	return &RedisStore{client: client}
}

// Incr implements CounterStore.
func (s *RedisStore) Incr(ctx context.Context, identifier string, window time.Duration) (int64, time.Time, error) {
	key := redisKeyPrefix + identifier

	count, err := s.client.Incr(ctx, key).Result()
	if err != nil {
		return 0, time.Time{}, fmt.Errorf("ratelimit incr: %w", err)
	}
	if count == 1 {
		if err := s.client.Expire(ctx, key, window).Err(); err != nil {
			return 0, time.Time{}, fmt.Errorf("ratelimit expire: %w", err)
		}
		return count, time.Now().Add(window), nil
	}

	ttl, err := s.client.TTL(ctx, key).Result()
	if err != nil || ttl < 0 {
		ttl = window
	}
	return count, time.Now().Add(ttl), nil
}
