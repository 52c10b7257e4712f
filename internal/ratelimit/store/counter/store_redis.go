package counter

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"passgate/internal/ratelimit/models"
)

// RedisStore keeps fixed-window counters in Redis so multiple gate instances
// share the same windows. INCR is atomic, which gives the required
// increment-and-compare semantics without explicit locking; the key TTL set
// on the window's first attempt implements the hard reset at the boundary.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore creates a Redis-backed fixed-window counter store.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

// Incr records one attempt and reports whether it fits under the limit.
func (s *RedisStore) Incr(ctx context.Context, key string, limit int, period time.Duration) (*models.Result, error) {
	count, err := s.client.Incr(ctx, key).Result()
	if err != nil {
		return nil, fmt.Errorf("incr rate window %q: %w", key, err)
	}

	if count == 1 {
		// First attempt of a fresh window starts its clock.
		if err := s.client.Expire(ctx, key, period).Err(); err != nil {
			return nil, fmt.Errorf("set rate window ttl %q: %w", key, err)
		}
	}

	ttl, err := s.client.PTTL(ctx, key).Result()
	if err != nil {
		return nil, fmt.Errorf("read rate window ttl %q: %w", key, err)
	}
	if ttl < 0 {
		// Expired between INCR and PTTL, or the Expire above was lost; treat
		// the full period as remaining rather than leaving the key immortal.
		ttl = period
		_ = s.client.Expire(ctx, key, period).Err()
	}

	return windowResult(int(count), limit, time.Now().Add(ttl), time.Now()), nil
}

// Reset clears the counter for a key.
func (s *RedisStore) Reset(ctx context.Context, key string) error {
	return s.client.Del(ctx, key).Err()
}

// Count returns the attempts recorded against a key in its current window.
func (s *RedisStore) Count(ctx context.Context, key string) (int, error) {
	count, err := s.client.Get(ctx, key).Int()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read rate window %q: %w", key, err)
	}
	return count, nil
}
