// Package counter provides fixed-window counter stores for the rate limiter.
// Windows reset to zero in full when they elapse; there is no sliding decay.
package counter

import (
	"context"
	"math"
	"sync"
	"time"

	"passgate/internal/ratelimit/models"
)

// Clock abstracts time.Now for deterministic rollover tests.
type Clock func() time.Time

// MemoryStore keeps fixed-window counters in process memory. Suitable for a
// single instance; multi-instance deployments share windows through the
// Redis or Postgres store instead.
type MemoryStore struct {
	mu      sync.Mutex
	windows map[string]*fixedWindow
	clock   Clock
}

type fixedWindow struct {
	start time.Time
	count int
}

// MemoryOption configures a MemoryStore.
type MemoryOption func(*MemoryStore)

// WithClock sets the clock function for testability.
func WithClock(clock Clock) MemoryOption {
	return func(s *MemoryStore) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// NewMemoryStore creates an in-memory fixed-window counter store.
func NewMemoryStore(opts ...MemoryOption) *MemoryStore {
	s := &MemoryStore{
		windows: make(map[string]*fixedWindow),
		clock:   time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Incr records one attempt against the key's current window and reports
// whether it fits under the limit. The increment and the comparison happen
// under one lock, so two simultaneous attempts can never both claim the last
// slot. Every attempt mutates the counter, admitted or not.
func (s *MemoryStore) Incr(_ context.Context, key string, limit int, period time.Duration) (*models.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock()
	w := s.windows[key]
	if w == nil || !now.Before(w.start.Add(period)) {
		w = &fixedWindow{start: now}
		s.windows[key] = w
	}
	w.count++

	return windowResult(w.count, limit, w.start.Add(period), now), nil
}

// Reset clears the counter for a key.
func (s *MemoryStore) Reset(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.windows, key)
	return nil
}

// Count returns the attempts recorded against a key. Window expiry is
// settled lazily on the next Incr, so a stale count may be visible between
// rollover and the next attempt.
func (s *MemoryStore) Count(_ context.Context, key string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	w := s.windows[key]
	if w == nil {
		return 0, nil
	}
	return w.count, nil
}

func windowResult(count, limit int, resetAt, now time.Time) *models.Result {
	remaining := limit - count
	if remaining < 0 {
		remaining = 0
	}
	res := &models.Result{
		Allowed:   count <= limit,
		Limit:     limit,
		Remaining: remaining,
		ResetAt:   resetAt,
	}
	if !res.Allowed {
		res.RetryAfter = int(math.Ceil(resetAt.Sub(now).Seconds()))
		if res.RetryAfter < 1 {
			res.RetryAfter = 1
		}
	}
	return res
}
