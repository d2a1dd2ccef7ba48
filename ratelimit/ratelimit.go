// Package ratelimit bounds how often an actor may run mutating operations
// using fixed windows whose counters live in a shared store.
package ratelimit

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/rpupo63/portfolio-cms/errs"
)

const (
	DefaultLimit  = 10
	DefaultWindow = time.Minute
)

// Limiter allows or rejects one operation for a key.
type Limiter interface {
	Allow(ctx context.Context, key string) error
}

// Store increments the counter of key in the window containing now and returns
// the count so far and the window start.
type Store interface {
	Increment(ctx context.Context, key string, window time.Duration, now time.Time) (int, time.Time, error)
}

// FixedWindow is a Limiter allowing Limit hits per Window for each key.
type FixedWindow struct {
	store  Store
	limit  int
	window time.Duration
	now    func() time.Time
	logger zerolog.Logger
}

type Option func(*FixedWindow)

func WithLimit(limit int) Option {
	return func(f *FixedWindow) {
		if limit > 0 {
			f.limit = limit
		}
	}
}

func WithWindow(window time.Duration) Option {
	return func(f *FixedWindow) {
		if window > 0 {
			f.window = window
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(f *FixedWindow) {
		f.now = now
	}
}

func NewFixedWindow(store Store, opts ...Option) *FixedWindow {
	f := &FixedWindow{
		store:  store,
		limit:  DefaultLimit,
		window: DefaultWindow,
		now:    time.Now,
		logger: log.With().Str("service", "rateLimiter").Logger(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Allow counts a hit and fails with a rate limit error carrying the time left
// in the window once the limit is exceeded.
func (f *FixedWindow) Allow(ctx context.Context, key string) error {
	now := f.now()
	count, windowStart, err := f.store.Increment(ctx, key, f.window, now)
	if err != nil {
		f.logger.Error().Err(err).Str("key", key).Msg("Rate limit store failed")
		return errs.NewServiceUnavailableError("rate limiter", err)
	}
	if count > f.limit {
		retryAfter := windowStart.Add(f.window).Sub(now)
		f.logger.Warn().Str("key", key).Int("count", count).Dur("retryAfter", retryAfter).Msg("Rate limit exceeded")
		return errs.NewRateLimitError(key, retryAfter)
	}
	return nil
}

// MemoryStore keeps counters in process memory. It suits tests and single
// instance development servers only.
type MemoryStore struct {
	mu       sync.Mutex
	counters map[string]memoryCounter
}

type memoryCounter struct {
	windowStart time.Time
	count       int
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{counters: make(map[string]memoryCounter)}
}

func (m *MemoryStore) Increment(_ context.Context, key string, window time.Duration, now time.Time) (int, time.Time, error) {
	start := now.UTC().Truncate(window)

	m.mu.Lock()
	defer m.mu.Unlock()

	c := m.counters[key]
	if !c.windowStart.Equal(start) {
		c = memoryCounter{windowStart: start}
	}
	c.count++
	m.counters[key] = c
	return c.count, c.windowStart, nil
}

// Unlimited never rejects.
type Unlimited struct{}

func (Unlimited) Allow(context.Context, string) error { return nil }
