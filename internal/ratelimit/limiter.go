package ratelimit

import (
	"context"
	"time"
)

// Result reports the outcome of a limiter check for one identifier.
type Result struct {
	Allowed   bool
	Remaining int
	ResetAt   time.Time
}

// RetryAfterSeconds returns whole seconds until the window resets, never
// negative.
func (r Result) RetryAfterSeconds() int {
	seconds := int(time.Until(r.ResetAt).Seconds() + 0.5)
	if seconds < 0 {
		return 0
	}
	return seconds
}

// CounterStore persists fixed-window counters. Incr must be atomic per
// identifier: it starts a fresh window when none exists or the previous one
// expired, and otherwise increments the live window's count.
type CounterStore interface {
	Incr(ctx context.Context, identifier string, window time.Duration) (count int64, resetAt time.Time, err error)
}

// Limiter applies a fixed-window request budget per caller identifier.
// This is advisory backpressure for abuse resistance, not a correctness
// mechanism; an extra request slipping through at a window boundary is
// acceptable, wrongly blocking is not.
type Limiter struct {
	store  CounterStore
	max    int
	window time.Duration
}

// NewLimiter builds a limiter over the given counter store.
func NewLimiter(store CounterStore, maxRequests int, window time.Duration) *Limiter {
	if maxRequests <= 0 {
		maxRequests = 10
	}
	if window <= 0 {
		window = time.Minute
	}
	return &Limiter{store: store, max: maxRequests, window: window}
}

// Check records one request for the identifier and reports whether it is
// within the window budget.
func (l *Limiter) Check(ctx context.Context, identifier string) (Result, error) {
	count, resetAt, err := l.store.Incr(ctx, identifier, l.window)
	if err != nil {
		return Result{}, err
	}

	remaining := l.max - int(count)
	if remaining < 0 {
		remaining = 0
	}
	return Result{
		Allowed:   count <= int64(l.max),
		Remaining: remaining,
		ResetAt:   resetAt,
	}, nil
}

// Max returns the configured per-window budget.
func (l *Limiter) Max() int {
	return l.max
}
