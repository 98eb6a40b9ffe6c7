package ratelimit

import (
	"context"
	"fmt"
	"time"

	"canvango_backend/internal/logger"
)

// Result describes one fixed-window decision.
type Result struct {
	Allowed   bool
	Remaining int
	ResetAt   time.Time
	Total     int
}

// Store is the backing counter storage. Increment must be an atomic
// read-modify-write: create the counter with a fresh window on first use
// or after expiry, otherwise increment. The counter saturates at limit+1
// so a hammered blocked key cannot overflow or extend its window.
type Store interface {
	Increment(ctx context.Context, key string, limit int, window time.Duration) (count int, resetAt time.Time, err error)
}

// Limiter is a fixed-window request counter keyed by (endpoint, identity).
type Limiter struct {
	store Store
}

func NewLimiter(store Store) *Limiter {
	return &Limiter{store: store}
}

// Key builds the canonical counter key.
func Key(endpoint, identity string) string {
	return fmt.Sprintf("%s:%s", endpoint, identity)
}

// CheckAndIncrement applies the limit for one request. On storage failure
// the limiter fails open: payment-processing availability wins over strict
// limiting, and the degradation itself is returned to the caller so it can
// be recorded as an operational signal.
func (l *Limiter) CheckAndIncrement(ctx context.Context, key string, limit int, window time.Duration) (Result, error) {
	count, resetAt, err := l.store.Increment(ctx, key, limit, window)
	if err != nil {
		logger.CtxWithError(ctx, "rate limit store unavailable, failing open", err, "key", key)
		return Result{
			Allowed:   true,
			Remaining: limit,
			ResetAt:   time.Now().Add(window),
			Total:     0,
		}, err
	}

	remaining := limit - count
	if remaining < 0 {
		remaining = 0
	}

	return Result{
		Allowed:   count <= limit,
		Remaining: remaining,
		ResetAt:   resetAt,
		Total:     count,
	}, nil
}
