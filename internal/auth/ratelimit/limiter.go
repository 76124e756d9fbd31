// Package ratelimit implements fixed-window counting limits for abuse
// sensitive flows like login and forgot-password. Endpoint-level limits
// live in pkg/httpx; this package is for keys the handlers build
// themselves (e.g. "login:" + client IP).
package ratelimit

import (
	"context"
	"errors"
	"time"
)

// ErrRateLimited is returned by Check when the key has exhausted its
// allowance for the current window.
var ErrRateLimited = errors.New("ratelimit: limit exceeded")

// LimitError is the concrete error Check returns. It carries the window
// length so HTTP handlers can emit a Retry-After header. errors.Is still
// matches ErrRateLimited.
type LimitError struct {
	RetryAfter time.Duration
}

func (e *LimitError) Error() string { return ErrRateLimited.Error() }
func (e *LimitError) Unwrap() error { return ErrRateLimited }

// WindowStore counts hits against keys in fixed windows. The first hit on
// a key opens a window; the count resets once the window lapses.
type WindowStore interface {
	// Incr records a hit and returns the hit count for the current window,
	// including this one.
	Incr(ctx context.Context, key string, window time.Duration) (int64, error)
}

// Limiter applies a fixed-window policy over a WindowStore.
type Limiter struct {
	Store WindowStore
}

func New(store WindowStore) *Limiter {
	return &Limiter{Store: store}
}

// Check records an attempt for key and returns ErrRateLimited once more
// than limit attempts land inside one window. Every call counts, including
// rejected ones, so hammering a limited key keeps it limited.
func (l *Limiter) Check(ctx context.Context, key string, limit int64, window time.Duration) error {
	n, err := l.Store.Incr(ctx, key, window)
	if err != nil {
		return err
	}
	if n > limit {
		return &LimitError{RetryAfter: window}
	}
	return nil
}
