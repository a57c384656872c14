// Package ratelimit provides a shared rolling-window request limiter for
// the extraction provider. All extractor callers in the process share one
// Limiter so the provider's per-minute quota is respected regardless of
// how many signals are in flight.
package ratelimit

import (
	"context"
	"sync"
	"time"
)

const defaultMargin = 100

// Limiter counts requests inside a rolling window and sleeps callers when
// the count approaches the configured limit. The zero value is not usable;
// construct with New.
type Limiter struct {
	mu          sync.Mutex
	limit       int
	margin      int
	window      time.Duration
	count       int
	windowStart time.Time

	now   func() time.Time
	sleep func(context.Context, time.Duration) error
}

// Option customizes a Limiter.
type Option func(*Limiter)

// WithClock overrides the time source (used in tests).
func WithClock(now func() time.Time) Option {
	return func(l *Limiter) {
		if now != nil {
			l.now = now
		}
	}
}

// WithSleeper overrides how throttling sleeps are performed (used in tests).
func WithSleeper(sleep func(context.Context, time.Duration) error) Option {
	return func(l *Limiter) {
		if sleep != nil {
			l.sleep = sleep
		}
	}
}

// New constructs a Limiter allowing limit requests per rolling minute.
// Throttling kicks in once the count reaches limit minus a safety margin.
func New(limit int, opts ...Option) *Limiter {
	l := &Limiter{
		limit:  limit,
		margin: defaultMargin,
		window: time.Minute,
		now:    time.Now,
		sleep:  sleepContext,
	}
	if l.margin >= l.limit {
		l.margin = l.limit / 10
	}
	for _, opt := range opts {
		opt(l)
	}
	l.windowStart = l.now()
	return l
}

// Wait records one request and blocks until the request may proceed. It
// returns early with the context error when the context is cancelled.
func (l *Limiter) Wait(ctx context.Context) error {
	if l == nil || l.limit <= 0 {
		return nil
	}

	l.mu.Lock()
	now := l.now()
	if now.Sub(l.windowStart) > l.window {
		l.count = 0
		l.windowStart = now
	}
	l.count++

	var delay time.Duration
	if l.count >= l.limit-l.margin {
		delay = l.window - now.Sub(l.windowStart)
		l.count = 0
		l.windowStart = now.Add(delay)
	}
	l.mu.Unlock()

	if delay <= 0 {
		return nil
	}
	return l.sleep(ctx, delay)
}

func sleepContext(ctx context.Context, delay time.Duration) error {
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
