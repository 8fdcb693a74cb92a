// Copyright (C) 2026 Lexicon Legal AI (dev@lexiconlegal.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package ratelimit provides a token-bucket admission gate for outbound
// calls to external text-generation providers.
//
// Each provider adapter owns exactly one Limiter sized to the provider's
// published quota. Limiters are process-wide per backend: admission control
// must be global across all concurrent pipeline runs hitting the same
// provider.
//
// # Thread Safety
//
// Limiter is safe for concurrent use. The refill-then-decrement sequence is
// guarded by a mutex so two callers can never both consume the last token.
package ratelimit

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

const bucketPeriod = time.Minute

// Limiter is a token-bucket rate limiter bounding requests per minute,
// optionally combined with a minimum inter-call spacing (requests per
// second).
//
// The bucket holds at most rpm tokens and refills continuously at
// rpm tokens per minute. TryAcquire never blocks; Acquire sleeps in a
// loop until a token is available or the context is done.
type Limiter struct {
	mu sync.Mutex

	rpm       int
	tokens    int
	updatedAt time.Time

	// Unconsumed refill credit in nanosecond-tokens (elapsed ns times
	// rpm). Integer accounting: repeated short intervals must never
	// lose fractional credit to float rounding.
	accrued int64

	// Minimum spacing between calls. Zero means RPS is not enforced.
	minInterval time.Duration
	lastRequest time.Time

	// Injected for tests. Defaults to time.Now / real sleeping.
	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// New creates a Limiter allowing rpm requests per minute.
//
// rpm must be positive: an unbounded limiter would silently disable
// admission control, so that state is rejected at construction instead of
// being documented as "no limit".
func New(rpm int) (*Limiter, error) {
	return NewWithRPS(rpm, 0)
}

// NewWithRPS creates a Limiter allowing rpm requests per minute and, when
// rps > 0, additionally enforcing a minimum spacing of 1/rps seconds
// between consecutive calls.
func NewWithRPS(rpm int, rps float64) (*Limiter, error) {
	if rpm <= 0 {
		return nil, fmt.Errorf("ratelimit: rpm must be positive, got %d", rpm)
	}
	if rps < 0 {
		return nil, fmt.Errorf("ratelimit: rps must not be negative, got %f", rps)
	}

	l := &Limiter{
		rpm:    rpm,
		tokens: rpm,
		now:    time.Now,
		sleep:  sleepContext,
	}
	l.updatedAt = l.now()
	if rps > 0 {
		l.minInterval = time.Duration(float64(time.Second) / rps)
	}
	return l, nil
}

// TryAcquire attempts to take one token without waiting. It returns false
// when either the inter-call spacing has not elapsed or the bucket is
// empty. It never sleeps.
func (l *Limiter) TryAcquire() bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if l.minInterval > 0 && !l.lastRequest.IsZero() {
		if now.Sub(l.lastRequest) < l.minInterval {
			return false
		}
	}

	l.refillLocked(now)
	if l.tokens == 0 {
		return false
	}
	l.tokens--
	l.lastRequest = now
	return true
}

// Acquire blocks until a token is available or ctx is done. On success the
// token is consumed; on context cancellation the ctx error is returned and
// no token is taken.
func (l *Limiter) Acquire(ctx context.Context) error {
	for {
		l.mu.Lock()
		now := l.now()

		var wait time.Duration
		if l.minInterval > 0 && !l.lastRequest.IsZero() {
			if gap := l.minInterval - now.Sub(l.lastRequest); gap > 0 {
				wait = gap
			}
		}

		if wait == 0 {
			l.refillLocked(now)
			if l.tokens > 0 {
				l.tokens--
				l.lastRequest = now
				l.mu.Unlock()
				return nil
			}
			// Time for one token to be generated.
			wait = time.Duration(float64(bucketPeriod) / float64(l.rpm))
			slog.Debug("rate limit reached, waiting for refill",
				"rpm", l.rpm, "wait", wait)
		}
		l.mu.Unlock()

		if err := l.sleep(ctx, wait); err != nil {
			return err
		}
	}
}

// Tokens reports the currently available token count after refill. Intended
// for diagnostics and tests, not for admission decisions.
func (l *Limiter) Tokens() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.refillLocked(l.now())
	return l.tokens
}

// RPM returns the configured requests-per-minute quota.
func (l *Limiter) RPM() int {
	return l.rpm
}

// refillLocked adds tokens accrued since the last update, capped at rpm.
// Whole tokens are carved off the accrued nanosecond-token credit; the
// remainder carries over so successive probes accumulate exactly.
// Caller must hold l.mu.
func (l *Limiter) refillLocked(now time.Time) {
	elapsed := now.Sub(l.updatedAt)
	if elapsed <= 0 {
		return
	}
	l.updatedAt = now

	if elapsed >= bucketPeriod {
		l.tokens = l.rpm
		l.accrued = 0
		return
	}

	l.accrued += int64(elapsed) * int64(l.rpm)
	l.tokens += int(l.accrued / int64(bucketPeriod))
	l.accrued %= int64(bucketPeriod)
	if l.tokens >= l.rpm {
		l.tokens = l.rpm
		l.accrued = 0
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
