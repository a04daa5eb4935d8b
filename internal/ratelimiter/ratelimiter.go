// Package ratelimiter throttles bulk maintenance work such as the record
// and object deletions issued by the reconciler.
package ratelimiter

import (
	"context"

	"golang.org/x/time/rate"
)

// RateLimiter is a token bucket wrapper around golang.org/x/time/rate.
//
// A zero rate disables throttling entirely: Wait returns immediately and
// Allow always succeeds.
//
// Thread safety:
// All methods are safe for concurrent use.
type RateLimiter struct {
	limiter *rate.Limiter
}

// New creates a limiter admitting perSecond operations per second with the
// given burst. perSecond <= 0 means unlimited. A burst below 1 is raised to 1
// so that a limited bucket can ever admit anything.
func New(perSecond float64, burst int) *RateLimiter {
	if perSecond <= 0 {
		return &RateLimiter{limiter: rate.NewLimiter(rate.Inf, 0)}
	}
	if burst < 1 {
		burst = 1
	}
	return &RateLimiter{limiter: rate.NewLimiter(rate.Limit(perSecond), burst)}
}

// Unlimited reports whether throttling is disabled.
func (r *RateLimiter) Unlimited() bool {
	return r.limiter.Limit() == rate.Inf
}

// Allow reports whether one operation may happen now, consuming a token if so.
func (r *RateLimiter) Allow() bool {
	return r.limiter.Allow()
}

// Wait blocks until one token is available or ctx is done.
func (r *RateLimiter) Wait(ctx context.Context) error {
	return r.limiter.Wait(ctx)
}

// WaitN blocks until n tokens are available. Requests larger than the
// burst are split so that batch deletes of any size can be throttled.
func (r *RateLimiter) WaitN(ctx context.Context, n int) error {
	if r.Unlimited() {
		return ctx.Err()
	}
	burst := r.limiter.Burst()
	for n > 0 {
		step := min(n, burst)
		if err := r.limiter.WaitN(ctx, step); err != nil {
			return err
		}
		n -= step
	}
	return nil
}

// Limit returns the configured sustained rate, or 0 when unlimited.
func (r *RateLimiter) Limit() float64 {
	if r.Unlimited() {
		return 0
	}
	return float64(r.limiter.Limit())
}
