package chain

import (
	"context"
	"sync"

	"golang.org/x/time/rate"
)

// RateLimiter keeps one token bucket per node endpoint so a slow public
// endpoint cannot starve calls to another one. The zero rate is unlimited.
type RateLimiter struct {
	mu      sync.Mutex
	buckets map[string]*rate.Limiter
	every   rate.Limit
	burst   int
}

// NewRateLimiter allows ratePerSecond calls per endpoint with bursts of up to
// burst calls. ratePerSecond <= 0 disables limiting; burst < 1 is treated as 1.
func NewRateLimiter(ratePerSecond float64, burst int) *RateLimiter {
	r := &RateLimiter{
		buckets: make(map[string]*rate.Limiter),
		every:   rate.Inf,
		burst:   max(burst, 1),
	}
	if ratePerSecond > 0 {
		r.every = rate.Limit(ratePerSecond)
	}
	return r
}

// Unlimited reports whether the limiter never delays a call.
func (r *RateLimiter) Unlimited() bool {
	return r == nil || r.every == rate.Inf
}

// Allow takes a token for endpoint without waiting.
func (r *RateLimiter) Allow(endpoint string) bool {
	if r.Unlimited() {
		return true
	}
	return r.bucket(endpoint).Allow()
}

// Wait blocks until endpoint has a token or ctx ends.
func (r *RateLimiter) Wait(ctx context.Context, endpoint string) error {
	if r.Unlimited() {
		return ctx.Err()
	}
	return r.bucket(endpoint).Wait(ctx)
}

func (r *RateLimiter) bucket(endpoint string) *rate.Limiter {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.buckets[endpoint]
	if !ok {
		b = rate.NewLimiter(r.every, r.burst)
		r.buckets[endpoint] = b
	}
	return b
}
