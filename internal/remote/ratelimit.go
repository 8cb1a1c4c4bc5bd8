package remote

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// RateLimiter controls the frequency of calls to the verification backend.
type RateLimiter struct {
	limiter *rate.Limiter

	// additional backoff after a 429 with Retry-After
	retryAfterUntil time.Time
	mu              sync.Mutex
}

// NewRateLimiter creates a limiter.
// rps - requests per second, burst - allowed burst.
func NewRateLimiter(rps float64, burst int) *RateLimiter {
	return &RateLimiter{
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
	}
}

// DefaultRateLimiter returns a limiter with conservative settings for a
// shared upstream.
func DefaultRateLimiter() *RateLimiter {
	return NewRateLimiter(5.0, 2)
}

// Wait blocks until the next request is allowed.
func (r *RateLimiter) Wait(ctx context.Context) error {
	r.mu.Lock()
	waitUntil := r.retryAfterUntil
	r.mu.Unlock()

	// if a server-imposed pause is active, honor it first
	if time.Now().Before(waitUntil) {
		select {
		case <-time.After(time.Until(waitUntil)):
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	return r.limiter.Wait(ctx)
}

// SetRetryAfter pauses all requests for the given number of seconds.
func (r *RateLimiter) SetRetryAfter(seconds int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.retryAfterUntil = time.Now().Add(time.Duration(seconds) * time.Second)
}
