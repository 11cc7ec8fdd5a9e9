// Package ratelimit throttles calls to public RPC and price endpoints.
package ratelimit

import (
	"context"

	"golang.org/x/time/rate"
)

// Limiter is a token bucket shared by all callers of one upstream.
type Limiter struct {
	limiter *rate.Limiter
}

// PerMinute allows requestsPerMinute with a burst of a tenth of that, at least 1.
func PerMinute(requestsPerMinute int) *Limiter {
	burst := requestsPerMinute / 10
	if burst < 1 {
		burst = 1
	}
	return &Limiter{limiter: rate.NewLimiter(rate.Limit(float64(requestsPerMinute)/60.0), burst)}
}

// PerSecond allows requestsPerSecond with an explicit burst.
// A non-positive rate disables limiting.
func PerSecond(requestsPerSecond float64, burst int) *Limiter {
	if requestsPerSecond <= 0 {
		return &Limiter{limiter: rate.NewLimiter(rate.Inf, 0)}
	}
	if burst < 1 {
		burst = 1
	}
	return &Limiter{limiter: rate.NewLimiter(rate.Limit(requestsPerSecond), burst)}
}

// Wait blocks until a token is available or ctx is done.
func (l *Limiter) Wait(ctx context.Context) error {
	return l.limiter.Wait(ctx)
}
