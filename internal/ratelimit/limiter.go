// Package ratelimit wraps golang.org/x/time/rate with named limiters for the
// external catalogue and recommendation clients.
package ratelimit

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"
)

// Limiter wraps rate.Limiter with a name for logging.
type Limiter struct {
	limiter *rate.Limiter
	name    string
}

// New creates a limiter allowing requestsPerSecond sustained, with a burst of
// the same size.
func New(name string, requestsPerSecond int) *Limiter {
	return &Limiter{
		limiter: rate.NewLimiter(rate.Limit(requestsPerSecond), requestsPerSecond),
		name:    name,
	}
}

// Wait blocks until the limiter allows a request, or the context is done.
func (l *Limiter) Wait(ctx context.Context) error {
	if err := l.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait for %s: %w", l.name, err)
	}
	return nil
}

// Allow reports whether a request may proceed without blocking.
func (l *Limiter) Allow() bool {
	return l.limiter.Allow()
}

// Name returns the limiter's name.
func (l *Limiter) Name() string {
	return l.name
}
