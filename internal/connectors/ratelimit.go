package connectors

import (
	"context"

	"golang.org/x/time/rate"
)

// Limiter bounds both the request rate (token bucket) and the number of
// concurrent in-flight requests against one external dependency. Each
// dependency gets its own instance, shared by reference across all
// concurrent chunk workers of a run; never a global singleton.
type Limiter struct {
	bucket   *rate.Limiter
	inflight chan struct{}
}

// NewLimiter creates a limiter allowing ratePerSecond requests with the
// given burst, and at most maxInFlight concurrent requests.
func NewLimiter(ratePerSecond float64, burst, maxInFlight int) *Limiter {
	if burst < 1 {
		burst = 1
	}
	if maxInFlight < 1 {
		maxInFlight = 1
	}
	return &Limiter{
		bucket:   rate.NewLimiter(rate.Limit(ratePerSecond), burst),
		inflight: make(chan struct{}, maxInFlight),
	}
}

// Acquire blocks until a request may start, returning a release func
// that must be called when the request finishes.
func (l *Limiter) Acquire(ctx context.Context) (func(), error) {
	select {
	case l.inflight <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	if err := l.bucket.Wait(ctx); err != nil {
		<-l.inflight
		return nil, err
	}

	return func() { <-l.inflight }, nil
}
