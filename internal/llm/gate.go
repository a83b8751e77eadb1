package llm

import (
	"time"

	"golang.org/x/time/rate"
)

// RateGate is a token bucket admitting generation requests.
// It is injected into the pipeline as a precondition check.
type RateGate struct {
	limiter *rate.Limiter
}

// NewRateGate admits perMinute requests per minute with the given burst.
// perMinute <= 0 admits everything.
func NewRateGate(perMinute, burst int) *RateGate {
	if perMinute <= 0 {
		return &RateGate{limiter: rate.NewLimiter(rate.Inf, 0)}
	}
	if burst <= 0 {
		burst = 1
	}
	return &RateGate{limiter: rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), burst)}
}

// Allow reports whether a request may start now, consuming a token if so.
func (g *RateGate) Allow() bool {
	return g.limiter.Allow()
}
