package ai

import (
	"fmt"

	"golang.org/x/time/rate"

	"atlas/pkg/errors"
)

// NewProviderLimiter creates a rate limiter for provider requests.
// reqPerMinute is the sustained rate, burst the maximum burst size.
func NewProviderLimiter(reqPerMinute float64, burst int) *rate.Limiter {
	if reqPerMinute <= 0 {
		return rate.NewLimiter(rate.Inf, 0)
	}
	if burst <= 0 {
		burst = int(reqPerMinute / 10)
		if burst < 1 {
			burst = 1
		}
	}
	return rate.NewLimiter(rate.Limit(reqPerMinute/60.0), burst)
}

// RateLimitError wraps rate limit related errors with provider context.
type RateLimitError struct {
	Provider ProviderName
	Limit    float64
	Err      error
}

// Error implements error interface.
func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limit error for provider %s (limit: %.0f req/min): %v", e.Provider, e.Limit, e.Err)
}

// Unwrap returns the underlying error.
func (e *RateLimitError) Unwrap() error {
	return e.Err
}

// Is lets errors.Is match the rate-limit sentinel in addition to the
// wrapped limiter error.
func (e *RateLimitError) Is(target error) bool {
	return target == errors.ErrRateLimitExceeded
}
