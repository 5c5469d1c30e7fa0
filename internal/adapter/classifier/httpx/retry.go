package httpx

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"time"
)

// RetryConfig bounds the retry loop around a classifier call.
type RetryConfig struct {
	MaxRetries     int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	Multiplier     float64
}

// DefaultRetryConfig matches the http.* configuration defaults.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:     3,
		InitialBackoff: 2 * time.Second,
		MaxBackoff:     30 * time.Second,
		Multiplier:     2.0,
	}
}

// Operation is one attempt of a retryable call.
type Operation func(ctx context.Context) error

// ShouldRetry reports whether err is worth another attempt. Only typed
// classifier errors marked retryable qualify; anything else fails fast.
func ShouldRetry(err error) bool {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.IsRetryable()
	}
	return false
}

// ExponentialBackoff returns the wait before the given attempt (0-based):
// initial backoff grown by the multiplier per attempt, capped at MaxBackoff,
// with up to 25% jitter either way so concurrent clients spread out.
func ExponentialBackoff(attempt int, config RetryConfig) time.Duration {
	base := math.Min(
		float64(config.InitialBackoff)*math.Pow(config.Multiplier, float64(attempt)),
		float64(config.MaxBackoff),
	)

	jittered := base * (1 + (rand.Float64()*0.5 - 0.25))
	jittered = math.Min(jittered, float64(config.MaxBackoff))
	jittered = math.Max(jittered, 0)

	return time.Duration(jittered)
}

// RetryWithBackoff runs the operation until it succeeds, returns a
// non-retryable error, exhausts MaxRetries, or the context ends.
func RetryWithBackoff(ctx context.Context, operation Operation, config RetryConfig) error {
	for attempt := 0; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		err := operation(ctx)
		if err == nil {
			return nil
		}
		if !ShouldRetry(err) || attempt >= config.MaxRetries {
			return err
		}

		select {
		case <-time.After(ExponentialBackoff(attempt, config)):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
