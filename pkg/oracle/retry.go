package oracle

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"time"
)

// RetryConfig defines exponential backoff behavior for retryable errors.
type RetryConfig struct {
	MaxRetries    int           // Maximum number of retry attempts
	InitialDelay  time.Duration // Initial delay before first retry
	MaxDelay      time.Duration // Maximum delay between retries
	BackoffFactor float64       // Multiplier for exponential backoff
	Jitter        bool          // Add random jitter to prevent thundering herd
}

// DefaultRetryConfig provides reasonable defaults for retry behavior.
var DefaultRetryConfig = RetryConfig{
	MaxRetries:    3,
	InitialDelay:  100 * time.Millisecond,
	MaxDelay:      10 * time.Second,
	BackoffFactor: 2.0,
	Jitter:        true,
}

// WithRetry returns middleware that retries retryable errors with
// exponential backoff. Non-retryable errors (auth, bad prompt) pass
// through immediately.
func WithRetry(cfg RetryConfig) Middleware {
	return func(next Completer) Completer {
		return Wrap(
			func(ctx context.Context, in Request) (Response, error) {
				var lastErr error

				for attempt := 0; attempt <= cfg.MaxRetries; attempt++ {
					if attempt > 0 {
						select {
						case <-ctx.Done():
							return Response{}, fmt.Errorf("retry cancelled: %w", ctx.Err())
						case <-time.After(cfg.delay(attempt)):
						}
					}

					resp, err := next.Complete(ctx, in)
					if err == nil {
						return resp, nil
					}
					lastErr = err

					if !IsRetryable(err) {
						return Response{}, err
					}
				}

				return Response{}, fmt.Errorf("failed after %d retries: %w", cfg.MaxRetries, lastErr)
			},
			next.ModelName,
		)
	}
}

// delay computes the backoff for a given attempt number (1-based).
func (c *RetryConfig) delay(attempt int) time.Duration {
	d := float64(c.InitialDelay) * math.Pow(c.BackoffFactor, float64(attempt-1))
	if d > float64(c.MaxDelay) {
		d = float64(c.MaxDelay)
	}
	if c.Jitter {
		d *= 0.5 + rand.Float64()/2 //nolint:gosec // jitter does not need crypto randomness
	}
	return time.Duration(d)
}
