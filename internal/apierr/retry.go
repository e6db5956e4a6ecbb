package apierr

import (
	"context"
	"math"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Default backoff growth factor when RetryConfig.Multiplier is unset.
const defaultMultiplier = 2.0

// RetryConfig holds retry parameters for exponential backoff.
//
// Invalid values are normalized:
//   - MaxRetries < 0 becomes 0 (single attempt)
//   - BaseDelay < 0 becomes 0 (retry immediately)
//   - Multiplier <= 1 becomes 2
//   - MaxDelay <= 0 means the delay is never capped
type RetryConfig struct {
	MaxRetries int
	BaseDelay  time.Duration
	Multiplier float64
	MaxDelay   time.Duration
}

// normalize ensures all RetryConfig fields have valid values.
func (c *RetryConfig) normalize() {
	if c.MaxRetries < 0 {
		c.MaxRetries = 0
	}
	if c.BaseDelay < 0 {
		c.BaseDelay = 0
	}
	if c.Multiplier <= 1 {
		c.Multiplier = defaultMultiplier
	}
}

// schedule returns a jitter-free exponential delay sequence:
// BaseDelay, BaseDelay*Multiplier, BaseDelay*Multiplier^2, ... capped at MaxDelay.
func (c RetryConfig) schedule() *backoff.ExponentialBackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.BaseDelay
	b.Multiplier = c.Multiplier
	b.RandomizationFactor = 0
	b.MaxElapsedTime = 0
	b.MaxInterval = time.Duration(math.MaxInt64)
	if c.MaxDelay > 0 {
		b.MaxInterval = c.MaxDelay
	}
	b.Reset()
	return b
}

// RetryNotify observes a failed attempt that is about to be retried.
// attempt is 1-based; next is the delay before the following attempt.
type RetryNotify func(attempt int, err error, next time.Duration)

// RetryOption configures RetryWithBackoff.
type RetryOption func(*retryOptions)

type retryOptions struct {
	notify RetryNotify
}

// WithNotify registers a callback invoked before every backoff wait.
func WithNotify(fn RetryNotify) RetryOption {
	return func(o *retryOptions) {
		o.notify = fn
	}
}

// RetryWithBackoff executes fn with exponential backoff retry.
// It retries only if shouldRetry returns true for the error, and never more
// than cfg.MaxRetries times, so fn runs at most cfg.MaxRetries+1 times.
//
// It returns the result, the number of attempts made, and an error. When the
// retry budget is consumed the error is an *ExhaustedError wrapping the last
// failure. When ctx is done during a backoff wait, ctx.Err() is returned
// and no further attempt is made; an attempt already running is never interrupted
// by RetryWithBackoff itself.
func RetryWithBackoff[T any](
	ctx context.Context,
	cfg RetryConfig,
	fn func() (T, error),
	shouldRetry func(error) bool,
	opts ...RetryOption,
) (T, int, error) {
	cfg.normalize()

	var o retryOptions
	for _, opt := range opts {
		opt(&o)
	}

	var zero T
	var lastErr error
	sched := cfg.schedule()
	var delay time.Duration

	for attempt := 1; attempt <= cfg.MaxRetries+1; attempt++ {
		if attempt > 1 {
			if err := wait(ctx, delay); err != nil {
				return zero, attempt - 1, err
			}
		}

		result, err := fn()
		if err == nil {
			return result, attempt, nil
		}

		lastErr = err
		if !shouldRetry(err) {
			return zero, attempt, err
		}
		if attempt > cfg.MaxRetries {
			break
		}

		delay = sched.NextBackOff()
		if o.notify != nil {
			o.notify(attempt, err, delay)
		}
	}

	return zero, cfg.MaxRetries + 1, &ExhaustedError{Attempts: cfg.MaxRetries + 1, Err: lastErr}
}

// wait blocks for d or until ctx is done.
func wait(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
