package pipeline

import (
	"fmt"
	"time"

	"github.com/alnah/go-cleanscript/internal/apierr"
)

// Status is the terminal state of one segment.
type Status int

const (
	// StatusSuccess means the service returned non-empty text.
	StatusSuccess Status = iota + 1
	// StatusEmptyResult means every attempt ended with empty text, the last one included.
	StatusEmptyResult
	// StatusFailed means the last attempt ended with an error.
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "success"
	case StatusEmptyResult:
		return "empty"
	case StatusFailed:
		return "failed"
	}
	return fmt.Sprintf("status(%d)", int(s))
}

// Outcome is the terminal result of processing one segment.
// Output is set only for StatusSuccess; LastError only for the other statuses.
type Outcome struct {
	Index     int
	Status    Status
	Output    string
	Attempts  int
	LastError error
}

// OK reports whether the segment produced usable text.
func (o Outcome) OK() bool {
	return o.Status == StatusSuccess
}

// RetryPolicy controls how often and how patiently a segment is retried.
// It is immutable for the duration of a run.
type RetryPolicy struct {
	// MaxRetries is the number of retries after the first attempt.
	MaxRetries int
	// InitialDelay is the wait before the first retry; 0 retries immediately.
	InitialDelay time.Duration
	// BackoffMultiplier grows the delay after every retry; must be > 1.
	BackoffMultiplier float64
	// MaxDelay caps the delay; 0 leaves it uncapped.
	MaxDelay time.Duration
}

// Defaults for RetryPolicy.
const (
	DefaultMaxRetries        = 3
	DefaultInitialDelay      = time.Second
	DefaultBackoffMultiplier = 2.0
)

// DefaultRetryPolicy returns 3 retries starting at 1s, doubling, uncapped.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxRetries:        DefaultMaxRetries,
		InitialDelay:      DefaultInitialDelay,
		BackoffMultiplier: DefaultBackoffMultiplier,
	}
}

// Validate rejects policies the invoker cannot honor exactly.
func (p RetryPolicy) Validate() error {
	switch {
	case p.MaxRetries < 0:
		return fmt.Errorf("max retries %d must be >= 0: %w", p.MaxRetries, ErrInvalidRetryPolicy)
	case p.InitialDelay < 0:
		return fmt.Errorf("initial delay %s must be >= 0: %w", p.InitialDelay, ErrInvalidRetryPolicy)
	case p.BackoffMultiplier <= 1:
		return fmt.Errorf("backoff multiplier %g must be > 1: %w", p.BackoffMultiplier, ErrInvalidRetryPolicy)
	case p.MaxDelay < 0:
		return fmt.Errorf("max delay %s must be >= 0: %w", p.MaxDelay, ErrInvalidRetryPolicy)
	}
	return nil
}

func (p RetryPolicy) retryConfig() apierr.RetryConfig {
	return apierr.RetryConfig{
		MaxRetries: p.MaxRetries,
		BaseDelay:  p.InitialDelay,
		Multiplier: p.BackoffMultiplier,
		MaxDelay:   p.MaxDelay,
	}
}
