// Package apierr provides shared error sentinels and retry infrastructure
// for remote text-generation clients. All provider-specific error types are
// classified into these sentinels at the adapter boundary.
//
// Providers map HTTP status codes to these errors using fmt.Errorf("%s: %w", msg, sentinel).
// Callers check with errors.Is(err, apierr.ErrRateLimit) etc.
package apierr

import (
	"context"
	"errors"
	"fmt"
)

// Sentinel errors for API interaction failures.
var (
	// ErrRateLimit indicates the API rate limit was exceeded (temporary, retryable).
	ErrRateLimit = errors.New("rate limit exceeded")

	// ErrQuotaExceeded indicates the API quota was exceeded (billing issue).
	ErrQuotaExceeded = errors.New("quota exceeded")

	// ErrTimeout indicates a request timed out.
	ErrTimeout = errors.New("request timeout")

	// ErrAuthFailed indicates API authentication failed (invalid key).
	ErrAuthFailed = errors.New("authentication failed")

	// ErrBadRequest indicates a client error (4xx) that is not otherwise classified.
	ErrBadRequest = errors.New("bad request")

	// ErrEmptyResult indicates the service answered with empty or whitespace-only text.
	ErrEmptyResult = errors.New("empty result")

	// ErrMalformedResponse indicates the service answered with a body that could not be decoded.
	ErrMalformedResponse = errors.New("malformed response")
)

// ExhaustedError is returned by RetryWithBackoff when every allowed attempt failed.
// Err is the error of the last attempt.
type ExhaustedError struct {
	Attempts int
	Err      error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("max retries exceeded after %d attempts: %v", e.Attempts, e.Err)
}

func (e *ExhaustedError) Unwrap() error {
	return e.Err
}

// RetryAll retries every failure except context cancellation.
func RetryAll(err error) bool {
	return !errors.Is(err, context.Canceled)
}

// IsTransient reports whether err is worth retrying against the same service.
// Authentication, quota and malformed-request failures are terminal.
func IsTransient(err error) bool {
	switch {
	case err == nil:
		return false
	case errors.Is(err, context.Canceled):
		return false
	case errors.Is(err, ErrAuthFailed),
		errors.Is(err, ErrQuotaExceeded),
		errors.Is(err, ErrBadRequest):
		return false
	case errors.Is(err, ErrRateLimit),
		errors.Is(err, ErrTimeout),
		errors.Is(err, ErrEmptyResult),
		errors.Is(err, ErrMalformedResponse),
		errors.Is(err, context.DeadlineExceeded):
		return true
	}
	return false
}
