package apierr_test

// Notes:
// - Sentinels are compared with errors.Is, both bare and wrapped.
// - IsTransient and RetryAll are exercised against every sentinel plus context errors.

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/alnah/go-cleanscript/internal/apierr"
)

var allSentinels = []error{
	apierr.ErrRateLimit,
	apierr.ErrQuotaExceeded,
	apierr.ErrTimeout,
	apierr.ErrAuthFailed,
	apierr.ErrBadRequest,
	apierr.ErrEmptyResult,
	apierr.ErrMalformedResponse,
}

// ---------------------------------------------------------------------------
// TestSentinelErrorWrapping - wrapped errors still match with errors.Is
// ---------------------------------------------------------------------------

func TestSentinelErrorWrapping(t *testing.T) {
	t.Parallel()

	for _, sentinel := range allSentinels {
		t.Run(sentinel.Error(), func(t *testing.T) {
			t.Parallel()

			wrapped := fmt.Errorf("gemini: %w", sentinel)
			if !errors.Is(wrapped, sentinel) {
				t.Errorf("errors.Is(wrapped, %v) = false, want true", sentinel)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// TestSentinelErrorDistinct - sentinels are distinct from each other
// ---------------------------------------------------------------------------

func TestSentinelErrorDistinct(t *testing.T) {
	t.Parallel()

	for i, a := range allSentinels {
		for j, b := range allSentinels {
			if i != j && errors.Is(a, b) {
				t.Errorf("errors.Is(%v, %v) = true, want false", a, b)
			}
		}
	}
}

// ---------------------------------------------------------------------------
// TestIsTransient - Stricter retry classification
// ---------------------------------------------------------------------------

func TestIsTransient(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"rate limit", fmt.Errorf("x: %w", apierr.ErrRateLimit), true},
		{"timeout", apierr.ErrTimeout, true},
		{"empty result", apierr.ErrEmptyResult, true},
		{"malformed", apierr.ErrMalformedResponse, true},
		{"deadline", context.DeadlineExceeded, true},
		{"auth", fmt.Errorf("x: %w", apierr.ErrAuthFailed), false},
		{"quota", apierr.ErrQuotaExceeded, false},
		{"bad request", apierr.ErrBadRequest, false},
		{"canceled", context.Canceled, false},
		{"unknown", errors.New("boom"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := apierr.IsTransient(tt.err); got != tt.want {
				t.Errorf("IsTransient(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// TestRetryAll - Default predicate
// ---------------------------------------------------------------------------

func TestRetryAll(t *testing.T) {
	t.Parallel()

	if !apierr.RetryAll(apierr.ErrAuthFailed) {
		t.Error("RetryAll(ErrAuthFailed) = false, want true")
	}
	if !apierr.RetryAll(errors.New("boom")) {
		t.Error("RetryAll(unknown) = false, want true")
	}
	if apierr.RetryAll(fmt.Errorf("wrapped: %w", context.Canceled)) {
		t.Error("RetryAll(canceled) = true, want false")
	}
}

// ---------------------------------------------------------------------------
// TestExhaustedError - Message and unwrapping
// ---------------------------------------------------------------------------

func TestExhaustedError(t *testing.T) {
	t.Parallel()

	err := &apierr.ExhaustedError{Attempts: 4, Err: apierr.ErrRateLimit}

	if !errors.Is(err, apierr.ErrRateLimit) {
		t.Error("ExhaustedError should unwrap to the last error")
	}
	want := "max retries exceeded after 4 attempts: rate limit exceeded"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}
