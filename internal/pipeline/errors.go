package pipeline

import "errors"

var (
	// ErrInvalidRetryPolicy indicates a RetryPolicy that failed validation.
	ErrInvalidRetryPolicy = errors.New("invalid retry policy")

	// ErrInvalidConcurrency indicates a non-positive worker count.
	ErrInvalidConcurrency = errors.New("invalid concurrency")

	// ErrDuplicateOutcome indicates a second outcome recorded for the same segment.
	ErrDuplicateOutcome = errors.New("duplicate outcome")

	// ErrUnknownSegment indicates an outcome whose index is outside the run.
	ErrUnknownSegment = errors.New("unknown segment")

	// ErrNoTransformer indicates a pipeline built without a transformer.
	ErrNoTransformer = errors.New("no transformer configured")
)
