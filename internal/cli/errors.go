package cli

import "errors"

// CLI-specific sentinel errors.
// These are validation/usage errors that don't belong to domain packages.

var (
	// ErrAPIKeyMissing indicates the selected provider's API key variable is not set.
	ErrAPIKeyMissing = errors.New("API key environment variable not set")

	// ErrFileNotFound indicates the specified input file does not exist.
	ErrFileNotFound = errors.New("file not found")

	// ErrEmptyInput indicates the input holds no text.
	ErrEmptyInput = errors.New("input is empty")

	// ErrInvalidFlag indicates a flag value outside its allowed range.
	ErrInvalidFlag = errors.New("invalid flag value")

	// ErrAllSegmentsFailed indicates that no segment produced text.
	ErrAllSegmentsFailed = errors.New("every segment failed")
)
