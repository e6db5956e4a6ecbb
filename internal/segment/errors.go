package segment

import "errors"

var (
	// ErrInvalidMaxSize indicates a non-positive maximum segment size.
	ErrInvalidMaxSize = errors.New("invalid max segment size")

	// ErrInvalidOverlap indicates an overlap that is negative or not smaller than the max size.
	ErrInvalidOverlap = errors.New("invalid overlap")
)
