// Package segment cuts free-form text into bounded-size segments.
//
// A token is a maximal run of non-whitespace characters. Segments never split
// a token, and a segment's text is its tokens joined by a single space, so
// original whitespace (newlines, repeated spaces) is not preserved.
//
// Two modes share one entry point:
//   - overlap == 0: consecutive, non-overlapping segments of at most maxSize tokens
//   - overlap > 0: a sliding window of maxSize tokens advancing by maxSize-overlap
package segment

import (
	"fmt"
	"strings"
)

// Default sizing used by the CLI.
const (
	DefaultMaxSize = 2000
	DefaultOverlap = 0
)

// Segment is one contiguous slice of the input text.
// Indices are contiguous from 0; Start and End are token offsets, End exclusive.
type Segment struct {
	Index int
	Text  string
	Start int
	End   int
}

// Tokens returns the number of tokens in the segment.
func (s Segment) Tokens() int {
	return s.End - s.Start
}

// Validate checks segmentation parameters.
func Validate(maxSize, overlap int) error {
	if maxSize <= 0 {
		return fmt.Errorf("max size %d must be positive: %w", maxSize, ErrInvalidMaxSize)
	}
	if overlap < 0 || overlap >= maxSize {
		return fmt.Errorf("overlap %d must be in [0, %d): %w", overlap, maxSize, ErrInvalidOverlap)
	}
	return nil
}

// Split divides text into segments of at most maxSize tokens.
// Consecutive segments share exactly overlap tokens, except that the last
// segment may be shorter. Empty or whitespace-only text yields nil.
func Split(text string, maxSize, overlap int) ([]Segment, error) {
	if err := Validate(maxSize, overlap); err != nil {
		return nil, err
	}

	tokens := strings.Fields(text)
	if len(tokens) == 0 {
		return nil, nil
	}

	step := maxSize - overlap
	segments := make([]Segment, 0, MaxSegments(len(tokens), maxSize, overlap))
	for start := 0; ; start += step {
		end := min(start+maxSize, len(tokens))
		segments = append(segments, Segment{
			Index: len(segments),
			Text:  strings.Join(tokens[start:end], " "),
			Start: start,
			End:   end,
		})
		if start+maxSize >= len(tokens) {
			break
		}
	}
	return segments, nil
}

// CountTokens returns the number of whitespace-delimited tokens in text.
func CountTokens(text string) int {
	return len(strings.Fields(text))
}

// MaxSegments returns the upper bound ceil(total/(maxSize-overlap)) on the
// number of segments Split produces for total tokens.
// Returns 0 for invalid parameters or an empty input.
func MaxSegments(total, maxSize, overlap int) int {
	if total <= 0 || Validate(maxSize, overlap) != nil {
		return 0
	}
	step := maxSize - overlap
	return (total + step - 1) / step
}
