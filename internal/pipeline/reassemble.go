package pipeline

import (
	"fmt"
	"strings"
)

// FailurePolicy decides what a failed segment contributes to the output.
type FailurePolicy int

const (
	// FailureSkip omits failed segments. The output can then be shorter
	// than the input with no visible trace of the gap.
	FailureSkip FailurePolicy = iota
	// FailureMark replaces each failed segment with a visible marker.
	FailureMark
)

// ParseFailurePolicy parses "skip" or "mark".
func ParseFailurePolicy(s string) (FailurePolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "skip":
		return FailureSkip, nil
	case "mark":
		return FailureMark, nil
	}
	return FailureSkip, fmt.Errorf("unknown failure policy %q (use skip or mark)", s)
}

func (p FailurePolicy) String() string {
	if p == FailureMark {
		return "mark"
	}
	return "skip"
}

// Reassembler joins outcomes into the final document.
type Reassembler struct {
	Policy FailurePolicy
	// Marker renders a failed outcome under FailureMark. Nil uses DefaultMarker.
	Marker func(Outcome) string
}

// DefaultMarker renders "[segment 3 failed after 4 attempts: <error>]".
func DefaultMarker(o Outcome) string {
	reason := "empty result"
	if o.LastError != nil {
		reason = o.LastError.Error()
	}
	return fmt.Sprintf("[segment %d failed after %d attempts: %s]", o.Index, o.Attempts, reason)
}

// Reassemble concatenates outcomes in index order, each contribution
// followed by one space, and trims the result. Zero outcomes yield "".
func (r Reassembler) Reassemble(outcomes []Outcome) string {
	marker := r.Marker
	if marker == nil {
		marker = DefaultMarker
	}

	var b strings.Builder
	for _, o := range order(outcomes) {
		switch {
		case o.OK():
			b.WriteString(o.Output)
		case r.Policy == FailureMark:
			b.WriteString(marker(o))
		default:
			continue
		}
		b.WriteByte(' ')
	}
	return strings.TrimSpace(b.String())
}
