package format_test

// Notes:
// - Negative values are not tested: these functions format real durations and sizes.

import (
	"testing"
	"time"

	"github.com/alnah/go-cleanscript/internal/format"
)

// ---------------------------------------------------------------------------
// TestElapsed - Processing time
// ---------------------------------------------------------------------------

func TestElapsed(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input time.Duration
		want  string
	}{
		{name: "zero", input: 0, want: "0.00s"},
		{name: "sub-second", input: 450 * time.Millisecond, want: "0.45s"},
		{name: "typical run", input: 3210 * time.Millisecond, want: "3.21s"},
		{name: "boundary: just under a minute", input: 59*time.Second + 990*time.Millisecond, want: "59.99s"},
		{name: "boundary: exactly 1 minute", input: time.Minute, want: "1m00s"},
		{name: "minutes and seconds", input: 2*time.Minute + 5*time.Second + 700*time.Millisecond, want: "2m05s"},
		{name: "hours", input: time.Hour + 2*time.Minute + 3*time.Second, want: "1h02m03s"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := format.Elapsed(tt.input); got != tt.want {
				t.Errorf("Elapsed(%v) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// TestSize - Output size
// ---------------------------------------------------------------------------

func TestSize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input int64
		want  string
	}{
		{name: "zero", input: 0, want: "0 bytes"},
		{name: "boundary: 1023 bytes", input: 1023, want: "1023 bytes"},
		{name: "boundary: 1 KB", input: 1024, want: "1.0 KB"},
		{name: "fractional KB", input: 1536, want: "1.5 KB"},
		{name: "boundary: 1 MB", input: 1024 * 1024, want: "1.0 MB"},
		{name: "large", input: 25 * 1024 * 1024, want: "25.0 MB"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := format.Size(tt.input); got != tt.want {
				t.Errorf("Size(%d) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestPlural(t *testing.T) {
	t.Parallel()

	tests := []struct {
		n    int
		want string
	}{
		{0, "0 segments"},
		{1, "1 segment"},
		{12, "12 segments"},
	}
	for _, tt := range tests {
		if got := format.Plural(tt.n, "segment"); got != tt.want {
			t.Errorf("Plural(%d) = %q, want %q", tt.n, got, tt.want)
		}
	}
}
