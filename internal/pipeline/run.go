package pipeline

import (
	"fmt"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/alnah/go-cleanscript/internal/segment"
)

// Progress is a snapshot of how many segments reached a terminal outcome.
type Progress struct {
	Completed int
	Total     int
}

// Fraction returns Completed/Total in [0,1]; an empty run is complete.
func (p Progress) Fraction() float64 {
	if p.Total == 0 {
		return 1
	}
	return float64(p.Completed) / float64(p.Total)
}

// Run holds the state of one processing invocation. It is created per
// command, owned by the caller and discarded afterwards.
type Run struct {
	// ID correlates log lines of the same run.
	ID        uuid.UUID
	StartedAt time.Time

	segments  []segment.Segment
	completed atomic.Int64
	cancelled atomic.Bool

	mu         sync.Mutex
	outcomes   map[int]Outcome
	finishedAt time.Time
}

// NewRun creates a run over segs. Segment indices must be contiguous from 0.
func NewRun(segs []segment.Segment) *Run {
	return &Run{
		ID:        uuid.New(),
		StartedAt: time.Now(),
		segments:  slices.Clone(segs),
		outcomes:  make(map[int]Outcome, len(segs)),
	}
}

// Segments returns the run's segments in index order.
func (r *Run) Segments() []segment.Segment {
	return slices.Clone(r.segments)
}

// Total returns the number of segments.
func (r *Run) Total() int {
	return len(r.segments)
}

// Record stores a terminal outcome. Each index accepts exactly one outcome.
func (r *Run) Record(o Outcome) error {
	if o.Index < 0 || o.Index >= len(r.segments) {
		return fmt.Errorf("outcome for segment %d of %d: %w", o.Index, len(r.segments), ErrUnknownSegment)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.outcomes[o.Index]; ok {
		return fmt.Errorf("segment %d: %w", o.Index, ErrDuplicateOutcome)
	}
	r.outcomes[o.Index] = o
	r.completed.Add(1)
	return nil
}

// Completed returns how many segments reached a terminal outcome.
func (r *Run) Completed() int {
	return int(r.completed.Load())
}

// Progress returns the current completion snapshot.
func (r *Run) Progress() Progress {
	return Progress{Completed: r.Completed(), Total: r.Total()}
}

// Outcomes returns the recorded outcomes sorted by index.
func (r *Run) Outcomes() []Outcome {
	r.mu.Lock()
	out := make([]Outcome, 0, len(r.outcomes))
	for _, o := range r.outcomes {
		out = append(out, o)
	}
	r.mu.Unlock()
	return order(out)
}

// MarkCancelled flags the run as interrupted.
func (r *Run) MarkCancelled() {
	r.cancelled.Store(true)
}

// Cancelled reports whether the run was interrupted before every segment finished.
func (r *Run) Cancelled() bool {
	return r.cancelled.Load()
}

// Finish records the end time. Later calls are ignored.
func (r *Run) Finish() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.finishedAt.IsZero() {
		r.finishedAt = time.Now()
	}
}

// Elapsed returns the run duration, or the time since start if unfinished.
func (r *Run) Elapsed() time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.finishedAt.IsZero() {
		return time.Since(r.StartedAt)
	}
	return r.finishedAt.Sub(r.StartedAt)
}
