package pipeline

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"slices"

	"golang.org/x/sync/errgroup"

	"github.com/alnah/go-cleanscript/internal/segment"
)

// DefaultConcurrency is the number of segments processed at once.
const DefaultConcurrency = 5

// InvokeFunc produces the terminal outcome of one segment.
// A non-nil error means the segment was abandoned and has no outcome.
type InvokeFunc func(ctx context.Context, seg segment.Segment) (Outcome, error)

// Config controls Orchestrate.
type Config struct {
	// Concurrency is the maximum number of InvokeFunc calls in flight.
	Concurrency int
	// OnProgress is called after every terminal outcome, from a single goroutine.
	// Completed strictly increases and reaches Total on the last call.
	OnProgress func(Progress)
	// Logger receives orchestration events. Nil discards them.
	Logger *slog.Logger
}

// Report is the result of a run: every terminal outcome in index order.
type Report struct {
	Outcomes []Outcome
	// Total is the number of segments in the run.
	Total int
	// Cancelled is set when the run context was done and at least one
	// segment has no outcome. Segments abandoned for other reasons leave
	// gaps without setting it.
	Cancelled bool
}

// Succeeded counts successful outcomes.
func (r Report) Succeeded() int {
	n := 0
	for _, o := range r.Outcomes {
		if o.OK() {
			n++
		}
	}
	return n
}

// Failed counts outcomes that produced no text.
func (r Report) Failed() int {
	return len(r.Outcomes) - r.Succeeded()
}

// Orchestrate runs invoke over every segment of run with bounded parallelism.
//
// A failed segment never stops the others. When ctx is cancelled, segments
// not yet started are skipped, in-flight ones finish, and the report holds
// only the outcomes that were reached.
func Orchestrate(ctx context.Context, run *Run, invoke InvokeFunc, cfg Config) (Report, error) {
	if cfg.Concurrency <= 0 {
		return Report{}, fmt.Errorf("concurrency %d must be positive: %w", cfg.Concurrency, ErrInvalidConcurrency)
	}
	log := cfg.Logger
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}

	results := make(chan Outcome)
	done := make(chan struct{})
	go func() {
		defer close(done)
		collect(run, results, cfg.OnProgress, log)
	}()

	dispatch(ctx, run.Segments(), invoke, cfg.Concurrency, results, log)
	<-done

	if ctx.Err() != nil && run.Completed() < run.Total() {
		run.MarkCancelled()
	}
	run.Finish()

	return Report{Outcomes: run.Outcomes(), Total: run.Total(), Cancelled: run.Cancelled()}, nil
}

// dispatch fans segments out to at most limit workers and sends each
// terminal outcome to results in completion order. It closes results once
// every started worker has returned. No segment starts after ctx is done.
// Segments abandoned by invoke are logged and produce no outcome.
func dispatch(ctx context.Context, segs []segment.Segment, invoke InvokeFunc, limit int, results chan<- Outcome, log *slog.Logger) {
	defer close(results)

	var g errgroup.Group
	g.SetLimit(limit)
	for _, seg := range segs {
		if ctx.Err() != nil {
			break
		}
		// Go blocks while limit workers are busy.
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			out, err := invoke(ctx, seg)
			if err != nil {
				log.Warn("segment abandoned", "segment", seg.Index, "err", err)
				return nil
			}
			results <- out
			return nil
		})
	}
	_ = g.Wait()
}

// collect records outcomes into run as they arrive and reports progress.
func collect(run *Run, results <-chan Outcome, onProgress func(Progress), log *slog.Logger) {
	for out := range results {
		if err := run.Record(out); err != nil {
			log.Error("outcome rejected", "segment", out.Index, "err", err)
			continue
		}
		if onProgress != nil {
			onProgress(run.Progress())
		}
	}
}

// order returns outcomes sorted by segment index.
func order(outcomes []Outcome) []Outcome {
	sorted := slices.Clone(outcomes)
	slices.SortFunc(sorted, func(a, b Outcome) int {
		return cmp.Compare(a.Index, b.Index)
	})
	return sorted
}
