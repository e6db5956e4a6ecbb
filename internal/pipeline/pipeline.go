// Package pipeline runs the segment, transform and reassemble flow:
// text is cut into segments, each segment is sent through a Transformer by a
// bounded pool of workers with per-segment retries, and the results are
// joined back in order.
//
// Failures are isolated per segment. Only invalid configuration is returned
// as an error; service failures end up in the Report, and cancellation yields
// a partial Report with Cancelled set.
package pipeline

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/time/rate"

	"github.com/alnah/go-cleanscript/internal/segment"
	"github.com/alnah/go-cleanscript/internal/transform"
)

// Pipeline processes whole documents.
type Pipeline struct {
	transformer    transform.Transformer
	maxSize        int
	overlap        int
	concurrency    int
	policy         RetryPolicy
	reassembler    Reassembler
	logger         *slog.Logger
	limiter        *rate.Limiter
	shouldRetry    func(error) bool
	attemptTimeout time.Duration
	onProgress     func(Progress)
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithSegmentation sets the maximum segment size in tokens and the overlap
// between consecutive segments.
func WithSegmentation(maxSize, overlap int) Option {
	return func(p *Pipeline) {
		p.maxSize = maxSize
		p.overlap = overlap
	}
}

// WithConcurrency sets the number of segments processed at once.
func WithConcurrency(n int) Option {
	return func(p *Pipeline) {
		p.concurrency = n
	}
}

// WithRetryPolicy sets the per-segment retry policy.
func WithRetryPolicy(policy RetryPolicy) Option {
	return func(p *Pipeline) {
		p.policy = policy
	}
}

// WithFailurePolicy sets how failed segments appear in the output.
func WithFailurePolicy(policy FailurePolicy) Option {
	return func(p *Pipeline) {
		p.reassembler.Policy = policy
	}
}

// WithPipelineLogger sets the logger. Every line carries the run ID.
func WithPipelineLogger(l *slog.Logger) Option {
	return func(p *Pipeline) {
		if l != nil {
			p.logger = l
		}
	}
}

// WithRateLimit shares a limiter across all workers.
func WithRateLimit(l *rate.Limiter) Option {
	return func(p *Pipeline) {
		p.limiter = l
	}
}

// WithRetryOn overrides which failures are retried.
func WithRetryOn(fn func(error) bool) Option {
	return func(p *Pipeline) {
		p.shouldRetry = fn
	}
}

// WithCallTimeout bounds each remote call.
func WithCallTimeout(d time.Duration) Option {
	return func(p *Pipeline) {
		p.attemptTimeout = d
	}
}

// WithProgress registers a progress callback.
func WithProgress(fn func(Progress)) Option {
	return func(p *Pipeline) {
		p.onProgress = fn
	}
}

// New builds a Pipeline and validates its configuration.
func New(t transform.Transformer, opts ...Option) (*Pipeline, error) {
	p := &Pipeline{
		transformer:    t,
		maxSize:        segment.DefaultMaxSize,
		overlap:        segment.DefaultOverlap,
		concurrency:    DefaultConcurrency,
		policy:         DefaultRetryPolicy(),
		logger:         slog.New(slog.DiscardHandler),
		attemptTimeout: DefaultAttemptTimeout,
	}
	for _, opt := range opts {
		opt(p)
	}

	if p.transformer == nil {
		return nil, ErrNoTransformer
	}
	if err := segment.Validate(p.maxSize, p.overlap); err != nil {
		return nil, err
	}
	if err := p.policy.Validate(); err != nil {
		return nil, err
	}
	if p.concurrency <= 0 {
		return nil, ErrInvalidConcurrency
	}
	return p, nil
}

// Result is the reassembled document and the report it was built from.
type Result struct {
	Text    string
	Report  Report
	RunID   string
	Elapsed time.Duration
}

// Process segments text, transforms every segment and reassembles the output.
func (p *Pipeline) Process(ctx context.Context, text string) (Result, error) {
	segs, err := segment.Split(text, p.maxSize, p.overlap)
	if err != nil {
		return Result{}, err
	}

	run := NewRun(segs)
	log := p.logger.With("run_id", run.ID.String())
	log.Info("run started",
		"segments", len(segs),
		"tokens", segment.CountTokens(text),
		"max_size", p.maxSize,
		"overlap", p.overlap,
		"concurrency", p.concurrency,
	)

	invokeOpts := []InvokeOption{
		WithLogger(log),
		WithLimiter(p.limiter),
		WithRetryPredicate(p.shouldRetry),
		WithAttemptTimeout(p.attemptTimeout),
	}
	invoke := func(ctx context.Context, seg segment.Segment) (Outcome, error) {
		return Invoke(ctx, seg, p.transformer, p.policy, invokeOpts...)
	}

	report, err := Orchestrate(ctx, run, invoke, Config{
		Concurrency: p.concurrency,
		OnProgress:  p.onProgress,
		Logger:      log,
	})
	if err != nil {
		return Result{}, err
	}

	out := Result{
		Text:    p.reassembler.Reassemble(report.Outcomes),
		Report:  report,
		RunID:   run.ID.String(),
		Elapsed: run.Elapsed(),
	}
	log.Info("run finished",
		"succeeded", report.Succeeded(),
		"failed", report.Failed(),
		"cancelled", report.Cancelled,
		"elapsed", out.Elapsed,
	)
	return out, nil
}
