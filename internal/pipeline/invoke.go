package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/time/rate"

	"github.com/alnah/go-cleanscript/internal/apierr"
	"github.com/alnah/go-cleanscript/internal/segment"
	"github.com/alnah/go-cleanscript/internal/transform"
)

// Invoker defaults.
const (
	// DefaultAttemptTimeout bounds a single remote call once detached from run cancellation.
	DefaultAttemptTimeout = 2 * time.Minute

	// previewRunes is how much of a segment is echoed in log lines.
	previewRunes = 50
)

// InvokeOption configures Invoke.
type InvokeOption func(*invokeOptions)

type invokeOptions struct {
	logger         *slog.Logger
	limiter        *rate.Limiter
	shouldRetry    func(error) bool
	attemptTimeout time.Duration
}

// WithLogger sets the logger used for attempt, retry and exhaustion events.
func WithLogger(l *slog.Logger) InvokeOption {
	return func(o *invokeOptions) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithLimiter gates every remote call on a shared rate limiter.
func WithLimiter(l *rate.Limiter) InvokeOption {
	return func(o *invokeOptions) {
		o.limiter = l
	}
}

// WithRetryPredicate overrides which failures are retried.
// The default, apierr.RetryAll, retries everything except cancellation.
func WithRetryPredicate(fn func(error) bool) InvokeOption {
	return func(o *invokeOptions) {
		if fn != nil {
			o.shouldRetry = fn
		}
	}
}

// WithAttemptTimeout bounds each remote call. Zero or negative disables the bound.
func WithAttemptTimeout(d time.Duration) InvokeOption {
	return func(o *invokeOptions) {
		o.attemptTimeout = d
	}
}

func newInvokeOptions(opts []InvokeOption) invokeOptions {
	o := invokeOptions{
		logger:         slog.New(slog.DiscardHandler),
		shouldRetry:    apierr.RetryAll,
		attemptTimeout: DefaultAttemptTimeout,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Invoke transforms one segment, retrying empty results and failures with
// exponential backoff until the policy is exhausted.
//
// The returned Outcome is terminal: Success on the first non-empty result,
// otherwise EmptyResult or Failed according to the last attempt. The
// transformer is called at most policy.MaxRetries+1 times.
//
// An attempt already in flight when ctx is cancelled runs to completion on a
// detached context bounded by the attempt timeout. If it succeeds its result
// is kept; otherwise no further attempt starts and Invoke returns ctx.Err()
// with a zero Outcome.
func Invoke(ctx context.Context, seg segment.Segment, t transform.Transformer, policy RetryPolicy, opts ...InvokeOption) (Outcome, error) {
	if err := policy.Validate(); err != nil {
		return Outcome{}, err
	}
	o := newInvokeOptions(opts)
	log := o.logger.With("segment", seg.Index)
	preview := textPreview(seg.Text)

	attempt := 0
	output, attempts, err := apierr.RetryWithBackoff(ctx, policy.retryConfig(),
		func() (string, error) {
			attempt++
			if o.limiter != nil {
				if err := o.limiter.Wait(ctx); err != nil {
					return "", err
				}
			}
			log.Info("sending segment", "attempt", attempt, "preview", preview)
			return o.call(ctx, t, seg.Text)
		},
		func(err error) bool {
			if isCancellation(ctx, err) {
				return false
			}
			return o.shouldRetry(err)
		},
		apierr.WithNotify(func(n int, err error, next time.Duration) {
			log.Error("segment attempt failed, retrying", "attempt", n, "delay", next, "err", err)
		}),
	)

	if err == nil {
		log.Info("segment transformed", "attempt", attempts, "preview", preview)
		return Outcome{Index: seg.Index, Status: StatusSuccess, Output: output, Attempts: attempts}, nil
	}

	var exhausted *apierr.ExhaustedError
	if errors.As(err, &exhausted) {
		err = exhausted.Err
	} else if isCancellation(ctx, err) {
		log.Info("segment abandoned after cancellation", "attempts", attempts)
		return Outcome{}, ctx.Err()
	}

	out := Outcome{Index: seg.Index, Status: StatusFailed, Attempts: attempts, LastError: err}
	if errors.Is(err, apierr.ErrEmptyResult) {
		out.Status = StatusEmptyResult
	}
	log.Error("segment retries exhausted", "attempts", attempts, "status", out.Status, "err", err)
	return out, nil
}

// call runs one transformation detached from run cancellation.
func (o invokeOptions) call(ctx context.Context, t transform.Transformer, text string) (string, error) {
	actx := context.WithoutCancel(ctx)
	if o.attemptTimeout > 0 {
		var cancel context.CancelFunc
		actx, cancel = context.WithTimeout(actx, o.attemptTimeout)
		defer cancel()
	}

	out, err := t.Transform(actx, text)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(out) == "" {
		return "", apierr.ErrEmptyResult
	}
	return out, nil
}

// isCancellation reports whether err comes from ctx being done rather than
// from the service.
func isCancellation(ctx context.Context, err error) bool {
	cerr := ctx.Err()
	return cerr != nil && errors.Is(err, cerr)
}

func textPreview(s string) string {
	if utf8.RuneCountInString(s) <= previewRunes {
		return s
	}
	r := []rune(s)
	return string(r[:previewRunes])
}
