// Package interrupt turns Ctrl+C into run cancellation with a grace window.
//
// The first interrupt cancels the run context: segments already in flight
// finish, nothing new starts. Any further interrupt before WaitForDecision
// has returned discards the partial result and exits.
package interrupt

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"
)

// Decision is what to do with a partial result after an interrupt.
type Decision int

const (
	// KeepPartial writes whatever segments completed.
	KeepPartial Decision = iota
	// Discard drops the partial result.
	Discard
)

// String returns the string representation of the Decision.
func (d Decision) String() string {
	switch d {
	case KeepPartial:
		return "KeepPartial"
	case Discard:
		return "Discard"
	default:
		return fmt.Sprintf("Decision(%d)", d)
	}
}

// ExitInterrupt is the exit code for interrupt (130 = 128 + SIGINT).
const ExitInterrupt = 130

// Window is how long WaitForDecision keeps listening for a second Ctrl+C,
// counted from the first one. While the run is still draining a second
// Ctrl+C always aborts.
const Window = 2 * time.Second

const (
	pollInterval   = 50 * time.Millisecond
	stopMessage    = "\nInterrupted: finishing segments in flight (Ctrl+C again to abort)..."
	discardMessage = "\nAborted."
)

// Handler tracks interrupts for one command invocation.
type Handler struct {
	mu             sync.Mutex
	firstInterrupt time.Time
	interrupted    bool
	discarded      bool
	decided        bool
	stopped        bool
	cancel         context.CancelFunc
	done           chan struct{}

	exitFunc func(int)
	nowFunc  func() time.Time
	stderr   io.Writer
}

// Options holds injectable dependencies.
type Options struct {
	SigCh    <-chan os.Signal
	ExitFunc func(int)
	NowFunc  func() time.Time
	// Stderr must be safe for concurrent writes.
	Stderr io.Writer
}

// NewHandler listens for SIGINT/SIGTERM and returns a context cancelled on
// the first one.
func NewHandler(parent context.Context) (*Handler, context.Context) {
	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	return NewHandlerWithOptions(parent, Options{SigCh: sigCh})
}

// NewHandlerWithOptions is NewHandler with injected signal source, exit and clock.
func NewHandlerWithOptions(parent context.Context, opts Options) (*Handler, context.Context) {
	ctx, cancel := context.WithCancel(parent)

	h := &Handler{
		cancel:   cancel,
		done:     make(chan struct{}),
		exitFunc: opts.ExitFunc,
		nowFunc:  opts.NowFunc,
		stderr:   opts.Stderr,
	}
	if h.exitFunc == nil {
		h.exitFunc = os.Exit
	}
	if h.nowFunc == nil {
		h.nowFunc = time.Now
	}
	if h.stderr == nil {
		h.stderr = os.Stderr
	}

	if opts.SigCh != nil {
		go h.listen(opts.SigCh)
	}

	return h, ctx
}

func (h *Handler) listen(sigCh <-chan os.Signal) {
	for {
		select {
		case <-h.done:
			return
		case _, ok := <-sigCh:
			if !ok {
				return
			}
			if h.handle() {
				return
			}
		}
	}
}

// handle records one signal and reports whether listening should stop.
func (h *Handler) handle() bool {
	h.mu.Lock()
	if h.stopped {
		h.mu.Unlock()
		return true
	}
	now := h.nowFunc()

	if !h.interrupted {
		h.interrupted = true
		h.firstInterrupt = now
		h.cancel()
		h.mu.Unlock()
		fmt.Fprintln(h.stderr, stopMessage)
		return false
	}

	if h.decided {
		h.mu.Unlock()
		return false
	}

	h.discarded = true
	h.mu.Unlock()
	fmt.Fprintln(h.stderr, discardMessage)
	h.exitFunc(ExitInterrupt)
	return true
}

// WasInterrupted reports whether at least one interrupt was received.
func (h *Handler) WasInterrupted() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.interrupted
}

// WaitForDecision blocks until the grace window after the first interrupt
// has passed and returns Discard if a second interrupt came in. Without any
// interrupt it returns KeepPartial immediately. Once it returns, later
// interrupts no longer abort.
func (h *Handler) WaitForDecision(message string) Decision {
	defer h.markDecided()

	h.mu.Lock()
	if !h.interrupted {
		h.mu.Unlock()
		return KeepPartial
	}
	if h.discarded {
		h.mu.Unlock()
		return Discard
	}
	remaining := Window - h.nowFunc().Sub(h.firstInterrupt)
	h.mu.Unlock()

	if remaining <= 0 {
		return KeepPartial
	}
	if message != "" {
		fmt.Fprintln(h.stderr, message)
	}

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()
	deadline := time.NewTimer(remaining)
	defer deadline.Stop()

	for {
		select {
		case <-deadline.C:
			if h.isDiscarded() {
				return Discard
			}
			return KeepPartial
		case <-ticker.C:
			if h.isDiscarded() {
				return Discard
			}
		}
	}
}

func (h *Handler) markDecided() {
	h.mu.Lock()
	h.decided = true
	h.mu.Unlock()
}

func (h *Handler) isDiscarded() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.discarded
}

// Stop releases the signal subscription. Safe to call more than once.
func (h *Handler) Stop() {
	h.mu.Lock()
	if h.stopped {
		h.mu.Unlock()
		return
	}
	h.stopped = true
	h.mu.Unlock()

	signal.Reset(syscall.SIGINT, syscall.SIGTERM)
	close(h.done)
	h.cancel()
}
