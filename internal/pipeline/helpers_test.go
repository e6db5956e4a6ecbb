package pipeline_test

import (
	"context"
	"log/slog"
	"sync"

	"github.com/alnah/go-cleanscript/internal/segment"
)

// ---------------------------------------------------------------------------
// recordingHandler - captures slog records for assertions
// ---------------------------------------------------------------------------

type logEntry struct {
	Level   slog.Level
	Message string
	Attrs   map[string]any
}

type logSink struct {
	mu      sync.Mutex
	entries []logEntry
}

func (s *logSink) Entries() []logEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]logEntry(nil), s.entries...)
}

func (s *logSink) Count(msg string) int {
	n := 0
	for _, e := range s.Entries() {
		if e.Message == msg {
			n++
		}
	}
	return n
}

type recordingHandler struct {
	sink  *logSink
	attrs []slog.Attr
}

func newRecordingLogger() (*slog.Logger, *logSink) {
	sink := &logSink{}
	return slog.New(&recordingHandler{sink: sink}), sink
}

func (h *recordingHandler) Enabled(context.Context, slog.Level) bool { return true }

func (h *recordingHandler) Handle(_ context.Context, r slog.Record) error {
	attrs := make(map[string]any)
	for _, a := range h.attrs {
		attrs[a.Key] = a.Value.Any()
	}
	r.Attrs(func(a slog.Attr) bool {
		attrs[a.Key] = a.Value.Any()
		return true
	})
	h.sink.mu.Lock()
	h.sink.entries = append(h.sink.entries, logEntry{Level: r.Level, Message: r.Message, Attrs: attrs})
	h.sink.mu.Unlock()
	return nil
}

func (h *recordingHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &recordingHandler{sink: h.sink, attrs: append(append([]slog.Attr(nil), h.attrs...), attrs...)}
}

func (h *recordingHandler) WithGroup(string) slog.Handler { return h }

// ---------------------------------------------------------------------------
// Segment helpers
// ---------------------------------------------------------------------------

func makeSegments(n int) []segment.Segment {
	segs := make([]segment.Segment, n)
	for i := range segs {
		segs[i] = segment.Segment{Index: i, Text: "segment text", Start: i, End: i + 1}
	}
	return segs
}
