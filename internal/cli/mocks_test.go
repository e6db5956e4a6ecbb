package cli

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/alnah/go-cleanscript/internal/config"
	"github.com/alnah/go-cleanscript/internal/logging"
	"github.com/alnah/go-cleanscript/internal/transform"
)

// ---------------------------------------------------------------------------
// Mock ConfigLoader
// ---------------------------------------------------------------------------

type mockConfigLoader struct {
	LoadFunc func() (config.Config, error)

	mu        sync.Mutex
	loadCalls int
}

func (m *mockConfigLoader) Load() (config.Config, error) {
	m.mu.Lock()
	m.loadCalls++
	m.mu.Unlock()

	if m.LoadFunc != nil {
		return m.LoadFunc()
	}
	return config.Config{}, nil
}

func (m *mockConfigLoader) LoadCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.loadCalls
}

// ---------------------------------------------------------------------------
// Mock TransformerFactory + Completer
// ---------------------------------------------------------------------------

type mockTransformerFactory struct {
	NewCompleterFunc func(ctx context.Context, provider Provider, apiKey, model string) (transform.Completer, error)
	completer        *mockCompleter

	mu       sync.Mutex
	provider Provider
	apiKey   string
	model    string
	calls    int
}

func (m *mockTransformerFactory) NewCompleter(ctx context.Context, provider Provider, apiKey, model string) (transform.Completer, error) {
	m.mu.Lock()
	m.calls++
	m.provider = provider
	m.apiKey = apiKey
	m.model = model
	if m.completer == nil {
		m.completer = &mockCompleter{}
	}
	c := m.completer
	m.mu.Unlock()

	if m.NewCompleterFunc != nil {
		return m.NewCompleterFunc(ctx, provider, apiKey, model)
	}
	return c, nil
}

// Last returns the arguments of the most recent NewCompleter call.
func (m *mockTransformerFactory) Last() (Provider, string, string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.provider, m.apiKey, m.model
}

func (m *mockTransformerFactory) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// mockCompleter returns "rewritten" unless CompleteFunc is set.
type mockCompleter struct {
	CompleteFunc func(ctx context.Context, system, user string) (string, error)

	mu    sync.Mutex
	calls int
}

func (m *mockCompleter) Complete(ctx context.Context, system, user string) (string, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()

	if m.CompleteFunc != nil {
		return m.CompleteFunc(ctx, system, user)
	}
	return "rewritten", nil
}

func (m *mockCompleter) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// ---------------------------------------------------------------------------
// Mock ArtifactWriter
// ---------------------------------------------------------------------------

type mockArtifactWriter struct {
	WriteFunc func(ctx context.Context, dest, content string, force bool) (string, error)

	mu      sync.Mutex
	dest    string
	content string
	force   bool
	calls   int
}

func (m *mockArtifactWriter) Write(ctx context.Context, dest, content string, force bool) (string, error) {
	m.mu.Lock()
	m.calls++
	m.dest = dest
	m.content = content
	m.force = force
	m.mu.Unlock()

	if m.WriteFunc != nil {
		return m.WriteFunc(ctx, dest, content, force)
	}
	return dest, nil
}

// Last returns the destination and content of the most recent write.
func (m *mockArtifactWriter) Last() (dest, content string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.dest, m.content
}

func (m *mockArtifactWriter) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// ---------------------------------------------------------------------------
// Mock LoggerFactory
// ---------------------------------------------------------------------------

type mockLoggerFactory struct {
	NewLoggerFunc func(opts logging.Options) (*slog.Logger, io.Closer, error)

	mu   sync.Mutex
	opts logging.Options
	logs strings.Builder
}

func (m *mockLoggerFactory) NewLogger(opts logging.Options) (*slog.Logger, io.Closer, error) {
	m.mu.Lock()
	m.opts = opts
	m.mu.Unlock()

	if m.NewLoggerFunc != nil {
		return m.NewLoggerFunc(opts)
	}
	return slog.New(slog.NewTextHandler(&lockedWriter{mu: &m.mu, w: &m.logs}, nil)), io.NopCloser(nil), nil
}

// Logs returns everything logged so far.
func (m *mockLoggerFactory) Logs() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.logs.String()
}

// Options returns the options of the most recent NewLogger call.
func (m *mockLoggerFactory) Options() logging.Options {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.opts
}

type lockedWriter struct {
	mu *sync.Mutex
	w  io.Writer
}

func (l *lockedWriter) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.w.Write(p)
}

// Compile-time interface verification.
var (
	_ ConfigLoader        = (*mockConfigLoader)(nil)
	_ TransformerFactory  = (*mockTransformerFactory)(nil)
	_ transform.Completer = (*mockCompleter)(nil)
	_ ArtifactWriter      = (*mockArtifactWriter)(nil)
	_ LoggerFactory       = (*mockLoggerFactory)(nil)
)
