package cli

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alnah/go-cleanscript/internal/config"
	"github.com/alnah/go-cleanscript/internal/interrupt"
)

// ---------------------------------------------------------------------------
// syncBuffer - thread-safe bytes.Buffer for concurrent test output
// ---------------------------------------------------------------------------

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (n int, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// Compile-time check that syncBuffer implements io.Writer.
var _ io.Writer = (*syncBuffer)(nil)

// ---------------------------------------------------------------------------
// testMocks - convenience struct for grouping all mocks
// ---------------------------------------------------------------------------

type testMocks struct {
	configLoader *mockConfigLoader
	transformer  *mockTransformerFactory
	artifacts    *mockArtifactWriter
	loggers      *mockLoggerFactory
	stdout       *syncBuffer
	stderr       *syncBuffer
}

func newTestMocks() *testMocks {
	return &testMocks{
		configLoader: &mockConfigLoader{},
		transformer:  &mockTransformerFactory{},
		artifacts:    &mockArtifactWriter{},
		loggers:      &mockLoggerFactory{},
		stdout:       &syncBuffer{},
		stderr:       &syncBuffer{},
	}
}

// ---------------------------------------------------------------------------
// testEnv - creates a fully mocked Env for testing
// ---------------------------------------------------------------------------

// testEnvOptions configures a test environment.
type testEnvOptions struct {
	stdin      io.Reader
	getenv     func(string) string
	now        func() time.Time
	interrupts InterruptFactory
	mocks      *testMocks
}

// testEnvOption configures testEnv.
type testEnvOption func(*testEnvOptions)

func withTestStdin(s string) testEnvOption {
	return func(o *testEnvOptions) { o.stdin = strings.NewReader(s) }
}

func withTestGetenv(fn func(string) string) testEnvOption {
	return func(o *testEnvOptions) { o.getenv = fn }
}

func withTestInterrupts(f InterruptFactory) testEnvOption {
	return func(o *testEnvOptions) { o.interrupts = f }
}

// testEnv creates a test Env with all dependencies mocked.
// Returns the Env and the mocks for assertions.
func testEnv(opts ...testEnvOption) (*Env, *testMocks) {
	options := &testEnvOptions{
		stdin:      strings.NewReader(""),
		getenv:     defaultTestEnv,
		now:        fixedTime(time.Date(2026, 1, 26, 14, 30, 52, 0, time.UTC)),
		interrupts: quietInterrupts(nil, nil),
		mocks:      newTestMocks(),
	}

	for _, opt := range opts {
		opt(options)
	}

	env := &Env{
		Stderr:             options.mocks.stderr,
		Stdout:             options.mocks.stdout,
		Stdin:              options.stdin,
		Getenv:             options.getenv,
		Now:                options.now,
		ConfigLoader:       options.mocks.configLoader,
		TransformerFactory: options.mocks.transformer,
		ArtifactWriter:     options.mocks.artifacts,
		LoggerFactory:      options.mocks.loggers,
		Interrupts:         options.interrupts,
	}

	return env, options.mocks
}

// ---------------------------------------------------------------------------
// Test helpers
// ---------------------------------------------------------------------------

// fixedTime returns a function that always returns the given time.
func fixedTime(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

// staticEnv returns a getenv function that returns values from the given map.
func staticEnv(env map[string]string) func(string) string {
	return func(key string) string {
		return env[key]
	}
}

// defaultTestEnv returns API keys for every provider.
func defaultTestEnv(key string) string {
	switch key {
	case EnvGeminiAPIKey:
		return "test-gemini-key"
	case EnvOpenAIAPIKey:
		return "test-openai-key"
	case EnvDeepSeekAPIKey:
		return "test-deepseek-key"
	default:
		return ""
	}
}

// quietInterrupts builds handlers that never see an OS signal. Signals sent
// on sigCh are delivered instead; the clock jumps past the grace window after
// the first reading so WaitForDecision returns at once.
func quietInterrupts(sigCh <-chan os.Signal, stderr io.Writer) InterruptFactory {
	if stderr == nil {
		stderr = io.Discard
	}
	return func(parent context.Context) (*interrupt.Handler, context.Context) {
		base := time.Date(2026, 1, 26, 14, 30, 52, 0, time.UTC)
		var mu sync.Mutex
		calls := 0
		return interrupt.NewHandlerWithOptions(parent, interrupt.Options{
			SigCh:    sigCh,
			ExitFunc: func(int) {},
			NowFunc: func() time.Time {
				mu.Lock()
				defer mu.Unlock()
				calls++
				if calls == 1 {
					return base
				}
				return base.Add(interrupt.Window + time.Second)
			},
			Stderr: stderr,
		})
	}
}

// createInputFile writes content to a temporary file and returns its path.
func createInputFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "input.txt")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to create input file: %v", err)
	}
	return path
}

// configWithOutputDir returns a ConfigLoader that returns a config with the given output directory.
func configWithOutputDir(outputDir string) *mockConfigLoader {
	return &mockConfigLoader{
		LoadFunc: func() (config.Config, error) {
			return config.Config{OutputDir: outputDir}, nil
		},
	}
}

// isolateConfig points the config and state directories at a temp dir.
// Tests using it cannot run in parallel.
func isolateConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	t.Setenv("XDG_STATE_HOME", dir)
	for _, name := range config.EnvFallbacks {
		t.Setenv(name, "")
	}
	return dir
}

// notifyWriter closes C on its first write.
type notifyWriter struct {
	C    chan struct{}
	once sync.Once
}

func newNotifyWriter() *notifyWriter {
	return &notifyWriter{C: make(chan struct{})}
}

func (w *notifyWriter) Write(p []byte) (int, error) {
	w.once.Do(func() { close(w.C) })
	return len(p), nil
}
