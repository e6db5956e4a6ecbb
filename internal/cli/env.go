package cli

import (
	"context"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/alnah/go-cleanscript/internal/artifact"
	"github.com/alnah/go-cleanscript/internal/config"
	"github.com/alnah/go-cleanscript/internal/interrupt"
	"github.com/alnah/go-cleanscript/internal/logging"
	"github.com/alnah/go-cleanscript/internal/transform"
)

// Env holds injectable dependencies for CLI commands.
// This is the central injection point for testing CLI commands in isolation.
//
// All fields have defaults via DefaultEnv(). Tests override specific fields
// using the With* options or by creating a custom Env.
type Env struct {
	// I/O and environment
	Stderr io.Writer
	Stdout io.Writer
	Stdin  io.Reader
	Getenv func(string) string
	Now    func() time.Time

	// Collaborators
	ConfigLoader       ConfigLoader
	TransformerFactory TransformerFactory
	ArtifactWriter     ArtifactWriter
	LoggerFactory      LoggerFactory
	Interrupts         InterruptFactory
}

// ConfigLoader loads and provides access to configuration.
type ConfigLoader interface {
	Load() (config.Config, error)
}

// TransformerFactory creates the remote completer for a provider.
// An empty model selects the provider default.
type TransformerFactory interface {
	NewCompleter(ctx context.Context, provider Provider, apiKey, model string) (transform.Completer, error)
}

// ArtifactWriter delivers the final document.
type ArtifactWriter interface {
	Write(ctx context.Context, dest, content string, force bool) (string, error)
}

// LoggerFactory builds the run logger.
type LoggerFactory interface {
	NewLogger(opts logging.Options) (*slog.Logger, io.Closer, error)
}

// InterruptFactory returns an interrupt handler and the context it cancels.
type InterruptFactory func(parent context.Context) (*interrupt.Handler, context.Context)

// EnvOption configures an Env.
type EnvOption func(*Env)

// WithStderr sets the stderr writer.
func WithStderr(w io.Writer) EnvOption {
	return func(e *Env) {
		e.Stderr = w
	}
}

// WithStdout sets the stdout writer.
func WithStdout(w io.Writer) EnvOption {
	return func(e *Env) {
		e.Stdout = w
	}
}

// WithStdin sets the stdin reader.
func WithStdin(r io.Reader) EnvOption {
	return func(e *Env) {
		e.Stdin = r
	}
}

// WithGetenv sets the environment variable getter.
func WithGetenv(fn func(string) string) EnvOption {
	return func(e *Env) {
		e.Getenv = fn
	}
}

// WithNow sets the time provider.
func WithNow(fn func() time.Time) EnvOption {
	return func(e *Env) {
		e.Now = fn
	}
}

// WithConfigLoader sets the config loader.
func WithConfigLoader(l ConfigLoader) EnvOption {
	return func(e *Env) {
		e.ConfigLoader = l
	}
}

// WithTransformerFactory sets the transformer factory.
func WithTransformerFactory(f TransformerFactory) EnvOption {
	return func(e *Env) {
		e.TransformerFactory = f
	}
}

// WithArtifactWriter sets the artifact writer.
func WithArtifactWriter(w ArtifactWriter) EnvOption {
	return func(e *Env) {
		e.ArtifactWriter = w
	}
}

// WithLoggerFactory sets the logger factory.
func WithLoggerFactory(f LoggerFactory) EnvOption {
	return func(e *Env) {
		e.LoggerFactory = f
	}
}

// WithInterrupts sets the interrupt handler factory.
func WithInterrupts(f InterruptFactory) EnvOption {
	return func(e *Env) {
		e.Interrupts = f
	}
}

// DefaultEnv returns an Env with production defaults.
func DefaultEnv() *Env {
	return &Env{
		Stderr:             os.Stderr,
		Stdout:             os.Stdout,
		Stdin:              os.Stdin,
		Getenv:             os.Getenv,
		Now:                time.Now,
		ConfigLoader:       &defaultConfigLoader{},
		TransformerFactory: &defaultTransformerFactory{},
		ArtifactWriter:     artifact.NewWriter(),
		LoggerFactory:      &defaultLoggerFactory{},
		Interrupts:         interrupt.NewHandler,
	}
}

// NewEnv creates an Env with the given options applied to defaults.
func NewEnv(opts ...EnvOption) *Env {
	env := DefaultEnv()
	for _, opt := range opts {
		opt(env)
	}
	return env
}

// ---------------------------------------------------------------------------
// Default implementations - delegate to real packages
// ---------------------------------------------------------------------------

// defaultConfigLoader implements ConfigLoader using the config package.
type defaultConfigLoader struct{}

func (defaultConfigLoader) Load() (config.Config, error) {
	return config.Load()
}

// defaultTransformerFactory implements TransformerFactory with the provider SDKs.
type defaultTransformerFactory struct{}

func (defaultTransformerFactory) NewCompleter(ctx context.Context, provider Provider, apiKey, model string) (transform.Completer, error) {
	switch provider.OrDefault() {
	case OpenAIProvider:
		var opts []transform.OpenAIOption
		if model != "" {
			opts = append(opts, transform.WithOpenAIModel(model))
		}
		return transform.NewOpenAICompleter(apiKey, opts...)
	case DeepSeekProvider:
		var opts []transform.DeepSeekOption
		if model != "" {
			opts = append(opts, transform.WithDeepSeekModel(model))
		}
		return transform.NewDeepSeekCompleter(apiKey, opts...)
	default:
		var opts []transform.GeminiOption
		if model != "" {
			opts = append(opts, transform.WithGeminiModel(model))
		}
		return transform.NewGeminiCompleter(ctx, apiKey, opts...)
	}
}

// defaultLoggerFactory implements LoggerFactory using the logging package.
type defaultLoggerFactory struct{}

func (defaultLoggerFactory) NewLogger(opts logging.Options) (*slog.Logger, io.Closer, error) {
	return logging.Setup(opts)
}

// Compile-time interface verification.
var (
	_ ConfigLoader       = (*defaultConfigLoader)(nil)
	_ TransformerFactory = (*defaultTransformerFactory)(nil)
	_ ArtifactWriter     = (*artifact.Writer)(nil)
	_ LoggerFactory      = (*defaultLoggerFactory)(nil)
)
