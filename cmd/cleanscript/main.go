package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/alnah/go-cleanscript/internal/apierr"
	"github.com/alnah/go-cleanscript/internal/artifact"
	"github.com/alnah/go-cleanscript/internal/cli"
	"github.com/alnah/go-cleanscript/internal/config"
	"github.com/alnah/go-cleanscript/internal/lang"
	"github.com/alnah/go-cleanscript/internal/pipeline"
	"github.com/alnah/go-cleanscript/internal/segment"
	"github.com/alnah/go-cleanscript/internal/template"
	"github.com/alnah/go-cleanscript/internal/transform"
)

// Injected at build time via ldflags.
var (
	version = "dev"
	commit  = "unknown"
)

// Exit codes.
const (
	ExitOK         = 0
	ExitGeneral    = 1
	ExitUsage      = 2
	ExitSetup      = 3
	ExitValidation = 4
	ExitTransform  = 5
	ExitInterrupt  = 130
)

func main() {
	// Load .env file if present (ignore error if missing).
	_ = godotenv.Load()

	ctx, cancel := signal.NotifyContext(context.Background(),
		syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	env := cli.DefaultEnv()

	rootCmd := &cobra.Command{
		Use:     "cleanscript",
		Short:   "Rewrite long transcripts through a generative text service",
		Version: fmt.Sprintf("%s (commit: %s)", version, commit),
		// Silence Cobra's default error/usage printing; we handle it ourselves.
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	rootCmd.AddCommand(cli.RewriteCmd(env))
	rootCmd.AddCommand(cli.LogsCmd(env))
	rootCmd.AddCommand(cli.ConfigCmd(env))

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitCode(err))
	}
}

// exitCode maps errors to exit codes.
func exitCode(err error) int {
	if err == nil {
		return ExitOK
	}

	if errors.Is(err, context.Canceled) {
		return ExitInterrupt
	}

	if isCobraUsageError(err) {
		return ExitUsage
	}

	// Setup errors: nothing can run until the environment is fixed.
	if errors.Is(err, cli.ErrAPIKeyMissing) || errors.Is(err, transform.ErrEmptyAPIKey) ||
		errors.Is(err, cli.ErrInvalidProvider) || errors.Is(err, apierr.ErrAuthFailed) {
		return ExitSetup
	}

	// Validation errors: bad input or flags.
	if errors.Is(err, cli.ErrFileNotFound) || errors.Is(err, cli.ErrEmptyInput) ||
		errors.Is(err, cli.ErrInvalidFlag) || errors.Is(err, template.ErrUnknown) ||
		errors.Is(err, lang.ErrInvalid) || errors.Is(err, artifact.ErrOutputExists) ||
		errors.Is(err, artifact.ErrInvalidURI) || errors.Is(err, config.ErrInvalidValue) ||
		errors.Is(err, segment.ErrInvalidMaxSize) || errors.Is(err, segment.ErrInvalidOverlap) ||
		errors.Is(err, pipeline.ErrInvalidRetryPolicy) || errors.Is(err, pipeline.ErrInvalidConcurrency) {
		return ExitValidation
	}

	// Transform errors: the service produced nothing usable.
	if errors.Is(err, cli.ErrAllSegmentsFailed) {
		return ExitTransform
	}

	return ExitGeneral
}

// cobraUsageErrorPatterns contains error message substrings that indicate Cobra usage errors.
// Cobra doesn't expose typed errors, so string matching is the only reliable approach.
var cobraUsageErrorPatterns = []string{
	"required flag",
	"unknown flag",
	"unknown shorthand",
	"unknown command",
	"flag needs an argument",
	"invalid argument",
	"if any flags in the group",
	"accepts ",
	"requires at least",
	"requires at most",
}

// isCobraUsageError checks if an error is a Cobra usage/parsing error.
func isCobraUsageError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	for _, pattern := range cobraUsageErrorPatterns {
		if strings.Contains(msg, pattern) {
			return true
		}
	}
	return false
}
