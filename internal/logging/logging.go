// Package logging builds the slog logger used by cleanscript commands and
// reads the log file back for display.
package logging

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
)

// DefaultMaxBytes is the size at which the log file is rotated on Setup.
const DefaultMaxBytes = 5 << 20

// ErrNoLogFile indicates the log file has not been created yet.
var ErrNoLogFile = errors.New("no log file")

// Options configures Setup.
type Options struct {
	// Path is the log file. Empty disables the file sink.
	Path string
	// Verbose also writes log lines to Stderr.
	Verbose bool
	// Stderr receives log lines when Verbose is set. Defaults to os.Stderr.
	Stderr io.Writer
	// Level is the minimum level recorded.
	Level slog.Level
	// MaxBytes rotates the file to Path+".1" when it is larger. Zero uses DefaultMaxBytes.
	MaxBytes int64
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// Setup returns a text logger writing to the configured sinks.
// The returned Closer releases the log file and must be called when done.
func Setup(opts Options) (*slog.Logger, io.Closer, error) {
	stderr := opts.Stderr
	if stderr == nil {
		stderr = os.Stderr
	}

	var writers []io.Writer
	var closer io.Closer = nopCloser{}

	if opts.Path != "" {
		f, err := openLogFile(opts.Path, opts.MaxBytes)
		if err != nil {
			return nil, nil, err
		}
		writers = append(writers, f)
		closer = f
	}
	if opts.Verbose {
		writers = append(writers, stderr)
	}

	if len(writers) == 0 {
		return slog.New(slog.DiscardHandler), closer, nil
	}

	h := slog.NewTextHandler(io.MultiWriter(writers...), &slog.HandlerOptions{Level: opts.Level})
	return slog.New(h), closer, nil
}

func openLogFile(path string, maxBytes int64) (*os.File, error) {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil { // #nosec G301 -- user state dir
		return nil, fmt.Errorf("cannot create log directory: %w", err)
	}
	if info, err := os.Stat(path); err == nil && info.Size() > maxBytes {
		if err := os.Rename(path, path+".1"); err != nil {
			return nil, fmt.Errorf("cannot rotate log file: %w", err)
		}
	}
	// #nosec G304 -- log path comes from config or the state dir
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0600)
	if err != nil {
		return nil, fmt.Errorf("cannot open log file: %w", err)
	}
	return f, nil
}

// ReadTail returns the last n lines of the log file, or every line when n <= 0.
func ReadTail(path string, n int) ([]string, error) {
	f, err := os.Open(path) // #nosec G304 -- log path comes from config or the state dir
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%s: %w", path, ErrNoLogFile)
		}
		return nil, fmt.Errorf("cannot open log file: %w", err)
	}
	defer func() { _ = f.Close() }()

	var lines []string
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
		if n > 0 && len(lines) > n {
			lines = lines[1:]
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read log file: %w", err)
	}
	return lines, nil
}
