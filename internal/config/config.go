// Package config reads and writes the persistent cleanscript settings file.
//
// Settings live in $XDG_CONFIG_HOME/cleanscript/config.yaml (or
// ~/.config/cleanscript/config.yaml). A few keys also have environment
// fallbacks used when the file does not set them.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config keys.
const (
	KeyOutputDir   = "output-dir"
	KeyProvider    = "provider"
	KeyModel       = "model"
	KeyConcurrency = "concurrency"
	KeyMaxSize     = "max-size"
	KeyLogFile     = "log-file"
)

// Environment variable fallbacks.
const (
	EnvOutputDir = "CLEANSCRIPT_OUTPUT_DIR"
	EnvProvider  = "CLEANSCRIPT_PROVIDER"
	EnvLogFile   = "CLEANSCRIPT_LOG_FILE"
)

const (
	appDir      = "cleanscript"
	fileName    = "config.yaml"
	logFileName = "cleanscript.log"
)

// Keys lists every supported key in display order.
var Keys = []string{KeyOutputDir, KeyProvider, KeyModel, KeyConcurrency, KeyMaxSize, KeyLogFile}

// EnvFallbacks maps keys to their environment variable.
var EnvFallbacks = map[string]string{
	KeyOutputDir: EnvOutputDir,
	KeyProvider:  EnvProvider,
	KeyLogFile:   EnvLogFile,
}

// ErrInvalidValue indicates a config value that cannot be used for its key.
var ErrInvalidValue = errors.New("invalid config value")

// Config holds user configuration. Zero fields mean "not set".
type Config struct {
	OutputDir   string
	Provider    string
	Model       string
	Concurrency int
	MaxSize     int
	LogFile     string
}

// dir returns the configuration directory path.
func dir() (string, error) {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, appDir), nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(home, ".config", appDir), nil
}

// path returns the full path to the config file.
func path() (string, error) {
	d, err := dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(d, fileName), nil
}

// Load reads the configuration file and environment variables.
// File values win over environment fallbacks. A missing file is not an error.
func Load() (Config, error) {
	var cfg Config

	p, err := path()
	if err != nil {
		return cfg, err
	}

	data, err := parseFile(p)
	if err != nil && !os.IsNotExist(err) {
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}
	for key, env := range EnvFallbacks {
		if data[key] == "" {
			if v := os.Getenv(env); v != "" {
				if data == nil {
					data = make(map[string]string)
				}
				data[key] = v
			}
		}
	}

	return fromMap(data)
}

// fromMap converts raw key/value pairs into a Config.
func fromMap(data map[string]string) (Config, error) {
	cfg := Config{
		OutputDir: data[KeyOutputDir],
		Provider:  data[KeyProvider],
		Model:     data[KeyModel],
		LogFile:   data[KeyLogFile],
	}

	var err error
	if cfg.Concurrency, err = positiveInt(KeyConcurrency, data[KeyConcurrency]); err != nil {
		return Config{}, err
	}
	if cfg.MaxSize, err = positiveInt(KeyMaxSize, data[KeyMaxSize]); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func positiveInt(key, v string) (int, error) {
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%s must be a positive integer, got %q: %w", key, v, ErrInvalidValue)
	}
	return n, nil
}

// parseFile reads a YAML mapping of scalar values.
// Non-string scalars are kept in their textual form.
func parseFile(p string) (map[string]string, error) {
	raw, err := os.ReadFile(p) // #nosec G304 -- config path is constructed from home dir
	if err != nil {
		return nil, err
	}

	var doc map[string]any
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("invalid syntax in %s: %w", p, err)
	}

	data := make(map[string]string, len(doc))
	for k, v := range doc {
		switch v := v.(type) {
		case nil:
			data[k] = ""
		case map[string]any, []any:
			return nil, fmt.Errorf("key %q must be a scalar: %w", k, ErrInvalidValue)
		default:
			data[k] = fmt.Sprint(v)
		}
	}
	return data, nil
}

// Save writes a single key to the config file, keeping the other keys.
// Creates the config directory and file if they don't exist.
func Save(key, value string) error {
	if err := Validate(key, value); err != nil {
		return err
	}

	p, err := path()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(p), 0750); err != nil { // #nosec G301 -- user config dir
		return fmt.Errorf("cannot create config directory: %w", err)
	}

	existing, err := parseFile(p)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to read config: %w", err)
	}
	if existing == nil {
		existing = make(map[string]string)
	}
	existing[key] = value

	return writeFile(p, existing)
}

// writeFile writes the config map as YAML. Keys come out sorted.
func writeFile(p string, data map[string]string) error {
	out, err := yaml.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	// #nosec G306 -- config file with standard permissions
	if err := os.WriteFile(p, out, 0644); err != nil {
		return fmt.Errorf("cannot write config file: %w", err)
	}
	return nil
}

// Validate checks a value for key without touching the file system.
func Validate(key, value string) error {
	switch key {
	case KeyConcurrency, KeyMaxSize:
		_, err := positiveInt(key, value)
		return err
	case KeyOutputDir, KeyProvider, KeyModel, KeyLogFile:
		if strings.TrimSpace(value) == "" {
			return fmt.Errorf("%s cannot be empty: %w", key, ErrInvalidValue)
		}
		return nil
	default:
		return fmt.Errorf("unknown config key %q (valid keys: %s): %w", key, strings.Join(Keys, ", "), ErrInvalidValue)
	}
}

// Get reads a single value from the config file.
// Returns empty string if the key doesn't exist.
func Get(key string) (string, error) {
	p, err := path()
	if err != nil {
		return "", err
	}

	data, err := parseFile(p)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", err
	}

	return data[key], nil
}

// List returns all config file values as a map.
func List() (map[string]string, error) {
	p, err := path()
	if err != nil {
		return nil, err
	}

	data, err := parseFile(p)
	if err != nil {
		if os.IsNotExist(err) {
			return make(map[string]string), nil
		}
		return nil, err
	}

	return data, nil
}

// ResolveOutputPath resolves the final output path using the following precedence:
//  1. If output is absolute, use it as-is
//  2. If output is relative and outputDir is set, join them
//  3. If output is empty, use defaultName in outputDir (or cwd if no outputDir)
//
// Stdout ("-") and object URIs ("gs://...") are returned unchanged.
func ResolveOutputPath(output, outputDir, defaultName string) string {
	if output == "-" || strings.HasPrefix(output, "gs://") {
		return output
	}

	if output != "" && filepath.IsAbs(output) {
		return filepath.Clean(output)
	}

	if output != "" {
		if outputDir != "" {
			return filepath.Clean(filepath.Join(outputDir, output))
		}
		return filepath.Clean(output)
	}

	if outputDir != "" {
		return filepath.Clean(filepath.Join(outputDir, defaultName))
	}
	return filepath.Clean(defaultName)
}

// EnsureOutputDir checks that d is a writable directory, creating it if needed.
func EnsureOutputDir(d string) error {
	if d == "" {
		return fmt.Errorf("output-dir cannot be empty")
	}
	d = ExpandPath(d)

	info, err := os.Stat(d)
	if err != nil {
		if os.IsNotExist(err) {
			if err := os.MkdirAll(d, 0750); err != nil { // #nosec G301 -- user output dir
				return fmt.Errorf("cannot create directory: %w", err)
			}
			return nil
		}
		return fmt.Errorf("cannot access directory: %w", err)
	}

	if !info.IsDir() {
		return fmt.Errorf("path is not a directory: %s", d)
	}

	probe, err := os.CreateTemp(d, ".cleanscript-write-test-*")
	if err != nil {
		return fmt.Errorf("directory is not writable: %w", err)
	}
	name := probe.Name()
	_ = probe.Close()
	_ = os.Remove(name)

	return nil
}

// ExpandPath expands ~ to the user's home directory.
func ExpandPath(p string) string {
	if strings.HasPrefix(p, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return p
		}
		return filepath.Join(home, p[2:])
	}
	return p
}

// LogPath returns the log file location: the configured log-file, or
// $XDG_STATE_HOME/cleanscript/cleanscript.log (~/.local/state when unset).
func LogPath(cfg Config) (string, error) {
	if cfg.LogFile != "" {
		return ExpandPath(cfg.LogFile), nil
	}
	if state := os.Getenv("XDG_STATE_HOME"); state != "" {
		return filepath.Join(state, appDir, logFileName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(home, ".local", "state", appDir, logFileName), nil
}

// Dir returns the configuration directory path.
func Dir() (string, error) {
	return dir()
}
