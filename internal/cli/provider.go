package cli

import (
	"errors"
	"fmt"
	"strings"
)

// Provider names.
const (
	ProviderGemini   = "gemini"
	ProviderOpenAI   = "openai"
	ProviderDeepSeek = "deepseek"
)

// Credential environment variables, one per provider.
const (
	EnvGeminiAPIKey   = "GEMINI_API_KEY"
	EnvOpenAIAPIKey   = "OPENAI_API_KEY"
	EnvDeepSeekAPIKey = "DEEPSEEK_API_KEY"
)

// Provider represents a validated generative text provider.
// Zero value is unset; OrDefault turns it into GeminiProvider.
type Provider struct {
	name string
}

// Compile-time interface compliance check.
var _ fmt.Stringer = Provider{}

// ErrInvalidProvider indicates an invalid provider name was specified.
var ErrInvalidProvider = errors.New("invalid provider")

// Pre-parsed provider constants.
var (
	GeminiProvider   = Provider{name: ProviderGemini}
	OpenAIProvider   = Provider{name: ProviderOpenAI}
	DeepSeekProvider = Provider{name: ProviderDeepSeek}
)

// providerKeys maps each provider to its credential variable.
var providerKeys = map[string]string{
	ProviderGemini:   EnvGeminiAPIKey,
	ProviderOpenAI:   EnvOpenAIAPIKey,
	ProviderDeepSeek: EnvDeepSeekAPIKey,
}

// ParseProvider validates and parses a provider name string.
// Names are case sensitive.
func ParseProvider(s string) (Provider, error) {
	if s == "" {
		return Provider{}, fmt.Errorf("provider cannot be empty: %w", ErrInvalidProvider)
	}
	if _, ok := providerKeys[s]; !ok {
		return Provider{}, fmt.Errorf("unknown provider %q (use %s): %w",
			s, strings.Join([]string{ProviderGemini, ProviderOpenAI, ProviderDeepSeek}, ", "), ErrInvalidProvider)
	}
	return Provider{name: s}, nil
}

// MustParseProvider parses a provider name, panicking if invalid.
// Use only for compile-time constants and tests.
func MustParseProvider(s string) Provider {
	p, err := ParseProvider(s)
	if err != nil {
		panic(err)
	}
	return p
}

// String returns the provider name string.
func (p Provider) String() string {
	return p.name
}

// IsZero returns true if no provider is set.
func (p Provider) IsZero() bool {
	return p.name == ""
}

// IsGemini returns true if this provider is Gemini.
func (p Provider) IsGemini() bool {
	return p.name == ProviderGemini
}

// IsOpenAI returns true if this provider is OpenAI.
func (p Provider) IsOpenAI() bool {
	return p.name == ProviderOpenAI
}

// IsDeepSeek returns true if this provider is DeepSeek.
func (p Provider) IsDeepSeek() bool {
	return p.name == ProviderDeepSeek
}

// OrDefault returns the provider, or GeminiProvider if zero.
func (p Provider) OrDefault() Provider {
	if p.IsZero() {
		return GeminiProvider
	}
	return p
}

// KeyEnv returns the environment variable holding this provider's API key.
func (p Provider) KeyEnv() string {
	return providerKeys[p.OrDefault().name]
}

// apiKey reads the provider's credential or returns ErrAPIKeyMissing.
func (p Provider) apiKey(getenv func(string) string) (string, error) {
	name := p.KeyEnv()
	key := getenv(name)
	if key == "" {
		return "", fmt.Errorf("%s: %w (set it with: export %s=...)", name, ErrAPIKeyMissing, name)
	}
	return key, nil
}
