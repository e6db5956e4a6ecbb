package transform

import (
	"context"
	"fmt"
	"strings"

	"github.com/shouni/go-ai-client/v2/pkg/ai/gemini"

	"github.com/alnah/go-cleanscript/internal/apierr"
)

// Default Gemini configuration.
const defaultGeminiModel = "gemini-2.5-flash"

// generateFunc performs one Gemini call with a single combined prompt.
type generateFunc func(ctx context.Context, prompt, model string) (string, error)

// Compile-time interface compliance check.
var _ Completer = (*GeminiCompleter)(nil)

// GeminiCompleter calls Gemini once per Complete. Gemini takes a single
// prompt, so the system instructions and the segment are concatenated.
type GeminiCompleter struct {
	generate generateFunc
	model    string
}

// GeminiOption configures a GeminiCompleter.
type GeminiOption func(*GeminiCompleter)

// WithGeminiModel sets the Gemini model.
func WithGeminiModel(model string) GeminiOption {
	return func(c *GeminiCompleter) {
		if model != "" {
			c.model = model
		}
	}
}

// withGenerateFunc replaces the Gemini client call (for testing).
func withGenerateFunc(fn generateFunc) GeminiOption {
	return func(c *GeminiCompleter) {
		c.generate = fn
	}
}

// NewGeminiCompleter creates a GeminiCompleter backed by go-ai-client.
// Returns ErrEmptyAPIKey if apiKey is empty.
func NewGeminiCompleter(ctx context.Context, apiKey string, opts ...GeminiOption) (*GeminiCompleter, error) {
	if apiKey == "" {
		return nil, ErrEmptyAPIKey
	}

	c := &GeminiCompleter{model: defaultGeminiModel}
	for _, opt := range opts {
		opt(c)
	}
	if c.generate == nil {
		client, err := gemini.NewClient(ctx, gemini.Config{APIKey: apiKey})
		if err != nil {
			return nil, fmt.Errorf("gemini client: %w", err)
		}
		c.generate = func(ctx context.Context, prompt, model string) (string, error) {
			resp, err := client.GenerateContent(ctx, prompt, model)
			if err != nil {
				return "", err
			}
			return resp.Text, nil
		}
	}
	return c, nil
}

// Complete sends system and user as one prompt.
func (c *GeminiCompleter) Complete(ctx context.Context, system, user string) (string, error) {
	out, err := c.generate(ctx, system+"\n\n"+user, c.model)
	if err != nil {
		return "", fmt.Errorf("gemini: %w", classifyGeminiError(err))
	}
	return out, nil
}

// classifyGeminiError maps Gemini failures to apierr sentinels.
// The client surfaces Google API statuses only in the message text.
func classifyGeminiError(err error) error {
	msg := err.Error()
	upper := strings.ToUpper(msg)
	has := func(subs ...string) bool {
		for _, s := range subs {
			if strings.Contains(upper, s) {
				return true
			}
		}
		return false
	}

	switch {
	case has("API KEY NOT VALID", "API_KEY_INVALID", "UNAUTHENTICATED", "PERMISSION_DENIED", "ERROR 401", "ERROR 403"):
		return fmt.Errorf("%s: %w", msg, apierr.ErrAuthFailed)
	case has("RESOURCE_EXHAUSTED", "ERROR 429", "TOO MANY REQUESTS"):
		return fmt.Errorf("%s: %w", msg, apierr.ErrRateLimit)
	case has("INVALID_ARGUMENT", "FAILED_PRECONDITION", "ERROR 400", "ERROR 404"):
		return fmt.Errorf("%s: %w", msg, apierr.ErrBadRequest)
	case has("DEADLINE_EXCEEDED", "UNAVAILABLE", "INTERNAL", "ERROR 500", "ERROR 503", "ERROR 504"):
		return fmt.Errorf("%s: %w", msg, apierr.ErrTimeout)
	}
	return classifyTransport(err)
}
