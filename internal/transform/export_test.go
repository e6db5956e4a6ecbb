package transform

import (
	"context"

	openai "github.com/sashabaranov/go-openai"
)

// Exports for testing. These allow black-box tests to inject dependencies
// without modifying the public API.

// ChatCompleter mirrors the unexported go-openai client surface.
type ChatCompleter = chatCompleter

var (
	WithChatCompleter      = withChatCompleter
	WithDeepSeekHTTPClient = withDeepSeekHTTPClient
	ClassifyStatus         = classifyStatus
	ClassifyGeminiError    = classifyGeminiError
)

// WithGenerateFunc injects the Gemini call.
func WithGenerateFunc(fn func(ctx context.Context, prompt, model string) (string, error)) GeminiOption {
	return withGenerateFunc(fn)
}

var _ ChatCompleter = (*openai.Client)(nil)
