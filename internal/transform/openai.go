package transform

import (
	"context"
	"errors"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/alnah/go-cleanscript/internal/apierr"
)

// Default OpenAI configuration.
const defaultOpenAIModel = "gpt-4o-mini"

// chatCompleter is an internal interface for OpenAI chat completion.
// *openai.Client implements this implicitly.
// This allows injecting mocks in tests.
type chatCompleter interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// Compile-time interface compliance check.
var _ Completer = (*OpenAICompleter)(nil)

// OpenAICompleter calls OpenAI's chat completion API once per Complete.
type OpenAICompleter struct {
	client  chatCompleter
	model   string
	baseURL string
}

// OpenAIOption configures an OpenAICompleter.
type OpenAIOption func(*OpenAICompleter)

// WithOpenAIModel sets the chat model.
func WithOpenAIModel(model string) OpenAIOption {
	return func(c *OpenAICompleter) {
		if model != "" {
			c.model = model
		}
	}
}

// WithOpenAIBaseURL points the client at a compatible endpoint (proxies, gateways).
func WithOpenAIBaseURL(url string) OpenAIOption {
	return func(c *OpenAICompleter) {
		c.baseURL = strings.TrimSuffix(url, "/")
	}
}

// withChatCompleter sets a custom chat completer (for testing).
func withChatCompleter(cc chatCompleter) OpenAIOption {
	return func(c *OpenAICompleter) {
		c.client = cc
	}
}

// NewOpenAICompleter creates an OpenAICompleter.
// Returns ErrEmptyAPIKey if apiKey is empty.
func NewOpenAICompleter(apiKey string, opts ...OpenAIOption) (*OpenAICompleter, error) {
	if apiKey == "" {
		return nil, ErrEmptyAPIKey
	}

	c := &OpenAICompleter{model: defaultOpenAIModel}
	for _, opt := range opts {
		opt(c)
	}
	if c.client == nil {
		cfg := openai.DefaultConfig(apiKey)
		if c.baseURL != "" {
			cfg.BaseURL = c.baseURL
		}
		c.client = openai.NewClientWithConfig(cfg)
	}
	return c, nil
}

// Complete sends one chat completion request.
func (c *OpenAICompleter) Complete(ctx context.Context, system, user string) (string, error) {
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
	})
	if err != nil {
		return "", fmt.Errorf("openai: %w", classifyOpenAIError(err))
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openai: no choices in response: %w", apierr.ErrMalformedResponse)
	}
	return resp.Choices[0].Message.Content, nil
}

// classifyOpenAIError maps go-openai errors to apierr sentinels.
func classifyOpenAIError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		if classified := classifyStatus(apiErr.HTTPStatusCode, apiErr.Message); classified != nil {
			return classified
		}
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		if classified := classifyStatus(reqErr.HTTPStatusCode, reqErr.Error()); classified != nil {
			return classified
		}
	}
	return classifyTransport(err)
}
