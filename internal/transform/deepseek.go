package transform

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/alnah/go-cleanscript/internal/apierr"
)

// DeepSeek API configuration.
const (
	defaultDeepSeekBaseURL     = "https://api.deepseek.com"
	defaultDeepSeekModel       = "deepseek-chat"
	defaultDeepSeekMaxTokens   = 8000
	defaultDeepSeekHTTPTimeout = 5 * time.Minute

	// Response size limit to prevent OOM from malformed responses (10MB)
	maxResponseSize = 10 * 1024 * 1024
)

// httpDoer abstracts HTTP client for testing.
type httpDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Compile-time interface compliance check.
var _ Completer = (*DeepSeekCompleter)(nil)

// DeepSeekCompleter calls DeepSeek's chat completion REST API once per Complete.
type DeepSeekCompleter struct {
	apiKey      string
	baseURL     string
	model       string
	maxTokens   int
	temperature *float64
	httpTimeout time.Duration
	httpClient  httpDoer
}

// DeepSeekOption configures a DeepSeekCompleter.
type DeepSeekOption func(*DeepSeekCompleter)

// WithDeepSeekModel sets the model ("deepseek-chat" or "deepseek-reasoner").
func WithDeepSeekModel(model string) DeepSeekOption {
	return func(c *DeepSeekCompleter) {
		if model != "" {
			c.model = model
		}
	}
}

// WithDeepSeekTemperature sends an explicit sampling temperature. Without it
// the provider default applies, as for the other providers.
func WithDeepSeekTemperature(t float64) DeepSeekOption {
	return func(c *DeepSeekCompleter) {
		c.temperature = &t
	}
}

// WithDeepSeekBaseURL sets a custom base URL (for testing or proxies).
func WithDeepSeekBaseURL(url string) DeepSeekOption {
	return func(c *DeepSeekCompleter) {
		c.baseURL = strings.TrimSuffix(url, "/")
	}
}

// WithDeepSeekHTTPTimeout sets the HTTP client timeout.
func WithDeepSeekHTTPTimeout(timeout time.Duration) DeepSeekOption {
	return func(c *DeepSeekCompleter) {
		if timeout > 0 {
			c.httpTimeout = timeout
		}
	}
}

// withDeepSeekHTTPClient sets a custom HTTP client (for testing).
func withDeepSeekHTTPClient(client httpDoer) DeepSeekOption {
	return func(c *DeepSeekCompleter) {
		c.httpClient = client
	}
}

// NewDeepSeekCompleter creates a DeepSeekCompleter.
// Returns ErrEmptyAPIKey if apiKey is empty.
func NewDeepSeekCompleter(apiKey string, opts ...DeepSeekOption) (*DeepSeekCompleter, error) {
	if apiKey == "" {
		return nil, ErrEmptyAPIKey
	}

	c := &DeepSeekCompleter{
		apiKey:      apiKey,
		baseURL:     defaultDeepSeekBaseURL,
		model:       defaultDeepSeekModel,
		maxTokens:   defaultDeepSeekMaxTokens,
		httpTimeout: defaultDeepSeekHTTPTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	// Create HTTP client after options are applied (timeout may be customized)
	if c.httpClient == nil {
		c.httpClient = &http.Client{Timeout: c.httpTimeout}
	}
	return c, nil
}

// Complete sends one chat completion request.
func (c *DeepSeekCompleter) Complete(ctx context.Context, system, user string) (string, error) {
	resp, err := c.callAPI(ctx, deepSeekRequest{
		Model:       c.model,
		MaxTokens:   c.maxTokens,
		Temperature: c.temperature,
		Messages: []deepSeekMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
	})
	if err != nil {
		return "", fmt.Errorf("deepseek: %w", classifyDeepSeekError(err))
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("deepseek: no choices in response: %w", apierr.ErrMalformedResponse)
	}
	return resp.Choices[0].Message.Content, nil
}

type deepSeekRequest struct {
	Model       string            `json:"model"`
	Messages    []deepSeekMessage `json:"messages"`
	MaxTokens   int               `json:"max_tokens,omitempty"`
	Temperature *float64          `json:"temperature,omitempty"`
}

type deepSeekMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type deepSeekResponse struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Choices []struct {
		Index   int `json:"index"`
		Message struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
}

type deepSeekErrorResponse struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    string `json:"code"`
	} `json:"error"`
}

// callAPI makes an HTTP request to the DeepSeek API.
func (c *DeepSeekCompleter) callAPI(ctx context.Context, reqBody deepSeekRequest) (_ *deepSeekResponse, err error) {
	body, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("failed to close response body: %w", closeErr)
		}
	}()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, parseDeepSeekError(resp.StatusCode, respBody)
	}

	var result deepSeekResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, fmt.Errorf("failed to parse response: %v: %w", err, apierr.ErrMalformedResponse)
	}
	return &result, nil
}

// deepSeekAPIError represents a typed DeepSeek API error.
type deepSeekAPIError struct {
	StatusCode int
	Message    string
	Type       string
	Code       string
}

func (e *deepSeekAPIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("DeepSeek API error %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("DeepSeek API error %d", e.StatusCode)
}

// parseDeepSeekError parses an error response from the DeepSeek API.
func parseDeepSeekError(statusCode int, body []byte) *deepSeekAPIError {
	var errResp deepSeekErrorResponse
	if err := json.Unmarshal(body, &errResp); err != nil {
		return &deepSeekAPIError{StatusCode: statusCode, Message: strings.TrimSpace(string(body))}
	}
	return &deepSeekAPIError{
		StatusCode: statusCode,
		Message:    errResp.Error.Message,
		Type:       errResp.Error.Type,
		Code:       errResp.Error.Code,
	}
}

// classifyDeepSeekError maps DeepSeek API errors to apierr sentinels.
func classifyDeepSeekError(err error) error {
	var apiErr *deepSeekAPIError
	if errors.As(err, &apiErr) {
		if classified := classifyStatus(apiErr.StatusCode, apiErr.Message); classified != nil {
			return classified
		}
		return err
	}
	return classifyTransport(err)
}
