package llm

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

	"github.com/alnah/go-vidblog/internal/apierr"
)

// DeepSeek API configuration.
const (
	defaultDeepSeekBaseURL     = "https://api.deepseek.com"
	DefaultDeepSeekModel       = "deepseek-chat"
	defaultDeepSeekHTTPTimeout = 5 * time.Minute

	// Response size limit to prevent OOM from malformed responses (10MB)
	maxResponseSize = 10 * 1024 * 1024
)

// httpDoer abstracts HTTP client for testing.
type httpDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Compile-time interface compliance check.
var _ Backend = (*DeepSeek)(nil)

// DeepSeek generates text with DeepSeek's OpenAI-compatible chat API over plain HTTP.
type DeepSeek struct {
	apiKey     string
	baseURL    string
	model      string
	httpClient httpDoer
}

// DeepSeekOption configures a DeepSeek backend.
type DeepSeekOption func(*DeepSeek)

// WithDeepSeekModel sets the model ("deepseek-chat" or "deepseek-reasoner").
func WithDeepSeekModel(model string) DeepSeekOption {
	return func(d *DeepSeek) {
		if model != "" {
			d.model = model
		}
	}
}

// WithDeepSeekBaseURL sets a custom base URL (for testing or proxies).
func WithDeepSeekBaseURL(url string) DeepSeekOption {
	return func(d *DeepSeek) {
		d.baseURL = strings.TrimSuffix(url, "/")
	}
}

// WithDeepSeekHTTPClient sets a custom HTTP client.
func WithDeepSeekHTTPClient(c httpDoer) DeepSeekOption {
	return func(d *DeepSeek) {
		d.httpClient = c
	}
}

// NewDeepSeek creates a DeepSeek backend.
// Returns ErrEmptyAPIKey if apiKey is empty.
func NewDeepSeek(apiKey string, opts ...DeepSeekOption) (*DeepSeek, error) {
	if apiKey == "" {
		return nil, ErrEmptyAPIKey
	}
	d := &DeepSeek{
		apiKey:  apiKey,
		baseURL: defaultDeepSeekBaseURL,
		model:   DefaultDeepSeekModel,
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.httpClient == nil {
		d.httpClient = &http.Client{Timeout: defaultDeepSeekHTTPTimeout}
	}
	return d, nil
}

// GenerateStructured uses DeepSeek's JSON output mode with the schema described in the system prompt.
func (d *DeepSeek) GenerateStructured(ctx context.Context, req StructuredRequest) (json.RawMessage, error) {
	text, err := d.complete(ctx, deepSeekRequest{
		Model:          d.model,
		MaxTokens:      structuredMaxTokens(req.MaxTokens),
		Temperature:    req.Temperature,
		ResponseFormat: &deepSeekResponseFormat{Type: "json_object"},
		Messages:       deepSeekMessages(structuredSystem(req), req.Prompt),
	})
	if err != nil {
		return nil, err
	}
	return finishStructured("deepseek", text)
}

// GenerateText requests a markdown completion.
func (d *DeepSeek) GenerateText(ctx context.Context, req TextRequest) (string, error) {
	text, err := d.complete(ctx, deepSeekRequest{
		Model:       d.model,
		MaxTokens:   textMaxTokens(req.MaxTokens),
		Temperature: req.Temperature,
		Messages:    deepSeekMessages(req.System, req.Prompt),
	})
	if err != nil {
		return "", err
	}
	return finishText("deepseek", text)
}

func (d *DeepSeek) complete(ctx context.Context, req deepSeekRequest) (string, error) {
	resp, err := d.callAPI(ctx, req)
	if err != nil {
		return "", classifyDeepSeekError(err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("deepseek: no choices: %w", apierr.ErrEmptyResponse)
	}
	return resp.Choices[0].Message.Content, nil
}

func deepSeekMessages(system, user string) []deepSeekMessage {
	var msgs []deepSeekMessage
	if system != "" {
		msgs = append(msgs, deepSeekMessage{Role: "system", Content: system})
	}
	return append(msgs, deepSeekMessage{Role: "user", Content: user})
}

// deepSeekRequest represents a DeepSeek chat completion request.
type deepSeekRequest struct {
	Model          string                  `json:"model"`
	Messages       []deepSeekMessage       `json:"messages"`
	MaxTokens      int                     `json:"max_tokens,omitempty"`
	Temperature    float64                 `json:"temperature"`
	ResponseFormat *deepSeekResponseFormat `json:"response_format,omitempty"`
}

type deepSeekResponseFormat struct {
	Type string `json:"type"`
}

// deepSeekMessage represents a message in the conversation.
type deepSeekMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// deepSeekResponse represents the subset of a chat completion response we read.
type deepSeekResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
}

// deepSeekErrorResponse represents an error response from the DeepSeek API.
type deepSeekErrorResponse struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// callAPI makes an HTTP request to the DeepSeek API.
func (d *DeepSeek) callAPI(ctx context.Context, reqBody deepSeekRequest) (_ *deepSeekResponse, err error) {
	body, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+d.apiKey)

	resp, err := d.httpClient.Do(req)
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
}

func (e *deepSeekAPIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("DeepSeek API error %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("DeepSeek API error %d", e.StatusCode)
}

func parseDeepSeekError(statusCode int, body []byte) *deepSeekAPIError {
	var errResp deepSeekErrorResponse
	if err := json.Unmarshal(body, &errResp); err != nil || errResp.Error.Message == "" {
		return &deepSeekAPIError{StatusCode: statusCode, Message: strings.TrimSpace(string(body))}
	}
	return &deepSeekAPIError{StatusCode: statusCode, Message: errResp.Error.Message}
}

// classifyDeepSeekError maps DeepSeek API errors to sentinel errors.
func classifyDeepSeekError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) {
		return err
	}

	var apiErr *deepSeekAPIError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("deepseek: %w", apierr.ClassifyHTTPStatus(apiErr.StatusCode, apiErr.Message))
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("deepseek: request timed out: %w", apierr.ErrTimeout)
	}
	var netErr interface{ Timeout() bool }
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("deepseek: %v: %w", err, apierr.ErrTimeout)
	}
	return fmt.Errorf("deepseek: %w", err)
}
