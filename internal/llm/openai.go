package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	openai "github.com/sashabaranov/go-openai"

	"github.com/alnah/go-vidblog/internal/apierr"
)

// DefaultOpenAIModel is used when no model is configured.
const DefaultOpenAIModel = "gpt-4o-mini"

// chatCompleter is an internal interface for OpenAI chat completion.
// *openai.Client implements this implicitly.
// This allows injecting mocks in tests.
type chatCompleter interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// Compile-time interface compliance check.
var _ Backend = (*OpenAI)(nil)

// OpenAI generates text with OpenAI's chat completion API.
type OpenAI struct {
	client chatCompleter
	model  string
}

// OpenAIOption configures an OpenAI backend.
type OpenAIOption func(*OpenAI)

// WithOpenAIModel sets the chat model.
func WithOpenAIModel(model string) OpenAIOption {
	return func(o *OpenAI) {
		if model != "" {
			o.model = model
		}
	}
}

// withChatCompleter sets a custom client (for testing).
func withChatCompleter(c chatCompleter) OpenAIOption {
	return func(o *OpenAI) {
		o.client = c
	}
}

// NewOpenAI creates an OpenAI backend.
// Returns ErrEmptyAPIKey if apiKey is empty.
func NewOpenAI(apiKey string, opts ...OpenAIOption) (*OpenAI, error) {
	if apiKey == "" {
		return nil, ErrEmptyAPIKey
	}
	o := &OpenAI{model: DefaultOpenAIModel}
	for _, opt := range opts {
		opt(o)
	}
	if o.client == nil {
		o.client = openai.NewClient(apiKey)
	}
	return o, nil
}

// GenerateStructured requests a JSON object constrained by the request schema.
func (o *OpenAI) GenerateStructured(ctx context.Context, req StructuredRequest) (json.RawMessage, error) {
	format := &openai.ChatCompletionResponseFormat{Type: openai.ChatCompletionResponseFormatTypeJSONObject}
	if req.Schema != nil {
		schema, err := json.Marshal(req.Schema)
		if err != nil {
			return nil, fmt.Errorf("marshal schema: %w", err)
		}
		format = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONSchema,
			JSONSchema: &openai.ChatCompletionResponseFormatJSONSchema{
				Name:   "response",
				Schema: json.RawMessage(schema),
			},
		}
	}

	text, err := o.complete(ctx, openai.ChatCompletionRequest{
		Model:               o.model,
		MaxCompletionTokens: structuredMaxTokens(req.MaxTokens),
		Temperature:         float32(req.Temperature),
		ResponseFormat:      format,
		Messages:            messages(structuredSystem(req), req.Prompt),
	})
	if err != nil {
		return nil, err
	}
	return finishStructured("openai", text)
}

// GenerateText requests a markdown completion.
func (o *OpenAI) GenerateText(ctx context.Context, req TextRequest) (string, error) {
	text, err := o.complete(ctx, openai.ChatCompletionRequest{
		Model:               o.model,
		MaxCompletionTokens: textMaxTokens(req.MaxTokens),
		Temperature:         float32(req.Temperature),
		Messages:            messages(req.System, req.Prompt),
	})
	if err != nil {
		return "", err
	}
	return finishText("openai", text)
}

func (o *OpenAI) complete(ctx context.Context, req openai.ChatCompletionRequest) (string, error) {
	resp, err := o.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", classifyOpenAIError(err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openai: no choices: %w", apierr.ErrEmptyResponse)
	}
	return resp.Choices[0].Message.Content, nil
}

func messages(system, user string) []openai.ChatCompletionMessage {
	var msgs []openai.ChatCompletionMessage
	if system != "" {
		msgs = append(msgs, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: system})
	}
	return append(msgs, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: user})
}

// classifyOpenAIError maps OpenAI API errors to sentinel errors.
// Uses errors.As for robust error type checking instead of string matching.
func classifyOpenAIError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) {
		return err
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) && apiErr.HTTPStatusCode != 0 {
		return fmt.Errorf("openai: %w", apierr.ClassifyHTTPStatus(apiErr.HTTPStatusCode, apiErr.Message))
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) && reqErr.HTTPStatusCode != 0 {
		return fmt.Errorf("openai: %w", apierr.ClassifyHTTPStatus(reqErr.HTTPStatusCode, reqErr.Error()))
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("openai: request timed out: %w", apierr.ErrTimeout)
	}
	return fmt.Errorf("openai: %w", err)
}
