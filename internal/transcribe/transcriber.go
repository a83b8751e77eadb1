package transcribe

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/alnah/go-vidblog/internal/apierr"
	"github.com/alnah/go-vidblog/internal/lang"
)

// Default retry configuration.
const (
	defaultMaxRetries = 5
	defaultBaseDelay  = 1 * time.Second
	defaultMaxDelay   = 30 * time.Second
)

// Transcriber converts an audio file to plain text.
type Transcriber interface {
	Transcribe(ctx context.Context, audioPath string) (string, error)
}

// audioTranscriber is an internal interface for OpenAI audio transcription.
// *openai.Client implements this implicitly.
type audioTranscriber interface {
	CreateTranscription(ctx context.Context, req openai.AudioRequest) (openai.AudioResponse, error)
}

// Compile-time interface compliance checks.
var (
	_ Transcriber      = (*OpenAITranscriber)(nil)
	_ Transcriber      = (*CommandTranscriber)(nil)
	_ audioTranscriber = (*openai.Client)(nil)
)

// OpenAITranscriber transcribes audio with OpenAI's whisper-1 model.
// Transient errors are retried with exponential backoff.
type OpenAITranscriber struct {
	client   audioTranscriber
	language lang.Language
	prompt   string
	retry    apierr.RetryConfig
}

// TranscriberOption configures an OpenAITranscriber.
type TranscriberOption func(*OpenAITranscriber)

// WithMaxRetries sets the maximum number of retry attempts.
func WithMaxRetries(n int) TranscriberOption {
	return func(t *OpenAITranscriber) {
		if n >= 0 {
			t.retry.MaxRetries = n
		}
	}
}

// WithRetryDelays sets the base and max delays for exponential backoff.
func WithRetryDelays(base, max time.Duration) TranscriberOption {
	return func(t *OpenAITranscriber) {
		if base > 0 {
			t.retry.BaseDelay = base
		}
		if max > 0 {
			t.retry.MaxDelay = max
		}
	}
}

// WithLanguage sets the spoken language. The zero value auto-detects.
func WithLanguage(l lang.Language) TranscriberOption {
	return func(t *OpenAITranscriber) { t.language = l }
}

// WithPrompt provides vocabulary hints to the model.
func WithPrompt(p string) TranscriberOption {
	return func(t *OpenAITranscriber) { t.prompt = p }
}

func withAudioTranscriber(c audioTranscriber) TranscriberOption {
	return func(t *OpenAITranscriber) { t.client = c }
}

// NewOpenAITranscriber creates an OpenAITranscriber for apiKey.
func NewOpenAITranscriber(apiKey string, opts ...TranscriberOption) (*OpenAITranscriber, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, ErrAPIKeyMissing
	}
	t := &OpenAITranscriber{
		client: openai.NewClient(apiKey),
		retry: apierr.RetryConfig{
			MaxRetries: defaultMaxRetries,
			BaseDelay:  defaultBaseDelay,
			MaxDelay:   defaultMaxDelay,
		},
	}
	for _, opt := range opts {
		opt(t)
	}
	return t, nil
}

// Transcribe sends the audio file to the transcription endpoint.
func (t *OpenAITranscriber) Transcribe(ctx context.Context, audioPath string) (string, error) {
	req := openai.AudioRequest{
		Model:    openai.Whisper1,
		FilePath: audioPath,
		Format:   openai.AudioResponseFormatJSON,
		Prompt:   t.prompt,
		Language: baseCode(t.language),
	}

	text, err := apierr.RetryWithBackoff(ctx, t.retry, func() (string, error) {
		resp, err := t.client.CreateTranscription(ctx, req)
		if err != nil {
			return "", classifyError(err)
		}
		return resp.Text, nil
	}, apierr.IsRetryable)
	if err != nil {
		return "", fmt.Errorf("transcribe %s: %w", audioPath, err)
	}
	if text = strings.TrimSpace(text); text == "" {
		return "", ErrEmptyTranscript
	}
	return text, nil
}

// baseCode returns the ISO 639-1 part of a code; the API rejects regional variants.
func baseCode(l lang.Language) string {
	code, _, _ := strings.Cut(l.Code(), "-")
	return code
}

// classifyError maps OpenAI API errors to apierr sentinels.
func classifyError(err error) error {
	if errors.Is(err, context.Canceled) {
		return err
	}
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) && apiErr.HTTPStatusCode != 0 {
		return fmt.Errorf("whisper: %w", apierr.ClassifyHTTPStatus(apiErr.HTTPStatusCode, apiErr.Message))
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) && reqErr.HTTPStatusCode != 0 {
		return fmt.Errorf("whisper: %w", apierr.ClassifyHTTPStatus(reqErr.HTTPStatusCode, reqErr.Error()))
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("whisper: request timed out: %w", apierr.ErrTimeout)
	}
	return fmt.Errorf("whisper: %w", err)
}
