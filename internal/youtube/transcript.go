package youtube

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/alnah/go-vidblog/internal/apierr"
)

// DefaultTranscriptAPIURL is the transcript service queried when none is configured.
const DefaultTranscriptAPIURL = "https://api.supadata.ai/v1/youtube/transcript"

const maxTranscriptSize = 16 << 20

// TranscriptClient fetches video transcripts from a transcript API.
// The API receives url, api_key and text=true query parameters and answers with plain text.
type TranscriptClient struct {
	client   httpDoer
	apiURL   string
	apiKey   string
	cacheDir string
	retry    apierr.RetryConfig
}

// TranscriptOption configures a TranscriptClient.
type TranscriptOption func(*TranscriptClient)

// WithTranscriptAPIURL sets the transcript service endpoint.
func WithTranscriptAPIURL(u string) TranscriptOption {
	return func(c *TranscriptClient) {
		if u != "" {
			c.apiURL = u
		}
	}
}

// WithTranscriptHTTPClient sets the HTTP client.
func WithTranscriptHTTPClient(d httpDoer) TranscriptOption {
	return func(c *TranscriptClient) {
		if d != nil {
			c.client = d
		}
	}
}

// WithCacheDir stores fetched transcripts under dir, keyed by video ID.
func WithCacheDir(dir string) TranscriptOption {
	return func(c *TranscriptClient) { c.cacheDir = dir }
}

// WithTranscriptRetry overrides the retry policy for rate limits and timeouts.
func WithTranscriptRetry(cfg apierr.RetryConfig) TranscriptOption {
	return func(c *TranscriptClient) { c.retry = cfg }
}

// NewTranscriptClient creates a client. An empty apiKey returns ErrAPIKeyMissing.
func NewTranscriptClient(apiKey string, opts ...TranscriptOption) (*TranscriptClient, error) {
	if apiKey == "" {
		return nil, ErrAPIKeyMissing
	}
	c := &TranscriptClient{
		client: &http.Client{Timeout: defaultTimeout},
		apiURL: DefaultTranscriptAPIURL,
		apiKey: apiKey,
		retry: apierr.RetryConfig{
			MaxRetries: 4,
			BaseDelay:  time.Second,
			MaxDelay:   16 * time.Second,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Fetch returns the transcript of videoURL, reading the cache first when configured.
func (c *TranscriptClient) Fetch(ctx context.Context, videoURL string) (string, error) {
	id, err := ExtractVideoID(videoURL)
	if err != nil {
		return "", err
	}

	if text, ok := c.cached(id); ok {
		return text, nil
	}

	text, err := apierr.RetryWithBackoff(ctx, c.retry, func() (string, error) {
		return c.fetchOnce(ctx, id)
	}, apierr.IsRetryable)
	if err != nil {
		return "", fmt.Errorf("transcript %s: %w", id, err)
	}

	c.store(id, text)
	return text, nil
}

func (c *TranscriptClient) fetchOnce(ctx context.Context, id string) (_ string, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.apiURL, nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	q := url.Values{}
	q.Set("url", WatchURL(id))
	q.Set("api_key", c.apiKey)
	q.Set("text", "true")
	req.URL.RawQuery = q.Encode()

	resp, err := c.client.Do(req)
	if err != nil {
		return "", classifyTransportError(err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("close response body: %w", closeErr)
		}
	}()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxTranscriptSize))
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", apierr.ClassifyHTTPStatus(resp.StatusCode, strings.TrimSpace(string(body)))
	}

	text := strings.TrimSpace(string(body))
	if text == "" {
		return "", ErrEmptyTranscript
	}
	return text, nil
}

func classifyTransportError(err error) error {
	if errors.Is(err, context.Canceled) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("request timed out: %w", apierr.ErrTimeout)
	}
	var netErr interface{ Timeout() bool }
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("%v: %w", err, apierr.ErrTimeout)
	}
	return err
}

func (c *TranscriptClient) cachePath(id string) string {
	return filepath.Join(c.cacheDir, id+".txt")
}

func (c *TranscriptClient) cached(id string) (string, bool) {
	if c.cacheDir == "" {
		return "", false
	}
	data, err := os.ReadFile(c.cachePath(id))
	if err != nil || len(strings.TrimSpace(string(data))) == 0 {
		return "", false
	}
	return string(data), true
}

// store is best effort; a failed cache write does not fail the fetch.
func (c *TranscriptClient) store(id, text string) {
	if c.cacheDir == "" {
		return
	}
	if err := os.MkdirAll(c.cacheDir, 0o755); err != nil {
		return
	}
	_ = os.WriteFile(c.cachePath(id), []byte(text), 0o644)
}
