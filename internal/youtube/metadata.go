package youtube

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/alnah/go-vidblog/internal/apierr"
)

const (
	defaultTimeout = 30 * time.Second
	maxPageSize    = 4 << 20
	defaultUA      = "go-vidblog/1.0"
	titleSuffix    = " - YouTube"
)

// httpDoer is the subset of *http.Client used by this package.
type httpDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

var _ httpDoer = (*http.Client)(nil)

// Metadata is what a watch page reveals about a video.
type Metadata struct {
	ID          string `json:"id"`
	URL         string `json:"url"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Channel     string `json:"channel,omitempty"`
}

// MetadataFetcher scrapes video metadata from watch pages.
type MetadataFetcher struct {
	client  httpDoer
	baseURL string
}

// MetadataOption configures a MetadataFetcher.
type MetadataOption func(*MetadataFetcher)

// WithMetadataHTTPClient sets the HTTP client used for page fetches.
func WithMetadataHTTPClient(c httpDoer) MetadataOption {
	return func(f *MetadataFetcher) {
		if c != nil {
			f.client = c
		}
	}
}

// WithMetadataBaseURL overrides the watch page host, mainly for tests.
func WithMetadataBaseURL(u string) MetadataOption {
	return func(f *MetadataFetcher) {
		if u != "" {
			f.baseURL = strings.TrimRight(u, "/")
		}
	}
}

// NewMetadataFetcher creates a fetcher against www.youtube.com.
func NewMetadataFetcher(opts ...MetadataOption) *MetadataFetcher {
	f := &MetadataFetcher{
		client:  &http.Client{Timeout: defaultTimeout},
		baseURL: "https://www.youtube.com",
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// FetchMetadata loads the watch page of videoURL and extracts its Open Graph tags.
func (f *MetadataFetcher) FetchMetadata(ctx context.Context, videoURL string) (_ Metadata, err error) {
	id, err := ExtractVideoID(videoURL)
	if err != nil {
		return Metadata{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.baseURL+"/watch?v="+id, nil)
	if err != nil {
		return Metadata{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", defaultUA)
	req.Header.Set("Accept-Language", "en")

	resp, err := f.client.Do(req)
	if err != nil {
		return Metadata{}, fmt.Errorf("fetch %s: %w", id, err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("close response body: %w", closeErr)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return Metadata{}, fmt.Errorf("fetch %s: %w", id, apierr.ClassifyHTTPStatus(resp.StatusCode, ""))
	}

	meta, err := ParseMetadata(io.LimitReader(resp.Body, maxPageSize))
	if err != nil {
		return Metadata{}, fmt.Errorf("parse %s: %w", id, err)
	}
	meta.ID = id
	meta.URL = WatchURL(id)
	return meta, nil
}

// ParseMetadata reads og:title, og:description and the channel name from HTML.
// It falls back to <title> when no og:title is present.
func ParseMetadata(r io.Reader) (Metadata, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return Metadata{}, err
	}

	var m Metadata
	m.Title = metaContent(doc, "meta[property='og:title']")
	if m.Title == "" {
		m.Title = strings.TrimSuffix(strings.TrimSpace(doc.Find("head title").First().Text()), titleSuffix)
	}
	m.Description = metaContent(doc, "meta[property='og:description']")
	if m.Description == "" {
		m.Description = metaContent(doc, "meta[name='description']")
	}
	m.Channel = strings.TrimSpace(doc.Find("link[itemprop='name']").First().AttrOr("content", ""))
	return m, nil
}

func metaContent(doc *goquery.Document, selector string) string {
	v, _ := doc.Find(selector).First().Attr("content")
	return strings.TrimSpace(v)
}

// FetchMetadata scrapes videoURL with a default fetcher.
func FetchMetadata(ctx context.Context, videoURL string) (Metadata, error) {
	return NewMetadataFetcher().FetchMetadata(ctx, videoURL)
}
