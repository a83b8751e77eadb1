package store

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const fence = "---"

// FrontMatter is the YAML header written at the top of post.md.
type FrontMatter struct {
	ID          string    `yaml:"id" json:"id"`
	Title       string    `yaml:"title" json:"title"`
	Excerpt     string    `yaml:"excerpt" json:"excerpt"`
	Tags        []string  `yaml:"tags" json:"tags"`
	WordCount   int       `yaml:"word_count" json:"word_count"`
	ReadingTime int       `yaml:"reading_time" json:"reading_time"`
	Sources     []string  `yaml:"sources" json:"sources"`
	VideoTitle  string    `yaml:"video_title,omitempty" json:"video_title,omitempty"`
	CreatedAt   time.Time `yaml:"created_at" json:"created_at"`
}

// encodeDocument renders front matter followed by the markdown body.
func encodeDocument(fm FrontMatter, body string) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(fence + "\n")
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(fm); err != nil {
		return nil, fmt.Errorf("encode front matter: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("encode front matter: %w", err)
	}
	buf.WriteString(fence + "\n\n")
	buf.WriteString(strings.TrimRight(body, "\n"))
	buf.WriteString("\n")
	return buf.Bytes(), nil
}

// decodeDocument splits a post.md into its front matter and body.
func decodeDocument(data []byte) (FrontMatter, string, error) {
	text := strings.ReplaceAll(string(data), "\r\n", "\n")
	rest, ok := strings.CutPrefix(text, fence+"\n")
	if !ok {
		return FrontMatter{}, "", fmt.Errorf("missing opening fence: %w", ErrMalformed)
	}
	header, body, ok := strings.Cut(rest, "\n"+fence+"\n")
	if !ok {
		return FrontMatter{}, "", fmt.Errorf("missing closing fence: %w", ErrMalformed)
	}

	var fm FrontMatter
	if err := yaml.Unmarshal([]byte(header), &fm); err != nil {
		return FrontMatter{}, "", fmt.Errorf("%v: %w", err, ErrMalformed)
	}
	if fm.Tags == nil {
		fm.Tags = []string{}
	}
	if fm.Sources == nil {
		fm.Sources = []string{}
	}
	return fm, strings.TrimSpace(body), nil
}
