// Package store persists finished blog posts as markdown and HTML files.
//
// Each post lives in its own directory:
//
//	<dir>/<slug>-<shortid>/post.md    YAML front matter + markdown body
//	<dir>/<slug>-<shortid>/post.html  rendered page
package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/alnah/go-vidblog/internal/blog"
)

// File names inside a post directory.
const (
	MarkdownFile = "post.md"
	HTMLFile     = "post.html"
)

const (
	shortIDLen = 8
	maxSlugLen = 60
)

var nonSlugRe = regexp.MustCompile(`[^a-z0-9]+`)

// Record is a stored post with its metadata.
type Record struct {
	FrontMatter
	Dir  string        `json:"-"`
	Post blog.BlogPost `json:"post"`
}

// FileStore writes posts under a root directory.
type FileStore struct {
	dir   string
	now   func() time.Time
	newID func() string
}

// Option configures a FileStore.
type Option func(*FileStore)

// WithClock sets the time source for created_at.
func WithClock(now func() time.Time) Option {
	return func(s *FileStore) {
		if now != nil {
			s.now = now
		}
	}
}

// WithIDGenerator sets the ID source. IDs must be UUID strings.
func WithIDGenerator(gen func() string) Option {
	return func(s *FileStore) {
		if gen != nil {
			s.newID = gen
		}
	}
}

// New creates a store rooted at dir. The directory is created on first Save.
func New(dir string, opts ...Option) *FileStore {
	s := &FileStore{
		dir:   dir,
		now:   func() time.Time { return time.Now().UTC() },
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Dir returns the root directory.
func (s *FileStore) Dir() string { return s.dir }

// SaveOption adds optional metadata to a saved post.
type SaveOption func(*FrontMatter)

// WithVideoTitle records the source video's title in the front matter.
func WithVideoTitle(title string) SaveOption {
	return func(fm *FrontMatter) { fm.VideoTitle = strings.TrimSpace(title) }
}

// Save writes post.md and post.html and returns the new ID and the markdown path.
// An existing post directory returns ErrExists and nothing is overwritten.
func (s *FileStore) Save(post blog.BlogPost, opts ...SaveOption) (string, string, error) {
	id := s.newID()
	if _, err := uuid.Parse(id); err != nil {
		return "", "", fmt.Errorf("%q: %w", id, ErrInvalidID)
	}

	fm := FrontMatter{
		ID:          id,
		Title:       post.Title,
		Excerpt:     post.Excerpt,
		Tags:        nonNil(post.Tags),
		WordCount:   post.WordCount,
		ReadingTime: post.ReadingTimeMinutes,
		Sources:     nonNil(post.Sources),
		CreatedAt:   s.now(),
	}
	for _, opt := range opts {
		opt(&fm)
	}

	doc, err := encodeDocument(fm, post.Content)
	if err != nil {
		return "", "", err
	}
	page, err := RenderHTML(post.Title, post.Excerpt, post.Content)
	if err != nil {
		return "", "", err
	}

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", "", fmt.Errorf("create output directory: %w", err)
	}
	postDir := filepath.Join(s.dir, Slug(post.Title)+"-"+id[:shortIDLen])
	if err := os.Mkdir(postDir, 0o755); err != nil {
		if errors.Is(err, os.ErrExist) {
			return "", "", fmt.Errorf("%s: %w", postDir, ErrExists)
		}
		return "", "", fmt.Errorf("create post directory: %w", err)
	}

	mdPath := filepath.Join(postDir, MarkdownFile)
	if err := writeFileAtomic(mdPath, doc); err != nil {
		_ = os.RemoveAll(postDir)
		return "", "", err
	}
	if err := writeFileAtomic(filepath.Join(postDir, HTMLFile), []byte(page)); err != nil {
		_ = os.RemoveAll(postDir)
		return "", "", err
	}
	return id, mdPath, nil
}

// Load reads the post with the given ID.
func (s *FileStore) Load(id string) (Record, error) {
	if _, err := uuid.Parse(id); err != nil {
		return Record{}, fmt.Errorf("%q: %w", id, ErrInvalidID)
	}

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Record{}, fmt.Errorf("%s: %w", id, ErrNotFound)
		}
		return Record{}, fmt.Errorf("read output directory: %w", err)
	}

	suffix := "-" + id[:shortIDLen]
	for _, e := range entries {
		if !e.IsDir() || !strings.HasSuffix(e.Name(), suffix) {
			continue
		}
		rec, err := s.read(filepath.Join(s.dir, e.Name()))
		if err != nil {
			continue
		}
		if rec.ID == id {
			return rec, nil
		}
	}
	return Record{}, fmt.Errorf("%s: %w", id, ErrNotFound)
}

// List returns every readable post, newest first. Unreadable directories are skipped.
func (s *FileStore) List() ([]Record, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []Record{}, nil
		}
		return nil, fmt.Errorf("read output directory: %w", err)
	}

	records := make([]Record, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		rec, err := s.read(filepath.Join(s.dir, e.Name()))
		if err != nil {
			continue
		}
		records = append(records, rec)
	}
	slices.SortStableFunc(records, func(a, b Record) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	return records, nil
}

func (s *FileStore) read(postDir string) (Record, error) {
	// #nosec G304 -- path is built from entries of the configured output directory
	data, err := os.ReadFile(filepath.Join(postDir, MarkdownFile))
	if err != nil {
		return Record{}, err
	}
	fm, body, err := decodeDocument(data)
	if err != nil {
		return Record{}, err
	}
	return Record{
		FrontMatter: fm,
		Dir:         postDir,
		Post: blog.BlogPost{
			Title:              fm.Title,
			Excerpt:            fm.Excerpt,
			Content:            body,
			Tags:               fm.Tags,
			Headings:           blog.ExtractHeadings(body),
			WordCount:          fm.WordCount,
			ReadingTimeMinutes: fm.ReadingTime,
			Sources:            fm.Sources,
		},
	}, nil
}

// Slug lowercases title and joins its alphanumeric runs with dashes.
// Titles without any ASCII letters or digits become "post".
func Slug(title string) string {
	s := nonSlugRe.ReplaceAllString(strings.ToLower(title), "-")
	s = strings.Trim(s, "-")
	if len(s) > maxSlugLen {
		s = strings.TrimRight(s[:maxSlugLen], "-")
	}
	if s == "" {
		return "post"
	}
	return s
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// writeFileAtomic creates path exclusively and removes it again on a failed write.
func writeFileAtomic(path string, content []byte) error {
	// #nosec G302 G304 -- output files with standard permissions
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return fmt.Errorf("%s: %w", path, ErrExists)
		}
		return fmt.Errorf("create %s: %w", filepath.Base(path), err)
	}

	_, writeErr := f.Write(content)
	closeErr := f.Close()
	if writeErr == nil {
		writeErr = closeErr
	}
	if writeErr != nil {
		_ = os.Remove(path)
		return fmt.Errorf("write %s: %w", filepath.Base(path), writeErr)
	}
	return nil
}
