package cli

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"
)

// sampleTranscript is long enough to pass request validation.
const sampleTranscript = "Welcome back to the channel. Today we are looking at how small services stay fast. " +
	"First we measure. Then we remove the slowest call. Finally we cache what is left."

// ---------------------------------------------------------------------------
// syncBuffer - thread-safe bytes.Buffer for concurrent test output
// ---------------------------------------------------------------------------

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (n int, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// Compile-time check that syncBuffer implements io.Writer.
var _ io.Writer = (*syncBuffer)(nil)

// ---------------------------------------------------------------------------
// testMocks - convenience struct for grouping all mocks
// ---------------------------------------------------------------------------

type testMocks struct {
	config      *mockConfigStore
	backend     *mockBackendFactory
	transcriber *mockTranscriberFactory
	audio       *mockAudioExtractor
	youtube     *mockYouTube
	runner      *mockServerRunner
	stdout      *syncBuffer
	stderr      *syncBuffer
}

func newTestMocks() *testMocks {
	return &testMocks{
		config:      &mockConfigStore{},
		backend:     &mockBackendFactory{},
		transcriber: &mockTranscriberFactory{},
		audio:       &mockAudioExtractor{},
		youtube:     &mockYouTube{},
		runner:      &mockServerRunner{},
		stdout:      &syncBuffer{},
		stderr:      &syncBuffer{},
	}
}

// testEnv creates a test Env with all dependencies mocked.
// Returns the Env and the mocks for assertions.
func testEnv(t *testing.T, opts ...EnvOption) (*Env, *testMocks) {
	t.Helper()
	m := newTestMocks()
	tmp := t.TempDir()

	env := &Env{
		Stdin:  strings.NewReader(""),
		Stdout: m.stdout,
		Stderr: m.stderr,
		Getenv: defaultTestEnv,
		Now: func() time.Time {
			return time.Date(2026, 1, 26, 14, 30, 52, 0, time.UTC)
		},
		TempDir:            func() string { return tmp },
		Config:             m.config,
		BackendFactory:     m.backend,
		TranscriberFactory: m.transcriber,
		AudioExtractor:     m.audio,
		YouTube:            m.youtube,
		ServerRunner:       m.runner,
	}
	for _, opt := range opts {
		opt(env)
	}
	return env, m
}

// ---------------------------------------------------------------------------
// Test helpers
// ---------------------------------------------------------------------------

// staticEnv returns a getenv function that returns values from the given map.
func staticEnv(env map[string]string) func(string) string {
	return func(key string) string {
		return env[key]
	}
}

// defaultTestEnv returns API keys for every provider.
func defaultTestEnv(key string) string {
	if strings.HasSuffix(key, "_API_KEY") && !strings.HasPrefix(key, "VIDBLOG_") {
		return "test-" + strings.ToLower(strings.TrimSuffix(key, "_API_KEY")) + "-key"
	}
	return ""
}

// writeTestFile creates a file under a temp dir and returns its path.
func writeTestFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to create test file: %v", err)
	}
	return path
}
