package cli

import (
	"context"
	"os"
	"path/filepath"
	"sync"

	"github.com/alnah/go-vidblog/internal/config"
	"github.com/alnah/go-vidblog/internal/lang"
	"github.com/alnah/go-vidblog/internal/llm"
	"github.com/alnah/go-vidblog/internal/server"
	"github.com/alnah/go-vidblog/internal/transcribe"
	"github.com/alnah/go-vidblog/internal/youtube"
)

// ---------------------------------------------------------------------------
// Mock ConfigStore
// ---------------------------------------------------------------------------

type mockConfigStore struct {
	LoadFunc func() (config.Config, error)
	SetFunc  func(key, value string) (string, error)
	GetFunc  func(key string) (string, error)
	ListFunc func() (map[string]string, error)
	PathVal  string

	mu        sync.Mutex
	loadCalls int
	setCalls  [][2]string
}

func (m *mockConfigStore) Load() (config.Config, error) {
	m.mu.Lock()
	m.loadCalls++
	m.mu.Unlock()

	if m.LoadFunc != nil {
		return m.LoadFunc()
	}
	return config.Config{
		Provider:         llm.ProviderOpenAI,
		LogLevel:         "error",
		RatePerMinute:    config.DefaultRatePerMinute,
		ParallelSections: 1,
		PythonPath:       config.DefaultPython,
	}, nil
}

func (m *mockConfigStore) Set(key, value string) (string, error) {
	m.mu.Lock()
	m.setCalls = append(m.setCalls, [2]string{key, value})
	m.mu.Unlock()

	if m.SetFunc != nil {
		return m.SetFunc(key, value)
	}
	return value, nil
}

func (m *mockConfigStore) Get(key string) (string, error) {
	if m.GetFunc != nil {
		return m.GetFunc(key)
	}
	return "", nil
}

func (m *mockConfigStore) List() (map[string]string, error) {
	if m.ListFunc != nil {
		return m.ListFunc()
	}
	return map[string]string{}, nil
}

func (m *mockConfigStore) Path() string { return m.PathVal }

func (m *mockConfigStore) LoadCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.loadCalls
}

func (m *mockConfigStore) SetCalls() [][2]string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([][2]string(nil), m.setCalls...)
}

// ---------------------------------------------------------------------------
// Mock BackendFactory
// ---------------------------------------------------------------------------

type mockBackendFactory struct {
	NewBackendFunc func(ctx context.Context, s llm.Settings) (llm.Backend, error)

	mu    sync.Mutex
	calls []llm.Settings
	fake  *llm.Fake
}

func (m *mockBackendFactory) NewBackend(ctx context.Context, s llm.Settings) (llm.Backend, error) {
	m.mu.Lock()
	m.calls = append(m.calls, s)
	if m.fake == nil {
		m.fake = llm.NewFake()
	}
	fake := m.fake
	m.mu.Unlock()

	if m.NewBackendFunc != nil {
		return m.NewBackendFunc(ctx, s)
	}
	return fake, nil
}

func (m *mockBackendFactory) Calls() []llm.Settings {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]llm.Settings(nil), m.calls...)
}

// Fake returns the backend handed out by the default NewBackend, or nil.
func (m *mockBackendFactory) Fake() *llm.Fake {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.fake
}

// ---------------------------------------------------------------------------
// Mock TranscriberFactory + Transcriber
// ---------------------------------------------------------------------------

type commandCall struct {
	Script, Python, TempDir string
}

type mockTranscriberFactory struct {
	Transcriber  *mockTranscriber
	NewOpenAIErr error

	mu           sync.Mutex
	commandCalls []commandCall
	openAICalls  []string // API keys passed
	languages    []lang.Language
}

func (m *mockTranscriberFactory) transcriber() *mockTranscriber {
	if m.Transcriber == nil {
		m.Transcriber = &mockTranscriber{}
	}
	return m.Transcriber
}

func (m *mockTranscriberFactory) NewCommandTranscriber(script, python, tempDir string) transcribe.Transcriber {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.commandCalls = append(m.commandCalls, commandCall{script, python, tempDir})
	return m.transcriber()
}

func (m *mockTranscriberFactory) NewOpenAITranscriber(apiKey string, language lang.Language) (transcribe.Transcriber, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.openAICalls = append(m.openAICalls, apiKey)
	m.languages = append(m.languages, language)
	if m.NewOpenAIErr != nil {
		return nil, m.NewOpenAIErr
	}
	return m.transcriber(), nil
}

func (m *mockTranscriberFactory) CommandCalls() []commandCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]commandCall(nil), m.commandCalls...)
}

func (m *mockTranscriberFactory) OpenAICalls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.openAICalls...)
}

func (m *mockTranscriberFactory) Languages() []lang.Language {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]lang.Language(nil), m.languages...)
}

type mockTranscriber struct {
	TranscribeFunc func(ctx context.Context, audioPath string) (string, error)

	mu    sync.Mutex
	paths []string
}

func (m *mockTranscriber) Transcribe(ctx context.Context, audioPath string) (string, error) {
	m.mu.Lock()
	m.paths = append(m.paths, audioPath)
	m.mu.Unlock()

	if m.TranscribeFunc != nil {
		return m.TranscribeFunc(ctx, audioPath)
	}
	return sampleTranscript, nil
}

func (m *mockTranscriber) Paths() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.paths...)
}

// ---------------------------------------------------------------------------
// Mock AudioExtractor
// ---------------------------------------------------------------------------

type mockAudioExtractor struct {
	ResolveErr error
	ExtractErr error

	mu           sync.Mutex
	resolveCalls []string
	extractCalls []string // video paths
}

func (m *mockAudioExtractor) Resolve(explicit string) (string, error) {
	m.mu.Lock()
	m.resolveCalls = append(m.resolveCalls, explicit)
	m.mu.Unlock()

	if m.ResolveErr != nil {
		return "", m.ResolveErr
	}
	return "/usr/bin/ffmpeg", nil
}

// ExtractAudio writes a placeholder WAV into outDir.
func (m *mockAudioExtractor) ExtractAudio(ctx context.Context, ffmpegPath, videoPath, outDir string) (string, error) {
	m.mu.Lock()
	m.extractCalls = append(m.extractCalls, videoPath)
	m.mu.Unlock()

	if m.ExtractErr != nil {
		return "", m.ExtractErr
	}
	out := filepath.Join(outDir, "audio.wav")
	if err := os.WriteFile(out, []byte("RIFF"), 0o600); err != nil {
		return "", err
	}
	return out, nil
}

func (m *mockAudioExtractor) ResolveCalls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.resolveCalls...)
}

func (m *mockAudioExtractor) ExtractCalls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.extractCalls...)
}

// ---------------------------------------------------------------------------
// Mock YouTubeClient
// ---------------------------------------------------------------------------

type transcriptCall struct {
	URL, APIURL, APIKey string
}

type mockYouTube struct {
	Transcript    string
	TranscriptErr error
	Meta          youtube.Metadata
	MetaErr       error

	mu              sync.Mutex
	transcriptCalls []transcriptCall
	metadataCalls   []string
}

func (m *mockYouTube) FetchTranscript(ctx context.Context, videoURL, apiURL, apiKey string) (string, error) {
	m.mu.Lock()
	m.transcriptCalls = append(m.transcriptCalls, transcriptCall{videoURL, apiURL, apiKey})
	m.mu.Unlock()

	if m.TranscriptErr != nil {
		return "", m.TranscriptErr
	}
	if m.Transcript == "" {
		return sampleTranscript, nil
	}
	return m.Transcript, nil
}

func (m *mockYouTube) FetchMetadata(ctx context.Context, videoURL string) (youtube.Metadata, error) {
	m.mu.Lock()
	m.metadataCalls = append(m.metadataCalls, videoURL)
	m.mu.Unlock()

	if m.MetaErr != nil {
		return youtube.Metadata{}, m.MetaErr
	}
	return m.Meta, nil
}

func (m *mockYouTube) TranscriptCalls() []transcriptCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]transcriptCall(nil), m.transcriptCalls...)
}

func (m *mockYouTube) MetadataCalls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.metadataCalls...)
}

// ---------------------------------------------------------------------------
// Mock ServerRunner
// ---------------------------------------------------------------------------

type mockServerRunner struct {
	RunErr error

	mu    sync.Mutex
	addrs []string
	srv   *server.Server
}

func (m *mockServerRunner) Run(ctx context.Context, addr string, srv *server.Server) error {
	m.mu.Lock()
	m.addrs = append(m.addrs, addr)
	m.srv = srv
	m.mu.Unlock()
	return m.RunErr
}

func (m *mockServerRunner) Addrs() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.addrs...)
}

func (m *mockServerRunner) Server() *server.Server {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.srv
}

// Compile-time interface verification.
var (
	_ ConfigStore        = (*mockConfigStore)(nil)
	_ BackendFactory     = (*mockBackendFactory)(nil)
	_ TranscriberFactory = (*mockTranscriberFactory)(nil)
	_ AudioExtractor     = (*mockAudioExtractor)(nil)
	_ YouTubeClient      = (*mockYouTube)(nil)
	_ ServerRunner       = (*mockServerRunner)(nil)
)
