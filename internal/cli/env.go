package cli

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/alnah/go-vidblog/internal/config"
	"github.com/alnah/go-vidblog/internal/ffmpeg"
	"github.com/alnah/go-vidblog/internal/lang"
	"github.com/alnah/go-vidblog/internal/llm"
	"github.com/alnah/go-vidblog/internal/server"
	"github.com/alnah/go-vidblog/internal/transcribe"
	"github.com/alnah/go-vidblog/internal/youtube"
)

// Env holds injectable dependencies for CLI commands.
// This is the central injection point for testing CLI commands in isolation.
//
// All fields have sensible defaults via DefaultEnv(). Tests can override
// specific fields using the With* options or by creating a custom Env.
//
// Env must not be nil when passed to command functions.
type Env struct {
	// I/O and environment
	Stdin   io.Reader
	Stdout  io.Writer
	Stderr  io.Writer
	Getenv  func(string) string
	Now     func() time.Time
	TempDir func() string

	// Factories for domain objects
	Config             ConfigStore
	BackendFactory     BackendFactory
	TranscriberFactory TranscriberFactory
	AudioExtractor     AudioExtractor
	YouTube            YouTubeClient
	ServerRunner       ServerRunner
}

// ConfigStore loads and persists configuration.
type ConfigStore interface {
	Load() (config.Config, error)
	Set(key, value string) (string, error)
	Get(key string) (string, error)
	List() (map[string]string, error)
	Path() string
}

// BackendFactory creates generation backends.
type BackendFactory interface {
	NewBackend(ctx context.Context, s llm.Settings) (llm.Backend, error)
}

// TranscriberFactory creates transcribers for extracted audio.
type TranscriberFactory interface {
	NewCommandTranscriber(script, python, tempDir string) transcribe.Transcriber
	NewOpenAITranscriber(apiKey string, language lang.Language) (transcribe.Transcriber, error)
}

// AudioExtractor locates ffmpeg and extracts a WAV track from a video.
type AudioExtractor interface {
	Resolve(explicit string) (string, error)
	ExtractAudio(ctx context.Context, ffmpegPath, videoPath, outDir string) (string, error)
}

// YouTubeClient fetches transcripts and metadata for YouTube links.
type YouTubeClient interface {
	FetchTranscript(ctx context.Context, videoURL, apiURL, apiKey string) (string, error)
	FetchMetadata(ctx context.Context, videoURL string) (youtube.Metadata, error)
}

// ServerRunner serves the HTTP API until ctx is cancelled.
type ServerRunner interface {
	Run(ctx context.Context, addr string, srv *server.Server) error
}

// EnvOption configures an Env.
type EnvOption func(*Env)

// WithStdout sets the stdout writer.
func WithStdout(w io.Writer) EnvOption {
	return func(e *Env) { e.Stdout = w }
}

// WithStderr sets the stderr writer.
func WithStderr(w io.Writer) EnvOption {
	return func(e *Env) { e.Stderr = w }
}

// WithStdin sets the stdin reader.
func WithStdin(r io.Reader) EnvOption {
	return func(e *Env) { e.Stdin = r }
}

// WithGetenv sets the environment variable getter.
func WithGetenv(fn func(string) string) EnvOption {
	return func(e *Env) { e.Getenv = fn }
}

// WithNow sets the time provider.
func WithNow(fn func() time.Time) EnvOption {
	return func(e *Env) { e.Now = fn }
}

// WithTempDir sets the scratch directory root for extracted audio.
func WithTempDir(fn func() string) EnvOption {
	return func(e *Env) { e.TempDir = fn }
}

// WithConfig sets the config store.
func WithConfig(c ConfigStore) EnvOption {
	return func(e *Env) { e.Config = c }
}

// WithBackendFactory sets the backend factory.
func WithBackendFactory(f BackendFactory) EnvOption {
	return func(e *Env) { e.BackendFactory = f }
}

// WithTranscriberFactory sets the transcriber factory.
func WithTranscriberFactory(f TranscriberFactory) EnvOption {
	return func(e *Env) { e.TranscriberFactory = f }
}

// WithAudioExtractor sets the audio extractor.
func WithAudioExtractor(a AudioExtractor) EnvOption {
	return func(e *Env) { e.AudioExtractor = a }
}

// WithYouTubeClient sets the YouTube client.
func WithYouTubeClient(y YouTubeClient) EnvOption {
	return func(e *Env) { e.YouTube = y }
}

// WithServerRunner sets the server runner.
func WithServerRunner(r ServerRunner) EnvOption {
	return func(e *Env) { e.ServerRunner = r }
}

// DefaultEnv returns an Env with production defaults.
// A config file location that cannot be determined surfaces on first use.
func DefaultEnv() *Env {
	return &Env{
		Stdin:              os.Stdin,
		Stdout:             os.Stdout,
		Stderr:             os.Stderr,
		Getenv:             os.Getenv,
		Now:                time.Now,
		TempDir:            os.TempDir,
		Config:             &lazyConfig{},
		BackendFactory:     defaultBackendFactory{},
		TranscriberFactory: defaultTranscriberFactory{},
		AudioExtractor:     defaultAudioExtractor{},
		YouTube:            defaultYouTubeClient{},
		ServerRunner:       defaultServerRunner{},
	}
}

// NewEnv creates an Env with the given options applied to defaults.
func NewEnv(opts ...EnvOption) *Env {
	env := DefaultEnv()
	for _, opt := range opts {
		opt(env)
	}
	return env
}

// ---------------------------------------------------------------------------
// Default implementations - delegate to real packages
// ---------------------------------------------------------------------------

// lazyConfig opens the XDG config manager on first use.
type lazyConfig struct {
	m *config.Manager
}

func (c *lazyConfig) manager() (*config.Manager, error) {
	if c.m != nil {
		return c.m, nil
	}
	m, err := config.NewManager()
	if err != nil {
		return nil, err
	}
	c.m = m
	return m, nil
}

func (c *lazyConfig) Load() (config.Config, error) {
	m, err := c.manager()
	if err != nil {
		return config.Config{}, err
	}
	return m.Load()
}

func (c *lazyConfig) Set(key, value string) (string, error) {
	m, err := c.manager()
	if err != nil {
		return "", err
	}
	return m.Set(key, value)
}

func (c *lazyConfig) Get(key string) (string, error) {
	m, err := c.manager()
	if err != nil {
		return "", err
	}
	return m.Get(key)
}

func (c *lazyConfig) List() (map[string]string, error) {
	m, err := c.manager()
	if err != nil {
		return nil, err
	}
	return m.List()
}

func (c *lazyConfig) Path() string {
	m, err := c.manager()
	if err != nil {
		return ""
	}
	return m.Path()
}

// defaultBackendFactory implements BackendFactory using the llm package.
type defaultBackendFactory struct{}

func (defaultBackendFactory) NewBackend(ctx context.Context, s llm.Settings) (llm.Backend, error) {
	return llm.New(ctx, s)
}

// defaultTranscriberFactory implements TranscriberFactory using the transcribe package.
type defaultTranscriberFactory struct{}

func (defaultTranscriberFactory) NewCommandTranscriber(script, python, tempDir string) transcribe.Transcriber {
	return transcribe.NewCommandTranscriber(script, transcribe.WithPython(python), transcribe.WithTempDir(tempDir))
}

func (defaultTranscriberFactory) NewOpenAITranscriber(apiKey string, language lang.Language) (transcribe.Transcriber, error) {
	t, err := transcribe.NewOpenAITranscriber(apiKey, transcribe.WithLanguage(language))
	if err != nil {
		return nil, err
	}
	return t, nil
}

// defaultAudioExtractor implements AudioExtractor using the ffmpeg package.
type defaultAudioExtractor struct{}

func (defaultAudioExtractor) Resolve(explicit string) (string, error) {
	return ffmpeg.Resolve(explicit)
}

func (defaultAudioExtractor) ExtractAudio(ctx context.Context, ffmpegPath, videoPath, outDir string) (string, error) {
	return ffmpeg.ExtractAudio(ctx, ffmpegPath, videoPath, outDir)
}

// defaultYouTubeClient implements YouTubeClient using the youtube package.
type defaultYouTubeClient struct{}

func (defaultYouTubeClient) FetchTranscript(ctx context.Context, videoURL, apiURL, apiKey string) (string, error) {
	c, err := youtube.NewTranscriptClient(apiKey, youtube.WithTranscriptAPIURL(apiURL))
	if err != nil {
		return "", err
	}
	return c.Fetch(ctx, videoURL)
}

func (defaultYouTubeClient) FetchMetadata(ctx context.Context, videoURL string) (youtube.Metadata, error) {
	return youtube.FetchMetadata(ctx, videoURL)
}

// defaultServerRunner implements ServerRunner with a real listener.
type defaultServerRunner struct{}

func (defaultServerRunner) Run(ctx context.Context, addr string, srv *server.Server) error {
	return srv.ListenAndServe(ctx, addr)
}

// Compile-time interface verification.
var (
	_ ConfigStore        = (*config.Manager)(nil)
	_ ConfigStore        = (*lazyConfig)(nil)
	_ BackendFactory     = (*defaultBackendFactory)(nil)
	_ TranscriberFactory = (*defaultTranscriberFactory)(nil)
	_ AudioExtractor     = (*defaultAudioExtractor)(nil)
	_ YouTubeClient      = (*defaultYouTubeClient)(nil)
	_ ServerRunner       = (*defaultServerRunner)(nil)
)
