package cli

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alnah/go-vidblog/internal/config"
	"github.com/alnah/go-vidblog/internal/ffmpeg"
	"github.com/alnah/go-vidblog/internal/lang"
	"github.com/alnah/go-vidblog/internal/llm"
	"github.com/alnah/go-vidblog/internal/server"
	"github.com/alnah/go-vidblog/internal/youtube"
)

// Notes:
// - Success paths use alpha 0 so the pipeline runs verbatim without backend calls
// - Output goes to a per-test directory through the --output override

const testVideoURL = "https://youtu.be/dQw4w9WgXcQ"

// verbatimOpts returns generate options for a verbatim run into a temp dir.
func verbatimOpts(t *testing.T) GenerateOptions {
	t.Helper()
	return GenerateOptions{
		alpha:  0,
		words:  server.DefaultTargetWords,
		output: t.TempDir(),
	}
}

// readOutput returns the content of the markdown path printed on stdout.
func readOutput(t *testing.T, m *testMocks) string {
	t.Helper()
	path := strings.TrimSpace(m.stdout.String())
	if path == "" {
		t.Fatal("expected output path on stdout")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read output %s: %v", path, err)
	}
	if _, err := os.Stat(filepath.Join(filepath.Dir(path), "post.html")); err != nil {
		t.Errorf("expected post.html next to %s: %v", path, err)
	}
	return string(data)
}

// ---------------------------------------------------------------------------
// Unit tests for helper functions
// ---------------------------------------------------------------------------

func TestSupportedFormatsList(t *testing.T) {
	t.Parallel()

	got := SupportedFormatsList()
	for _, want := range []string{"mp4", "mkv", "webm", "mov"} {
		if !strings.Contains(got, want) {
			t.Errorf("SupportedFormatsList() = %q, want it to contain %q", got, want)
		}
	}
	if strings.Contains(got, ".") {
		t.Errorf("SupportedFormatsList() = %q, want extensions without dots", got)
	}
}

// ---------------------------------------------------------------------------
// Tests for runGenerate - validation
// ---------------------------------------------------------------------------

func TestRunGenerate_ValidationFailsBeforeConfig(t *testing.T) {
	t.Parallel()

	transcript := writeTestFile(t, "talk.txt", sampleTranscript)
	video := writeTestFile(t, "talk.mp4", "fake video")
	badVideo := writeTestFile(t, "talk.exe", "not a video")
	dir := t.TempDir()

	tests := []struct {
		name    string
		opts    GenerateOptions
		wantErr error
	}{
		{"no input", GenerateOptions{alpha: 0.5, words: 500}, ErrNoInput},
		{"file and video", GenerateOptions{transcriptPath: transcript, videoPath: video, alpha: 0.5, words: 500}, ErrConflictingInputs},
		{"file and youtube", GenerateOptions{transcriptPath: transcript, youtubeURL: testVideoURL, alpha: 0.5, words: 500}, ErrConflictingInputs},
		{"missing file", GenerateOptions{transcriptPath: filepath.Join(dir, "nope.txt"), alpha: 0.5, words: 500}, ErrFileNotFound},
		{"directory", GenerateOptions{transcriptPath: dir, alpha: 0.5, words: 500}, ErrFileNotFound},
		{"unsupported video", GenerateOptions{videoPath: badVideo, alpha: 0.5, words: 500}, ErrUnsupportedFormat},
		{"missing video", GenerateOptions{videoPath: filepath.Join(dir, "gone.mp4"), alpha: 0.5, words: 500}, ErrFileNotFound},
		{"not youtube", GenerateOptions{youtubeURL: "https://vimeo.com/123", alpha: 0.5, words: 500}, youtube.ErrNotYouTube},
		{"youtube without id", GenerateOptions{youtubeURL: "https://www.youtube.com/feed", alpha: 0.5, words: 500}, youtube.ErrNoVideoID},
		{"bad language", GenerateOptions{transcriptPath: transcript, alpha: 0.5, words: 500, language: "klingon"}, lang.ErrInvalid},
		{"alpha above one", GenerateOptions{transcriptPath: transcript, alpha: 1.5, words: 500}, server.ErrInvalidRequest},
		{"alpha negative", GenerateOptions{transcriptPath: transcript, alpha: -0.1, words: 500}, server.ErrInvalidRequest},
		{"words too low", GenerateOptions{transcriptPath: transcript, alpha: 0.5, words: server.MinTargetWords - 1}, server.ErrInvalidRequest},
		{"words too high", GenerateOptions{transcriptPath: transcript, alpha: 0.5, words: server.MaxTargetWords + 1}, server.ErrInvalidRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			env, m := testEnv(t)

			err := RunGenerate(context.Background(), env, tt.opts)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("RunGenerate() error = %v, want %v", err, tt.wantErr)
			}
			if m.config.LoadCalls() != 0 {
				t.Errorf("config loaded %d times, want 0", m.config.LoadCalls())
			}
			if len(m.backend.Calls()) != 0 {
				t.Errorf("backend created %d times, want 0", len(m.backend.Calls()))
			}
		})
	}
}

func TestRunGenerate_MissingAPIKey(t *testing.T) {
	t.Parallel()

	env, m := testEnv(t, WithGetenv(staticEnv(nil)))
	opts := verbatimOpts(t)
	opts.transcriptPath = writeTestFile(t, "talk.txt", sampleTranscript)

	err := RunGenerate(context.Background(), env, opts)
	if !errors.Is(err, ErrAPIKeyMissing) {
		t.Fatalf("RunGenerate() error = %v, want ErrAPIKeyMissing", err)
	}
	if !strings.Contains(err.Error(), "OPENAI_API_KEY") {
		t.Errorf("error %q should name the env var", err)
	}
	if len(m.backend.Calls()) != 0 {
		t.Error("backend should not be created without a key")
	}
}

func TestRunGenerate_InvalidProvider(t *testing.T) {
	t.Parallel()

	env, _ := testEnv(t)
	opts := verbatimOpts(t)
	opts.transcriptPath = writeTestFile(t, "talk.txt", sampleTranscript)
	opts.provider = "mistral"

	err := RunGenerate(context.Background(), env, opts)
	if !errors.Is(err, llm.ErrInvalidProvider) {
		t.Fatalf("RunGenerate() error = %v, want ErrInvalidProvider", err)
	}
}

func TestRunGenerate_ConfigError(t *testing.T) {
	t.Parallel()

	env, m := testEnv(t)
	m.config.LoadFunc = func() (config.Config, error) {
		return config.Config{}, config.ErrInvalidValue
	}
	opts := verbatimOpts(t)
	opts.transcriptPath = writeTestFile(t, "talk.txt", sampleTranscript)

	err := RunGenerate(context.Background(), env, opts)
	if !errors.Is(err, config.ErrInvalidValue) {
		t.Fatalf("RunGenerate() error = %v, want ErrInvalidValue", err)
	}
}

func TestRunGenerate_TranscriptTooShort(t *testing.T) {
	t.Parallel()

	env, m := testEnv(t)
	opts := verbatimOpts(t)
	opts.transcriptPath = writeTestFile(t, "short.txt", "too short")

	err := RunGenerate(context.Background(), env, opts)
	if !errors.Is(err, server.ErrInvalidRequest) {
		t.Fatalf("RunGenerate() error = %v, want ErrInvalidRequest", err)
	}
	if len(m.backend.Calls()) != 0 {
		t.Error("backend should not be created for an invalid transcript")
	}
}

// ---------------------------------------------------------------------------
// Tests for runGenerate - transcript sources
// ---------------------------------------------------------------------------

func TestRunGenerate_TranscriptFile(t *testing.T) {
	t.Parallel()

	env, m := testEnv(t)
	opts := verbatimOpts(t)
	opts.transcriptPath = writeTestFile(t, "talk.txt", sampleTranscript)

	if err := RunGenerate(context.Background(), env, opts); err != nil {
		t.Fatalf("RunGenerate() unexpected error: %v", err)
	}

	doc := readOutput(t, m)
	if !strings.Contains(doc, "title: Transcript") {
		t.Errorf("front matter missing title:\n%s", doc)
	}
	if !strings.Contains(doc, "Welcome back to the channel.") {
		t.Errorf("body missing transcript text:\n%s", doc)
	}
	if !strings.HasPrefix(strings.TrimSpace(m.stdout.String()), opts.output) {
		t.Errorf("output %q should be under %q", m.stdout.String(), opts.output)
	}

	calls := m.backend.Calls()
	if len(calls) != 1 {
		t.Fatalf("backend created %d times, want 1", len(calls))
	}
	if calls[0].Provider != llm.OpenAIProvider || calls[0].APIKey != "test-openai-key" {
		t.Errorf("backend settings = %+v", calls[0])
	}
	if got := len(m.backend.Fake().Calls()); got != 0 {
		t.Errorf("verbatim run made %d backend calls, want 0", got)
	}

	stderr := m.stderr.String()
	if !strings.Contains(stderr, "Generating verbatim post") || !strings.Contains(stderr, "Done:") {
		t.Errorf("stderr missing status lines:\n%s", stderr)
	}
}

func TestRunGenerate_ProviderAndModelOverrides(t *testing.T) {
	t.Parallel()

	env, m := testEnv(t)
	m.config.LoadFunc = func() (config.Config, error) {
		return config.Config{Provider: llm.ProviderGemini, Model: "from-config", LogLevel: "error"}, nil
	}
	opts := verbatimOpts(t)
	opts.transcriptPath = writeTestFile(t, "talk.txt", sampleTranscript)
	opts.provider = "deepseek"
	opts.model = "deepseek-reasoner"

	if err := RunGenerate(context.Background(), env, opts); err != nil {
		t.Fatalf("RunGenerate() unexpected error: %v", err)
	}
	calls := m.backend.Calls()
	if len(calls) != 1 {
		t.Fatalf("backend created %d times, want 1", len(calls))
	}
	if calls[0].Provider != llm.DeepSeekProvider || calls[0].Model != "deepseek-reasoner" || calls[0].APIKey != "test-deepseek-key" {
		t.Errorf("backend settings = %+v", calls[0])
	}
}

func TestRunGenerate_Stdin(t *testing.T) {
	t.Parallel()

	env, m := testEnv(t, WithStdin(strings.NewReader(sampleTranscript)))
	opts := verbatimOpts(t)
	opts.transcriptPath = "-"

	if err := RunGenerate(context.Background(), env, opts); err != nil {
		t.Fatalf("RunGenerate() unexpected error: %v", err)
	}
	if doc := readOutput(t, m); !strings.Contains(doc, "cache what is left") {
		t.Errorf("body missing stdin text:\n%s", doc)
	}
}

func TestRunGenerate_StreamPrintsProgress(t *testing.T) {
	t.Parallel()

	env, m := testEnv(t)
	opts := verbatimOpts(t)
	opts.transcriptPath = writeTestFile(t, "talk.txt", sampleTranscript)
	opts.stream = true

	if err := RunGenerate(context.Background(), env, opts); err != nil {
		t.Fatalf("RunGenerate() unexpected error: %v", err)
	}
	stderr := m.stderr.String()
	if !strings.Contains(stderr, "analysis_start: verbatim transcript") {
		t.Errorf("stderr missing progress line:\n%s", stderr)
	}
	if strings.Contains(stderr, "] complete") {
		t.Errorf("terminal event should not be printed as progress:\n%s", stderr)
	}
}

func TestRunGenerate_BackendFactoryFails(t *testing.T) {
	t.Parallel()

	env, m := testEnv(t)
	m.backend.NewBackendFunc = func(ctx context.Context, s llm.Settings) (llm.Backend, error) {
		return nil, llm.ErrEmptyAPIKey
	}
	opts := verbatimOpts(t)
	opts.transcriptPath = writeTestFile(t, "talk.txt", sampleTranscript)

	err := RunGenerate(context.Background(), env, opts)
	if !errors.Is(err, llm.ErrEmptyAPIKey) {
		t.Fatalf("RunGenerate() error = %v, want ErrEmptyAPIKey", err)
	}
	if m.stdout.String() != "" {
		t.Errorf("stdout = %q, want empty", m.stdout.String())
	}
}

func TestRunGenerate_VideoWithWhisperScript(t *testing.T) {
	t.Parallel()

	env, m := testEnv(t)
	m.config.LoadFunc = func() (config.Config, error) {
		return config.Config{
			Provider:      llm.ProviderOpenAI,
			LogLevel:      "error",
			WhisperScript: "/opt/whisper/run.py",
			PythonPath:    "python3",
			FFmpegPath:    "/custom/ffmpeg",
		}, nil
	}
	opts := verbatimOpts(t)
	opts.videoPath = writeTestFile(t, "talk.MP4", "fake video")

	if err := RunGenerate(context.Background(), env, opts); err != nil {
		t.Fatalf("RunGenerate() unexpected error: %v", err)
	}

	if got := m.audio.ResolveCalls(); len(got) != 1 || got[0] != "/custom/ffmpeg" {
		t.Errorf("Resolve calls = %v, want [/custom/ffmpeg]", got)
	}
	if got := m.audio.ExtractCalls(); len(got) != 1 || got[0] != opts.videoPath {
		t.Errorf("ExtractAudio calls = %v", got)
	}
	cmds := m.transcriber.CommandCalls()
	if len(cmds) != 1 {
		t.Fatalf("command transcriber created %d times, want 1", len(cmds))
	}
	if cmds[0].Script != "/opt/whisper/run.py" || cmds[0].Python != "python3" || cmds[0].TempDir != env.TempDir() {
		t.Errorf("command transcriber = %+v", cmds[0])
	}
	if len(m.transcriber.OpenAICalls()) != 0 {
		t.Error("OpenAI transcriber should not be used with a whisper script")
	}

	// The scratch directory is removed after transcription.
	entries, err := os.ReadDir(env.TempDir())
	if err != nil {
		t.Fatalf("read temp dir: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("temp dir not cleaned: %d entries left", len(entries))
	}
	readOutput(t, m)
}

func TestRunGenerate_VideoWithOpenAITranscription(t *testing.T) {
	t.Parallel()

	env, m := testEnv(t)
	opts := verbatimOpts(t)
	opts.videoPath = writeTestFile(t, "talk.mkv", "fake video")
	opts.language = "fr"

	if err := RunGenerate(context.Background(), env, opts); err != nil {
		t.Fatalf("RunGenerate() unexpected error: %v", err)
	}
	if got := m.transcriber.OpenAICalls(); len(got) != 1 || got[0] != "test-openai-key" {
		t.Errorf("OpenAI transcriber keys = %v", got)
	}
	if got := m.transcriber.Languages(); len(got) != 1 || got[0].Code() != "fr" {
		t.Errorf("transcription language = %v, want fr", got)
	}
	paths := m.transcriber.transcriber().Paths()
	if len(paths) != 1 || filepath.Base(paths[0]) != "audio.wav" {
		t.Errorf("transcribed paths = %v", paths)
	}
}

func TestRunGenerate_VideoNeedsOpenAIKey(t *testing.T) {
	t.Parallel()

	env, m := testEnv(t, WithGetenv(staticEnv(map[string]string{"DEEPSEEK_API_KEY": "ds"})))
	opts := verbatimOpts(t)
	opts.videoPath = writeTestFile(t, "talk.webm", "fake video")
	opts.provider = "deepseek"

	err := RunGenerate(context.Background(), env, opts)
	if !errors.Is(err, ErrAPIKeyMissing) {
		t.Fatalf("RunGenerate() error = %v, want ErrAPIKeyMissing", err)
	}
	if !strings.Contains(err.Error(), "whisper-script") {
		t.Errorf("error %q should mention the whisper-script alternative", err)
	}
	if len(m.transcriber.OpenAICalls()) != 0 {
		t.Error("transcriber should not be created without a key")
	}
}

func TestRunGenerate_FFmpegNotFound(t *testing.T) {
	t.Parallel()

	env, m := testEnv(t)
	m.audio.ResolveErr = ffmpeg.ErrNotFound
	opts := verbatimOpts(t)
	opts.videoPath = writeTestFile(t, "talk.mov", "fake video")

	err := RunGenerate(context.Background(), env, opts)
	if !errors.Is(err, ffmpeg.ErrNotFound) {
		t.Fatalf("RunGenerate() error = %v, want ffmpeg.ErrNotFound", err)
	}
	if len(m.audio.ExtractCalls()) != 0 {
		t.Error("extraction should not run without ffmpeg")
	}
}

func TestRunGenerate_TranscriptionFails(t *testing.T) {
	t.Parallel()

	env, m := testEnv(t)
	m.transcriber.Transcriber = &mockTranscriber{
		TranscribeFunc: func(ctx context.Context, audioPath string) (string, error) {
			return "", errors.New("whisper crashed")
		},
	}
	opts := verbatimOpts(t)
	opts.videoPath = writeTestFile(t, "talk.mp4", "fake video")

	err := RunGenerate(context.Background(), env, opts)
	if err == nil || !strings.Contains(err.Error(), "transcribe talk.mp4") {
		t.Fatalf("RunGenerate() error = %v, want wrapped transcription error", err)
	}
}

func TestRunGenerate_YouTube(t *testing.T) {
	t.Parallel()

	env, m := testEnv(t)
	m.config.LoadFunc = func() (config.Config, error) {
		return config.Config{
			Provider:         llm.ProviderOpenAI,
			LogLevel:         "error",
			TranscriptAPIURL: "https://transcripts.example/v1",
			TranscriptAPIKey: "sd-key",
		}, nil
	}
	m.youtube.Meta = youtube.Metadata{Title: "Fast Services: A Field Guide"}
	opts := verbatimOpts(t)
	opts.youtubeURL = testVideoURL

	if err := RunGenerate(context.Background(), env, opts); err != nil {
		t.Fatalf("RunGenerate() unexpected error: %v", err)
	}

	calls := m.youtube.TranscriptCalls()
	if len(calls) != 1 {
		t.Fatalf("transcript fetched %d times, want 1", len(calls))
	}
	want := transcriptCall{URL: testVideoURL, APIURL: "https://transcripts.example/v1", APIKey: "sd-key"}
	if calls[0] != want {
		t.Errorf("transcript call = %+v, want %+v", calls[0], want)
	}

	doc := readOutput(t, m)
	if !strings.Contains(doc, "https://www.youtube.com/watch?v=dQw4w9WgXcQ") {
		t.Errorf("front matter missing source URL:\n%s", doc)
	}
	if !strings.Contains(doc, "Fast Services: A Field Guide") {
		t.Errorf("front matter missing video title:\n%s", doc)
	}
}

func TestRunGenerate_YouTubeMetadataFailureStillSaves(t *testing.T) {
	t.Parallel()

	env, m := testEnv(t)
	m.youtube.MetaErr = errors.New("network down")
	opts := verbatimOpts(t)
	opts.youtubeURL = testVideoURL

	if err := RunGenerate(context.Background(), env, opts); err != nil {
		t.Fatalf("RunGenerate() unexpected error: %v", err)
	}
	if doc := readOutput(t, m); strings.Contains(doc, "video_title") {
		t.Errorf("video_title should be omitted:\n%s", doc)
	}
}

func TestRunGenerate_YouTubeTranscriptFails(t *testing.T) {
	t.Parallel()

	env, m := testEnv(t)
	m.youtube.TranscriptErr = youtube.ErrEmptyTranscript
	opts := verbatimOpts(t)
	opts.youtubeURL = testVideoURL

	err := RunGenerate(context.Background(), env, opts)
	if !errors.Is(err, youtube.ErrEmptyTranscript) {
		t.Fatalf("RunGenerate() error = %v, want ErrEmptyTranscript", err)
	}
	if len(m.backend.Calls()) != 0 {
		t.Error("backend should not be created when the transcript fetch fails")
	}
}

// ---------------------------------------------------------------------------
// Tests for GenerateCmd
// ---------------------------------------------------------------------------

func TestGenerateCmd_Flags(t *testing.T) {
	t.Parallel()

	env, _ := testEnv(t)
	cmd := GenerateCmd(env)

	for _, name := range []string{"video", "youtube", "alpha", "words", "provider", "model", "lang", "output", "stream"} {
		if cmd.Flags().Lookup(name) == nil {
			t.Errorf("missing flag --%s", name)
		}
	}
	if got := cmd.Flags().Lookup("alpha").DefValue; got != "0.7" {
		t.Errorf("--alpha default = %s, want 0.7", got)
	}
	if got := cmd.Flags().Lookup("words").DefValue; got != "1000" {
		t.Errorf("--words default = %s, want 1000", got)
	}
}

func TestGenerateCmd_RunsWithArgs(t *testing.T) {
	t.Parallel()

	env, m := testEnv(t)
	out := t.TempDir()
	cmd := GenerateCmd(env)
	cmd.SetArgs([]string{writeTestFile(t, "talk.txt", sampleTranscript), "-a", "0", "-w", "300", "-o", out})
	cmd.SetOut(m.stderr)
	cmd.SetErr(m.stderr)

	if err := cmd.ExecuteContext(context.Background()); err != nil {
		t.Fatalf("Execute() unexpected error: %v", err)
	}
	if !strings.HasPrefix(strings.TrimSpace(m.stdout.String()), out) {
		t.Errorf("stdout = %q, want a path under %s", m.stdout.String(), out)
	}
}

func TestGenerateCmd_VideoAndYouTubeExclusive(t *testing.T) {
	t.Parallel()

	env, m := testEnv(t)
	cmd := GenerateCmd(env)
	cmd.SetArgs([]string{"--video", "a.mp4", "--youtube", testVideoURL})
	cmd.SetOut(m.stderr)
	cmd.SetErr(m.stderr)

	if err := cmd.Execute(); err == nil {
		t.Fatal("expected error for --video with --youtube")
	}
	if m.config.LoadCalls() != 0 {
		t.Error("config should not load on a flag error")
	}
}
