package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/alnah/go-vidblog/internal/blog"
	"github.com/alnah/go-vidblog/internal/config"
	"github.com/alnah/go-vidblog/internal/format"
	"github.com/alnah/go-vidblog/internal/lang"
	"github.com/alnah/go-vidblog/internal/llm"
	"github.com/alnah/go-vidblog/internal/logging"
	"github.com/alnah/go-vidblog/internal/server"
	"github.com/alnah/go-vidblog/internal/store"
	"github.com/alnah/go-vidblog/internal/transcribe"
	"github.com/alnah/go-vidblog/internal/youtube"
)

// stdinArg reads the transcript from standard input.
const stdinArg = "-"

// supportedVideoFormats lists inputs ffmpeg is asked to extract audio from.
var supportedVideoFormats = []string{
	".avi", ".flac", ".flv", ".m4a", ".m4v", ".mkv", ".mov", ".mp3", ".mp4", ".ogg", ".wav", ".webm",
}

// generateOptions holds the parsed flags of the generate command.
type generateOptions struct {
	transcriptPath string
	videoPath      string
	youtubeURL     string
	alpha          float64
	words          int
	provider       string
	model          string
	language       string
	output         string
	stream         bool
}

// GenerateCmd creates the generate command.
// The env parameter provides injectable dependencies for testing.
func GenerateCmd(env *Env) *cobra.Command {
	var opts generateOptions

	cmd := &cobra.Command{
		Use:   "generate [transcript-file]",
		Short: "Generate a blog post from a transcript, a video or a YouTube link",
		Long: `Generate a blog post from exactly one input:

  transcript-file   a plain-text transcript ("-" reads stdin)
  --video <path>    a local video; audio is extracted with ffmpeg and transcribed
  --youtube <url>   a YouTube link; the transcript comes from the transcript API

Alpha controls the style: 0 cleans up the transcript verbatim, below 0.5 stays
close to the speaker's words, 0.5 and above restructures freely.

The post is written to <output-dir>/<slug>-<id>/post.md with a rendered post.html.`,
		Example: `  vidblog generate talk.txt -w 800
  vidblog generate --video talk.mp4 -a 0.3 --lang fr
  vidblog generate --youtube https://youtu.be/dQw4w9WgXcQ --provider gemini --stream
  cat talk.txt | vidblog generate - -a 0`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				opts.transcriptPath = args[0]
			}
			return runGenerate(cmd.Context(), env, opts)
		},
	}

	cmd.Flags().StringVar(&opts.videoPath, "video", "", "Local video file to transcribe")
	cmd.Flags().StringVar(&opts.youtubeURL, "youtube", "", "YouTube video URL")
	cmd.Flags().Float64VarP(&opts.alpha, "alpha", "a", server.DefaultAlpha, "Style: 0 verbatim, <0.5 extractive, >=0.5 creative")
	cmd.Flags().IntVarP(&opts.words, "words", "w", server.DefaultTargetWords,
		fmt.Sprintf("Target word count (%d-%d)", server.MinTargetWords, server.MaxTargetWords))
	cmd.Flags().StringVar(&opts.provider, "provider", "", "Generation provider: openai, deepseek, gemini, anthropic (default from config)")
	cmd.Flags().StringVar(&opts.model, "model", "", "Model name (default depends on provider)")
	cmd.Flags().StringVarP(&opts.language, "lang", "l", "", "Output language (ISO 639-1 code, e.g., en, fr, pt-BR)")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "Output directory (default from config)")
	cmd.Flags().BoolVar(&opts.stream, "stream", false, "Print progress events while generating")
	cmd.MarkFlagsMutuallyExclusive("video", "youtube")

	return cmd
}

// runGenerate executes the generation pipeline.
// Validation order: input -> request bounds -> config -> provider -> API key, then transcript acquisition.
func runGenerate(ctx context.Context, env *Env, opts generateOptions) error {
	start := env.Now()

	// === VALIDATION (fail-fast) ===

	if err := validateInputs(opts); err != nil {
		return err
	}

	var language lang.Language
	if opts.language != "" {
		l, err := lang.Parse(opts.language)
		if err != nil {
			return err
		}
		language = l
	}

	// Bounds are checked before any transcription spend; the transcript itself is checked once known.
	if err := checkBounds(opts); err != nil {
		return err
	}

	cfg, err := env.Config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	providerName := opts.provider
	if providerName == "" {
		providerName = cfg.Provider
	}
	provider, err := llm.ParseProvider(providerName)
	if err != nil {
		return err
	}
	apiKey := env.Getenv(provider.APIKeyEnv())
	if apiKey == "" {
		return fmt.Errorf("%s: %w", provider.APIKeyEnv(), ErrAPIKeyMissing)
	}

	outputDir := cfg.OutputDir
	if opts.output != "" {
		outputDir = config.ExpandPath(opts.output)
	}

	log := logging.New(env.Stderr, cfg.LogLevel, true)

	// === TRANSCRIPT ===

	transcript, videoURL, err := acquireTranscript(ctx, env, cfg, opts, language)
	if err != nil {
		return err
	}

	req, err := server.GenerateRequest{
		Transcript:  transcript,
		Alpha:       &opts.alpha,
		TargetWords: &opts.words,
		VideoURL:    videoURL,
		Language:    opts.language,
	}.ToRequest()
	if err != nil {
		return err
	}

	// === GENERATION ===

	model := opts.model
	if model == "" {
		model = cfg.Model
	}
	backend, err := env.BackendFactory.NewBackend(ctx, llm.Settings{Provider: provider, Model: model, APIKey: apiKey})
	if err != nil {
		return err
	}

	gen := blog.New(backend,
		blog.WithLogger(log),
		blog.WithParallelFirstDraft(cfg.ParallelSections))

	_, _ = fmt.Fprintf(env.Stderr, "Generating %s post with %s (%s)...\n",
		blog.SelectMode(req, blog.DefaultLongThreshold), provider, format.Count(req.TargetWords, "word"))

	var emit func(blog.Event)
	if opts.stream {
		emit = progressPrinter(env.Stderr)
	}
	post, err := gen.Stream(ctx, req, emit)
	if err != nil {
		return err
	}

	// === OUTPUT ===

	var saveOpts []store.SaveOption
	if opts.youtubeURL != "" {
		if meta, err := env.YouTube.FetchMetadata(ctx, videoURL); err == nil && meta.Title != "" {
			saveOpts = append(saveOpts, store.WithVideoTitle(meta.Title))
		} else if err != nil {
			log.Warn().Err(err).Str("video_url", videoURL).Msg("video metadata lookup failed")
		}
	}

	_, path, err := store.New(outputDir).Save(post, saveOpts...)
	if err != nil {
		return err
	}

	_, _ = fmt.Fprintf(env.Stderr, "Done: %s (%s, %s) in %s\n",
		path, format.Count(post.WordCount, "word"), format.ReadingTime(post.ReadingTimeMinutes),
		format.Elapsed(env.Now().Sub(start)))
	_, _ = fmt.Fprintln(env.Stdout, path)
	return nil
}

// validateInputs checks that exactly one input source is given and that it exists.
func validateInputs(opts generateOptions) error {
	n := 0
	for _, s := range []string{opts.transcriptPath, opts.videoPath, opts.youtubeURL} {
		if s != "" {
			n++
		}
	}
	switch {
	case n == 0:
		return ErrNoInput
	case n > 1:
		return ErrConflictingInputs
	}

	if opts.youtubeURL != "" {
		_, err := youtube.ExtractVideoID(opts.youtubeURL)
		return err
	}

	path := opts.transcriptPath
	if opts.videoPath != "" {
		path = opts.videoPath
		ext := strings.ToLower(filepath.Ext(path))
		if !slices.Contains(supportedVideoFormats, ext) {
			return fmt.Errorf("%q (supported: %s): %w", ext, supportedFormatsList(), ErrUnsupportedFormat)
		}
	}
	if path == stdinArg && opts.videoPath == "" {
		return nil
	}
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("%s: %w", path, ErrFileNotFound)
	}
	if info.IsDir() {
		return fmt.Errorf("%s is a directory: %w", path, ErrFileNotFound)
	}
	return nil
}

// checkBounds validates alpha and target words with a placeholder transcript.
func checkBounds(opts generateOptions) error {
	placeholder := strings.Repeat("x", server.MinTranscriptChars)
	_, err := server.GenerateRequest{Transcript: placeholder, Alpha: &opts.alpha, TargetWords: &opts.words}.ToRequest()
	return err
}

// supportedFormatsList returns a comma-separated list for error messages.
func supportedFormatsList() string {
	formats := make([]string, 0, len(supportedVideoFormats))
	for _, ext := range supportedVideoFormats {
		formats = append(formats, strings.TrimPrefix(ext, "."))
	}
	return strings.Join(formats, ", ")
}

// acquireTranscript returns the transcript text and the video URL for sources.
func acquireTranscript(ctx context.Context, env *Env, cfg config.Config, opts generateOptions, language lang.Language) (string, string, error) {
	switch {
	case opts.youtubeURL != "":
		_, _ = fmt.Fprintln(env.Stderr, "Fetching YouTube transcript...")
		text, err := env.YouTube.FetchTranscript(ctx, opts.youtubeURL, cfg.TranscriptAPIURL, cfg.TranscriptAPIKey)
		if err != nil {
			return "", "", err
		}
		id, _ := youtube.ExtractVideoID(opts.youtubeURL)
		return text, youtube.WatchURL(id), nil

	case opts.videoPath != "":
		text, err := transcribeVideo(ctx, env, cfg, opts.videoPath, language)
		return text, "", err

	case opts.transcriptPath == stdinArg:
		_, _ = fmt.Fprintln(env.Stderr, "Reading transcript from stdin...")
		data, err := io.ReadAll(env.Stdin)
		if err != nil {
			return "", "", fmt.Errorf("read stdin: %w", err)
		}
		return string(data), "", nil

	default:
		data, err := os.ReadFile(opts.transcriptPath) // #nosec G304 -- user-specified input file
		if err != nil {
			return "", "", fmt.Errorf("read transcript: %w", err)
		}
		_, _ = fmt.Fprintf(env.Stderr, "Read %s (%s)\n", opts.transcriptPath, format.Size(int64(len(data))))
		return string(data), "", nil
	}
}

// transcribeVideo extracts audio into a scratch directory and transcribes it.
// The whisper script is used when configured; otherwise OpenAI transcription.
func transcribeVideo(ctx context.Context, env *Env, cfg config.Config, videoPath string, language lang.Language) (string, error) {
	ffmpegPath, err := env.AudioExtractor.Resolve(cfg.FFmpegPath)
	if err != nil {
		return "", err
	}

	root := env.TempDir()
	scratch, err := os.MkdirTemp(root, "vidblog-*")
	if err != nil {
		return "", fmt.Errorf("create temp dir: %w", err)
	}
	defer func() { _ = os.RemoveAll(scratch) }()

	_, _ = fmt.Fprintln(env.Stderr, "Extracting audio...")
	audioPath, err := env.AudioExtractor.ExtractAudio(ctx, ffmpegPath, videoPath, scratch)
	if err != nil {
		return "", err
	}

	var t transcribe.Transcriber
	if cfg.WhisperScript != "" {
		t = env.TranscriberFactory.NewCommandTranscriber(cfg.WhisperScript, cfg.PythonPath, root)
	} else {
		key := env.Getenv(llm.OpenAIProvider.APIKeyEnv())
		if key == "" {
			return "", fmt.Errorf("transcription needs %s or whisper-script: %w", llm.OpenAIProvider.APIKeyEnv(), ErrAPIKeyMissing)
		}
		t, err = env.TranscriberFactory.NewOpenAITranscriber(key, language)
		if err != nil {
			return "", err
		}
	}

	_, _ = fmt.Fprintln(env.Stderr, "Transcribing...")
	text, err := t.Transcribe(ctx, audioPath)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return "", err
		}
		return "", fmt.Errorf("transcribe %s: %w", filepath.Base(videoPath), err)
	}
	return text, nil
}
