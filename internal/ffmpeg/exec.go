package ffmpeg

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// Audio parameters expected by the speech-to-text backends.
const (
	sampleRate = "16000"
	channels   = "1"
)

// runOutputFn is the function type for running a command and capturing output.
type runOutputFn func(ctx context.Context, path string, args []string) (string, error)

// Executor runs FFmpeg commands with injectable dependencies.
type Executor struct {
	runOutput runOutputFn
	files     fileStater
}

// ExecutorOption configures an Executor.
type ExecutorOption func(*Executor)

// WithRunOutput sets a custom runOutput function (for testing).
func WithRunOutput(fn runOutputFn) ExecutorOption {
	return func(e *Executor) { e.runOutput = fn }
}

// WithExecFileStater sets a custom file stater (for testing).
func WithExecFileStater(f fileStater) ExecutorOption {
	return func(e *Executor) { e.files = f }
}

// NewExecutor creates an Executor with the given options.
func NewExecutor(opts ...ExecutorOption) *Executor {
	e := &Executor{
		runOutput: defaultRunOutput,
		files:     osFileStater{},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// RunOutput executes FFmpeg and captures its stderr output.
func (e *Executor) RunOutput(ctx context.Context, ffmpegPath string, args []string) (string, error) {
	return e.runOutput(ctx, ffmpegPath, args)
}

// ExtractArgs returns the FFmpeg arguments producing a 16 kHz mono WAV.
func ExtractArgs(videoPath, outPath string) []string {
	return []string{
		"-hide_banner", "-loglevel", "error", "-y",
		"-i", videoPath,
		"-vn",
		"-ac", channels,
		"-ar", sampleRate,
		"-f", "wav",
		outPath,
	}
}

// ExtractAudio writes the audio track of videoPath to outDir as a WAV file
// named after the video and returns its path.
func (e *Executor) ExtractAudio(ctx context.Context, ffmpegPath, videoPath, outDir string) (string, error) {
	info, err := e.files.Stat(videoPath)
	if err != nil || info.IsDir() {
		return "", fmt.Errorf("%w: %s", ErrNoInput, videoPath)
	}

	base := strings.TrimSuffix(filepath.Base(videoPath), filepath.Ext(videoPath))
	outPath := filepath.Join(outDir, base+".wav")

	out, err := e.runOutput(ctx, ffmpegPath, ExtractArgs(videoPath, outPath))
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		return "", fmt.Errorf("%w: %v\nOutput: %s", ErrExtractFailed, err, strings.TrimSpace(out))
	}
	return outPath, nil
}

// defaultRunOutput is the production implementation. Stderr is returned even
// when the command fails since FFmpeg reports its diagnostics there.
func defaultRunOutput(ctx context.Context, ffmpegPath string, args []string) (string, error) {
	cmd := exec.CommandContext(ctx, ffmpegPath, args...)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	err := cmd.Run()
	return stderr.String(), err
}

// ExtractAudio extracts audio with a default Executor.
func ExtractAudio(ctx context.Context, ffmpegPath, videoPath, outDir string) (string, error) {
	if err := os.MkdirAll(outDir, 0o750); err != nil {
		return "", fmt.Errorf("create audio dir: %w", err)
	}
	return NewExecutor().ExtractAudio(ctx, ffmpegPath, videoPath, outDir)
}
