package transcribe

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"slices"
	"strings"
)

// Command transcriber defaults.
const (
	DefaultPython  = "python3"
	DefaultTempDir = "/tmp"
)

// AllowedExtensions lists the audio formats accepted by the whisper script.
var AllowedExtensions = []string{".wav", ".mp3", ".m4a", ".flac", ".ogg"}

// runFn runs a command and returns its stdout and stderr.
type runFn func(ctx context.Context, name string, args ...string) (stdout, stderr []byte, err error)

// CommandTranscriber shells out to a local whisper script:
//
//	python3 <script> <audio>
//
// The script prints the transcript on stdout.
type CommandTranscriber struct {
	python  string
	script  string
	tempDir string
	run     runFn
}

// CommandOption configures a CommandTranscriber.
type CommandOption func(*CommandTranscriber)

// WithPython sets the interpreter used to run the script.
func WithPython(path string) CommandOption {
	return func(c *CommandTranscriber) {
		if path != "" {
			c.python = path
		}
	}
}

// WithTempDir sets the directory audio files must live in.
func WithTempDir(dir string) CommandOption {
	return func(c *CommandTranscriber) {
		if dir != "" {
			c.tempDir = dir
		}
	}
}

func withRunner(fn runFn) CommandOption {
	return func(c *CommandTranscriber) { c.run = fn }
}

// NewCommandTranscriber creates a CommandTranscriber for the given script.
func NewCommandTranscriber(script string, opts ...CommandOption) *CommandTranscriber {
	c := &CommandTranscriber{
		python:  DefaultPython,
		script:  script,
		tempDir: DefaultTempDir,
		run:     runCommand,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Transcribe validates audioPath and runs the script on it.
func (c *CommandTranscriber) Transcribe(ctx context.Context, audioPath string) (string, error) {
	resolved, err := ValidateAudioPath(audioPath, c.tempDir)
	if err != nil {
		return "", err
	}

	stdout, stderr, err := c.run(ctx, c.python, c.script, resolved)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		return "", fmt.Errorf("%w: %v: %s", ErrCommandFailed, err, strings.TrimSpace(string(stderr)))
	}

	text := strings.TrimSpace(string(stdout))
	if text == "" {
		return "", ErrEmptyTranscript
	}
	return text, nil
}

// ValidateAudioPath resolves path and checks that it names an existing
// regular file inside tempDir with an allowed extension. It returns the
// resolved path.
func ValidateAudioPath(path, tempDir string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrAudioNotFound, path)
	}
	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrAudioNotFound, path)
	}
	info, err := os.Stat(resolved)
	if err != nil || !info.Mode().IsRegular() {
		return "", fmt.Errorf("%w: %s", ErrAudioNotFound, path)
	}

	root, err := filepath.EvalSymlinks(tempDir)
	if err != nil {
		return "", fmt.Errorf("resolve temp dir %s: %w", tempDir, err)
	}
	rel, err := filepath.Rel(root, resolved)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %s", ErrOutsideTempDir, path)
	}

	ext := strings.ToLower(filepath.Ext(resolved))
	if !slices.Contains(AllowedExtensions, ext) {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
	return resolved, nil
}

func runCommand(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
	cmd := exec.CommandContext(ctx, name, args...) // #nosec G204 -- interpreter and script come from config
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	return stdout.Bytes(), stderr.Bytes(), err
}
