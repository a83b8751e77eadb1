package ffmpeg

import (
	"fmt"
	"runtime"
)

// EnvFFmpegPath overrides the FFmpeg binary location.
const EnvFFmpegPath = "FFMPEG_PATH"

const binaryName = "ffmpeg"

// Resolver locates the FFmpeg binary.
type Resolver struct {
	files fileStater
	env   envProvider
	goos  string
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithFileStater sets a custom file stater (for testing).
func WithFileStater(f fileStater) ResolverOption {
	return func(r *Resolver) { r.files = f }
}

// WithEnvProvider sets a custom environment provider (for testing).
func WithEnvProvider(e envProvider) ResolverOption {
	return func(r *Resolver) { r.env = e }
}

// WithGOOS overrides the target OS (for testing).
func WithGOOS(goos string) ResolverOption {
	return func(r *Resolver) { r.goos = goos }
}

// NewResolver creates a Resolver backed by the OS.
func NewResolver(opts ...ResolverOption) *Resolver {
	r := &Resolver{
		files: osFileStater{},
		env:   osEnvProvider{},
		goos:  runtime.GOOS,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve returns the FFmpeg path. Resolution order:
//  1. explicit (from config or flags)
//  2. FFMPEG_PATH environment variable
//  3. ffmpeg on PATH
func (r *Resolver) Resolve(explicit string) (string, error) {
	for _, candidate := range []string{explicit, r.env.Getenv(EnvFFmpegPath)} {
		if candidate == "" {
			continue
		}
		info, err := r.files.Stat(candidate)
		if err != nil || info.IsDir() {
			return "", fmt.Errorf("%w: %s is not a file", ErrNotFound, candidate)
		}
		return candidate, nil
	}

	name := binaryName
	if r.goos == "windows" {
		name += ".exe"
	}
	path, err := r.env.LookPath(name)
	if err != nil {
		return "", fmt.Errorf("%w: install ffmpeg or set %s", ErrNotFound, EnvFFmpegPath)
	}
	return path, nil
}

// Resolve locates FFmpeg with the default OS-backed Resolver.
func Resolve(explicit string) (string, error) {
	return NewResolver().Resolve(explicit)
}
