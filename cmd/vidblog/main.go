package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/alnah/go-vidblog/internal/apierr"
	"github.com/alnah/go-vidblog/internal/blog"
	"github.com/alnah/go-vidblog/internal/cli"
	"github.com/alnah/go-vidblog/internal/config"
	"github.com/alnah/go-vidblog/internal/ffmpeg"
	"github.com/alnah/go-vidblog/internal/lang"
	"github.com/alnah/go-vidblog/internal/llm"
	"github.com/alnah/go-vidblog/internal/server"
	"github.com/alnah/go-vidblog/internal/store"
	"github.com/alnah/go-vidblog/internal/transcribe"
	"github.com/alnah/go-vidblog/internal/youtube"
)

// Injected at build time via ldflags.
var (
	version = "dev"
	commit  = "unknown"
)

// Exit codes.
const (
	ExitOK         = 0
	ExitGeneral    = 1
	ExitUsage      = 2
	ExitSetup      = 3
	ExitValidation = 4
	ExitBackend    = 5
	ExitGeneration = 6
	ExitInterrupt  = 130
)

func main() {
	// Load .env file if present (ignore error if missing).
	_ = godotenv.Load()

	// Context with signal cancellation.
	ctx, cancel := signal.NotifyContext(context.Background(),
		syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	rootCmd := newRootCmd(cli.DefaultEnv())

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitCode(err))
	}
}

// newRootCmd builds the command tree around env.
func newRootCmd(env *cli.Env) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:     "vidblog",
		Short:   "Turn video transcripts into blog posts",
		Version: fmt.Sprintf("%s (commit: %s)", version, commit),
		// Silence Cobra's default error/usage printing; we handle it ourselves.
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	rootCmd.AddCommand(cli.GenerateCmd(env))
	rootCmd.AddCommand(cli.ServeCmd(env))
	rootCmd.AddCommand(cli.ConfigCmd(env))

	return rootCmd
}

// exitCode maps errors to exit codes.
func exitCode(err error) int {
	if err == nil {
		return ExitOK
	}

	// Check for context cancellation (interrupt).
	if errors.Is(err, context.Canceled) {
		return ExitInterrupt
	}

	// Usage errors (ExitUsage = 2): Cobra flag/arg parsing errors.
	if isCobraUsageError(err) {
		return ExitUsage
	}

	// Setup errors (ExitSetup = 3).
	if errors.Is(err, ffmpeg.ErrNotFound) || errors.Is(err, cli.ErrAPIKeyMissing) ||
		errors.Is(err, llm.ErrInvalidProvider) || errors.Is(err, llm.ErrEmptyAPIKey) ||
		errors.Is(err, transcribe.ErrAPIKeyMissing) || errors.Is(err, youtube.ErrAPIKeyMissing) {
		return ExitSetup
	}

	// Validation errors (ExitValidation = 4).
	if errors.Is(err, server.ErrInvalidRequest) || errors.Is(err, blog.ErrEmptyTranscript) ||
		errors.Is(err, blog.ErrInvalidAlpha) || errors.Is(err, blog.ErrInvalidTarget) ||
		errors.Is(err, lang.ErrInvalid) || errors.Is(err, cli.ErrNoInput) ||
		errors.Is(err, cli.ErrConflictingInputs) || errors.Is(err, cli.ErrUnsupportedFormat) ||
		errors.Is(err, cli.ErrFileNotFound) || errors.Is(err, store.ErrExists) ||
		errors.Is(err, config.ErrUnknownKey) || errors.Is(err, config.ErrInvalidValue) ||
		errors.Is(err, youtube.ErrNotYouTube) || errors.Is(err, youtube.ErrNoVideoID) ||
		errors.Is(err, ffmpeg.ErrNoInput) || errors.Is(err, transcribe.ErrAudioNotFound) ||
		errors.Is(err, transcribe.ErrOutsideTempDir) || errors.Is(err, transcribe.ErrUnsupportedFormat) {
		return ExitValidation
	}

	// Backend errors (ExitBackend = 5).
	if errors.Is(err, apierr.ErrRateLimit) || errors.Is(err, apierr.ErrQuotaExceeded) ||
		errors.Is(err, apierr.ErrTimeout) || errors.Is(err, apierr.ErrAuthFailed) ||
		errors.Is(err, apierr.ErrBadRequest) || errors.Is(err, apierr.ErrEmptyResponse) ||
		errors.Is(err, apierr.ErrMalformedResponse) {
		return ExitBackend
	}

	// Generation errors (ExitGeneration = 6).
	if errors.Is(err, ffmpeg.ErrExtractFailed) || errors.Is(err, transcribe.ErrCommandFailed) ||
		errors.Is(err, transcribe.ErrEmptyTranscript) || errors.Is(err, youtube.ErrEmptyTranscript) ||
		errors.Is(err, blog.ErrRateLimited) {
		return ExitGeneration
	}

	return ExitGeneral
}

// cobraUsageErrorPatterns contains error message substrings that indicate Cobra usage errors.
// Cobra doesn't expose typed errors, so string matching is the only reliable approach.
var cobraUsageErrorPatterns = []string{
	"required flag",             // Missing required flag
	"unknown flag",              // Flag doesn't exist
	"unknown shorthand",         // Short flag doesn't exist
	"unknown command",           // Subcommand doesn't exist
	"flag needs an argument",    // Flag provided without value
	"invalid argument",          // Invalid flag value type
	"if any flags in the group", // Mutually exclusive flag violation
	"accepts ",                  // Wrong number of arguments (e.g., "accepts 1 arg(s)")
	"requires at least",         // Too few arguments
	"requires at most",          // Too many arguments
}

// isCobraUsageError checks if an error is a Cobra usage/parsing error.
func isCobraUsageError(err error) bool {
	if err == nil {
		return false
	}
	errMsg := err.Error()
	for _, pattern := range cobraUsageErrorPatterns {
		if strings.Contains(errMsg, pattern) {
			return true
		}
	}
	return false
}
