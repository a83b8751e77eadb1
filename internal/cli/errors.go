package cli

import "errors"

// CLI-specific sentinel errors.
// These are validation/usage errors that don't belong to domain packages.

var (
	// ErrAPIKeyMissing indicates the selected provider's API key environment variable is not set.
	ErrAPIKeyMissing = errors.New("API key environment variable not set")

	// ErrNoInput indicates generate was called without a transcript, video or YouTube link.
	ErrNoInput = errors.New("no input: pass a transcript file, --video or --youtube")

	// ErrConflictingInputs indicates more than one input source was given.
	ErrConflictingInputs = errors.New("use only one of transcript file, --video and --youtube")

	// ErrUnsupportedFormat indicates a video file has an unsupported extension.
	ErrUnsupportedFormat = errors.New("unsupported video format")

	// ErrFileNotFound indicates the specified input file does not exist.
	ErrFileNotFound = errors.New("file not found")
)
