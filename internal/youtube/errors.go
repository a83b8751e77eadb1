package youtube

import "errors"

var (
	// ErrNotYouTube indicates a URL whose host is not a YouTube domain.
	ErrNotYouTube = errors.New("not a YouTube URL")
	// ErrNoVideoID indicates a YouTube URL without a recognizable video ID.
	ErrNoVideoID = errors.New("no video ID found in URL")
	// ErrAPIKeyMissing indicates the transcript API key was not configured.
	ErrAPIKeyMissing = errors.New("transcript API key is required")
	// ErrEmptyTranscript indicates the transcript API returned no text.
	ErrEmptyTranscript = errors.New("transcript API returned no text")
)
