package blog

import "errors"

// Request validation and precondition errors.
var (
	// ErrEmptyTranscript indicates the transcript has no text.
	ErrEmptyTranscript = errors.New("transcript is empty")

	// ErrInvalidAlpha indicates alpha is outside [0,1].
	ErrInvalidAlpha = errors.New("alpha must be between 0 and 1")

	// ErrInvalidTarget indicates a non-positive target word count.
	ErrInvalidTarget = errors.New("target word count must be positive")

	// ErrRateLimited indicates the injected rate gate refused the request.
	ErrRateLimited = errors.New("generation rate limit exceeded")
)
