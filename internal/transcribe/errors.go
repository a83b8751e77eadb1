package transcribe

import "errors"

// ErrAPIKeyMissing indicates OPENAI_API_KEY environment variable is not set.
var ErrAPIKeyMissing = errors.New("OPENAI_API_KEY environment variable not set")

// ErrAudioNotFound indicates the audio path does not name an existing file.
var ErrAudioNotFound = errors.New("audio file not found")

// ErrOutsideTempDir indicates the audio file lies outside the allowed temp root.
var ErrOutsideTempDir = errors.New("audio file must be inside the temp directory")

// ErrUnsupportedFormat indicates an audio extension the transcriber does not accept.
var ErrUnsupportedFormat = errors.New("unsupported audio format")

// ErrCommandFailed indicates the external transcription command exited with an error.
var ErrCommandFailed = errors.New("transcription command failed")

// ErrEmptyTranscript indicates transcription produced no text.
var ErrEmptyTranscript = errors.New("transcription produced no text")
