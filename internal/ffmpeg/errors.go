package ffmpeg

import "errors"

// ErrNotFound indicates no usable FFmpeg binary was found.
var ErrNotFound = errors.New("ffmpeg not found")

// ErrNoInput indicates the input video does not exist or is a directory.
var ErrNoInput = errors.New("input video not found")

// ErrExtractFailed indicates FFmpeg exited with an error while extracting audio.
var ErrExtractFailed = errors.New("audio extraction failed")
