package store

import "errors"

var (
	// ErrExists indicates the post directory is already present on disk.
	ErrExists = errors.New("post already exists")
	// ErrNotFound indicates no stored post matches the requested ID.
	ErrNotFound = errors.New("post not found")
	// ErrInvalidID indicates an ID that is not a UUID.
	ErrInvalidID = errors.New("invalid post ID")
	// ErrMalformed indicates a post.md without a readable front matter block.
	ErrMalformed = errors.New("malformed post file")
)
