// Package blog turns a transcript into a section-structured blog post that
// lands close to a requested word count.
//
// The short-form pipeline detects natural sections, normalizes them into an
// outline with exact integer word budgets, expands each section through a
// bounded generate/check/retry state machine, then applies global shrink and
// expand passes. Long transcripts take a single-pass path against chunked
// context, and alpha == 0 returns the cleaned transcript without any backend call.
package blog
