// Package youtube resolves YouTube links into video IDs, page metadata and transcripts.
package youtube

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

// videoIDRe matches the 11-character IDs YouTube issues. Shorter IDs are
// accepted too so test fixtures and legacy links keep working.
var videoIDRe = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

// pathPrefixes are the path forms that carry the ID as the next segment.
var pathPrefixes = []string{"/shorts/", "/embed/", "/live/", "/v/"}

// ExtractVideoID returns the video ID from watch, youtu.be, shorts and embed URLs.
func ExtractVideoID(videoURL string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(videoURL))
	if err != nil {
		return "", fmt.Errorf("parse %q: %w", videoURL, err)
	}

	host := strings.ToLower(u.Hostname())
	var id string
	switch {
	case host == "youtu.be":
		id = firstSegment(strings.TrimPrefix(u.Path, "/"))
	case host == "youtube.com" || strings.HasSuffix(host, ".youtube.com") ||
		host == "youtube-nocookie.com" || strings.HasSuffix(host, ".youtube-nocookie.com"):
		id = u.Query().Get("v")
		if id == "" {
			for _, prefix := range pathPrefixes {
				if rest, ok := strings.CutPrefix(u.Path, prefix); ok {
					id = firstSegment(rest)
					break
				}
			}
		}
	default:
		return "", fmt.Errorf("%q: %w", videoURL, ErrNotYouTube)
	}

	if id == "" || !videoIDRe.MatchString(id) {
		return "", fmt.Errorf("%q: %w", videoURL, ErrNoVideoID)
	}
	return id, nil
}

// WatchURL returns the canonical watch URL for id.
func WatchURL(id string) string {
	return "https://www.youtube.com/watch?v=" + url.QueryEscape(id)
}

// IsYouTubeURL reports whether s parses as a YouTube video link.
func IsYouTubeURL(s string) bool {
	_, err := ExtractVideoID(s)
	return err == nil
}

func firstSegment(p string) string {
	if i := strings.IndexByte(p, '/'); i >= 0 {
		return p[:i]
	}
	return p
}
