// Package media defines the canonical identity of one piece of audio to
// acquire, independent of where it was resolved from.
package media

import (
	"regexp"
	"strings"
)

// Source identifies how an identity was resolved.
type Source string

const (
	SourceSpotify Source = "spotify"
	SourceYouTube Source = "youtube"
	SourceText    Source = "text"
)

// Meta is the canonical description of a single audio item. It is built once
// per resolution and enriched in place when a video match, duration, or
// cover is discovered later. It is never shared across concurrent
// acquisitions; each playlist item owns its own copy.
type Meta struct {
	Input           string            `json:"input"`
	Source          Source            `json:"source"`
	Title           string            `json:"title"`
	Artist          string            `json:"artist,omitempty"`
	Album           string            `json:"album,omitempty"`
	CoverURL        string            `json:"cover_url,omitempty"`
	MediaType       string            `json:"media_type,omitempty"`
	Query           string            `json:"query,omitempty"`
	DurationSeconds int               `json:"duration_seconds,omitempty"`
	ReleaseDate     string            `json:"release_date,omitempty"`
	TrackNumber     int               `json:"track_number,omitempty"`
	DiscNumber      int               `json:"disc_number,omitempty"`
	Description     string            `json:"description,omitempty"`
	VideoURL        string            `json:"video_url,omitempty"`
	VideoID         string            `json:"video_id,omitempty"`
	Channel         string            `json:"channel,omitempty"`
	ExtraTags       map[string]string `json:"extra_tags,omitempty"`
}

// SetTag records a supplementary tag (catalog id, external URL, ISRC).
func (m *Meta) SetTag(name, value string) {
	if value == "" {
		return
	}
	if m.ExtraTags == nil {
		m.ExtraTags = make(map[string]string)
	}
	m.ExtraTags[name] = value
}

// SearchQuery returns the text used to find a playable source: the explicit
// query when set, else title plus artist. Non-empty whenever Title is.
func (m *Meta) SearchQuery() string {
	if m.Query != "" {
		return m.Query
	}
	parts := []string{m.Title}
	if m.Artist != "" {
		parts = append(parts, m.Artist)
	}
	return strings.Join(parts, " ")
}

// BaseFilename returns a filesystem-safe name for the item, "Artist - Title"
// when an artist is known.
func (m *Meta) BaseFilename() string {
	base := m.Title
	if m.Artist != "" {
		base = m.Artist + " - " + m.Title
	}
	return SanitizeFilename(base, "download")
}

// unsafeChars matches everything outside the allowed filename alphabet.
var unsafeChars = regexp.MustCompile(`[^a-zA-Z0-9 _\-.]+`)

// SanitizeFilename strips characters outside letters, digits, space,
// underscore, hyphen, and dot. Returns fallback when nothing survives.
// Idempotent: sanitizing an already-sanitized string returns it unchanged.
func SanitizeFilename(name, fallback string) string {
	cleaned := strings.TrimSpace(unsafeChars.ReplaceAllString(name, ""))
	if cleaned == "" {
		return fallback
	}
	return cleaned
}

// SplitArtistTitle interprets a combined "Artist - Title" string. The left
// side is taken as artist only when both halves are non-empty after
// trimming; otherwise the artist is empty and the trimmed input is the
// title.
func SplitArtistTitle(raw string) (artist, title string) {
	if before, after, ok := strings.Cut(raw, " - "); ok {
		before = strings.TrimSpace(before)
		after = strings.TrimSpace(after)
		if before != "" && after != "" {
			return before, after
		}
	}
	return "", strings.TrimSpace(raw)
}
