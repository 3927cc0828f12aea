// Package spotify talks to Spotify's public surfaces: item pages, the
// oEmbed endpoint, and the Web API under client-credentials auth.
package spotify

import "regexp"

var (
	spotifyURLPattern  = regexp.MustCompile(`(?i)https?://(open\.)?spotify\.com/`)
	playlistURLPattern = regexp.MustCompile(`(?i)spotify\.com/playlist/`)
	itemPattern        = regexp.MustCompile(`spotify\.com/(track|album|playlist|episode|show)/([a-zA-Z0-9]+)`)
	playlistIDPattern  = regexp.MustCompile(`spotify\.com/playlist/([a-zA-Z0-9]+)`)
)

// IsSpotifyURL reports whether the input points at any Spotify item.
// Pure string matching; no network.
func IsSpotifyURL(s string) bool { return spotifyURLPattern.MatchString(s) }

// IsPlaylistURL reports whether the input points at a Spotify playlist.
func IsPlaylistURL(s string) bool { return playlistURLPattern.MatchString(s) }

// ItemKind returns the item type segment of a Spotify URL (track, album,
// playlist, episode, show), or "" when none is present.
func ItemKind(s string) string {
	m := itemPattern.FindStringSubmatch(s)
	if m == nil {
		return ""
	}
	return m[1]
}

// ItemID returns the opaque item identifier of a Spotify URL, or "".
func ItemID(s string) string {
	m := itemPattern.FindStringSubmatch(s)
	if m == nil {
		return ""
	}
	return m[2]
}

// PlaylistID returns the playlist identifier of a playlist URL, or "".
func PlaylistID(s string) string {
	m := playlistIDPattern.FindStringSubmatch(s)
	if m == nil {
		return ""
	}
	return m[1]
}
