package spotify

import "errors"

// Sentinel errors for the spotify package.
var (
	// ErrNoCredentials is returned when the Web API is requested without a
	// configured client id/secret pair.
	ErrNoCredentials = errors.New("spotify credentials not configured")

	// ErrAPIUnavailable is returned when the Web API answers with a
	// non-200 status.
	ErrAPIUnavailable = errors.New("spotify api unavailable")

	// ErrNoTracks is returned when a public playlist page contains no
	// recognizable track references.
	ErrNoTracks = errors.New("no playlist tracks found in public page")

	// ErrInvalidPlaylistURL is returned when a playlist id cannot be
	// derived from the input.
	ErrInvalidPlaylistURL = errors.New("invalid spotify playlist url")
)
