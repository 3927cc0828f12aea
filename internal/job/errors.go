package job

import "errors"

// Sentinel errors for the job package.
var (
	// ErrNotPlaylist is returned when a start request names something
	// other than a playlist URL.
	ErrNotPlaylist = errors.New("input must be a Spotify playlist URL")

	// ErrJobNotFound is returned for an unknown job id.
	ErrJobNotFound = errors.New("playlist job not found")

	// ErrItemNotFound is returned for an unknown file id within a job.
	ErrItemNotFound = errors.New("track file not found")

	// ErrNotReady is returned when the archive is requested before the
	// job reached done.
	ErrNotReady = errors.New("playlist is not ready yet")

	// ErrFileGone is returned when a recorded file no longer exists on
	// disk.
	ErrFileGone = errors.New("file is no longer available")
)
