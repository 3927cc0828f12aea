// Package catalog wraps the yt-dlp command line tool: info-only extraction,
// bounded search, and audio download with explicit format selectors.
package catalog

import (
	"context"

	"tunepull/internal/media"
)

// DownloadOptions parameterize one download attempt.
type DownloadOptions struct {
	// Workdir receives the downloaded file as "<id>.<ext>".
	Workdir string

	// Selector is the yt-dlp format selector. Empty means no explicit
	// selector; the extractor then defaults to bestaudio/best to avoid
	// video-plus-audio muxing for audio workflows.
	Selector string

	// OutputFormat drives audio postprocessing: mp3 and opus requests
	// re-encode through ffmpeg, other formats keep the source container.
	OutputFormat media.Format
}

// Extractor is the catalog collaborator contract. Implementations shell
// out to yt-dlp; tests substitute the generated mock.
type Extractor interface {
	// Info extracts metadata for a direct URL or a ytsearchN: target
	// without downloading. Search targets that yield nothing fail with
	// ErrNoMatch. The returned entry is always a single item, never a
	// playlist wrapper.
	Info(ctx context.Context, target string) (*Entry, error)

	// Search runs a bounded catalog search and returns the result
	// entries in catalog order. Empty results fail with ErrNoMatch.
	Search(ctx context.Context, query string, limit int) ([]*Entry, error)

	// Download fetches the target's audio into opts.Workdir and returns
	// the downloaded item's metadata (at minimum its id, for file
	// location). A selector the item does not support fails with
	// ErrFormatUnavailable.
	Download(ctx context.Context, target string, opts DownloadOptions) (*Entry, error)
}
