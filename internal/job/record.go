package job

import (
	"time"

	"tunepull/internal/media"
	"tunepull/internal/spotify"
)

// TrackSummary is the display line recorded for every playlist item up
// front, available to status queries before the item finishes.
type TrackSummary struct {
	ID     string `json:"id"`
	Index  int    `json:"index"`
	Title  string `json:"title"`
	Artist string `json:"artist"`
}

// FileEntry is one produced output file.
type FileEntry struct {
	ID       string `json:"id"`
	Index    int    `json:"index"`
	Title    string `json:"title"`
	Artist   string `json:"artist"`
	Filename string `json:"filename"`
	Path     string `json:"-"`
}

// Record is the full state of one playlist job.
type Record struct {
	ID            string             `json:"id"`
	Status        Status             `json:"status"`
	Input         string             `json:"input"`
	Total         int                `json:"total"`
	Done          int                `json:"done"`
	Failed        int                `json:"failed"`
	Current       string             `json:"current,omitempty"`
	Error         string             `json:"error,omitempty"`
	PlaylistTitle string             `json:"playlist_title,omitempty"`
	CoverURL      string             `json:"cover_url,omitempty"`
	SourceMode    spotify.SourceMode `json:"source_mode,omitempty"`
	OutputFormat  media.Format       `json:"output_format"`
	Tracks        []TrackSummary     `json:"tracks"`
	Files         []FileEntry        `json:"files"`
	CreatedAt     time.Time          `json:"created_at"`
	Workdir       string             `json:"-"`
	ArchivePath   string             `json:"-"`
}

// Ready reports whether the archive can be served.
func (r *Record) Ready() bool {
	return r.Status == StatusDone && r.ArchivePath != ""
}

// clone returns a deep copy so callers can never mutate registry state
// through a snapshot.
func (r *Record) clone() Record {
	out := *r
	out.Tracks = append([]TrackSummary(nil), r.Tracks...)
	out.Files = append([]FileEntry(nil), r.Files...)
	return out
}
