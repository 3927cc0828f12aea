package api

import (
	"strings"
	"time"

	"tunepull/internal/job"
	"tunepull/internal/media"
	"tunepull/internal/search"
)

// Error response
type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// inputRequest is the shared body of resolve, download, and playlist
// start. "url" is a legacy alias for "input".
type inputRequest struct {
	Input  string `json:"input"`
	URL    string `json:"url"`
	Format string `json:"format"`
}

// resolveResponse is the identity summary for POST /api/resolve.
type resolveResponse struct {
	Source          string            `json:"source"`
	Title           string            `json:"title"`
	Artist          string            `json:"artist,omitempty"`
	Album           string            `json:"album,omitempty"`
	CoverURL        string            `json:"cover_url,omitempty"`
	MediaType       string            `json:"media_type,omitempty"`
	Query           string            `json:"query"`
	DurationSeconds int               `json:"duration_seconds,omitempty"`
	ReleaseDate     string            `json:"release_date,omitempty"`
	Channel         string            `json:"channel,omitempty"`
	VideoURL        string            `json:"video_url,omitempty"`
	VideoID         string            `json:"video_id,omitempty"`
	ExtraTags       map[string]string `json:"extra_tags,omitempty"`
	MatchScore      float64           `json:"match_score,omitempty"`
	MatchConfidence string            `json:"match_confidence,omitempty"`
}

func resolveToResponse(m *media.Meta) resolveResponse {
	resp := resolveResponse{
		Source:          string(m.Source),
		Title:           m.Title,
		Artist:          m.Artist,
		Album:           m.Album,
		CoverURL:        m.CoverURL,
		MediaType:       m.MediaType,
		Query:           m.SearchQuery(),
		DurationSeconds: m.DurationSeconds,
		ReleaseDate:     m.ReleaseDate,
		Channel:         m.Channel,
		VideoURL:        m.VideoURL,
		VideoID:         m.VideoID,
		ExtraTags:       m.ExtraTags,
	}

	// Diagnostic similarity between what was asked for and what was
	// found, only meaningful once a video has been matched.
	if m.VideoURL != "" {
		candidate := strings.TrimSpace(m.Artist + " " + m.Title)
		score, level := search.Confidence(m.SearchQuery(), candidate)
		resp.MatchScore = score
		resp.MatchConfidence = level.String()
	}

	return resp
}

type startResponse struct {
	JobID  string `json:"job_id"`
	Status string `json:"status"`
}

type fileResponse struct {
	ID       string `json:"id"`
	Index    int    `json:"index"`
	Title    string `json:"title"`
	Artist   string `json:"artist"`
	Filename string `json:"filename"`
}

type trackResponse struct {
	ID     string `json:"id"`
	Index  int    `json:"index"`
	Title  string `json:"title"`
	Artist string `json:"artist"`
}

// statusResponse is the job snapshot for GET /api/playlist/status.
type statusResponse struct {
	ID            string          `json:"id"`
	Status        string          `json:"status"`
	Total         int             `json:"total"`
	Done          int             `json:"done"`
	Failed        int             `json:"failed"`
	Current       string          `json:"current,omitempty"`
	Error         string          `json:"error,omitempty"`
	PlaylistTitle string          `json:"playlist_title,omitempty"`
	CoverURL      string          `json:"cover_url,omitempty"`
	SourceMode    string          `json:"source_mode,omitempty"`
	OutputFormat  string          `json:"output_format"`
	Files         []fileResponse  `json:"files"`
	Tracks        []trackResponse `json:"tracks"`
	Ready         bool            `json:"ready"`
	CreatedAt     time.Time       `json:"created_at"`
}

func statusToResponse(rec job.Record) statusResponse {
	resp := statusResponse{
		ID:            rec.ID,
		Status:        string(rec.Status),
		Total:         rec.Total,
		Done:          rec.Done,
		Failed:        rec.Failed,
		Current:       rec.Current,
		Error:         rec.Error,
		PlaylistTitle: rec.PlaylistTitle,
		CoverURL:      rec.CoverURL,
		SourceMode:    string(rec.SourceMode),
		OutputFormat:  string(rec.OutputFormat),
		Files:         make([]fileResponse, len(rec.Files)),
		Tracks:        make([]trackResponse, len(rec.Tracks)),
		Ready:         rec.Ready(),
		CreatedAt:     rec.CreatedAt,
	}
	for i, f := range rec.Files {
		resp.Files[i] = fileResponse{
			ID:       f.ID,
			Index:    f.Index,
			Title:    f.Title,
			Artist:   f.Artist,
			Filename: f.Filename,
		}
	}
	for i, tr := range rec.Tracks {
		resp.Tracks[i] = trackResponse{
			ID:     tr.ID,
			Index:  tr.Index,
			Title:  tr.Title,
			Artist: tr.Artist,
		}
	}
	return resp
}
