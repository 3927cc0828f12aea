// Package api implements the REST API.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"tunepull/internal/catalog"
	"tunepull/internal/job"
	"tunepull/internal/media"
	"tunepull/internal/pipeline"
	"tunepull/internal/resolver"
	"tunepull/internal/spotify"
)

// InputResolver turns loose input into a canonical identity.
type InputResolver interface {
	Resolve(ctx context.Context, input string) (*media.Meta, error)
}

// Acquirer downloads one identity's audio into a working directory.
type Acquirer interface {
	Acquire(ctx context.Context, m *media.Meta, out media.Format, workdir string) (string, error)
}

// Embedder writes identity tags into a downloaded file.
type Embedder interface {
	Embed(ctx context.Context, path string, m *media.Meta) error
}

// Jobs is the playlist job surface the API exposes.
type Jobs interface {
	Start(ctx context.Context, url string, format media.Format) (string, error)
	ItemFile(jobID, fileID string) (path, filename string, err error)
	Archive(jobID string) (path, filename string, err error)
}

// Server is the API server.
type Server struct {
	resolver      InputResolver
	acquirer      Acquirer
	embedder      Embedder
	jobs          Jobs
	registry      *job.Registry
	defaultFormat media.Format
	log           *slog.Logger
}

// New creates an API server. defaultFormat is used when a request does
// not name an output format.
func New(res InputResolver, acq Acquirer, emb Embedder, jobs Jobs, reg *job.Registry, defaultFormat media.Format, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	if defaultFormat == "" {
		defaultFormat = media.DefaultFormat
	}
	return &Server{
		resolver:      res,
		acquirer:      acq,
		embedder:      emb,
		jobs:          jobs,
		registry:      reg,
		defaultFormat: defaultFormat,
		log:           log.With("component", "api"),
	}
}

// RegisterRoutes registers API routes on the given mux.
func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/resolve", s.resolve)
	mux.HandleFunc("POST /api/download", s.download)

	mux.HandleFunc("POST /api/playlist/start", s.playlistStart)
	mux.HandleFunc("GET /api/playlist/status/{job_id}", s.playlistStatus)
	mux.HandleFunc("GET /api/playlist/file/{job_id}/{file_id}", s.playlistFile)
	mux.HandleFunc("GET /api/playlist/download/{job_id}", s.playlistDownload)

	mux.HandleFunc("GET /api/health", s.health)
}

func writeError(w http.ResponseWriter, code int, errCode, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(errorResponse{Error: message, Code: errCode})
}

func writeJSON(w http.ResponseWriter, code int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(data)
}

// writeMapped translates sentinel errors into their HTTP status.
func writeMapped(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, resolver.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, "INVALID_INPUT", err.Error())
	case errors.Is(err, media.ErrUnsupportedFormat):
		writeError(w, http.StatusBadRequest, "UNSUPPORTED_FORMAT", err.Error())
	case errors.Is(err, job.ErrNotPlaylist):
		writeError(w, http.StatusBadRequest, "NOT_PLAYLIST", err.Error())
	case errors.Is(err, catalog.ErrNoMatch):
		writeError(w, http.StatusNotFound, "NO_MATCH", err.Error())
	case errors.Is(err, job.ErrJobNotFound):
		writeError(w, http.StatusNotFound, "JOB_NOT_FOUND", "Playlist job not found")
	case errors.Is(err, job.ErrItemNotFound):
		writeError(w, http.StatusNotFound, "ITEM_NOT_FOUND", "Track file not found")
	case errors.Is(err, job.ErrNotReady):
		writeError(w, http.StatusConflict, "NOT_READY", "Playlist is not ready yet")
	case errors.Is(err, job.ErrFileGone):
		writeError(w, http.StatusGone, "FILE_GONE", "File is no longer available")
	case errors.Is(err, pipeline.ErrDownloadExhausted):
		writeError(w, http.StatusBadGateway, "DOWNLOAD_FAILED", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "INTERNAL", err.Error())
	}
}

// decodeInput reads the {input, format} body. "url" is accepted as an
// alias for "input"; an absent format selects the configured default.
func (s *Server) decodeInput(r *http.Request) (string, media.Format, error) {
	var req inputRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return "", "", errors.New("invalid JSON body")
	}
	input := strings.TrimSpace(req.Input)
	if input == "" {
		input = strings.TrimSpace(req.URL)
	}
	if strings.TrimSpace(req.Format) == "" {
		return input, s.defaultFormat, nil
	}
	format, err := media.ParseFormat(req.Format)
	if err != nil {
		return "", "", err
	}
	return input, format, nil
}

func (s *Server) resolve(w http.ResponseWriter, r *http.Request) {
	input, _, err := s.decodeInput(r)
	if err != nil {
		if errors.Is(err, media.ErrUnsupportedFormat) {
			writeMapped(w, err)
			return
		}
		writeError(w, http.StatusBadRequest, "INVALID_JSON", err.Error())
		return
	}

	m, err := s.resolver.Resolve(r.Context(), input)
	if err != nil {
		writeMapped(w, err)
		return
	}

	writeJSON(w, http.StatusOK, resolveToResponse(m))
}

func (s *Server) download(w http.ResponseWriter, r *http.Request) {
	input, format, err := s.decodeInput(r)
	if err != nil {
		if errors.Is(err, media.ErrUnsupportedFormat) {
			writeMapped(w, err)
			return
		}
		writeError(w, http.StatusBadRequest, "INVALID_JSON", err.Error())
		return
	}
	if spotify.IsPlaylistURL(input) {
		writeError(w, http.StatusBadRequest, "NOT_SINGLE_ITEM", "Use /api/playlist/start for Spotify playlists")
		return
	}

	m, err := s.resolver.Resolve(r.Context(), input)
	if err != nil {
		writeMapped(w, err)
		return
	}

	workdir, err := os.MkdirTemp("", "tunepull-dl-")
	if err != nil {
		writeError(w, http.StatusInternalServerError, "INTERNAL", err.Error())
		return
	}
	defer func() { _ = os.RemoveAll(workdir) }()

	path, err := s.acquirer.Acquire(r.Context(), m, format, workdir)
	if err != nil {
		writeMapped(w, err)
		return
	}
	if err := s.embedder.Embed(r.Context(), path, m); err != nil {
		s.log.Warn("tag embed failed", "input", input, "error", err)
	}

	ext := strings.ToLower(filepath.Ext(path))
	serveFile(w, r, path, m.BaseFilename()+ext, media.ContentTypeForExt(ext))
}

func (s *Server) playlistStart(w http.ResponseWriter, r *http.Request) {
	input, format, err := s.decodeInput(r)
	if err != nil {
		if errors.Is(err, media.ErrUnsupportedFormat) {
			writeMapped(w, err)
			return
		}
		writeError(w, http.StatusBadRequest, "INVALID_JSON", err.Error())
		return
	}

	id, err := s.jobs.Start(r.Context(), input, format)
	if err != nil {
		writeMapped(w, err)
		return
	}

	writeJSON(w, http.StatusOK, startResponse{JobID: id, Status: string(job.StatusQueued)})
}

func (s *Server) playlistStatus(w http.ResponseWriter, r *http.Request) {
	rec, err := s.registry.Get(r.PathValue("job_id"))
	if err != nil {
		writeMapped(w, err)
		return
	}
	writeJSON(w, http.StatusOK, statusToResponse(rec))
}

func (s *Server) playlistFile(w http.ResponseWriter, r *http.Request) {
	path, filename, err := s.jobs.ItemFile(r.PathValue("job_id"), r.PathValue("file_id"))
	if err != nil {
		writeMapped(w, err)
		return
	}
	ext := strings.ToLower(filepath.Ext(filename))
	serveFile(w, r, path, filename, media.ContentTypeForExt(ext))
}

func (s *Server) playlistDownload(w http.ResponseWriter, r *http.Request) {
	path, filename, err := s.jobs.Archive(r.PathValue("job_id"))
	if err != nil {
		writeMapped(w, err)
		return
	}
	serveFile(w, r, path, filename, "application/zip")
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func serveFile(w http.ResponseWriter, r *http.Request, path, filename, contentType string) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	http.ServeFile(w, r, path)
}
