package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tunepull/internal/job"
	"tunepull/internal/media"
	"tunepull/internal/pipeline"
	"tunepull/internal/resolver"
)

type fakeResolver struct {
	meta *media.Meta
	err  error
}

func (f *fakeResolver) Resolve(context.Context, string) (*media.Meta, error) {
	return f.meta, f.err
}

type fakeAcquirer struct {
	err error
}

func (f *fakeAcquirer) Acquire(_ context.Context, _ *media.Meta, out media.Format, workdir string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	path := filepath.Join(workdir, "vid."+string(media.FormatMP3))
	return path, os.WriteFile(path, []byte("audio-bytes"), 0o644)
}

type fakeEmbedder struct{ err error }

func (f *fakeEmbedder) Embed(context.Context, string, *media.Meta) error { return f.err }

type fakeJobs struct {
	startID  string
	startErr error

	filePath string
	fileName string
	fileErr  error
}

func (f *fakeJobs) Start(context.Context, string, media.Format) (string, error) {
	return f.startID, f.startErr
}

func (f *fakeJobs) ItemFile(string, string) (string, string, error) {
	return f.filePath, f.fileName, f.fileErr
}

func (f *fakeJobs) Archive(string) (string, string, error) {
	return f.filePath, f.fileName, f.fileErr
}

func newTestServer(t *testing.T, s *Server) *http.ServeMux {
	t.Helper()
	mux := http.NewServeMux()
	s.RegisterRoutes(mux)
	return mux
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func doJSON(t *testing.T, mux *http.ServeMux, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder, into any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), into))
}

func TestHealth(t *testing.T) {
	mux := newTestServer(t, New(nil, nil, nil, nil, nil, media.DefaultFormat, testLogger()))

	w := doJSON(t, mux, http.MethodGet, "/api/health", "")
	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]bool
	decodeBody(t, w, &body)
	assert.True(t, body["ok"])
}

func TestResolve(t *testing.T) {
	res := &fakeResolver{meta: &media.Meta{
		Input:     "believer imagine dragons",
		Source:    media.SourceText,
		Title:     "Believer",
		Artist:    "Imagine Dragons",
		Query:     "believer imagine dragons",
		VideoURL:  "https://youtube.com/watch?v=abc",
		VideoID:   "abc",
		Channel:   "ImagineDragons",
		MediaType: "search",
	}}
	mux := newTestServer(t, New(res, nil, nil, nil, nil, media.DefaultFormat, testLogger()))

	w := doJSON(t, mux, http.MethodPost, "/api/resolve", `{"input":"believer imagine dragons"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	var body resolveResponse
	decodeBody(t, w, &body)
	assert.Equal(t, "text", body.Source)
	assert.Equal(t, "Believer", body.Title)
	assert.Equal(t, "https://youtube.com/watch?v=abc", body.VideoURL)
	assert.Equal(t, "believer imagine dragons", body.Query)
	assert.NotEmpty(t, body.MatchConfidence, "matched video must carry a confidence")
	assert.Greater(t, body.MatchScore, 0.0)
}

func TestResolve_ErrorMapping(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
		wantBody string
	}{
		{"invalid input", resolver.ErrInvalidInput, http.StatusBadRequest, "INVALID_INPUT"},
		{"no match", errors.New("x"), http.StatusInternalServerError, "INTERNAL"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mux := newTestServer(t, New(&fakeResolver{err: tt.err}, nil, nil, nil, nil, media.DefaultFormat, testLogger()))

			w := doJSON(t, mux, http.MethodPost, "/api/resolve", `{"input":"x"}`)
			assert.Equal(t, tt.wantCode, w.Code)

			var body errorResponse
			decodeBody(t, w, &body)
			assert.Equal(t, tt.wantBody, body.Code)
		})
	}
}

func TestResolve_BadJSON(t *testing.T) {
	mux := newTestServer(t, New(&fakeResolver{}, nil, nil, nil, nil, media.DefaultFormat, testLogger()))

	w := doJSON(t, mux, http.MethodPost, "/api/resolve", "{not json")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDownload(t *testing.T) {
	res := &fakeResolver{meta: &media.Meta{
		Source: media.SourceYouTube,
		Title:  "Believer",
		Artist: "Imagine Dragons",
	}}
	mux := newTestServer(t, New(res, &fakeAcquirer{}, &fakeEmbedder{}, nil, nil, media.DefaultFormat, testLogger()))

	w := doJSON(t, mux, http.MethodPost, "/api/download", `{"input":"https://youtu.be/abc"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "audio/mpeg", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), `filename="Imagine Dragons - Believer.mp3"`)
	assert.Equal(t, "audio-bytes", w.Body.String())
}

func TestDownload_RejectsPlaylist(t *testing.T) {
	mux := newTestServer(t, New(&fakeResolver{}, &fakeAcquirer{}, &fakeEmbedder{}, nil, nil, media.DefaultFormat, testLogger()))

	w := doJSON(t, mux, http.MethodPost, "/api/download",
		`{"input":"https://open.spotify.com/playlist/37i9dQ"}`)
	require.Equal(t, http.StatusBadRequest, w.Code)

	var body errorResponse
	decodeBody(t, w, &body)
	assert.Equal(t, "NOT_SINGLE_ITEM", body.Code)
	assert.Contains(t, body.Error, "/api/playlist/start")
}

func TestDownload_UnsupportedFormat(t *testing.T) {
	mux := newTestServer(t, New(&fakeResolver{}, &fakeAcquirer{}, &fakeEmbedder{}, nil, nil, media.DefaultFormat, testLogger()))

	w := doJSON(t, mux, http.MethodPost, "/api/download", `{"input":"x","format":"flac"}`)
	require.Equal(t, http.StatusBadRequest, w.Code)

	var body errorResponse
	decodeBody(t, w, &body)
	assert.Equal(t, "UNSUPPORTED_FORMAT", body.Code)
}

func TestDownload_ExhaustedMapsToBadGateway(t *testing.T) {
	res := &fakeResolver{meta: &media.Meta{Source: media.SourceText, Title: "x"}}
	acq := &fakeAcquirer{err: pipeline.ErrDownloadExhausted}
	mux := newTestServer(t, New(res, acq, &fakeEmbedder{}, nil, nil, media.DefaultFormat, testLogger()))

	w := doJSON(t, mux, http.MethodPost, "/api/download", `{"input":"x"}`)
	assert.Equal(t, http.StatusBadGateway, w.Code)
}

func TestDownload_EmbedFailureIsNotFatal(t *testing.T) {
	res := &fakeResolver{meta: &media.Meta{Source: media.SourceText, Title: "x"}}
	emb := &fakeEmbedder{err: errors.New("corrupt header")}
	mux := newTestServer(t, New(res, &fakeAcquirer{}, emb, nil, nil, media.DefaultFormat, testLogger()))

	w := doJSON(t, mux, http.MethodPost, "/api/download", `{"input":"x"}`)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "audio-bytes", w.Body.String())
}

func TestPlaylistStart(t *testing.T) {
	jobs := &fakeJobs{startID: "job-1"}
	mux := newTestServer(t, New(nil, nil, nil, jobs, nil, media.DefaultFormat, testLogger()))

	w := doJSON(t, mux, http.MethodPost, "/api/playlist/start",
		`{"input":"https://open.spotify.com/playlist/abc"}`)
	require.Equal(t, http.StatusOK, w.Code)

	var body startResponse
	decodeBody(t, w, &body)
	assert.Equal(t, "job-1", body.JobID)
	assert.Equal(t, "queued", body.Status)
}

func TestPlaylistStart_NotPlaylist(t *testing.T) {
	jobs := &fakeJobs{startErr: job.ErrNotPlaylist}
	mux := newTestServer(t, New(nil, nil, nil, jobs, nil, media.DefaultFormat, testLogger()))

	w := doJSON(t, mux, http.MethodPost, "/api/playlist/start", `{"input":"hello"}`)
	require.Equal(t, http.StatusBadRequest, w.Code)

	var body errorResponse
	decodeBody(t, w, &body)
	assert.Equal(t, "NOT_PLAYLIST", body.Code)
}

func TestPlaylistStatus(t *testing.T) {
	reg := job.NewRegistry()
	rec := reg.Create("https://open.spotify.com/playlist/abc", media.FormatOpus)
	reg.Update(rec.ID, func(r *job.Record) {
		r.Status = job.StatusRunning
		r.Total = 3
		r.Done = 1
		r.PlaylistTitle = "Mix"
		r.Current = "downloading in parallel (3 workers)"
		r.Tracks = []job.TrackSummary{{ID: "1", Index: 1, Title: "A", Artist: "B"}}
	})
	reg.AppendFile(rec.ID, job.FileEntry{ID: "1", Index: 1, Title: "A", Artist: "B", Filename: "001 - B - A.opus"})

	mux := newTestServer(t, New(nil, nil, nil, nil, reg, media.DefaultFormat, testLogger()))

	w := doJSON(t, mux, http.MethodGet, "/api/playlist/status/"+rec.ID, "")
	require.Equal(t, http.StatusOK, w.Code)

	var body statusResponse
	decodeBody(t, w, &body)
	assert.Equal(t, rec.ID, body.ID)
	assert.Equal(t, "running", body.Status)
	assert.Equal(t, 3, body.Total)
	assert.Equal(t, 1, body.Done)
	assert.Equal(t, "Mix", body.PlaylistTitle)
	assert.Equal(t, "opus", body.OutputFormat)
	assert.False(t, body.Ready)
	require.Len(t, body.Files, 1)
	assert.Equal(t, "001 - B - A.opus", body.Files[0].Filename)
	require.Len(t, body.Tracks, 1)

	// Internal paths never leak through the status payload.
	assert.NotContains(t, w.Body.String(), `"path"`)
}

func TestPlaylistStatus_Unknown(t *testing.T) {
	mux := newTestServer(t, New(nil, nil, nil, nil, job.NewRegistry(), media.DefaultFormat, testLogger()))

	w := doJSON(t, mux, http.MethodGet, "/api/playlist/status/nope", "")
	require.Equal(t, http.StatusNotFound, w.Code)

	var body errorResponse
	decodeBody(t, w, &body)
	assert.Equal(t, "JOB_NOT_FOUND", body.Code)
}

func TestPlaylistFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "001 - B - A.mp3")
	require.NoError(t, os.WriteFile(path, []byte("track-bytes"), 0o644))
	jobs := &fakeJobs{filePath: path, fileName: "001 - B - A.mp3"}
	mux := newTestServer(t, New(nil, nil, nil, jobs, nil, media.DefaultFormat, testLogger()))

	w := doJSON(t, mux, http.MethodGet, "/api/playlist/file/j1/1", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "audio/mpeg", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "001 - B - A.mp3")
	assert.Equal(t, "track-bytes", w.Body.String())
}

func TestPlaylistFile_Gone(t *testing.T) {
	jobs := &fakeJobs{fileErr: job.ErrFileGone}
	mux := newTestServer(t, New(nil, nil, nil, jobs, nil, media.DefaultFormat, testLogger()))

	w := doJSON(t, mux, http.MethodGet, "/api/playlist/file/j1/1", "")
	assert.Equal(t, http.StatusGone, w.Code)
}

func TestPlaylistDownload_NotReady(t *testing.T) {
	jobs := &fakeJobs{fileErr: job.ErrNotReady}
	mux := newTestServer(t, New(nil, nil, nil, jobs, nil, media.DefaultFormat, testLogger()))

	w := doJSON(t, mux, http.MethodGet, "/api/playlist/download/j1", "")
	require.Equal(t, http.StatusConflict, w.Code)

	var body errorResponse
	decodeBody(t, w, &body)
	assert.Equal(t, "NOT_READY", body.Code)
}

func TestPlaylistDownload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "Mix.zip")
	require.NoError(t, os.WriteFile(path, []byte("zip-bytes"), 0o644))
	jobs := &fakeJobs{filePath: path, fileName: "Mix.zip"}
	mux := newTestServer(t, New(nil, nil, nil, jobs, nil, media.DefaultFormat, testLogger()))

	w := doJSON(t, mux, http.MethodGet, "/api/playlist/download/j1", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/zip", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "Mix.zip")
	assert.Equal(t, "zip-bytes", w.Body.String())
}
