// Package job runs playlist acquisitions: an in-memory registry of job
// records and an orchestrator that resolves a playlist, downloads its
// items through a bounded worker pool, and packages the results.
package job

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"

	"tunepull/internal/media"
	"tunepull/internal/spotify"
)

const (
	defaultWorkers = 3
	maxWorkers     = 8
)

// PlaylistResolver expands a playlist URL into its ordered tracks.
// *spotify.Client satisfies it.
type PlaylistResolver interface {
	ResolvePlaylistAPI(ctx context.Context, url string) (*spotify.Playlist, error)
	ResolvePlaylistScrape(ctx context.Context, url string) (*spotify.Playlist, error)
}

// Acquirer downloads one identity's audio into a working directory.
type Acquirer interface {
	Acquire(ctx context.Context, m *media.Meta, out media.Format, workdir string) (string, error)
}

// Embedder writes identity tags into a downloaded file.
type Embedder interface {
	Embed(ctx context.Context, path string, m *media.Meta) error
}

// Orchestrator starts and supervises playlist jobs.
type Orchestrator struct {
	registry  *Registry
	playlists PlaylistResolver
	acquirer  Acquirer
	embedder  Embedder
	workers   int
	log       *slog.Logger
}

// NewOrchestrator creates an orchestrator. workers is the configured pool
// size, clamped to [1, 8] at dispatch time; 0 selects the default of 3.
func NewOrchestrator(reg *Registry, pl PlaylistResolver, acq Acquirer, emb Embedder, workers int, log *slog.Logger) *Orchestrator {
	if log == nil {
		log = slog.Default()
	}
	return &Orchestrator{
		registry:  reg,
		playlists: pl,
		acquirer:  acq,
		embedder:  emb,
		workers:   workers,
		log:       log.With("component", "job"),
	}
}

// Start validates the input, inserts a queued record, and launches the
// job's execution in the background. It returns the job id immediately;
// execution outcomes are only ever visible through the job's status.
func (o *Orchestrator) Start(ctx context.Context, url string, format media.Format) (string, error) {
	if !spotify.IsPlaylistURL(url) {
		return "", ErrNotPlaylist
	}

	rec := o.registry.Create(url, format)

	// The job must outlive the request that started it.
	go o.run(context.WithoutCancel(ctx), rec.ID, url, format)

	return rec.ID, nil
}

// run executes one job to a terminal state. Panics are recovered into
// failed; a job is never left stuck in running.
func (o *Orchestrator) run(ctx context.Context, id, url string, format media.Format) {
	defer func() {
		if rec := recover(); rec != nil {
			o.log.Error("playlist job panicked", "job_id", id, "panic", rec)
			o.fail(id, fmt.Sprintf("internal error: %v", rec))
		}
	}()

	log := o.log.With("job_id", id)

	workdir, err := os.MkdirTemp("", "tunepull-"+shortID(id)+"-")
	if err != nil {
		o.fail(id, "create job directory: "+err.Error())
		return
	}
	filesDir := filepath.Join(workdir, "files")
	if err := os.MkdirAll(filesDir, 0o755); err != nil {
		o.fail(id, "create files directory: "+err.Error())
		return
	}

	o.registry.Update(id, func(r *Record) {
		r.Status = StatusRunning
		r.Workdir = workdir
	})

	pl, err := o.resolvePlaylist(ctx, url)
	if err != nil {
		log.Warn("playlist resolution failed", "error", err)
		o.fail(id, err.Error())
		return
	}

	total := len(pl.Tracks)
	workers := o.poolSize(total)
	log.Info("playlist resolved", "title", pl.Title, "tracks", total, "mode", pl.Mode, "workers", workers)

	summaries := make([]TrackSummary, total)
	for i, tr := range pl.Tracks {
		summaries[i] = TrackSummary{
			ID:     strconv.Itoa(i + 1),
			Index:  i + 1,
			Title:  tr.Title,
			Artist: tr.Artist,
		}
	}
	o.registry.Update(id, func(r *Record) {
		r.PlaylistTitle = pl.Title
		r.CoverURL = pl.CoverURL
		r.SourceMode = pl.Mode
		r.Total = total
		r.Tracks = summaries
		r.Current = fmt.Sprintf("downloading in parallel (%d workers)", workers)
	})

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := range pl.Tracks {
		idx, track := i+1, pl.Tracks[i]
		g.Go(func() error {
			entry, err := o.processTrack(gctx, idx, &track, filesDir, format)
			if err != nil {
				log.Warn("track failed", "index", idx, "title", track.Title, "error", err)
				o.registry.Update(id, func(r *Record) { r.Failed++ })
				return nil
			}
			o.registry.Update(id, func(r *Record) {
				r.Files = append(r.Files, entry)
				r.Done++
			})
			return nil
		})
	}
	_ = g.Wait()

	names, err := audioFiles(filesDir)
	if err != nil {
		o.fail(id, "read files directory: "+err.Error())
		return
	}
	if len(names) == 0 {
		o.fail(id, "no tracks were downloaded")
		return
	}

	archivePath := filepath.Join(workdir, media.SanitizeFilename(pl.Title, "playlist")+".zip")
	if err := zipFiles(archivePath, filesDir, names); err != nil {
		o.fail(id, "package archive: "+err.Error())
		return
	}

	o.registry.Update(id, func(r *Record) {
		if !r.Status.CanTransitionTo(StatusDone) {
			return
		}
		r.Status = StatusDone
		r.ArchivePath = archivePath
		r.Current = ""
	})
	log.Info("playlist job finished", "files", len(names), "archive", archivePath)
}

// resolvePlaylist prefers the API strategy, falling back to the public
// page scrape only when the API path is unavailable: missing credentials
// or a non-200 answer.
func (o *Orchestrator) resolvePlaylist(ctx context.Context, url string) (*spotify.Playlist, error) {
	pl, err := o.playlists.ResolvePlaylistAPI(ctx, url)
	if err == nil {
		return pl, nil
	}
	if errors.Is(err, spotify.ErrNoCredentials) || errors.Is(err, spotify.ErrAPIUnavailable) {
		o.log.Info("api resolution unavailable, scraping public page", "error", err)
		return o.playlists.ResolvePlaylistScrape(ctx, url)
	}
	return nil, err
}

// processTrack acquires, tags, and files one item. It works in a private
// temp dir and copies the finished file into the shared files directory
// under a collision-proof name.
func (o *Orchestrator) processTrack(ctx context.Context, idx int, track *media.Meta, filesDir string, format media.Format) (FileEntry, error) {
	tmpdir, err := os.MkdirTemp("", "tunepull-track-")
	if err != nil {
		return FileEntry{}, err
	}
	defer func() { _ = os.RemoveAll(tmpdir) }()

	path, err := o.acquirer.Acquire(ctx, track, format, tmpdir)
	if err != nil {
		return FileEntry{}, err
	}
	if err := o.embedder.Embed(ctx, path, track); err != nil {
		o.log.Warn("tag embed failed", "index", idx, "error", err)
	}

	ext := strings.ToLower(filepath.Ext(path))
	if ext == "" {
		ext = ".bin"
	}
	name := fmt.Sprintf("%03d - %s%s", idx, track.BaseFilename(), ext)
	dest := filepath.Join(filesDir, name)
	if err := copyFile(path, dest); err != nil {
		return FileEntry{}, err
	}

	return FileEntry{
		ID:       strconv.Itoa(idx),
		Index:    idx,
		Title:    track.Title,
		Artist:   track.Artist,
		Filename: name,
		Path:     dest,
	}, nil
}

// ItemFile returns the path and filename of one produced file.
func (o *Orchestrator) ItemFile(jobID, fileID string) (string, string, error) {
	rec, err := o.registry.Get(jobID)
	if err != nil {
		return "", "", err
	}
	for _, f := range rec.Files {
		if f.ID == fileID {
			if _, err := os.Stat(f.Path); err != nil {
				return "", "", ErrFileGone
			}
			return f.Path, f.Filename, nil
		}
	}
	return "", "", ErrItemNotFound
}

// Archive returns the path and filename of the job's zip.
func (o *Orchestrator) Archive(jobID string) (string, string, error) {
	rec, err := o.registry.Get(jobID)
	if err != nil {
		return "", "", err
	}
	if !rec.Ready() {
		return "", "", ErrNotReady
	}
	if _, err := os.Stat(rec.ArchivePath); err != nil {
		return "", "", ErrFileGone
	}
	return rec.ArchivePath, filepath.Base(rec.ArchivePath), nil
}

// Remove drops the job record and deletes its working directory.
func (o *Orchestrator) Remove(jobID string) error {
	rec, err := o.registry.Remove(jobID)
	if err != nil {
		return err
	}
	if rec.Workdir != "" {
		if err := os.RemoveAll(rec.Workdir); err != nil {
			return fmt.Errorf("remove job workdir: %w", err)
		}
	}
	return nil
}

// fail marks a job failed. A job already in a terminal state is left
// alone, so the panic-recovery defer in run cannot overwrite done.
func (o *Orchestrator) fail(id, msg string) {
	o.registry.Update(id, func(r *Record) {
		if !r.Status.CanTransitionTo(StatusFailed) {
			return
		}
		r.Status = StatusFailed
		r.Error = msg
		r.Current = ""
	})
}

// poolSize clamps the configured worker count to [1, 8] and never exceeds
// the item count.
func (o *Orchestrator) poolSize(total int) int {
	workers := o.workers
	if workers == 0 {
		workers = defaultWorkers
	}
	if workers < 1 {
		workers = 1
	}
	if workers > maxWorkers {
		workers = maxWorkers
	}
	if total >= 1 && workers > total {
		workers = total
	}
	return workers
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
