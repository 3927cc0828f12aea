package job

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"tunepull/internal/media"
)

// Registry is the in-memory job store. Every read and write happens under
// one mutex; callers only ever see deep snapshots.
type Registry struct {
	mu   sync.Mutex
	jobs map[string]*Record
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{jobs: make(map[string]*Record)}
}

// Create inserts a queued record for the input and returns its snapshot.
func (r *Registry) Create(input string, format media.Format) Record {
	rec := &Record{
		ID:           uuid.NewString(),
		Status:       StatusQueued,
		Input:        input,
		OutputFormat: format,
		Tracks:       []TrackSummary{},
		Files:        []FileEntry{},
		CreatedAt:    time.Now().UTC(),
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.jobs[rec.ID] = rec
	return rec.clone()
}

// Get returns a snapshot of the job, or ErrJobNotFound.
func (r *Registry) Get(id string) (Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.jobs[id]
	if !ok {
		return Record{}, ErrJobNotFound
	}
	return rec.clone(), nil
}

// Update applies fn to the stored record under the registry lock. Unknown
// ids are ignored: a job may have been removed while its goroutine was
// still running.
func (r *Registry) Update(id string, fn func(*Record)) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if rec, ok := r.jobs[id]; ok {
		fn(rec)
	}
}

// AppendFile adds a produced file to the job record.
func (r *Registry) AppendFile(id string, entry FileEntry) {
	r.Update(id, func(rec *Record) {
		rec.Files = append(rec.Files, entry)
	})
}

// Remove deletes the record. The caller owns cleanup of the job workdir.
func (r *Registry) Remove(id string) (Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.jobs[id]
	if !ok {
		return Record{}, ErrJobNotFound
	}
	delete(r.jobs, id)
	return rec.clone(), nil
}
