package jobs

import (
	"errors"
	"sync"
	"time"

	"github.com/forPelevin/hlreel/internal/types"
)

var (
	// ErrNotFound is returned for an unknown job id.
	ErrNotFound = errors.New("job not found")
	// ErrTerminal is returned when mutating a completed or failed job.
	ErrTerminal = errors.New("job already finished")
	// ErrExists is returned when creating a job with an id already in use.
	ErrExists = errors.New("job already exists")
)

// Registry holds every job created since process start. Records are never
// evicted.
type Registry struct {
	mu   sync.RWMutex
	jobs map[string]*Job
	now  func() time.Time
}

func NewRegistry() *Registry {
	return &Registry{jobs: make(map[string]*Job), now: time.Now}
}

// Create registers a new job in processing state with progress 0.
func (r *Registry) Create(id, message string) (Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.jobs[id]; ok {
		return Job{}, ErrExists
	}
	j := &Job{
		ID:        id,
		Status:    StatusProcessing,
		Message:   message,
		CreatedAt: r.now().UTC(),
	}
	r.jobs[id] = j
	return *j, nil
}

// Get returns a snapshot of the job.
func (r *Registry) Get(id string) (Job, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	j, ok := r.jobs[id]
	if !ok {
		return Job{}, ErrNotFound
	}
	return j.clone(), nil
}

// Progress records a step transition. Progress never decreases and is capped
// at 100; the message is always replaced.
func (r *Registry) Progress(id string, pct int, message string) (Job, error) {
	return r.update(id, func(j *Job) {
		if pct > 100 {
			pct = 100
		}
		if pct > j.Progress {
			j.Progress = pct
		}
		j.Message = message
	})
}

// Complete marks the job completed with progress 100.
func (r *Registry) Complete(id, outputDir string, meta *types.Metadata) (Job, error) {
	return r.update(id, func(j *Job) {
		j.Status = StatusCompleted
		j.Progress = 100
		j.Message = "Processing completed successfully"
		j.OutputDir = outputDir
		j.Metadata = meta
	})
}

// Fail marks the job failed. Progress stays where it was.
func (r *Registry) Fail(id, message string) (Job, error) {
	return r.update(id, func(j *Job) {
		j.Status = StatusError
		j.Message = message
	})
}

func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.jobs)
}

func (r *Registry) update(id string, fn func(*Job)) (Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	j, ok := r.jobs[id]
	if !ok {
		return Job{}, ErrNotFound
	}
	if j.Status.Terminal() {
		return j.clone(), ErrTerminal
	}
	fn(j)
	return j.clone(), nil
}
