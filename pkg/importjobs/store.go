package importjobs

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/google/uuid"
)

// ErrNotFound is returned by a Store when no job has the requested id.
var ErrNotFound = errors.New("import job not found")

// Store persists jobs.
type Store interface {
	Create(ctx context.Context, job *Job) error
	Update(ctx context.Context, job *Job) error
	Get(ctx context.Context, id uuid.UUID) (*Job, error)
	// ListUnfinished returns jobs that have a batch but no terminal
	// status, oldest first.
	ListUnfinished(ctx context.Context) ([]*Job, error)
}

// MemoryStore is an in-process Store.
type MemoryStore struct {
	mu   sync.RWMutex
	jobs map[uuid.UUID]*Job
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{jobs: make(map[uuid.UUID]*Job)}
}

// Create stores a copy of job. It fails if the ID is already present.
func (s *MemoryStore) Create(_ context.Context, job *Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.jobs[job.ID]; ok {
		return errors.New("import job already exists")
	}
	s.jobs[job.ID] = job.clone()
	return nil
}

// Update replaces the stored copy of job, or returns ErrNotFound.
func (s *MemoryStore) Update(_ context.Context, job *Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.jobs[job.ID]; !ok {
		return ErrNotFound
	}
	s.jobs[job.ID] = job.clone()
	return nil
}

// Get returns a copy of the job with id, or ErrNotFound.
func (s *MemoryStore) Get(_ context.Context, id uuid.UUID) (*Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	job, ok := s.jobs[id]
	if !ok {
		return nil, ErrNotFound
	}
	return job.clone(), nil
}

// ListUnfinished returns copies of uploaded jobs that are not done, oldest first.
func (s *MemoryStore) ListUnfinished(_ context.Context) ([]*Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*Job
	for _, job := range s.jobs {
		if job.BatchID != 0 && !job.Done() {
			out = append(out, job.clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}
