package store

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/i474232898/city-area/internal/area"
	"github.com/i474232898/city-area/internal/city"
)

// ErrHandleCollision is returned when the generator yields an already issued handle.
var ErrHandleCollision = errors.New("job handle already issued")

// MemoryJobStore is a concurrency-safe in-memory implementation of area.JobStore.
type MemoryJobStore struct {
	mu sync.RWMutex

	// key: job handle
	jobs map[string]*area.Job

	// retention configuration
	ttl time.Duration // finished jobs older than ttl are swept (0 = keep forever)

	newID func() string
	now   func() time.Time
}

// NewMemoryJobStore creates a store. If ttl is <= 0 finished jobs are never evicted.
func NewMemoryJobStore(ttl time.Duration) *MemoryJobStore {
	return &MemoryJobStore{
		jobs:  make(map[string]*area.Job),
		ttl:   ttl,
		newID: uuid.NewString,
		now:   time.Now,
	}
}

// Create registers a new pending job under a fresh random handle.
func (s *MemoryJobStore) Create() (string, error) {
	id := s.newID()

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.jobs[id]; exists {
		return "", fmt.Errorf("%w: %s", ErrHandleCollision, id)
	}

	s.jobs[id] = &area.Job{
		ID:        id,
		Status:    area.StatusPending,
		CreatedAt: s.now().UTC(),
	}
	return id, nil
}

// Complete stores the result of a pending job.
func (s *MemoryJobStore) Complete(id string, cities []city.City) error {
	result := make([]city.City, len(cities))
	copy(result, cities)

	return s.finish(id, func(job *area.Job) {
		job.Status = area.StatusReady
		job.Cities = result
	})
}

// Fail marks a pending job as failed.
func (s *MemoryJobStore) Fail(id string, cause error) error {
	msg := "unknown error"
	if cause != nil {
		msg = cause.Error()
	}

	return s.finish(id, func(job *area.Job) {
		job.Status = area.StatusFailed
		job.Err = msg
	})
}

func (s *MemoryJobStore) finish(id string, apply func(job *area.Job)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[id]
	if !ok {
		return fmt.Errorf("%w: %s", area.ErrUnknownJob, id)
	}
	if job.Status.Terminal() {
		return fmt.Errorf("%w: %s is %s", area.ErrJobFinished, id, job.Status)
	}

	apply(job)
	job.FinishedAt = s.now().UTC()
	return nil
}

// Get returns a copy of the job registered under id.
func (s *MemoryJobStore) Get(id string) (area.Job, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	job, ok := s.jobs[id]
	if !ok {
		return area.Job{}, false
	}

	out := *job
	if job.Cities != nil {
		out.Cities = make([]city.City, len(job.Cities))
		copy(out.Cities, job.Cities)
	}
	return out, true
}

// Len returns the number of registered jobs, finished or not.
func (s *MemoryJobStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.jobs)
}

// Sweep removes finished jobs whose results are older than the ttl and returns
// how many were removed. Pending jobs are always kept.
func (s *MemoryJobStore) Sweep() int {
	if s.ttl <= 0 {
		return 0
	}

	cutoff := s.now().UTC().Add(-s.ttl)

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, job := range s.jobs {
		if job.Status.Terminal() && job.FinishedAt.Before(cutoff) {
			delete(s.jobs, id)
			removed++
		}
	}
	return removed
}
