package area

import (
	"errors"

	"github.com/i474232898/city-area/internal/city"
)

var (
	// ErrUnknownJob is returned by a JobStore for a handle it never issued.
	ErrUnknownJob = errors.New("unknown job handle")
	// ErrJobFinished is returned when finishing a job that already left pending.
	ErrJobFinished = errors.New("job already finished")
)

// JobStore is the registry of job handles the service writes into and polls.
// Implementations must be safe for concurrent use and must never block on
// anything but their own short critical sections.
type JobStore interface {
	// Create registers a fresh pending job and returns its handle.
	Create() (string, error)
	// Complete moves a pending job to ready with the given result.
	Complete(id string, cities []city.City) error
	// Fail moves a pending job to failed.
	Fail(id string, cause error) error
	// Get returns the job for id; false means the handle is unknown.
	Get(id string) (Job, bool)
}
