package area

import (
	"time"

	"github.com/i474232898/city-area/internal/city"
)

// Status is the lifecycle state of an area job.
type Status string

const (
	StatusPending Status = "pending"
	StatusReady   Status = "ready"
	StatusFailed  Status = "failed"
)

// Terminal reports whether no further transition is possible from s.
func (s Status) Terminal() bool {
	return s == StatusReady || s == StatusFailed
}

// Job is a snapshot of one asynchronous area query.
type Job struct {
	ID         string
	Status     Status
	Cities     []city.City // set when Status is StatusReady
	Err        string      // set when Status is StatusFailed
	CreatedAt  time.Time
	FinishedAt time.Time
}

// Locator tells a client where to poll for a job's result.
type Locator struct {
	Handle     string `json:"-"`
	ResultsURL string `json:"resultsUrl"`
}

// DistanceResult is the answer to a pairwise distance query.
type DistanceResult struct {
	From     city.City `json:"from"`
	To       city.City `json:"to"`
	Unit     string    `json:"unit"`
	Distance float64   `json:"distance"`
}
