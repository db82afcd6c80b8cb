package area

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/i474232898/city-area/internal/city"
	"github.com/i474232898/city-area/internal/geo"
	"github.com/i474232898/city-area/internal/metrics"
)

var (
	ErrInvalidOrigin      = errors.New("invalid from city")
	ErrInvalidDestination = errors.New("invalid to city")
	ErrInvalidRadius      = errors.New("invalid distance")
	ErrNoSuchJob          = errors.New("invalid guid, no such guid was found")
	ErrNotReady           = errors.New("result not yet ready")
	ErrJobFailed          = errors.New("area computation failed")
)

// CityIndex is the read-only view of the dataset the service queries.
type CityIndex interface {
	All() []city.City
	ByID(id string) (city.City, bool)
	Filter(tag string, isActive bool) []city.City
	Within(origin city.City, radiusKm float64) []city.City
}

// Service answers city queries and runs area queries in the background.
type Service struct {
	log     *slog.Logger
	cities  CityIndex
	jobs    JobStore
	metrics *metrics.Metrics
	baseURL string

	scans *semaphore.Weighted
	wg    sync.WaitGroup
}

// NewService creates a Service. baseURL prefixes result locators and
// maxScans bounds how many area scans run at the same time.
func NewService(
	log *slog.Logger,
	cities CityIndex,
	jobs JobStore,
	metrics *metrics.Metrics,
	baseURL string,
	maxScans int,
) *Service {
	if maxScans <= 0 {
		maxScans = 1
	}
	return &Service{
		log:     log,
		cities:  cities,
		jobs:    jobs,
		metrics: metrics,
		baseURL: strings.TrimRight(baseURL, "/"),
		scans:   semaphore.NewWeighted(int64(maxScans)),
	}
}

// AllCities returns the whole dataset in load order.
func (s *Service) AllCities() []city.City {
	return s.cities.All()
}

// CitiesByTag returns the cities carrying tag whose active flag equals isActive.
func (s *Service) CitiesByTag(tag string, isActive bool) []city.City {
	return s.cities.Filter(tag, isActive)
}

// Distance returns the great-circle distance between two cities.
func (s *Service) Distance(fromID, toID string) (DistanceResult, error) {
	from, ok := s.cities.ByID(fromID)
	if !ok {
		return DistanceResult{}, fmt.Errorf("%w: %q", ErrInvalidOrigin, fromID)
	}
	to, ok := s.cities.ByID(toID)
	if !ok {
		return DistanceResult{}, fmt.Errorf("%w: %q", ErrInvalidDestination, toID)
	}

	return DistanceResult{
		From:     from,
		To:       to,
		Unit:     "km",
		Distance: geo.Distance(from.Coordinate(), to.Coordinate()),
	}, nil
}

// Submit validates the origin, registers a pending job and starts the scan in
// the background. It returns before the scan necessarily finishes.
func (s *Service) Submit(ctx context.Context, fromID string, radiusKm float64) (Locator, error) {
	if radiusKm < 0 || math.IsNaN(radiusKm) || math.IsInf(radiusKm, 0) {
		return Locator{}, fmt.Errorf("%w: %v", ErrInvalidRadius, radiusKm)
	}

	origin, ok := s.cities.ByID(fromID)
	if !ok {
		return Locator{}, fmt.Errorf("%w: %q", ErrInvalidOrigin, fromID)
	}

	id, err := s.jobs.Create()
	if err != nil {
		return Locator{}, fmt.Errorf("create area job: %w", err)
	}

	s.metrics.JobsSubmitted.Inc()
	s.metrics.JobsPending.Inc()

	s.log.DebugContext(ctx, "Area job submitted", "job", id, "from", fromID, "radius_km", radiusKm)

	s.wg.Add(1)
	go s.run(id, origin, radiusKm)

	return Locator{Handle: id, ResultsURL: s.resultsURL(id)}, nil
}

// Poll returns the result of a finished job. ErrNotReady means the caller
// should try again later.
func (s *Service) Poll(id string) ([]city.City, error) {
	job, ok := s.jobs.Get(id)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNoSuchJob, id)
	}

	switch job.Status {
	case StatusPending:
		return nil, ErrNotReady
	case StatusFailed:
		return nil, fmt.Errorf("%w: %s", ErrJobFailed, job.Err)
	default:
		return job.Cities, nil
	}
}

// Wait blocks until every scan started so far has written its outcome, or ctx ends.
func (s *Service) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Service) resultsURL(id string) string {
	return s.baseURL + "/area-result/" + id
}

// run executes one scan and records its outcome in the job store.
func (s *Service) run(id string, origin city.City, radiusKm float64) {
	defer s.wg.Done()
	defer s.metrics.JobsPending.Dec()

	// Scans are never cancelled, so the background context is intended here.
	ctx := context.Background()
	if err := s.scans.Acquire(ctx, 1); err != nil {
		s.finish(ctx, id, nil, err)
		return
	}
	defer s.scans.Release(1)

	start := time.Now()
	cities, err := s.scan(origin, radiusKm)
	s.metrics.ScanSeconds.Observe(time.Since(start).Seconds())

	s.finish(ctx, id, cities, err)
}

func (s *Service) scan(origin city.City, radiusKm float64) (cities []city.City, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("scan panicked: %v", r)
		}
	}()
	return s.cities.Within(origin, radiusKm), nil
}

func (s *Service) finish(ctx context.Context, id string, cities []city.City, scanErr error) {
	status := StatusReady
	var err error
	if scanErr != nil {
		status = StatusFailed
		s.log.ErrorContext(ctx, "Area scan failed", "job", id, "error", scanErr)
		err = s.jobs.Fail(id, scanErr)
	} else {
		err = s.jobs.Complete(id, cities)
	}

	if err != nil {
		// The handle came from this store; losing it breaks the store's contract.
		s.log.ErrorContext(ctx, "Job store rejected scan outcome", "job", id, "status", status, "error", err)
		return
	}

	s.metrics.JobsFinished.WithLabelValues(string(status)).Inc()
	s.log.DebugContext(ctx, "Area job finished", "job", id, "status", status, "cities", len(cities))
}
