package scheduler

import (
	"log/slog"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/i474232898/city-area/internal/metrics"
)

// Sweeper drops expired entries and reports how many it removed.
type Sweeper interface {
	Sweep() int
}

// Scheduler periodically evicts finished area jobs from the job store.
type Scheduler struct {
	scheduler *gocron.Scheduler
	sweeper   Sweeper
	metrics   *metrics.Metrics
	log       *slog.Logger
	interval  time.Duration
}

// New creates a new Scheduler.
func New(log *slog.Logger, sweeper Sweeper, m *metrics.Metrics, interval time.Duration) *Scheduler {
	return &Scheduler{
		scheduler: gocron.NewScheduler(time.UTC),
		sweeper:   sweeper,
		metrics:   m,
		log:       log,
		interval:  interval,
	}
}

// Start schedules the sweep job and starts the underlying scheduler.
func (s *Scheduler) Start() error {
	if s.interval <= 0 {
		s.log.Info("scheduler: sweep interval not set; job eviction disabled")
		return nil
	}

	_, err := s.scheduler.Every(s.interval).WaitForSchedule().Do(s.sweep)
	if err != nil {
		return err
	}

	s.scheduler.StartAsync()
	return nil
}

// Stop stops the scheduler and cancels any future runs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}

func (s *Scheduler) sweep() {
	removed := s.sweeper.Sweep()
	if removed == 0 {
		return
	}
	s.metrics.JobsEvicted.Add(float64(removed))
	s.log.Debug("scheduler: evicted finished area jobs", "count", removed)
}
