package scheduler

import (
	"log/slog"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/city-area/internal/metrics"
)

type countingSweeper struct {
	calls atomic.Int32
}

func (c *countingSweeper) Sweep() int {
	c.calls.Add(1)
	return 2
}

func TestSchedulerSweeps(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	m := metrics.NewMetrics(prometheus.NewRegistry())
	sw := &countingSweeper{}

	s := New(logger, sw, m, 20*time.Millisecond)
	require.NoError(t, s.Start())
	defer s.Stop()

	assert.Eventually(t, func() bool { return sw.calls.Load() >= 2 }, 2*time.Second, 10*time.Millisecond)
	assert.Eventually(t, func() bool { return testutil.ToFloat64(m.JobsEvicted) >= 4 }, time.Second, 10*time.Millisecond)
}

func TestSchedulerDisabled(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	m := metrics.NewMetrics(prometheus.NewRegistry())
	sw := &countingSweeper{}

	s := New(logger, sw, m, 0)
	require.NoError(t, s.Start())
	defer s.Stop()

	time.Sleep(50 * time.Millisecond)
	assert.Zero(t, sw.calls.Load())
}
