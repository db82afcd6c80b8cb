package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	JobsSubmitted prometheus.Counter
	JobsFinished  *prometheus.CounterVec
	JobsPending   prometheus.Gauge
	JobsEvicted   prometheus.Counter
	ScanSeconds   prometheus.Histogram
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	return &Metrics{
		JobsSubmitted: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "area_jobs_submitted_total",
			Help: "Total number of accepted area queries.",
		}),
		JobsFinished: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "area_jobs_finished_total",
			Help: "Total number of area queries that reached a terminal state.",
		}, []string{"status"}),
		JobsPending: promauto.With(reg).NewGauge(prometheus.GaugeOpts{
			Name: "area_jobs_pending",
			Help: "Current number of area queries still scanning.",
		}),
		JobsEvicted: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "area_jobs_evicted_total",
			Help: "Total number of finished area jobs removed by the sweeper.",
		}),
		ScanSeconds: promauto.With(reg).NewHistogram(prometheus.HistogramOpts{
			Name:    "area_scan_duration_seconds",
			Help:    "Duration of a single area scan.",
			Buckets: prometheus.DefBuckets,
		}),
	}
}
