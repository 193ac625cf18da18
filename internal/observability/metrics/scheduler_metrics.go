package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	JobResultOK    = "ok"
	JobResultError = "error"
)

// SchedulerMetrics captures background job health signals.
type SchedulerMetrics struct {
	jobRuns     *prometheus.CounterVec
	jobDuration *prometheus.HistogramVec
	purged      *prometheus.CounterVec
}

func NewSchedulerMetrics() *SchedulerMetrics {
	return &SchedulerMetrics{
		jobRuns: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "reflist_scheduler_job_runs_total",
			Help: "Scheduler job executions by job and result.",
		}, []string{"job", "result"}),
		jobDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "reflist_scheduler_job_duration_seconds",
			Help:    "Scheduler job execution latency by job.",
			Buckets: prometheus.DefBuckets,
		}, []string{"job"}),
		purged: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "reflist_scheduler_purged_total",
			Help: "Records removed by sweep jobs.",
		}, []string{"job"}),
	}
}

func (m *SchedulerMetrics) RecordRun(job, result string, duration time.Duration) {
	if m == nil {
		return
	}
	m.jobRuns.WithLabelValues(job, result).Inc()
	m.jobDuration.WithLabelValues(job).Observe(duration.Seconds())
}

func (m *SchedulerMetrics) RecordPurged(job string, count int) {
	if m == nil || count <= 0 {
		return
	}
	m.purged.WithLabelValues(job).Add(float64(count))
}
