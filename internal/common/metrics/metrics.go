package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	WorkerJobsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_completed_total",
			Help: "Total number of jobs completed by worker",
		},
		[]string{"task_type"},
	)

	WorkerJobsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_failed_total",
			Help: "Total number of jobs failed by worker",
		},
		[]string{"task_type", "error_code"},
	)

	WorkerJobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "worker_job_duration_seconds",
			Help: "Duration of job processing in seconds",
		},
		[]string{"task_type"},
	)

	WorkerJobsActive = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "worker_jobs_active",
			Help: "Number of active jobs per worker",
		},
		[]string{"task_type"},
	)

	ApplicationsScored = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "scoring_applications_scored_total",
			Help: "Applications whose auto score was recalculated",
		},
	)

	CriteriaCompileErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "scoring_criteria_compile_errors_total",
			Help: "Scoring criteria that failed to compile and scored zero",
		},
	)

	SelectionDecisions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "selection_decisions_total",
			Help: "Applications marked selected or rejected by bulk confirmation",
		},
		[]string{"result"},
	)

	NotificationsSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "selection_notifications_sent_total",
			Help: "Selection result notifications delivered by channel",
		},
		[]string{"channel"},
	)

	CacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_lookups_total",
			Help: "Redis cache lookups by cache and outcome",
		},
		[]string{"cache", "outcome"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "scoring_api_request_duration_seconds",
			Help:    "Scoring API request latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)
)

// CacheOutcome labels a cache lookup for CacheLookups.
func CacheOutcome(found bool, err error) string {
	switch {
	case err != nil:
		return "error"
	case found:
		return "hit"
	default:
		return "miss"
	}
}
