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

	MatchesComputed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "matching_results_total",
			Help: "Match results produced, by outcome of the score threshold",
		},
		[]string{"outcome"},
	)

	MatchQueryDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name: "matching_query_duration_seconds",
			Help: "End-to-end duration of a matching query",
		},
	)

	BookingTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "booking_transitions_total",
			Help: "Booking status transitions applied",
		},
		[]string{"to_status"},
	)

	SlotConflicts = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "schedule_slot_conflicts_total",
			Help: "Confirmation attempts rejected because the slot was taken",
		},
	)
)
