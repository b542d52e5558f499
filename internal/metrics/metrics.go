// Package metrics exposes Prometheus counters for the recorder, report, and
// retention cleanup.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// AttemptsRecorded counts persisted login attempts by outcome
	AttemptsRecorded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "loginhistory",
			Subsystem: "recorder",
			Name:      "attempts_recorded_total",
			Help:      "Login attempts persisted to the history log, by outcome",
		},
		[]string{"outcome"},
	)

	// AttemptsSkipped counts attempts dropped because the username resolved
	// to no account and logging of nonexistent users is disabled
	AttemptsSkipped = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "loginhistory",
			Subsystem: "recorder",
			Name:      "attempts_skipped_total",
			Help:      "Login attempts skipped because the user does not exist",
		},
	)

	// RecordFailures counts persistence errors swallowed by the recorder
	RecordFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "loginhistory",
			Subsystem: "recorder",
			Name:      "record_failures_total",
			Help:      "Login attempts lost to persistence errors",
		},
	)

	// RowsDeleted counts log rows removed, by reason (manual or retention)
	RowsDeleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "loginhistory",
			Subsystem: "history",
			Name:      "rows_deleted_total",
			Help:      "Login history rows deleted, by reason",
		},
		[]string{"reason"},
	)

	// CleanupRuns counts retention cleanup executions by result
	CleanupRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "loginhistory",
			Subsystem: "cleanup",
			Name:      "runs_total",
			Help:      "Retention cleanup runs, by result",
		},
		[]string{"result"},
	)
)
