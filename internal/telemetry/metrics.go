// Package telemetry exposes Prometheus metrics for the scoring engine.
package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// TogglesTotal counts toggle operations by direction and outcome.
	TogglesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hearthpoints_toggles_total",
		Help: "Habit toggle operations processed.",
	}, []string{"direction", "outcome"})

	// PointsAwardedTotal accumulates absolute points moved through the ledger.
	PointsAwardedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hearthpoints_points_moved_total",
		Help: "Absolute points applied to the ledger.",
	}, []string{"source"})

	// MigrationHabitsTotal counts per-habit migration outcomes.
	MigrationHabitsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hearthpoints_migration_habits_total",
		Help: "Habits processed by the backfill engine.",
	}, []string{"outcome"})

	// MigrationSubmissionsTotal counts backfilled ledger entries written.
	MigrationSubmissionsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "hearthpoints_migration_submissions_total",
		Help: "Backfilled submissions written.",
	})

	// SnapshotRowsTotal counts ledger snapshot rows written by the nightly job.
	SnapshotRowsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "hearthpoints_snapshot_rows_total",
		Help: "Ledger snapshot rows written.",
	})
)

// RecordLedgerDelta tracks the absolute size of a ledger movement.
func RecordLedgerDelta(source string, delta int) {
	if delta < 0 {
		delta = -delta
	}
	PointsAwardedTotal.WithLabelValues(source).Add(float64(delta))
}
