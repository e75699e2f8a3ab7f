// Package report defines the run report model: one record per completed
// scenario run with its outcome and per-event trigger counts.
package report

import (
	"context"
	"fmt"
	"time"
)

// Report summarizes one scenario run.
type Report struct {
	// ID is assigned by the store on insert.
	ID string

	// RunID identifies the run that produced this report.
	RunID string

	// ScenarioName is the scenario that was executed.
	ScenarioName string

	// StartedAt is when the run began.
	StartedAt time.Time

	// EndedAt is when the run stopped.
	EndedAt time.Time

	// StopReason records why the run stopped (conditions met, manual,
	// error, all events disabled, capture lost).
	StopReason string

	// TriggerCounts maps event ID to the number of times it triggered.
	TriggerCounts map[string]int
}

// Duration returns the run length.
func (r *Report) Duration() time.Duration {
	return r.EndedAt.Sub(r.StartedAt)
}

// Validate checks the report for the minimum fields a record needs.
func (r *Report) Validate() error {
	if r.RunID == "" {
		return fmt.Errorf("report has no run id")
	}
	if r.ScenarioName == "" {
		return fmt.Errorf("report has no scenario name")
	}
	if r.EndedAt.Before(r.StartedAt) {
		return fmt.Errorf("report for run %q ends before it starts", r.RunID)
	}
	return nil
}

// Repository defines the interface for report persistence operations.
type Repository interface {
	// Insert stores a new run report.
	Insert(ctx context.Context, rep *Report) error

	// FindByScenario retrieves all reports for the named scenario,
	// newest first.
	FindByScenario(ctx context.Context, scenarioName string) ([]*Report, error)

	// FindRecent retrieves the most recent reports across all scenarios.
	FindRecent(ctx context.Context, limit int) ([]*Report, error)
}
