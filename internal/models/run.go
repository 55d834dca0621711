// ABOUTME: Run model journaling one pipeline execution and its delivery outcome.
// ABOUTME: Runs are written to the ledger when they start and updated when they finish.
package models

import (
	"time"

	"github.com/google/uuid"
)

// RunStatus is the outcome of a pipeline run.
type RunStatus string

const (
	RunRunning   RunStatus = "running"
	RunSucceeded RunStatus = "succeeded"
	RunRejected  RunStatus = "rejected"
	RunFailed    RunStatus = "failed"
)

// Run is one pipeline execution.
type Run struct {
	ID            uuid.UUID  `json:"id"`
	Source        string     `json:"source"`
	Status        RunStatus  `json:"status"`
	RecordDate    *time.Time `json:"record_date,omitempty"`
	ReportID      string     `json:"report_id,omitempty"`
	Error         string     `json:"error,omitempty"`
	Delivered     bool       `json:"delivered"`
	DeliveryError string     `json:"delivery_error,omitempty"`
	StartedAt     time.Time  `json:"started_at"`
	FinishedAt    *time.Time `json:"finished_at,omitempty"`
}

// NewRun creates a running Run for source with a generated UUID.
func NewRun(source string) *Run {
	return &Run{
		ID:        uuid.New(),
		Source:    source,
		Status:    RunRunning,
		StartedAt: time.Now(),
	}
}

// Finish marks the run finished with status.
func (r *Run) Finish(status RunStatus) *Run {
	now := time.Now()
	r.Status = status
	r.FinishedAt = &now
	return r
}

// Duration returns how long the run took, zero while running.
func (r *Run) Duration() time.Duration {
	if r.FinishedAt == nil {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}
