// ABOUTME: Ledger interface for the pipeline's run journal.
// ABOUTME: Defines the contract for run records and processed-payload tracking.
package storage

import (
	"github.com/google/uuid"
	"github.com/harperreed/bodycomp/internal/models"
)

// Ledger defines the run journal the pipeline writes to.
// This interface allows swapping implementations (e.g., for testing).
type Ledger interface {
	// Run operations
	StartRun(r *models.Run) error
	FinishRun(r *models.Run) error
	GetRun(idOrPrefix string) (*models.Run, error)
	ListRuns(limit int) ([]*models.Run, error)
	LatestRun() (*models.Run, error)

	// Payload tracking
	MarkProcessed(path string, runID uuid.UUID) error
	IsProcessed(path string) (bool, error)

	// Lifecycle
	Close() error
}

var _ Ledger = (*DB)(nil)
