// ABOUTME: Run ledger operations for SQLite storage.
// ABOUTME: Journals pipeline runs and remembers which payload files were processed.
package storage

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/harperreed/bodycomp/internal/models"
)

// timeLayout is fixed-width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

const runColumns = `id, source, status, record_date, report_id, error, delivered, delivery_error, started_at, finished_at`

// StartRun records a new run.
func (d *DB) StartRun(r *models.Run) error {
	query := `INSERT INTO runs (` + runColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := d.db.Exec(query, runArgs(r)...)
	if err != nil {
		return fmt.Errorf("start run: %w", err)
	}
	return nil
}

// FinishRun stores the final state of a run.
func (d *DB) FinishRun(r *models.Run) error {
	query := `
		UPDATE runs
		SET status = ?, record_date = ?, report_id = ?, error = ?,
			delivered = ?, delivery_error = ?, finished_at = ?
		WHERE id = ?
	`
	args := runArgs(r)
	result, err := d.db.Exec(query, args[2], args[3], args[4], args[5], args[6], args[7], args[9], args[0])
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("finish run: %w: %s", ErrNotFound, r.ID)
	}
	return nil
}

func runArgs(r *models.Run) []interface{} {
	var recordDate, finishedAt, reportID, errText, deliveryErr interface{}
	if r.RecordDate != nil {
		recordDate = r.RecordDate.Format(models.DateLayout)
	}
	if r.FinishedAt != nil {
		finishedAt = r.FinishedAt.UTC().Format(timeLayout)
	}
	if r.ReportID != "" {
		reportID = r.ReportID
	}
	if r.Error != "" {
		errText = r.Error
	}
	if r.DeliveryError != "" {
		deliveryErr = r.DeliveryError
	}
	delivered := 0
	if r.Delivered {
		delivered = 1
	}
	return []interface{}{
		r.ID.String(),
		r.Source,
		string(r.Status),
		recordDate,
		reportID,
		errText,
		delivered,
		deliveryErr,
		r.StartedAt.UTC().Format(timeLayout),
		finishedAt,
	}
}

// GetRun retrieves a run by ID or ID prefix.
func (d *DB) GetRun(idOrPrefix string) (*models.Run, error) {
	id, err := d.resolveRunID(idOrPrefix)
	if err != nil {
		return nil, err
	}
	rows, err := d.db.Query(`SELECT `+runColumns+` FROM runs WHERE id = ?`, id)
	if err != nil {
		return nil, fmt.Errorf("get run: %w", err)
	}
	defer rows.Close()

	runs, err := scanRuns(rows)
	if err != nil {
		return nil, err
	}
	if len(runs) == 0 {
		return nil, fmt.Errorf("get run: %w: %s", ErrNotFound, idOrPrefix)
	}
	return runs[0], nil
}

// ListRuns returns runs, most recent first. A limit of 0 returns all.
func (d *DB) ListRuns(limit int) ([]*models.Run, error) {
	query := `SELECT ` + runColumns + ` FROM runs ORDER BY started_at DESC`
	var args []interface{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := d.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	return scanRuns(rows)
}

// LatestRun returns the most recent run, or ErrNotFound.
func (d *DB) LatestRun() (*models.Run, error) {
	runs, err := d.ListRuns(1)
	if err != nil {
		return nil, err
	}
	if len(runs) == 0 {
		return nil, ErrNotFound
	}
	return runs[0], nil
}

// MarkProcessed remembers that the payload at path was handled by runID.
func (d *DB) MarkProcessed(path string, runID uuid.UUID) error {
	query := `
		INSERT INTO processed_payloads (path, run_id, processed_at) VALUES (?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET run_id = excluded.run_id, processed_at = excluded.processed_at
	`
	if _, err := d.db.Exec(query, path, runID.String(), time.Now().UTC().Format(timeLayout)); err != nil {
		return fmt.Errorf("mark processed: %w", err)
	}
	return nil
}

// IsProcessed reports whether the payload at path was already handled.
func (d *DB) IsProcessed(path string) (bool, error) {
	var n int
	err := d.db.QueryRow(`SELECT COUNT(*) FROM processed_payloads WHERE path = ?`, path).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("check processed: %w", err)
	}
	return n > 0, nil
}

// resolveRunID finds the full ID from a prefix.
func (d *DB) resolveRunID(idOrPrefix string) (string, error) {
	if len(idOrPrefix) == 36 && strings.Count(idOrPrefix, "-") == 4 {
		return idOrPrefix, nil
	}

	rows, err := d.db.Query(`SELECT id FROM runs WHERE id LIKE ? || '%'`, idOrPrefix)
	if err != nil {
		return "", fmt.Errorf("resolve run ID: %w", err)
	}
	defer rows.Close()

	var matches []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return "", fmt.Errorf("scan run ID: %w", err)
		}
		matches = append(matches, id)
	}
	if err := rows.Err(); err != nil {
		return "", fmt.Errorf("resolve run ID: %w", err)
	}

	if len(matches) == 0 {
		return "", fmt.Errorf("%w: %s", ErrNotFound, idOrPrefix)
	}
	if len(matches) > 1 {
		return "", fmt.Errorf("ambiguous prefix %s: matches multiple runs", idOrPrefix)
	}
	return matches[0], nil
}

// scanRuns scans multiple rows into a slice of Runs.
func scanRuns(rows *sql.Rows) ([]*models.Run, error) {
	var runs []*models.Run

	for rows.Next() {
		var r models.Run
		var idStr, status, startedAt string
		var recordDate, reportID, errText, deliveryErr, finishedAt sql.NullString
		var delivered int

		err := rows.Scan(&idStr, &r.Source, &status, &recordDate, &reportID, &errText,
			&delivered, &deliveryErr, &startedAt, &finishedAt)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}

		r.ID, _ = uuid.Parse(idStr)
		r.Status = models.RunStatus(status)
		r.Delivered = delivered != 0
		r.ReportID = reportID.String
		r.Error = errText.String
		r.DeliveryError = deliveryErr.String
		r.StartedAt, _ = time.Parse(timeLayout, startedAt)
		if recordDate.Valid {
			if t, err := models.ParseDate(recordDate.String); err == nil {
				r.RecordDate = &t
			}
		}
		if finishedAt.Valid {
			if t, err := time.Parse(timeLayout, finishedAt.String); err == nil {
				r.FinishedAt = &t
			}
		}

		runs = append(runs, &r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("scan runs: %w", err)
	}
	return runs, nil
}
