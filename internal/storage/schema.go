// ABOUTME: SQLite schema definition and initialization for the run ledger.
// ABOUTME: Defines tables for pipeline runs and processed payload files.
package storage

// initSchema creates or updates the database schema.
func (d *DB) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		source TEXT NOT NULL,
		status TEXT NOT NULL,
		record_date TEXT,
		report_id TEXT,
		error TEXT,
		delivered INTEGER NOT NULL DEFAULT 0,
		delivery_error TEXT,
		started_at TEXT NOT NULL,
		finished_at TEXT
	);

	CREATE TABLE IF NOT EXISTS processed_payloads (
		path TEXT PRIMARY KEY,
		run_id TEXT NOT NULL,
		processed_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at DESC);
	`

	_, err := d.db.Exec(schema)
	return err
}
