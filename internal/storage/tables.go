// ABOUTME: Writers for the derived rolling-average and index tables.
// ABOUTME: Both tables are rebuilt from the daily history and replaced atomically.
package storage

import (
	"fmt"

	"github.com/harperreed/bodycomp/internal/models"
	"github.com/harperreed/bodycomp/internal/stats"
)

// RollingHeader returns the rolling table header: the daily columns followed
// by each field's window means.
func RollingHeader(windows []int) []string {
	header := DefaultHistoryHeader()
	for _, f := range models.AllFields {
		for _, w := range windows {
			header = append(header, stats.MeanColumn(f, w))
		}
	}
	return header
}

// EncodeRolling renders the rolling table as CSV bytes.
func EncodeRolling(t *stats.RollingTable) ([]byte, error) {
	rows := make([][]string, 0, len(t.Rows))
	for _, row := range t.Rows {
		cells := []string{row.Record.DateString()}
		for _, f := range models.AllFields {
			cells = append(cells, formatCell(row.Record.Get(f)))
		}
		for _, f := range models.AllFields {
			for _, w := range t.Windows {
				cells = append(cells, formatCell(row.Mean(w, f)))
			}
		}
		rows = append(rows, cells)
	}
	return encodeCSV(RollingHeader(t.Windows), rows)
}

// SaveRolling atomically replaces the rolling table at path.
func SaveRolling(path string, t *stats.RollingTable) error {
	data, err := EncodeRolling(t)
	if err != nil {
		return fmt.Errorf("save rolling table: %w", err)
	}
	if err := writeFileAtomic(path, data); err != nil {
		return fmt.Errorf("save rolling table: %w", err)
	}
	return nil
}

// SaveIndex atomically replaces the index table at path.
func SaveIndex(path string, t *stats.IndexTable) error {
	header := []string{models.DateColumn}
	for _, f := range t.Fields {
		header = append(header, stats.IndexColumn(f))
	}
	rows := make([][]string, 0, len(t.Rows))
	for _, row := range t.Rows {
		cells := []string{row.Record.DateString()}
		for _, f := range t.Fields {
			cells = append(cells, formatCell(row.Values[f]))
		}
		rows = append(rows, cells)
	}
	if err := writeCSV(path, header, rows); err != nil {
		return fmt.Errorf("save index table: %w", err)
	}
	return nil
}
