// ABOUTME: History store persisting one DailyRecord per calendar day as a CSV table.
// ABOUTME: Upsert is last-write-wins by date; every write is an atomic file replace.
package storage

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/harperreed/bodycomp/internal/models"
)

// OutOfRangeError rejects a record dated before the configured cutoff.
type OutOfRangeError struct {
	Date   time.Time
	Cutoff time.Time
}

func (e *OutOfRangeError) Error() string {
	return fmt.Sprintf("record date %s is before cutoff %s",
		e.Date.Format(models.DateLayout), e.Cutoff.Format(models.DateLayout))
}

// HistoryRow is one persisted day. Extra holds cells of columns the schema
// does not know about; they are written back unchanged.
type HistoryRow struct {
	Record models.DailyRecord
	Extra  map[string]string

	// cells is the row as read from disk, reused verbatim while the
	// header is unchanged and the row has not been replaced.
	cells []string
}

// HistoryTable is the daily history sorted ascending by date.
type HistoryTable struct {
	Header []string
	Rows   []HistoryRow
}

// DefaultHistoryHeader returns the header of a new history table.
func DefaultHistoryHeader() []string {
	header := []string{models.DateColumn}
	for _, f := range models.AllFields {
		header = append(header, f.Column())
	}
	return header
}

// NewHistoryTable returns an empty table with the default header.
func NewHistoryTable() *HistoryTable {
	return &HistoryTable{Header: DefaultHistoryHeader()}
}

// Len returns the number of rows.
func (t *HistoryTable) Len() int {
	return len(t.Rows)
}

// Records returns the daily records in date order.
func (t *HistoryTable) Records() []models.DailyRecord {
	out := make([]models.DailyRecord, len(t.Rows))
	for i, row := range t.Rows {
		out[i] = row.Record
	}
	return out
}

// Find returns the index of the row for date.
func (t *HistoryTable) Find(date time.Time) (int, bool) {
	key := models.CivilDate(date)
	i := sort.Search(len(t.Rows), func(i int) bool {
		return !t.Rows[i].Record.Date.Before(key)
	})
	if i < len(t.Rows) && t.Rows[i].Record.Date.Equal(key) {
		return i, true
	}
	return i, false
}

// Upsert replaces any row for rec's date with rec, then restores date order.
// Nothing from the old row survives.
func (t *HistoryTable) Upsert(rec models.DailyRecord) {
	rec.Date = models.CivilDate(rec.Date)
	if i, ok := t.Find(rec.Date); ok {
		t.Rows = append(t.Rows[:i], t.Rows[i+1:]...)
	}
	t.Rows = append(t.Rows, HistoryRow{Record: rec})
	t.sort()
}

func (t *HistoryTable) sort() {
	sort.SliceStable(t.Rows, func(i, j int) bool {
		return t.Rows[i].Record.Date.Before(t.Rows[j].Record.Date)
	})
}

func (t *HistoryTable) encodeRows() [][]string {
	rows := make([][]string, 0, len(t.Rows))
	for _, row := range t.Rows {
		if len(row.cells) == len(t.Header) {
			rows = append(rows, row.cells)
			continue
		}
		cells := make([]string, len(t.Header))
		for i, col := range t.Header {
			if col == models.DateColumn {
				cells[i] = row.Record.DateString()
				continue
			}
			if f, ok := models.FieldForColumn(col); ok {
				cells[i] = formatCell(row.Record.Get(f))
				continue
			}
			cells[i] = row.Extra[col]
		}
		rows = append(rows, cells)
	}
	return rows
}

// HistoryStore persists the HistoryTable at a single CSV path.
type HistoryStore struct {
	path   string
	cutoff time.Time
}

// NewHistoryStore creates a store at path. A zero cutoff accepts every date.
func NewHistoryStore(path string, cutoff time.Time) *HistoryStore {
	if !cutoff.IsZero() {
		cutoff = models.CivilDate(cutoff)
	}
	return &HistoryStore{path: path, cutoff: cutoff}
}

// Path returns the table's file path.
func (s *HistoryStore) Path() string {
	return s.path
}

// Cutoff returns the earliest accepted date, zero when unrestricted.
func (s *HistoryStore) Cutoff() time.Time {
	return s.cutoff
}

// CheckDate returns an OutOfRangeError when date precedes the cutoff.
func (s *HistoryStore) CheckDate(date time.Time) error {
	if s.cutoff.IsZero() {
		return nil
	}
	if d := models.CivilDate(date); d.Before(s.cutoff) {
		return &OutOfRangeError{Date: d, Cutoff: s.cutoff}
	}
	return nil
}

// Load reads the full table. A missing file is an empty table.
func (s *HistoryStore) Load() (*HistoryTable, error) {
	header, rows, err := readCSV(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return NewHistoryTable(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}
	if len(header) == 0 {
		return NewHistoryTable(), nil
	}
	return decodeHistory(header, rows)
}

// blankRow reports a row with no content, such as a trailing ",,,," line
// left by a spreadsheet.
func blankRow(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

func decodeHistory(header []string, rows [][]string) (*HistoryTable, error) {
	dateIdx := -1
	known := make(map[models.Field]bool)
	for i, col := range header {
		if col == models.DateColumn {
			dateIdx = i
		}
		if f, ok := models.FieldForColumn(col); ok {
			known[f] = true
		}
	}
	if dateIdx < 0 {
		return nil, fmt.Errorf("load history: missing %q column", models.DateColumn)
	}

	t := &HistoryTable{Header: append([]string(nil), header...)}
	for _, f := range models.AllFields {
		if !known[f] {
			t.Header = append(t.Header, f.Column())
		}
	}
	headerChanged := len(t.Header) != len(header)

	for n, cells := range rows {
		if blankRow(cells) {
			continue
		}
		row := HistoryRow{}
		for i, col := range header {
			cell := ""
			if i < len(cells) {
				cell = cells[i]
			}
			if i == dateIdx {
				d, err := parseRowDate(cell)
				if err != nil {
					return nil, fmt.Errorf("load history row %d: %w", n+2, err)
				}
				row.Record.Date = d
				continue
			}
			if f, ok := models.FieldForColumn(col); ok {
				v, err := parseCell(cell)
				if err != nil {
					return nil, fmt.Errorf("load history row %d column %s: %w", n+2, col, err)
				}
				row.Record.Set(f, v)
				continue
			}
			if row.Extra == nil {
				row.Extra = make(map[string]string)
			}
			row.Extra[col] = cell
		}
		if !headerChanged && len(cells) == len(header) {
			row.cells = cells
		}

		t.Rows = append(t.Rows, row)
	}

	// Later duplicates of a date win, matching upsert.
	t.sort()
	deduped := t.Rows[:0]
	for _, row := range t.Rows {
		if n := len(deduped); n > 0 && deduped[n-1].Record.Date.Equal(row.Record.Date) {
			deduped[n-1] = row
			continue
		}
		deduped = append(deduped, row)
	}
	t.Rows = deduped
	return t, nil
}

func parseRowDate(s string) (time.Time, error) {
	if len(s) > len(models.DateLayout) {
		s = s[:len(models.DateLayout)]
	}
	return models.ParseDate(s)
}

// Exists reports whether a row for date is stored.
func (s *HistoryStore) Exists(date time.Time) (bool, error) {
	t, err := s.Load()
	if err != nil {
		return false, err
	}
	_, ok := t.Find(date)
	return ok, nil
}

// Upsert inserts or replaces the row for rec's date and persists the table.
// Records before the cutoff are rejected without touching the file.
func (s *HistoryStore) Upsert(rec *models.DailyRecord) (*HistoryTable, error) {
	if err := s.CheckDate(rec.Date); err != nil {
		return nil, err
	}
	t, err := s.Load()
	if err != nil {
		return nil, err
	}
	t.Upsert(*rec)
	if err := s.Save(t); err != nil {
		return nil, err
	}
	return t, nil
}

// Save atomically replaces the table on disk.
func (s *HistoryStore) Save(t *HistoryTable) error {
	header := t.Header
	if len(header) == 0 {
		header = DefaultHistoryHeader()
		t.Header = header
	}
	if err := writeCSV(s.path, header, t.encodeRows()); err != nil {
		return fmt.Errorf("save history: %w", err)
	}
	return nil
}
