// ABOUTME: Rolling statistics engine computing trailing window means over the history.
// ABOUTME: Windows count rows, not calendar days, with a minimum period of one row.
package stats

import (
	"fmt"
	"sort"
	"time"

	"github.com/harperreed/bodycomp/internal/models"
)

// DefaultWindows are the short, medium, and long window sizes.
var DefaultWindows = []int{7, 14, 28}

// MeanPlaces is the rounding applied to every stored rolling mean.
const MeanPlaces = 2

// RollingRow is one history row plus its window means.
type RollingRow struct {
	Record models.DailyRecord
	Means  map[int]map[models.Field]*float64
}

// Mean returns the w-window mean of f, nil when the window held no values.
func (r RollingRow) Mean(w int, f models.Field) *float64 {
	if m := r.Means[w]; m != nil {
		if v := m[f]; v != nil {
			c := *v
			return &c
		}
	}
	return nil
}

// RollingTable has one row per history row, in date order.
type RollingTable struct {
	Windows []int
	Rows    []RollingRow
}

// Point is a dated non-null value.
type Point struct {
	Date  time.Time
	Value float64
}

// Len returns the number of rows.
func (t *RollingTable) Len() int {
	return len(t.Rows)
}

// Short, Medium, and Long return the configured window sizes.
func (t *RollingTable) Short() int  { return t.Windows[0] }
func (t *RollingTable) Medium() int { return t.Windows[1] }
func (t *RollingTable) Long() int   { return t.Windows[len(t.Windows)-1] }

// Series returns the non-null w-window means of f in date order.
func (t *RollingTable) Series(w int, f models.Field) []Point {
	var out []Point
	for _, row := range t.Rows {
		if v := row.Mean(w, f); v != nil {
			out = append(out, Point{Date: row.Record.Date, Value: *v})
		}
	}
	return out
}

// Raw returns the non-null daily values of f in date order.
func (t *RollingTable) Raw(f models.Field) []Point {
	var out []Point
	for _, row := range t.Rows {
		if v := row.Record.Get(f); v != nil {
			out = append(out, Point{Date: row.Record.Date, Value: *v})
		}
	}
	return out
}

// Tail returns the last n rows (fewer when the table is shorter).
func (t *RollingTable) Tail(n int) []RollingRow {
	if n >= len(t.Rows) {
		return t.Rows
	}
	return t.Rows[len(t.Rows)-n:]
}

// MeanColumn names the persisted column of f's w-window mean.
func MeanColumn(f models.Field, w int) string {
	return fmt.Sprintf("%s_ma%d", f.Column(), w)
}

// ValidateWindows checks that windows are positive and strictly increasing,
// with at least a short and a long window.
func ValidateWindows(windows []int) error {
	if len(windows) < 2 {
		return fmt.Errorf("need at least two windows, got %d", len(windows))
	}
	for i, w := range windows {
		if w < 1 {
			return fmt.Errorf("window %d must be positive", w)
		}
		if i > 0 && w <= windows[i-1] {
			return fmt.Errorf("windows must increase: %v", windows)
		}
	}
	return nil
}

// Recompute derives the rolling table from the full history. It keeps no
// state between calls; the same records always produce the same table.
func Recompute(records []models.DailyRecord, windows []int) (*RollingTable, error) {
	if windows == nil {
		windows = DefaultWindows
	}
	if err := ValidateWindows(windows); err != nil {
		return nil, fmt.Errorf("recompute rolling stats: %w", err)
	}

	sorted := make([]models.DailyRecord, len(records))
	copy(sorted, records)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Date.Before(sorted[j].Date)
	})

	t := &RollingTable{
		Windows: append([]int(nil), windows...),
		Rows:    make([]RollingRow, len(sorted)),
	}
	for i := range sorted {
		t.Rows[i] = RollingRow{Record: sorted[i], Means: make(map[int]map[models.Field]*float64, len(windows))}
		for _, w := range windows {
			t.Rows[i].Means[w] = make(map[models.Field]*float64, len(models.AllFields))
		}
	}

	for _, f := range models.AllFields {
		column := make([]*float64, len(sorted))
		for i := range sorted {
			column[i] = sorted[i].Get(f)
		}
		for _, w := range windows {
			for i, m := range TrailingMeans(column, w) {
				t.Rows[i].Means[w][f] = m
			}
		}
	}
	return t, nil
}

// TrailingMeans returns, for each index i, the mean of the non-null values in
// values[max(0, i-w+1) : i+1], rounded to MeanPlaces. An all-null slice is nil.
func TrailingMeans(values []*float64, w int) []*float64 {
	out := make([]*float64, len(values))
	for i := range values {
		start := i - w + 1
		if start < 0 {
			start = 0
		}
		var sum float64
		var n int
		for _, v := range values[start : i+1] {
			if v != nil {
				sum += *v
				n++
			}
		}
		if n > 0 {
			out[i] = models.Float(models.Round(sum/float64(n), MeanPlaces))
		}
	}
	return out
}
