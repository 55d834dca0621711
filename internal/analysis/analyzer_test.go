// ABOUTME: Tests for the progress analyzer.
// ABOUTME: Covers goal progress, projection, per-window deltas, and history guards.
package analysis

import (
	"testing"
	"time"

	"github.com/harperreed/bodycomp/internal/models"
	"github.com/harperreed/bodycomp/internal/stats"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(n int) time.Time {
	return time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, n)
}

func fp(v float64) *float64 { return &v }

// meanTable builds a rolling table of n rows with empty means.
func meanTable(n int) *stats.RollingTable {
	t := &stats.RollingTable{Windows: []int{7, 14, 28}}
	for i := 0; i < n; i++ {
		row := stats.RollingRow{
			Record: models.DailyRecord{Date: day(i)},
			Means:  map[int]map[models.Field]*float64{},
		}
		for _, w := range t.Windows {
			row.Means[w] = map[models.Field]*float64{}
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}

// setMeans assigns value(i) to every window mean of f.
func setMeans(t *stats.RollingTable, f models.Field, value func(i int) float64) {
	for i := range t.Rows {
		v := models.Round(value(i), 2)
		for _, w := range t.Windows {
			t.Rows[i].Means[w][f] = fp(v)
		}
	}
}

func newTestAnalyzer() *Analyzer {
	a := NewAnalyzer(DefaultOptions())
	a.now = func() time.Time { return time.Date(2025, 9, 1, 8, 0, 0, 0, time.UTC) }
	return a
}

func linearFatPct(t *stats.RollingTable) {
	setMeans(t, models.FieldFatPct, func(i int) float64 { return 20 - 3*float64(i)/27 })
}

func TestGoalProgress(t *testing.T) {
	table := meanTable(28)
	linearFatPct(table)

	r := newTestAnalyzer().Analyze(table)

	assert.NotEmpty(t, r.ID)
	assert.Equal(t, 28, r.Rows)
	assert.True(t, r.AsOf.Equal(day(27)))

	g := r.Goal
	require.NotNil(t, g.Start)
	require.NotNil(t, g.Current)
	assert.Equal(t, 20.0, *g.Start)
	assert.Equal(t, 17.0, *g.Current)
	assert.Equal(t, 37.5, *g.ProgressPct)
	assert.Equal(t, -5.0, *g.Remaining)

	require.NotNil(t, g.WeeklyRate)
	assert.Equal(t, -0.778, *g.WeeklyRate)
	assert.Equal(t, models.ProjectionOnPace, g.Projection.Status)
	require.NotNil(t, g.Projection.WeeksNeeded)
	assert.Equal(t, 6.4, *g.Projection.WeeksNeeded)
	require.NotNil(t, g.Projection.Date)
	assert.True(t, g.Projection.Date.Equal(day(27+45)), "got %s", g.Projection.Date)
}

func TestLongWindowDelta(t *testing.T) {
	table := meanTable(28)
	linearFatPct(table)

	r := newTestAnalyzer().Analyze(table)
	var fat models.MetricDeltas
	for _, d := range r.Deltas {
		if d.Field == models.FieldFatPct {
			fat = d
		}
	}
	require.Equal(t, models.FieldFatPct, fat.Field)
	require.NotNil(t, fat.Change(28))
	assert.Equal(t, -3.0, *fat.Change(28))
	require.NotNil(t, fat.Change(7))
	assert.Equal(t, -0.67, *fat.Change(7))
	require.NotNil(t, fat.Current)
	assert.Equal(t, 17.0, *fat.Current)
}

func TestWindowChangeGuards(t *testing.T) {
	table := meanTable(27)
	linearFatPct(table)

	_, err := WindowChange(table, 28, models.FieldFatPct)
	assert.ErrorIs(t, err, ErrInsufficientData)

	v, err := WindowChange(table, 14, models.FieldFatPct)
	require.NoError(t, err)
	assert.Less(t, v, 0.0)

	short := meanTable(5)
	linearFatPct(short)
	r := newTestAnalyzer().Analyze(short)
	for _, d := range r.Deltas {
		for _, c := range d.Changes {
			assert.Nil(t, c.Change, "%s %d-day delta needs %d values", d.Field, c.Window, c.Window)
		}
	}
	assert.Nil(t, r.Stall.Stalled)
	assert.Equal(t, models.StatusInsufficient, r.Status.FatLoss)
	assert.False(t, r.Stall.NeedsCorrection)
}

func TestWindowsAreIndependent(t *testing.T) {
	flat := make([]models.DailyRecord, 30)
	bumped := make([]models.DailyRecord, 30)
	for i := range flat {
		flat[i] = models.DailyRecord{Date: day(i), FatMassKg: fp(18)}
		bumped[i] = models.DailyRecord{Date: day(i), FatMassKg: fp(18)}
	}
	bumped[27].FatMassKg = fp(18.1)

	a, err := stats.Recompute(flat, nil)
	require.NoError(t, err)
	b, err := stats.Recompute(bumped, nil)
	require.NoError(t, err)

	long0, err := WindowChange(a, 28, models.FieldFatMass)
	require.NoError(t, err)
	long1, err := WindowChange(b, 28, models.FieldFatMass)
	require.NoError(t, err)
	assert.Equal(t, long0, long1, "a bump inside the short window leaves the long delta unchanged")

	short0, err := WindowChange(a, 7, models.FieldFatMass)
	require.NoError(t, err)
	short1, err := WindowChange(b, 7, models.FieldFatMass)
	require.NoError(t, err)
	assert.Equal(t, 0.0, short0)
	assert.Equal(t, 0.01, short1)
}

func TestAnalyzeEmptyTable(t *testing.T) {
	r := newTestAnalyzer().Analyze(&stats.RollingTable{Windows: stats.DefaultWindows})

	assert.Equal(t, 0, r.Rows)
	assert.True(t, r.AsOf.IsZero())
	assert.Nil(t, r.Goal.Start)
	assert.Nil(t, r.Goal.ProgressPct)
	assert.Equal(t, models.ProjectionInsufficient, r.Goal.Projection.Status)
	assert.Empty(t, r.Deltas)
	assert.Nil(t, r.Stall.Stalled)
	assert.Equal(t, models.StatusInsufficient, r.Status.Muscle)
	assert.Equal(t, models.StatusInsufficient, r.Macros.Protein)
	assert.Nil(t, r.Calories.Adjustment)
}

func TestProgressPct(t *testing.T) {
	assert.Equal(t, 37.5, ProgressPct(20, 17, 12))
	assert.Equal(t, 0.0, ProgressPct(12, 12, 12))
	assert.Equal(t, 0.0, ProgressPct(12, 10, 12))
	assert.Equal(t, 50.0, ProgressPct(60, 62.5, 65))
}

func TestProject(t *testing.T) {
	asOf := day(10)

	tests := []struct {
		name    string
		start   float64
		current float64
		rate    *float64
		want    models.ProjectionStatus
	}{
		{"on pace", 20, 17, fp(-0.5), models.ProjectionOnPace},
		{"moving away", 20, 17, fp(0.2), models.ProjectionNotOnPace},
		{"flat", 20, 17, fp(0), models.ProjectionNotOnPace},
		{"no rate", 20, 17, nil, models.ProjectionInsufficient},
		{"reached", 20, 11.5, fp(-0.5), models.ProjectionReached},
		{"start at target", 12, 12, nil, models.ProjectionReached},
		{"start at target then above", 12, 13, fp(-0.2), models.ProjectionOnPace},
		{"start at target drifting away", 12, 13, fp(0.2), models.ProjectionNotOnPace},
		{"start at target then below", 12, 11, nil, models.ProjectionInsufficient},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Project(tt.start, tt.current, 12, tt.rate, asOf)
			assert.Equal(t, tt.want, p.Status)
			if tt.want != models.ProjectionOnPace && tt.want != models.ProjectionReached {
				assert.Nil(t, p.WeeksNeeded)
				assert.Nil(t, p.Date)
			}
		})
	}

	p := Project(20, 17, 12, fp(-0.5), asOf)
	assert.Equal(t, 10.0, *p.WeeksNeeded)
	assert.True(t, p.Date.Equal(asOf.AddDate(0, 0, 70)))

	p = Project(12, 13, 12, fp(-0.2), asOf)
	assert.Equal(t, 5.0, *p.WeeksNeeded)
	assert.True(t, p.Date.Equal(asOf.AddDate(0, 0, 35)))
}

func TestWeeklyRate(t *testing.T) {
	_, err := WeeklyRate(nil, 28)
	assert.ErrorIs(t, err, ErrInsufficientData)

	_, err = WeeklyRate([]stats.Point{{Date: day(0), Value: 1}, {Date: day(0), Value: 2}}, 28)
	assert.ErrorIs(t, err, ErrInsufficientData, "same-day points have no elapsed time")

	var series []stats.Point
	for i := 0; i < 40; i++ {
		series = append(series, stats.Point{Date: day(i), Value: 80 - 0.1*float64(i)})
	}
	rate, err := WeeklyRate(series, 28)
	require.NoError(t, err)
	assert.InDelta(t, -0.7, rate, 1e-9)
}
