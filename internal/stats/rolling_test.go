// ABOUTME: Tests for the rolling statistics engine and index table.
// ABOUTME: Covers window arithmetic, null handling, rounding, and determinism.
package stats

import (
	"reflect"
	"testing"
	"time"

	"github.com/harperreed/bodycomp/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var day0 = time.Date(2025, 8, 9, 0, 0, 0, 0, time.UTC)

func records(field models.Field, values ...*float64) []models.DailyRecord {
	out := make([]models.DailyRecord, len(values))
	for i, v := range values {
		out[i] = models.DailyRecord{Date: day0.AddDate(0, 0, i)}
		out[i].Set(field, v)
	}
	return out
}

func f(v float64) *float64 { return &v }

func TestTrailingMeansMinPeriod(t *testing.T) {
	got := TrailingMeans([]*float64{f(10), f(20), f(30)}, 7)
	require.Len(t, got, 3)
	assert.Equal(t, 10.0, *got[0], "first row averages only itself")
	assert.Equal(t, 15.0, *got[1])
	assert.Equal(t, 20.0, *got[2])
}

func TestTrailingMeansWindowSlides(t *testing.T) {
	got := TrailingMeans([]*float64{f(1), f(2), f(3), f(4)}, 2)
	want := []float64{1, 1.5, 2.5, 3.5}
	for i, w := range want {
		require.NotNil(t, got[i])
		assert.Equal(t, w, *got[i], "index %d", i)
	}
}

func TestTrailingMeansSkipsNulls(t *testing.T) {
	got := TrailingMeans([]*float64{nil, f(4), nil, f(8), nil}, 3)
	assert.Nil(t, got[0], "all-null window is null")
	assert.Equal(t, 4.0, *got[1])
	assert.Equal(t, 4.0, *got[2])
	assert.Equal(t, 6.0, *got[3])
	assert.Equal(t, 8.0, *got[4])
}

func TestTrailingMeansRounding(t *testing.T) {
	got := TrailingMeans([]*float64{f(1), f(1), f(2)}, 3)
	assert.Equal(t, 1.33, *got[2])

	got = TrailingMeans([]*float64{f(1.005)}, 1)
	assert.Equal(t, 1.01, *got[0], "1.005 rounds half away from zero")
}

func TestRecomputeWindowCorrectness(t *testing.T) {
	values := []*float64{f(80), f(79.5), f(79.8), f(79.1), f(78.9), f(79.0), f(78.4)}
	table, err := Recompute(records(models.FieldWeight, values...), nil)
	require.NoError(t, err)

	last := table.Rows[len(table.Rows)-1]
	// 7 rows: the 7-window mean is the mean of all seven values.
	assert.Equal(t, 79.24, *last.Mean(7, models.FieldWeight))
	// Fewer rows than the window: mean of everything available.
	assert.Equal(t, 79.24, *last.Mean(14, models.FieldWeight))
	assert.Equal(t, 79.24, *last.Mean(28, models.FieldWeight))
	assert.Nil(t, last.Mean(7, models.FieldFatPct))
}

func TestRecomputeIsIdempotent(t *testing.T) {
	var recs []models.DailyRecord
	for i := 0; i < 60; i++ {
		r := models.DailyRecord{Date: day0.AddDate(0, 0, i)}
		r.Set(models.FieldWeight, f(80-float64(i)*0.07))
		if i%3 != 0 {
			r.Set(models.FieldFatPct, f(20-float64(i)*0.05))
		}
		r.Set(models.FieldSteps, f(float64(6000+i*37)))
		recs = append(recs, r)
	}

	a, err := Recompute(recs, DefaultWindows)
	require.NoError(t, err)
	b, err := Recompute(recs, DefaultWindows)
	require.NoError(t, err)
	assert.True(t, reflect.DeepEqual(a, b))
}

func TestRecomputeSortsByDate(t *testing.T) {
	recs := records(models.FieldWeight, f(1), f(2), f(3))
	recs[0], recs[2] = recs[2], recs[0]

	table, err := Recompute(recs, []int{2, 3})
	require.NoError(t, err)
	assert.True(t, table.Rows[0].Record.Date.Equal(day0))
	assert.Equal(t, 2.5, *table.Rows[2].Mean(2, models.FieldWeight))
}

func TestRecomputeEmpty(t *testing.T) {
	table, err := Recompute(nil, DefaultWindows)
	require.NoError(t, err)
	assert.Equal(t, 0, table.Len())
	assert.Empty(t, table.Series(7, models.FieldWeight))
}

func TestValidateWindows(t *testing.T) {
	tests := []struct {
		windows []int
		wantErr bool
	}{
		{[]int{7, 14, 28}, false},
		{[]int{3, 10}, false},
		{[]int{7}, true},
		{[]int{7, 7, 28}, true},
		{[]int{14, 7, 28}, true},
		{[]int{0, 7, 28}, true},
	}
	for _, tt := range tests {
		err := ValidateWindows(tt.windows)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateWindows(%v) error = %v, wantErr %v", tt.windows, err, tt.wantErr)
		}
	}
	_, err := Recompute(nil, []int{28, 7})
	assert.Error(t, err)
}

func TestSeriesAndRaw(t *testing.T) {
	table, err := Recompute(records(models.FieldFatPct, f(20), nil, f(19)), DefaultWindows)
	require.NoError(t, err)

	raw := table.Raw(models.FieldFatPct)
	require.Len(t, raw, 2)
	assert.Equal(t, 19.0, raw[1].Value)

	series := table.Series(7, models.FieldFatPct)
	require.Len(t, series, 3)
	assert.Equal(t, 20.0, series[1].Value, "null day carries the window mean")
	assert.Equal(t, 19.5, series[2].Value)

	assert.Len(t, table.Tail(2), 2)
	assert.Len(t, table.Tail(10), 3)
}

func TestMeanColumn(t *testing.T) {
	assert.Equal(t, "体重_kg_ma7", MeanColumn(models.FieldWeight, 7))
	assert.Equal(t, "体脂肪率_ma28", MeanColumn(models.FieldFatPct, 28))
}

func TestBuildIndex(t *testing.T) {
	var recs []models.DailyRecord
	for i := 0; i < 3; i++ {
		r := models.DailyRecord{Date: day0.AddDate(0, 0, i)}
		r.Set(models.FieldWeight, f(80))
		r.Set(models.FieldSleepHours, f(7))
		r.Set(models.FieldCarbs, f(25))
		r.Set(models.FieldSkinTempDeviation, f(-0.5))
		r.Set(models.FieldEnergyBalance, f(-500))
		recs = append(recs, r)
	}
	recs[2].Set(models.FieldWeight, f(72.8))

	table, err := Recompute(recs, []int{1, 2, 3})
	require.NoError(t, err)
	idx := BuildIndex(table)
	require.Len(t, idx.Rows, 3)

	assert.Equal(t, 100.0, *idx.Rows[0].Values[models.FieldWeight])
	assert.Equal(t, 91.0, *idx.Rows[2].Values[models.FieldWeight])
	assert.Equal(t, 100.0, *idx.Rows[0].Values[models.FieldSleepHours])
	assert.Equal(t, 50.0, *idx.Rows[0].Values[models.FieldCarbs])
	assert.Equal(t, 90.0, *idx.Rows[0].Values[models.FieldSkinTempDeviation])
	assert.Equal(t, 100.0, *idx.Rows[1].Values[models.FieldEnergyBalance], "flat series has zero spread")
	assert.Nil(t, idx.Rows[0].Values[models.FieldFiber])
	assert.Equal(t, "体重_kg_index", IndexColumn(models.FieldWeight))
}
