// ABOUTME: Tests for the record normalizer.
// ABOUTME: Covers aggregation policy, derived fields, unit handling, and failures.
package ingest

import (
	"errors"
	"testing"
	"time"

	"github.com/harperreed/bodycomp/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sample(date string, qty float64) models.Sample {
	return models.Sample{Date: date, Qty: &qty, Source: "test"}
}

func series(name, units string, samples ...models.Sample) models.MetricSeries {
	return models.MetricSeries{Name: name, Units: units, Data: samples}
}

func payload(metrics ...models.MetricSeries) *models.Payload {
	return &models.Payload{Data: models.PayloadData{Metrics: metrics}}
}

func TestNormalizeAggregation(t *testing.T) {
	p := payload(
		series("step_count", "count",
			sample("2025-08-10 08:00:00 +0900", 1200),
			sample("2025-08-10 12:00:00 +0900", 3400.5),
		),
		series("weight_body_mass", "kg",
			sample("2025-08-10 07:00:00 +0900", 72.8),
			sample("2025-08-10 21:00:00 +0900", 72.1),
		),
		series("body_fat_percentage", "%", sample("2025-08-10 07:00:00 +0900", 18.0)),
	)

	rec, err := Normalize(p)
	require.NoError(t, err)

	assert.Equal(t, "2025-08-10", rec.DateString())
	require.NotNil(t, rec.Steps)
	assert.Equal(t, 4600.5, *rec.Steps)
	require.NotNil(t, rec.WeightKg)
	assert.Equal(t, 72.1, *rec.WeightKg, "point metrics keep the last sample")
	require.NotNil(t, rec.FatMassKg)
	assert.Equal(t, 12.98, *rec.FatMassKg)
}

func TestNormalizeDerivedFields(t *testing.T) {
	tests := []struct {
		name         string
		metrics      []models.MetricSeries
		wantFatMass  *float64
		wantExpended *float64
		wantBalance  *float64
	}{
		{
			name: "weight without fat percentage leaves fat mass null",
			metrics: []models.MetricSeries{
				series("body_mass", "kg", sample("2025-08-10", 70)),
			},
		},
		{
			name: "basal alone still yields energy expended",
			metrics: []models.MetricSeries{
				series("basal_energy_burned", "kcal", sample("2025-08-10", 1500)),
			},
			wantExpended: models.Float(1500),
		},
		{
			name: "balance needs intake and expended",
			metrics: []models.MetricSeries{
				series("dietary_energy", "kcal", sample("2025-08-10", 1800), sample("2025-08-10", 200)),
				series("basal_energy_burned", "kcal", sample("2025-08-10", 1500)),
				series("active_energy", "kcal", sample("2025-08-10", 300), sample("2025-08-10", 250)),
			},
			wantExpended: models.Float(2050),
			wantBalance:  models.Float(-50),
		},
		{
			name: "intake without expenditure leaves balance null",
			metrics: []models.MetricSeries{
				series("dietary_energy_consumed", "kcal", sample("2025-08-10", 1800)),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, err := Normalize(payload(tt.metrics...))
			require.NoError(t, err)
			assert.Equal(t, tt.wantFatMass, rec.FatMassKg)
			assert.Equal(t, tt.wantExpended, rec.EnergyExpended)
			assert.Equal(t, tt.wantBalance, rec.EnergyBalance)
		})
	}
}

func TestNormalizeIgnoresUnknownMetrics(t *testing.T) {
	rec, err := Normalize(payload(
		series("heart_rate", "bpm", sample("2025-08-10", 62)),
		series("Dietary Protein", "g", sample("2025-08-10", 40), sample("2025-08-10", 35.25)),
	))
	require.NoError(t, err)
	require.NotNil(t, rec.ProteinG)
	assert.Equal(t, 75.3, *rec.ProteinG)
	assert.Equal(t, 1, rec.Count())
}

func TestNormalizeUnits(t *testing.T) {
	rec, err := Normalize(payload(
		series("active_energy", "kJ", sample("2025-08-10", 418.4)),
	))
	require.NoError(t, err)
	require.NotNil(t, rec.ActiveEnergy)
	assert.Equal(t, 100.0, *rec.ActiveEnergy)
}

func TestNormalizeSleepShapes(t *testing.T) {
	total := 6.75
	rec, err := Normalize(payload(
		models.MetricSeries{Name: "sleep_analysis", Units: "hr", Data: []models.Sample{
			{Date: "2025-08-10 00:00:00 +0900", TotalSleep: &total},
		}},
	))
	require.NoError(t, err)
	require.NotNil(t, rec.SleepHours)
	assert.Equal(t, 6.75, *rec.SleepHours)
}

func TestNormalizeDateStripsOffset(t *testing.T) {
	rec, err := Normalize(payload(
		series("step_count", "count", sample("2025-07-31 23:30:00 +0900", 10)),
	))
	require.NoError(t, err)
	assert.True(t, rec.Date.Equal(time.Date(2025, 7, 31, 0, 0, 0, 0, time.UTC)))
}

func TestNormalizeErrors(t *testing.T) {
	tests := []struct {
		name    string
		payload *models.Payload
	}{
		{name: "nil payload", payload: nil},
		{name: "no metrics", payload: payload()},
		{name: "only unknown metrics", payload: payload(series("heart_rate", "bpm", sample("2025-08-10", 60)))},
		{name: "samples without values", payload: payload(series("step_count", "count", models.Sample{Date: "2025-08-10"}))},
		{name: "unparseable date", payload: payload(series("step_count", "count", sample("yesterday", 10)))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, err := Normalize(tt.payload)
			require.Error(t, err)
			assert.Nil(t, rec)

			var nerr *NormalizationError
			assert.True(t, errors.As(err, &nerr), "want NormalizationError, got %T", err)
		})
	}
}

func TestDecode(t *testing.T) {
	p, err := Decode([]byte(`{"data":{"metrics":[]}}`))
	require.NoError(t, err)
	assert.Empty(t, p.Data.Metrics)

	doc := `{"data":{"metrics":[{"name":"step_count","units":"count","data":[{"date":"2025-08-10 00:00:00 +0900","qty":1200,"source":"iPhone"}]}],"workouts":[{"name":"Walk"}]}}`
	p, err = Decode([]byte(doc))
	require.NoError(t, err)
	require.Len(t, p.Data.Metrics, 1)
	assert.Equal(t, "step_count", p.Data.Metrics[0].Name)
	assert.Len(t, p.Data.Workouts, 1)

	_, err = Decode([]byte(`not json`))
	var nerr *NormalizationError
	require.True(t, errors.As(err, &nerr))
	assert.Equal(t, "malformed document", nerr.Reason)
}

func TestCanonicalName(t *testing.T) {
	assert.Equal(t, "dietary_energy_consumed", CanonicalName(" Dietary Energy Consumed "))
	assert.Equal(t, "step_count", CanonicalName("step-count"))
}

func TestIsCumulative(t *testing.T) {
	assert.True(t, IsCumulative(models.FieldSteps))
	assert.False(t, IsCumulative(models.FieldWeight))
	assert.False(t, IsCumulative(models.FieldSleepHours))
}
