// ABOUTME: Index table normalizing short-window trends onto a common 100-based scale.
// ABOUTME: Lets composition, energy, sleep, and temperature trends share one chart.
package stats

import (
	"math"

	"github.com/harperreed/bodycomp/internal/models"
)

// IndexPlaces is the rounding applied to index values.
const IndexPlaces = 1

// Reference levels for fields indexed against a fixed value instead of their first reading.
const (
	SleepReferenceHours = 7.0
	CarbsReferenceGrams = 50.0
)

// IndexFields lists the fields carried into the index table.
var IndexFields = []models.Field{
	models.FieldWeight,
	models.FieldLeanMass,
	models.FieldFatMass,
	models.FieldFatPct,
	models.FieldEnergyBalance,
	models.FieldSteps,
	models.FieldSleepHours,
	models.FieldSkinTempDeviation,
	models.FieldProtein,
	models.FieldCarbs,
	models.FieldFiber,
}

// IndexRow is one dated row of index values.
type IndexRow struct {
	Record models.DailyRecord
	Values map[models.Field]*float64
}

// IndexTable mirrors the rolling table rows.
type IndexTable struct {
	Fields []models.Field
	Rows   []IndexRow
}

// IndexColumn names the persisted column of f's index.
func IndexColumn(f models.Field) string {
	return f.Column() + "_index"
}

// BuildIndex derives the index table from the short-window means.
//
//   - energy balance: 100 + 10 * z-score over the whole series
//   - sleep: 100 * hours / SleepReferenceHours
//   - carbohydrate: 100 * grams / CarbsReferenceGrams
//   - skin temperature deviation: 100 + 20 * deviation
//   - everything else: 100 * value / first value
func BuildIndex(t *RollingTable) *IndexTable {
	out := &IndexTable{
		Fields: IndexFields,
		Rows:   make([]IndexRow, len(t.Rows)),
	}
	for i, row := range t.Rows {
		out.Rows[i] = IndexRow{Record: row.Record, Values: make(map[models.Field]*float64, len(IndexFields))}
	}
	if len(t.Rows) == 0 {
		return out
	}

	w := t.Short()
	for _, f := range IndexFields {
		values := make([]*float64, len(t.Rows))
		for i, row := range t.Rows {
			values[i] = row.Mean(w, f)
		}
		for i, v := range indexSeries(f, values) {
			out.Rows[i].Values[f] = v
		}
	}
	return out
}

func indexSeries(f models.Field, values []*float64) []*float64 {
	out := make([]*float64, len(values))
	scale := func(fn func(float64) float64) {
		for i, v := range values {
			if v != nil {
				out[i] = models.Float(models.Round(fn(*v), IndexPlaces))
			}
		}
	}

	switch f {
	case models.FieldEnergyBalance:
		mean, sd, ok := meanStd(values)
		if !ok {
			return out
		}
		scale(func(v float64) float64 {
			if sd == 0 {
				return 100
			}
			return 100 + 10*(v-mean)/sd
		})
	case models.FieldSleepHours:
		scale(func(v float64) float64 { return 100 * v / SleepReferenceHours })
	case models.FieldCarbs:
		scale(func(v float64) float64 { return 100 * v / CarbsReferenceGrams })
	case models.FieldSkinTempDeviation:
		scale(func(v float64) float64 { return 100 + 20*v })
	default:
		var base float64
		for _, v := range values {
			if v != nil && *v != 0 {
				base = *v
				break
			}
		}
		if base == 0 {
			return out
		}
		scale(func(v float64) float64 { return 100 * v / base })
	}
	return out
}

func meanStd(values []*float64) (mean, sd float64, ok bool) {
	var sum float64
	var n int
	for _, v := range values {
		if v != nil {
			sum += *v
			n++
		}
	}
	if n == 0 {
		return 0, 0, false
	}
	mean = sum / float64(n)
	var sq float64
	for _, v := range values {
		if v != nil {
			sq += (*v - mean) * (*v - mean)
		}
	}
	if n > 1 {
		sd = math.Sqrt(sq / float64(n-1))
	}
	return mean, sd, true
}
