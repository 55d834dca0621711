// ABOUTME: Record normalizer turning one exported payload into a DailyRecord.
// ABOUTME: Applies the metric dictionary, sum-vs-last aggregation, and derived fields.
package ingest

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/harperreed/bodycomp/internal/models"
)

// NormalizationError reports a payload that cannot produce a record.
type NormalizationError struct {
	Reason string
	Err    error
}

func (e *NormalizationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("normalize payload: %s: %v", e.Reason, e.Err)
	}
	return "normalize payload: " + e.Reason
}

func (e *NormalizationError) Unwrap() error {
	return e.Err
}

// MetricFields maps exported metric names to record fields. Both naming
// schemes seen in exports are listed.
var MetricFields = map[string]models.Field{
	"weight_body_mass":        models.FieldWeight,
	"body_mass":               models.FieldWeight,
	"lean_body_mass":          models.FieldLeanMass,
	"body_fat_percentage":     models.FieldFatPct,
	"dietary_energy":          models.FieldEnergyIntake,
	"dietary_energy_consumed": models.FieldEnergyIntake,
	"basal_energy_burned":     models.FieldBasalEnergy,
	"active_energy":           models.FieldActiveEnergy,
	"active_energy_burned":    models.FieldActiveEnergy,
	"step_count":              models.FieldSteps,
	"sleep_analysis":          models.FieldSleepHours,
	"protein":                 models.FieldProtein,
	"dietary_protein":         models.FieldProtein,
	"carbohydrates":           models.FieldCarbs,
	"dietary_carbohydrates":   models.FieldCarbs,
	"fiber":                   models.FieldFiber,
	"dietary_fiber":           models.FieldFiber,
	"total_fat":               models.FieldFat,
	"dietary_fat_total":       models.FieldFat,
}

// cumulativeFields sum every sample of the day; all others keep the last sample.
var cumulativeFields = map[models.Field]bool{
	models.FieldSteps:        true,
	models.FieldActiveEnergy: true,
	models.FieldBasalEnergy:  true,
	models.FieldEnergyIntake: true,
	models.FieldProtein:      true,
	models.FieldCarbs:        true,
	models.FieldFiber:        true,
	models.FieldFat:          true,
}

// IsCumulative reports whether a field is summed across the day's samples.
func IsCumulative(f models.Field) bool {
	return cumulativeFields[f]
}

var sampleLayouts = []string{
	"2006-01-02 15:04:05 -0700",
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	models.DateLayout,
}

// ParseSampleDate parses a sample timestamp and returns its calendar date.
func ParseSampleDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range sampleLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return models.CivilDate(t), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}

// CanonicalName lower-cases a metric name and joins its words with underscores.
func CanonicalName(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	return strings.NewReplacer(" ", "_", "-", "_").Replace(name)
}

// Decode parses a raw payload document.
func Decode(data []byte) (*models.Payload, error) {
	var p models.Payload
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, &NormalizationError{Reason: "malformed document", Err: err}
	}
	return &p, nil
}

// Normalize converts a payload into one DailyRecord.
func Normalize(p *models.Payload) (*models.DailyRecord, error) {
	if p == nil {
		return nil, &NormalizationError{Reason: "empty payload"}
	}

	var (
		rec     models.DailyRecord
		date    time.Time
		dated   bool
		usable  int
		lastErr error
	)

	for _, series := range p.Data.Metrics {
		field, ok := MetricFields[CanonicalName(series.Name)]
		if !ok {
			continue
		}

		var sum float64
		var last *float64
		for _, s := range series.Data {
			v := s.Value()
			if v == nil || math.IsNaN(*v) || math.IsInf(*v, 0) {
				continue
			}
			if !dated {
				t, err := ParseSampleDate(s.Date)
				if err != nil {
					lastErr = err
				} else {
					date, dated = t, true
				}
			}
			val := convertUnit(field, series.Units, *v)
			sum += val
			last = &val
		}
		if last == nil {
			continue
		}

		usable++
		if IsCumulative(field) {
			rec.Set(field, models.Float(models.Round(sum, 1)))
		} else {
			rec.Set(field, last)
		}
	}

	if usable == 0 {
		return nil, &NormalizationError{Reason: "no usable metrics"}
	}
	if !dated {
		return nil, &NormalizationError{Reason: "no resolvable date", Err: lastErr}
	}

	rec.Date = date
	Derive(&rec)
	return &rec, nil
}

// Derive fills the computed fields from their inputs. Multiplicative
// derivations need every operand; energy expended treats a missing
// component as zero as long as one is present.
func Derive(r *models.DailyRecord) {
	if r.WeightKg != nil && r.FatPct != nil {
		r.FatMassKg = models.Float(models.Round(*r.WeightKg**r.FatPct/100, 2))
	}

	if r.BasalEnergy != nil || r.ActiveEnergy != nil {
		var total float64
		if r.BasalEnergy != nil {
			total += *r.BasalEnergy
		}
		if r.ActiveEnergy != nil {
			total += *r.ActiveEnergy
		}
		r.EnergyExpended = models.Float(models.Round(total, 1))
	}

	if r.EnergyIntake != nil && r.EnergyExpended != nil {
		r.EnergyBalance = models.Float(models.Round(*r.EnergyIntake-*r.EnergyExpended, 1))
	}
}

const (
	kJPerKcal = 4.184
	kgPerLb   = 0.45359237
)

func convertUnit(f models.Field, units string, v float64) float64 {
	u := strings.ToLower(strings.TrimSpace(units))
	switch f.Unit() {
	case "kcal":
		if u == "kj" {
			return v / kJPerKcal
		}
	case "kg":
		if u == "lb" || u == "lbs" {
			return v * kgPerLb
		}
	}
	return v
}
