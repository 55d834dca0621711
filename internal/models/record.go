// ABOUTME: DailyRecord model holding one calendar day's body-composition snapshot.
// ABOUTME: Every measurement is an independently nullable float; nil means not measured.
package models

import (
	"fmt"
	"strings"
	"time"
)

// DateLayout is the calendar date format used in every persisted table.
const DateLayout = "2006-01-02"

// DailyRecord is one day's health snapshot keyed by calendar date.
type DailyRecord struct {
	Date time.Time `json:"date"`

	WeightKg   *float64 `json:"weight_kg"`
	LeanMassKg *float64 `json:"lean_mass_kg"`
	FatMassKg  *float64 `json:"fat_mass_kg"`
	FatPct     *float64 `json:"fat_pct"`

	EnergyBalance  *float64 `json:"energy_balance_kcal"`
	EnergyIntake   *float64 `json:"energy_intake_kcal"`
	EnergyExpended *float64 `json:"energy_expended_kcal"`
	BasalEnergy    *float64 `json:"basal_energy_kcal"`
	ActiveEnergy   *float64 `json:"active_energy_kcal"`

	Steps      *float64 `json:"steps"`
	SleepHours *float64 `json:"sleep_hours"`

	SkinTemp          *float64 `json:"skin_temp_c"`
	SkinTempDelta     *float64 `json:"skin_temp_delta_c"`
	SkinTempDeviation *float64 `json:"skin_temp_deviation_c"`
	SkinTempTrend     *float64 `json:"skin_temp_trend_c"`

	ProteinG *float64 `json:"protein_g"`
	CarbsG   *float64 `json:"carbs_g"`
	FiberG   *float64 `json:"fiber_g"`
	FatG     *float64 `json:"fat_g"`
}

// NewDailyRecord creates an empty record for the calendar date of t.
func NewDailyRecord(t time.Time) *DailyRecord {
	return &DailyRecord{Date: CivilDate(t)}
}

func (r *DailyRecord) slot(f Field) **float64 {
	switch f {
	case FieldWeight:
		return &r.WeightKg
	case FieldLeanMass:
		return &r.LeanMassKg
	case FieldFatMass:
		return &r.FatMassKg
	case FieldFatPct:
		return &r.FatPct
	case FieldEnergyBalance:
		return &r.EnergyBalance
	case FieldEnergyIntake:
		return &r.EnergyIntake
	case FieldEnergyExpended:
		return &r.EnergyExpended
	case FieldBasalEnergy:
		return &r.BasalEnergy
	case FieldActiveEnergy:
		return &r.ActiveEnergy
	case FieldSteps:
		return &r.Steps
	case FieldSleepHours:
		return &r.SleepHours
	case FieldSkinTemp:
		return &r.SkinTemp
	case FieldSkinTempDelta:
		return &r.SkinTempDelta
	case FieldSkinTempDeviation:
		return &r.SkinTempDeviation
	case FieldSkinTempTrend:
		return &r.SkinTempTrend
	case FieldProtein:
		return &r.ProteinG
	case FieldCarbs:
		return &r.CarbsG
	case FieldFiber:
		return &r.FiberG
	case FieldFat:
		return &r.FatG
	}
	return nil
}

// Get returns the value of a field, or nil when it was not measured.
func (r *DailyRecord) Get(f Field) *float64 {
	if p := r.slot(f); p != nil && *p != nil {
		v := **p
		return &v
	}
	return nil
}

// Set stores a copy of v in the field. A nil v clears it.
func (r *DailyRecord) Set(f Field, v *float64) {
	p := r.slot(f)
	if p == nil {
		return
	}
	if v == nil {
		*p = nil
		return
	}
	c := *v
	*p = &c
}

// Count returns how many fields carry a value.
func (r *DailyRecord) Count() int {
	n := 0
	for _, f := range AllFields {
		if r.Get(f) != nil {
			n++
		}
	}
	return n
}

// DateString returns the record's date in DateLayout.
func (r *DailyRecord) DateString() string {
	return r.Date.Format(DateLayout)
}

// Float returns a pointer to v.
func Float(v float64) *float64 {
	return &v
}

// CivilDate strips time-of-day and zone, keeping the wall-clock calendar date.
func CivilDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// ParseDate parses a calendar date in DateLayout.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return t, nil
}
