// ABOUTME: Field schema for daily body-composition records.
// ABOUTME: Maps canonical field keys to units and the legacy CSV column headers.
package models

// Field identifies one numeric measurement of a DailyRecord.
type Field string

const (
	// Body composition
	FieldWeight   Field = "weight_kg"
	FieldLeanMass Field = "lean_mass_kg"
	FieldFatMass  Field = "fat_mass_kg"
	FieldFatPct   Field = "fat_pct"

	// Energy
	FieldEnergyBalance  Field = "energy_balance_kcal"
	FieldEnergyIntake   Field = "energy_intake_kcal"
	FieldEnergyExpended Field = "energy_expended_kcal"
	FieldBasalEnergy    Field = "basal_energy_kcal"
	FieldActiveEnergy   Field = "active_energy_kcal"

	// Activity and recovery
	FieldSteps      Field = "steps"
	FieldSleepHours Field = "sleep_hours"

	// Skin temperature
	FieldSkinTemp          Field = "skin_temp_c"
	FieldSkinTempDelta     Field = "skin_temp_delta_c"
	FieldSkinTempDeviation Field = "skin_temp_deviation_c"
	FieldSkinTempTrend     Field = "skin_temp_trend_c"

	// Nutrition
	FieldProtein Field = "protein_g"
	FieldCarbs   Field = "carbs_g"
	FieldFiber   Field = "fiber_g"
	FieldFat     Field = "fat_g"
)

// AllFields lists every field in table column order.
var AllFields = []Field{
	FieldWeight, FieldLeanMass, FieldFatMass, FieldFatPct,
	FieldEnergyBalance, FieldEnergyIntake, FieldEnergyExpended, FieldBasalEnergy, FieldActiveEnergy,
	FieldSteps, FieldSleepHours,
	FieldSkinTemp, FieldSkinTempDelta, FieldSkinTempDeviation, FieldSkinTempTrend,
	FieldProtein, FieldCarbs, FieldFiber, FieldFat,
}

// DateColumn is the header of the key column in every persisted table.
const DateColumn = "date"

// FieldColumns maps fields to the column headers used by the persisted tables.
// The headers match the spreadsheets the history was originally kept in.
var FieldColumns = map[Field]string{
	FieldWeight:            "体重_kg",
	FieldLeanMass:          "筋肉量_kg",
	FieldFatMass:           "体脂肪量_kg",
	FieldFatPct:            "体脂肪率",
	FieldEnergyBalance:     "カロリー収支_kcal",
	FieldEnergyIntake:      "摂取カロリー_kcal",
	FieldEnergyExpended:    "消費カロリー_kcal",
	FieldBasalEnergy:       "基礎代謝_kcal",
	FieldActiveEnergy:      "活動カロリー_kcal",
	FieldSteps:             "歩数",
	FieldSleepHours:        "睡眠時間_hours",
	FieldSkinTemp:          "体表温度_celsius",
	FieldSkinTempDelta:     "体表温変化_celsius",
	FieldSkinTempDeviation: "体表温偏差_celsius",
	FieldSkinTempTrend:     "体表温トレンド_celsius",
	FieldProtein:           "タンパク質_g",
	FieldCarbs:             "糖質_g",
	FieldFiber:             "食物繊維_g",
	FieldFat:               "脂質_g",
}

// FieldUnits maps fields to their display units.
var FieldUnits = map[Field]string{
	FieldWeight:            "kg",
	FieldLeanMass:          "kg",
	FieldFatMass:           "kg",
	FieldFatPct:            "%",
	FieldEnergyBalance:     "kcal",
	FieldEnergyIntake:      "kcal",
	FieldEnergyExpended:    "kcal",
	FieldBasalEnergy:       "kcal",
	FieldActiveEnergy:      "kcal",
	FieldSteps:             "steps",
	FieldSleepHours:        "hours",
	FieldSkinTemp:          "°C",
	FieldSkinTempDelta:     "°C",
	FieldSkinTempDeviation: "°C",
	FieldSkinTempTrend:     "°C",
	FieldProtein:           "g",
	FieldCarbs:             "g",
	FieldFiber:             "g",
	FieldFat:               "g",
}

// Column returns the persisted column header for the field.
func (f Field) Column() string {
	return FieldColumns[f]
}

// Unit returns the display unit for the field.
func (f Field) Unit() string {
	return FieldUnits[f]
}

// IsValidField checks if a string is a known field key.
func IsValidField(s string) bool {
	_, ok := FieldColumns[Field(s)]
	return ok
}

// FieldForColumn resolves a column header (or a field key) back to its field.
func FieldForColumn(column string) (Field, bool) {
	for _, f := range AllFields {
		if FieldColumns[f] == column || string(f) == column {
			return f, true
		}
	}
	return "", false
}
