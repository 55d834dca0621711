// ABOUTME: ProgressReport model produced by the analyzer and persisted as a snapshot.
// ABOUTME: Nil numeric fields mean there was not enough history to compute them.
package models

import "time"

// Status is a qualitative classification of one metric.
type Status string

const (
	StatusInsufficient Status = "insufficient_data"

	// Fat loss
	StatusOnTrack Status = "on_track"
	StatusSlow    Status = "slow"
	StatusStalled Status = "stalled"

	// Lean mass
	StatusGaining      Status = "gaining"
	StatusMaintaining  Status = "maintaining"
	StatusSlightlyDown Status = "slightly_down"
	StatusDeclining    Status = "declining"

	// Metabolism
	StatusNormal           Status = "normal"
	StatusCaution          Status = "caution"
	StatusPossibleSlowdown Status = "possible_slowdown"

	// Nutrition
	StatusGood Status = "good"
	StatusFair Status = "fair"
	StatusLow  Status = "low"
	StatusOK   Status = "ok"
	StatusHigh Status = "high"
)

// ProjectionStatus tells whether a completion date could be projected.
type ProjectionStatus string

const (
	ProjectionOnPace       ProjectionStatus = "on_pace"
	ProjectionNotOnPace    ProjectionStatus = "not_on_pace"
	ProjectionReached      ProjectionStatus = "reached"
	ProjectionInsufficient ProjectionStatus = "insufficient_data"
)

// ProgressReport is an immutable point-in-time analysis of the rolling table.
type ProgressReport struct {
	ID          string    `json:"id" yaml:"id"`
	GeneratedAt time.Time `json:"generated_at" yaml:"generated_at"`
	AsOf        time.Time `json:"as_of" yaml:"as_of"`
	Rows        int       `json:"rows" yaml:"rows"`
	Windows     []int     `json:"windows" yaml:"windows"`

	Goal        GoalProgress        `json:"goal" yaml:"goal"`
	Deltas      []MetricDeltas      `json:"deltas" yaml:"deltas"`
	Composition []CompositionChange `json:"composition" yaml:"composition"`
	Stall       StallStatus         `json:"stall" yaml:"stall"`
	Status      StatusTags          `json:"status" yaml:"status"`
	Macros      MacroBalance        `json:"macros" yaml:"macros"`
	Calories    CalorieSummary      `json:"calories" yaml:"calories"`
}

// GoalProgress tracks the goal metric from its first to its latest short-window mean.
type GoalProgress struct {
	Metric      Field      `json:"metric" yaml:"metric"`
	Target      float64    `json:"target" yaml:"target"`
	Start       *float64   `json:"start" yaml:"start"`
	Current     *float64   `json:"current" yaml:"current"`
	Remaining   *float64   `json:"remaining" yaml:"remaining"`
	ProgressPct *float64   `json:"progress_pct" yaml:"progress_pct"`
	WeeklyRate  *float64   `json:"weekly_rate" yaml:"weekly_rate"`
	Projection  Projection `json:"projection" yaml:"projection"`
}

// Projection is the estimated completion of the goal at the current weekly rate.
type Projection struct {
	Status      ProjectionStatus `json:"status" yaml:"status"`
	WeeksNeeded *float64         `json:"weeks_needed" yaml:"weeks_needed"`
	Date        *time.Time       `json:"date" yaml:"date"`
}

// WindowDelta is the change of one window's rolling mean across that window.
type WindowDelta struct {
	Window int      `json:"window" yaml:"window"`
	Change *float64 `json:"change" yaml:"change"`
}

// MetricDeltas holds the per-window changes of a tracked metric.
type MetricDeltas struct {
	Field   Field         `json:"field" yaml:"field"`
	Current *float64      `json:"current" yaml:"current"`
	Changes []WindowDelta `json:"changes" yaml:"changes"`
}

// Change returns the delta for window w, or nil when absent.
func (d MetricDeltas) Change(w int) *float64 {
	for _, c := range d.Changes {
		if c.Window == w {
			return c.Change
		}
	}
	return nil
}

// CompositionChange compares the first and latest short-window means of a field.
type CompositionChange struct {
	Field   Field    `json:"field" yaml:"field"`
	Start   *float64 `json:"start" yaml:"start"`
	Current *float64 `json:"current" yaml:"current"`
	Change  *float64 `json:"change" yaml:"change"`
}

// StallStatus is the plateau detector outcome. Stalled is nil when the
// medium or short window lacks history.
type StallStatus struct {
	Metric            Field    `json:"metric" yaml:"metric"`
	Stalled           *bool    `json:"stalled" yaml:"stalled"`
	MediumChange      *float64 `json:"medium_change" yaml:"medium_change"`
	ShortChange       *float64 `json:"short_change" yaml:"short_change"`
	TemperatureChange *float64 `json:"temperature_change" yaml:"temperature_change"`
	NeedsCorrection   bool     `json:"needs_correction" yaml:"needs_correction"`
}

// StatusTags are the qualitative classifications of the report.
type StatusTags struct {
	FatLoss    Status `json:"fat_loss" yaml:"fat_loss"`
	Muscle     Status `json:"muscle" yaml:"muscle"`
	Metabolism Status `json:"metabolism" yaml:"metabolism"`
	Fiber      Status `json:"fiber" yaml:"fiber"`
}

// MacroBalance is the energy split of protein, fat and carbohydrate.
type MacroBalance struct {
	TotalKcal  *float64 `json:"total_kcal" yaml:"total_kcal"`
	ProteinPct *float64 `json:"protein_pct" yaml:"protein_pct"`
	FatPct     *float64 `json:"fat_pct" yaml:"fat_pct"`
	CarbsPct   *float64 `json:"carbs_pct" yaml:"carbs_pct"`
	FiberG     *float64 `json:"fiber_g" yaml:"fiber_g"`
	Protein    Status   `json:"protein" yaml:"protein"`
	Fat        Status   `json:"fat" yaml:"fat"`
	Carbs      Status   `json:"carbs" yaml:"carbs"`
}

// CalorieSummary aggregates energy balance over the configured windows.
type CalorieSummary struct {
	Periods    []CaloriePeriod    `json:"periods" yaml:"periods"`
	Daily      []DailyBalance     `json:"daily" yaml:"daily"`
	Adjustment *CalorieAdjustment `json:"adjustment" yaml:"adjustment"`
}

// CaloriePeriod sums energy figures over the last Window rows.
type CaloriePeriod struct {
	Window         int      `json:"window" yaml:"window"`
	Days           int      `json:"days" yaml:"days"`
	BalanceTotal   *float64 `json:"balance_total" yaml:"balance_total"`
	BalanceMean    *float64 `json:"balance_mean" yaml:"balance_mean"`
	IntakeTotal    *float64 `json:"intake_total" yaml:"intake_total"`
	ExpendedTotal  *float64 `json:"expended_total" yaml:"expended_total"`
	EstimatedFatKg *float64 `json:"estimated_fat_kg" yaml:"estimated_fat_kg"`
}

// DailyBalance is one day's energy balance.
type DailyBalance struct {
	Date    time.Time `json:"date" yaml:"date"`
	Balance *float64  `json:"balance" yaml:"balance"`
}

// CalorieAdjustment compares the short-window balance with the weekly deficit target.
type CalorieAdjustment struct {
	WeeklyTarget    float64 `json:"weekly_target" yaml:"weekly_target"`
	WeeklyActual    float64 `json:"weekly_actual" yaml:"weekly_actual"`
	Excess          float64 `json:"excess" yaml:"excess"`
	DailyAdjustment float64 `json:"daily_adjustment" yaml:"daily_adjustment"`
	OnTarget        bool    `json:"on_target" yaml:"on_target"`
	JogMinutes      int     `json:"jog_minutes" yaml:"jog_minutes"`
	WalkMinutes     int     `json:"walk_minutes" yaml:"walk_minutes"`
	StrengthMinutes int     `json:"strength_minutes" yaml:"strength_minutes"`
}
