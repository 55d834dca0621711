// ABOUTME: Progress analyzer deriving a ProgressReport from the rolling statistics table.
// ABOUTME: Trend judgments read rolling means only; missing history yields nil fields.
package analysis

import (
	"errors"
	"math"
	"time"

	"github.com/harperreed/bodycomp/internal/models"
	"github.com/harperreed/bodycomp/internal/stats"
	"github.com/oklog/ulid/v2"
)

// ErrInsufficientData marks a sub-computation without enough history.
// It never leaves this package; callers see a nil field instead.
var ErrInsufficientData = errors.New("insufficient data")

// NutritionTargets holds the macro and fiber thresholds.
type NutritionTargets struct {
	ProteinPct    float64 `json:"protein_pct"`
	FatPct        float64 `json:"fat_pct"`
	CarbsPct      float64 `json:"carbs_pct"`
	ProteinTol    float64 `json:"protein_tolerance"`
	FatTol        float64 `json:"fat_tolerance"`
	CarbsTol      float64 `json:"carbs_tolerance"`
	FiberGood     float64 `json:"fiber_good"`
	FiberFair     float64 `json:"fiber_fair"`
	WeeklyDeficit float64 `json:"weekly_deficit"`
}

// Options configures the analyzer.
type Options struct {
	GoalMetric      models.Field
	Target          float64
	StallMetric     models.Field
	StallTolerance  float64
	TemperatureDrop float64
	Nutrition       NutritionTargets
}

// DefaultNutrition returns the default macro split and fiber thresholds.
func DefaultNutrition() NutritionTargets {
	return NutritionTargets{
		ProteinPct:    25,
		FatPct:        68,
		CarbsPct:      7,
		ProteinTol:    5,
		FatTol:        10,
		CarbsTol:      5,
		FiberGood:     25,
		FiberFair:     20,
		WeeklyDeficit: -1000,
	}
}

// DefaultOptions returns a body-fat-percentage goal of 12.
func DefaultOptions() Options {
	return Options{
		GoalMetric:      models.FieldFatPct,
		Target:          12.0,
		StallMetric:     models.FieldFatMass,
		StallTolerance:  0.1,
		TemperatureDrop: -0.1,
		Nutrition:       DefaultNutrition(),
	}
}

// TrackedFields get per-window deltas in every report.
var TrackedFields = []models.Field{
	models.FieldFatPct,
	models.FieldFatMass,
	models.FieldLeanMass,
	models.FieldWeight,
}

// Analyzer builds progress reports.
type Analyzer struct {
	opts  Options
	now   func() time.Time
	newID func() string
}

// NewAnalyzer creates an analyzer with opts.
func NewAnalyzer(opts Options) *Analyzer {
	if opts.GoalMetric == "" {
		opts.GoalMetric = models.FieldFatPct
	}
	if opts.StallMetric == "" {
		opts.StallMetric = models.FieldFatMass
	}
	return &Analyzer{
		opts:  opts,
		now:   time.Now,
		newID: func() string { return ulid.Make().String() },
	}
}

// Options returns the analyzer's configuration.
func (a *Analyzer) Options() Options {
	return a.opts
}

// Analyze derives a report from the rolling table. It never fails: every
// metric lacking history is left nil or tagged insufficient.
func (a *Analyzer) Analyze(t *stats.RollingTable) *models.ProgressReport {
	r := &models.ProgressReport{
		ID:          a.newID(),
		GeneratedAt: a.now(),
		Rows:        t.Len(),
		Windows:     append([]int(nil), t.Windows...),
	}
	if t.Len() > 0 {
		r.AsOf = t.Rows[t.Len()-1].Record.Date
	}

	r.Goal = a.goalProgress(t, r.AsOf)
	r.Deltas = a.deltas(t)
	r.Composition = composition(t)
	r.Stall = a.stall(t, r.Goal)
	r.Macros = macroBalance(t, a.opts.Nutrition)
	r.Status = a.classify(t, r)
	r.Calories = calorieSummary(t, a.opts.Nutrition)
	return r
}

func (a *Analyzer) goalProgress(t *stats.RollingTable, asOf time.Time) models.GoalProgress {
	g := models.GoalProgress{
		Metric:     a.opts.GoalMetric,
		Target:     a.opts.Target,
		Projection: models.Projection{Status: models.ProjectionInsufficient},
	}
	if t.Len() == 0 {
		return g
	}

	series := t.Series(t.Short(), a.opts.GoalMetric)
	if len(series) == 0 {
		return g
	}
	start := series[0].Value
	current := series[len(series)-1].Value
	g.Start = models.Float(start)
	g.Current = models.Float(current)
	g.Remaining = models.Float(models.Round(a.opts.Target-current, 2))
	g.ProgressPct = models.Float(models.Round(ProgressPct(start, current, a.opts.Target), 1))

	if rate, err := WeeklyRate(t.Series(t.Long(), a.opts.GoalMetric), t.Long()); err == nil {
		g.WeeklyRate = models.Float(models.Round(rate, 3))
	}
	g.Projection = Project(start, current, a.opts.Target, g.WeeklyRate, asOf)
	return g
}

// ProgressPct is the share of the way from start to target covered by
// current. A start equal to the target reports 0.
func ProgressPct(start, current, target float64) float64 {
	if start == target {
		return 0
	}
	return (start - current) / (start - target) * 100
}

// WeeklyRate is the per-week change across the last span values of series
// (fewer when shorter), using the elapsed calendar days between them.
func WeeklyRate(series []stats.Point, span int) (float64, error) {
	if len(series) < 2 {
		return 0, ErrInsufficientData
	}
	from := len(series) - span
	if from < 0 {
		from = 0
	}
	first, last := series[from], series[len(series)-1]
	days := last.Date.Sub(first.Date).Hours() / 24
	if days <= 0 {
		return 0, ErrInsufficientData
	}
	return (last.Value - first.Value) / (days / 7), nil
}

// Project estimates completion at the weekly rate. The goal direction is
// the sign of target - start, or of target - current when the series
// started on the target; a rate that is zero or points away from the
// target is not on pace.
func Project(start, current, target float64, rate *float64, asOf time.Time) models.Projection {
	remaining := target - current
	direction := sign(target - start)
	if direction == 0 {
		direction = sign(remaining)
	}
	if direction == 0 || sign(remaining) != direction {
		return models.Projection{
			Status:      models.ProjectionReached,
			WeeksNeeded: models.Float(0),
			Date:        timePtr(asOf),
		}
	}
	if rate == nil {
		return models.Projection{Status: models.ProjectionInsufficient}
	}
	if *rate == 0 || sign(*rate) != sign(remaining) {
		return models.Projection{Status: models.ProjectionNotOnPace}
	}

	weeks := remaining / *rate
	days := int(math.Ceil(weeks * 7))
	return models.Projection{
		Status:      models.ProjectionOnPace,
		WeeksNeeded: models.Float(models.Round(weeks, 1)),
		Date:        timePtr(asOf.AddDate(0, 0, days)),
	}
}

func sign(v float64) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	}
	return 0
}

func timePtr(t time.Time) *time.Time {
	return &t
}
