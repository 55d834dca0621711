// ABOUTME: Qualitative status tags and the macro energy split.
// ABOUTME: Thresholds are fixed; nutrition targets come from options.
package analysis

import (
	"github.com/harperreed/bodycomp/internal/models"
	"github.com/harperreed/bodycomp/internal/stats"
)

// Energy per gram of each macronutrient.
const (
	ProteinKcalPerGram = 4
	FatKcalPerGram     = 9
	CarbsKcalPerGram   = 4
)

func (a *Analyzer) classify(t *stats.RollingTable, r *models.ProgressReport) models.StatusTags {
	tags := models.StatusTags{
		FatLoss:    models.StatusInsufficient,
		Muscle:     models.StatusInsufficient,
		Metabolism: models.StatusInsufficient,
		Fiber:      models.StatusInsufficient,
	}
	if t.Len() == 0 {
		return tags
	}

	tags.FatLoss = FatLossStatus(r.Stall.Stalled, r.Stall.ShortChange)
	tags.Muscle = MuscleStatus(windowChange(t, t.Short(), models.FieldLeanMass))
	tags.Metabolism = MetabolismStatus(r.Stall.TemperatureChange)
	tags.Fiber = FiberStatus(r.Macros.FiberG, a.opts.Nutrition)
	return tags
}

// FatLossStatus classifies the short-window change of the stall metric.
func FatLossStatus(stalled *bool, shortChange *float64) models.Status {
	switch {
	case shortChange == nil:
		return models.StatusInsufficient
	case stalled != nil && *stalled:
		return models.StatusStalled
	case *shortChange < -0.2:
		return models.StatusOnTrack
	}
	return models.StatusSlow
}

// MuscleStatus classifies the short-window change of lean mass.
func MuscleStatus(change *float64) models.Status {
	switch {
	case change == nil:
		return models.StatusInsufficient
	case *change > 0.2:
		return models.StatusGaining
	case *change >= -0.1:
		return models.StatusMaintaining
	case *change >= -0.3:
		return models.StatusSlightlyDown
	}
	return models.StatusDeclining
}

// MetabolismStatus classifies the skin temperature deviation change.
func MetabolismStatus(change *float64) models.Status {
	switch {
	case change == nil:
		return models.StatusInsufficient
	case *change < -0.2:
		return models.StatusPossibleSlowdown
	case *change < -0.1:
		return models.StatusCaution
	}
	return models.StatusNormal
}

// FiberStatus classifies mean daily fiber intake.
func FiberStatus(fiber *float64, n NutritionTargets) models.Status {
	switch {
	case fiber == nil:
		return models.StatusInsufficient
	case *fiber >= n.FiberGood:
		return models.StatusGood
	case *fiber >= n.FiberFair:
		return models.StatusFair
	}
	return models.StatusLow
}

// bandStatus compares pct with target ± tol.
func bandStatus(pct, target, tol float64) models.Status {
	switch {
	case pct < target-tol:
		return models.StatusLow
	case pct > target+tol:
		return models.StatusHigh
	}
	return models.StatusOK
}

// macroBalance splits the latest short-window macro means by energy.
func macroBalance(t *stats.RollingTable, n NutritionTargets) models.MacroBalance {
	m := models.MacroBalance{
		Protein: models.StatusInsufficient,
		Fat:     models.StatusInsufficient,
		Carbs:   models.StatusInsufficient,
	}
	if t.Len() == 0 {
		return m
	}
	last := t.Rows[t.Len()-1]
	w := t.Short()
	m.FiberG = last.Mean(w, models.FieldFiber)

	protein := last.Mean(w, models.FieldProtein)
	fat := last.Mean(w, models.FieldFat)
	carbs := last.Mean(w, models.FieldCarbs)
	if protein == nil || fat == nil || carbs == nil {
		return m
	}

	pk := *protein * ProteinKcalPerGram
	fk := *fat * FatKcalPerGram
	ck := *carbs * CarbsKcalPerGram
	total := pk + fk + ck
	if total <= 0 {
		return m
	}

	m.TotalKcal = models.Float(models.Round(total, 1))
	pp := models.Round(pk/total*100, 1)
	fpct := models.Round(fk/total*100, 1)
	cp := models.Round(ck/total*100, 1)
	m.ProteinPct, m.FatPct, m.CarbsPct = models.Float(pp), models.Float(fpct), models.Float(cp)
	m.Protein = bandStatus(pp, n.ProteinPct, n.ProteinTol)
	m.Fat = bandStatus(fpct, n.FatPct, n.FatTol)
	m.Carbs = bandStatus(cp, n.CarbsPct, n.CarbsTol)
	return m
}
