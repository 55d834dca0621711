// ABOUTME: Calorie balance summary over the configured windows.
// ABOUTME: Sums daily energy figures and sizes the exercise needed to meet the deficit.
package analysis

import (
	"math"

	"github.com/harperreed/bodycomp/internal/models"
	"github.com/harperreed/bodycomp/internal/stats"
)

// KcalPerKgFat converts an energy balance into body fat.
const KcalPerKgFat = 7200

// Exercise burn rates in kcal per minute.
const (
	JogKcalPerMinute      = 10
	WalkKcalPerMinute     = 5
	StrengthKcalPerMinute = 9
)

func calorieSummary(t *stats.RollingTable, n NutritionTargets) models.CalorieSummary {
	var s models.CalorieSummary
	if t.Len() == 0 {
		return s
	}

	for _, w := range t.Windows {
		s.Periods = append(s.Periods, caloriePeriod(t.Tail(w), w))
	}
	for _, row := range t.Tail(t.Short()) {
		s.Daily = append(s.Daily, models.DailyBalance{Date: row.Record.Date, Balance: row.Record.EnergyBalance})
	}
	if len(s.Periods) > 0 {
		s.Adjustment = Adjustment(s.Periods[0], n.WeeklyDeficit)
	}
	return s
}

func caloriePeriod(rows []stats.RollingRow, w int) models.CaloriePeriod {
	p := models.CaloriePeriod{Window: w}
	balance, days := sum(rows, models.FieldEnergyBalance)
	p.Days = days
	if days > 0 {
		p.BalanceTotal = models.Float(models.Round(balance, 1))
		p.BalanceMean = models.Float(models.Round(balance/float64(days), 1))
		p.EstimatedFatKg = models.Float(models.Round(balance/KcalPerKgFat, 2))
	}
	if v, n := sum(rows, models.FieldEnergyIntake); n > 0 {
		p.IntakeTotal = models.Float(models.Round(v, 1))
	}
	if v, n := sum(rows, models.FieldEnergyExpended); n > 0 {
		p.ExpendedTotal = models.Float(models.Round(v, 1))
	}
	return p
}

func sum(rows []stats.RollingRow, f models.Field) (float64, int) {
	var total float64
	var n int
	for _, row := range rows {
		if v := row.Record.Get(f); v != nil {
			total += *v
			n++
		}
	}
	return total, n
}

// Adjustment scales the period balance to a week and compares it with the
// weekly target. A positive excess is converted into daily exercise minutes.
func Adjustment(p models.CaloriePeriod, weeklyTarget float64) *models.CalorieAdjustment {
	if p.BalanceTotal == nil || p.Days == 0 {
		return nil
	}
	actual := models.Round(*p.BalanceTotal*7/float64(p.Days), 0)
	excess := actual - weeklyTarget
	a := &models.CalorieAdjustment{
		WeeklyTarget: weeklyTarget,
		WeeklyActual: actual,
		Excess:       excess,
		OnTarget:     excess <= 0,
	}
	if excess > 0 {
		daily := models.Round(excess/7, 0)
		a.DailyAdjustment = daily
		a.JogMinutes = int(math.Ceil(daily / JogKcalPerMinute))
		a.WalkMinutes = int(math.Ceil(daily / WalkKcalPerMinute))
		a.StrengthMinutes = int(math.Ceil(daily / StrengthKcalPerMinute))
	}
	return a
}
