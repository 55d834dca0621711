// ABOUTME: Report formatter rendering a ProgressReport as a fixed-layout text block.
// ABOUTME: Every missing number renders as the literal "insufficient data".
package report

import (
	"fmt"
	"math"
	"strings"

	"github.com/harperreed/bodycomp/internal/models"
)

// Missing replaces any value the analyzer could not compute.
const Missing = "insufficient data"

// BarWidth is the number of cells in the progress bar.
const BarWidth = 20

// ProgressBar draws pct (clamped to 0..100) as BarWidth cells, with a half
// cell when the remainder reaches one half.
func ProgressBar(pct *float64) string {
	if pct == nil {
		return "[" + strings.Repeat("░", BarWidth) + "] " + Missing
	}
	p := math.Max(0, math.Min(100, *pct))
	exact := BarWidth * p / 100
	filled := int(exact)
	bar := strings.Repeat("█", filled)
	empty := BarWidth - filled
	if exact-float64(filled) >= 0.5 && filled < BarWidth {
		bar += "▌"
		empty--
	}
	bar += strings.Repeat("░", empty)
	return fmt.Sprintf("[%s] %.1f%% / 100%%", bar, *pct)
}

// Num formats v with places decimals.
func Num(v *float64, places int) string {
	if v == nil {
		return Missing
	}
	return fmt.Sprintf("%.*f", places, *v)
}

// Signed formats v with an explicit sign.
func Signed(v *float64, places int) string {
	if v == nil {
		return Missing
	}
	return fmt.Sprintf("%+.*f", places, *v)
}

func withUnit(s string, unit string) string {
	if s == Missing || unit == "" {
		return s
	}
	return s + " " + unit
}

// Format renders the full notification text.
func Format(r *models.ProgressReport) string {
	var b strings.Builder

	asOf := Missing
	if !r.AsOf.IsZero() {
		asOf = r.AsOf.Format(models.DateLayout)
	}
	fmt.Fprintf(&b, "Body composition report %s\n", asOf)

	writeGoal(&b, r.Goal)
	writeDeltas(&b, r)
	writeComposition(&b, r.Composition)
	writeStatus(&b, r)
	writeMacros(&b, r.Macros)
	writeCalories(&b, r.Calories)

	return strings.TrimRight(b.String(), "\n")
}

func writeGoal(b *strings.Builder, g models.GoalProgress) {
	unit := g.Metric.Unit()
	fmt.Fprintf(b, "\nGoal: %s\n", g.Metric)
	fmt.Fprintf(b, "%s\n", ProgressBar(g.ProgressPct))
	fmt.Fprintf(b, "Current: %s (start %s, target %s)\n",
		withUnit(Num(g.Current, 2), unit), Num(g.Start, 2), withUnit(Num(&g.Target, 2), unit))
	fmt.Fprintf(b, "Remaining: %s\n", Signed(g.Remaining, 2))
	fmt.Fprintf(b, "Weekly rate: %s\n", withUnit(Signed(g.WeeklyRate, 3), "/ week"))
	fmt.Fprintf(b, "Projection: %s\n", projection(g.Projection))
}

func projection(p models.Projection) string {
	switch p.Status {
	case models.ProjectionOnPace:
		if p.WeeksNeeded != nil && p.Date != nil {
			return fmt.Sprintf("%.1f weeks (%s)", *p.WeeksNeeded, p.Date.Format(models.DateLayout))
		}
	case models.ProjectionReached:
		return "target reached"
	case models.ProjectionNotOnPace:
		return "not on pace"
	}
	return Missing
}

func writeDeltas(b *strings.Builder, r *models.ProgressReport) {
	if len(r.Deltas) == 0 {
		return
	}
	b.WriteString("\nChanges (rolling means)\n")
	for _, d := range r.Deltas {
		parts := make([]string, 0, len(d.Changes))
		for _, c := range d.Changes {
			parts = append(parts, fmt.Sprintf("%dd %s", c.Window, Signed(c.Change, 2)))
		}
		fmt.Fprintf(b, "  %s %s: %s\n", d.Field, withUnit(Num(d.Current, 2), d.Field.Unit()), strings.Join(parts, " | "))
	}
}

func writeComposition(b *strings.Builder, cs []models.CompositionChange) {
	if len(cs) == 0 {
		return
	}
	b.WriteString("\nComposition\n")
	for _, c := range cs {
		if c.Change == nil {
			fmt.Fprintf(b, "  %s: %s\n", c.Field, Missing)
			continue
		}
		fmt.Fprintf(b, "  %s: %s → %s (%s)\n", c.Field, Num(c.Start, 2), Num(c.Current, 2), Signed(c.Change, 2))
	}
}

func writeStatus(b *strings.Builder, r *models.ProgressReport) {
	b.WriteString("\nStatus\n")
	fmt.Fprintf(b, "  fat loss: %s\n", tag(r.Status.FatLoss))
	fmt.Fprintf(b, "  muscle: %s\n", tag(r.Status.Muscle))
	fmt.Fprintf(b, "  metabolism: %s (temp %s)\n", tag(r.Status.Metabolism), withUnit(Signed(r.Stall.TemperatureChange, 2), "°C"))
	fmt.Fprintf(b, "  fiber: %s\n", tag(r.Status.Fiber))

	stall := Missing
	if r.Stall.Stalled != nil {
		stall = "no"
		if *r.Stall.Stalled {
			stall = "yes"
		}
	}
	fmt.Fprintf(b, "  stall: %s\n", stall)
	if r.Stall.NeedsCorrection {
		b.WriteString("  ! plateau with falling skin temperature: review intake and recovery\n")
	}
}

func tag(s models.Status) string {
	if s == "" || s == models.StatusInsufficient {
		return Missing
	}
	return strings.ReplaceAll(string(s), "_", " ")
}

func writeMacros(b *strings.Builder, m models.MacroBalance) {
	b.WriteString("\nMacros (share of energy)\n")
	fmt.Fprintf(b, "  protein %s (%s) | fat %s (%s) | carbs %s (%s)\n",
		pct(m.ProteinPct), tag(m.Protein), pct(m.FatPct), tag(m.Fat), pct(m.CarbsPct), tag(m.Carbs))
	fmt.Fprintf(b, "  energy %s | fiber %s\n", withUnit(Num(m.TotalKcal, 0), "kcal"), withUnit(Num(m.FiberG, 1), "g"))
}

func pct(v *float64) string {
	if v == nil {
		return Missing
	}
	return fmt.Sprintf("%.1f%%", *v)
}

func writeCalories(b *strings.Builder, c models.CalorieSummary) {
	b.WriteString("\nCalories\n")
	if len(c.Periods) == 0 {
		fmt.Fprintf(b, "  %s\n", Missing)
		return
	}
	for _, p := range c.Periods {
		fmt.Fprintf(b, "  %dd: balance %s (avg %s/day, %d days), fat %s\n",
			p.Window, withUnit(Signed(p.BalanceTotal, 0), "kcal"), Signed(p.BalanceMean, 0), p.Days,
			withUnit(Signed(p.EstimatedFatKg, 2), "kg"))
	}
	for _, d := range c.Daily {
		fmt.Fprintf(b, "  %s %s\n", d.Date.Format("01-02"), withUnit(Signed(d.Balance, 0), "kcal"))
	}

	a := c.Adjustment
	if a == nil {
		fmt.Fprintf(b, "  adjustment: %s\n", Missing)
		return
	}
	if a.OnTarget {
		fmt.Fprintf(b, "  weekly %+.0f kcal, on target (%+.0f)\n", a.WeeklyActual, a.WeeklyTarget)
		return
	}
	fmt.Fprintf(b, "  weekly %+.0f kcal, %.0f kcal short of %+.0f\n", a.WeeklyActual, a.Excess, a.WeeklyTarget)
	fmt.Fprintf(b, "  per day %.0f kcal: jog %d min, walk %d min, strength %d min\n",
		a.DailyAdjustment, a.JogMinutes, a.WalkMinutes, a.StrengthMinutes)
}
