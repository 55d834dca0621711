// ABOUTME: Per-window deltas, composition changes, and plateau detection.
// ABOUTME: Each window's delta is read from that window's own mean series.
package analysis

import (
	"github.com/harperreed/bodycomp/internal/models"
	"github.com/harperreed/bodycomp/internal/stats"
)

// WindowChange is the change of the w-window mean of f across the last w
// valid values of that series.
func WindowChange(t *stats.RollingTable, w int, f models.Field) (float64, error) {
	series := t.Series(w, f)
	if len(series) < w {
		return 0, ErrInsufficientData
	}
	return models.Round(series[len(series)-1].Value-series[len(series)-w].Value, 2), nil
}

func windowChange(t *stats.RollingTable, w int, f models.Field) *float64 {
	v, err := WindowChange(t, w, f)
	if err != nil {
		return nil
	}
	return models.Float(v)
}

func latestMean(t *stats.RollingTable, w int, f models.Field) *float64 {
	series := t.Series(w, f)
	if len(series) == 0 {
		return nil
	}
	return models.Float(series[len(series)-1].Value)
}

func (a *Analyzer) deltas(t *stats.RollingTable) []models.MetricDeltas {
	fields := TrackedFields
	if !containsField(fields, a.opts.GoalMetric) {
		fields = append([]models.Field{a.opts.GoalMetric}, fields...)
	}
	if t.Len() == 0 {
		return nil
	}

	out := make([]models.MetricDeltas, 0, len(fields))
	for _, f := range fields {
		d := models.MetricDeltas{Field: f, Current: latestMean(t, t.Short(), f)}
		for _, w := range t.Windows {
			d.Changes = append(d.Changes, models.WindowDelta{Window: w, Change: windowChange(t, w, f)})
		}
		out = append(out, d)
	}
	return out
}

func composition(t *stats.RollingTable) []models.CompositionChange {
	if t.Len() == 0 {
		return nil
	}
	out := make([]models.CompositionChange, 0, len(TrackedFields))
	for _, f := range TrackedFields {
		c := models.CompositionChange{Field: f}
		series := t.Series(t.Short(), f)
		if len(series) > 0 {
			first, last := series[0].Value, series[len(series)-1].Value
			c.Start = models.Float(first)
			c.Current = models.Float(last)
			c.Change = models.Float(models.Round(last-first, 2))
		}
		out = append(out, c)
	}
	return out
}

// stall flags a plateau when neither the medium nor the short window of the
// stall metric moved toward the goal by more than the tolerance.
func (a *Analyzer) stall(t *stats.RollingTable, goal models.GoalProgress) models.StallStatus {
	s := models.StallStatus{Metric: a.opts.StallMetric}
	if t.Len() == 0 {
		return s
	}
	s.MediumChange = windowChange(t, t.Medium(), a.opts.StallMetric)
	s.ShortChange = windowChange(t, t.Short(), a.opts.StallMetric)
	s.TemperatureChange = temperatureChange(t)

	if s.MediumChange == nil || s.ShortChange == nil {
		return s
	}

	tol := a.opts.StallTolerance
	var stalled bool
	if increasing(goal) {
		stalled = *s.MediumChange <= tol && *s.ShortChange <= tol
	} else {
		stalled = *s.MediumChange >= -tol && *s.ShortChange >= -tol
	}
	s.Stalled = &stalled
	s.NeedsCorrection = stalled && s.TemperatureChange != nil && *s.TemperatureChange < a.opts.TemperatureDrop
	return s
}

// increasing reports whether the goal asks the metric to rise. Without a
// start value the goal is treated as a reduction.
func increasing(goal models.GoalProgress) bool {
	return goal.Start != nil && goal.Target > *goal.Start
}

// temperatureChange is the change of the short-window skin temperature
// deviation mean over the last short window, falling back to the trend
// deviation when no deviation readings exist.
func temperatureChange(t *stats.RollingTable) *float64 {
	for _, f := range []models.Field{models.FieldSkinTempDeviation, models.FieldSkinTempTrend} {
		series := t.Series(t.Short(), f)
		if len(series) == 0 {
			continue
		}
		if len(series) < 2 {
			return nil
		}
		from := len(series) - t.Short()
		if from < 0 {
			from = 0
		}
		return models.Float(models.Round(series[len(series)-1].Value-series[from].Value, 2))
	}
	return nil
}

func containsField(fields []models.Field, f models.Field) bool {
	for _, x := range fields {
		if x == f {
			return true
		}
	}
	return false
}
