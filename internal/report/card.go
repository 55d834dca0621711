// ABOUTME: Terminal renderings of reports: a bordered card and trend charts.
// ABOUTME: Uses lipgloss for framing and asciigraph for line plots.
package report

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"
	"github.com/harperreed/bodycomp/internal/models"
	"github.com/harperreed/bodycomp/internal/stats"
)

var (
	cardStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("63")).
			Padding(0, 1)
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
)

// Card frames the formatted report for the terminal.
func Card(r *models.ProgressReport) string {
	title := titleStyle.Render(fmt.Sprintf("bodycomp · %s", r.ID))
	return cardStyle.Render(lipgloss.JoinVertical(lipgloss.Left, title, "", Format(r)))
}

// Chart plots the w-window mean of f, or its daily values when w is 0.
// It needs at least two points.
func Chart(t *stats.RollingTable, w int, f models.Field, width int) (string, error) {
	series, label := t.Raw(f), "daily"
	if w > 0 {
		series, label = t.Series(w, f), fmt.Sprintf("%d-day mean", w)
	}
	if len(series) < 2 {
		return "", fmt.Errorf("chart %s %s: %s", f, label, Missing)
	}
	data := make([]float64, len(series))
	for i, p := range series {
		data[i] = p.Value
	}
	caption := fmt.Sprintf("%s %s, %s to %s", f, label,
		series[0].Date.Format(models.DateLayout), series[len(series)-1].Date.Format(models.DateLayout))
	return asciigraph.Plot(data,
		asciigraph.Height(10),
		asciigraph.Width(width),
		asciigraph.Precision(2),
		asciigraph.Caption(caption),
	), nil
}
