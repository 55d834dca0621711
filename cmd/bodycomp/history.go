// ABOUTME: CLI commands for browsing the history and rolling means.
// ABOUTME: history lists daily rows; chart plots one rolling series.
package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/harperreed/bodycomp/internal/models"
	"github.com/harperreed/bodycomp/internal/report"
	"github.com/spf13/cobra"
)

var (
	historyLimit  int
	historyFields string
	chartWindow   int
	chartRaw      bool
	chartWidth    int
)

var defaultHistoryFields = []models.Field{
	models.FieldWeight, models.FieldFatPct, models.FieldFatMass, models.FieldLeanMass,
	models.FieldEnergyBalance, models.FieldSteps,
}

var historyCmd = &cobra.Command{
	Use:     "history",
	Aliases: []string{"ls", "list"},
	Short:   "List recent daily records",
	Long: `List the newest rows of the daily history table.

Empty cells were not measured that day.

FIELDS:

  weight_kg, lean_mass_kg, fat_mass_kg, fat_pct, energy_balance_kcal,
  energy_intake_kcal, energy_expended_kcal, basal_energy_kcal,
  active_energy_kcal, steps, sleep_hours, skin_temp_c, skin_temp_delta_c,
  skin_temp_deviation_c, skin_temp_trend_c, protein_g, carbs_g, fiber_g, fat_g

EXAMPLES:

  bodycomp history
  bodycomp history -n 30
  bodycomp history --fields weight_kg,fat_pct,protein_g`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		fields, err := parseFields(historyFields)
		if err != nil {
			return err
		}

		table, err := pipe.History().Load()
		if err != nil {
			return err
		}
		records := table.Records()
		if len(records) == 0 {
			fmt.Println("No records found.")
			return nil
		}
		if historyLimit > 0 && len(records) > historyLimit {
			records = records[len(records)-historyLimit:]
		}

		bold := color.New(color.Bold)
		faint := color.New(color.Faint)
		header := padRight("date", 12)
		for _, f := range fields {
			header += padRight(truncate(string(f), 14), 16)
		}
		fmt.Println(bold.Sprint(header))
		for _, rec := range records {
			line := faint.Sprint(padRight(rec.DateString(), 12))
			for _, f := range fields {
				line += padRight(cell(rec.Get(f)), 16)
			}
			fmt.Println(strings.TrimRight(line, " "))
		}
		return nil
	},
}

var chartCmd = &cobra.Command{
	Use:   "chart [field]",
	Short: "Plot a rolling mean",
	Long: `Plot the rolling mean of one field (default fat_pct) in the terminal.
With --raw the measured daily values are plotted instead.

EXAMPLES:

  bodycomp chart
  bodycomp chart weight_kg --window 28
  bodycomp chart fat_mass_kg -w 14 --width 80
  bodycomp chart weight_kg --raw`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		field := models.FieldFatPct
		if len(args) == 1 {
			f, ok := models.FieldForColumn(args[0])
			if !ok {
				return fmt.Errorf("unknown field: %s", args[0])
			}
			field = f
		}

		table, _, err := pipe.Analyze()
		if err != nil {
			return err
		}
		window := chartWindow
		switch {
		case chartRaw:
			window = 0
		case window == 0:
			window = table.Short()
		}
		plot, err := report.Chart(table, window, field, chartWidth)
		if err != nil {
			return err
		}
		fmt.Println(plot)
		return nil
	},
}

func parseFields(s string) ([]models.Field, error) {
	if s == "" {
		return defaultHistoryFields, nil
	}
	var fields []models.Field
	for _, name := range strings.Split(s, ",") {
		f, ok := models.FieldForColumn(strings.TrimSpace(name))
		if !ok {
			return nil, fmt.Errorf("unknown field: %s", name)
		}
		fields = append(fields, f)
	}
	return fields, nil
}

// cell renders an unmeasured value as an empty cell.
func cell(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}

func padRight(s string, length int) string {
	if len(s) >= length {
		return s
	}
	return s + strings.Repeat(" ", length-len(s))
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 14, "number of rows (0 for all)")
	historyCmd.Flags().StringVarP(&historyFields, "fields", "f", "", "comma-separated fields")
	chartCmd.Flags().IntVarP(&chartWindow, "window", "w", 0, "window size (default: the short window)")
	chartCmd.Flags().IntVar(&chartWidth, "width", 60, "plot width in columns")
	chartCmd.Flags().BoolVar(&chartRaw, "raw", false, "plot daily values instead of a mean")

	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(chartCmd)
}
