// ABOUTME: CLI command summarizing stores and recent pipeline runs.
// ABOUTME: Reads the ledger and shows run outcomes with relative times.
package main

import (
	"errors"
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/harperreed/bodycomp/internal/models"
	"github.com/harperreed/bodycomp/internal/storage"
	"github.com/spf13/cobra"
)

var (
	statusLimit int
	statusRun   string
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show stores and recent runs",
	Long: `Show where the tables live, how many rows the history holds, the newest
report, and the most recent pipeline runs from the ledger.

EXAMPLES:

  bodycomp status
  bodycomp status -n 20
  bodycomp status --run 3f2a9c1d`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if statusRun != "" {
			return showRun(statusRun)
		}
		faint := color.New(color.Faint)

		table, err := pipe.History().Load()
		if err != nil {
			return err
		}
		fmt.Printf("History:   %s %s\n", pipe.History().Path(), faint.Sprintf("(%d rows)", table.Len()))
		if cutoff := pipe.History().Cutoff(); !cutoff.IsZero() {
			fmt.Printf("Cutoff:    %s\n", cutoff.Format(models.DateLayout))
		}
		fmt.Printf("Payloads:  %s\n", cfg.GetPayloadDir())
		fmt.Printf("Ledger:    %s\n", ledger.Path())
		fmt.Printf("Delivery:  %s\n", onOff(notifier.Enabled()))
		fmt.Printf("Oura:      %s\n", onOff(cfg.Oura.Enabled))

		latest, err := pipe.Snapshots().Latest()
		switch {
		case errors.Is(err, storage.ErrNotFound):
			fmt.Println("Report:    none yet")
		case err != nil:
			return err
		default:
			fmt.Printf("Report:    %s %s\n", latest.ID, faint.Sprintf("(as of %s, %s)",
				latest.AsOf.Format(models.DateLayout), humanize.Time(latest.GeneratedAt)))
		}

		last, err := ledger.LatestRun()
		switch {
		case errors.Is(err, storage.ErrNotFound):
			fmt.Println("Last run:  none yet")
			return nil
		case err != nil:
			return fmt.Errorf("failed to read last run: %w", err)
		default:
			fmt.Printf("Last run:  %s %s\n", runStatus(last.Status), faint.Sprint(humanize.Time(last.StartedAt)))
		}

		runs, err := ledger.ListRuns(statusLimit)
		if err != nil {
			return fmt.Errorf("failed to list runs: %w", err)
		}
		fmt.Println()
		for _, r := range runs {
			fmt.Println(formatRun(r))
		}
		return nil
	},
}

// showRun prints every journaled field of one run.
func showRun(idOrPrefix string) error {
	r, err := ledger.GetRun(idOrPrefix)
	if err != nil {
		return err
	}
	fmt.Printf("Run:       %s\n", r.ID)
	fmt.Printf("Source:    %s\n", r.Source)
	fmt.Printf("Status:    %s\n", runStatus(r.Status))
	if r.RecordDate != nil {
		fmt.Printf("Date:      %s\n", r.RecordDate.Format(models.DateLayout))
	}
	if r.ReportID != "" {
		fmt.Printf("Report:    %s\n", r.ReportID)
	}
	fmt.Printf("Started:   %s (%s)\n", r.StartedAt.Local().Format("2006-01-02 15:04:05"), humanize.Time(r.StartedAt))
	if r.FinishedAt != nil {
		fmt.Printf("Took:      %s\n", r.Duration())
	}
	if r.Error != "" {
		fmt.Printf("Error:     %s\n", color.RedString(r.Error))
	}
	switch {
	case r.DeliveryError != "":
		fmt.Printf("Delivery:  %s\n", color.YellowString(r.DeliveryError))
	case r.Delivered:
		fmt.Printf("Delivery:  %s\n", color.GreenString("delivered"))
	}
	return nil
}

func formatRun(r *models.Run) string {
	faint := color.New(color.Faint)
	date := "          "
	if r.RecordDate != nil {
		date = r.RecordDate.Format(models.DateLayout)
	}
	line := fmt.Sprintf("%s %s %s %s",
		faint.Sprint(r.ID.String()[:8]),
		padRight(runStatus(r.Status), 10),
		date,
		faint.Sprint(padRight(humanize.Time(r.StartedAt), 16)))
	switch {
	case r.Error != "":
		line += " " + color.RedString(truncate(r.Error, 60))
	case r.DeliveryError != "":
		line += " " + color.YellowString("delivery: "+truncate(r.DeliveryError, 50))
	case r.Delivered:
		line += " " + color.GreenString("delivered")
	}
	return line
}

func runStatus(s models.RunStatus) string {
	switch s {
	case models.RunSucceeded:
		return color.GreenString(string(s))
	case models.RunRejected:
		return color.YellowString(string(s))
	case models.RunFailed:
		return color.RedString(string(s))
	}
	return string(s)
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}

func init() {
	statusCmd.Flags().IntVarP(&statusLimit, "limit", "n", 10, "number of runs")
	statusCmd.Flags().StringVar(&statusRun, "run", "", "show one run by ID or prefix")
	rootCmd.AddCommand(statusCmd)
}
