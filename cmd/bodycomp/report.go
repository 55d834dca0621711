// ABOUTME: CLI commands for showing, sending and rebuilding progress reports.
// ABOUTME: report reads the newest snapshot; recompute rebuilds every derived table.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/harperreed/bodycomp/internal/models"
	"github.com/harperreed/bodycomp/internal/report"
	"github.com/harperreed/bodycomp/internal/storage"
	"github.com/spf13/cobra"
)

var (
	reportRefresh bool
	reportSend    bool
	reportJSON    bool
	reportPlain   bool
	recomputeSend bool
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Show the latest progress report",
	Long: `Show the newest report snapshot. With --refresh the report is recomputed
from the history without writing anything.

EXAMPLES:

  bodycomp report                # framed report card
  bodycomp report --plain        # the exact text that is pushed
  bodycomp report --json         # the snapshot document
  bodycomp report --send         # push the newest report again`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		r, err := loadReport(reportRefresh)
		if err != nil {
			return err
		}

		switch {
		case reportJSON:
			data, err := json.MarshalIndent(r, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(data))
		case reportPlain:
			fmt.Println(report.Format(r))
		default:
			fmt.Println(report.Card(r))
		}

		if !reportSend {
			return nil
		}
		if !notifier.Enabled() {
			return errors.New("delivery is not configured (line.enabled)")
		}
		ctx, cancel := context.WithTimeout(context.Background(), cfg.GetDeliveryTimeout())
		defer cancel()
		if err := notifier.Send(ctx, report.Format(r)); err != nil {
			return fmt.Errorf("failed to send report: %w", err)
		}
		color.Green("✓ Sent report %s", r.ID)
		return nil
	},
}

var recomputeCmd = &cobra.Command{
	Use:     "recompute",
	Aliases: []string{"rebuild"},
	Short:   "Rebuild rolling and index tables and a new report",
	Long: `Recompute every derived table from the daily history and write a new
report snapshot. Nothing is ingested.

EXAMPLES:

  bodycomp recompute
  bodycomp recompute --send`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		res, err := pipe.Rebuild(ctx, recomputeSend)
		if err != nil {
			return err
		}
		color.Green("✓ Recomputed %d rows, report %s", res.Table.Len(), res.Report.ID)
		if res.DeliveryErr != nil {
			color.Yellow("! delivery failed: %v", res.DeliveryErr)
		}
		return nil
	},
}

// loadReport returns the newest snapshot, or a freshly computed report when
// refresh is set or no snapshot exists yet.
func loadReport(refresh bool) (*models.ProgressReport, error) {
	if !refresh {
		r, err := pipe.Snapshots().Latest()
		if err == nil {
			return r, nil
		}
		if !errors.Is(err, storage.ErrNotFound) {
			return nil, err
		}
	}
	_, r, err := pipe.Analyze()
	return r, err
}

func init() {
	reportCmd.Flags().BoolVar(&reportRefresh, "refresh", false, "recompute instead of reading the snapshot")
	reportCmd.Flags().BoolVar(&reportSend, "send", false, "push the report")
	reportCmd.Flags().BoolVar(&reportJSON, "json", false, "print the report as JSON")
	reportCmd.Flags().BoolVar(&reportPlain, "plain", false, "print the plain text report")
	recomputeCmd.Flags().BoolVar(&recomputeSend, "send", false, "push the new report")

	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(recomputeCmd)
}
