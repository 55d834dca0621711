// ABOUTME: CLI commands for ingesting payload documents.
// ABOUTME: ingest runs given files; run processes the newest unprocessed payload.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/fatih/color"
	"github.com/harperreed/bodycomp/internal/pipeline"
	"github.com/spf13/cobra"
)

var ingestPrint bool

var ingestCmd = &cobra.Command{
	Use:     "ingest <file>...",
	Aliases: []string{"add"},
	Short:   "Ingest Health Auto Export payload files",
	Long: `Ingest one or more Health Auto Export JSON documents.

Each document becomes one daily record. A record for a date already in the
history replaces that row. Records dated before cutoff_date are rejected and
leave every table untouched.

Use - to read a document from stdin.

EXAMPLES:

  bodycomp ingest health_data_20250810_073000.json
  bodycomp ingest payloads/*.json --no-deliver
  cat today.json | bodycomp ingest - --print`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		failed := 0
		for _, arg := range args {
			res, err := ingestOne(ctx, cmd.InOrStdin(), arg)
			if err != nil {
				failed++
				color.Red("✗ %s: %v", filepath.Base(arg), err)
				continue
			}
			printResult(res)
		}
		if failed > 0 {
			return fmt.Errorf("%d of %d payloads failed", failed, len(args))
		}
		return nil
	},
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Process the newest unprocessed payload",
	Long: `Process the newest health_data_*.json in payload_dir that the ledger has
not recorded yet. This is one tick of the watcher.

EXAMPLES:

  bodycomp run
  bodycomp run --print`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		poller := pipeline.NewPoller(pipe, cfg.GetPayloadDir(), cfg.GetPollInterval(), logger)
		res, err := poller.Tick(ctx)
		if err != nil {
			return err
		}
		if res == nil {
			fmt.Println("No unprocessed payloads.")
			return nil
		}
		printResult(res)
		return nil
	},
}

func ingestOne(ctx context.Context, stdin io.Reader, arg string) (*pipeline.Result, error) {
	if arg != "-" {
		return pipe.RunFile(ctx, arg)
	}
	data, err := io.ReadAll(stdin)
	if err != nil {
		return nil, fmt.Errorf("failed to read stdin: %w", err)
	}
	return pipe.Run(ctx, "stdin", data)
}

func printResult(res *pipeline.Result) {
	color.Green("✓ %s stored (%d fields), report %s", res.Record.DateString(), res.Record.Count(), res.Report.ID)
	if res.DeliveryErr != nil {
		color.Yellow("! delivery failed: %v", res.DeliveryErr)
	} else if res.Run.Delivered {
		color.Green("✓ report delivered")
	}
	if ingestPrint {
		fmt.Println()
		fmt.Println(res.Text)
	}
}

func init() {
	ingestCmd.Flags().BoolVarP(&ingestPrint, "print", "p", false, "print the report text")
	runCmd.Flags().BoolVarP(&ingestPrint, "print", "p", false, "print the report text")

	rootCmd.AddCommand(ingestCmd)
	rootCmd.AddCommand(runCmd)
}
