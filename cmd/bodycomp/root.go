// ABOUTME: Root Cobra command for the bodycomp CLI.
// ABOUTME: Builds config, logger, stores, ledger and pipeline in PersistentPre/PostRunE.
package main

import (
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/harperreed/bodycomp/internal/analysis"
	"github.com/harperreed/bodycomp/internal/config"
	"github.com/harperreed/bodycomp/internal/notify"
	"github.com/harperreed/bodycomp/internal/oura"
	"github.com/harperreed/bodycomp/internal/pipeline"
	"github.com/harperreed/bodycomp/internal/storage"
	"github.com/spf13/cobra"
)

var (
	cfgPath    string
	verbose    bool
	noDeliver  bool
	cfg        *config.Config
	logger     *log.Logger
	ledger     *storage.DB
	notifier   notify.Notifier
	pipe       *pipeline.Pipeline
	skipStores = map[string]bool{"help": true, "version": true, "completion": true}
)

var rootCmd = &cobra.Command{
	Use:   "bodycomp",
	Short: "Body-composition progress pipeline",
	Long: `Bodycomp turns daily Health Auto Export documents into a progress report
toward a body-composition goal.

WHAT IT DOES:

  Normalize    one payload → one daily record (weight, fat %, energy, macros, ...)
  Store        upsert into the daily history table (one row per date)
  Recompute    7/14/28-day rolling means over the whole history
  Analyze      goal progress, projection, plateau detection, macro and calorie balance
  Report       plain-text report, optionally pushed to LINE

QUICK START:

  $ bodycomp config init                  # Write a default config file
  $ bodycomp ingest health_data.json      # Ingest one payload
  $ bodycomp report                       # Show the latest report
  $ bodycomp serve                        # Webhook + poller on :5000

DATA STORAGE:

  Tables live under ~/.local/share/bodycomp/reports by default:
  daily_history.csv, rolling_stats.csv, index_table.csv and snapshots/.
  Runs are journaled in ~/.local/share/bodycomp/ledger.db.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if skipStores[cmd.Name()] {
			return nil
		}
		// A failed command skips PostRunE; drop anything it left open.
		if err := closePipeline(); err != nil {
			return err
		}

		var err error
		if cfgPath != "" {
			cfg, err = config.LoadFile(config.ExpandPath(cfgPath))
		} else {
			cfg, err = config.Load()
		}
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		logger = newLogger(cfg.LogLevel, verbose)

		// Config subcommands work on the file alone.
		if cmd.Parent() == configCmd {
			return nil
		}
		if err := cfg.Validate(); err != nil {
			return err
		}
		return openPipeline()
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		return closePipeline()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "", "config file (default: "+config.GetConfigPath()+")")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
	rootCmd.PersistentFlags().BoolVar(&noDeliver, "no-deliver", false, "never push reports")
}

func newLogger(level string, debug bool) *log.Logger {
	l := log.NewWithOptions(os.Stderr, log.Options{ReportTimestamp: true, Prefix: "bodycomp"})
	switch level {
	case "debug":
		l.SetLevel(log.DebugLevel)
	case "warn":
		l.SetLevel(log.WarnLevel)
	case "error":
		l.SetLevel(log.ErrorLevel)
	default:
		l.SetLevel(log.InfoLevel)
	}
	if debug {
		l.SetLevel(log.DebugLevel)
	}
	return l
}

// openPipeline wires every collaborator from cfg.
func openPipeline() error {
	cutoff, err := cfg.GetCutoff()
	if err != nil {
		return err
	}

	ledger, err = storage.Open(cfg.LedgerPath())
	if err != nil {
		return fmt.Errorf("failed to open ledger: %w", err)
	}

	notifier = notify.Disabled{}
	if cfg.Line.Enabled && !noDeliver {
		notifier = notify.NewLineClient(cfg.Line.Token, cfg.Line.To, cfg.Line.BaseURL, cfg.GetDeliveryTimeout())
	}

	var enricher pipeline.Enricher
	if cfg.Oura.Enabled {
		enricher = oura.NewClient(cfg.Oura.Token, cfg.Oura.BaseURL, oura.DefaultTimeout)
	}

	pipe = pipeline.New(pipeline.Deps{
		History:         storage.NewHistoryStore(cfg.HistoryPath(), cutoff),
		Snapshots:       storage.NewSnapshotStore(cfg.SnapshotPath()),
		Ledger:          ledger,
		Notifier:        notifier,
		Enricher:        enricher,
		Analyzer:        analysis.NewAnalyzer(cfg.AnalyzerOptions()),
		Windows:         cfg.GetWindows(),
		RollingPath:     cfg.RollingPath(),
		IndexPath:       cfg.IndexPath(),
		DeliveryTimeout: cfg.GetDeliveryTimeout(),
		Logger:          logger,
	})
	logger.Debug("pipeline ready", "reports", cfg.GetReportsDir(), "ledger", cfg.LedgerPath(),
		"delivery", notifier.Enabled(), "oura", enricher != nil)
	return nil
}

func closePipeline() error {
	pipe = nil
	if ledger == nil {
		return nil
	}
	err := ledger.Close()
	ledger = nil
	return err
}
