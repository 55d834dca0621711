// ABOUTME: CLI commands for the long-running webhook and payload watcher.
// ABOUTME: serve runs both under one errgroup; watch runs the poller alone.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/harperreed/bodycomp/internal/pipeline"
	"github.com/harperreed/bodycomp/internal/server"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var (
	serveAddr    string
	serveNoWatch bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the webhook and payload watcher",
	Long: `Run the inbound webhook and the payload watcher until interrupted.

ENDPOINTS:

  POST /health-data    store a payload and run the pipeline on it
  GET  /health-data    receiver status
  GET  /health-check   monitoring probe
  GET  /latest-data    preview of the newest stored payload

The watcher re-checks payload_dir every poll_interval and processes the
newest payload the ledger has not recorded.

EXAMPLES:

  bodycomp serve                 # :5000, or $PORT when set
  bodycomp serve --addr :8080
  bodycomp serve --no-watch`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		addr := serveAddr
		if addr == "" {
			addr = cfg.GetAddr()
		}
		var runner server.Runner
		if cfg.Server.ProcessOnReceive {
			runner = pipe
		}
		srv := server.New(addr, cfg.GetPayloadDir(), runner, logger)

		g, ctx := errgroup.WithContext(ctx)
		g.Go(func() error { return srv.Run(ctx) })
		if !serveNoWatch {
			poller := pipeline.NewPoller(pipe, cfg.GetPayloadDir(), cfg.GetPollInterval(), logger)
			g.Go(func() error { return poller.Run(ctx) })
		}
		return g.Wait()
	},
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Process new payloads on an interval",
	Long: `Watch payload_dir and process the newest unprocessed payload every
poll_interval until interrupted.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		return pipeline.NewPoller(pipe, cfg.GetPayloadDir(), cfg.GetPollInterval(), logger).Run(ctx)
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default: server.addr)")
	serveCmd.Flags().BoolVar(&serveNoWatch, "no-watch", false, "do not poll payload_dir")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(watchCmd)
}
