package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"citadel-sec/citadel/pkg/audit"
	"citadel-sec/citadel/pkg/bulk"
	"citadel-sec/citadel/pkg/server"
)

var runFlags struct {
	listenAddress string
	logLevel      string
	dryRun        bool
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the Citadel admin server",
	Long: `Start the Citadel admin server with the specified configuration.

The server exposes the policy administration API, the policy-name validity
check, health and metrics endpoints, and (if configured) watches a drop
directory for bulk deletion manifests.

Examples:
  # Start with default config
  citadel run

  # Start with custom config
  citadel run --config /etc/citadel/config.yaml

  # Override listen address
  citadel run --listen 0.0.0.0:8370

  # Validate config without starting the server
  citadel run --dry-run`,
	RunE: runServer,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&runFlags.listenAddress, "listen", "l", "", "override listen address")
	runCmd.Flags().StringVar(&runFlags.logLevel, "log-level", "", "override log level (debug, info, warn, error)")
	runCmd.Flags().BoolVar(&runFlags.dryRun, "dry-run", false, "validate config without starting server")
}

func runServer(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Flag overrides ride the env override path so they are in place before
	// the logger and components are wired.
	if runFlags.logLevel != "" {
		os.Setenv("CITADEL_LOG_LEVEL", runFlags.logLevel)
	}
	if runFlags.listenAddress != "" {
		os.Setenv("CITADEL_SERVER_LISTEN_ADDRESS", runFlags.listenAddress)
	}

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	if runFlags.dryRun {
		fmt.Println("✓ Configuration valid")
		return nil
	}

	// Start the audit retention scheduler
	if a.cfg.Audit.Enabled && a.cfg.Audit.PruneSchedule != "" {
		pruner, err := audit.NewPruner(audit.PrunerConfig{
			RetentionDays: a.cfg.Audit.RetentionDays,
			PruneSchedule: a.cfg.Audit.PruneSchedule,
		}, a.auditSink, a.logger)
		if err != nil {
			return err
		}
		scheduler := audit.NewScheduler(pruner)
		if err := scheduler.Start(ctx); err != nil {
			return err
		}
		defer scheduler.Stop()
	}

	// Start the bulk deletion watcher
	if a.cfg.Bulk.DropDir != "" {
		loader := bulk.NewLoader(a.manager, a.logger)
		watcher, err := bulk.NewWatcher(bulk.WatcherConfig{
			DropDir:          a.cfg.Bulk.DropDir,
			DebounceInterval: a.cfg.Bulk.DebounceInterval,
		}, loader, a.logger)
		if err != nil {
			return err
		}
		go func() {
			if err := watcher.Watch(ctx); err != nil {
				a.logger.Error("bulk deletion watcher failed", "error", err)
			}
		}()
	}

	var metricsHandler = a.collector.Handler()
	if !a.cfg.Telemetry.Metrics.Enabled {
		metricsHandler = nil
	}

	srv := server.NewServer(&a.cfg.Server, a.manager, metricsHandler, a.logger)
	return srv.Start(ctx)
}
