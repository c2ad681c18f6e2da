package cmd

import (
	"fmt"
	"os"

	"smartcopy/pkg/checkpoint"
	"smartcopy/pkg/config"
	"smartcopy/pkg/fsadapter"
	"smartcopy/pkg/helper/banner"
	"smartcopy/pkg/metrics"
	"smartcopy/pkg/server"

	"github.com/spf13/cobra"
)

// newServeCmd creates the serve command.
func newServeCmd() *cobra.Command {
	var configFile string
	var noBanner bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the liveness and metrics HTTP server",
		Long:  `Starts an HTTP server exposing a /healthz liveness check and a /metrics Prometheus endpoint for a long-running sync deployment`,
		Run: func(cmd *cobra.Command, args []string) {
			if !noBanner {
				banner.Version = version
				banner.GitCommit = gitCommit
				banner.BuildTime = buildTime
				banner.Print()
			}

			logger, ctx, cancel := setupCommand(cmd.Context())
			defer cancel()

			if configFile != "" {
				logger.WithField("file", configFile).Info("loading configuration from file")

				loadedCfg, err := config.LoadFromFile(configFile)
				if err != nil {
					logger.Error("failed to load configuration", err)
					fmt.Printf("Error loading configuration: %s\n", err)
					os.Exit(1)
				}
				cfg = loadedCfg
			}

			logger.WithField("port", cfg.Server.Port).Info("starting smartcopy server")

			var checkpoints *checkpoint.Manager
			if cfg.Checkpoint.Directory != "" {
				dir := config.ExpandHomeDir(cfg.Checkpoint.Directory)
				mgr, err := checkpoint.NewManager(fsadapter.NewLocal(), dir, cfg.Checkpoint.IntervalBytes)
				if err != nil {
					logger.Error("failed to initialize checkpoint manager", err)
					fmt.Printf("Error initializing checkpoint manager: %s\n", err)
					os.Exit(1)
				}
				checkpoints = mgr

				if cfg.Checkpoint.GCSchedule != "" {
					gc, err := checkpoint.NewScheduledGC(cfg.Checkpoint.GCSchedule, checkpoints, cfg.Checkpoint.GCMaxAgeDays, logger)
					if err != nil {
						logger.Error("failed to start scheduled checkpoint gc", err)
						fmt.Printf("Error starting scheduled checkpoint gc: %s\n", err)
						os.Exit(1)
					}
					defer gc.Stop()
				}
			}

			var metricsRegistry *metrics.Registry
			if cfg.Metrics.Enabled {
				metricsRegistry = metrics.NewRegistry(cfg.Metrics.Namespace)
			}

			srv, err := server.NewServer(ctx, cfg, logger, metricsRegistry, checkpoints)
			if err != nil {
				logger.Error("failed to create server", err)
				fmt.Printf("Error creating server: %s\n", err)
				os.Exit(1)
			}

			if err := srv.Start(); err != nil {
				logger.Error("server failed", err)
				fmt.Printf("Server error: %s\n", err)
				os.Exit(1)
			}
		},
	}

	cfg.AddServerFlags(cmd)
	cmd.Flags().StringVarP(&configFile, "config", "c", "", "Configuration file path")
	cmd.Flags().BoolVar(&noBanner, "no-banner", false, "Disable ASCII banner on startup")
	cmd.Flags().StringVar(&cfg.Checkpoint.GCSchedule, "gc-schedule", cfg.Checkpoint.GCSchedule, `Cron spec for a background checkpoint GC sweep (e.g. "0 3 * * *"); empty disables it`)
	cmd.Flags().IntVar(&cfg.Checkpoint.GCMaxAgeDays, "gc-max-age-days", cfg.Checkpoint.GCMaxAgeDays, "Garbage-collect checkpoint state older than this many days")

	return cmd
}
