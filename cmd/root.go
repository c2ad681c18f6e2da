// Package cmd provides the command-line interface for smartcopy.
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"smartcopy/pkg/config"
	"smartcopy/pkg/helper/log"

	"github.com/spf13/cobra"
)

var (
	// cfg is the configuration shared by every subcommand.
	cfg *config.Config

	rootCmd = &cobra.Command{
		Use:   "smartcopy",
		Short: "smartcopy is a high-throughput file synchronization and delta engine",
		Long:  `A tool for synchronizing directory trees with block-level delta transfer, transfer checkpointing, and manifest-based change detection.`,
	}
)

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

// init initializes the command structure.
func init() {
	cfg = config.NewDefaultConfig()
	cfg.AddFlagsToCommand(rootCmd)

	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newHealthCheckCmd())
	rootCmd.AddCommand(newSyncCmd())
	rootCmd.AddCommand(newCheckpointCmd())
	rootCmd.AddCommand(newManifestCmd())
	rootCmd.AddCommand(newServeCmd())
}

// setupCommand creates a logger and a cancellable context wired to
// SIGINT/SIGTERM, so a long-running sync can be interrupted cleanly.
func setupCommand(ctx context.Context) (log.Logger, context.Context, context.CancelFunc) {
	logger := createLogger(cfg.LogLevel)
	ctx, cancel := context.WithCancel(ctx)

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		select {
		case <-sigCh:
			logger.Info("received termination signal, shutting down")
			cancel()
		case <-ctx.Done():
			return
		}
	}()

	return logger, ctx, cancel
}

// createLogger creates a new logger at the given level string.
func createLogger(level string) log.Logger {
	return log.NewBasicLogger(log.ParseLevel(level))
}
