package cmd

import (
	"context"
	"fmt"

	"smartcopy/pkg/checkpoint"
	"smartcopy/pkg/config"
	"smartcopy/pkg/engine"
	"smartcopy/pkg/formatting"
	"smartcopy/pkg/fsadapter"
	"smartcopy/pkg/manifest"
	"smartcopy/pkg/metrics"
	"smartcopy/pkg/progress"

	"github.com/spf13/cobra"
)

var syncOutputTemplate string

// newSyncCmd creates the sync command.
func newSyncCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sync SOURCE DESTINATION",
		Short: "Synchronize a destination tree to match a source tree",
		Long: `Synchronizes DESTINATION to match SOURCE: scans both trees (or the
source tree against a prior manifest), copies new files with the parallel
chunked copier, and delta-patches changed files by transferring only the
blocks that actually differ.

Examples:
  # Sync two local directory trees
  smartcopy sync /data/source /data/mirror

  # Also remove destination files that no longer exist in source
  smartcopy sync /data/source /data/mirror --delete

  # Resume an interrupted transfer
  smartcopy sync /data/source /data/mirror --resume a1b2c3d4e5f60718
`,
		Args: cobra.ExactArgs(2),
		RunE: runSync,
	}

	cfg.AddSyncFlags(cmd)
	cfg.AddCheckpointFlagsToCommand(cmd)
	cmd.Flags().StringVar(&syncOutputTemplate, "output-template", "",
		`Go template (e.g. "{{.FilesCopied}} copied, {{.BytesTransferred}} bytes") to format the result instead of the default summary`)

	return cmd
}

// runSync executes the sync command.
func runSync(cmd *cobra.Command, args []string) error {
	source, destination := args[0], args[1]

	logger, ctx, cancel := setupCommand(context.Background())
	defer cancel()

	opts := engine.New(cfg, source, destination)
	opts.Logger = logger

	if cfg.Metrics.Enabled {
		opts.Metrics = metrics.NewRegistry(cfg.Metrics.Namespace)
		opts.Collector = metrics.NewInMemoryMetrics()
	}

	if cfg.Progress.Enabled {
		opts.Progress = progress.NewTerminal(cmd.OutOrStdout(), cfg.Progress.UpdatesPerSecond)
	}

	if cfg.Checkpoint.Directory != "" {
		dir := config.ExpandHomeDir(cfg.Checkpoint.Directory)
		mgr, err := checkpoint.NewManager(fsadapter.NewLocal(), dir, cfg.Checkpoint.IntervalBytes)
		if err != nil {
			return fmt.Errorf("initializing checkpoint manager: %w", err)
		}
		opts.Checkpoints = mgr
		opts.ResumeID = cfg.Checkpoint.ResumeID
	}

	if cfg.Manifest.Path != "" {
		manifestPath := config.ExpandHomeDir(cfg.Manifest.Path)
		format := manifestFormatFromString(cfg.Manifest.Format)
		store := manifest.New(fsadapter.NewLocal(), manifestPath, format, source, destination)
		if err := store.Load(); err != nil {
			logger.WithField("path", manifestPath).Info("no usable manifest found, falling back to a full destination scan")
		}
		opts.ManifestStore = store
	}

	logger.WithField("source", source).WithField("destination", destination).Info("starting sync")

	result, err := engine.Sync(ctx, opts)
	if err != nil {
		if result != nil {
			printSyncResult(cmd, result)
		}
		return fmt.Errorf("sync failed: %w", err)
	}

	printSyncResult(cmd, result)
	return nil
}

// printSyncResult renders result via the user's --output-template if one was
// given, falling back to the plain-text summary otherwise.
func printSyncResult(cmd *cobra.Command, result *engine.Result) {
	if syncOutputTemplate == "" {
		displaySyncResult(result)
		return
	}

	formatter, err := formatting.NewTemplateFormatter(syncOutputTemplate)
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "invalid --output-template, falling back to default summary: %v\n", err)
		displaySyncResult(result)
		return
	}
	if err := formatter.Format(cmd.OutOrStdout(), result); err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "rendering --output-template: %v\n", err)
		displaySyncResult(result)
	}
}

func manifestFormatFromString(s string) manifest.Format {
	switch s {
	case "text":
		return manifest.FormatText
	case "columnar":
		return manifest.FormatColumnar
	default:
		return manifest.FormatBinary
	}
}

func displaySyncResult(result *engine.Result) {
	fmt.Printf("\nSync Summary:\n")
	fmt.Printf("  Scanned:        %d\n", result.FilesScanned)
	fmt.Printf("  Copied:         %d\n", result.FilesCopied)
	fmt.Printf("  Delta-synced:   %d\n", result.FilesDeltaSynced)
	fmt.Printf("  Skipped:        %d\n", result.FilesSkipped)
	fmt.Printf("  Deleted:        %d\n", result.FilesDeleted)
	fmt.Printf("  Failed:         %d\n", result.FilesFailed)
	fmt.Printf("  Transferred:    %s\n", formatBytes(result.BytesTransferred))
	fmt.Printf("  Saved by delta: %s\n", formatBytes(result.BytesSaved))
	fmt.Printf("  Duration:       %s\n", result.Duration)
	if result.TransferID != "" {
		fmt.Printf("  Transfer ID:    %s\n", result.TransferID)
	}
}

// formatBytes formats a byte count into a human-readable string.
func formatBytes(bytes int64) string {
	const (
		KB = 1024
		MB = KB * 1024
		GB = MB * 1024
		TB = GB * 1024
	)

	switch {
	case bytes >= TB:
		return fmt.Sprintf("%.2f TB", float64(bytes)/float64(TB))
	case bytes >= GB:
		return fmt.Sprintf("%.2f GB", float64(bytes)/float64(GB))
	case bytes >= MB:
		return fmt.Sprintf("%.2f MB", float64(bytes)/float64(MB))
	case bytes >= KB:
		return fmt.Sprintf("%.2f KB", float64(bytes)/float64(KB))
	default:
		return fmt.Sprintf("%d B", bytes)
	}
}
