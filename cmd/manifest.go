package cmd

import (
	"fmt"
	"time"

	"smartcopy/pkg/config"
	"smartcopy/pkg/fsadapter"
	"smartcopy/pkg/manifest"
	"smartcopy/pkg/scanner"

	"github.com/spf13/cobra"
)

// newManifestCmd creates the manifest command.
func newManifestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "manifest",
		Short: "Inspect persisted sync manifests",
		Long: `Operations on the persisted record of a synced tree's state.

Available subcommands:
  inspect   - Print a manifest's contents
  diff      - Diff a manifest against a fresh scan of its source tree`,
	}

	cmd.AddCommand(newManifestInspectCmd())
	cmd.AddCommand(newManifestDiffCmd())

	return cmd
}

func openManifestStore(path string) (*manifest.Store, error) {
	if path == "" {
		return nil, fmt.Errorf("no manifest path given (use --manifest-path or a positional argument)")
	}
	path = config.ExpandHomeDir(path)
	store := manifest.New(fsadapter.NewLocal(), path, manifestFormatFromString(cfg.Manifest.Format), "", "")
	if err := store.Load(); err != nil {
		return nil, fmt.Errorf("loading manifest: %w", err)
	}
	return store, nil
}

// newManifestInspectCmd creates the manifest inspect command.
func newManifestInspectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect PATH",
		Short: "Print a manifest's contents",
		Long:  `Loads a manifest file and prints its summary and every recorded entry`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openManifestStore(args[0])
			if err != nil {
				return err
			}

			stats := store.Stats()
			fmt.Printf("Version:          %s\n", stats.Version)
			fmt.Printf("Source root:      %s\n", stats.SourceRoot)
			fmt.Printf("Destination root: %s\n", stats.DestRoot)
			fmt.Printf("Created:          %s\n", stats.Created.Format("2006-01-02 15:04:05"))
			fmt.Printf("Updated:          %s\n", stats.Updated.Format("2006-01-02 15:04:05"))
			fmt.Printf("Total files:      %d\n", stats.TotalFiles)
			fmt.Printf("Total size:       %s\n", formatBytes(stats.TotalSize))

			snap := store.Snapshot()
			if len(snap.Entries) > 0 {
				fmt.Println("\nEntries:")
				fmt.Println("Path                                                 | Size       | Mtime")
				fmt.Println("------------------------------------------------------|------------|--------------------")
				for _, e := range snap.Entries {
					fmt.Printf("%-53s | %10s | %s\n", e.Path, formatBytes(e.Size), timeFromUnix(e.MtimeSecs))
				}
			}
			return nil
		},
	}
}

// newManifestDiffCmd creates the manifest diff command.
func newManifestDiffCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "diff PATH SOURCE_ROOT",
		Short: "Diff a manifest against a fresh scan",
		Long:  `Scans SOURCE_ROOT and reports which files have been added, modified, or deleted relative to the manifest at PATH`,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			manifestPath, sourceRoot := args[0], args[1]

			store, err := openManifestStore(manifestPath)
			if err != nil {
				return err
			}

			logger, ctx, cancel := setupCommand(cmd.Context())
			defer cancel()

			scan, err := scanner.NewLocal().Scan(ctx, sourceRoot)
			if err != nil {
				return fmt.Errorf("scanning %s: %w", sourceRoot, err)
			}
			for _, e := range scan.Errors {
				logger.WithField("path", e.Path).WithField("reason", e.Reason).Warn("skipping unreadable directory during scan")
			}

			diff := store.DiffAgainst(scan.Files)

			printPathList("Added", diff.Added)
			printPathList("Modified", diff.Modified)
			printPathList("Deleted", diff.Deleted)
			fmt.Printf("\nUnchanged: %d file(s)\n", len(diff.Unchanged))

			return nil
		},
	}
}

func printPathList(label string, paths []string) {
	fmt.Printf("%s: %d file(s)\n", label, len(paths))
	for _, p := range paths {
		fmt.Printf("  %s\n", p)
	}
}

func timeFromUnix(secs int64) string {
	return time.Unix(secs, 0).UTC().Format("2006-01-02 15:04:05")
}
