package cmd

import (
	"fmt"

	"smartcopy/pkg/checkpoint"
	"smartcopy/pkg/config"
	"smartcopy/pkg/fsadapter"

	"github.com/spf13/cobra"
)

// newCheckpointCmd creates the checkpoint command.
func newCheckpointCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "checkpoint",
		Short: "Inspect and manage transfer checkpoints",
		Long:  `Commands for listing, showing, and garbage-collecting resumable transfer checkpoints`,
	}

	cfg.AddCheckpointFlagsToCommand(cmd)

	cmd.AddCommand(newCheckpointListCmd())
	cmd.AddCommand(newCheckpointShowCmd())
	cmd.AddCommand(newCheckpointGCCmd())

	return cmd
}

func openCheckpointManager() (*checkpoint.Manager, error) {
	if cfg.Checkpoint.Directory == "" {
		return nil, fmt.Errorf("no checkpoint directory configured (use --checkpoint-dir)")
	}
	dir := config.ExpandHomeDir(cfg.Checkpoint.Directory)
	return checkpoint.NewManager(fsadapter.NewLocal(), dir, cfg.Checkpoint.IntervalBytes)
}

// newCheckpointListCmd creates the checkpoint list command.
func newCheckpointListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List known checkpoints",
		Long:  `Lists every transfer checkpoint found in the checkpoint directory`,
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, err := openCheckpointManager()
			if err != nil {
				return err
			}

			states, err := mgr.List()
			if err != nil {
				return fmt.Errorf("listing checkpoints: %w", err)
			}

			if len(states) == 0 {
				fmt.Println("No checkpoints found")
				return nil
			}

			fmt.Printf("Found %d checkpoints:\n\n", len(states))
			fmt.Println("ID                                   | Checkpointed at      | Source -> Destination           | Status")
			fmt.Println("--------------------------------------|----------------------|----------------------------------|----------")
			for _, s := range states {
				fmt.Printf("%-37s | %-20s | %-32s | %s\n",
					s.ID,
					s.LastCheckpoint.Format("2006-01-02 15:04:05"),
					s.Source+" -> "+s.Destination,
					s.Status)
			}
			return nil
		},
	}
}

// newCheckpointShowCmd creates the checkpoint show command.
func newCheckpointShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show TRANSFER_ID",
		Short: "Show checkpoint details",
		Long:  `Shows detailed per-file transfer state for a single checkpoint`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, err := openCheckpointManager()
			if err != nil {
				return err
			}

			state, err := mgr.Load(args[0])
			if err != nil {
				return fmt.Errorf("loading checkpoint: %w", err)
			}

			fmt.Printf("Transfer ID: %s\n", state.ID)
			fmt.Printf("Source: %s\n", state.Source)
			fmt.Printf("Destination: %s\n", state.Destination)
			fmt.Printf("Status: %s\n", state.Status)
			fmt.Printf("Started at: %s\n", state.StartedAt.Format("2006-01-02 15:04:05"))
			fmt.Printf("Last checkpoint: %s\n", state.LastCheckpoint.Format("2006-01-02 15:04:05"))
			fmt.Printf("Bytes transferred: %s / %s\n", formatBytes(state.BytesTransferred), formatBytes(state.TotalSize))

			if len(state.Files) > 0 {
				fmt.Println("\nFiles:")
				fmt.Println("Path                                                 | Status    | Bytes written / size")
				fmt.Println("------------------------------------------------------|-----------|----------------------")
				for path, fs := range state.Files {
					fmt.Printf("%-53s | %-9s | %s / %s\n", path, fs.Status, formatBytes(fs.BytesWritten), formatBytes(fs.Size))
				}
			}
			return nil
		},
	}
}

// newCheckpointGCCmd creates the checkpoint garbage-collection command.
func newCheckpointGCCmd() *cobra.Command {
	var maxAgeDays int

	cmd := &cobra.Command{
		Use:   "gc",
		Short: "Remove stale or terminal checkpoints",
		Long:  `Removes checkpoints that are completed/cancelled, or whose last checkpoint predates the configured age`,
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, err := openCheckpointManager()
			if err != nil {
				return err
			}

			removed, err := mgr.Cleanup(maxAgeDays)
			if err != nil {
				return fmt.Errorf("cleaning up checkpoints: %w", err)
			}

			fmt.Printf("Removed %d checkpoint(s)\n", removed)
			return nil
		},
	}

	cmd.Flags().IntVar(&maxAgeDays, "max-age-days", cfg.Checkpoint.GCMaxAgeDays, "Remove non-terminal checkpoints older than this many days")
	return cmd
}
