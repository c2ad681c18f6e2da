package config

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

// Config represents the main application configuration.
type Config struct {
	// General configuration
	LogLevel string

	// Sync engine configuration
	Sync SyncConfig

	// Manifest persistence configuration
	Manifest ManifestConfig

	// Transfer checkpoint/resume configuration
	Checkpoint CheckpointConfig

	// Server configuration
	Server ServerConfig

	// Progress reporting configuration
	Progress ProgressConfig

	// Prometheus metrics configuration
	Metrics MetricsConfig
}

// SyncConfig contains the delta/chunked-copy engine's tunables.
type SyncConfig struct {
	ChunkSizeBytes    int64
	CopyWorkers       int
	SignatureWorkers  int
	AutoDetectWorkers bool
	VerifyHashes      bool
	DeleteExtra       bool
	IgnoreTimes       bool
	ContentCompare    bool
	MaxBytesPerSecond int64
}

// ManifestConfig contains manifest serialization format and location.
type ManifestConfig struct {
	Format string // "text", "binary", or "columnar"
	Path   string
}

// CheckpointConfig contains transfer-resume state configuration.
type CheckpointConfig struct {
	Directory     string
	IntervalBytes int64
	GCMaxAgeDays  int
	ResumeID      string
	GCSchedule    string // cron spec for a background GC sweep in `serve`; empty disables it
}

// ServerConfig contains server related configuration.
type ServerConfig struct {
	Port            int
	HealthCheckPath string
	MetricsPath     string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// ProgressConfig contains terminal progress-reporting configuration.
type ProgressConfig struct {
	Enabled          bool
	UpdatesPerSecond float64
}

// NewDefaultConfig creates a new configuration with default values.
func NewDefaultConfig() *Config {
	return &Config{
		LogLevel: "info",
		Sync: SyncConfig{
			ChunkSizeBytes:    4 * 1024 * 1024,
			CopyWorkers:       0,
			SignatureWorkers:  0,
			AutoDetectWorkers: true,
			VerifyHashes:      true,
			DeleteExtra:       false,
			IgnoreTimes:       false,
			ContentCompare:    false,
		},
		Manifest: ManifestConfig{
			Format: "binary",
			Path:   "${HOME}/.smartcopy/manifest.bin",
		},
		Checkpoint: CheckpointConfig{
			Directory:     "${HOME}/.smartcopy/checkpoints",
			IntervalBytes: 64 * 1024 * 1024,
			GCMaxAgeDays:  30,
			ResumeID:      "",
		},
		Server: ServerConfig{
			Port:            8080,
			HealthCheckPath: "/healthz",
			MetricsPath:     "/metrics",
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    60 * time.Second,
			ShutdownTimeout: 15 * time.Second,
		},
		Progress: ProgressConfig{
			Enabled:          true,
			UpdatesPerSecond: 10,
		},
		Metrics: MetricsConfig{
			Enabled:   true,
			Namespace: "smartcopy",
		},
	}
}

// AddFlagsToCommand adds configuration flags shared by every subcommand.
func (c *Config) AddFlagsToCommand(cmd *cobra.Command) {
	cmd.PersistentFlags().StringVar(&c.LogLevel, "log-level", c.LogLevel, "Log level (debug, info, warn, error, fatal)")

	cmd.PersistentFlags().Int64Var(&c.Sync.ChunkSizeBytes, "chunk-size", c.Sync.ChunkSizeBytes, "Chunk size in bytes for signatures and parallel copy")
	cmd.PersistentFlags().IntVar(&c.Sync.CopyWorkers, "copy-workers", c.Sync.CopyWorkers, "Number of parallel chunk-copy workers (0 = auto-detect)")
	cmd.PersistentFlags().IntVar(&c.Sync.SignatureWorkers, "signature-workers", c.Sync.SignatureWorkers, "Number of parallel signature workers (0 = auto-detect)")
	cmd.PersistentFlags().BoolVar(&c.Sync.AutoDetectWorkers, "auto-detect-workers", c.Sync.AutoDetectWorkers, "Auto-detect optimal worker count based on system resources")
	cmd.PersistentFlags().BoolVar(&c.Sync.VerifyHashes, "verify-hashes", c.Sync.VerifyHashes, "Verify per-chunk hashes during parallel copy")

	cmd.PersistentFlags().StringVar(&c.Manifest.Format, "manifest-format", c.Manifest.Format, "Manifest serialization format (text, binary, columnar)")
	cmd.PersistentFlags().StringVar(&c.Manifest.Path, "manifest-path", c.Manifest.Path, "Manifest file path")

	cmd.PersistentFlags().BoolVar(&c.Progress.Enabled, "progress", c.Progress.Enabled, "Show a terminal progress line during transfers")
}

// AddSyncFlags adds sync-specific flags to a command.
func (c *Config) AddSyncFlags(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&c.Sync.DeleteExtra, "delete", c.Sync.DeleteExtra, "Delete destination files not present in source")
	cmd.Flags().BoolVar(&c.Sync.IgnoreTimes, "ignore-times", c.Sync.IgnoreTimes, "Treat equal-size files as unchanged regardless of mtime")
	cmd.Flags().BoolVar(&c.Sync.ContentCompare, "checksum", c.Sync.ContentCompare, "Compare file content instead of size+mtime")
	cmd.Flags().Int64Var(&c.Sync.MaxBytesPerSecond, "bwlimit", c.Sync.MaxBytesPerSecond, "Cap transfer throughput, in bytes/second (0 = unlimited)")
}

// AddCheckpointFlagsToCommand adds checkpoint-specific flags to a command.
func (c *Config) AddCheckpointFlagsToCommand(cmd *cobra.Command) {
	cmd.PersistentFlags().StringVar(&c.Checkpoint.Directory, "checkpoint-dir", c.Checkpoint.Directory, "Directory for transfer checkpoint state")
	cmd.Flags().Int64Var(&c.Checkpoint.IntervalBytes, "checkpoint-interval", c.Checkpoint.IntervalBytes, "Checkpoint save cadence, in bytes")
	cmd.Flags().IntVar(&c.Checkpoint.GCMaxAgeDays, "gc-max-age-days", c.Checkpoint.GCMaxAgeDays, "Garbage-collect checkpoint state older than this many days")
	cmd.Flags().StringVar(&c.Checkpoint.ResumeID, "resume", c.Checkpoint.ResumeID, "Resume a transfer by its checkpoint id")
	cmd.Flags().StringVar(&c.Checkpoint.GCSchedule, "gc-schedule", c.Checkpoint.GCSchedule, `Cron spec for a background checkpoint GC sweep (e.g. "0 3 * * *"); empty disables it`)
}

// AddServerFlags adds server-specific flags to a command.
func (c *Config) AddServerFlags(cmd *cobra.Command) {
	cmd.Flags().IntVar(&c.Server.Port, "port", c.Server.Port, "Server listening port")
	cmd.Flags().DurationVar(&c.Server.ReadTimeout, "read-timeout", c.Server.ReadTimeout, "HTTP server read timeout")
	cmd.Flags().DurationVar(&c.Server.WriteTimeout, "write-timeout", c.Server.WriteTimeout, "HTTP server write timeout")
	cmd.Flags().DurationVar(&c.Server.ShutdownTimeout, "shutdown-timeout", c.Server.ShutdownTimeout, "HTTP server shutdown timeout")
}

// ExpandHomeDir expands the ~ or ${HOME} at the beginning of a directory path.
func ExpandHomeDir(path string) string {
	if path == "" {
		return path
	}

	if strings.Contains(path, "${HOME}") {
		homeDir, err := os.UserHomeDir()
		if err == nil {
			path = strings.ReplaceAll(path, "${HOME}", homeDir)
		}
	}

	if strings.HasPrefix(path, "~") {
		homeDir, err := os.UserHomeDir()
		if err == nil {
			path = filepath.Join(homeDir, path[1:])
		}
	}

	return path
}

// GetOptimalWorkerCount determines the optimal number of worker threads.
func GetOptimalWorkerCount() int {
	numCPU := runtime.NumCPU()

	// Simple heuristic:
	// - Minimum of 2 workers
	// - For small machines, use one worker per core
	// - For larger machines, leave one core free for system tasks
	if numCPU <= 2 {
		return 2
	} else if numCPU <= 4 {
		return numCPU
	} else {
		return numCPU - 1
	}
}
