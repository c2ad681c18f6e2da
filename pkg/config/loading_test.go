package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadFromFile(t *testing.T) {
	tests := []struct {
		name      string
		content   string
		wantError bool
	}{
		{
			name: "valid config",
			content: `
loglevel: debug
sync:
  chunksizebytes: 8388608
server:
  port: 9090
`,
			wantError: false,
		},
		{
			name:      "empty file uses defaults",
			content:   "",
			wantError: false,
		},
		{
			name: "invalid yaml",
			content: `
invalid: [yaml
  missing: bracket
`,
			wantError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			path := filepath.Join(dir, "config.yaml")
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0o644))

			cfg, err := LoadFromFile(path)
			if tt.wantError {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.NotNil(t, cfg)
		})
	}
}

func TestLoadFromFileMissingPathIsNotFound(t *testing.T) {
	_, err := LoadFromFile(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	require.Error(t, err)
}

func TestLoadFromFileEmptyPathUsesDefaults(t *testing.T) {
	cfg, err := LoadFromFile("")
	require.NoError(t, err)
	require.Equal(t, NewDefaultConfig().Sync.ChunkSizeBytes, cfg.Sync.ChunkSizeBytes)
}

func TestLoadFromEnvOverridesChunkSize(t *testing.T) {
	t.Setenv("SMARTCOPY_CHUNK_SIZE_BYTES", "1048576")
	cfg, err := LoadFromFile("")
	require.NoError(t, err)
	require.Equal(t, int64(1048576), cfg.Sync.ChunkSizeBytes)
}

func TestLoadFromEnvOverridesLogLevel(t *testing.T) {
	t.Setenv("SMARTCOPY_LOG_LEVEL", "debug")
	cfg, err := LoadFromFile("")
	require.NoError(t, err)
	require.Equal(t, "debug", cfg.LogLevel)
}

func TestSaveToFileThenLoadRoundTrips(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "subdir", "config.yaml")

	original := NewDefaultConfig()
	original.LogLevel = "warn"
	original.Sync.ChunkSizeBytes = 2 * 1024 * 1024

	require.NoError(t, original.SaveToFile(path))

	loaded, err := LoadFromFile(path)
	require.NoError(t, err)
	require.Equal(t, "warn", loaded.LogLevel)
	require.Equal(t, int64(2*1024*1024), loaded.Sync.ChunkSizeBytes)
}

func TestValidateRejectsZeroChunkSize(t *testing.T) {
	c := NewDefaultConfig()
	c.Sync.ChunkSizeBytes = 0
	require.Error(t, c.Validate())
}

func TestValidateRejectsZeroCheckpointInterval(t *testing.T) {
	c := NewDefaultConfig()
	c.Checkpoint.IntervalBytes = 0
	require.Error(t, c.Validate())
}

func TestValidateRejectsEmptyCheckpointDirectory(t *testing.T) {
	c := NewDefaultConfig()
	c.Checkpoint.Directory = ""
	require.Error(t, c.Validate())
}

func TestValidateRejectsUnknownManifestFormat(t *testing.T) {
	c := NewDefaultConfig()
	c.Manifest.Format = "parquet"
	require.Error(t, c.Validate())
}

func TestValidateRejectsInvalidLogLevel(t *testing.T) {
	c := NewDefaultConfig()
	c.LogLevel = "verbose"
	require.Error(t, c.Validate())
}

func TestValidateRejectsOutOfRangePort(t *testing.T) {
	c := NewDefaultConfig()
	c.Server.Port = 70000
	require.Error(t, c.Validate())
}

func TestValidateAcceptsDefaults(t *testing.T) {
	require.NoError(t, NewDefaultConfig().Validate())
}
