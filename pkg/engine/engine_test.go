package engine

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"smartcopy/pkg/checkpoint"
	"smartcopy/pkg/fsadapter"
	"smartcopy/pkg/manifest"
	"smartcopy/pkg/metrics"

	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path string, content []byte) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, content, 0o644))
}

func baseOptions(src, dst string) Options {
	return Options{
		Source:           src,
		Destination:      dst,
		ChunkSize:        64,
		CopyWorkers:      2,
		SignatureWorkers: 2,
		VerifyHashes:     true,
	}
}

func TestSyncCopiesNewFiles(t *testing.T) {
	src := t.TempDir()
	dst := t.TempDir()
	writeFile(t, filepath.Join(src, "a.txt"), []byte("hello world"))
	writeFile(t, filepath.Join(src, "nested", "b.txt"), []byte("nested content"))

	result, err := Sync(context.Background(), baseOptions(src, dst))
	require.NoError(t, err)
	require.Equal(t, 2, result.FilesCopied)
	require.Equal(t, 0, result.FilesFailed)

	gotA, err := os.ReadFile(filepath.Join(dst, "a.txt"))
	require.NoError(t, err)
	require.Equal(t, "hello world", string(gotA))

	gotB, err := os.ReadFile(filepath.Join(dst, "nested", "b.txt"))
	require.NoError(t, err)
	require.Equal(t, "nested content", string(gotB))
}

func TestSyncDeltaPatchesChangedFile(t *testing.T) {
	src := t.TempDir()
	dst := t.TempDir()

	original := make([]byte, 256)
	for i := range original {
		original[i] = byte(i)
	}
	writeFile(t, filepath.Join(dst, "big.bin"), original)

	changed := make([]byte, len(original))
	copy(changed, original)
	changed[10] = 0xFF
	changed[200] = 0xEE
	writeFile(t, filepath.Join(src, "big.bin"), changed)

	result, err := Sync(context.Background(), baseOptions(src, dst))
	require.NoError(t, err)
	require.Equal(t, 1, result.FilesDeltaSynced)

	got, err := os.ReadFile(filepath.Join(dst, "big.bin"))
	require.NoError(t, err)
	require.Equal(t, changed, got)
}

func TestSyncDeletesExtraFilesWhenConfigured(t *testing.T) {
	src := t.TempDir()
	dst := t.TempDir()
	writeFile(t, filepath.Join(src, "keep.txt"), []byte("keep"))
	writeFile(t, filepath.Join(dst, "keep.txt"), []byte("keep"))
	writeFile(t, filepath.Join(dst, "stale.txt"), []byte("stale"))

	opts := baseOptions(src, dst)
	opts.DeleteExtra = true

	result, err := Sync(context.Background(), opts)
	require.NoError(t, err)
	require.Equal(t, 1, result.FilesDeleted)

	_, err = os.Stat(filepath.Join(dst, "stale.txt"))
	require.True(t, os.IsNotExist(err))
}

func TestSyncSkipsUnchangedFiles(t *testing.T) {
	src := t.TempDir()
	dst := t.TempDir()
	writeFile(t, filepath.Join(src, "same.txt"), []byte("identical"))
	writeFile(t, filepath.Join(dst, "same.txt"), []byte("identical"))

	result, err := Sync(context.Background(), baseOptions(src, dst))
	require.NoError(t, err)
	require.Equal(t, 0, result.FilesCopied)
	require.Equal(t, 0, result.FilesDeltaSynced)
}

func TestSyncRecordsMetricsAndChecksManifest(t *testing.T) {
	src := t.TempDir()
	dst := t.TempDir()
	writeFile(t, filepath.Join(src, "a.txt"), []byte("content"))

	manifestPath := filepath.Join(t.TempDir(), "manifest.bin")
	store := manifest.New(fsadapter.NewLocal(), manifestPath, manifest.FormatBinary, src, dst)

	opts := baseOptions(src, dst)
	opts.ManifestStore = store
	opts.Metrics = metrics.NewRegistry("synctest")
	opts.Collector = metrics.NewInMemoryMetrics()

	result, err := Sync(context.Background(), opts)
	require.NoError(t, err)
	require.Equal(t, 1, result.FilesCopied)

	_, found := store.Find("a.txt")
	require.True(t, found)

	inMem, ok := opts.Collector.(*metrics.InMemoryMetrics)
	require.True(t, ok)
	require.Equal(t, int64(1), inMem.GetSyncCount())
}

func TestSyncWithCheckpointsPersistsTransferState(t *testing.T) {
	src := t.TempDir()
	dst := t.TempDir()
	writeFile(t, filepath.Join(src, "a.txt"), []byte("checkpointed content"))

	mgr, err := checkpoint.NewManager(fsadapter.NewLocal(), t.TempDir(), 0)
	require.NoError(t, err)

	opts := baseOptions(src, dst)
	opts.Checkpoints = mgr

	result, err := Sync(context.Background(), opts)
	require.NoError(t, err)
	require.NotEmpty(t, result.TransferID)

	state, err := mgr.Load(result.TransferID)
	require.NoError(t, err)
	require.Equal(t, checkpoint.StatusCompleted, state.Status)
}
