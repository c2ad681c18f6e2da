package checkpoint

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"smartcopy/pkg/fsadapter"
)

func TestResumableWriterTracksBytesAndCheckpointCadence(t *testing.T) {
	dir := t.TempDir()
	adapter := fsadapter.NewLocal()
	handle, err := adapter.OpenWrite(filepath.Join(dir, "out.bin"), true)
	require.NoError(t, err)
	defer handle.Close()

	w := NewResumableWriter(handle, 10)
	n, err := w.Write([]byte("12345"))
	require.NoError(t, err)
	require.Equal(t, 5, n)
	require.False(t, w.NeedsCheckpoint())

	_, err = w.Write([]byte("678901"))
	require.NoError(t, err)
	require.True(t, w.NeedsCheckpoint())

	require.NoError(t, w.Checkpoint())
	require.False(t, w.NeedsCheckpoint())

	total, err := w.Finish()
	require.NoError(t, err)
	require.Equal(t, int64(11), total)
}
