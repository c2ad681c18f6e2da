package scanner

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func skipIfRoot(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("running as root: permission bits don't block reads")
	}
}

func TestLocalScanFindsNestedFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("a"), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "sub"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sub", "b.txt"), []byte("b"), 0o644))

	s := NewLocal()
	res, err := s.Scan(context.Background(), dir)
	require.NoError(t, err)
	require.Len(t, res.Files, 2)
	require.Equal(t, "a.txt", res.Files[0].RelPath)
	require.Equal(t, filepath.Join("sub", "b.txt"), res.Files[1].RelPath)
	require.Equal(t, 2, res.FileCount)
	require.Equal(t, int64(2), res.TotalSize)
	require.Equal(t, []string{"sub"}, res.Directories)
	require.Equal(t, 1, res.DirCount)
	require.Empty(t, res.Errors)
}

func TestLocalScanEmptyDir(t *testing.T) {
	dir := t.TempDir()
	s := NewLocal()
	res, err := s.Scan(context.Background(), dir)
	require.NoError(t, err)
	require.Empty(t, res.Files)
}

func TestLocalScanRespectsCancellation(t *testing.T) {
	dir := t.TempDir()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s := NewLocal()
	_, err := s.Scan(ctx, dir)
	require.Error(t, err)
}

func TestLocalScanReportsUnreadableSubdirWithoutAbortingWalk(t *testing.T) {
	skipIfRoot(t)
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ok.txt"), []byte("ok"), 0o644))
	blocked := filepath.Join(dir, "blocked")
	require.NoError(t, os.MkdirAll(blocked, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(blocked, "hidden.txt"), []byte("x"), 0o644))
	require.NoError(t, os.Chmod(blocked, 0o000))
	defer os.Chmod(blocked, 0o755)

	s := NewLocal()
	res, err := s.Scan(context.Background(), dir)
	require.NoError(t, err)

	require.Len(t, res.Errors, 1)
	require.Equal(t, "blocked", res.Errors[0].Path)
	require.NotEmpty(t, res.Errors[0].Reason)

	var names []string
	for _, f := range res.Files {
		names = append(names, f.RelPath)
	}
	require.Contains(t, names, "ok.txt")
	require.NotContains(t, names, filepath.Join("blocked", "hidden.txt"))
}
