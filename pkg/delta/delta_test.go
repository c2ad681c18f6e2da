package delta

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"smartcopy/pkg/fsadapter"
	"smartcopy/pkg/signature"
)

const mib = 1024 * 1024

func buildSig(t *testing.T, data []byte, chunkSize int) *signature.FileSignature {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "orig.bin")
	require.NoError(t, os.WriteFile(path, data, 0o644))
	sig, err := signature.Build(context.Background(), fsadapter.NewLocal(), path, chunkSize, 1)
	require.NoError(t, err)
	return sig
}

func TestIdenticalFileDeltaAllCopyBlocks(t *testing.T) {
	a := bytes.Repeat([]byte{0xAB}, 3*mib)
	sig := buildSig(t, a, mib)

	d, err := Calculate(context.Background(), sig, bytes.NewReader(a), mib)
	require.NoError(t, err)

	require.Len(t, d.Ops, 3)
	for i, op := range d.Ops {
		require.Equal(t, OpCopyBlock, op.Kind)
		require.Equal(t, uint64(i), op.SourceIndex)
		require.Equal(t, mib, op.Size)
	}
	require.Equal(t, int64(0), d.TransferSize)
	require.Greater(t, d.SavingsPercent, 95.0)
}

func TestSingleBlockModificationDelta(t *testing.T) {
	a := bytes.Repeat([]byte{0xAB}, 3*mib)
	b := append([]byte{}, a...)
	for i := 0; i < 1000; i++ {
		b[i] = 0xCD
	}
	sig := buildSig(t, a, mib)

	d, err := Calculate(context.Background(), sig, bytes.NewReader(b), mib)
	require.NoError(t, err)

	require.Len(t, d.Ops, 3)
	require.Equal(t, OpInsertLiteral, d.Ops[0].Kind)
	require.Equal(t, mib, d.Ops[0].Size)
	require.Equal(t, OpCopyBlock, d.Ops[1].Kind)
	require.Equal(t, uint64(1), d.Ops[1].SourceIndex)
	require.Equal(t, OpCopyBlock, d.Ops[2].Kind)
	require.Equal(t, uint64(2), d.Ops[2].SourceIndex)
	require.GreaterOrEqual(t, d.SavingsPercent, 60.0)
}

func TestEmptyOriginalProducesSingleLiteral(t *testing.T) {
	sig := buildSig(t, nil, mib)
	newData := []byte("some content that is not empty")

	d, err := Calculate(context.Background(), sig, bytes.NewReader(newData), mib)
	require.NoError(t, err)

	require.Len(t, d.Ops, 1)
	require.Equal(t, OpInsertLiteral, d.Ops[0].Kind)
	require.Equal(t, newData, d.Ops[0].Bytes)
}

func TestEmptyNewFileProducesNoOps(t *testing.T) {
	sig := buildSig(t, bytes.Repeat([]byte{1}, mib), mib)

	d, err := Calculate(context.Background(), sig, bytes.NewReader(nil), mib)
	require.NoError(t, err)

	require.Empty(t, d.Ops)
	require.Equal(t, int64(0), d.TransferSize)
	require.Equal(t, int64(0), d.TargetSize)
	require.Equal(t, 0.0, d.SavingsPercent)
}

func TestReconstructionCorrectness(t *testing.T) {
	a := bytes.Repeat([]byte{0x11, 0x22}, mib)
	b := append([]byte{}, a[:mib/2]...)
	b = append(b, []byte("injected literal content here")...)
	b = append(b, a[mib:]...)

	sig := buildSig(t, a, 256*1024)
	d, err := Calculate(context.Background(), sig, bytes.NewReader(b), 256*1024)
	require.NoError(t, err)

	var out bytes.Buffer
	require.NoError(t, Apply(context.Background(), bytes.NewReader(a), d, &out))
	require.Equal(t, b, out.Bytes())
}
