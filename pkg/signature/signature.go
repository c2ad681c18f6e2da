// Package signature builds the per-file chunk signature used to match
// blocks between a source and destination copy (spec §4.2). A signature
// is just the ordered list of per-chunk weak+strong hashes; building one
// only requires reading the file once, sequentially or in parallel.
package signature

import (
	"context"
	"io"
	"sort"

	"smartcopy/pkg/checksum"
	"smartcopy/pkg/coreerrors"
	"smartcopy/pkg/fsadapter"
	"smartcopy/pkg/helper/util"
)

// ChunkSignature is the weak/strong hash pair for one fixed-size block
// at a known offset in a file (spec §3 ChunkSignature).
type ChunkSignature struct {
	Index     uint64
	Offset    int64
	Size      int
	WeakHash  uint32
	StrongHash uint64
}

// FileSignature is the ordered set of chunk signatures covering an
// entire file, plus the chunk size used to build it. Invariants (spec
// §3): len(Chunks) == ceil(Size/ChunkSize); sum of chunk sizes == Size;
// for every non-final chunk, Offset == Index*ChunkSize.
type FileSignature struct {
	ChunkSize int
	Size      int64
	Chunks    []ChunkSignature
}

// parallelThreshold is the minimum file size (as a multiple of chunk
// size) at which the parallel strategy is used instead of sequential
// streaming (spec §4.2: "used only when file_size >= 4*chunk_size").
const parallelThreshold = 4

// Build produces a FileSignature for path using chunkSize-sized blocks,
// selecting the sequential or parallel strategy per spec §4.2. Both
// strategies must and do produce identical output for the same input.
func Build(ctx context.Context, adapter fsadapter.Adapter, path string, chunkSize int, maxWorkers int) (*FileSignature, error) {
	info, err := adapter.Metadata(path)
	if err != nil {
		return nil, err
	}
	if info.Size >= int64(chunkSize)*parallelThreshold && maxWorkers > 1 {
		return buildParallel(ctx, adapter, path, info.Size, chunkSize, maxWorkers)
	}
	return buildSequential(ctx, adapter, path, info.Size, chunkSize)
}

// buildSequential streams the file once with a single reader, computing
// each chunk's signature as it is read. This is the strategy used for
// small files and whenever the caller disables parallelism.
func buildSequential(ctx context.Context, adapter fsadapter.Adapter, path string, size int64, chunkSize int) (*FileSignature, error) {
	r, err := adapter.OpenRead(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	sig := &FileSignature{ChunkSize: chunkSize, Size: size}
	buf := make([]byte, chunkSize)
	var offset int64
	var index uint64

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		n, err := io.ReadFull(r, buf)
		if n > 0 {
			sig.Chunks = append(sig.Chunks, signChunk(buf[:n], index, offset))
			offset += int64(n)
			index++
		}
		if err == io.EOF {
			break
		}
		if err == io.ErrUnexpectedEOF {
			break
		}
		if err != nil {
			return nil, coreerrors.IoFailure(path, err)
		}
	}
	return sig, nil
}

// buildParallel splits the file into fixed-size chunks up front and
// hashes them concurrently, each worker seeking to its own offset
// independently. Chunk order in the result is restored by index
// afterward so output matches buildSequential exactly (spec §4.2).
func buildParallel(ctx context.Context, adapter fsadapter.Adapter, path string, size int64, chunkSize int, maxWorkers int) (*FileSignature, error) {
	numChunks := int((size + int64(chunkSize) - 1) / int64(chunkSize))
	chunks := make([]ChunkSignature, numChunks)

	g := util.NewLimitedErrGroup(ctx, maxWorkers)
	for i := 0; i < numChunks; i++ {
		i := i
		g.Go(func() error {
			offset := int64(i) * int64(chunkSize)
			length := chunkSize
			if remaining := size - offset; remaining < int64(chunkSize) {
				length = int(remaining)
			}

			r, err := adapter.OpenRead(path)
			if err != nil {
				return err
			}
			defer r.Close()

			buf := make([]byte, length)
			if _, err := r.ReadAt(buf, offset); err != nil && err != io.EOF {
				return coreerrors.IoFailure(path, err)
			}
			chunks[i] = signChunk(buf, uint64(i), offset)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.Slice(chunks, func(a, b int) bool { return chunks[a].Index < chunks[b].Index })
	return &FileSignature{ChunkSize: chunkSize, Size: size, Chunks: chunks}, nil
}

func signChunk(data []byte, index uint64, offset int64) ChunkSignature {
	weak := checksum.NewRolling().Full(data)
	strong := checksum.Strong(data)
	return ChunkSignature{
		Index:      index,
		Offset:     offset,
		Size:       len(data),
		WeakHash:   weak,
		StrongHash: strong,
	}
}
