// Package delta implements the block-aligned delta engine (spec §4.3):
// given a signature of an original file and the bytes of a new file, it
// emits the minimal sequence of copy/literal operations that rebuilds
// the new file from the original plus a literal stream.
package delta

import (
	"context"
	"io"

	"smartcopy/pkg/checksum"
	"smartcopy/pkg/coreerrors"
	"smartcopy/pkg/signature"
)

// OpKind tags a DeltaOp variant.
type OpKind int

const (
	OpCopyBlock OpKind = iota
	OpInsertLiteral
)

// Op is a single delta operation: either a reference into the original
// file's signature (CopyBlock) or literal bytes not found there
// (InsertLiteral).
type Op struct {
	Kind        OpKind
	SourceIndex uint64
	Size        int
	Bytes       []byte
}

// FileDelta is the full op sequence to reconstruct a target file plus
// the accounting the spec requires (§3 FileDelta invariants).
type FileDelta struct {
	Ops            []Op
	ChunkSize      int
	OriginalSize   int64
	TargetSize     int64
	TransferSize   int64
	SavingsPercent float64
}

// candidateIndex maps a weak hash to every signature chunk sharing it,
// so a delta lookup costs one map access plus a short scan of
// collisions rather than a linear scan of the whole signature.
type candidateIndex map[uint32][]signature.ChunkSignature

func buildIndex(sig *signature.FileSignature) candidateIndex {
	idx := make(candidateIndex, len(sig.Chunks))
	for _, c := range sig.Chunks {
		idx[c.WeakHash] = append(idx[c.WeakHash], c)
	}
	return idx
}

// Calculate builds a FileDelta describing how to turn original (whose
// signature is sig, built with the same chunk size) into the bytes read
// from newFile. chunkSize must equal sig.ChunkSize.
func Calculate(ctx context.Context, sig *signature.FileSignature, newFile io.Reader, chunkSize int) (*FileDelta, error) {
	if chunkSize != sig.ChunkSize {
		return nil, coreerrors.ConfigInvalid("delta chunk size must match signature chunk size")
	}

	idx := buildIndex(sig)
	d := &FileDelta{OriginalSize: sig.Size, ChunkSize: chunkSize}

	var literal []byte
	buf := make([]byte, chunkSize)
	var targetSize int64
	var blockIndex uint64

	flushLiteral := func() {
		if len(literal) == 0 {
			return
		}
		d.Ops = append(d.Ops, Op{Kind: OpInsertLiteral, Size: len(literal), Bytes: literal})
		d.TransferSize += int64(len(literal))
		literal = nil
	}

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		n, err := io.ReadFull(newFile, buf)
		if n > 0 {
			block := buf[:n]
			targetSize += int64(n)

			weak := checksum.NewRolling().Full(block)
			matched := false
			var chosen signature.ChunkSignature
			if candidates, ok := idx[weak]; ok {
				strong := checksum.Strong(block)
				// Among equal chunks, prefer the one at this block's own
				// position so an unchanged block maps to its own index.
				for _, c := range candidates {
					if c.StrongHash == strong && c.Size == len(block) {
						if !matched || c.Index == blockIndex {
							chosen = c
						}
						matched = true
						if c.Index == blockIndex {
							break
						}
					}
				}
			}
			if matched {
				flushLiteral()
				d.Ops = append(d.Ops, Op{Kind: OpCopyBlock, SourceIndex: chosen.Index, Size: chosen.Size})
			} else {
				literal = append(literal, block...)
			}
			blockIndex++
		}
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			break
		}
		if err != nil {
			return nil, coreerrors.IoFailure("", err)
		}
	}
	flushLiteral()

	d.TargetSize = targetSize
	if d.TargetSize > 0 {
		d.SavingsPercent = float64(d.TargetSize-d.TransferSize) / float64(d.TargetSize) * 100
	}
	return d, nil
}
