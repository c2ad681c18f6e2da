package delta

import (
	"context"
	"io"

	"smartcopy/pkg/coreerrors"
)

// Apply reconstructs the target byte stream by replaying d.Ops against
// original, writing the result to out. Ops are applied strictly
// sequentially (spec §5: "delta-op application is strictly sequential").
func Apply(ctx context.Context, original io.ReaderAt, d *FileDelta, out io.Writer) error {
	buf := make([]byte, d.ChunkSize)

	for _, op := range d.Ops {
		if err := ctx.Err(); err != nil {
			return err
		}
		switch op.Kind {
		case OpCopyBlock:
			offset := int64(op.SourceIndex) * int64(d.ChunkSize)
			chunk := buf[:op.Size]
			if _, err := original.ReadAt(chunk, offset); err != nil && err != io.EOF {
				return coreerrors.IoFailure("", err)
			}
			if _, err := out.Write(chunk); err != nil {
				return coreerrors.IoFailure("", err)
			}
		case OpInsertLiteral:
			if _, err := out.Write(op.Bytes); err != nil {
				return coreerrors.IoFailure("", err)
			}
		}
	}
	return nil
}
