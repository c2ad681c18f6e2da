package checksum

import (
	"math/bits"

	"github.com/cespare/xxhash/v2"
)

// Strong computes the 64-bit non-cryptographic content hash used to
// confirm a weak-hash candidate (spec §4.1, §3 ChunkSignature.strong).
// This is deliberately fast and non-cryptographic: the system optimizes
// for change detection, not adversarial tamper detection.
func Strong(data []byte) uint64 {
	return xxhash.Sum64(data)
}

// CombineComposite folds a per-chunk strong hash into a running
// order-independent composite fingerprint (spec §4.4). Callers must sort
// chunks by index before folding so the result is deterministic
// regardless of worker completion order; CombineComposite itself just
// applies one fold step.
//
// Named "fingerprint" rather than "signature" deliberately (spec §9):
// this composite is for change detection across a parallel copy, not a
// cryptographic commitment, and consumers treating it as one are
// misusing the interface.
func CombineComposite(fingerprint uint64, chunkIndex uint64, chunkHash uint64) uint64 {
	rot := uint(chunkIndex % 64)
	return fingerprint ^ bits.RotateLeft64(chunkHash, int(rot))
}
