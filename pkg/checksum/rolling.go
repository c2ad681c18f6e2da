// Package checksum implements the weak rolling checksum and strong
// content hash used to build and match chunk signatures (spec §4.1).
// The rolling checksum is an Adler-style additive hash chosen for its
// O(1) byte-shift update; the strong hash is a fast, non-cryptographic
// 64-bit content hash (xxhash) used only to confirm a weak-hash
// candidate, never as a tamper-detection mechanism.
package checksum

import "smartcopy/pkg/coreerrors"

// Rolling maintains the two 32-bit registers (a, b) of an Adler-style
// rolling checksum over a fixed-size window, per spec §4.1:
//
//	a = sum(bytes)          (mod 2^32)
//	b = sum((n-i)*bytes[i]) (mod 2^32), equivalently the running sum of a
//	value = (b << 16) | (a & 0xFFFF)
type Rolling struct {
	a, b uint32
	n    uint32
}

// NewRolling returns a zeroed rolling checksum with no window yet appended.
func NewRolling() *Rolling {
	return &Rolling{}
}

// Init resets the checksum to an empty window, discarding prior state.
func (r *Rolling) Init() {
	r.a, r.b, r.n = 0, 0, 0
}

// Append extends the window by one byte.
func (r *Rolling) Append(b byte) {
	r.a += uint32(b)
	r.n++
	r.b += r.a
}

// Full computes the checksum over data from scratch, replacing any
// existing window. It is equivalent to Init followed by Append for each
// byte, but avoids the per-byte overhead of the incremental registers.
func (r *Rolling) Full(data []byte) uint32 {
	r.Init()
	var a, b uint32
	n := uint32(len(data))
	for i, c := range data {
		a += uint32(c)
		b += (n - uint32(i)) * uint32(c)
	}
	r.a, r.b, r.n = a, b, n
	return r.Value()
}

// Roll slides the window forward by one byte: logically equivalent to
// Append(newByte) followed by removing oldByte from the front, but in
// O(1) using the identities:
//
//	a <- a - old + new
//	b <- b - n*old + a
//
// It requires the window size to stay fixed at n; calling Roll on an
// empty window (n == 0) is a programmer error and returns
// InvariantViolated.
func (r *Rolling) Roll(old, newByte byte) error {
	if r.n == 0 {
		return coreerrors.InvariantViolated("Roll called on empty rolling-checksum window")
	}
	r.a = r.a - uint32(old) + uint32(newByte)
	r.b = r.b - r.n*uint32(old) + r.a
	return nil
}

// Value returns the current combined checksum value.
func (r *Rolling) Value() uint32 {
	return (r.b << 16) | (r.a & 0xFFFF)
}

// Len returns the current window size tracked by the checksum.
func (r *Rolling) Len() uint32 {
	return r.n
}
