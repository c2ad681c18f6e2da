package checkpoint

import (
	"crypto/rand"
	"encoding/binary"
	"encoding/hex"
	"hash/fnv"
	"time"
)

// NewTransferID derives a 64-bit opaque token from (source, destination,
// current monotonic time), rendered as 16 lowercase hex characters (spec
// §4.8, §6 "the id format is 16 lowercase hex characters"). Uniqueness
// is advisory, not enforced: a few random bytes are folded in so two
// transfers started in the same nanosecond over the same paths still
// get distinct ids.
func NewTransferID(source, destination string) string {
	h := fnv.New64a()
	h.Write([]byte(source))
	h.Write([]byte{0})
	h.Write([]byte(destination))

	var tbuf [8]byte
	binary.BigEndian.PutUint64(tbuf[:], uint64(time.Now().UnixNano()))
	h.Write(tbuf[:])

	var rbuf [4]byte
	if _, err := rand.Read(rbuf[:]); err == nil {
		h.Write(rbuf[:])
	}

	return hex.EncodeToString(h.Sum(nil))
}
