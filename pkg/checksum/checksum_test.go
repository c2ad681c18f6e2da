package checksum

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRollingFullMatchesAppend(t *testing.T) {
	data := []byte("the quick brown fox jumps over the lazy dog")

	full := NewRolling()
	fullVal := full.Full(data)

	incremental := NewRolling()
	for _, b := range data {
		incremental.Append(b)
	}

	assert.Equal(t, fullVal, incremental.Value())
}

func TestRollEquivalentToAppendAndRemoveFront(t *testing.T) {
	// cs.append(x).append(y).roll(x, z) == cs.append(y).append(z)
	x, y, z := byte('x'), byte('y'), byte('z')

	rolled := NewRolling()
	rolled.Append(x)
	rolled.Append(y)
	require.NoError(t, rolled.Roll(x, z))

	direct := NewRolling()
	direct.Append(y)
	direct.Append(z)

	assert.Equal(t, direct.Value(), rolled.Value())
}

func TestRollOnEmptyWindowFails(t *testing.T) {
	r := NewRolling()
	err := r.Roll('a', 'b')
	assert.Error(t, err)
}

func TestRollMatchesSlidingFull(t *testing.T) {
	rnd := rand.New(rand.NewSource(1))
	window := make([]byte, 32)
	rnd.Read(window)

	r := NewRolling()
	r.Full(window)

	for i := 0; i < 64; i++ {
		newByte := byte(rnd.Intn(256))
		old := window[0]
		window = append(window[1:], newByte)

		require.NoError(t, r.Roll(old, newByte))

		expect := NewRolling()
		expect.Full(window)
		assert.Equal(t, expect.Value(), r.Value(), "mismatch at step %d", i)
	}
}

func TestStrongHashDeterministic(t *testing.T) {
	data := []byte("some chunk of bytes")
	assert.Equal(t, Strong(data), Strong(append([]byte{}, data...)))
}

func TestStrongHashDistinguishesContent(t *testing.T) {
	assert.NotEqual(t, Strong([]byte("a")), Strong([]byte("b")))
}

func TestCombineCompositeOrderIndependent(t *testing.T) {
	hashes := []uint64{111, 222, 333, 444}

	var forward uint64
	for i, h := range hashes {
		forward = CombineComposite(forward, uint64(i), h)
	}

	var backward uint64
	for i := len(hashes) - 1; i >= 0; i-- {
		backward = CombineComposite(backward, uint64(i), hashes[i])
	}

	assert.Equal(t, forward, backward)
}
