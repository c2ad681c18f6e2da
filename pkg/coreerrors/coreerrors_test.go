package coreerrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKindOf(t *testing.T) {
	err := IoFailure("/tmp/a", fmt.Errorf("disk full"))
	kind, ok := KindOf(err)
	require.True(t, ok)
	assert.Equal(t, KindIoFailure, kind)
	assert.True(t, Is(err, KindIoFailure))
	assert.False(t, Is(err, KindManifestCorrupt))
}

func TestUnwrap(t *testing.T) {
	cause := errors.New("boom")
	err := IoFailure("/tmp/a", cause)
	assert.True(t, errors.Is(err, cause))
}

func TestErrorStringsCarryContext(t *testing.T) {
	err := ChecksumMismatch("xxhash64", 1, 2)
	assert.Contains(t, err.Error(), "xxhash64")
	assert.Contains(t, err.Error(), "checksum_mismatch")
}

func TestKindOfNonCoreError(t *testing.T) {
	_, ok := KindOf(errors.New("plain"))
	assert.False(t, ok)
}
