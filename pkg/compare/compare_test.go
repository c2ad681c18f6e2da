package compare

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"smartcopy/pkg/fsadapter"
	"smartcopy/pkg/scanner"
)

func entry(size int64, mtime time.Time) scanner.Entry {
	return scanner.Entry{Info: fsadapter.Info{Size: size, ModTime: mtime}}
}

func TestCompareSizeDifferentDominates(t *testing.T) {
	now := time.Now()
	src := entry(100, now)
	dst := entry(200, now)
	assert.Equal(t, SizeDifferent, Compare(src, dst, false))
}

func TestCompareSameWithinTolerance(t *testing.T) {
	now := time.Now()
	src := entry(100, now)
	dst := entry(100, now.Add(500*time.Millisecond))
	assert.Equal(t, Same, Compare(src, dst, false))
}

func TestCompareSourceNewer(t *testing.T) {
	now := time.Now()
	src := entry(100, now.Add(10*time.Second))
	dst := entry(100, now)
	assert.Equal(t, SourceNewer, Compare(src, dst, false))
}

func TestCompareDestNewer(t *testing.T) {
	now := time.Now()
	src := entry(100, now)
	dst := entry(100, now.Add(10*time.Second))
	assert.Equal(t, DestNewer, Compare(src, dst, false))
}

func TestCompareIgnoreTimesCollapsesToSizeOnly(t *testing.T) {
	now := time.Now()
	src := entry(100, now)
	dst := entry(100, now.Add(time.Hour))
	assert.Equal(t, Same, Compare(src, dst, true))
}
