// Package compare classifies a (source, dest) file pair (spec §4.5).
package compare

import (
	"time"

	"smartcopy/pkg/scanner"
)

// Verdict is the classification of a source/dest entry pair.
type Verdict int

const (
	Same Verdict = iota
	SourceNewer
	DestNewer
	SizeDifferent
)

// mtimeTolerance absorbs filesystem mtime resolution differences
// between source and destination (spec §4.5: "±1s tolerance").
const mtimeTolerance = time.Second

// Compare classifies src against dst. Size difference dominates; when
// sizes match, mtimes are compared within mtimeTolerance. ignoreTimes
// collapses the decision to Same/SizeDifferent only.
func Compare(src, dst scanner.Entry, ignoreTimes bool) Verdict {
	if src.Info.Size != dst.Info.Size {
		return SizeDifferent
	}
	if ignoreTimes {
		return Same
	}

	delta := src.Info.ModTime.Sub(dst.Info.ModTime)
	if delta < 0 {
		delta = -delta
	}
	if delta <= mtimeTolerance {
		return Same
	}
	if src.Info.ModTime.After(dst.Info.ModTime) {
		return SourceNewer
	}
	return DestNewer
}
