// Package treesync implements incremental directory-tree synchronization
// (spec §4.6): diffing two scans, or a scan against a manifest, into a
// SyncAnalysis of disjoint copy/skip/delete/conflict buckets.
package treesync

import (
	"smartcopy/pkg/compare"
	"smartcopy/pkg/fsadapter"
	"smartcopy/pkg/manifest"
	"smartcopy/pkg/scanner"
)

// Action classifies what should happen to one relative path.
type Action int

const (
	ActionCopyNew Action = iota
	ActionUpdate
	ActionDelete
	ActionSkip
	ActionConflict
)

// Change is one path's classified outcome (spec §3 SyncChange).
type Change struct {
	Path   string
	Action Action
	Size   int64
}

// Analysis is the disjoint partition of every path seen across source
// and dest into to_copy/to_skip/to_delete/conflicts (spec §3
// SyncAnalysis). Every source path appears in exactly one bucket; a
// destination-only path appears in ToDelete when DeleteExtra is set and
// in no bucket otherwise.
type Analysis struct {
	ToCopy        []Change
	ToSkip        []Change
	ToDelete      []Change
	Conflicts     []Change
	BytesToCopy   int64
	BytesToDelete int64
}

// ContentComparer decides whether the source and destination copies of
// relPath are byte-identical, consulted only when Options.ContentCompare
// is set and metadata alone would otherwise classify the pair as Same.
type ContentComparer interface {
	SameContent(relPath string, srcSize, srcMtime, dstSize, dstMtime int64) (bool, error)
}

// Options controls the comparison policy (spec §4.6).
type Options struct {
	DeleteExtra    bool
	ContentCompare bool
	IgnoreTimes    bool

	// Comparer is required when ContentCompare is true; AnalyzeScans and
	// AnalyzeAgainstManifest fall back to metadata-only comparison if
	// it's nil.
	Comparer ContentComparer
}

// ActionCount is the number of paths this analysis will actually act on
// (spec §4.6 invariant: Skip and Conflict are reports, not actions).
func (a *Analysis) ActionCount() int {
	return len(a.ToCopy) + len(a.ToDelete)
}

// AnalyzeScans diffs two directory scans (the full two-sided case, spec
// §4.6 step 1-4).
func AnalyzeScans(src, dst []scanner.Entry, opts Options) Analysis {
	destByPath := make(map[string]scanner.Entry, len(dst))
	for _, e := range dst {
		destByPath[e.RelPath] = e
	}

	var a Analysis
	seen := make(map[string]bool, len(src))

	for _, se := range src {
		seen[se.RelPath] = true
		de, ok := destByPath[se.RelPath]
		if !ok {
			a.ToCopy = append(a.ToCopy, Change{Path: se.RelPath, Action: ActionCopyNew, Size: se.Info.Size})
			a.BytesToCopy += se.Info.Size
			continue
		}
		classifyPair(&a, se.RelPath, se, de, opts)
	}

	if opts.DeleteExtra {
		for _, de := range dst {
			if !seen[de.RelPath] {
				a.ToDelete = append(a.ToDelete, Change{Path: de.RelPath, Action: ActionDelete, Size: de.Info.Size})
				a.BytesToDelete += de.Info.Size
			}
		}
	}

	return a
}

func classifyPair(a *Analysis, path string, src, dst scanner.Entry, opts Options) {
	verdict := compare.Compare(src, dst, opts.IgnoreTimes)

	if verdict == compare.Same && opts.ContentCompare && opts.Comparer != nil {
		same, err := opts.Comparer.SameContent(path, src.Info.Size, src.Info.ModTime.Unix(), dst.Info.Size, dst.Info.ModTime.Unix())
		if err == nil && !same {
			verdict = compare.SourceNewer
		}
	}

	switch verdict {
	case compare.Same:
		a.ToSkip = append(a.ToSkip, Change{Path: path, Action: ActionSkip, Size: src.Info.Size})
	case compare.SourceNewer, compare.SizeDifferent:
		a.ToCopy = append(a.ToCopy, Change{Path: path, Action: ActionUpdate, Size: src.Info.Size})
		a.BytesToCopy += src.Info.Size
	case compare.DestNewer:
		a.Conflicts = append(a.Conflicts, Change{Path: path, Action: ActionConflict, Size: src.Info.Size})
	}
}

// AnalyzeAgainstManifest is the fast path for re-sync against a
// previously synced target (spec §4.6 "manifest variant"): the "dest
// side" is the manifest's recorded entries compared by (size, mtime),
// with no destination filesystem read.
func AnalyzeAgainstManifest(src []scanner.Entry, store *manifest.Store, opts Options) Analysis {
	var a Analysis
	seen := make(map[string]bool, len(src))

	for _, se := range src {
		seen[se.RelPath] = true
		recorded, ok := store.Find(se.RelPath)
		if !ok {
			a.ToCopy = append(a.ToCopy, Change{Path: se.RelPath, Action: ActionCopyNew, Size: se.Info.Size})
			a.BytesToCopy += se.Info.Size
			continue
		}
		dst := scanner.Entry{RelPath: se.RelPath, Info: fsadapter.Info{Size: recorded.Size, ModTime: unixTime(recorded.MtimeSecs)}}
		classifyPair(&a, se.RelPath, se, dst, opts)
	}

	if opts.DeleteExtra {
		store.Each(func(e manifest.Entry) bool {
			if !seen[e.Path] {
				a.ToDelete = append(a.ToDelete, Change{Path: e.Path, Action: ActionDelete, Size: e.Size})
				a.BytesToDelete += e.Size
			}
			return true
		})
	}

	return a
}
