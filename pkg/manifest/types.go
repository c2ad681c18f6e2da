// Package manifest persists the last-synced state of a directory tree
// (spec §4.7): a compact, atomically-written record of every file's
// path, size, mtime, permissions, and optional content hash, queryable
// by point lookup and diffable against a fresh scan.
package manifest

import "time"

// Entry is one file's recorded state (spec §3 ManifestEntry).
type Entry struct {
	Path          string
	Size          int64
	MtimeSecs     int64
	Permissions   uint32
	Hash          uint64
	HashAlgorithm string
	HasHash       bool
	RawPathBytes  []byte
}

// Manifest is the full persisted record of a synced tree (spec §3
// SyncManifest). Version gates forward compatibility: a store refuses
// to load a manifest whose Version is incompatible with the range it
// supports (resolved open question, see DESIGN.md).
type Manifest struct {
	Version    string
	SourceRoot string
	DestRoot   string
	Created    time.Time
	Updated    time.Time
	TotalFiles int
	TotalSize  int64
	Entries    []Entry
}

// recomputeTotals restores the TotalFiles/TotalSize aggregates after a
// mutation, preserving the spec §3 invariant
// total_files == len(entries) && total_size == sum(entries[*].size).
func (m *Manifest) recomputeTotals() {
	m.TotalFiles = len(m.Entries)
	var total int64
	for _, e := range m.Entries {
		total += e.Size
	}
	m.TotalSize = total
}

// DiffResult is the outcome of diffing a manifest against a fresh scan
// (spec §4.7 diff_against).
type DiffResult struct {
	Added     []string
	Modified  []string
	Deleted   []string
	Unchanged []string
}
