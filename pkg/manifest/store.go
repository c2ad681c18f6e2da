package manifest

import (
	"errors"
	"io"
	"os"
	"sync"
	"time"

	"github.com/Masterminds/semver/v3"
	"github.com/google/uuid"

	"smartcopy/pkg/coreerrors"
	"smartcopy/pkg/fsadapter"
)

// Format selects the on-disk representation a Store reads and writes.
type Format int

const (
	FormatText Format = iota
	FormatBinary
	FormatColumnar
)

// CompatibleVersions is the semver constraint a loaded manifest's
// Version must satisfy; manifests outside the range fail with
// ManifestCorrupt rather than being silently accepted or rejected with
// a generic error (resolved Open Question, see DESIGN.md).
const CompatibleVersions = "^1.0.0"

// CurrentVersion is stamped on every manifest this store creates.
const CurrentVersion = "1.0.0"

// Store owns a Manifest's lifecycle: load, point queries, mutation, and
// atomic persistence. The in-memory entry index is a plain
// reader-many/writer-one guarded map (spec §5 design note) — manifests
// need exact retention of every entry, not eviction, so this is a
// bespoke guarded map rather than the generic LRUCache reused elsewhere
// in this codebase for bounded caches.
type Store struct {
	mu       sync.RWMutex
	manifest Manifest
	index    map[string]int // path -> index into manifest.Entries
	path     string
	format   Format
	adapter  fsadapter.Adapter
}

// New creates an empty in-memory store for the given persisted path and
// format; call Load to populate it from disk, or Save to create it.
func New(adapter fsadapter.Adapter, path string, format Format, sourceRoot, destRoot string) *Store {
	return &Store{
		manifest: Manifest{
			Version:    CurrentVersion,
			SourceRoot: sourceRoot,
			DestRoot:   destRoot,
		},
		index:   make(map[string]int),
		path:    path,
		format:  format,
		adapter: adapter,
	}
}

func (s *Store) rebuildIndex() {
	s.index = make(map[string]int, len(s.manifest.Entries))
	for i, e := range s.manifest.Entries {
		s.index[e.Path] = i
	}
}

// Find returns the entry recorded for path, if any.
func (s *Store) Find(path string) (Entry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, ok := s.index[path]
	if !ok {
		return Entry{}, false
	}
	return s.manifest.Entries[i], true
}

// Contains reports whether path has a recorded entry.
func (s *Store) Contains(path string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.index[path]
	return ok
}

// Upsert inserts or replaces the entry for entry.Path, preserving the
// total_files/total_size aggregates.
func (s *Store) Upsert(entry Entry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i, ok := s.index[entry.Path]; ok {
		s.manifest.Entries[i] = entry
	} else {
		s.index[entry.Path] = len(s.manifest.Entries)
		s.manifest.Entries = append(s.manifest.Entries, entry)
	}
	s.manifest.recomputeTotals()
}

// Remove deletes the entry for path, if present, preserving aggregates.
func (s *Store) Remove(path string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, ok := s.index[path]
	if !ok {
		return false
	}
	last := len(s.manifest.Entries) - 1
	s.manifest.Entries[i] = s.manifest.Entries[last]
	s.manifest.Entries = s.manifest.Entries[:last]
	s.rebuildIndex()
	s.manifest.recomputeTotals()
	return true
}

// Each calls fn for every entry in the manifest. fn must not mutate the
// store; Each holds the read lock for its duration.
func (s *Store) Each(fn func(Entry) bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, e := range s.manifest.Entries {
		if !fn(e) {
			return
		}
	}
}

// Snapshot returns a copy of the current manifest for serialization or
// inspection outside the store's lock.
func (s *Store) Snapshot() Manifest {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entries := make([]Entry, len(s.manifest.Entries))
	copy(entries, s.manifest.Entries)
	m := s.manifest
	m.Entries = entries
	return m
}

// Stats is the cheap aggregate summary a "manifest show" command prints,
// mirroring the Version/Source/Dest/Files/Size/Created/Updated fields of
// the original manifest summary printout.
type Stats struct {
	Version    string
	SourceRoot string
	DestRoot   string
	TotalFiles int
	TotalSize  int64
	Created    time.Time
	Updated    time.Time
}

// Stats returns the manifest's aggregate summary without copying its
// entries.
func (s *Store) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Stats{
		Version:    s.manifest.Version,
		SourceRoot: s.manifest.SourceRoot,
		DestRoot:   s.manifest.DestRoot,
		TotalFiles: s.manifest.TotalFiles,
		TotalSize:  s.manifest.TotalSize,
		Created:    s.manifest.Created,
		Updated:    s.manifest.Updated,
	}
}

func encodeFor(format Format, m Manifest) ([]byte, error) {
	switch format {
	case FormatText:
		return encodeText(m), nil
	case FormatBinary:
		return encodeBinary(m)
	case FormatColumnar:
		return encodeColumnar(m)
	default:
		return nil, coreerrors.ConfigInvalid("unknown manifest format")
	}
}

func decodeFor(format Format, data []byte) (Manifest, error) {
	switch format {
	case FormatText:
		return decodeText(data)
	case FormatBinary:
		return decodeBinary(data)
	case FormatColumnar:
		return decodeColumnar(data)
	default:
		return Manifest{}, coreerrors.ConfigInvalid("unknown manifest format")
	}
}

// Save persists the manifest via temp-file-then-rename (spec §4.7
// atomicity: "writes go to a sibling temporary path and are renamed
// over the target").
func (s *Store) Save() error {
	s.mu.Lock()
	m := s.manifest
	entries := make([]Entry, len(m.Entries))
	copy(entries, m.Entries)
	m.Entries = entries
	s.mu.Unlock()

	data, err := encodeFor(s.format, m)
	if err != nil {
		return err
	}

	tmpPath := s.path + "." + uuid.NewString() + ".tmp"
	w, err := s.adapter.OpenWrite(tmpPath, true)
	if err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		w.Close()
		s.adapter.Remove(tmpPath)
		return coreerrors.IoFailure(tmpPath, err)
	}
	if err := w.SyncAll(); err != nil {
		w.Close()
		s.adapter.Remove(tmpPath)
		return err
	}
	if err := w.Close(); err != nil {
		s.adapter.Remove(tmpPath)
		return err
	}
	if err := s.adapter.Rename(tmpPath, s.path); err != nil {
		s.adapter.Remove(tmpPath)
		return err
	}
	return nil
}

// Load reads and parses the manifest from disk. A missing file is not
// an error (spec §4.7: "readers must tolerate an absent file"); the
// store is left as a fresh, empty manifest. Malformed content or an
// incompatible version fails with ManifestCorrupt, never silently
// starting empty.
func (s *Store) Load() error {
	r, err := s.adapter.OpenRead(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	defer r.Close()

	data, err := readAll(r)
	if err != nil {
		return coreerrors.IoFailure(s.path, err)
	}

	m, err := decodeFor(s.format, data)
	if err != nil {
		return err
	}
	if err := checkVersion(m.Version); err != nil {
		return err
	}

	s.mu.Lock()
	s.manifest = m
	s.rebuildIndex()
	s.mu.Unlock()
	return nil
}

func checkVersion(version string) error {
	v, err := semver.NewVersion(version)
	if err != nil {
		return coreerrors.ManifestCorrupt("", "invalid version string: "+version)
	}
	constraint, err := semver.NewConstraint(CompatibleVersions)
	if err != nil {
		return coreerrors.InvariantViolated("invalid manifest version constraint")
	}
	if !constraint.Check(v) {
		return coreerrors.ManifestCorrupt("", "manifest version "+version+" is not compatible with "+CompatibleVersions)
	}
	return nil
}

func readAll(r fsadapter.ReadHandle) ([]byte, error) {
	var buf []byte
	chunk := make([]byte, 64*1024)
	for {
		n, err := r.Read(chunk)
		if n > 0 {
			buf = append(buf, chunk[:n]...)
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return buf, nil
			}
			return buf, err
		}
	}
}
