package manifest

import "smartcopy/pkg/scanner"

// DiffAgainst compares the store's manifest against a fresh scan (spec
// §4.7 diff_against): modified is determined by matches_metadata (exact
// size AND exact mtime seconds), never content hashing.
func (s *Store) DiffAgainst(entries []scanner.Entry) DiffResult {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result DiffResult
	seen := make(map[string]bool, len(entries))

	for _, se := range entries {
		seen[se.RelPath] = true
		i, ok := s.index[se.RelPath]
		if !ok {
			result.Added = append(result.Added, se.RelPath)
			continue
		}
		recorded := s.manifest.Entries[i]
		if matchesMetadata(recorded, se) {
			result.Unchanged = append(result.Unchanged, se.RelPath)
		} else {
			result.Modified = append(result.Modified, se.RelPath)
		}
	}

	for _, e := range s.manifest.Entries {
		if !seen[e.Path] {
			result.Deleted = append(result.Deleted, e.Path)
		}
	}

	return result
}

func matchesMetadata(recorded Entry, scanned scanner.Entry) bool {
	return recorded.Size == scanned.Info.Size && recorded.MtimeSecs == scanned.Info.ModTime.Unix()
}
