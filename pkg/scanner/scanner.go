// Package scanner defines the directory-walking interface the
// incremental sync engine consumes (spec §6) and a local-disk
// implementation built on fsadapter's directory listing.
package scanner

import (
	"context"
	"path/filepath"
	"sort"
	"time"

	"smartcopy/pkg/fsadapter"
)

// Entry describes one file discovered under a root, relative to it.
type Entry struct {
	RelPath string
	Info    fsadapter.Info
}

// ScanError records one path the walk could not read along with why,
// instead of the failure aborting the whole scan (spec §6: "must report
// rather than hide permission errors").
type ScanError struct {
	Path   string
	Reason string
}

// Result is the full outcome of walking a tree: every file and directory
// found, aggregate counts, how long it took, and any per-path errors
// encountered along the way (spec §6 ScanResult).
type Result struct {
	Root         string
	Files        []Entry
	Directories  []string
	TotalSize    int64
	FileCount    int
	DirCount     int
	ScanDuration time.Duration
	Errors       []ScanError
}

// Scanner enumerates the files under a root path. Implementations may
// walk a local directory, list an object-store prefix, or replay a
// cached tree; the sync engine only depends on this interface.
type Scanner interface {
	Scan(ctx context.Context, root string) (Result, error)
}

// Local walks a local directory tree with recursive fsadapter ReadDir
// calls. Directories are listed in Result.Directories and descended
// into; every other entry, symlinks and special files included, is
// recorded in Result.Files. Symlinks are not followed.
type Local struct{}

// NewLocal returns a Scanner backed by the local filesystem.
func NewLocal() *Local { return &Local{} }

// Scan walks root and returns everything found plus any per-directory
// read errors. An unreadable root itself is a hard error; an unreadable
// subdirectory is recorded in Result.Errors and the walk continues past
// it rather than aborting the whole scan.
func (l *Local) Scan(ctx context.Context, root string) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	adapter := fsadapter.NewLocal()
	start := time.Now()
	res := Result{Root: root}

	rootChildren, err := adapter.ReadDir(root)
	if err != nil {
		return Result{}, err
	}

	var cancelled error
	var walk func(rel string, children []fsadapter.DirEntry)
	walk = func(rel string, children []fsadapter.DirEntry) {
		for _, c := range children {
			if err := ctx.Err(); err != nil {
				cancelled = err
				return
			}
			childRel := filepath.Join(rel, c.Name)
			switch c.Info.Type {
			case fsadapter.FileTypeDir:
				res.Directories = append(res.Directories, childRel)
				res.DirCount++
				grandchildren, err := adapter.ReadDir(filepath.Join(root, childRel))
				if err != nil {
					res.Errors = append(res.Errors, ScanError{Path: childRel, Reason: err.Error()})
					continue
				}
				walk(childRel, grandchildren)
				if cancelled != nil {
					return
				}
			default:
				res.Files = append(res.Files, Entry{RelPath: childRel, Info: c.Info})
				res.FileCount++
				res.TotalSize += c.Info.Size
			}
		}
	}

	walk("", rootChildren)
	if cancelled != nil {
		return Result{}, cancelled
	}

	sort.Slice(res.Files, func(i, j int) bool { return res.Files[i].RelPath < res.Files[j].RelPath })
	sort.Strings(res.Directories)
	res.ScanDuration = time.Since(start)
	return res, nil
}
