// Package fsadapter defines the filesystem adapter interface consumed by
// the core sync/delta engine (spec §6) and provides a local-disk
// implementation so the core is testable end-to-end without a real
// external collaborator. Remote/object-store adapters (S3, SSH, QUIC)
// are transport-specific clients and out of scope per spec §1.
package fsadapter

import (
	"io"
	"os"
	"time"
)

// FileType classifies a directory entry.
type FileType int

const (
	FileTypeRegular FileType = iota
	FileTypeDir
	FileTypeSymlink
	FileTypeOther
)

// Info mirrors the metadata an adapter must report for a path.
type Info struct {
	Size        int64
	ModTime     time.Time
	Permissions os.FileMode
	Type        FileType
}

// ReadHandle is an open file positioned for sequential or random reads.
type ReadHandle interface {
	io.Reader
	io.ReaderAt
	io.Seeker
	io.Closer
}

// WriteHandle is an open file positioned for sequential or random
// writes, supporting truncation and the two flavors of durability the
// spec distinguishes: SyncData (fdatasync-equivalent, data only) and
// SyncAll (fsync-equivalent, data + metadata).
type WriteHandle interface {
	io.Writer
	io.WriterAt
	io.Seeker
	io.Closer
	SetLen(size int64) error
	SyncData() error
	SyncAll() error
}

// Preallocator is an optional capability a WriteHandle may implement to
// reserve physical disk space ahead of concurrent writes (spec §4.4:
// the chunked copier preallocates the destination to full size before
// dispatching chunks). Adapters that can't support it are used as-is;
// callers fall back to SetLen.
type Preallocator interface {
	Preallocate(size int64) error
}

// DirEntry is one entry returned by ReadDir.
type DirEntry struct {
	Name string
	Info Info
}

// Adapter is the filesystem interface the core operates against (spec §6).
type Adapter interface {
	OpenRead(path string) (ReadHandle, error)
	OpenWrite(path string, create bool) (WriteHandle, error)
	Metadata(path string) (Info, error)
	Rename(oldPath, newPath string) error
	Remove(path string) error
	ReadDir(path string) ([]DirEntry, error)
	MkdirAll(path string, perm os.FileMode) error
}
