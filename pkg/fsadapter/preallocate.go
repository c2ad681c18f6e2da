package fsadapter

import (
	"errors"
	"os"

	"golang.org/x/sys/unix"
)

// preallocateFile reserves size bytes on disk for f via fallocate,
// falling back to a plain truncate when the filesystem or platform
// doesn't support it (grounded on the teacher pack's
// preallocateIfSupported/tryFallocate pattern for local write drivers).
func preallocateFile(f *os.File, size int64) error {
	if size <= 0 {
		return nil
	}
	err := unix.Fallocate(int(f.Fd()), 0, 0, size)
	if err == nil {
		return nil
	}
	if errors.Is(err, unix.ENOSYS) || errors.Is(err, unix.EOPNOTSUPP) || errors.Is(err, unix.EINVAL) {
		return f.Truncate(size)
	}
	return err
}
