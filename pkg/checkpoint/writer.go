package checkpoint

import "smartcopy/pkg/fsadapter"

// ResumableWriter is a thin write handle tracking bytes-written against
// a checkpoint cadence (spec §4.10). It owns no retry logic: failures
// from the underlying handle propagate as-is.
type ResumableWriter struct {
	handle             fsadapter.WriteHandle
	bytesWritten       int64
	lastCheckpoint     int64
	checkpointInterval int64
}

// NewResumableWriter wraps handle with checkpoint tracking at the given
// byte interval.
func NewResumableWriter(handle fsadapter.WriteHandle, checkpointInterval int64) *ResumableWriter {
	return &ResumableWriter{handle: handle, checkpointInterval: checkpointInterval}
}

// Write advances BytesWritten by the number of bytes actually written.
func (w *ResumableWriter) Write(data []byte) (int, error) {
	n, err := w.handle.Write(data)
	w.bytesWritten += int64(n)
	return n, err
}

// BytesWritten returns the cumulative count of bytes written so far.
func (w *ResumableWriter) BytesWritten() int64 { return w.bytesWritten }

// NeedsCheckpoint reports whether enough bytes have accumulated since
// the last checkpoint to warrant one.
func (w *ResumableWriter) NeedsCheckpoint() bool {
	return w.bytesWritten-w.lastCheckpoint >= w.checkpointInterval
}

// Checkpoint calls SyncData on the underlying handle and advances
// lastCheckpoint to the current write position.
func (w *ResumableWriter) Checkpoint() error {
	if err := w.handle.SyncData(); err != nil {
		return err
	}
	w.lastCheckpoint = w.bytesWritten
	return nil
}

// Finish performs a full SyncAll and returns the total bytes written.
func (w *ResumableWriter) Finish() (int64, error) {
	if err := w.handle.SyncAll(); err != nil {
		return w.bytesWritten, err
	}
	return w.bytesWritten, nil
}
