// Package progress defines the progress-sink external interface (spec
// §6) and a terminal implementation. Progress reporting is advisory,
// lossy, and non-blocking: a sink must never slow down or fail the
// transfer it is reporting on. Grounded on the teacher's
// pkg/copy.ProgressReporter/CopyProgress shape, generalized from
// per-layer container-copy progress to per-file sync-engine progress.
package progress

import "time"

// Event is one progress snapshot (spec §6 Progress sink payload).
type Event struct {
	CurrentFile string
	BytesDone   int64
	TotalBytes  int64
	FilesDone   int
	TotalFiles  int
	Throughput  float64 // bytes/sec, trailing window
	ETA         time.Duration
}

// Sink receives progress events. Emit must not block the caller for
// long or propagate errors from the reporting path itself; a sink that
// fails to display an update simply drops it.
type Sink interface {
	Emit(Event)
}

// NopSink discards every event. Used when no reporting is configured.
type NopSink struct{}

func (NopSink) Emit(Event) {}
