// Package checkpoint owns the lifecycle of a multi-file transfer's
// durable, crash-safe resume state (spec §4.8-4.10): create/load/save
// atomically, compute a resume plan, byte-level seek-and-resume a file,
// checkpoint on a byte cadence, verify partial content before trusting
// it, and garbage-collect orphaned state. Grounded on the teacher's
// pkg/tree/checkpoint (TreeCheckpoint/FileStore), generalized from
// per-repository-task tracking to per-file byte-transfer tracking and
// corrected to the fsync+rename discipline the spec requires.
package checkpoint

import "time"

// Status is a transfer's overall lifecycle state (spec §3 TransferState).
type Status string

const (
	StatusInProgress  Status = "in_progress"
	StatusInterrupted Status = "interrupted"
	StatusCompleted   Status = "completed"
	StatusFailed      Status = "failed"
	StatusCancelled   Status = "cancelled"
)

// FileStatus is a single file's transfer progress (spec §3 FileTransferState).
type FileStatus string

const (
	FileStatusPending  FileStatus = "pending"
	FileStatusPartial  FileStatus = "partial"
	FileStatusComplete FileStatus = "complete"
	FileStatusFailed   FileStatus = "failed"
	FileStatusSkipped  FileStatus = "skipped"
)

// FileTransferState is the per-file resume record (spec §3). Invariant:
// BytesWritten <= Size; Status == Complete implies BytesWritten == Size.
type FileTransferState struct {
	RelativePath     string
	Size             int64
	BytesWritten     int64
	SourceMtime      int64
	PartialChecksum  uint32
	HasPartialChecksum bool
	Status           FileStatus
}

// TransferState is the durable record of one multi-file transfer (spec
// §3). Invariant: BytesTransferred == sum(Files[*].BytesWritten);
// TotalSize == sum(Files[*].Size).
type TransferState struct {
	ID               string
	Source           string
	Destination      string
	TotalSize        int64
	BytesTransferred int64
	Files            map[string]*FileTransferState
	StartedAt        time.Time
	LastCheckpoint   time.Time
	OptionsHash      uint64
	Status           Status
}

// recomputeTotals restores BytesTransferred/TotalSize from the file map
// after a mutation (spec §8 invariant 5).
func (t *TransferState) recomputeTotals() {
	var bytesDone, total int64
	for _, f := range t.Files {
		bytesDone += f.BytesWritten
		total += f.Size
	}
	t.BytesTransferred = bytesDone
	t.TotalSize = total
}

// legalTransitions enumerates the state machine from spec §4.9. Any
// transition not listed here is a programmer error (InvariantViolated).
var legalTransitions = map[Status]map[Status]bool{
	StatusInProgress: {
		StatusInterrupted: true,
		StatusCompleted:   true,
		StatusFailed:      true,
		StatusCancelled:   true,
	},
	StatusInterrupted: {
		StatusInProgress: true,
	},
}

// CanTransition reports whether from -> to is a legal status transition.
func CanTransition(from, to Status) bool {
	if from == to {
		return false
	}
	next, ok := legalTransitions[from]
	return ok && next[to]
}

// IsTerminal reports whether status is a terminal state (spec §4.9:
// "Terminal states are Completed, Cancelled").
func IsTerminal(status Status) bool {
	return status == StatusCompleted || status == StatusCancelled
}

// ResumeResult is the plan computed by CanResume (spec §4.9).
type ResumeResult struct {
	Resumed        bool
	FilesSkipped   int
	BytesSkipped   int64
	FilesRemaining int
	BytesRemaining int64
}
