package metrics

import (
	"testing"
	"time"
)

func TestNoopMetrics(t *testing.T) {
	m := &NoopMetrics{}

	m.SyncStarted("source", "dest")
	m.SyncCompleted(1*time.Second, 5, 1024)
	m.SyncFailed()
	m.FileTransferStarted("a.txt")
	m.FileTransferCompleted("a.txt", TransferSuccess, 1024, 512)
	m.FileTransferFailed("a.txt")
	m.TreeSyncCompleted("source", "dest", 5, 4, 1, 0)
}

func TestInMemoryMetricsSyncStarted(t *testing.T) {
	m := NewInMemoryMetrics()

	m.SyncStarted("/data/project1", "/backup/project1")
	m.SyncStarted("/data/project2", "/backup/project2")
	m.SyncStarted("/data/project1", "/backup/project3")
	m.SyncStarted("/data/project3", "/backup/project1")

	sourceTrees := m.GetTopSourceTrees()
	if len(sourceTrees) != 3 {
		t.Errorf("Expected 3 source trees, got %d", len(sourceTrees))
	}

	for tree, count := range sourceTrees {
		if tree == "/data/project1" && count != 2 {
			t.Errorf("Expected /data/project1 to have count 2, got %d", count)
		}
	}

	if got := m.GetSyncCount(); got != 4 {
		t.Errorf("Expected sync count 4, got %d", got)
	}
}

func TestInMemoryMetricsSyncCompletedAndFailed(t *testing.T) {
	m := NewInMemoryMetrics()

	m.SyncCompleted(2*time.Second, 10, 2048)
	m.SyncCompleted(4*time.Second, 5, 1024)
	m.SyncFailed()

	if got := m.GetFilesTransferred(); got != 15 {
		t.Errorf("Expected 15 files transferred, got %d", got)
	}
	if got := m.GetBytesTransferred(); got != 3072 {
		t.Errorf("Expected 3072 bytes transferred, got %d", got)
	}
	if got := m.GetSyncErrors(); got != 1 {
		t.Errorf("Expected 1 sync error, got %d", got)
	}
	if got := m.GetAverageLatency(); got != 3*time.Second {
		t.Errorf("Expected average latency 3s, got %s", got)
	}
}

func TestInMemoryMetricsFileTransfer(t *testing.T) {
	m := NewInMemoryMetrics()

	m.FileTransferCompleted("a.txt", TransferSuccess, 1000, 400)
	m.FileTransferFailed("b.txt")

	if got := m.GetBytesTransferred(); got != 1000 {
		t.Errorf("Expected 1000 bytes transferred, got %d", got)
	}
	if got := m.GetBytesSaved(); got != 400 {
		t.Errorf("Expected 400 bytes saved, got %d", got)
	}
	if got := m.GetSyncErrors(); got != 1 {
		t.Errorf("Expected 1 error recorded, got %d", got)
	}
}
