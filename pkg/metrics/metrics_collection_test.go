package metrics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// TestTransferStatus tests the transfer status constants.
func TestTransferStatus(t *testing.T) {
	tests := []struct {
		name   string
		status TransferStatus
	}{
		{"success status", TransferSuccess},
		{"skipped status", TransferSkipped},
		{"failed status", TransferFailed},
		{"resumed status", TransferResumed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotEmpty(t, string(tt.status))
		})
	}
}

func TestTransferStatus_StringValues(t *testing.T) {
	tests := []struct {
		status   TransferStatus
		expected string
	}{
		{TransferSuccess, "success"},
		{TransferSkipped, "skipped"},
		{TransferFailed, "failed"},
		{TransferResumed, "resumed"},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			assert.Equal(t, tt.expected, string(tt.status))
		})
	}
}

func TestNoopMetrics_SyncStarted(t *testing.T) {
	m := NewNoopMetrics()

	m.SyncStarted("source", "destination")

	noop, ok := m.(*NoopMetrics)
	assert.True(t, ok)
	assert.NotNil(t, noop)
}

func TestNoopMetrics_SyncCompleted(t *testing.T) {
	m := NewNoopMetrics()

	m.SyncCompleted(5*time.Second, 10, 1024*1024)
}

func TestNoopMetrics_SyncFailed(t *testing.T) {
	m := NewNoopMetrics()

	m.SyncFailed()
}

func TestNoopMetrics_FileTransferStarted(t *testing.T) {
	m := NewNoopMetrics()

	m.FileTransferStarted("data/file.bin")
}

func TestNoopMetrics_FileTransferCompleted(t *testing.T) {
	m := NewNoopMetrics()

	m.FileTransferCompleted("data/file.bin", TransferSuccess, 2048, 0)
}

func TestNoopMetrics_FileTransferFailed(t *testing.T) {
	m := NewNoopMetrics()

	m.FileTransferFailed("data/file.bin")
}

func TestNoopMetrics_TreeSyncCompleted(t *testing.T) {
	m := NewNoopMetrics()

	m.TreeSyncCompleted("source-tree", "dest-tree", 100, 95, 3, 2)
}

func TestNoopMetrics_AllMethods(t *testing.T) {
	m := NewNoopMetrics()

	m.SyncStarted("/data/source", "/data/dest")

	m.FileTransferStarted("a.bin")
	m.FileTransferCompleted("a.bin", TransferSuccess, 1024, 0)

	m.FileTransferStarted("b.bin")
	m.FileTransferFailed("b.bin")

	m.TreeSyncCompleted("/data/source", "/data/dest", 10, 8, 1, 1)

	m.SyncCompleted(10*time.Second, 10, 10240)

	assert.NotNil(t, m)
}

func TestNoopMetrics_Interface(t *testing.T) {
	var m Collector = NewNoopMetrics()
	assert.NotNil(t, m)

	m.SyncStarted("test", "test")
	m.SyncCompleted(time.Second, 1, 100)
	m.SyncFailed()
	m.FileTransferStarted("a")
	m.FileTransferCompleted("a", TransferSuccess, 100, 20)
	m.FileTransferFailed("a")
	m.TreeSyncCompleted("a", "b", 10, 8, 1, 1)
}

func TestNewNoopMetrics(t *testing.T) {
	m := NewNoopMetrics()
	assert.NotNil(t, m)

	_, ok := m.(*NoopMetrics)
	assert.True(t, ok)
}

func TestCollector_ConcurrentAccess(t *testing.T) {
	m := NewNoopMetrics()

	done := make(chan bool)

	for i := 0; i < 10; i++ {
		go func(id int) {
			m.SyncStarted("source", "dest")
			m.FileTransferStarted("file")
			m.FileTransferCompleted("file", TransferSuccess, 1024, 0)
			m.SyncCompleted(time.Second, 1, 1024)
			done <- true
		}(i)
	}

	for i := 0; i < 10; i++ {
		<-done
	}

	assert.NotNil(t, m)
}

// MockCollector is a mock implementation for testing callers of Collector.
type MockCollector struct {
	SyncStartedCalls          int
	SyncCompletedCalls        int
	SyncFailedCalls           int
	FileTransferStartedCalls  int
	FileTransferCompletedCalls int
	FileTransferFailedCalls   int
	TreeSyncCompletedCalls    int

	LastSource         string
	LastDestination    string
	LastPath           string
	LastDuration       time.Duration
	LastFilesTransferred int
	LastBytesTransferred int64
	LastBytesSaved     int64
	LastStatus         TransferStatus
	LastTotalFiles     int
	LastTransferred    int
	LastSkipped        int
	LastFailed         int
}

func (m *MockCollector) SyncStarted(source, destination string) {
	m.SyncStartedCalls++
	m.LastSource = source
	m.LastDestination = destination
}

func (m *MockCollector) SyncCompleted(duration time.Duration, filesTransferred int, bytesTransferred int64) {
	m.SyncCompletedCalls++
	m.LastDuration = duration
	m.LastFilesTransferred = filesTransferred
	m.LastBytesTransferred = bytesTransferred
}

func (m *MockCollector) SyncFailed() {
	m.SyncFailedCalls++
}

func (m *MockCollector) FileTransferStarted(path string) {
	m.FileTransferStartedCalls++
	m.LastPath = path
}

func (m *MockCollector) FileTransferCompleted(path string, status TransferStatus, bytesTransferred, bytesSaved int64) {
	m.FileTransferCompletedCalls++
	m.LastPath = path
	m.LastStatus = status
	m.LastBytesTransferred = bytesTransferred
	m.LastBytesSaved = bytesSaved
}

func (m *MockCollector) FileTransferFailed(path string) {
	m.FileTransferFailedCalls++
	m.LastPath = path
}

func (m *MockCollector) TreeSyncCompleted(source, destination string, totalFiles, transferred, skipped, failed int) {
	m.TreeSyncCompletedCalls++
	m.LastSource = source
	m.LastDestination = destination
	m.LastTotalFiles = totalFiles
	m.LastTransferred = transferred
	m.LastSkipped = skipped
	m.LastFailed = failed
}

func TestMockCollector(t *testing.T) {
	mock := &MockCollector{}

	mock.SyncStarted("source", "dest")
	assert.Equal(t, 1, mock.SyncStartedCalls)
	assert.Equal(t, "source", mock.LastSource)
	assert.Equal(t, "dest", mock.LastDestination)

	mock.FileTransferStarted("file1.bin")
	assert.Equal(t, 1, mock.FileTransferStartedCalls)
	assert.Equal(t, "file1.bin", mock.LastPath)

	mock.FileTransferCompleted("file1.bin", TransferSuccess, 2048, 512)
	assert.Equal(t, 1, mock.FileTransferCompletedCalls)
	assert.Equal(t, int64(2048), mock.LastBytesTransferred)
	assert.Equal(t, int64(512), mock.LastBytesSaved)

	mock.FileTransferFailed("file2.bin")
	assert.Equal(t, 1, mock.FileTransferFailedCalls)
	assert.Equal(t, "file2.bin", mock.LastPath)

	mock.TreeSyncCompleted("source", "dest", 100, 95, 3, 2)
	assert.Equal(t, 1, mock.TreeSyncCompletedCalls)
	assert.Equal(t, 100, mock.LastTotalFiles)
	assert.Equal(t, 95, mock.LastTransferred)
	assert.Equal(t, 3, mock.LastSkipped)
	assert.Equal(t, 2, mock.LastFailed)

	mock.SyncCompleted(5*time.Second, 10, 10240)
	assert.Equal(t, 1, mock.SyncCompletedCalls)
	assert.Equal(t, 5*time.Second, mock.LastDuration)
	assert.Equal(t, 10, mock.LastFilesTransferred)
	assert.Equal(t, int64(10240), mock.LastBytesTransferred)

	mock.SyncFailed()
	assert.Equal(t, 1, mock.SyncFailedCalls)
}

func TestCollector_WorkflowSimulation(t *testing.T) {
	mock := &MockCollector{}

	mock.SyncStarted("/data/source-tree", "/data/dest-tree")

	files := []string{"a.bin", "b.bin", "c.bin", "manifest.bin"}
	for _, f := range files {
		mock.FileTransferStarted(f)
		if f == "b.bin" {
			mock.FileTransferFailed(f)
		} else {
			mock.FileTransferCompleted(f, TransferSuccess, 1024, 0)
		}
	}

	mock.TreeSyncCompleted("/data/source-tree", "/data/dest-tree", 4, 3, 0, 1)

	mock.SyncCompleted(30*time.Second, 3, 3072)

	assert.Equal(t, 1, mock.SyncStartedCalls)
	assert.Equal(t, 4, mock.FileTransferStartedCalls)
	assert.Equal(t, 3, mock.FileTransferCompletedCalls)
	assert.Equal(t, 1, mock.FileTransferFailedCalls)
	assert.Equal(t, 1, mock.TreeSyncCompletedCalls)
	assert.Equal(t, 1, mock.SyncCompletedCalls)

	assert.Equal(t, 30*time.Second, mock.LastDuration)
	assert.Equal(t, 3, mock.LastTransferred)
	assert.Equal(t, 1, mock.LastFailed)
}

func TestCollector_MultipleTrees(t *testing.T) {
	mock := &MockCollector{}

	trees := []struct {
		source string
		dest   string
		files  int
	}{
		{"/tree1", "/backup/tree1", 10},
		{"/tree2", "/backup/tree2", 15},
		{"/tree3", "/backup/tree3", 20},
	}

	for _, tree := range trees {
		mock.TreeSyncCompleted(tree.source, tree.dest, tree.files, tree.files, 0, 0)
	}

	assert.Equal(t, 3, mock.TreeSyncCompletedCalls)
	assert.Equal(t, 20, mock.LastTotalFiles)
}

func TestCollector_LargeValues(t *testing.T) {
	mock := &MockCollector{}

	largeByteCount := int64(10 * 1024 * 1024 * 1024)
	mock.FileTransferCompleted("huge.bin", TransferSuccess, largeByteCount, 0)
	assert.Equal(t, largeByteCount, mock.LastBytesTransferred)

	largeFileCount := 1000
	mock.SyncCompleted(time.Hour, largeFileCount, largeByteCount)
	assert.Equal(t, largeFileCount, mock.LastFilesTransferred)

	manyFiles := 10000
	mock.TreeSyncCompleted("source", "dest", manyFiles, manyFiles-10, 5, 5)
	assert.Equal(t, manyFiles, mock.LastTotalFiles)
}
