package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRegistryRegistersUnderNamespace(t *testing.T) {
	r := NewRegistry("smartcopy")
	require.NotNil(t, r.GetRegistry())

	families, err := r.GetRegistry().Gather()
	require.NoError(t, err)

	names := make(map[string]bool)
	for _, f := range families {
		names[f.GetName()] = true
	}

	assert.True(t, names["smartcopy_syncs_total"])
	assert.True(t, names["smartcopy_file_transfers_total"])
	assert.True(t, names["smartcopy_chunk_signatures_total"])
	assert.True(t, names["smartcopy_checkpoint_saves_total"])
}

func TestRegistryRecordSync(t *testing.T) {
	r := NewRegistry("smartcopy")

	r.RecordSync("success", 2*time.Second, 4096)
	r.RecordSync("failed", time.Second, 0)

	assert.Equal(t, float64(1), testutil.ToFloat64(r.syncTotal.WithLabelValues("success")))
	assert.Equal(t, float64(1), testutil.ToFloat64(r.syncTotal.WithLabelValues("failed")))
	assert.Equal(t, float64(4096), testutil.ToFloat64(r.syncBytesTotal.WithLabelValues("success")))
}

func TestRegistryRecordFileTransferAndBytesSaved(t *testing.T) {
	r := NewRegistry("smartcopy")

	r.RecordFileTransfer("success", 50*time.Millisecond)
	r.RecordFileTransfer("success", 75*time.Millisecond)
	r.RecordBytesSaved(1024)
	r.RecordBytesSaved(2048)

	assert.Equal(t, float64(2), testutil.ToFloat64(r.fileTransferTotal.WithLabelValues("success")))
	assert.Equal(t, float64(3072), testutil.ToFloat64(r.fileBytesSavedTotal))
}

func TestRegistryRecordChunkSignatureAndDeltaRatio(t *testing.T) {
	r := NewRegistry("smartcopy")

	r.RecordChunkSignature()
	r.RecordChunkSignature()
	r.RecordDeltaMatchRatio(0.75)

	assert.Equal(t, float64(2), testutil.ToFloat64(r.chunkSignaturesTotal))
}

func TestRegistryCheckpointAndManifestCounters(t *testing.T) {
	r := NewRegistry("smartcopy")

	r.RecordCheckpointSave()
	r.RecordCheckpointSave()
	r.RecordManifestWrite("binary")
	r.RecordGCSweep(3)

	assert.Equal(t, float64(2), testutil.ToFloat64(r.checkpointSavesTotal))
	assert.Equal(t, float64(1), testutil.ToFloat64(r.manifestWritesTotal.WithLabelValues("binary")))
	assert.Equal(t, float64(1), testutil.ToFloat64(r.gcSweepsTotal))
	assert.Equal(t, float64(3), testutil.ToFloat64(r.gcRemovedTotal))
}

func TestRegistryWorkerPoolAndSystemGauges(t *testing.T) {
	r := NewRegistry("smartcopy")

	r.SetCopyWorkerPoolSize(8)
	r.SetCopyWorkerPoolActive(3)
	r.SetSignatureWorkerPoolSize(4)
	r.SetSignatureWorkerPoolActive(1)
	r.SetMemoryUsage(1 << 20)
	r.SetGoroutineCount(42)
	r.RecordPanic("sync-engine")

	assert.Equal(t, float64(8), testutil.ToFloat64(r.copyWorkerPoolSize))
	assert.Equal(t, float64(3), testutil.ToFloat64(r.copyWorkerPoolActive))
	assert.Equal(t, float64(4), testutil.ToFloat64(r.signatureWorkerPoolSize))
	assert.Equal(t, float64(1), testutil.ToFloat64(r.signatureWorkerPoolActive))
	assert.Equal(t, float64(1<<20), testutil.ToFloat64(r.memoryUsage))
	assert.Equal(t, float64(42), testutil.ToFloat64(r.goroutineCount))
	assert.Equal(t, float64(1), testutil.ToFloat64(r.panicTotal.WithLabelValues("sync-engine")))
}

func TestRegistryHTTPMetrics(t *testing.T) {
	r := NewRegistry("smartcopy")

	r.IncHTTPRequestsInFlight()
	r.IncHTTPRequestsInFlight()
	r.RecordHTTPRequest("GET", "/metrics", "200", 5*time.Millisecond)
	r.DecHTTPRequestsInFlight()

	assert.Equal(t, float64(1), testutil.ToFloat64(r.httpRequestsInFlight))
	assert.Equal(t, float64(1), testutil.ToFloat64(r.httpRequestsTotal.WithLabelValues("GET", "/metrics", "200")))
}
