package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Registry wraps a Prometheus registry with the sync engine's metrics.
type Registry struct {
	registry *prometheus.Registry

	// HTTP metrics, for the health/metrics server.
	httpRequestsTotal    *prometheus.CounterVec
	httpRequestDuration  *prometheus.HistogramVec
	httpRequestsInFlight prometheus.Gauge

	// Tree sync metrics.
	syncTotal        *prometheus.CounterVec
	syncDuration     *prometheus.HistogramVec
	syncBytesTotal   *prometheus.CounterVec
	syncFilesTotal   *prometheus.CounterVec
	syncErrorsTotal  *prometheus.CounterVec

	// Per-file transfer metrics.
	fileTransferTotal    *prometheus.CounterVec
	fileTransferDuration *prometheus.HistogramVec
	fileBytesSavedTotal  prometheus.Counter

	// Delta / signature engine metrics.
	chunkSignaturesTotal prometheus.Counter
	deltaMatchRatio      prometheus.Histogram

	// Checkpoint and manifest persistence metrics.
	checkpointSavesTotal prometheus.Counter
	manifestWritesTotal  *prometheus.CounterVec
	gcSweepsTotal        prometheus.Counter
	gcRemovedTotal       prometheus.Counter

	// Worker pool metrics.
	copyWorkerPoolSize    prometheus.Gauge
	copyWorkerPoolActive  prometheus.Gauge
	signatureWorkerPoolSize   prometheus.Gauge
	signatureWorkerPoolActive prometheus.Gauge

	// System metrics.
	memoryUsage    prometheus.Gauge
	goroutineCount prometheus.Gauge
	panicTotal     *prometheus.CounterVec
}

// NewRegistry creates a new metrics registry with every sync engine metric,
// namespaced under the given prefix (config.MetricsConfig.Namespace).
func NewRegistry(namespace string) *Registry {
	reg := prometheus.NewRegistry()

	r := &Registry{
		registry: reg,

		httpRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests served by the health/metrics endpoint.",
			},
			[]string{"method", "path", "status"},
		),
		httpRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "path", "status"},
		),
		httpRequestsInFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "http_requests_in_flight",
				Help:      "Number of HTTP requests currently being processed.",
			},
		),

		syncTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "syncs_total",
				Help:      "Total number of tree sync operations, by outcome.",
			},
			[]string{"status"},
		),
		syncDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "sync_duration_seconds",
				Help:      "Tree sync duration in seconds.",
				Buckets:   []float64{1, 5, 10, 30, 60, 300, 600, 1800, 3600},
			},
			[]string{"status"},
		),
		syncBytesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "sync_bytes_transferred_total",
				Help:      "Total bytes transferred across all tree syncs.",
			},
			[]string{"status"},
		),
		syncFilesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "sync_files_total",
				Help:      "Total files seen during a tree walk, by disposition.",
			},
			[]string{"disposition"},
		),
		syncErrorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "sync_errors_total",
				Help:      "Total number of tree syncs that aborted with an error.",
			},
			[]string{"error_type"},
		),

		fileTransferTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "file_transfers_total",
				Help:      "Total number of per-file transfer attempts, by outcome.",
			},
			[]string{"status"},
		),
		fileTransferDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "file_transfer_duration_seconds",
				Help:      "Per-file transfer duration in seconds.",
				Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30, 60, 300},
			},
			[]string{"status"},
		),
		fileBytesSavedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "file_bytes_saved_total",
				Help:      "Total bytes that delta matching avoided re-transferring.",
			},
		),

		chunkSignaturesTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "chunk_signatures_total",
				Help:      "Total number of chunk signatures computed.",
			},
		),
		deltaMatchRatio: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "delta_match_ratio",
				Help:      "Fraction of a file's bytes matched against the destination signature, per file (0-1).",
				Buckets:   prometheus.LinearBuckets(0, 0.1, 11),
			},
		),

		checkpointSavesTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "checkpoint_saves_total",
				Help:      "Total number of transfer checkpoint writes.",
			},
		),
		manifestWritesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "manifest_writes_total",
				Help:      "Total number of manifest store writes, by format.",
			},
			[]string{"format"},
		),
		gcSweepsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "checkpoint_gc_sweeps_total",
				Help:      "Total number of checkpoint garbage-collection sweeps run.",
			},
		),
		gcRemovedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "checkpoint_gc_removed_total",
				Help:      "Total number of stale or terminal checkpoint state files removed.",
			},
		),

		copyWorkerPoolSize: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "copy_worker_pool_size",
				Help:      "Configured number of parallel chunk-copy workers.",
			},
		),
		copyWorkerPoolActive: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "copy_worker_pool_active",
				Help:      "Number of chunk-copy workers currently busy.",
			},
		),
		signatureWorkerPoolSize: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "signature_worker_pool_size",
				Help:      "Configured number of parallel signature workers.",
			},
		),
		signatureWorkerPoolActive: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "signature_worker_pool_active",
				Help:      "Number of signature workers currently busy.",
			},
		),

		memoryUsage: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "memory_usage_bytes",
				Help:      "Current process memory usage in bytes.",
			},
		),
		goroutineCount: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "goroutines",
				Help:      "Current number of goroutines.",
			},
		),
		panicTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "panics_total",
				Help:      "Total number of recovered panics, by component.",
			},
			[]string{"component"},
		),
	}

	r.registerMetrics()

	return r
}

func (r *Registry) registerMetrics() {
	collectors := []prometheus.Collector{
		r.httpRequestsTotal,
		r.httpRequestDuration,
		r.httpRequestsInFlight,
		r.syncTotal,
		r.syncDuration,
		r.syncBytesTotal,
		r.syncFilesTotal,
		r.syncErrorsTotal,
		r.fileTransferTotal,
		r.fileTransferDuration,
		r.fileBytesSavedTotal,
		r.chunkSignaturesTotal,
		r.deltaMatchRatio,
		r.checkpointSavesTotal,
		r.manifestWritesTotal,
		r.gcSweepsTotal,
		r.gcRemovedTotal,
		r.copyWorkerPoolSize,
		r.copyWorkerPoolActive,
		r.signatureWorkerPoolSize,
		r.signatureWorkerPoolActive,
		r.memoryUsage,
		r.goroutineCount,
		r.panicTotal,
	}

	for _, c := range collectors {
		r.registry.MustRegister(c)
	}
}

// GetRegistry returns the underlying Prometheus registry, for wiring into an
// HTTP handler via promhttp.HandlerFor.
func (r *Registry) GetRegistry() *prometheus.Registry {
	return r.registry
}

// HTTP metrics.

func (r *Registry) RecordHTTPRequest(method, path, status string, duration time.Duration) {
	r.httpRequestsTotal.WithLabelValues(method, path, status).Inc()
	r.httpRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
}

func (r *Registry) IncHTTPRequestsInFlight() { r.httpRequestsInFlight.Inc() }
func (r *Registry) DecHTTPRequestsInFlight() { r.httpRequestsInFlight.Dec() }

// Tree sync metrics.

func (r *Registry) RecordSync(status string, duration time.Duration, bytes int64) {
	r.syncTotal.WithLabelValues(status).Inc()
	r.syncDuration.WithLabelValues(status).Observe(duration.Seconds())
	if bytes > 0 {
		r.syncBytesTotal.WithLabelValues(status).Add(float64(bytes))
	}
}

func (r *Registry) RecordSyncFiles(disposition string, count int) {
	if count > 0 {
		r.syncFilesTotal.WithLabelValues(disposition).Add(float64(count))
	}
}

func (r *Registry) RecordSyncError(errorType string) {
	r.syncErrorsTotal.WithLabelValues(errorType).Inc()
}

// Per-file transfer metrics.

func (r *Registry) RecordFileTransfer(status string, duration time.Duration) {
	r.fileTransferTotal.WithLabelValues(status).Inc()
	r.fileTransferDuration.WithLabelValues(status).Observe(duration.Seconds())
}

func (r *Registry) RecordBytesSaved(bytes int64) {
	if bytes > 0 {
		r.fileBytesSavedTotal.Add(float64(bytes))
	}
}

// Delta / signature metrics.

func (r *Registry) RecordChunkSignature() { r.chunkSignaturesTotal.Inc() }

func (r *Registry) RecordDeltaMatchRatio(ratio float64) {
	r.deltaMatchRatio.Observe(ratio)
}

// Checkpoint and manifest metrics.

func (r *Registry) RecordCheckpointSave()     { r.checkpointSavesTotal.Inc() }
func (r *Registry) RecordManifestWrite(format string) {
	r.manifestWritesTotal.WithLabelValues(format).Inc()
}
func (r *Registry) RecordGCSweep(removed int) {
	r.gcSweepsTotal.Inc()
	if removed > 0 {
		r.gcRemovedTotal.Add(float64(removed))
	}
}

// Worker pool metrics.

func (r *Registry) SetCopyWorkerPoolSize(size int)         { r.copyWorkerPoolSize.Set(float64(size)) }
func (r *Registry) SetCopyWorkerPoolActive(active int)     { r.copyWorkerPoolActive.Set(float64(active)) }
func (r *Registry) SetSignatureWorkerPoolSize(size int)    { r.signatureWorkerPoolSize.Set(float64(size)) }
func (r *Registry) SetSignatureWorkerPoolActive(active int) {
	r.signatureWorkerPoolActive.Set(float64(active))
}

// System metrics.

func (r *Registry) SetMemoryUsage(bytes uint64)  { r.memoryUsage.Set(float64(bytes)) }
func (r *Registry) SetGoroutineCount(count int)  { r.goroutineCount.Set(float64(count)) }
func (r *Registry) RecordPanic(component string) { r.panicTotal.WithLabelValues(component).Inc() }
