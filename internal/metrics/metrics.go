package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "galry_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "galry_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "galry_http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		},
	)
)

// Variant metrics
var (
	VariantRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "galry_variant_requests_total",
			Help: "Total number of served variants by kind and outcome",
		},
		[]string{"kind", "outcome"}, // outcome: "original", "existing", "generated", "in_memory"
	)

	VariantErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "galry_variant_errors_total",
			Help: "Total number of failed variant requests by kind and error class",
		},
		[]string{"kind", "class"},
	)

	VariantGenerationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "galry_variant_generations_total",
			Help: "Total number of image decode and scale runs",
		},
		[]string{"kind", "status"},
	)

	VariantGenerationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "galry_variant_generation_duration_seconds",
			Help:    "Variant generation duration in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"kind"},
	)

	VariantDegradedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "galry_variant_degraded_total",
			Help: "Total number of variants served from memory because they could not be persisted",
		},
		[]string{"kind", "reason"},
	)

	VariantCacheFiles = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "galry_variant_cache_files",
			Help: "Number of persisted variants by kind",
		},
		[]string{"kind"},
	)

	VariantCacheBytes = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "galry_variant_cache_bytes",
			Help: "Size of persisted variants in bytes by kind",
		},
		[]string{"kind"},
	)

	VariantCacheLastScanDuration = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "galry_variant_cache_last_scan_duration_seconds",
			Help: "Duration of the last cache inventory scan in seconds",
		},
	)
)

// Warm-up metrics, written by galry-warm to a node_exporter textfile.
var (
	WarmFilesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "galry_warm_files_total",
			Help: "Number of files processed by the warm-up tool by status",
		},
		[]string{"status"}, // "ok", "failed"
	)
)

// Memory metrics
var (
	MemoryUsageRatio = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "galry_memory_usage_ratio",
			Help: "Heap allocation as a ratio of the configured memory limit",
		},
	)

	MemoryPaused = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "galry_memory_paused",
			Help: "1 while image generation is paused for memory pressure",
		},
	)

	MemoryGCPauses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "galry_memory_gc_pauses_total",
			Help: "Number of times generation was paused for memory pressure",
		},
	)
)

// Filesystem metrics
var (
	FilesystemOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "galry_filesystem_operation_duration_seconds",
			Help:    "Filesystem operation duration in seconds by volume and operation",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		},
		[]string{"volume", "operation"},
	)

	FilesystemOperationErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "galry_filesystem_operation_errors_total",
			Help: "Total number of failed filesystem operations by volume and operation",
		},
		[]string{"volume", "operation"},
	)

	FilesystemRetryAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "galry_filesystem_retry_attempts_total",
			Help: "Total number of filesystem operation retries",
		},
		[]string{"operation", "volume"},
	)

	FilesystemRetrySuccess = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "galry_filesystem_retry_success_total",
			Help: "Total number of filesystem operations that succeeded after retrying",
		},
		[]string{"operation", "volume"},
	)

	FilesystemRetryFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "galry_filesystem_retry_failures_total",
			Help: "Total number of filesystem operations that failed after all retries",
		},
		[]string{"operation", "volume"},
	)

	FilesystemStaleErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "galry_filesystem_stale_errors_total",
			Help: "Total number of stale NFS file handle errors",
		},
		[]string{"operation", "volume"},
	)
)

// Application info metric
var (
	AppInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "galry_app_info",
			Help: "Application information",
		},
		[]string{"version", "commit", "go_version"},
	)
)

// SetAppInfo sets the application info metric
func SetAppInfo(version, commit, goVersion string) {
	AppInfo.WithLabelValues(version, commit, goVersion).Set(1)
}
