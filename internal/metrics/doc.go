// Package metrics provides Prometheus instrumentation for galry.
//
// All metrics are registered with the default registry through promauto and
// are prefixed with "galry_".
//
// # Metric Categories
//
// ## HTTP Metrics
//
//   - HTTPRequestsTotal: Counter of requests by method, path template and status
//   - HTTPRequestDuration: Histogram of request duration by method and path
//   - HTTPRequestsInFlight: Gauge of currently processing requests
//
// ## Variant Metrics
//
// Recorded through the variant.Observer returned by NewVariantObserver:
//   - VariantRequestsTotal: Counter by kind and outcome (original, existing,
//     generated, in_memory)
//   - VariantErrorsTotal: Counter of failed requests by kind and error class
//   - VariantGenerationsTotal / VariantGenerationDuration: decode and scale runs
//   - VariantDegradedTotal: variants served from memory, by unwritable reason
//   - VariantCacheFiles / VariantCacheBytes: cache inventory, refreshed by a
//     Collector
//
// ## Filesystem Metrics
//
// Recorded through the filesystem.Observer returned by NewFilesystemObserver,
// labelled by volume ("root" or "thumbs"):
//   - FilesystemOperationDuration / FilesystemOperationErrors
//   - FilesystemRetryAttempts, FilesystemRetrySuccess, FilesystemRetryFailures
//   - FilesystemStaleErrors: ESTALE responses from NFS mounts
//
// ## Memory and Warm-up Metrics
//
//   - MemoryUsageRatio, MemoryPaused, MemoryGCPauses: set by memory.Monitor
//   - WarmFilesTotal: images processed by galry-warm, by status. galry-warm
//     writes these to a node_exporter textfile with --textfile.
//
// # Usage
//
//	filesystem.SetObserver(metrics.NewFilesystemObserver())
//	metrics.InitializeMetrics()
//	cache := variant.New(gen, variant.WithObserver(metrics.NewVariantObserver()))
//
// Metrics are served by promhttp on the port configured with --metrics-port.
package metrics
