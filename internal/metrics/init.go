package metrics

import "galry/internal/variant"

// InitializeMetrics pre-populates all expected label combinations so that
// every metric is exported from the first Prometheus scrape.
// Call this once at startup after metric registration.
func InitializeMetrics() {
	// --- Filesystem operation metrics (per volume × operation) ---
	volumes := []string{"root", "thumbs", "unknown"}
	fsOps := []string{"read", "write", "stat", "open", "readdir"}

	for _, vol := range volumes {
		for _, op := range fsOps {
			FilesystemOperationDuration.WithLabelValues(vol, op)
			FilesystemOperationErrors.WithLabelValues(vol, op)
			FilesystemRetryAttempts.WithLabelValues(op, vol)
			FilesystemRetrySuccess.WithLabelValues(op, vol)
			FilesystemRetryFailures.WithLabelValues(op, vol)
			FilesystemStaleErrors.WithLabelValues(op, vol)
		}
	}

	// --- Variant metrics (per kind) ---
	outcomes := []variant.Outcome{variant.ServeOriginal, variant.ServeExisting, variant.ServeFile, variant.ServeInMemory}
	reasons := []variant.UnwritableReason{
		variant.ReasonNoCandidate, variant.ReasonMkdirFailed, variant.ReasonNotDirectory,
		variant.ReasonPermission, variant.ReasonPersistFailed, variant.ReasonCandidateNotFile,
	}
	classes := []string{variant.LabelBadRequest, variant.LabelNotFound, variant.LabelImageError, variant.LabelInternal}

	for _, kind := range variant.Kinds {
		k := kind.Name()
		for _, o := range outcomes {
			VariantRequestsTotal.WithLabelValues(k, o.String())
		}
		for _, c := range classes {
			VariantErrorsTotal.WithLabelValues(k, c)
		}
		if _, _, scaled := kind.Bounds(); !scaled {
			continue
		}
		VariantGenerationsTotal.WithLabelValues(k, "success")
		VariantGenerationsTotal.WithLabelValues(k, "error")
		VariantGenerationDuration.WithLabelValues(k)
		for _, r := range reasons {
			VariantDegradedTotal.WithLabelValues(k, r.String())
		}
		VariantCacheFiles.WithLabelValues(k)
		VariantCacheBytes.WithLabelValues(k)
	}
}
