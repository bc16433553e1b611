package metrics

import (
	"galry/internal/filesystem"
	"galry/internal/variant"
)

// filesystemObserver implements filesystem.Observer using the Prometheus
// metrics declared in this package.
type filesystemObserver struct{}

// NewFilesystemObserver creates an observer that records filesystem metrics
// into the Prometheus counters and histograms declared in metrics.go.
func NewFilesystemObserver() filesystem.Observer {
	return &filesystemObserver{}
}

func (o *filesystemObserver) ObserveOperation(volume, operation string, durationSeconds float64, err error) {
	FilesystemOperationDuration.WithLabelValues(volume, operation).Observe(durationSeconds)
	if err != nil {
		FilesystemOperationErrors.WithLabelValues(volume, operation).Inc()
	}
}

func (o *filesystemObserver) ObserveRetryAttempt(retryOp, volume string) {
	FilesystemRetryAttempts.WithLabelValues(retryOp, volume).Inc()
}

func (o *filesystemObserver) ObserveRetrySuccess(retryOp, volume string) {
	FilesystemRetrySuccess.WithLabelValues(retryOp, volume).Inc()
}

func (o *filesystemObserver) ObserveRetryFailure(retryOp, volume string) {
	FilesystemRetryFailures.WithLabelValues(retryOp, volume).Inc()
}

func (o *filesystemObserver) ObserveStaleError(retryOp, volume string) {
	FilesystemStaleErrors.WithLabelValues(retryOp, volume).Inc()
}

// variantObserver implements variant.Observer.
type variantObserver struct{}

// NewVariantObserver creates an observer that records variant cache
// outcomes, generation timings and degraded serves.
func NewVariantObserver() variant.Observer {
	return &variantObserver{}
}

func (o *variantObserver) ObserveOutcome(kind variant.Kind, outcome variant.Outcome) {
	VariantRequestsTotal.WithLabelValues(kind.Name(), outcome.String()).Inc()
}

func (o *variantObserver) ObserveGeneration(kind variant.Kind, durationSeconds float64, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	VariantGenerationsTotal.WithLabelValues(kind.Name(), status).Inc()
	VariantGenerationDuration.WithLabelValues(kind.Name()).Observe(durationSeconds)
}

func (o *variantObserver) ObserveDegraded(kind variant.Kind, reason variant.UnwritableReason) {
	VariantDegradedTotal.WithLabelValues(kind.Name(), reason.String()).Inc()
}

// ObserveVariantError counts a failed variant request by its error class.
func ObserveVariantError(kind variant.Kind, err error) {
	VariantErrorsTotal.WithLabelValues(kind.Name(), variant.Classify(err)).Inc()
}
