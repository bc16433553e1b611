package filesystem

// Observer records filesystem operation metrics. The implementation lives in
// the metrics package to keep this package free of Prometheus imports.
type Observer interface {
	// ObserveOperation records duration and error status for one operation
	// ("stat", "open", "readdir", "write").
	ObserveOperation(volume, operation string, durationSeconds float64, err error)

	ObserveRetryAttempt(operation, volume string)
	ObserveRetrySuccess(operation, volume string)
	ObserveRetryFailure(operation, volume string)
	ObserveStaleError(operation, volume string)
}

var defaultObserver Observer

// SetObserver sets the package-level metrics observer.
// Call this once at startup after creating the observer implementation.
func SetObserver(o Observer) {
	defaultObserver = o
}

type noopObserver struct{}

func (noopObserver) ObserveOperation(string, string, float64, error) {}
func (noopObserver) ObserveRetryAttempt(string, string)              {}
func (noopObserver) ObserveRetrySuccess(string, string)              {}
func (noopObserver) ObserveRetryFailure(string, string)              {}
func (noopObserver) ObserveStaleError(string, string)                {}

// observe is a nil-safe accessor for the package-level observer.
func observe() Observer {
	if defaultObserver == nil {
		return noopObserver{}
	}
	return defaultObserver
}
