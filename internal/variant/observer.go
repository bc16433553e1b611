package variant

// Observer receives per-request events from a Cache. The metrics package
// provides the Prometheus implementation.
type Observer interface {
	// ObserveOutcome is called once per successful Get.
	ObserveOutcome(kind Kind, outcome Outcome)
	// ObserveGeneration is called after every Generator invocation.
	ObserveGeneration(kind Kind, seconds float64, err error)
	// ObserveDegraded is called whenever a scaled variant is served from
	// memory, with the reason it was not persisted.
	ObserveDegraded(kind Kind, reason UnwritableReason)
}

type nopObserver struct{}

func (nopObserver) ObserveOutcome(Kind, Outcome)           {}
func (nopObserver) ObserveGeneration(Kind, float64, error) {}
func (nopObserver) ObserveDegraded(Kind, UnwritableReason) {}
