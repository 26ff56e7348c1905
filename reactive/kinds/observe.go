package kinds

import "github.com/dshills/reactor-go/reactive"

// Observer is a handle to a registered sink node; it exists only so
// callers can thread its NodeID into tracing or diagnostics. There is
// nothing to read back from it — its effect already ran in notify.
type Observer struct {
	id reactive.NodeID
}

// ID returns the underlying node identity.
func (o Observer) ID() reactive.NodeID { return o.id }

// ObserveSignal registers a sink that calls notify with subject's new
// value, once per turn subject changes, deferred to the commit-phase
// queue in registration order relative to every other observer (spec
// §4.7, P5).
func ObserveSignal[T any](d *reactive.Domain, subject signalSource[T], notify func(T)) (Observer, error) {
	id, err := d.NewObserver(subject.ID(), false, func(v any) {
		t, _ := v.(T)
		notify(t)
	})
	if err != nil {
		return Observer{}, err
	}
	return Observer{id: id}, nil
}

// ObserveEvents registers a sink that calls notify once per item buffered
// on subject this turn, in buffer order, deferred to the commit-phase
// queue alongside every other observer (spec §4.7, P5).
func ObserveEvents[T any](d *reactive.Domain, subject eventSource[T], notify func(T)) (Observer, error) {
	id, err := d.NewObserver(subject.ID(), true, func(v any) {
		t, _ := v.(T)
		notify(t)
	})
	if err != nil {
		return Observer{}, err
	}
	return Observer{id: id}, nil
}
