package kinds

import "github.com/dshills/reactor-go/reactive"

// Switch registers a dynamically-reattaching signal (spec's "dynamic
// switch" scenario): sel picks a branch key and branches maps each key to
// the signal it should currently track. The node starts tracking
// initialKey's branch and re-wires its predecessor edges whenever sel's
// value names a different key.
//
// branches uses the concrete Signal[T] handle type rather than the
// package's internal signal interface so callers outside kinds can build
// the map directly; pass a Var[T]'s embedded Signal field for a variable
// branch.
func Switch[K comparable, T any](d *reactive.Domain, sel signalSource[K], initialKey K, branches map[K]Signal[T]) (Signal[T], error) {
	initial, ok := branches[initialKey]
	if !ok {
		return Signal[T]{}, reactive.ErrUnknownNode
	}

	resolve := func() reactive.NodeID {
		key := sel.Value()
		if b, ok := branches[key]; ok {
			return b.ID()
		}
		return initial.ID()
	}
	combine := func() (any, error) {
		key := sel.Value()
		b, ok := branches[key]
		if !ok {
			b = initial
		}
		return b.Value(), nil
	}

	id, err := d.NewSwitch(sel.ID(), initial.ID(), resolve, combine)
	if err != nil {
		return Signal[T]{}, err
	}
	return Signal[T]{d: d, id: id}, nil
}
