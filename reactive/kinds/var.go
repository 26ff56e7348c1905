// Package kinds implements the built-in node algebra (spec §4.8) — Var,
// Lift, Merge, Filter, Map, Fold, Observe — as typed handles over the
// reactive package's low-level Domain/NodeID contract. Nothing here
// reaches into reactive's unexported internals; a third-party node kind
// would be built the same way, entirely through reactive's exported
// constructors.
package kinds

import "github.com/dshills/reactor-go/reactive"

// Var is a typed handle to an input signal: the only node kind whose
// value is set directly by calling code, via a staged Set applied at the
// start of the turn that includes it.
type Var[T any] struct {
	Signal[T]
}

// NewVar registers a Var node with the given initial value. eq may be nil
// to use the Domain's WithEquality comparator, or reactive.DefaultEqual
// when none is configured.
func NewVar[T any](d *reactive.Domain, initial T, eq func(old, new T) bool) Var[T] {
	id := d.NewVar(initial, wrapEqual(eq))
	return Var[T]{Signal: Signal[T]{d: d, id: id}}
}

// Set stages a new value on t, applied when t's turn begins propagating.
func (v Var[T]) Set(t *reactive.Turn, value T) error {
	return t.Set(v.id, value)
}

// wrapEqual adapts a typed equality function to reactive.Equal, or
// returns nil (meaning "use the Domain's default comparator") when eq is
// nil.
func wrapEqual[T any](eq func(old, new T) bool) reactive.Equal {
	if eq == nil {
		return nil
	}
	return func(old, new any) bool {
		oldT, okOld := old.(T)
		newT, okNew := new.(T)
		if !okOld || !okNew {
			return false
		}
		return eq(oldT, newT)
	}
}
