package kinds

import "github.com/dshills/reactor-go/reactive"

// Signal is a typed handle to any signal-shaped node (Var, Lift result,
// Fold result, dynamic Switch): something with a current value, read via
// Value. It carries no mutation capability — only Var exposes Set.
type Signal[T any] struct {
	d  *reactive.Domain
	id reactive.NodeID
}

// ID returns the underlying node identity.
func (s Signal[T]) ID() reactive.NodeID { return s.id }

// Value returns the signal's current committed value.
func (s Signal[T]) Value() T {
	val, _ := s.d.Value(s.id).(T)
	return val
}

// signalSource is satisfied by Var[T] and Signal[T], letting Lift take
// either as a predecessor.
type signalSource[T any] interface {
	ID() reactive.NodeID
	Value() T
}

// Lift1 registers a computed signal recomputed from one predecessor's
// current value whenever it changes.
func Lift1[A, R any](d *reactive.Domain, a signalSource[A], fn func(A) (R, error), eq func(old, new R) bool) (Signal[R], error) {
	id, err := d.NewSignal([]reactive.NodeID{a.ID()}, func() (any, error) {
		return fn(a.Value())
	}, wrapEqual(eq))
	if err != nil {
		return Signal[R]{}, err
	}
	return Signal[R]{d: d, id: id}, nil
}

// Lift2 registers a computed signal recomputed from two predecessors'
// current values whenever either changes.
func Lift2[A, B, R any](d *reactive.Domain, a signalSource[A], b signalSource[B], fn func(A, B) (R, error), eq func(old, new R) bool) (Signal[R], error) {
	id, err := d.NewSignal([]reactive.NodeID{a.ID(), b.ID()}, func() (any, error) {
		return fn(a.Value(), b.Value())
	}, wrapEqual(eq))
	if err != nil {
		return Signal[R]{}, err
	}
	return Signal[R]{d: d, id: id}, nil
}

// Lift3 registers a computed signal recomputed from three predecessors'
// current values whenever any of them changes.
func Lift3[A, B, C, R any](d *reactive.Domain, a signalSource[A], b signalSource[B], c signalSource[C], fn func(A, B, C) (R, error), eq func(old, new R) bool) (Signal[R], error) {
	id, err := d.NewSignal([]reactive.NodeID{a.ID(), b.ID(), c.ID()}, func() (any, error) {
		return fn(a.Value(), b.Value(), c.Value())
	}, wrapEqual(eq))
	if err != nil {
		return Signal[R]{}, err
	}
	return Signal[R]{d: d, id: id}, nil
}
