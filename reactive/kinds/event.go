package kinds

import "github.com/dshills/reactor-go/reactive"

// EventStream is a typed handle to any event-stream-shaped node (an input
// source, or a Merge/Filter/Map result): something with a per-turn buffer
// of items, read via Buffer. Only NewEventSource produces a handle whose
// buffer is fed externally, via Emit.
type EventStream[T any] struct {
	d  *reactive.Domain
	id reactive.NodeID
}

// ID returns the underlying node identity.
func (e EventStream[T]) ID() reactive.NodeID { return e.id }

// Buffer returns the stream's current-turn buffer, typed. Items that fail
// the type assertion (impossible for streams built entirely through this
// package) are skipped rather than panicking.
func (e EventStream[T]) Buffer() []T {
	raw := e.d.Buffer(e.id)
	if len(raw) == 0 {
		return nil
	}
	out := make([]T, 0, len(raw))
	for _, v := range raw {
		if t, ok := v.(T); ok {
			out = append(out, t)
		}
	}
	return out
}

// eventSource is satisfied by EventStream[T] and any future event-shaped
// handle, letting Merge/Filter/Map take either as a predecessor.
type eventSource[T any] interface {
	ID() reactive.NodeID
	Buffer() []T
}

// NewEventSource registers an input event stream: one whose per-turn
// buffer is populated externally via Turn.Emit.
func NewEventSource[T any](d *reactive.Domain) EventStream[T] {
	return EventStream[T]{d: d, id: d.NewEventSource()}
}

// Emit stages one event for the stream, applied when t's turn begins
// propagating.
func (e EventStream[T]) Emit(t *reactive.Turn, value T) error {
	return t.Emit(e.id, value)
}
