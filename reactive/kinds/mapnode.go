package kinds

import "github.com/dshills/reactor-go/reactive"

// Map registers a derived event stream whose per-turn buffer holds fn
// applied to each of src's items, in src's buffer order. A single failed
// call fails the whole node's tick for this turn (spec §7.2: the node's
// buffer for that turn is empty and the error is aggregated onto the
// turn), rather than silently dropping the offending item.
func Map[A, B any](d *reactive.Domain, src eventSource[A], fn func(A) (B, error)) (EventStream[B], error) {
	id, err := d.NewEventDerived([]reactive.NodeID{src.ID()}, func() ([]any, error) {
		items := src.Buffer()
		out := make([]any, 0, len(items))
		for _, item := range items {
			mapped, err := fn(item)
			if err != nil {
				return nil, err
			}
			out = append(out, mapped)
		}
		return out, nil
	})
	if err != nil {
		return EventStream[B]{}, err
	}
	return EventStream[B]{d: d, id: id}, nil
}
