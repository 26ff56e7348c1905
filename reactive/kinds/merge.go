package kinds

import "github.com/dshills/reactor-go/reactive"

// Merge registers a derived event stream whose per-turn buffer is the
// concatenation of every source's buffer, in source-argument order, then
// item order within each source. At least one source must actually have
// buffered an item for the merged node to count as Changed this turn.
func Merge[T any](d *reactive.Domain, sources ...eventSource[T]) (EventStream[T], error) {
	ids := make([]reactive.NodeID, len(sources))
	for i, s := range sources {
		ids[i] = s.ID()
	}
	id, err := d.NewEventDerived(ids, func() ([]any, error) {
		var out []any
		for _, s := range sources {
			for _, item := range s.Buffer() {
				out = append(out, item)
			}
		}
		return out, nil
	})
	if err != nil {
		return EventStream[T]{}, err
	}
	return EventStream[T]{d: d, id: id}, nil
}
