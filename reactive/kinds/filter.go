package kinds

import "github.com/dshills/reactor-go/reactive"

// Filter registers a derived event stream whose per-turn buffer holds
// only src's items for which keep returns true, in src's buffer order.
func Filter[T any](d *reactive.Domain, src eventSource[T], keep func(T) bool) (EventStream[T], error) {
	id, err := d.NewEventDerived([]reactive.NodeID{src.ID()}, func() ([]any, error) {
		var out []any
		for _, item := range src.Buffer() {
			if keep(item) {
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
