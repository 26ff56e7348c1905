package kinds

import "github.com/dshills/reactor-go/reactive"

// Fold registers a signal whose state starts at initial and is
// left-folded by step, once per item buffered on src, in buffer order,
// every turn src changes.
func Fold[T, S any](d *reactive.Domain, src eventSource[T], initial S, step func(state S, event T) (S, error)) (Signal[S], error) {
	id, err := d.NewFold(src.ID(), initial, func(state any, event any) (any, error) {
		s, _ := state.(S)
		e, _ := event.(T)
		return step(s, e)
	})
	if err != nil {
		return Signal[S]{}, err
	}
	return Signal[S]{d: d, id: id}, nil
}
