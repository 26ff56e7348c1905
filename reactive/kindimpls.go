package reactive

import "fmt"

// This file holds the tick() implementation backing each built-in node
// kind (spec §4.8). reactive/kinds wraps these behind typed handles
// (Var[T], Signal[T], EventStream[T], ...); nothing outside this package
// constructs one directly.

// inputSignal backs Var: an input node whose value only changes through
// a staged Set, applied at the start of the turn that includes it.
type inputSignal struct {
	eq Equal
}

func (n *inputSignal) kind() Kind { return KindVar }

func (n *inputSignal) tick(d *Domain, t *Turn, self NodeID) tickResult {
	rec, ok := d.record(self)
	if !ok {
		return tickResult{status: Unchanged}
	}
	old := rec.value
	newVal := rec.stagedValue
	rec.stagedValue = nil
	rec.hasStaged = false
	if n.eq(old, newVal) {
		return tickResult{status: Unchanged, value: old}
	}
	return tickResult{status: Changed, value: newVal}
}

// computedSignal backs Lift: a signal recomputed from predecessors by fn
// whenever scheduled.
type computedSignal struct {
	fn Recompute
	eq Equal
}

func (n *computedSignal) kind() Kind { return KindSignal }

func (n *computedSignal) tick(d *Domain, t *Turn, self NodeID) tickResult {
	rec, _ := d.record(self)
	var old any
	if rec != nil {
		old = rec.value
	}
	newVal, err := n.fn()
	if err != nil {
		return tickResult{status: Unchanged, err: err}
	}
	if rec != nil && n.eq(old, newVal) {
		return tickResult{status: Unchanged, value: old}
	}
	return tickResult{status: Changed, value: newVal}
}

// eventSource backs an input event stream: its per-turn buffer is
// whatever was staged via Emit before the turn began.
type eventSource struct{}

func (n *eventSource) kind() Kind { return KindEventSrc }

func (n *eventSource) tick(d *Domain, t *Turn, self NodeID) tickResult {
	rec, ok := d.record(self)
	if !ok {
		return tickResult{status: Unchanged}
	}
	evs := rec.stagedEvents
	rec.stagedEvents = nil
	rec.hasStaged = false
	if len(evs) == 0 {
		return tickResult{status: Unchanged}
	}
	return tickResult{status: Changed, events: evs}
}

// eventDerived backs Merge/Filter/Map: a derived event stream whose
// buffer is produced by fn from its predecessors' buffers.
type eventDerived struct {
	fn EventProduce
}

func (n *eventDerived) kind() Kind { return KindEventOp }

func (n *eventDerived) tick(d *Domain, t *Turn, self NodeID) tickResult {
	evs, err := n.fn()
	if err != nil {
		return tickResult{status: Unchanged, err: err}
	}
	if len(evs) == 0 {
		return tickResult{status: Unchanged}
	}
	return tickResult{status: Changed, events: evs}
}

// foldNode backs Fold: a signal whose state is left-folded, one step per
// buffered event, every turn its event-stream predecessor changes.
type foldNode struct {
	step FoldStep
}

func (n *foldNode) kind() Kind { return KindFold }

func (n *foldNode) tick(d *Domain, t *Turn, self NodeID) tickResult {
	rec, ok := d.record(self)
	if !ok || len(rec.preds) == 0 {
		return tickResult{status: Unchanged}
	}
	buf := d.Buffer(rec.preds[0])
	if len(buf) == 0 {
		return tickResult{status: Unchanged, value: rec.value}
	}
	state := rec.value
	for _, ev := range buf {
		next, err := n.step(state, ev)
		if err != nil {
			return tickResult{status: Unchanged, err: err}
		}
		state = next
	}
	return tickResult{status: Changed, value: state}
}

// observerNode backs Observe: a sink whose side effect is deferred to the
// turn's commit-phase queue rather than run inline (spec §4.7).
type observerNode struct {
	notify   ObserverNotify
	isEvents bool
}

func (n *observerNode) kind() Kind { return KindObserver }

func (n *observerNode) tick(d *Domain, t *Turn, self NodeID) tickResult {
	rec, ok := d.record(self)
	if !ok || len(rec.preds) == 0 {
		return tickResult{status: Unchanged}
	}
	subject := rec.preds[0]
	// A panicking notify becomes this observer's ObserverError instead of
	// aborting the rest of the commit phase.
	safeNotify := func(v any) (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("observer panicked: %v", r)
			}
		}()
		n.notify(v)
		return nil
	}
	if n.isEvents {
		buf := d.Buffer(subject)
		if len(buf) == 0 {
			return tickResult{status: Unchanged}
		}
		items := append([]any(nil), buf...)
		t.queueCommit(self, func() error {
			for _, it := range items {
				if err := safeNotify(it); err != nil {
					return err
				}
			}
			return nil
		})
		return tickResult{status: Unchanged}
	}
	val := d.Value(subject)
	t.queueCommit(self, func() error {
		return safeNotify(val)
	})
	return tickResult{status: Unchanged}
}

// switchNode backs the dynamic-switch scenario (spec §8): sel picks a
// branch key, resolve turns it into the branch's NodeID, combine computes
// this node's value from the currently selected branch.
type switchNode struct {
	resolve func() NodeID
	combine func() (any, error)
}

func (n *switchNode) kind() Kind { return KindSwitch }

func (n *switchNode) tick(d *Domain, t *Turn, self NodeID) tickResult {
	rec, ok := d.record(self)
	if !ok {
		return tickResult{status: Unchanged}
	}
	desired := n.resolve()
	newVal, err := n.combine()
	if err != nil {
		return tickResult{status: Unchanged, err: err}
	}

	var reattachTo []NodeID
	if len(rec.preds) < 2 || rec.preds[1] != desired {
		sel := desired // unreachable fallback; preds always has a selector once constructed
		if len(rec.preds) > 0 {
			sel = rec.preds[0]
		}
		reattachTo = []NodeID{sel, desired}
	}
	if reattachTo != nil {
		return tickResult{status: Reattach, value: newVal, reattachTo: reattachTo}
	}
	if !DefaultEqual(rec.value, newVal) {
		return tickResult{status: Changed, value: newVal}
	}
	return tickResult{status: Unchanged, value: rec.value}
}
