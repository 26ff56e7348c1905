// Package reactive implements the propagation engine of a reactive
// dataflow runtime: a DAG of signals and event streams that is
// re-evaluated, exactly once per changed node per logical update cycle,
// whenever an input mutates.
//
// The package exposes a small, low-level contract (Domain, NodeID, the
// constructors below) on which higher-level node kinds are built. The
// built-in algebra (Var, Lift, Merge, Filter, Map, Fold, Observe) lives in
// the sibling reactive/kinds package and uses only this exported surface —
// exactly the extension point a third-party node kind would use.
package reactive

import "fmt"

// NodeID identifies a node within a single Domain. It carries no Domain
// identity: an ID taken from another Domain is resolved by index against
// this Domain's own nodes, and no constructor detects or rejects it
// (ErrCrossDomain is declared, but no path returns it).
type NodeID struct {
	idx uint32
	gen uint32
}

// String renders a NodeID for logging and trace output.
func (id NodeID) String() string {
	return fmt.Sprintf("n%d.%d", id.idx, id.gen)
}

// Kind tags a node's built-in or user-defined variant for diagnostics and
// trace output. It carries no behavior; behavior lives entirely in the
// tick function supplied at construction.
type Kind string

// Kinds shipped by reactive/kinds. User-defined kinds may use any string.
const (
	KindVar      Kind = "var"
	KindSignal   Kind = "signal"
	KindEventSrc Kind = "event_source"
	KindEventOp  Kind = "event_derived"
	KindFold     Kind = "fold"
	KindObserver Kind = "observer"
	KindSwitch   Kind = "switch"
)

// Equal compares a node's previous and newly recomputed value to decide
// whether the node counts as "changed" for this turn (spec §4.2). The
// default, DefaultEqual, is structural equality.
type Equal func(old, new any) bool

// Recompute produces a signal node's new value from its predecessors.
// Implementations read predecessor values through closures captured at
// construction time (e.g. a Signal[T] handle's Value method) rather than
// through the core, which only tracks graph structure.
type Recompute func() (any, error)

// EventProduce produces a derived event stream's per-turn buffer from its
// predecessors' buffers, which the function reads itself (Merge, for
// example, reads them in source-argument order).
type EventProduce func() ([]any, error)

// FoldStep left-folds one event into a Fold node's running state.
type FoldStep func(state any, event any) (any, error)

// ObserverNotify is invoked at commit, once per observed change, in
// observer-registration order (P5). snapshot is the observed node's
// post-tick value (signals) or its per-turn buffer, item by item (event
// streams).
type ObserverNotify func(snapshot any)

// nodeImpl is the internal, type-erased tick contract every node kind
// implements. It is intentionally unexported: external packages build
// nodes through the Domain constructors below, never by implementing this
// interface directly, which keeps the capability set closed and small per
// §9's "tagged variants over a small capability set" design note.
type nodeImpl interface {
	kind() Kind
	// tick evaluates the node for the current turn. self is the node's
	// own identity, needed to read/clear its staged input and its own
	// prior value/buffer.
	tick(d *Domain, t *Turn, self NodeID) tickResult
}

// tickResult is what a nodeImpl.tick call reports back to the scheduler.
type tickResult struct {
	status Status
	value  any   // valid when the node is a signal
	events []any // valid when the node is an event stream
	err    error // user-callback failure; value/events are stale (unused)

	// reattachTo is non-nil only when status == Reattach: the node's
	// complete new predecessor list, replacing the old one.
	reattachTo []NodeID
}

// Status is the public spelling of a node's tick outcome, exposed for
// trace output, metrics labels and tests.
type Status int

const (
	// Unchanged means the node recomputed (or had nothing to recompute)
	// and its externally observable value/buffer did not change.
	Unchanged Status = iota
	// Changed means the node's value changed, or its event buffer holds
	// at least one item this turn.
	Changed
	// Reattach means the node altered its own predecessor set mid-tick
	// (dynamic dependencies). The scheduler detaches/attaches edges and
	// re-levels before considering the node's successors.
	Reattach
)

func (s Status) String() string {
	switch s {
	case Changed:
		return "changed"
	case Reattach:
		return "reattach"
	default:
		return "unchanged"
	}
}
