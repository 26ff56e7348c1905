package reactive

import (
	"errors"
	"fmt"
)

// Structural errors (spec §7.1): they fail the mutation that caused them
// and leave the graph unchanged.
var (
	// ErrCycle is returned when attaching an edge would create a cycle in
	// the predecessor relation.
	ErrCycle = errors.New("reactive: edge would create a cycle")

	// ErrNotAPredecessor is returned by detachLocked when the given node is
	// not currently a predecessor of the given successor.
	ErrNotAPredecessor = errors.New("reactive: not a predecessor of successor")

	// ErrCrossDomain names the error for attaching nodes that belong to
	// different Domains. No Domain method returns it: a NodeID carries no
	// Domain identity, so a foreign ID is not detected (see NodeID).
	ErrCrossDomain = errors.New("reactive: nodes belong to different domains")

	// ErrUnknownNode is returned when a NodeID does not resolve to a live
	// node in the Domain (e.g. stale generation).
	ErrUnknownNode = errors.New("reactive: unknown node")

	// ErrPoisoned is returned by every Domain operation once an
	// engine-internal assertion has failed (spec §7.4). The domain
	// rejects all further operations.
	ErrPoisoned = errors.New("reactive: domain is poisoned")

	// ErrNotInTransaction names the error for Set/Emit outside an active
	// transaction body. No Turn method returns it: a Turn used after its
	// body has returned still stages the mutation, and the Domain's next
	// turn applies it.
	ErrNotInTransaction = errors.New("reactive: no active transaction")
)

// CallbackError wraps a node's failed tick: a user recompute, fold step,
// event-produce or switch-combine function's error, or a failed Reattach
// restructuring (spec §7.2). Observer failures are reported as
// ObserverError instead. The offending node keeps its prior value; the
// changed-flag is cleared; propagation continues for unrelated branches.
type CallbackError struct {
	Node  NodeID
	Kind  Kind
	Cause error
}

func (e *CallbackError) Error() string {
	return fmt.Sprintf("reactive: node %s (%s) callback failed: %v", e.Node, e.Kind, e.Cause)
}

func (e *CallbackError) Unwrap() error { return e.Cause }

// ObserverError wraps a commit-phase failure: an observer notify callback
// that panicked, or a continuation (Turn.Continue) whose transaction
// returned an error. Observer failures are isolated: later observers in
// the same turn still run.
type ObserverError struct {
	Node  NodeID
	Cause error
}

func (e *ObserverError) Error() string {
	return fmt.Sprintf("reactive: observer %s failed: %v", e.Node, e.Cause)
}

func (e *ObserverError) Unwrap() error { return e.Cause }

// TurnError aggregates every CallbackError and ObserverError recorded
// during one turn's propagation (spec §7: "the turn surfaces an
// aggregated failure report to its invoker"). A non-empty TurnError is
// returned alongside a (possibly partially updated) commit — propagation
// is never rolled back; only the failing nodes keep their prior value.
type TurnError struct {
	TurnID     uint64
	Callbacks  []*CallbackError
	Observers  []*ObserverError
}

func (e *TurnError) Error() string {
	return fmt.Sprintf("reactive: turn %d completed with %d callback failure(s) and %d observer failure(s)",
		e.TurnID, len(e.Callbacks), len(e.Observers))
}

// Empty reports whether no failures were recorded.
func (e *TurnError) Empty() bool {
	return e == nil || (len(e.Callbacks) == 0 && len(e.Observers) == 0)
}

// AssertionError represents an engine-internal invariant violation (spec
// §7.4), e.g. a negative pending-predecessor count. It always poisons the
// Domain that raised it.
type AssertionError struct {
	Domain string
	Detail string
}

func (e *AssertionError) Error() string {
	return fmt.Sprintf("reactive: internal assertion failed in domain %s: %s", e.Domain, e.Detail)
}
