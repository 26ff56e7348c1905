package reactive

import (
	"fmt"
	"sort"
	"time"

	"github.com/dshills/reactor-go/reactive/emit"
)

// Turn is one Transaction's handle (spec §4.3/§5): the only way user code
// stages input mutations and reads back aggregated failures. A Turn never
// outlives the transaction that created it.
type Turn struct {
	id     uint64
	domain *Domain

	commitQueue  []commitAction
	callbackErrs []*CallbackError
	observerErrs []*ObserverError
}

// ID returns the turn's sequence number, unique and monotonically
// increasing within its Domain.
func (t *Turn) ID() uint64 { return t.id }

// Set stages a new value for a Var node, applied when propagation begins.
// Calling Set twice on the same node within one transaction body keeps
// only the last value (spec §4.3: staged mutations are a last-write map,
// not a log).
func (t *Turn) Set(id NodeID, value any) error {
	d := t.domain
	d.structMu.RLock()
	rec, ok := d.record(id)
	d.structMu.RUnlock()
	if !ok {
		return ErrUnknownNode
	}
	if _, isVar := rec.impl.(*inputSignal); !isVar {
		return fmt.Errorf("reactive: node %s is not a Var", id)
	}
	rec.stagedValue = value
	rec.hasStaged = true
	return nil
}

// Emit stages one event for an input event-stream node. Multiple Emit
// calls within one transaction body accumulate in call order into that
// node's buffer for the turn.
func (t *Turn) Emit(id NodeID, value any) error {
	d := t.domain
	d.structMu.RLock()
	rec, ok := d.record(id)
	d.structMu.RUnlock()
	if !ok {
		return ErrUnknownNode
	}
	if _, isSrc := rec.impl.(*eventSource); !isSrc {
		return fmt.Errorf("reactive: node %s is not an event source", id)
	}
	rec.stagedEvents = append(rec.stagedEvents, value)
	rec.hasStaged = true
	return nil
}

// Continue queues a follow-up transaction to run immediately after the
// current turn commits, before Wait/DoTransaction returns to its caller.
// Continuations share the commit-phase queue with observer notifications;
// they run ahead of this turn's observers, in the order Continue was
// called.
func (t *Turn) Continue(body func(t *Turn) error) {
	t.queueCommit(NodeID{}, func() error {
		_, err := t.domain.runTurnLocked(body)
		return err
	})
}

func (t *Turn) queueCommit(node NodeID, run func() error) {
	t.commitQueue = append(t.commitQueue, commitAction{node: node, run: run})
}

// TxMode names the two ways a transaction body can be scheduled relative
// to other callers (spec §4.3). No Domain method takes a TxMode: Sync is
// DoTransaction and Async is DoTransactionAsync.
type TxMode int

const (
	// Sync runs the transaction body and its full propagation before
	// returning, blocking the caller.
	Sync TxMode = iota
	// Async stages the body to run on the Domain's turn sequence without
	// blocking the caller; see DoTransactionAsync.
	Async
)

// TurnHandle is returned by an asynchronous transaction; Wait blocks
// until that turn (and any turn it was merged into, under
// MergeAdjacent) has committed.
type TurnHandle struct {
	done    chan struct{}
	turnErr *TurnError
	err     error
}

// Wait blocks until the turn commits, returning its aggregated callback/
// observer failures (if any) and any error from the transaction body
// itself or from Domain-level rejection (e.g. ErrPoisoned).
func (h *TurnHandle) Wait() (*TurnError, error) {
	<-h.done
	return h.turnErr, h.err
}

// asyncTurn batches one or more transaction bodies queued while the
// Domain's turnMu was held by another turn. Under MergePolicy
// MergeAdjacent, bodies queued back-to-back while busy are coalesced into
// a single commit (spec §9 Open Question decision); under MergeNone each
// asyncTurn holds exactly one body.
type asyncTurn struct {
	bodies  []func(t *Turn) error
	handle  *TurnHandle
	started bool
}

// DoTransaction runs body synchronously: stage mutations, propagate to
// quiescence, run the commit-phase queue, and return any aggregated
// failures. Only one transaction is ever propagating on a Domain at a
// time (spec §4.3).
func (d *Domain) DoTransaction(body func(t *Turn) error) (*TurnError, error) {
	if err := d.checkAlive(); err != nil {
		return nil, err
	}
	d.turnMu.Lock()
	defer d.turnMu.Unlock()
	return d.runTurnLocked(body)
}

// DoTransactionAsync stages body to run without blocking the caller. If
// MergePolicy is MergeAdjacent and a not-yet-started async turn is
// already queued, body is appended to it and shares its eventual commit;
// otherwise a new turn is queued and its propagation starts as soon as
// the Domain's turn sequence reaches it.
func (d *Domain) DoTransactionAsync(body func(t *Turn) error) *TurnHandle {
	if err := d.checkAlive(); err != nil {
		h := &TurnHandle{done: make(chan struct{}), err: err}
		close(h.done)
		return h
	}
	d.asyncMu.Lock()
	var at *asyncTurn
	if d.opts.MergePolicy == MergeAdjacent && len(d.asyncQueue) > 0 {
		last := d.asyncQueue[len(d.asyncQueue)-1]
		if !last.started {
			at = last
		}
	}
	if at == nil {
		at = &asyncTurn{handle: &TurnHandle{done: make(chan struct{})}}
		d.asyncQueue = append(d.asyncQueue, at)
		go d.runAsync()
	}
	at.bodies = append(at.bodies, body)
	h := at.handle
	d.asyncMu.Unlock()
	return h
}

func (d *Domain) runAsync() {
	d.turnMu.Lock()
	d.asyncMu.Lock()
	// Every queued asyncTurn has exactly one runAsync goroutine, but turnMu
	// may be handed to them in any order; whichever goroutine wins runs the
	// oldest queued turn, so async turns commit in submission order.
	at := d.asyncQueue[0]
	d.asyncQueue = d.asyncQueue[1:]
	at.started = true
	bodies := at.bodies
	d.asyncMu.Unlock()

	turnErr, err := d.runTurnLocked(func(t *Turn) error {
		for _, b := range bodies {
			if e := b(t); e != nil {
				return e
			}
		}
		return nil
	})
	d.turnMu.Unlock()

	at.handle.turnErr = turnErr
	at.handle.err = err
	close(at.handle.done)
}

// runTurnLocked executes one turn's full lifecycle. Callers must hold
// turnMu.
func (d *Domain) runTurnLocked(body func(t *Turn) error) (*TurnError, error) {
	d.turnSeq++
	t := &Turn{id: d.turnSeq, domain: d}
	start := time.Now()

	// Event buffers last until the next turn begins: drop them here so no
	// node carries a previous turn's items into this one.
	d.structMu.Lock()
	for i := range d.slots {
		if d.slots[i].alive {
			d.slots[i].rec.buffer = nil
		}
	}
	d.structMu.Unlock()

	if err := body(t); err != nil {
		d.clearStaged()
		return nil, err
	}

	seeds := d.collectStagedSeeds()
	if len(seeds) > 0 {
		m := d.buildMembership(seeds)
		if d.opts.Engine == EngineParallel {
			d.runParallel(t, m)
		} else {
			d.runSequential(t, m)
		}
	}

	// Observer notifications run in registration (allocation) order rather
	// than the order the engine ticked them; continuations carry the zero
	// NodeID, so the stable sort keeps them first, in call order.
	sort.SliceStable(t.commitQueue, func(i, j int) bool {
		return t.commitQueue[i].node.idx < t.commitQueue[j].node.idx
	})
	for _, action := range t.commitQueue {
		if err := action.run(); err != nil {
			t.observerErrs = append(t.observerErrs, &ObserverError{Node: action.node, Cause: err})
			if d.metrics != nil {
				d.metrics.IncObserverFailure()
			}
		}
	}

	d.emitter.Emit(makeTurnEvent(d.ID, t))
	if d.metrics != nil {
		d.metrics.ObserveTurn(time.Since(start))
	}

	if len(t.callbackErrs) == 0 && len(t.observerErrs) == 0 {
		return nil, nil
	}
	return &TurnError{TurnID: t.id, Callbacks: t.callbackErrs, Observers: t.observerErrs}, nil
}

// makeTurnEvent builds the "turn_committed" observability event emitted
// once a turn's commit-phase queue has drained.
func makeTurnEvent(domainID string, t *Turn) emit.Event {
	return emit.Event{
		DomainID: domainID,
		TurnID:   t.id,
		Msg:      "turn_committed",
		Meta: map[string]interface{}{
			"callback_failures": len(t.callbackErrs),
			"observer_failures": len(t.observerErrs),
		},
	}
}

// makeNodeTickEvent builds the "node_tick" observability event emitted
// once per node that actually ran its nodeImpl in a turn. A node the
// scheduler resolves to Unchanged without ticking (update minimality, spec
// §4.4) gets no event.
func makeNodeTickEvent(domainID string, turnID uint64, id NodeID, kind Kind, level int, res tickResult, dur time.Duration) emit.Event {
	meta := map[string]interface{}{
		"kind":        string(kind),
		"level":       level,
		"order_key":   id.String(),
		"status":      res.status.String(),
		"duration_ms": dur.Milliseconds(),
	}
	if res.err != nil {
		meta["error"] = res.err.Error()
	}
	return emit.Event{
		DomainID: domainID,
		TurnID:   turnID,
		NodeID:   id.String(),
		Msg:      "node_tick",
		Meta:     meta,
	}
}

// collectStagedSeeds returns every node carrying a staged mutation,
// clearing nothing (that happens inside each node's own tick).
func (d *Domain) collectStagedSeeds() []NodeID {
	d.structMu.RLock()
	defer d.structMu.RUnlock()
	var seeds []NodeID
	for i := range d.slots {
		s := &d.slots[i]
		if s.alive && s.rec.hasStaged {
			seeds = append(seeds, s.rec.id)
		}
	}
	return seeds
}

// clearStaged discards every staged mutation after a transaction body
// returns an error, so a later turn never applies them.
func (d *Domain) clearStaged() {
	d.structMu.Lock()
	defer d.structMu.Unlock()
	for i := range d.slots {
		if d.slots[i].alive {
			rec := d.slots[i].rec
			rec.stagedValue = nil
			rec.stagedEvents = nil
			rec.hasStaged = false
		}
	}
}
