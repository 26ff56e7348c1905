package reactive

import (
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/dshills/reactor-go/reactive/emit"
)

// nodeSlot is one arena entry. gen is bumped whenever the slot is reused,
// so a stale NodeID (captured before a node existed at this index, which
// cannot happen since we never recycle slots today, but the field is kept
// per §9's design note and to make a future Destroy safe) fails lookup
// instead of aliasing onto an unrelated node.
type nodeSlot struct {
	gen   uint32
	alive bool
	rec   *nodeRecord
}

// nodeRecord is the Node Graph entity from spec §3: identity, edges,
// per-node metadata. The value/buffer fields are turn-local data that
// happen to be cheapest to store alongside the structural record; they
// are only ever written by the single goroutine ticking this node during
// the current turn and are read by others strictly after the level
// barrier (parallel engine) or within the same goroutine (sequential
// engine), so no per-node lock is needed (spec §5).
type nodeRecord struct {
	id    NodeID
	impl  nodeImpl
	level int
	preds []NodeID
	succs []NodeID // weak back-references

	value  any   // current value, for signal-shaped nodes
	buffer []any // current turn's buffer, for event-shaped nodes

	// staged holds a pending external mutation (Set/Emit) applied at the
	// start of the next turn that includes it.
	stagedValue  any
	stagedEvents []any
	hasStaged    bool

	lastTurn uint64 // turn ID this node was last ticked in
}

// Domain is a process-level container owning one propagation engine and
// the nodes bound to it (spec §2). Nodes never cross Domain boundaries.
type Domain struct {
	ID string

	opts Options

	metrics *Metrics
	emitter emit.Emitter

	// structMu guards the node table and every node's preds/succs/level.
	// Held exclusively during attach/detach/re-leveling; held for read
	// during the scheduler's membership/reachability walk (spec §5).
	structMu sync.RWMutex
	slots    []nodeSlot

	// turnMu enforces "a single current turn at a time" (spec §4.3): two
	// transactions against the same domain never interleave their
	// propagation phases.
	turnMu  sync.Mutex
	turnSeq uint64

	poisoned    atomic.Bool
	poisonedErr atomic.Value // error

	asyncMu    sync.Mutex
	asyncQueue []*asyncTurn // FIFO of queued-but-not-yet-started async turns
}

// NewDomain creates a Domain configured by opts (defaults applied via
// options.go when unset).
func NewDomain(opts ...Option) (*Domain, error) {
	cfg := defaultEngineConfig()
	for _, o := range opts {
		if err := o(cfg); err != nil {
			return nil, err
		}
	}
	d := &Domain{
		ID:      uuid.NewString(),
		opts:    cfg.opts,
		emitter: cfg.opts.Emitter,
	}
	if cfg.opts.Metrics != nil {
		d.metrics = cfg.opts.Metrics
	}
	if d.emitter == nil {
		d.emitter = emit.NewNullEmitter()
	}
	return d, nil
}

func (d *Domain) checkAlive() error {
	if d.poisoned.Load() {
		if err, _ := d.poisonedErr.Load().(error); err != nil {
			return err
		}
		return ErrPoisoned
	}
	return nil
}

// poison puts the Domain into a terminal state that rejects every further
// operation (spec §7.4).
func (d *Domain) poison(err error) {
	d.poisoned.Store(true)
	d.poisonedErr.Store(err)
	d.emitter.Emit(emit.Event{DomainID: d.ID, Msg: "domain_poisoned", Meta: map[string]any{"error": err.Error()}})
}

// allocNode appends a new slot and assigns its NodeID. Structural lock
// must be held by the caller.
func (d *Domain) allocNode(rec *nodeRecord) NodeID {
	idx := uint32(len(d.slots))
	d.slots = append(d.slots, nodeSlot{gen: 0, alive: true, rec: rec})
	id := NodeID{idx: idx, gen: 0}
	rec.id = id
	return id
}

func (d *Domain) record(id NodeID) (*nodeRecord, bool) {
	if int(id.idx) >= len(d.slots) {
		return nil, false
	}
	s := d.slots[id.idx]
	if !s.alive || s.gen != id.gen {
		return nil, false
	}
	return s.rec, true
}

// --- Construction: one per Public Node Kind's storage shape (spec §4.8).
// reactive/kinds builds its typed Var[T]/Lift1[...]/etc. handles on top of
// these; a third-party node kind would call the same methods.

// NewVar registers an input node with the given initial value and
// equality comparator (nil falls back to the Domain's WithEquality option,
// then DefaultEqual).
func (d *Domain) NewVar(initial any, eq Equal) NodeID {
	d.structMu.Lock()
	defer d.structMu.Unlock()
	rec := &nodeRecord{impl: &inputSignal{eq: d.resolveEqual(eq)}, value: initial}
	return d.allocNode(rec)
}

// NewSignal registers a computed signal (Lift) over preds, recomputed by
// fn whenever any predecessor changes. fn also runs once here to give the
// signal its initial value; if that call fails the value stays nil until a
// later recompute succeeds.
func (d *Domain) NewSignal(preds []NodeID, fn Recompute, eq Equal) (NodeID, error) {
	d.structMu.Lock()
	rec := &nodeRecord{impl: &computedSignal{fn: fn, eq: d.resolveEqual(eq)}}
	id := d.allocNode(rec)
	err := d.attachLocked(preds, id)
	d.structMu.Unlock()
	if err != nil {
		return NodeID{}, err
	}
	// fn reads predecessors through Value, which takes structMu, so the
	// initial evaluation runs with the lock released.
	if v, err := fn(); err == nil {
		d.structMu.Lock()
		rec.value = v
		d.structMu.Unlock()
	}
	return id, nil
}

// NewEventSource registers an input event stream.
func (d *Domain) NewEventSource() NodeID {
	d.structMu.Lock()
	defer d.structMu.Unlock()
	rec := &nodeRecord{impl: &eventSource{}}
	return d.allocNode(rec)
}

// NewEventDerived registers a derived event stream (Merge/Filter/Map) over
// preds, whose per-turn buffer is produced by fn.
func (d *Domain) NewEventDerived(preds []NodeID, fn EventProduce) (NodeID, error) {
	d.structMu.Lock()
	defer d.structMu.Unlock()
	rec := &nodeRecord{impl: &eventDerived{fn: fn}}
	id := d.allocNode(rec)
	if err := d.attachLocked(preds, id); err != nil {
		return NodeID{}, err
	}
	return id, nil
}

// NewFold registers a signal driven by the event stream src: state starts
// at initial and is left-folded by step once per buffered event, in
// buffer order, every turn src changes.
func (d *Domain) NewFold(src NodeID, initial any, step FoldStep) (NodeID, error) {
	d.structMu.Lock()
	defer d.structMu.Unlock()
	rec := &nodeRecord{impl: &foldNode{step: step}, value: initial}
	id := d.allocNode(rec)
	if err := d.attachLocked([]NodeID{src}, id); err != nil {
		return NodeID{}, err
	}
	return id, nil
}

// NewObserver registers a sink node whose notify callback is deferred to
// the commit-phase queue (spec §4.7), invoked in registration order
// relative to every other observer committed in the same turn.
func (d *Domain) NewObserver(subject NodeID, isEvents bool, notify ObserverNotify) (NodeID, error) {
	d.structMu.Lock()
	defer d.structMu.Unlock()
	rec := &nodeRecord{impl: &observerNode{notify: notify, isEvents: isEvents}}
	id := d.allocNode(rec)
	if err := d.attachLocked([]NodeID{subject}, id); err != nil {
		return NodeID{}, err
	}
	return id, nil
}

// NewSwitch registers a dynamically-reattaching signal (spec's "dynamic
// switch" scenario, §8): resolve maps sel's current value to the NodeID of
// the branch to track; combine computes the node's value from sel's and the
// active branch's current values. combine also runs once here to give the
// node its initial value (left nil if that call fails).
func (d *Domain) NewSwitch(sel NodeID, initialBranch NodeID, resolve func() NodeID, combine func() (any, error)) (NodeID, error) {
	d.structMu.Lock()
	rec := &nodeRecord{impl: &switchNode{resolve: resolve, combine: combine}}
	id := d.allocNode(rec)
	err := d.attachLocked([]NodeID{sel, initialBranch}, id)
	d.structMu.Unlock()
	if err != nil {
		return NodeID{}, err
	}
	if v, err := combine(); err == nil {
		d.structMu.Lock()
		rec.value = v
		d.structMu.Unlock()
	}
	return id, nil
}

// Value returns a signal-shaped node's current committed value.
func (d *Domain) Value(id NodeID) any {
	d.structMu.RLock()
	defer d.structMu.RUnlock()
	rec, ok := d.record(id)
	if !ok {
		return nil
	}
	return rec.value
}

// Buffer returns the items an event-shaped node produced in the most
// recent turn. The buffer is not emptied at commit: it stays readable
// after that turn commits and is cleared when the next turn begins, so a
// node that produced nothing in the latest turn reads as empty.
func (d *Domain) Buffer(id NodeID) []any {
	d.structMu.RLock()
	defer d.structMu.RUnlock()
	rec, ok := d.record(id)
	if !ok {
		return nil
	}
	return rec.buffer
}
