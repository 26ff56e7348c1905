package reactive

import (
	"fmt"
	"sort"
	"sync"
)

// nodeState is the turn-local bookkeeping for one active node (spec §5:
// "turn-local buffers... no cross-turn aliasing"). It never outlives the
// Turn that built it.
type nodeState struct {
	level          int
	pendingPreds   int32
	anyPredChanged bool
	isSeed         bool
	resolved       bool
	status         Status
}

// membership is the per-turn active set: every node reachable forward
// from the seed (staged-input) nodes, plus enough bookkeeping to decide,
// level by level or purely by pending-count, when each becomes ready.
type membership struct {
	states map[NodeID]*nodeState
	order  []NodeID // stable iteration order, by allocation index

	// mu guards every nodeState in states once propagation may tick more
	// than one node concurrently (parallel engine, either mode). The
	// sequential engine never contends on it.
	mu sync.Mutex
}

// buildMembership computes the set of nodes that might need to tick this
// turn: the forward closure of seeds. A node outside this set cannot
// possibly change (spec §4.4 "update minimality") and is never ticked.
func (d *Domain) buildMembership(seeds []NodeID) *membership {
	d.structMu.RLock()
	defer d.structMu.RUnlock()

	m := &membership{states: make(map[NodeID]*nodeState)}
	var mark func(id NodeID)
	mark = func(id NodeID) {
		if _, ok := m.states[id]; ok {
			return
		}
		rec, ok := d.record(id)
		if !ok {
			return
		}
		m.states[id] = &nodeState{level: rec.level}
		m.order = append(m.order, id)
		for _, s := range rec.succs {
			mark(s)
		}
	}
	for _, s := range seeds {
		mark(s)
	}
	for _, id := range seeds {
		if st, ok := m.states[id]; ok {
			st.isSeed = true
		}
	}
	for id, st := range m.states {
		rec, _ := d.record(id)
		var pending int32
		for _, p := range rec.preds {
			if _, active := m.states[p]; active {
				pending++
			}
		}
		st.pendingPreds = pending
	}
	sort.Slice(m.order, func(i, j int) bool { return m.order[i].idx < m.order[j].idx })
	return m
}

// levelBuckets groups the active set by level, ascending, each bucket in
// stable allocation order (spec §4.5's "ascending level, FIFO within
// level").
func (m *membership) levelBuckets() (levels []int, buckets map[int][]NodeID) {
	buckets = make(map[int][]NodeID)
	seen := make(map[int]bool)
	for _, id := range m.order {
		lvl := m.states[id].level
		buckets[lvl] = append(buckets[lvl], id)
		if !seen[lvl] {
			seen[lvl] = true
			levels = append(levels, lvl)
		}
	}
	sort.Ints(levels)
	return levels, buckets
}

// settle applies a resolved node's outcome to its active successors:
// decrements their pending-predecessor count and records whether this
// predecessor actually changed. A successor only ticks once its pending
// count reaches zero and at least one of its predecessors changed;
// otherwise it resolves to Unchanged without ever calling its nodeImpl
// (update minimality, spec §4.4).
func (d *Domain) settle(m *membership, id NodeID, res tickResult) {
	d.structMu.RLock()
	rec, ok := d.record(id)
	d.structMu.RUnlock()

	m.mu.Lock()
	defer m.mu.Unlock()

	st := m.states[id]
	st.resolved = true
	st.status = res.status
	// Reattach is treated as Changed for successor scheduling: a node
	// that restructures its own predecessors has, in every built-in kind,
	// also recomputed its value from the newly active branch.
	fireChanged := res.status == Changed || res.status == Reattach
	if !ok {
		return
	}
	for _, s := range rec.succs {
		sst, active := m.states[s]
		if !active {
			continue
		}
		if fireChanged {
			sst.anyPredChanged = true
		}
		sst.pendingPreds--
		if sst.pendingPreds < 0 {
			// A successor was settled more times than buildMembership counted
			// active predecessors for it: the scheduler ticked or settled some
			// node twice this turn, which breaks P1 (at-most-once tick; glitch
			// freedom depends on every node resolving exactly once). There is
			// no sound way to
			// keep propagating from here (spec §7.4).
			d.poison(&AssertionError{
				Domain: d.ID,
				Detail: fmt.Sprintf("node %s pending-predecessor count went negative settling predecessor %s", s, id),
			})
		}
	}
}

// ready reports whether node id's state has every active predecessor
// resolved. Callers racing with settle (the parallel engine) must hold
// m.mu around both the read of st and this check.
func ready(st *nodeState) bool {
	return !st.resolved && st.pendingPreds <= 0
}

// tickNode invokes id's nodeImpl.tick, handles a Reattach outcome by
// restructuring the graph, and records any callback failure onto the
// turn instead of propagating it as a Go error (spec §7.2: "the offending
// node keeps its prior value ... propagation continues").
func (d *Domain) tickNode(t *Turn, id NodeID) tickResult {
	d.structMu.RLock()
	rec, ok := d.record(id)
	d.structMu.RUnlock()
	if !ok {
		return tickResult{status: Unchanged}
	}
	res := rec.impl.tick(d, t, id)
	if res.err != nil {
		t.callbackErrs = append(t.callbackErrs, &CallbackError{Node: id, Kind: rec.impl.kind(), Cause: res.err})
		if d.metrics != nil {
			d.metrics.IncCallbackFailure(rec.impl.kind())
		}
		// An event-producing node (Merge/Filter/Map) that errors must not
		// keep last turn's buffer: spec §4.7 says a failed recompute yields
		// an empty buffer, same as any other Unchanged outcome.
		d.structMu.Lock()
		if rec2, ok := d.record(id); ok {
			rec2.buffer = nil
		}
		d.structMu.Unlock()
		return tickResult{status: Unchanged, err: res.err}
	}
	if res.status == Reattach {
		if err := d.reattach(id, res.reattachTo); err != nil {
			t.callbackErrs = append(t.callbackErrs, &CallbackError{Node: id, Kind: rec.impl.kind(), Cause: err})
			return tickResult{status: Unchanged, err: err}
		}
	}
	d.structMu.Lock()
	if rec2, ok := d.record(id); ok {
		if res.status == Reattach || res.status == Changed {
			rec2.value = res.value
			rec2.buffer = res.events
		} else {
			rec2.buffer = nil
		}
	}
	d.structMu.Unlock()
	return res
}
