package reactive

import "time"

// runSequential is the deterministic reference engine (spec §4.5): it
// ticks every active node exactly once, in ascending level order and FIFO
// allocation order within a level. This is the oracle property P6 (the
// parallel engine) is checked against, so its ordering must never depend
// on goroutine scheduling or map iteration.
func (d *Domain) runSequential(t *Turn, m *membership) {
	levels, buckets := m.levelBuckets()
	for _, lvl := range levels {
		for _, id := range buckets[lvl] {
			d.tickOne(t, m, id)
		}
	}
}

// tickOne ticks a single node (if it is actually due to tick this turn)
// and settles its outcome onto its active successors, emitting a
// "node_tick" observability event and recording per-kind metrics.
func (d *Domain) tickOne(t *Turn, m *membership, id NodeID) {
	st := m.states[id]
	if !ready(st) {
		// A predecessor earlier in this level's bucket hasn't resolved yet.
		// Under the sequential engine this cannot happen: levels strictly
		// order predecessors before successors, so any predecessor of id is
		// in an earlier bucket and already resolved.
		return
	}

	if !st.isSeed && !st.anyPredChanged {
		d.settle(m, id, tickResult{status: Unchanged})
		return
	}

	start := time.Now()
	res := d.tickNode(t, id)
	d.settle(m, id, res)

	d.recordTick(t, id, res, time.Since(start))
}

// recordTick emits the per-node observability event and updates metrics,
// if configured. Kept separate from tickOne so the parallel engine can
// share the same reporting path.
func (d *Domain) recordTick(t *Turn, id NodeID, res tickResult, dur time.Duration) {
	d.structMu.RLock()
	rec, ok := d.record(id)
	d.structMu.RUnlock()

	kind := Kind("")
	level := 0
	if ok {
		kind = rec.impl.kind()
		level = rec.level
	}

	d.emitter.Emit(makeNodeTickEvent(d.ID, t.id, id, kind, level, res, dur))

	if d.metrics != nil {
		d.metrics.ObserveTick(kind, res.status, dur)
	}
}
