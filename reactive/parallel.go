package reactive

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

// runParallel ticks every active node using up to Options.WorkerCount
// goroutines (spec §4.6). Two scheduling strategies are supported:
//
//   - Strict level barrier (default): every node at level L completes
//     before any node at level L+1 starts. Glitch freedom follows directly
//     from the level invariant (a successor's level always exceeds every
//     predecessor's), so no node observes a partially-updated level.
//
//   - RelaxedBarrier: a node starts as soon as its own active
//     predecessors have all resolved, without waiting for same-level
//     siblings. This is still glitch-free, because "ready" is defined
//     purely by pendingPreds reaching zero — a node never starts before
//     every predecessor whose change could affect it has settled. The
//     level barrier is a conservative convenience on top of that
//     invariant, not a correctness requirement; relaxing it only changes
//     how much same-level concurrency the engine exploits.
func (d *Domain) runParallel(t *Turn, m *membership) {
	if d.opts.RelaxedBarrier {
		d.runParallelRelaxed(t, m)
		return
	}
	d.runParallelBarriered(t, m)
}

// runParallelBarriered ticks each level's ready nodes concurrently, then
// waits for the whole level to finish before advancing.
func (d *Domain) runParallelBarriered(t *Turn, m *membership) {
	levels, buckets := m.levelBuckets()
	var inflight int32

	for _, lvl := range levels {
		nodes := buckets[lvl]
		sem := d.levelSemaphore(len(nodes))
		g, ctx := errgroup.WithContext(context.Background())

		for _, id := range nodes {
			id := id
			g.Go(func() error {
				if err := sem.Acquire(ctx, 1); err != nil {
					return err
				}
				defer sem.Release(1)

				n := atomic.AddInt32(&inflight, 1)
				if d.metrics != nil {
					d.metrics.SetInflight(int(n))
				}
				d.tickOneConcurrent(t, m, id)
				atomic.AddInt32(&inflight, -1)
				return nil
			})
		}
		// errgroup only surfaces semaphore-acquire failures (context
		// cancellation never happens here; no per-node error is returned
		// through this path since callback failures are recorded onto t
		// directly), so the error is always nil in practice.
		_ = g.Wait()
	}
	if d.metrics != nil {
		d.metrics.SetInflight(0)
	}
}

// runParallelRelaxed ticks every active node as soon as its own
// predecessors have resolved, without waiting for same-level siblings.
// A single pass walks the active set repeatedly (allocation order, for a
// stable dispatch order across runs); a node already resolved or not yet
// ready is skipped until a settle() call elsewhere clears it.
func (d *Domain) runParallelRelaxed(t *Turn, m *membership) {
	var inflight int32
	sem := d.levelSemaphore(len(m.order))

	var wg sync.WaitGroup
	remaining := len(m.order)

	dispatch := func(id NodeID) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = sem.Acquire(context.Background(), 1)
			defer sem.Release(1)

			n := atomic.AddInt32(&inflight, 1)
			if d.metrics != nil {
				d.metrics.SetInflight(int(n))
			}
			d.tickOneRelaxed(t, m, id)
			atomic.AddInt32(&inflight, -1)
		}()
	}

	// A node is dispatched once, when it first becomes ready; settle()
	// (which locks m.mu internally) decrements its successors'
	// pendingPreds, which may make them ready in turn. We repeatedly scan
	// for newly-ready, not-yet-dispatched nodes until every active node
	// has been dispatched.
	dispatched := make(map[NodeID]bool, len(m.order))
	for remaining > 0 {
		m.mu.Lock()
		var toDispatch []NodeID
		for _, id := range m.order {
			if dispatched[id] {
				continue
			}
			st := m.states[id]
			if ready(st) {
				dispatched[id] = true
				toDispatch = append(toDispatch, id)
			}
		}
		m.mu.Unlock()

		if len(toDispatch) == 0 {
			// Nothing newly ready yet; the goroutines already running will
			// eventually settle their successors. Yield briefly rather than
			// busy-spin.
			time.Sleep(time.Microsecond)
			continue
		}
		remaining -= len(toDispatch)
		for _, id := range toDispatch {
			dispatch(id)
		}
	}
	wg.Wait()
	if d.metrics != nil {
		d.metrics.SetInflight(0)
	}
}

// tickOneConcurrent is tickOne's counterpart for the barriered parallel
// engine: every goroutine ticking at the current level owns a distinct
// node, and every predecessor of that node belongs to a strictly earlier
// level already drained by a prior errgroup.Wait(), so isSeed and
// anyPredChanged are read safely without locking. settle still locks
// m.mu internally, since two same-level siblings may share a successor.
func (d *Domain) tickOneConcurrent(t *Turn, m *membership, id NodeID) {
	st := m.states[id]
	if !st.isSeed && !st.anyPredChanged {
		d.settle(m, id, tickResult{status: Unchanged})
		return
	}
	start := time.Now()
	res := d.tickNode(t, id)
	d.settle(m, id, res)
	d.recordTick(t, id, res, time.Since(start))
}

// tickOneRelaxed is tickOneConcurrent's counterpart for RelaxedBarrier
// mode, where a predecessor in an earlier level may still be settling a
// sibling concurrently with this node's dispatch. The tick itself (which
// reads only id's own predecessor values, already resolved by the time
// id was dispatched) runs lock-free; settle locks m.mu internally, and
// the read of isSeed/anyPredChanged below is taken under the same lock
// to avoid racing with a concurrent settle of one of id's predecessors.
func (d *Domain) tickOneRelaxed(t *Turn, m *membership, id NodeID) {
	m.mu.Lock()
	st := m.states[id]
	seed, anyChanged := st.isSeed, st.anyPredChanged
	m.mu.Unlock()

	if !seed && !anyChanged {
		d.settle(m, id, tickResult{status: Unchanged})
		return
	}

	start := time.Now()
	res := d.tickNode(t, id)
	d.settle(m, id, res)
	d.recordTick(t, id, res, time.Since(start))
}

// levelSemaphore bounds per-level (or, under RelaxedBarrier, whole-turn)
// concurrency to Options.WorkerCount. n <= 0 means unbounded within the
// batch being dispatched.
func (d *Domain) levelSemaphore(batchSize int) *semaphore.Weighted {
	limit := d.opts.WorkerCount
	if limit <= 0 || limit > batchSize {
		limit = batchSize
	}
	if limit <= 0 {
		limit = 1
	}
	return semaphore.NewWeighted(int64(limit))
}
