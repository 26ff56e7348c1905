package reactive

// attachLocked adds an edge pred -> succ for every pred in preds, then
// re-levels succ and everything reachable from it. Callers must hold
// structMu for writing. Validates every edge for cycles before mutating
// anything, so a rejected attach leaves the graph byte-for-byte unchanged
// (spec §7.1).
func (d *Domain) attachLocked(preds []NodeID, succ NodeID) error {
	succRec, ok := d.record(succ)
	if !ok {
		return ErrUnknownNode
	}
	predRecs := make([]*nodeRecord, len(preds))
	for i, p := range preds {
		pr, ok := d.record(p)
		if !ok {
			return ErrUnknownNode
		}
		predRecs[i] = pr
	}
	for _, p := range preds {
		if d.reaches(succ, p) {
			return ErrCycle
		}
	}
	for i, p := range preds {
		predRecs[i].succs = append(predRecs[i].succs, succ)
		succRec.preds = append(succRec.preds, p)
	}
	d.relevel(succ)
	return nil
}

// detachLocked removes the pred -> succ edge and re-levels. Callers must
// hold structMu for writing.
func (d *Domain) detachLocked(pred, succ NodeID) error {
	succRec, ok := d.record(succ)
	if !ok {
		return ErrUnknownNode
	}
	predRec, ok := d.record(pred)
	if !ok {
		return ErrUnknownNode
	}
	if !containsID(succRec.preds, pred) {
		return ErrNotAPredecessor
	}
	succRec.preds = removeID(succRec.preds, pred)
	predRec.succs = removeID(predRec.succs, succ)
	d.relevel(succ)
	return nil
}

// reaches reports whether from can reach to by following succs edges
// (forward reachability). Used to reject edges that would close a cycle.
func (d *Domain) reaches(from, to NodeID) bool {
	if from == to {
		return true
	}
	visited := map[NodeID]bool{from: true}
	stack := []NodeID{from}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		rec, ok := d.record(n)
		if !ok {
			continue
		}
		for _, s := range rec.succs {
			if s == to {
				return true
			}
			if !visited[s] {
				visited[s] = true
				stack = append(stack, s)
			}
		}
	}
	return false
}

// relevel recomputes start's level from its current predecessors and
// propagates the change forward to every descendant whose level depends
// on it, breadth-first. Each node's level is always recomputed from
// scratch (1 + max predecessor level, 0 with no predecessors), so this
// handles both increases (new edge) and decreases (detach) correctly.
func (d *Domain) relevel(start NodeID) {
	queue := []NodeID{start}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		rec, ok := d.record(id)
		if !ok {
			continue
		}
		newLevel := 0
		for _, p := range rec.preds {
			if pr, ok := d.record(p); ok && pr.level+1 > newLevel {
				newLevel = pr.level + 1
			}
		}
		if newLevel != rec.level {
			rec.level = newLevel
			queue = append(queue, rec.succs...)
		}
	}
}

// reattach replaces node's entire predecessor set in one structural step,
// used by the scheduler when a tick reports Status Reattach (spec §4.6's
// dynamic-dependency case). Takes structMu for writing; callers must not
// already hold it.
func (d *Domain) reattach(node NodeID, newPreds []NodeID) error {
	d.structMu.Lock()
	defer d.structMu.Unlock()
	rec, ok := d.record(node)
	if !ok {
		return ErrUnknownNode
	}
	old := append([]NodeID(nil), rec.preds...)
	for _, p := range old {
		if pr, ok := d.record(p); ok {
			pr.succs = removeID(pr.succs, node)
		}
	}
	rec.preds = nil
	return d.attachLocked(newPreds, node)
}

func containsID(list []NodeID, id NodeID) bool {
	for _, x := range list {
		if x == id {
			return true
		}
	}
	return false
}

func removeID(list []NodeID, id NodeID) []NodeID {
	out := list[:0]
	for _, x := range list {
		if x != id {
			out = append(out, x)
		}
	}
	return out
}
