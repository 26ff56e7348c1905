package reactive

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/dshills/reactor-go/reactive/emit"
)

// TraceRecorder is an in-memory reactive/emit.Emitter that captures every
// turn_committed/node_tick event a Domain emits, for use as a test oracle:
// property P6 ("the parallel engine's observable results equal the
// sequential engine's, for any fixed input sequence") is checked by running
// the same transactions against two Domains — one sequential, one parallel
// — each wired to its own TraceRecorder, then comparing the two traces with
// Equivalent. There is no disk-backed persistence; a trace never outlives
// the process that built it.
type TraceRecorder struct {
	mu     sync.Mutex
	events []emit.Event
}

// NewTraceRecorder returns an empty recorder.
func NewTraceRecorder() *TraceRecorder {
	return &TraceRecorder{}
}

// Emit appends e to the trace.
func (r *TraceRecorder) Emit(e emit.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

// EmitBatch appends every event in es to the trace, in order.
func (r *TraceRecorder) EmitBatch(_ context.Context, es []emit.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, es...)
	return nil
}

// Flush is a no-op; TraceRecorder never buffers beyond the in-memory slice.
func (r *TraceRecorder) Flush(_ context.Context) error { return nil }

// Events returns a snapshot of every event recorded so far.
func (r *TraceRecorder) Events() []emit.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]emit.Event, len(r.events))
	copy(out, r.events)
	return out
}

// turnOutcome summarizes one turn's observable result: the resolved status
// of every node that ticked during it, keyed by NodeID string. Level and
// duration are intentionally excluded — they may legitimately differ
// between the sequential and parallel engines (and between two parallel
// runs) without violating P6, which is about observable *results*, not
// scheduling mechanics.
type turnOutcome map[string]string

// outcomes groups a trace's node_tick events by TurnID into one turnOutcome
// per turn, in turn order.
func outcomes(events []emit.Event) map[uint64]turnOutcome {
	out := make(map[uint64]turnOutcome)
	for _, e := range events {
		if e.Msg != "node_tick" {
			continue
		}
		status, _ := e.Meta["status"].(string)
		o, ok := out[e.TurnID]
		if !ok {
			o = make(turnOutcome)
			out[e.TurnID] = o
		}
		o[e.NodeID] = status
	}
	return out
}

// Equivalent reports whether r and other recorded the same per-turn, per-
// node resolution outcomes — the P6 check. A mismatch returns a descriptive
// error naming the first turn/node where the two traces diverge.
func (r *TraceRecorder) Equivalent(other *TraceRecorder) error {
	a := outcomes(r.Events())
	b := outcomes(other.Events())

	if len(a) != len(b) {
		return fmt.Errorf("reactive: trace turn counts differ: %d vs %d", len(a), len(b))
	}
	for turnID, oa := range a {
		ob, ok := b[turnID]
		if !ok {
			return fmt.Errorf("reactive: turn %d present in first trace, absent in second", turnID)
		}
		if len(oa) != len(ob) {
			return fmt.Errorf("reactive: turn %d: node count differs: %d vs %d", turnID, len(oa), len(ob))
		}
		for node, status := range oa {
			obStatus, ok := ob[node]
			if !ok {
				return fmt.Errorf("reactive: turn %d: node %s present in first trace, absent in second", turnID, node)
			}
			if status != obStatus {
				return fmt.Errorf("reactive: turn %d: node %s status differs: %s vs %s", turnID, node, status, obStatus)
			}
		}
	}
	return nil
}

// snapshotHash hashes a map of node values (e.g. a final-state snapshot
// taken via Domain.Value on every Var/Signal of interest) for a cheap
// equality check between two engine runs, without requiring every value
// type to implement comparable or Equal. Values that fail to marshal are
// hashed by their %v representation instead, so the hash is always
// computable.
func snapshotHash(values map[string]any) string {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	h := sha256.New()
	for _, k := range keys {
		h.Write([]byte(k))
		h.Write([]byte{0})
		v := values[k]
		b, err := json.Marshal(v)
		if err != nil {
			b = []byte(fmt.Sprintf("%v", v))
		}
		h.Write(b)
		h.Write([]byte{0})
	}
	return "sha256:" + hex.EncodeToString(h.Sum(nil))
}
