package reactive

import (
	"errors"
	"testing"
)

func TestEventSource_EmitBuffersUntilTurnThenClears(t *testing.T) {
	d, err := NewDomain()
	if err != nil {
		t.Fatalf("NewDomain: %v", err)
	}
	src := d.NewEventSource()

	if _, err := d.DoTransaction(func(tx *Turn) error {
		if err := tx.Emit(src, "a"); err != nil {
			return err
		}
		return tx.Emit(src, "b")
	}); err != nil {
		t.Fatalf("DoTransaction: %v", err)
	}
	if buf := d.Buffer(src); len(buf) != 2 || buf[0] != "a" || buf[1] != "b" {
		t.Errorf("Buffer = %v, want [a b] in emit order", buf)
	}

	if _, err := d.DoTransaction(func(tx *Turn) error { return nil }); err != nil {
		t.Fatalf("DoTransaction: %v", err)
	}
	if buf := d.Buffer(src); len(buf) != 0 {
		t.Errorf("Buffer after an unrelated turn = %v, want empty (per-turn only)", buf)
	}
}

func TestEventDerived_FailingRecomputeClearsBufferInsteadOfKeepingStale(t *testing.T) {
	d, err := NewDomain()
	if err != nil {
		t.Fatalf("NewDomain: %v", err)
	}
	src := d.NewEventSource()
	fail := false
	mapped, err := d.NewEventDerived([]NodeID{src}, func() ([]any, error) {
		if fail {
			return nil, errors.New("boom")
		}
		var out []any
		for _, ev := range d.Buffer(src) {
			out = append(out, ev.(int)*2)
		}
		return out, nil
	})
	if err != nil {
		t.Fatalf("NewEventDerived: %v", err)
	}

	if _, err := d.DoTransaction(func(tx *Turn) error {
		return tx.Emit(src, 1)
	}); err != nil {
		t.Fatalf("DoTransaction: %v", err)
	}
	if buf := d.Buffer(mapped); len(buf) != 1 || buf[0] != 2 {
		t.Fatalf("Buffer after first turn = %v, want [2]", buf)
	}

	fail = true
	turnErr, err := d.DoTransaction(func(tx *Turn) error {
		return tx.Emit(src, 2)
	})
	if err != nil {
		t.Fatalf("DoTransaction: %v", err)
	}
	if turnErr.Empty() {
		t.Fatal("turnErr.Empty() = true, want a recorded callback failure")
	}
	if buf := d.Buffer(mapped); len(buf) != 0 {
		t.Errorf("Buffer after failing turn = %v, want empty, not the prior turn's stale buffer", buf)
	}
}

func TestFoldNode_LeftFoldsBufferedEventsInOrder(t *testing.T) {
	d, err := NewDomain()
	if err != nil {
		t.Fatalf("NewDomain: %v", err)
	}
	src := d.NewEventSource()
	sum, err := d.NewFold(src, 0, func(state, ev any) (any, error) {
		return state.(int) + ev.(int), nil
	})
	if err != nil {
		t.Fatalf("NewFold: %v", err)
	}

	if _, err := d.DoTransaction(func(tx *Turn) error {
		tx.Emit(src, 1)
		tx.Emit(src, 2)
		return tx.Emit(src, 3)
	}); err != nil {
		t.Fatalf("DoTransaction: %v", err)
	}
	if got := d.Value(sum); got != 6 {
		t.Errorf("fold value = %v, want 6", got)
	}

	// A turn with nothing staged for src must not refold (stays unchanged).
	if _, err := d.DoTransaction(func(tx *Turn) error { return nil }); err != nil {
		t.Fatalf("DoTransaction: %v", err)
	}
	if got := d.Value(sum); got != 6 {
		t.Errorf("fold value after idle turn = %v, want unchanged 6", got)
	}
}

func TestObserverNode_EventsModeFiresOncePerBufferedItemAtCommit(t *testing.T) {
	d, err := NewDomain()
	if err != nil {
		t.Fatalf("NewDomain: %v", err)
	}
	src := d.NewEventSource()
	var seen []any
	if _, err := d.NewObserver(src, true, func(snapshot any) {
		seen = append(seen, snapshot)
	}); err != nil {
		t.Fatalf("NewObserver: %v", err)
	}

	if _, err := d.DoTransaction(func(tx *Turn) error {
		tx.Emit(src, "x")
		return tx.Emit(src, "y")
	}); err != nil {
		t.Fatalf("DoTransaction: %v", err)
	}
	if len(seen) != 2 || seen[0] != "x" || seen[1] != "y" {
		t.Errorf("observed items = %v, want [x y]", seen)
	}
}

func TestSwitchNode_ReattachesWhenSelectedBranchChanges(t *testing.T) {
	d, err := NewDomain()
	if err != nil {
		t.Fatalf("NewDomain: %v", err)
	}
	sel := d.NewVar("a", nil)
	branchA := d.NewVar(1, nil)
	branchB := d.NewVar(2, nil)

	resolveBranch := func() NodeID {
		switch d.Value(sel) {
		case "b":
			return branchB
		default:
			return branchA
		}
	}
	sw, err := d.NewSwitch(sel, branchA, resolveBranch, func() (any, error) {
		return d.Value(resolveBranch()), nil
	})
	if err != nil {
		t.Fatalf("NewSwitch: %v", err)
	}
	if got := d.Value(sw); got != 1 {
		t.Fatalf("initial switch value = %v, want 1 (tracking branchA)", got)
	}

	if _, err := d.DoTransaction(func(tx *Turn) error {
		return tx.Set(sel, "b")
	}); err != nil {
		t.Fatalf("DoTransaction: %v", err)
	}
	if got := d.Value(sw); got != 2 {
		t.Errorf("switch value after reattach = %v, want 2 (now tracking branchB)", got)
	}

	swRec, _ := d.record(sw)
	if len(swRec.preds) != 2 || swRec.preds[1] != branchB {
		t.Errorf("switch preds after reattach = %v, want [sel, branchB]", swRec.preds)
	}

	// Now that it tracks branchB, mutating branchA must not affect it.
	if _, err := d.DoTransaction(func(tx *Turn) error {
		return tx.Set(branchA, 99)
	}); err != nil {
		t.Fatalf("DoTransaction: %v", err)
	}
	if got := d.Value(sw); got != 2 {
		t.Errorf("switch value after mutating the abandoned branch = %v, want unchanged 2", got)
	}
}
