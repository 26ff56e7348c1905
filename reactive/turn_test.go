package reactive

import (
	"testing"
)

func TestTurn_SetRejectsNonVarNode(t *testing.T) {
	d, err := NewDomain()
	if err != nil {
		t.Fatalf("NewDomain: %v", err)
	}
	a := d.NewVar(0, nil)
	signal, err := d.NewSignal([]NodeID{a}, func() (any, error) { return 0, nil }, nil)
	if err != nil {
		t.Fatalf("NewSignal: %v", err)
	}

	_, err = d.DoTransaction(func(tx *Turn) error {
		return tx.Set(signal, 1)
	})
	if err == nil {
		t.Fatal("Set on a non-Var node succeeded, want an error")
	}
}

func TestTurn_EmitRejectsNonEventSource(t *testing.T) {
	d, err := NewDomain()
	if err != nil {
		t.Fatalf("NewDomain: %v", err)
	}
	a := d.NewVar(0, nil)

	_, err = d.DoTransaction(func(tx *Turn) error {
		return tx.Emit(a, "x")
	})
	if err == nil {
		t.Fatal("Emit on a Var node succeeded, want an error")
	}
}

func TestTurn_SetUnknownNodeReturnsErrUnknownNode(t *testing.T) {
	d, err := NewDomain()
	if err != nil {
		t.Fatalf("NewDomain: %v", err)
	}
	bogus := NodeID{idx: 9999}

	_, err = d.DoTransaction(func(tx *Turn) error {
		return tx.Set(bogus, 1)
	})
	if err != ErrUnknownNode {
		t.Errorf("Set on unknown node error = %v, want ErrUnknownNode", err)
	}
}

func TestTurn_BodyErrorDiscardsStagedMutations(t *testing.T) {
	d, err := NewDomain()
	if err != nil {
		t.Fatalf("NewDomain: %v", err)
	}
	a := d.NewVar(1, nil)

	_, bodyErr := d.DoTransaction(func(tx *Turn) error {
		if err := tx.Set(a, 2); err != nil {
			return err
		}
		return errSentinel
	})
	if bodyErr != errSentinel {
		t.Fatalf("DoTransaction returned %v, want errSentinel", bodyErr)
	}
	if got := d.Value(a); got != 1 {
		t.Errorf("value after failed body = %v, want original 1 (mutation discarded)", got)
	}

	// The staged value must not leak into a later, successful turn either.
	if _, err := d.DoTransaction(func(tx *Turn) error { return nil }); err != nil {
		t.Fatalf("DoTransaction: %v", err)
	}
	if got := d.Value(a); got != 1 {
		t.Errorf("value after unrelated later turn = %v, want still 1", got)
	}
}

func TestTurn_ContinueRunsBeforeDoTransactionReturns(t *testing.T) {
	d, err := NewDomain()
	if err != nil {
		t.Fatalf("NewDomain: %v", err)
	}
	a := d.NewVar(1, nil)

	if _, err := d.DoTransaction(func(tx *Turn) error {
		if err := tx.Set(a, 2); err != nil {
			return err
		}
		tx.Continue(func(tx2 *Turn) error {
			return tx2.Set(a, 3)
		})
		return nil
	}); err != nil {
		t.Fatalf("DoTransaction: %v", err)
	}
	if got := d.Value(a); got != 3 {
		t.Errorf("value after Continue = %v, want 3", got)
	}
}

func TestDoTransactionAsync_MergeAdjacentCoalescesQueuedBodies(t *testing.T) {
	d, err := NewDomain(WithMergePolicy(MergeAdjacent))
	if err != nil {
		t.Fatalf("NewDomain: %v", err)
	}
	a := d.NewVar(0, nil)

	// Block the turn sequence with a long-running first transaction so the
	// next two async bodies queue back-to-back and get coalesced.
	release := make(chan struct{})
	started := make(chan struct{})
	go d.DoTransaction(func(tx *Turn) error {
		close(started)
		<-release
		return tx.Set(a, 1)
	})
	<-started

	h1 := d.DoTransactionAsync(func(tx *Turn) error { return tx.Set(a, 2) })
	h2 := d.DoTransactionAsync(func(tx *Turn) error { return tx.Set(a, 3) })
	close(release)

	if _, err := h1.Wait(); err != nil {
		t.Fatalf("h1.Wait: %v", err)
	}
	if _, err := h2.Wait(); err != nil {
		t.Fatalf("h2.Wait: %v", err)
	}
	if got := d.Value(a); got != 3 {
		t.Errorf("value after coalesced async turns = %v, want 3 (last body wins)", got)
	}
}

func TestDoTransaction_PoisonedDomainRejectsFurtherTurns(t *testing.T) {
	d, err := NewDomain()
	if err != nil {
		t.Fatalf("NewDomain: %v", err)
	}
	d.poison(ErrPoisoned)

	if _, err := d.DoTransaction(func(tx *Turn) error { return nil }); err != ErrPoisoned {
		t.Errorf("DoTransaction on poisoned domain error = %v, want ErrPoisoned", err)
	}
}

type sentinelError struct{ msg string }

func (e *sentinelError) Error() string { return e.msg }

var errSentinel = &sentinelError{msg: "sentinel"}
