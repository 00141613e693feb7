package timer

import "testing"

func TestRegisterAtTickFiresOnUpdate(t *testing.T) {
	tm := New()
	fired := false
	tm.RegisterAtTick(5, func() { fired = true })

	tm.Update(4)
	if fired {
		t.Fatal("callback fired before its tick")
	}
	tm.Update(5)
	if !fired {
		t.Fatal("callback did not fire on its tick")
	}
}

func TestRegisterFromTick(t *testing.T) {
	tm := New()
	fired := false
	tm.RegisterFromTick(10, 3, func() { fired = true })

	tm.Update(12)
	if fired {
		t.Fatal("callback fired early")
	}
	tm.Update(13)
	if !fired {
		t.Fatal("callback should fire at currentTick+delay")
	}
}

func TestRemoveCancelsCallback(t *testing.T) {
	tm := New()
	fired := false
	h := tm.RegisterAtTick(5, func() { fired = true })
	tm.Remove(h)

	tm.Update(5)
	if fired {
		t.Fatal("removed callback should not fire")
	}
}

func TestRemoveDoesNotShiftSiblingHandles(t *testing.T) {
	tm := New()
	var order []int
	h0 := tm.RegisterAtTick(1, func() { order = append(order, 0) })
	tm.RegisterAtTick(1, func() { order = append(order, 1) })
	h2 := tm.RegisterAtTick(1, func() { order = append(order, 2) })

	tm.Remove(h0)
	tm.Update(1)

	if len(order) != 2 || order[0] != 1 || order[1] != 2 {
		t.Fatalf("expected [1 2], got %v", order)
	}

	// h2 must still refer to its own slot even after a sibling was
	// removed and the bucket already fired once.
	tm.RegisterAtTick(1, func() {})
	tm.Remove(h2) // no panic, no-op: tick 1's bucket was deleted when it fired and now holds only one entry, so index 2 is out of range
}

func TestUpdateForgetsBucketAfterFiring(t *testing.T) {
	tm := New()
	count := 0
	tm.RegisterAtTick(5, func() { count++ })

	tm.Update(5)
	tm.Update(5)

	if count != 1 {
		t.Fatalf("expected callback to fire exactly once, fired %d times", count)
	}
}

func TestPendingCountsUnfiredEntries(t *testing.T) {
	tm := New()
	if tm.Pending(1) != 0 {
		t.Fatalf("expected 0 pending, got %d", tm.Pending(1))
	}
	tm.RegisterAtTick(1, func() {})
	tm.RegisterAtTick(1, func() {})
	if tm.Pending(1) != 2 {
		t.Fatalf("expected 2 pending, got %d", tm.Pending(1))
	}
}
