package conveyor

import (
	"testing"

	"github.com/jaihysc/Jactorio-sub000/server/world"
)

func TestMovePassAdvancesHeadItem(t *testing.T) {
	seg := &Segment{Direction: world.Right, Length: 4}
	seg.Left.AppendItem(2.0, testItem{"a"})

	MovePass(0.05, seg)

	if seg.Left.items[0].Dist != 1.95 {
		t.Fatalf("expected head item to advance by speed, got dist %v", seg.Left.items[0].Dist)
	}
}

func TestMovePassSkipsInactiveLane(t *testing.T) {
	seg := &Segment{Direction: world.Right, Length: 4}
	// Right lane stays empty/inactive; MovePass must not panic indexing it.
	MovePass(0.05, seg)
	if seg.Right.Len() != 0 {
		t.Fatal("inactive lane should remain untouched")
	}
}

func TestTransitionPassFeedsIntoStraightTarget(t *testing.T) {
	target := &Segment{Direction: world.Right, Length: 4}
	seg := &Segment{Direction: world.Right, Length: 2, Target: target, Termination: Straight}
	seg.Left.AppendItem(-0.01, testItem{"a"}) // arrived: offset < 0

	TransitionPass(0.05, seg)

	if seg.Left.Len() != 0 {
		t.Fatalf("item should have moved off the source lane, still has %d items", seg.Left.Len())
	}
	if target.Left.Len() != 1 {
		t.Fatalf("item should have been fed into target's left lane, has %d items", target.Left.Len())
	}
}

func TestTransitionPassCascadesWithoutTarget(t *testing.T) {
	seg := &Segment{Direction: world.Right, Length: 4}
	seg.Left.AppendItem(-0.01, testItem{"a"})

	TransitionPass(0.05, seg)

	if seg.Left.Len() != 1 {
		t.Fatalf("item should remain on the lane when there is no target, got %d items", seg.Left.Len())
	}
	if seg.Left.items[0].Dist != 0 {
		t.Fatalf("pinned item's offset should be reset to 0, got %v", seg.Left.items[0].Dist)
	}
}
