package sched

import (
	"testing"

	"github.com/jaihysc/Jactorio-sub000/server/proto"
	"github.com/jaihysc/Jactorio-sub000/server/timer"
	"github.com/jaihysc/Jactorio-sub000/server/topology"
	"github.com/jaihysc/Jactorio-sub000/server/world"
)

type testBelt struct{ speed float64 }

func (b testBelt) InternalID() proto.ID    { return 1 }
func (b testBelt) Speed() float64          { return b.speed }
func (b testBelt) Sprite() proto.SpriteRef { return 0 }

type testItem struct{ name string }

func (testItem) InternalID() proto.ID { return 100 }

func newTestWorld(t *testing.T) *world.World {
	t.Helper()
	w := world.Config{}.New()
	if _, err := w.EmplaceChunk(world.ChunkPos{X: 0, Y: 0}); err != nil {
		t.Fatalf("emplace chunk: %v", err)
	}
	return w
}

func TestStepAdvancesItemsOnASingleConveyor(t *testing.T) {
	w := newTestWorld(t)
	belt := testBelt{speed: 0.05}
	coord := world.Coord{X: 4, Y: 4}
	if err := topology.Build(w, coord, world.Right, belt); err != nil {
		t.Fatalf("build: %v", err)
	}
	data, _ := topology.Data(w, coord)
	data.Structure.Left.AppendItem(2.0, testItem{"a"})

	s := New(w, timer.New(), nil)
	s.Step()

	if data.Structure.Left.Len() != 1 {
		t.Fatalf("expected the item to remain on the lane, got %d items", data.Structure.Left.Len())
	}
	if _, _, _, ok := data.Structure.Left.GetItem(1.95, 0.001); !ok {
		t.Fatal("expected the item to have advanced by the belt's speed")
	}
	if s.Tick != 1 {
		t.Fatalf("expected the tick counter to advance to 1, got %d", s.Tick)
	}
}

func TestStepFeedsItemIntoDownstreamSegmentAtABend(t *testing.T) {
	w := newTestWorld(t)
	belt := testBelt{speed: 0.05}
	upstream := world.Coord{X: 0, Y: 0}
	if err := topology.Build(w, upstream, world.Right, belt); err != nil {
		t.Fatalf("build upstream: %v", err)
	}
	downstream := world.Advance(upstream, world.Right, 1)
	if err := topology.Build(w, downstream, world.Down, belt); err != nil {
		t.Fatalf("build downstream: %v", err)
	}

	upstreamData, _ := topology.Data(w, upstream)
	// Past the segment's end: the transition pass should hand it across
	// the bend immediately.
	upstreamData.Structure.Left.AppendItem(-0.01, testItem{"a"})

	s := New(w, timer.New(), nil)
	s.Step()

	downstreamData, _ := topology.Data(w, downstream)
	if upstreamData.Structure.Left.Len() != 0 {
		t.Fatalf("expected the item to have left the upstream lane, still has %d", upstreamData.Structure.Left.Len())
	}
	if downstreamData.Structure.Left.Len() != 1 {
		t.Fatalf("expected the item to have arrived on the downstream lane, has %d", downstreamData.Structure.Left.Len())
	}
}

func TestStepRunsDeferralTimerBeforeMoving(t *testing.T) {
	w := newTestWorld(t)
	belt := testBelt{speed: 0.05}
	coord := world.Coord{X: 4, Y: 4}
	if err := topology.Build(w, coord, world.Right, belt); err != nil {
		t.Fatalf("build: %v", err)
	}
	data, _ := topology.Data(w, coord)
	data.Structure.Left.AppendItem(2.0, testItem{"a"})

	tm := timer.New()
	fired := false
	movedBeforeFire := false
	tm.RegisterAtTick(0, func() {
		fired = true
		_, _, _, atStart := data.Structure.Left.GetItem(2.0, 0.001)
		movedBeforeFire = !atStart
	})

	s := New(w, tm, nil)
	s.Step()

	if !fired {
		t.Fatal("expected the callback due on tick 0 to fire during the first Step")
	}
	if movedBeforeFire {
		t.Fatal("expected the callback to run before the conveyor move pass")
	}
}

func TestStepMovesSplitterSegments(t *testing.T) {
	w := newTestWorld(t)
	belt := testBelt{speed: 0.05}
	coord := world.Coord{X: 8, Y: 8}
	sp, err := topology.BuildSplitter(w, coord, world.Right, belt)
	if err != nil {
		t.Fatalf("build splitter: %v", err)
	}
	sp.Structure.Left.AppendItem(2.0, testItem{"a"})

	s := New(w, timer.New(), nil)
	s.Step()

	if sp.Structure.Left.Len() != 1 {
		t.Fatal("expected the item to remain on the splitter's structure lane")
	}
	if _, _, _, ok := sp.Structure.Left.GetItem(1.95, 0.001); !ok {
		t.Fatal("expected the splitter's structure segment to have moved its item by the belt's speed")
	}
}
