package conveyor

import (
	"testing"

	"github.com/jaihysc/Jactorio-sub000/server/proto"
)

type testItem struct{ name string }

func (testItem) InternalID() proto.ID { return 0 }

func TestLaneAppendMakesLaneActive(t *testing.T) {
	var l Lane
	l.AppendItem(1.0, testItem{"a"})
	l.AppendItem(ItemSpacing, testItem{"b"})

	if l.Len() != 2 {
		t.Fatalf("expected 2 items, got %d", l.Len())
	}
	if !l.IsActive() {
		t.Fatal("lane with items and index 0 should be active")
	}
}

func TestLaneCanInsertRespectsSpacing(t *testing.T) {
	var l Lane
	l.AppendItem(2.0, testItem{"a"})

	if l.CanInsert(2.0+ItemSpacing-0.01, 0) {
		t.Fatal("insert within ItemSpacing of the back item should be rejected")
	}
	if !l.CanInsert(2.0+ItemSpacing+0.01, 0) {
		t.Fatal("insert beyond ItemSpacing of the back item should be allowed")
	}
}

func TestLaneTryInsertItemReactivatesInactiveLane(t *testing.T) {
	l := Lane{Index: 99} // beyond len(items): inactive by construction
	if l.IsActive() {
		t.Fatal("precondition: lane should start inactive")
	}
	if !l.TryInsertItem(1.0, testItem{"a"}, 0) {
		t.Fatal("insert into an empty lane should always succeed")
	}
	if !l.IsActive() {
		t.Fatal("inserting into an inactive lane should reactivate it")
	}
}

func TestLaneGetAndTryPopItem(t *testing.T) {
	var l Lane
	l.AppendItem(1.0, testItem{"a"})
	l.AppendItem(ItemSpacing+0.5, testItem{"b"})

	_, item, dist, ok := l.GetItem(1.0, 0.001)
	if !ok || item.(testItem).name != "a" {
		t.Fatalf("expected to find item a at offset 1.0, got %v ok=%v", item, ok)
	}
	if dist != 1.0 {
		t.Fatalf("expected dist 1.0, got %v", dist)
	}

	popped, ok := l.TryPopItem(1.0, 0.001)
	if !ok || popped.(testItem).name != "a" {
		t.Fatalf("expected to pop item a, got %v ok=%v", popped, ok)
	}
	if l.Len() != 1 {
		t.Fatalf("expected 1 item remaining, got %d", l.Len())
	}
}

func TestLaneRemoveItemDoesNotTouchBackItemDistance(t *testing.T) {
	var l Lane
	l.AppendItem(1.0, testItem{"a"})
	l.AppendItem(ItemSpacing, testItem{"b"})
	before := l.BackItemDistance

	l.RemoveItem(0)

	if l.BackItemDistance != before {
		t.Fatalf("RemoveItem must not alter BackItemDistance: before=%v after=%v", before, l.BackItemDistance)
	}
	if l.Len() != 1 || l.items[0].Item.(testItem).name != "b" {
		t.Fatalf("expected only item b to remain, got %v", l.items)
	}
}
