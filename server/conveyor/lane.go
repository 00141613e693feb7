// Package conveyor implements the two-lane belt segments, splitters and the
// fixed-order per-tick pass that moves items along them.
package conveyor

import "github.com/jaihysc/Jactorio-sub000/server/proto"

// Tile-unit constants governing item placement and movement. Distances are
// tracked as float64 tile offsets ("subpixel" precision), not whole tiles.
const (
	// ItemWidth is the space one item occupies on a lane.
	ItemWidth = 0.4
	// ItemSpacing is the minimum front-to-front gap between compressed
	// items.
	ItemSpacing = 0.25
	// SplitterThreshold is how far past a splitter's lane items must
	// travel before they become eligible to swap sides.
	SplitterThreshold = 0.25
)

// laneItem is one item on a lane: its prototype and the tile distance to
// the previous item (or to the lane's start, for the head item).
type laneItem struct {
	Dist float64
	Item proto.Prototype
}

// Lane is one side (left or right) of a conveyor segment: a sequence of
// items ordered head-first (closest to the segment's end) to tail-last
// (closest to where items enter).
type Lane struct {
	items []laneItem

	// Index is the position within items currently eligible to move. It
	// only ever advances past items already pinned at ItemSpacing against
	// their follower; it is reset to 0 whenever the lane transitions from
	// inactive back to active.
	Index int

	// BackItemDistance is the distance from the lane's start to the tail
	// item, maintained incrementally to avoid rescanning the lane.
	BackItemDistance float64

	// Visible controls whether items on this lane should be rendered; it
	// carries no simulation meaning.
	Visible bool
}

// IsActive reports whether the lane has an item at Index eligible to move
// this tick.
func (l *Lane) IsActive() bool {
	return len(l.items) > 0 && l.Index < len(l.items)
}

// Len returns the number of items currently on the lane.
func (l *Lane) Len() int {
	return len(l.items)
}

// CanInsert reports whether an item could be inserted at startOffset (plus
// itemOffset, which shifts the reference frame the same way a segment's
// head offset does) without overlapping an existing item.
func (l *Lane) CanInsert(startOffset float64, itemOffset int16) bool {
	startOffset += float64(itemOffset)

	offset := 0.0
	for _, it := range l.items {
		if it.Dist > ItemSpacing {
			if ItemSpacing+offset <= startOffset && startOffset <= offset+it.Dist-ItemSpacing {
				return true
			}
		}
		offset += it.Dist
		if offset > startOffset {
			return false
		}
	}
	if len(l.items) > 0 {
		offset += ItemSpacing
	}
	return offset <= startOffset
}

// AppendItem adds item at the tail of the lane, offset tiles behind the
// current tail (or the lane's start, if empty). A minimum gap of
// ItemSpacing is enforced once the lane is non-empty.
func (l *Lane) AppendItem(offset float64, item proto.Prototype) {
	if offset < ItemSpacing && len(l.items) > 0 {
		offset = ItemSpacing
	}
	l.items = append(l.items, laneItem{Dist: offset, Item: item})
	l.BackItemDistance += offset
}

func insertLaneItem(items []laneItem, at int, v laneItem) []laneItem {
	items = append(items, laneItem{})
	copy(items[at+1:], items[at:])
	items[at] = v
	return items
}

// InsertItem inserts item so that it sits offset (plus itemOffset) tiles
// from the lane's start, splicing it between whichever existing items
// straddle that position and rewriting their distances to stay consistent.
func (l *Lane) InsertItem(offset float64, item proto.Prototype, itemOffset int16) {
	targetOffset := offset + float64(itemOffset)
	counterOffset := 0.0

	for i := range l.items {
		counterOffset += l.items[i].Dist
		if counterOffset > targetOffset {
			counterOffset -= l.items[i].Dist
			insertOffset := targetOffset - counterOffset
			l.items[i].Dist -= insertOffset
			l.items = insertLaneItem(l.items, i, laneItem{Dist: insertOffset, Item: item})
			return
		}
	}

	l.BackItemDistance = targetOffset
	l.items = append(l.items, laneItem{Dist: targetOffset - counterOffset, Item: item})
}

// TryInsertItem inserts item if CanInsert allows it, reactivating the lane
// if it had gone inactive. It reports whether the insert happened.
func (l *Lane) TryInsertItem(offset float64, item proto.Prototype, itemOffset int16) bool {
	if !l.CanInsert(offset, itemOffset) {
		return false
	}
	if !l.IsActive() {
		l.Index = 0
	}
	l.InsertItem(offset, item, itemOffset)
	return true
}

// GetItem finds the item whose cumulative offset from the lane's start
// falls within epsilon of offset, returning its index in addition to a
// copy of its state.
func (l *Lane) GetItem(offset, epsilon float64) (index int, item proto.Prototype, dist float64, ok bool) {
	lower, upper := offset-epsilon, offset+epsilon
	counter := 0.0
	for i, it := range l.items {
		counter += it.Dist
		if counter >= lower {
			if counter <= upper {
				return i, it.Item, it.Dist, true
			}
			return 0, nil, 0, false
		}
	}
	return 0, nil, 0, false
}

// TryPopItem removes and returns the item found by GetItem(offset,
// epsilon), pushing its distance into the following item (if any) to
// preserve spacing.
func (l *Lane) TryPopItem(offset, epsilon float64) (proto.Prototype, bool) {
	idx, item, dist, ok := l.GetItem(offset, epsilon)
	if !ok {
		return nil, false
	}
	if idx+1 < len(l.items) {
		l.items[idx+1].Dist += dist
	}
	l.items = append(l.items[:idx], l.items[idx+1:]...)
	return item, true
}

// RemoveItem deletes the item at index outright, pushing its distance into
// the follower the same way TryPopItem does. Unlike TryPopItem it doesn't
// search for the item first; splitter swaps already know the index.
func (l *Lane) RemoveItem(index int) {
	if index < 0 || index >= len(l.items) {
		return
	}
	d := l.items[index].Dist
	if index+1 < len(l.items) {
		l.items[index+1].Dist += d
	}
	l.items = append(l.items[:index], l.items[index+1:]...)
}
