package conveyor

import (
	"github.com/jaihysc/Jactorio-sub000/server/proto"
	"github.com/jaihysc/Jactorio-sub000/server/world"
)

// Segment is a straight run of conveyor tiles: two independent lanes of
// items travelling in Direction, terminating either by feeding into
// Target or (if Target is nil) going nowhere.
type Segment struct {
	Direction   world.Direction
	Termination Termination
	// Length is the number of tiles this segment spans.
	Length uint8

	Left  Lane
	Right Lane

	// HeadOffset tracks how many tiles have been added/removed from the
	// segment's head since tiles were last renumbered. Every StructIndex
	// stored by a tile or by an upstream segment's side-insert is only
	// valid after adding HeadOffset, which is what the Abs-suffixed
	// methods do; this lets a segment grow or shrink from the head
	// without invalidating references others hold into it.
	HeadOffset int16

	// SideInsertIndex is the struct index upstream side-only merges feed
	// into, meaningful only when Termination is LeftOnly or RightOnly.
	SideInsertIndex int16

	// TargetInsertOffset is Target's struct index plus Target's
	// HeadOffset at the tile this segment feeds into, recorded when the
	// link was made. The transition pass does not read it: it inserts at
	// an offset derived from Target.Length, or from SideInsertIndex for
	// side-only terminations.
	TargetInsertOffset int16

	// Target is the segment this one feeds into, or nil.
	Target *Segment
}

// Side returns the segment's left or right lane.
func (s *Segment) Side(left bool) *Lane {
	if left {
		return &s.Left
	}
	return &s.Right
}

// IsActive reports whether the given lane has a movable item this tick.
func (s *Segment) IsActive(left bool) bool {
	return s.Side(left).IsActive()
}

// CanInsert reports whether an item could be inserted on the given lane at
// startOffset tiles from the segment's head.
func (s *Segment) CanInsert(left bool, startOffset float64) bool {
	return s.Side(left).CanInsert(startOffset, 0)
}

// AppendItem appends item to the tail of the given lane.
func (s *Segment) AppendItem(left bool, offset float64, item proto.Prototype) {
	s.Side(left).AppendItem(offset, item)
}

// InsertItem inserts item at offset tiles from the segment's head on the
// given lane.
func (s *Segment) InsertItem(left bool, offset float64, item proto.Prototype) {
	s.Side(left).InsertItem(offset, item, 0)
}

// TryInsertItem attempts InsertItem, reporting success.
func (s *Segment) TryInsertItem(left bool, offset float64, item proto.Prototype) bool {
	return s.Side(left).TryInsertItem(offset, item, 0)
}

// GetItem looks up the item at offset tiles from the head on the given
// lane, within epsilon.
func (s *Segment) GetItem(left bool, offset, epsilon float64) (index int, item proto.Prototype, dist float64, ok bool) {
	return s.Side(left).GetItem(offset, epsilon)
}

// TryPopItem removes and returns the item at offset tiles from the head on
// the given lane, within epsilon.
func (s *Segment) TryPopItem(left bool, offset, epsilon float64) (proto.Prototype, bool) {
	return s.Side(left).TryPopItem(offset, epsilon)
}

// CanInsertAbs is CanInsert with startOffset measured in the stable
// (HeadOffset-adjusted) reference frame StructIndex values use.
func (s *Segment) CanInsertAbs(left bool, startOffset float64) bool {
	return s.Side(left).CanInsert(startOffset, s.HeadOffset)
}

// InsertItemAbs is InsertItem with offset measured in the stable reference
// frame.
func (s *Segment) InsertItemAbs(left bool, offset float64, item proto.Prototype) {
	s.Side(left).InsertItem(offset, item, s.HeadOffset)
}

// TryInsertItemAbs is TryInsertItem with offset measured in the stable
// reference frame.
func (s *Segment) TryInsertItemAbs(left bool, offset float64, item proto.Prototype) bool {
	return s.Side(left).TryInsertItem(offset, item, s.HeadOffset)
}

// UniqueData is the per-tile instance state a conveyor entity layer stores:
// which segment it belongs to and at which (stable) index.
type UniqueData struct {
	Structure   *Segment
	StructIndex int
}
