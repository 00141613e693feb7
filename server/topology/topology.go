// Package topology builds and tears down conveyor segments as tiles are
// placed and removed, keeping each segment's length, head offset and
// target pointers consistent with the tiles actually on the grid.
package topology

import (
	"github.com/jaihysc/Jactorio-sub000/server/conveyor"
	"github.com/jaihysc/Jactorio-sub000/server/proto"
	"github.com/jaihysc/Jactorio-sub000/server/world"
)

// Data returns coord's conveyor unique-data, if its entity layer holds one.
func Data(w *world.World, coord world.Coord) (*conveyor.UniqueData, bool) {
	cell, ok := w.Tile(coord)
	if !ok {
		return nil, false
	}
	layer := cell.Layer(world.LayerEntity)
	if layer.Prototype == nil {
		return nil, false
	}
	d, ok := layer.Unique.(*conveyor.UniqueData)
	return d, ok
}

func conveyorAt(w *world.World, coord world.Coord) (proto.Conveyor, *world.TileLayer, bool) {
	cell, ok := w.Tile(coord)
	if !ok {
		return nil, nil, false
	}
	layer := cell.Layer(world.LayerEntity)
	p, ok := layer.Prototype.(proto.Conveyor)
	if !ok {
		return nil, nil, false
	}
	return p, layer, true
}

// turn classifies the bend a segment pointed `from` makes feeding into a
// target pointed `to`. Opposite directions are never a valid bend (the
// target would face directly back at its source).
func turn(from, to world.Direction) (conveyor.Termination, bool) {
	switch {
	case to == from:
		return conveyor.Straight, false // handled by grouping, not a target link
	case to == from.Invert():
		return 0, false
	case (from+1)%4 == to:
		return conveyor.BendRight, true
	default:
		return conveyor.BendLeft, true
	}
}

// perpendicular returns the two directions orthogonal to d.
func perpendicular(d world.Direction) (world.Direction, world.Direction) {
	if d == world.Up || d == world.Down {
		return world.Left, world.Right
	}
	return world.Up, world.Down
}

// Build places a conveyor prototype p at coord oriented dir, joining it
// into a neighboring segment when one continues straight through coord,
// and otherwise starting a new one-tile segment. It then links the new
// tile to any perpendicular neighbor it should feed into, or that should
// feed into it.
func Build(w *world.World, coord world.Coord, dir world.Direction, p proto.Conveyor) error {
	if err := w.Place(coord, dir, p); err != nil {
		return err
	}
	cell, _ := w.Tile(coord)
	layer := cell.Layer(world.LayerEntity)

	if seg, structIndex, ok := joinAhead(w, coord, dir); ok {
		layer.Unique = &conveyor.UniqueData{Structure: seg, StructIndex: structIndex}
	} else if seg, ok := joinBehind(w, coord, dir); ok {
		layer.Unique = &conveyor.UniqueData{Structure: seg, StructIndex: 0}
		Renumber(w, coord, dir)
	} else {
		seg := &conveyor.Segment{Direction: dir, Termination: conveyor.Straight, Length: 1}
		layer.Unique = &conveyor.UniqueData{Structure: seg, StructIndex: 0}
		w.LogicRegister(world.LogicConveyor, coord, world.LayerEntity)
	}

	connectPerpendicular(w, coord, dir)
	return nil
}

// joinAhead extends the segment ahead of coord (in direction dir) by one
// tile at its tail, if one exists, shares dir and shares coord's chunk.
func joinAhead(w *world.World, coord world.Coord, dir world.Direction) (*conveyor.Segment, int, bool) {
	ahead := world.Advance(coord, dir, 1)
	if ahead.Chunk() != coord.Chunk() {
		return nil, 0, false
	}
	_, aheadLayer, ok := conveyorAt(w, ahead)
	if !ok || aheadLayer.Orientation != dir {
		return nil, 0, false
	}
	aheadData, ok := aheadLayer.Unique.(*conveyor.UniqueData)
	if !ok {
		return nil, 0, false
	}
	seg := aheadData.Structure
	seg.Length++
	return seg, aheadData.StructIndex + 1, true
}

// joinBehind lengthens the segment behind coord from its head, making
// coord the new head tile, if one exists, shares dir and shares coord's
// chunk.
func joinBehind(w *world.World, coord world.Coord, dir world.Direction) (*conveyor.Segment, bool) {
	behind := world.Advance(coord, dir, -1)
	if behind.Chunk() != coord.Chunk() {
		return nil, false
	}
	_, behindLayer, ok := conveyorAt(w, behind)
	if !ok || behindLayer.Orientation != dir {
		return nil, false
	}
	behindData, ok := behindLayer.Unique.(*conveyor.UniqueData)
	if !ok || behindData.StructIndex != 0 {
		return nil, false
	}
	seg := behindData.Structure
	seg.Length++
	seg.HeadOffset++

	w.LogicRemove(world.LogicConveyor, behind, world.LayerEntity)
	w.LogicRegister(world.LogicConveyor, coord, world.LayerEntity)
	return seg, true
}

// Renumber walks backward from coord (the head of its segment, in
// direction dir) assigning StructIndex 0, 1, 2, ... to each tile in the
// segment.
func Renumber(w *world.World, head world.Coord, dir world.Direction) {
	data, ok := Data(w, head)
	if !ok {
		return
	}
	seg := data.Structure
	coord := head
	for i := 0; i < int(seg.Length); i++ {
		if d, ok := Data(w, coord); ok {
			d.StructIndex = i
		}
		coord = world.Advance(coord, dir, -1)
	}
}

// connectPerpendicular links coord to whichever of its perpendicular
// neighbors should be target / source, resolving this segment's
// termination (or the neighbor's) from straight to a bend or side-only
// feed when a second upstream converges on the same target.
func connectPerpendicular(w *world.World, coord world.Coord, dir world.Direction) {
	data, ok := Data(w, coord)
	if !ok {
		return
	}
	seg := data.Structure

	// This tile may feed a perpendicular neighbor ahead of it.
	ahead := world.Advance(coord, dir, 1)
	if _, aheadLayer, ok := conveyorAt(w, ahead); ok && aheadLayer.Orientation != dir {
		if term, valid := turn(dir, aheadLayer.Orientation); valid {
			if aheadData, ok := aheadLayer.Unique.(*conveyor.UniqueData); ok {
				linkTarget(w, seg, term, aheadData.Structure, aheadData)
			}
		}
	}

	// A perpendicular neighbor may feed into this tile's segment.
	p1, p2 := perpendicular(dir)
	for _, side := range [2]world.Direction{p1, p2} {
		neighbor := world.Advance(coord, side, 1)
		_, neighborLayer, ok := conveyorAt(w, neighbor)
		if !ok {
			continue
		}
		feedDir := side.Invert() // direction neighbor must face to feed into coord
		if neighborLayer.Orientation != feedDir {
			continue
		}
		term, valid := turn(neighborLayer.Orientation, dir)
		if !valid {
			continue
		}
		if neighborData, ok := neighborLayer.Unique.(*conveyor.UniqueData); ok {
			linkTarget(w, neighborData.Structure, term, seg, data)
		}
	}
}

// linkTarget sets source.Target = target (if not already a straight link
// to it) and resolves source's termination. If target already has a
// different upstream feeding it from the opposite perpendicular side, both
// upstreams' terminations become the corresponding side-only feed instead
// of independent bends.
func linkTarget(w *world.World, source *conveyor.Segment, term conveyor.Termination, target *conveyor.Segment, targetData *conveyor.UniqueData) {
	index := int16(targetData.StructIndex) + target.HeadOffset
	if source.Target == target && source.Termination == term {
		source.TargetInsertOffset = index
		return
	}
	source.Target = target
	source.Termination = term
	source.TargetInsertOffset = index

	if otherSeg, ok := findConvergingUpstream(w, target, source); ok {
		source.SideInsertIndex = index
		otherSeg.SideInsertIndex = index
		if term == conveyor.BendLeft {
			source.Termination = conveyor.LeftOnly
			otherSeg.Termination = conveyor.RightOnly
		} else {
			source.Termination = conveyor.RightOnly
			otherSeg.Termination = conveyor.LeftOnly
		}
	}
}

// findConvergingUpstream looks for a segment other than exclude whose
// Target is target at the same TargetInsertOffset as exclude, indicating
// two perpendicular upstreams converging on the same tile.
func findConvergingUpstream(w *world.World, target *conveyor.Segment, exclude *conveyor.Segment) (*conveyor.Segment, bool) {
	for _, group := range w.LogicEntries(world.LogicConveyor) {
		d, ok := Data(w, group.Coord)
		if !ok || d.Structure == exclude || d.StructIndex != 0 {
			continue
		}
		if d.Structure.Target == target && d.Structure.TargetInsertOffset == exclude.TargetInsertOffset {
			return d.Structure, true
		}
	}
	return nil, false
}

// BuildSplitter places a two-lane splitter at coord: a Structure segment at
// coord and a Right segment at the neighboring tile one step Up of coord
// when dir is Left or Right, or one step Right of coord when dir is Up or
// Down, sharing one swap stage.
// Both tiles' entity layers hold the same *conveyor.Splitter as their
// unique data, and the pair is registered once under LogicSplitter at
// coord.
func BuildSplitter(w *world.World, coord world.Coord, dir world.Direction, p proto.Conveyor) (*conveyor.Splitter, error) {
	rightDir, _ := perpendicular(dir)
	if dir == world.Up || dir == world.Down {
		rightDir = world.Right
	}
	rightCoord := world.Advance(coord, rightDir, 1)

	if err := w.Place(coord, dir, p); err != nil {
		return nil, err
	}
	if err := w.Place(rightCoord, dir, p); err != nil {
		_ = w.Remove(coord)
		return nil, err
	}

	sp := &conveyor.Splitter{
		Structure: &conveyor.Segment{Direction: dir, Termination: conveyor.Straight, Length: 1},
		Right:     &conveyor.Segment{Direction: dir, Termination: conveyor.Straight, Length: 1},
	}

	structCell, _ := w.Tile(coord)
	structCell.Layer(world.LayerEntity).Unique = sp
	rightCell, _ := w.Tile(rightCoord)
	rightCell.Layer(world.LayerEntity).Unique = sp

	w.LogicRegister(world.LogicSplitter, coord, world.LayerEntity)
	return sp, nil
}

// Remove clears the conveyor at coord, splitting its segment if coord was
// in the middle, shrinking it if coord was the tail end, and tearing it
// down entirely if coord was its only tile.
func Remove(w *world.World, coord world.Coord) error {
	data, ok := Data(w, coord)
	if !ok {
		return w.Remove(coord)
	}
	seg := data.Structure
	dir := seg.Direction
	i := data.StructIndex
	head := coord
	for k := 0; k < i; k++ {
		head = world.Advance(head, dir, 1)
	}

	disconnectNeighbors(w, coord, dir, seg)

	tailLength := int(seg.Length) - i - 1
	if tailLength > 0 {
		tailHead := world.Advance(coord, dir, -1)
		newSeg := &conveyor.Segment{Direction: dir, Termination: conveyor.Straight, Length: uint8(tailLength)}
		tc := tailHead
		for k := 0; k < tailLength; k++ {
			if td, ok := Data(w, tc); ok {
				td.Structure = newSeg
			}
			tc = world.Advance(tc, dir, -1)
		}
		w.LogicRegister(world.LogicConveyor, tailHead, world.LayerEntity)
		Renumber(w, tailHead, dir)
		retarget(w, tailHead, dir, seg, newSeg)
	}

	if i == 0 {
		w.LogicRemove(world.LogicConveyor, head, world.LayerEntity)
	} else {
		seg.Length = uint8(i)
	}

	return w.Remove(coord)
}

// retarget repoints the segments that fed into old's surviving tail
// (the tiles that moved from old into newSeg when the segment split) so
// they target newSeg instead. A segment can only ever have bent into a
// tile it is physically adjacent to and oriented towards, so walking
// newSeg's own tiles and checking their perpendicular neighbors (the same
// upstream-feed test connectPerpendicular uses) is sufficient — no tile
// outside newSeg can have been targeting one of newSeg's tiles.
func retarget(w *world.World, tailHead world.Coord, dir world.Direction, old, newSeg *conveyor.Segment) {
	p1, p2 := perpendicular(dir)
	coord := tailHead
	for k := 0; k < int(newSeg.Length); k++ {
		tailData, ok := Data(w, coord)
		if !ok {
			break
		}
		index := int16(tailData.StructIndex) + newSeg.HeadOffset
		for _, side := range [2]world.Direction{p1, p2} {
			neighbor := world.Advance(coord, side, 1)
			_, neighborLayer, ok := conveyorAt(w, neighbor)
			if !ok || neighborLayer.Orientation != side.Invert() {
				continue
			}
			d, ok := neighborLayer.Unique.(*conveyor.UniqueData)
			if !ok || d.Structure.Target != old {
				continue
			}
			d.Structure.Target = newSeg
			d.Structure.TargetInsertOffset = index
		}
		coord = world.Advance(coord, dir, -1)
	}
}

// disconnectNeighbors clears Target on whichever of coord's two
// perpendicular neighbors was bent into seg at coord, un-bending it back
// to straight, since coord itself is about to be removed and no longer
// exists to feed into. Only a neighbor oriented to feed forward into
// coord can ever have targeted it — mirroring the upstream-feed check in
// connectPerpendicular.
func disconnectNeighbors(w *world.World, coord world.Coord, dir world.Direction, seg *conveyor.Segment) {
	p1, p2 := perpendicular(dir)
	for _, side := range [2]world.Direction{p1, p2} {
		neighbor := world.Advance(coord, side, 1)
		_, neighborLayer, ok := conveyorAt(w, neighbor)
		if !ok || neighborLayer.Orientation != side.Invert() {
			continue
		}
		d, ok := neighborLayer.Unique.(*conveyor.UniqueData)
		if !ok || d.Structure.Target != seg {
			continue
		}
		d.Structure.Target = nil
		d.Structure.TargetInsertOffset = 0
		if d.Structure.Termination != conveyor.Straight {
			d.Structure.Termination = conveyor.Straight
			d.Structure.SideInsertIndex = 0
		}
	}
}
