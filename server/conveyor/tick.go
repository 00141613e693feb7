package conveyor

// moveNextItem scans lane starting after index for the next item whose
// distance exceeds ItemSpacing and decrements it by tilesMoved. If
// hasTarget is true, index is left untouched (a downstream item may have
// moved since the last check, so every update rechecks from the start);
// otherwise index is advanced to the item found. It reports whether an
// item was found.
func moveNextItem(tilesMoved float64, lane *Lane, index *int, hasTarget bool) bool {
	for i := *index + 1; i < len(lane.items); i++ {
		if lane.items[i].Dist > ItemSpacing {
			if !hasTarget {
				*index = i
			}
			lane.items[i].Dist -= tilesMoved
			return true
		}
	}
	*index = 0
	return false
}

// updateSide runs the transition pass for one lane of segment: feeding the
// head item into segment.Target if it has arrived, or else cascading the
// pinned-item adjustment down the lane.
func updateSide(tilesMoved float64, segment *Segment, left bool) {
	side := segment.Side(left)
	index := &side.Index
	offset := &side.items[*index].Dist

	if *index == 0 {
		if *offset >= 0 {
			return
		}

		if segment.Target != nil {
			target := segment.Target

			var length float64
			switch segment.Termination {
			case LeftOnly, RightOnly:
				length = 1 + float64(segment.SideInsertIndex)
			default:
				length = float64(target.Length)
			}
			targetOffset := length - absFloat(*offset)
			targetOffset -= TerminationDeduction(segment.Termination, left)

			item := side.items[*index].Item
			var moved bool
			switch segment.Termination {
			case LeftOnly:
				moved = target.Left.TryInsertItem(targetOffset, item, target.HeadOffset)
			case RightOnly:
				moved = target.Right.TryInsertItem(targetOffset, item, target.HeadOffset)
			default:
				moved = target.TryInsertItem(left, targetOffset, item)
			}

			if moved {
				poppedDist := side.items[0].Dist
				side.items = side.items[1:]
				if len(side.items) > 0 {
					side.items[0].Dist += poppedDist
				} else {
					side.BackItemDistance = 0
				}
				return
			}
		}

		*offset = 0
		side.BackItemDistance += tilesMoved
		if moveNextItem(tilesMoved, side, index, segment.Target != nil) {
			side.BackItemDistance -= tilesMoved
		}
		return
	}

	if *offset >= ItemSpacing {
		return
	}
	*offset = ItemSpacing
	if moveNextItem(tilesMoved, side, index, segment.Target != nil) {
		side.BackItemDistance -= tilesMoved
	}
}

func absFloat(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

// MovePass is Pass A of a tick: on every active lane, the item at the
// lane's Index advances by speed tiles.
func MovePass(speed float64, seg *Segment) {
	if seg.Left.IsActive() {
		seg.Left.items[seg.Left.Index].Dist -= speed
		seg.Left.BackItemDistance -= speed
	}
	if seg.Right.IsActive() {
		seg.Right.items[seg.Right.Index].Dist -= speed
		seg.Right.BackItemDistance -= speed
	}
}

// TransitionPass is Pass B of a tick: on every active lane, the item at the
// lane's Index is resolved by updateSide. At Index 0 it is checked for
// arrival at the segment's end and fed into its target, or else pinned at
// zero with the motion cascaded down the lane; further back, it is pinned
// at ItemSpacing once it closes on the item ahead.
func TransitionPass(speed float64, seg *Segment) {
	if seg.Left.IsActive() {
		updateSide(speed, seg, true)
	}
	if seg.Right.IsActive() {
		updateSide(speed, seg, false)
	}
}
