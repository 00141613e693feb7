package conveyor

// Splitter pairs two parallel segments (Structure and Right) that share a
// swap stage: items crossing from one side to the other do so only after
// being observed eligible for one tick, then swapped the next, which keeps
// the swap from oscillating an item back and forth every update. The one
// exception is a lone candidate leaving a side that has no Target: it
// crosses on the tick it is first observed (see crossCheck). Left and
// right lanes never mix: a left-lane item can only ever swap with the
// other segment's left lane, likewise for right.
type Splitter struct {
	Structure *Segment
	Right     *Segment
	// Swap records that a crossing was observed last tick but deferred;
	// the next tick performs it. It is shared by both lane pairs.
	Swap bool
}

type swapCandidate struct {
	index         int
	distFromFront float64
}

// splitterSwapSpeedMargin bounds how far past SplitterThreshold an item may
// sit and still be a swap candidate. It is a fixed tile distance and does
// not depend on the conveyor's speed; when several items fall inside the
// window, findSwapCandidate picks the one nearest the head.
const splitterSwapSpeedMargin = 1.0

func findSwapCandidate(lane *Lane, laneLength float64) (swapCandidate, bool) {
	distFromFront := 0.0
	for i := range lane.items {
		distFromFront += lane.items[i].Dist
		distFromRear := laneLength - distFromFront
		if distFromRear > SplitterThreshold && distFromRear < SplitterThreshold+splitterSwapSpeedMargin {
			return swapCandidate{index: i, distFromFront: distFromFront}, true
		}
	}
	return swapCandidate{}, false
}

func segmentLaneLength(seg *Segment, left bool) float64 {
	return float64(seg.Length) - TerminationDeduction(seg.Termination, left)
}

// SwapPass runs the splitter swap stage for both lane pairs (left lane of
// both segments, then right lane of both segments).
func SwapPass(s *Splitter) {
	structureHasTarget := s.Structure.Target != nil
	rightHasTarget := s.Right.Target != nil
	swapped := false

	ll, llOK := findSwapCandidate(&s.Structure.Left, segmentLaneLength(s.Structure, true))
	rl, rlOK := findSwapCandidate(&s.Right.Left, segmentLaneLength(s.Right, true))
	proceed, did := trySwapPair(s, &s.Structure.Left, &s.Right.Left, ll, llOK, rl, rlOK, structureHasTarget, rightHasTarget)
	if !proceed {
		return
	}
	swapped = swapped || did

	lr, lrOK := findSwapCandidate(&s.Structure.Right, segmentLaneLength(s.Structure, false))
	rr, rrOK := findSwapCandidate(&s.Right.Right, segmentLaneLength(s.Right, false))
	proceed, did = trySwapPair(s, &s.Structure.Right, &s.Right.Right, lr, lrOK, rr, rrOK, structureHasTarget, rightHasTarget)
	if !proceed {
		return
	}
	swapped = swapped || did

	if swapped {
		s.Swap = false
	}
}

// trySwapPair applies the swap rule to one (fromLane, toLane) pair, where
// fromLane is always the Structure-side lane and toLane the Right-side
// lane of the pair. It returns proceed=false when it stopped early to
// stage a deferred crossing, which must also abort the other pair this
// tick (mirroring the source, which returns out of the whole splitter
// update). executed reports whether an actual (non-staged) swap happened.
func trySwapPair(s *Splitter, fromLane, toLane *Lane, fromC swapCandidate, fromHas bool, toC swapCandidate, toHas bool, fromSideHasTarget, toSideHasTarget bool) (proceed, executed bool) {
	switch {
	case fromHas != toHas:
		if fromHas {
			// Crossing from the Structure side to the Right side: the
			// source (about to leave) is the Structure side.
			if !crossCheck(s, fromSideHasTarget) {
				return false, false
			}
			return true, doSwapTo(fromLane, toLane, fromC)
		}
		// Crossing from the Right side to the Structure side.
		if !crossCheck(s, toSideHasTarget) {
			return false, false
		}
		return true, doSwapTo(toLane, fromLane, toC)

	case fromHas && toHas:
		if !s.Swap {
			s.Swap = true
			return false, false
		}
		fromLane.items[fromC.index].Item, toLane.items[toC.index].Item =
			toLane.items[toC.index].Item, fromLane.items[fromC.index].Item
		return true, true

	default:
		return true, false
	}
}

// crossCheck reports whether a crossing observed this tick should execute
// immediately. If the side the item is leaving has no target at all, there
// is no flow to preserve compression for, so the crossing happens right
// away; otherwise the first observation only stages it (Swap = true) and
// lets the item pass through unchanged this tick.
func crossCheck(s *Splitter, sourceSideHasTarget bool) bool {
	if sourceSideHasTarget && !s.Swap {
		s.Swap = true
		return false
	}
	return true
}

func doSwapTo(from, to *Lane, c swapCandidate) bool {
	item := from.items[c.index].Item
	if to.TryInsertItem(c.distFromFront, item, 0) {
		from.RemoveItem(c.index)
		return true
	}
	return false
}
