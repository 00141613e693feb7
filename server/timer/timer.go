// Package timer implements the deferral timer: callbacks scheduled to fire
// on a specific future tick, bucketed by tick number so the scheduler only
// has to look up the current tick's bucket each update.
package timer

// Callback runs when a deferred entry's tick arrives.
type Callback func()

// blankCallback is the sentinel a removed entry's slot is replaced with.
// Removing by erasure would shift every other entry's index in the same
// bucket, invalidating their handles; overwriting with a no-op preserves
// every handle's validity instead.
func blankCallback() {}

// Handle identifies a single registration (its tick and its slot in that
// tick's bucket) so it can be removed before it fires. The first
// registration at tick 0 gets a Handle equal to the zero Handle.
type Handle struct {
	tick  uint64
	index int
}

// Timer buckets callbacks by the tick they're due on.
type Timer struct {
	buckets map[uint64][]Callback
}

// New returns an empty Timer.
func New() *Timer {
	return &Timer{buckets: make(map[uint64][]Callback)}
}

// RegisterAtTick schedules cb to run when Update(dueTick) is called.
func (t *Timer) RegisterAtTick(dueTick uint64, cb Callback) Handle {
	bucket := t.buckets[dueTick]
	idx := len(bucket)
	t.buckets[dueTick] = append(bucket, cb)
	return Handle{tick: dueTick, index: idx}
}

// RegisterFromTick schedules cb to run delay ticks after currentTick.
func (t *Timer) RegisterFromTick(currentTick uint64, delay uint64, cb Callback) Handle {
	return t.RegisterAtTick(currentTick+delay, cb)
}

// Remove cancels the entry identified by h by blanking its slot. It does
// nothing when h's tick has no slot at h's index, as once that tick's
// bucket has fired and been forgotten. If entries have since been
// registered again for the same tick, h addresses whichever of them now
// occupies its slot.
func (t *Timer) Remove(h Handle) {
	bucket := t.buckets[h.tick]
	if h.index < 0 || h.index >= len(bucket) {
		return
	}
	bucket[h.index] = blankCallback
}

// Update fires every callback due on tick, then forgets that tick's
// bucket.
func (t *Timer) Update(tick uint64) {
	bucket, ok := t.buckets[tick]
	if !ok {
		return
	}
	for _, cb := range bucket {
		cb()
	}
	delete(t.buckets, tick)
}

// Pending reports how many (possibly blanked) entries are due on tick,
// mostly useful for tests.
func (t *Timer) Pending(tick uint64) int {
	return len(t.buckets[tick])
}
