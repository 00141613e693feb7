package world

import (
	"encoding/binary"
	"sync"

	"github.com/cespare/xxhash/v2"
)

// UpdateKind distinguishes why a tile's neighbours are being notified.
type UpdateKind uint8

const (
	UpdatePlace UpdateKind = iota
	UpdateRemove
)

// Listener is notified when the tile it registered interest in changes.
type Listener interface {
	OnTileUpdate(emitter, receiver Coord, kind UpdateKind)
}

// ListenerHandle identifies a single registration so it can be unregistered
// later. It is opaque to callers.
type ListenerHandle struct {
	bucket uint64
	index  int
}

type dispatchEntry struct {
	emitter  Coord
	receiver Coord
	listener Listener
}

// UpdateDispatcher lets tiles subscribe to updates on other tiles, keyed by
// the emitting coordinate. Entries hash into buckets with xxhash; because
// buckets can collide across distinct coordinates, Dispatch always compares
// the full emitter coordinate before firing. Unregistering never shifts
// other entries' indices: the slot is tombstoned (listener set to nil)
// rather than erased, the same pattern the deferral timer uses for handle
// stability.
type UpdateDispatcher struct {
	mu      sync.Mutex
	buckets map[uint64][]dispatchEntry
}

// NewUpdateDispatcher returns an empty dispatcher.
func NewUpdateDispatcher() *UpdateDispatcher {
	return &UpdateDispatcher{buckets: make(map[uint64][]dispatchEntry)}
}

func hashCoord(c Coord) uint64 {
	var buf [8]byte
	binary.LittleEndian.PutUint32(buf[0:4], uint32(c.X))
	binary.LittleEndian.PutUint32(buf[4:8], uint32(c.Y))
	return xxhash.Sum64(buf[:])
}

// Register subscribes listener to updates emitted at emitter, tagging the
// notification with receiver so the listener knows which of its own tiles
// the update concerns.
func (d *UpdateDispatcher) Register(emitter, receiver Coord, listener Listener) ListenerHandle {
	d.mu.Lock()
	defer d.mu.Unlock()
	h := hashCoord(emitter)
	bucket := d.buckets[h]
	idx := len(bucket)
	d.buckets[h] = append(bucket, dispatchEntry{emitter: emitter, receiver: receiver, listener: listener})
	return ListenerHandle{bucket: h, index: idx}
}

// Unregister removes the registration identified by handle. It is a no-op
// if handle was already unregistered.
func (d *UpdateDispatcher) Unregister(handle ListenerHandle) {
	d.mu.Lock()
	defer d.mu.Unlock()
	bucket := d.buckets[handle.bucket]
	if handle.index < 0 || handle.index >= len(bucket) {
		return
	}
	bucket[handle.index].listener = nil
}

// Dispatch notifies every listener registered against coord.
func (d *UpdateDispatcher) Dispatch(coord Coord, kind UpdateKind) {
	d.mu.Lock()
	bucket := d.buckets[hashCoord(coord)]
	entries := make([]dispatchEntry, len(bucket))
	copy(entries, bucket)
	d.mu.Unlock()

	for _, e := range entries {
		if e.listener == nil || e.emitter != coord {
			continue
		}
		e.listener.OnTileUpdate(e.emitter, e.receiver, kind)
	}
}
