// Package save persists a world's chunks (tile layers and plain conveyor
// segments) and per-tick pending counts of a deferral timer to a LevelDB
// database, the same storage engine the teacher's world package layers its
// chunk provider on top of. Logic-group registrations are not stored; they
// are rebuilt with RebuildConveyorLogic after loading.
package save

import (
	"bytes"
	"encoding/binary"
	"encoding/gob"
	"fmt"
	"reflect"

	"github.com/df-mc/goleveldb/leveldb"
	"github.com/df-mc/goleveldb/leveldb/errors"
	"github.com/df-mc/goleveldb/leveldb/util"
	"github.com/segmentio/fasthash/fnv1a"

	"github.com/jaihysc/Jactorio-sub000/server/conveyor"
	"github.com/jaihysc/Jactorio-sub000/server/proto"
	"github.com/jaihysc/Jactorio-sub000/server/timer"
	"github.com/jaihysc/Jactorio-sub000/server/world"
)

// DB wraps a LevelDB handle with the key layout this engine stores its
// state under.
type DB struct {
	ldb *leveldb.DB
}

// Open opens (creating if necessary) the LevelDB database at dir.
func Open(dir string) (*DB, error) {
	ldb, err := leveldb.OpenFile(dir, nil)
	if err != nil {
		return nil, fmt.Errorf("save: open %s: %w", dir, err)
	}
	return &DB{ldb: ldb}, nil
}

// Close closes the underlying database.
func (db *DB) Close() error {
	return db.ldb.Close()
}

func chunkKey(pos world.ChunkPos) []byte {
	b := make([]byte, len("chunk/")+8)
	n := copy(b, "chunk/")
	binary.BigEndian.PutUint32(b[n:], uint32(pos.X))
	binary.BigEndian.PutUint32(b[n+4:], uint32(pos.Y))
	return b
}

// chunkRecord is the gob-serializable projection of a world.Chunk: plain
// data only, since Chunk's TileLayer.Unique holds live pointers rather than
// gob-able values. Conveyor segments (conveyor.UniqueData) are re-linked by
// the segment-graph pass below; splitters (conveyor.Splitter) are not
// stored.
type chunkRecord struct {
	PosX, PosY int32
	Cells      [world.ChunkWidth * world.ChunkWidth]cellRecord
}

type cellRecord struct {
	Base, Resource, Entity, Overlay layerRecord
}

type layerRecord struct {
	HasPrototype bool
	PrototypeID  uint32
	Orientation  world.Direction
	Width        uint8
	Height       uint8
	MultiIndex   uint16
	OriginX      int32
	OriginY      int32
	// SegmentID is non-zero when this layer's Unique is a conveyor
	// structure, naming the segment record to rehydrate it from.
	SegmentID uint64
	// StructIndex mirrors conveyor.UniqueData.StructIndex for conveyor
	// layers.
	StructIndex int

	// The remaining fields are only meaningful on the head tile
	// (StructIndex == 0), which is where a segment's own state (as opposed
	// to a tile's reference into it) is recorded.
	Direction       world.Direction
	Termination     conveyor.Termination
	Length          uint8
	HeadOffset      int16
	SideInsertIndex int16
	// TargetSegmentID is the SegmentID of this segment's Target, or 0 if
	// it has none.
	TargetSegmentID uint64
}

// SaveChunk writes c's terrain to the database, identifying prototypes by
// their registry ID so LoadWorld can resolve them back through a
// proto.Registry. Lane items are not stored: a segment's lanes are empty
// after LoadWorld.
func (db *DB) SaveChunk(c *world.Chunk, idOf func(p interface{}) (uint32, bool)) error {
	rec := chunkRecord{PosX: c.Pos.X, PosY: c.Pos.Y}
	for i := 0; i < world.ChunkWidth*world.ChunkWidth; i++ {
		cell := c.CellLocal(int32(i%world.ChunkWidth), int32(i/world.ChunkWidth))
		dst := &rec.Cells[i]
		encodeLayer(&dst.Base, cell.Layer(world.LayerBase), idOf)
		encodeLayer(&dst.Resource, cell.Layer(world.LayerResource), idOf)
		encodeLayer(&dst.Entity, cell.Layer(world.LayerEntity), idOf)
		encodeLayer(&dst.Overlay, cell.Layer(world.LayerOverlay), idOf)
	}

	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(rec); err != nil {
		return fmt.Errorf("save: encode chunk %v: %w", c.Pos, err)
	}
	return db.ldb.Put(chunkKey(c.Pos), buf.Bytes(), nil)
}

func encodeLayer(dst *layerRecord, layer *world.TileLayer, idOf func(p interface{}) (uint32, bool)) {
	if layer.Prototype == nil {
		return
	}
	id, ok := idOf(layer.Prototype)
	if !ok {
		return
	}
	dst.HasPrototype = true
	dst.PrototypeID = id
	dst.Orientation = layer.Orientation
	dst.Width = layer.Width
	dst.Height = layer.Height
	dst.MultiIndex = layer.MultiIndex
	origin := layer.TopLeftLayer().Origin()
	dst.OriginX, dst.OriginY = origin.X, origin.Y
	if data, ok := layer.Unique.(*conveyor.UniqueData); ok {
		seg := data.Structure
		dst.SegmentID = segmentID(seg)
		dst.StructIndex = data.StructIndex
		if data.StructIndex == 0 {
			dst.Direction = seg.Direction
			dst.Termination = seg.Termination
			dst.Length = seg.Length
			dst.HeadOffset = seg.HeadOffset
			dst.SideInsertIndex = seg.SideInsertIndex
			if seg.Target != nil {
				dst.TargetSegmentID = segmentID(seg.Target)
			}
		}
	}
}

// segmentID derives a stable identifier for a segment from its memory
// address, good enough to correlate layers within a single save: the id
// only needs to be unique for the lifetime of one SaveChunk generation,
// not across saves.
func segmentID(seg *conveyor.Segment) uint64 {
	return fnv1a.HashUint64(uint64(reflect.ValueOf(seg).Pointer()))
}

// LoadWorld reads every chunk named in positions, resolving prototypes
// through resolve and sharing one *conveyor.Segment per distinct
// SegmentID across all of them, then reconnects each segment's Target
// pointer now that every segment (regardless of which chunk its head tile
// falls in) has been constructed. The caller must still EmplaceChunk each
// returned chunk into the live World, call World.ResolveMultiTile
// afterwards to relink multi-tile TopLeft pointers, and call
// RebuildConveyorLogic per chunk to restore LogicConveyor registrations
// (LoadWorld only reconstructs the segment graph, not a World's
// logic-chunk bookkeeping). Splitters are not round-tripped: BuildSplitter
// must be called again after load for any splitter tiles. A layer whose
// prototype id resolve does not know is left empty; LoadWorld returns no
// error for it.

func (db *DB) LoadWorld(positions []world.ChunkPos, resolve func(id uint32) (proto.Prototype, bool)) ([]*world.Chunk, error) {
	segments := make(map[uint64]*conveyor.Segment)
	var pendingTargets []pendingTarget

	chunks := make([]*world.Chunk, 0, len(positions))
	for _, pos := range positions {
		c, pending, err := db.loadChunk(pos, resolve, segments)
		if err != nil {
			return nil, err
		}
		chunks = append(chunks, c)
		pendingTargets = append(pendingTargets, pending...)
	}

	for _, pt := range pendingTargets {
		if target, ok := segments[pt.targetID]; ok {
			pt.seg.Target = target
		}
	}
	return chunks, nil
}

type pendingTarget struct {
	seg      *conveyor.Segment
	targetID uint64
}

func (db *DB) loadChunk(pos world.ChunkPos, resolve func(id uint32) (proto.Prototype, bool), segments map[uint64]*conveyor.Segment) (*world.Chunk, []pendingTarget, error) {
	raw, err := db.ldb.Get(chunkKey(pos), nil)
	if err != nil {
		return nil, nil, fmt.Errorf("save: load chunk %v: %w", pos, err)
	}
	var rec chunkRecord
	if err := gob.NewDecoder(bytes.NewReader(raw)).Decode(&rec); err != nil {
		return nil, nil, fmt.Errorf("save: decode chunk %v: %w", pos, err)
	}

	c := &world.Chunk{Pos: world.ChunkPos{X: rec.PosX, Y: rec.PosY}}
	var pending []pendingTarget

	for i := 0; i < world.ChunkWidth*world.ChunkWidth; i++ {
		cell := c.CellLocal(int32(i%world.ChunkWidth), int32(i/world.ChunkWidth))
		src := &rec.Cells[i]
		decodeLayer(cell.Layer(world.LayerBase), &src.Base, resolve, segments, &pending)
		decodeLayer(cell.Layer(world.LayerResource), &src.Resource, resolve, segments, &pending)
		decodeLayer(cell.Layer(world.LayerEntity), &src.Entity, resolve, segments, &pending)
		decodeLayer(cell.Layer(world.LayerOverlay), &src.Overlay, resolve, segments, &pending)
	}
	return c, pending, nil
}

func decodeLayer(dst *world.TileLayer, src *layerRecord, resolve func(id uint32) (proto.Prototype, bool), segments map[uint64]*conveyor.Segment, pending *[]pendingTarget) {
	if !src.HasPrototype {
		return
	}
	p, ok := resolve(src.PrototypeID)
	if !ok {
		return
	}
	*dst = world.TileLayer{
		Prototype:   p,
		Orientation: src.Orientation,
		Width:       src.Width,
		Height:      src.Height,
		MultiIndex:  src.MultiIndex,
	}
	dst.SetOrigin(world.Coord{X: src.OriginX, Y: src.OriginY})
	if src.SegmentID == 0 {
		return
	}
	seg, ok := segments[src.SegmentID]
	if !ok {
		seg = &conveyor.Segment{}
		segments[src.SegmentID] = seg
	}
	dst.Unique = &conveyor.UniqueData{Structure: seg, StructIndex: src.StructIndex}

	if src.StructIndex == 0 {
		seg.Direction = src.Direction
		seg.Termination = src.Termination
		seg.Length = src.Length
		seg.HeadOffset = src.HeadOffset
		seg.SideInsertIndex = src.SideInsertIndex
		if src.TargetSegmentID != 0 {
			*pending = append(*pending, pendingTarget{seg: seg, targetID: src.TargetSegmentID})
		}
	}
}

// RebuildConveyorLogic re-registers every head tile of a plain conveyor
// segment in c under LogicConveyor, since that bookkeeping lives on World
// rather than in the persisted chunk record.
func RebuildConveyorLogic(w *world.World, c *world.Chunk) {
	for i := 0; i < world.ChunkWidth*world.ChunkWidth; i++ {
		cell := c.CellLocal(int32(i%world.ChunkWidth), int32(i/world.ChunkWidth))
		layer := cell.Layer(world.LayerEntity)
		data, ok := layer.Unique.(*conveyor.UniqueData)
		if !ok || data.StructIndex != 0 {
			continue
		}
		coord := world.Coord{
			X: c.Pos.X*world.ChunkWidth + int32(i%world.ChunkWidth),
			Y: c.Pos.Y*world.ChunkWidth + int32(i/world.ChunkWidth),
		}
		w.LogicRegister(world.LogicConveyor, coord, world.LayerEntity)
	}
}

// ChunkExists reports whether a chunk is stored at pos.
func (db *DB) ChunkExists(pos world.ChunkPos) (bool, error) {
	_, err := db.ldb.Get(chunkKey(pos), nil)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, leveldb.ErrNotFound) {
		return false, nil
	}
	return false, err
}

// Positions returns every chunk position stored in the database.
func (db *DB) Positions() ([]world.ChunkPos, error) {
	iter := db.ldb.NewIterator(util.BytesPrefix([]byte("chunk/")), nil)
	defer iter.Release()

	var out []world.ChunkPos
	for iter.Next() {
		key := iter.Key()
		if len(key) < len("chunk/")+8 {
			continue
		}
		off := len("chunk/")
		x := int32(binary.BigEndian.Uint32(key[off:]))
		y := int32(binary.BigEndian.Uint32(key[off+4:]))
		out = append(out, world.ChunkPos{X: x, Y: y})
	}
	return out, iter.Error()
}

// timerKey is the bucket key a deferral timer's due-tick fires under.
func timerKey(tick uint64) []byte {
	b := make([]byte, len("timer/")+8)
	n := copy(b, "timer/")
	binary.BigEndian.PutUint64(b[n:], tick)
	return b
}

// SaveTimerTick records that count callbacks are still pending at tick, so
// a restart can at least account for the backlog even though closures
// themselves aren't serializable. Systems with callbacks that matter past
// a restart should instead re-register them against RegisterAtTick once
// the world is loaded.
func (db *DB) SaveTimerTick(t *timer.Timer, tick uint64) error {
	count := t.Pending(tick)
	if count == 0 {
		return db.ldb.Delete(timerKey(tick), nil)
	}
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], uint64(count))
	return db.ldb.Put(timerKey(tick), buf[:], nil)
}

