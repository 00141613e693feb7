package world

import (
	"log/slog"
	"sync"

	"github.com/brentp/intintmap"
	"github.com/google/uuid"

	"github.com/jaihysc/Jactorio-sub000/server/proto"
)

// Config configures a World. Log defaults to slog.Default() when nil, the
// same zero-value convention the rest of the engine uses.
type Config struct {
	Log *slog.Logger
}

// New builds a World from conf.
func (conf Config) New() *World {
	if conf.Log == nil {
		conf.Log = slog.Default()
	}
	return &World{
		conf:       conf,
		id:         uuid.New(),
		index:      intintmap.New(64, 0.65),
		Dispatcher: NewUpdateDispatcher(),
	}
}

// World is a chunked tile grid. Chunks are allocated lazily through
// EmplaceChunk; tile reads/writes against an unloaded chunk report "not
// found" rather than erroring, matching the source engine's treatment of a
// null chunk pointer as an ordinary negative result.
type World struct {
	conf Config
	id   uuid.UUID

	mu     sync.Mutex
	index  *intintmap.Map // ChunkPos.key() -> index into chunks
	chunks []*Chunk

	// logicChunks tracks only the chunks that have at least one non-empty
	// logic group, so the scheduler never has to scan pure-terrain chunks.
	logicChunks []*Chunk

	Dispatcher *UpdateDispatcher
}

// ID returns the world's identity, a random UUID assigned by Config.New.
// The save package's keys do not include it.
func (w *World) ID() uuid.UUID {
	return w.id
}

// Log returns the logger the world was configured with.
func (w *World) Log() *slog.Logger {
	return w.conf.Log
}

// EmplaceChunk allocates and registers a new, empty chunk at pos. It
// returns ErrChunkExists if one is already loaded there.
func (w *World) EmplaceChunk(pos ChunkPos) (*Chunk, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	key := pos.key()
	if _, ok := w.index.Get(key); ok {
		return nil, ErrChunkExists
	}
	c := &Chunk{Pos: pos}
	idx := int64(len(w.chunks))
	w.chunks = append(w.chunks, c)
	w.index.Put(key, idx)
	return c, nil
}

// Chunk returns the chunk loaded at pos, if any.
func (w *World) Chunk(pos ChunkPos) (*Chunk, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	idx, ok := w.index.Get(pos.key())
	if !ok {
		return nil, false
	}
	return w.chunks[idx], true
}

// Chunks returns every currently loaded chunk. The slice is a snapshot and
// safe to range over without holding any lock.
func (w *World) Chunks() []*Chunk {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]*Chunk, len(w.chunks))
	copy(out, w.chunks)
	return out
}

// Tile returns the cell at coord, if its chunk is loaded.
func (w *World) Tile(coord Coord) (*TileCell, bool) {
	chunk, ok := w.Chunk(coord.Chunk())
	if !ok {
		return nil, false
	}
	return chunk.Cell(coord), true
}

// TileTopLeft returns the top-left cell of the multi-tile region covering
// coord's entity layer, and that layer itself. If coord's entity layer is
// empty or single-tile, it returns coord's own cell and layer.
func (w *World) TileTopLeft(coord Coord) (*TileCell, *TileLayer, bool) {
	cell, ok := w.Tile(coord)
	if !ok {
		return nil, nil, false
	}
	layer := cell.Layer(LayerEntity)
	top := layer.TopLeftLayer()
	if top == layer {
		return cell, layer, true
	}
	origin := top.origin
	topCell, ok := w.Tile(origin)
	if !ok {
		return nil, nil, false
	}
	return topCell, top, true
}

func buildable(cell *TileCell) error {
	base := cell.Layer(LayerBase)
	if base.Prototype != nil {
		if p, ok := base.Prototype.(proto.Passable); ok && !p.Passable() {
			return ErrBlockedByTile
		}
	}
	if cell.Layer(LayerEntity).Prototype != nil {
		return ErrBlockedByEntity
	}
	return nil
}

// Place sets the entity layer at coord (and, for multi-tile prototypes,
// every tile the prototype's span covers) to p, oriented o. Every covered
// tile must currently be buildable: base-tile passable, entity-layer empty.
// Passing a nil p is equivalent to calling Remove(coord).
func (w *World) Place(coord Coord, o Direction, p proto.Prototype) error {
	if p == nil {
		return w.Remove(coord)
	}
	width, height := uint8(1), uint8(1)
	if spanned, ok := p.(proto.Spanned); ok {
		width, height = spanned.Span()
	}

	cells := make([]*TileCell, 0, int(width)*int(height))
	for dy := uint8(0); dy < height; dy++ {
		for dx := uint8(0); dx < width; dx++ {
			cc := Coord{X: coord.X + int32(dx), Y: coord.Y + int32(dy)}
			cell, ok := w.Tile(cc)
			if !ok {
				return ErrBlockedByTile
			}
			if err := buildable(cell); err != nil {
				return err
			}
			cells = append(cells, cell)
		}
	}

	var topLeft *TileLayer
	i := 0
	for dy := uint8(0); dy < height; dy++ {
		for dx := uint8(0); dx < width; dx++ {
			layer := cells[i].Layer(LayerEntity)
			*layer = TileLayer{
				Prototype:   p,
				Orientation: o,
				Width:       width,
				Height:      height,
				MultiIndex:  uint16(i),
			}
			if i == 0 {
				layer.origin = coord
				topLeft = layer
			} else {
				layer.TopLeft = topLeft
			}
			i++
		}
	}
	w.Dispatcher.Dispatch(coord, UpdatePlace)
	return nil
}

// Remove clears the multi-tile region whose entity layer covers coord. It
// is a no-op if coord's entity layer is already empty.
func (w *World) Remove(coord Coord) error {
	topCell, top, ok := w.TileTopLeft(coord)
	if !ok || top.Prototype == nil {
		return nil
	}
	origin := top.origin
	width, height := top.Width, top.Height
	_ = topCell

	for dy := uint8(0); dy < height; dy++ {
		for dx := uint8(0); dx < width; dx++ {
			cc := Coord{X: origin.X + int32(dx), Y: origin.Y + int32(dy)}
			if cell, ok := w.Tile(cc); ok {
				*cell.Layer(LayerEntity) = TileLayer{}
			}
		}
	}
	w.Dispatcher.Dispatch(coord, UpdateRemove)
	return nil
}

// ResolveMultiTile re-links every multi-tile region's TopLeft pointers. It
// must be called once after loading chunks from persistence, since the
// on-disk format stores width/height/origin per cell rather than live
// pointers.
func (w *World) ResolveMultiTile() {
	for _, c := range w.Chunks() {
		for i := range c.cells {
			layer := c.cells[i].Layer(LayerEntity)
			if layer.Prototype == nil || !layer.MultiTile() || layer.MultiIndex == 0 {
				continue
			}
			topCell, ok := w.Tile(layer.origin)
			if !ok {
				w.conf.Log.Error("resolve multi-tile: origin chunk missing", "origin", layer.origin)
				continue
			}
			layer.TopLeft = topCell.Layer(LayerEntity)
		}
	}
}

// LogicRegister registers coord's given layer into group. The owning chunk
// is added to the scheduler's logic-chunk set if this is its first
// registration.
func (w *World) LogicRegister(group LogicGroup, coord Coord, layer LayerKind) {
	chunk, ok := w.Chunk(coord.Chunk())
	if !ok {
		w.conf.Log.Error("logic register against unloaded chunk", "coord", coord)
		return
	}
	hadLogic := chunk.hasLogic()
	chunk.logicRegister(group, coord, layer)
	if !hadLogic {
		w.mu.Lock()
		w.logicChunks = append(w.logicChunks, chunk)
		w.mu.Unlock()
	}
}

// LogicRemove removes every entry in group on coord's chunk matching
// layer.
func (w *World) LogicRemove(group LogicGroup, coord Coord, layer LayerKind) {
	chunk, ok := w.Chunk(coord.Chunk())
	if !ok {
		return
	}
	chunk.logicRemove(group, func(e LogicEntry) bool {
		return e.Coord == coord && e.Layer == layer
	})
	if !chunk.hasLogic() {
		w.mu.Lock()
		for i, c := range w.logicChunks {
			if c == chunk {
				w.logicChunks = append(w.logicChunks[:i], w.logicChunks[i+1:]...)
				break
			}
		}
		w.mu.Unlock()
	}
}

// LogicEntries returns every entry registered in group, across every chunk
// that has logic registrations. The returned slice is a fresh copy safe to
// range over while the world mutates.
func (w *World) LogicEntries(group LogicGroup) []LogicEntry {
	w.mu.Lock()
	chunks := make([]*Chunk, len(w.logicChunks))
	copy(chunks, w.logicChunks)
	w.mu.Unlock()

	var out []LogicEntry
	for _, c := range chunks {
		out = append(out, c.LogicEntries(group)...)
	}
	return out
}

// UpdateDispatch notifies coord's registered listeners without mutating
// any tile, used when a change elsewhere (e.g. a resource depleting)
// should be treated as an update at coord.
func (w *World) UpdateDispatch(coord Coord, kind UpdateKind) {
	w.Dispatcher.Dispatch(coord, kind)
}
