package world

import "github.com/jaihysc/Jactorio-sub000/server/proto"

// LayerKind selects one of the four layers every tile carries.
type LayerKind uint8

const (
	LayerBase LayerKind = iota
	LayerResource
	LayerEntity
	LayerOverlay

	layerCount
)

// TileLayer holds one layer's worth of state for a single tile. Multi-tile
// entities store the same prototype, orientation and span on every covered
// tile; only the top-left tile's layer has TopLeft == nil, and only it
// carries a meaningful origin.
type TileLayer struct {
	Prototype   proto.Prototype
	Orientation Direction
	Width       uint8
	Height      uint8
	MultiIndex  uint16
	TopLeft     *TileLayer
	Unique      proto.UniqueData

	origin Coord
}

// MultiTile reports whether the layer's prototype spans more than one tile.
func (l *TileLayer) MultiTile() bool {
	return l.Width > 1 || l.Height > 1
}

// IsTopLeft reports whether l is the top-left layer of its region. A layer
// with no prototype is trivially its own top-left.
func (l *TileLayer) IsTopLeft() bool {
	return l.TopLeft == nil
}

// TopLeftLayer returns the top-left layer of l's region, which is l itself
// when l already is the top-left.
func (l *TileLayer) TopLeftLayer() *TileLayer {
	if l.TopLeft != nil {
		return l.TopLeft
	}
	return l
}

// Origin returns the coordinate of l's region's top-left tile. Only
// meaningful when l.IsTopLeft().
func (l *TileLayer) Origin() Coord {
	return l.origin
}

// SetOrigin sets l's origin, used when rehydrating a top-left layer from
// persisted storage.
func (l *TileLayer) SetOrigin(c Coord) {
	l.origin = c
}

// TileCell is the full per-tile state: one TileLayer per LayerKind.
type TileCell struct {
	Layers [layerCount]TileLayer
}

// Layer returns the layer of the given kind.
func (c *TileCell) Layer(kind LayerKind) *TileLayer {
	return &c.Layers[kind]
}
