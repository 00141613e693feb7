// Package proto describes the read-only external interfaces the simulation
// core consumes: prototype definitions and per-instance unique data. Both
// registries are owned and populated by the host application (recipe
// registry, item registry, GUI, ...); the core only resolves ids to values
// through them.
package proto

// ID identifies a prototype within a Registry. The zero value never refers
// to a valid prototype.
type ID uint32

// Prototype is implemented by every entity/tile definition the world grid
// can place. Category-specific behaviour (conveyor speed, sprite, ...) is
// obtained through further type assertions or narrower interfaces such as
// Conveyor.
type Prototype interface {
	InternalID() ID
}

// Spanned is implemented by prototypes that occupy more than a single tile.
// Prototypes that don't implement it are treated as 1x1.
type Spanned interface {
	Span() (width, height uint8)
}

// Passable is implemented by base-layer prototypes that may or may not be
// built over. A base layer with no Passable implementation is assumed
// passable.
type Passable interface {
	Passable() bool
}

// SpriteRef is an opaque handle to render data. The core never interprets
// it; it is only carried so that it can be round-tripped to a renderer.
type SpriteRef uint32

// Conveyor is the subset of a belt prototype's fields the simulation core
// reads: how fast items move along it, in tile-units per tick, and its
// (opaque) sprite.
type Conveyor interface {
	Prototype
	Speed() float64
	Sprite() SpriteRef
}

// UniqueData is the per-instance state owned by a placed tile layer. The
// core only type-asserts the kinds it understands (conveyor and splitter
// unique data); every other kind passes through opaque.
type UniqueData interface{}

// Registry resolves an ID to the Prototype that was registered under it.
// It is read-only from the simulation's perspective.
type Registry struct {
	byID map[ID]Prototype
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{byID: make(map[ID]Prototype)}
}

// Register adds p under its own InternalID. It panics if the id is already
// registered, mirroring the host's prototype manager rejecting duplicate
// registrations at load time.
func (r *Registry) Register(p Prototype) {
	id := p.InternalID()
	if _, ok := r.byID[id]; ok {
		panic("proto: duplicate prototype id")
	}
	r.byID[id] = p
}

// Lookup resolves id to its Prototype. ok is false if id is unknown.
func (r *Registry) Lookup(id ID) (Prototype, bool) {
	p, ok := r.byID[id]
	return p, ok
}

// DataID identifies a unique-data instance within a DataManager.
type DataID uint64

// DataManager hands out and resolves ids for unique-data instances so they
// can be referenced from the persistence format without embedding pointers.
type DataManager struct {
	next int
	data map[DataID]UniqueData
}

// NewDataManager returns an empty DataManager.
func NewDataManager() *DataManager {
	return &DataManager{data: make(map[DataID]UniqueData)}
}

// Put assigns a fresh id to d and returns it.
func (m *DataManager) Put(d UniqueData) DataID {
	m.next++
	id := DataID(m.next)
	m.data[id] = d
	return id
}

// Lookup resolves id to the unique-data instance previously returned by Put.
func (m *DataManager) Lookup(id DataID) (UniqueData, bool) {
	d, ok := m.data[id]
	return d, ok
}

// Forget releases the instance stored under id, mirroring explicit teardown
// of a process-wide unique-data registry entry.
func (m *DataManager) Forget(id DataID) {
	delete(m.data, id)
}
