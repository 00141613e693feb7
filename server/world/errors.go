package world

import "errors"

var (
	// ErrChunkExists is returned by EmplaceChunk when a chunk is already
	// loaded at the requested position.
	ErrChunkExists = errors.New("world: chunk already exists")
	// ErrBlockedByTile is returned by Place when a covered tile's base
	// layer is not passable, or its chunk has not been generated.
	ErrBlockedByTile = errors.New("world: target tile is not buildable")
	// ErrBlockedByEntity is returned by Place when a covered tile's entity
	// layer is already occupied.
	ErrBlockedByEntity = errors.New("world: target tile already has an entity")
	// ErrInvariantViolated marks a condition the engine assumes can never
	// happen in single-threaded operation; seeing it means a caller
	// mutated state outside of the tick boundary the core expects.
	ErrInvariantViolated = errors.New("world: invariant violated")
)
