// Package itemset is a minimal stand-in for the host application's
// prototype definitions: a single belt prototype good enough to drive the
// CLI and the engine's tests without pulling in a full recipe/item system.
package itemset

import "github.com/jaihysc/Jactorio-sub000/server/proto"

// Belt is a straightforward proto.Conveyor implementation: one speed, one
// sprite, registered once under a fixed ID.
type Belt struct {
	ID      proto.ID
	Speed_  float64
	Sprite_ proto.SpriteRef
}

func (b Belt) InternalID() proto.ID    { return b.ID }
func (b Belt) Speed() float64          { return b.Speed_ }
func (b Belt) Sprite() proto.SpriteRef { return b.Sprite_ }

// Ground is a simple passable base-layer prototype.
type Ground struct {
	ID proto.ID
}

func (g Ground) InternalID() proto.ID { return g.ID }
func (g Ground) Passable() bool       { return true }

// NewRegistry returns a registry pre-populated with one belt speed tier
// and one ground tile, IDs 1 and 2 respectively, enough for the CLI and
// package tests to place and tick belts without defining their own
// prototypes.
func NewRegistry() *proto.Registry {
	r := proto.NewRegistry()
	r.Register(Belt{ID: 1, Speed_: 0.03125})
	r.Register(Ground{ID: 2})
	return r
}
