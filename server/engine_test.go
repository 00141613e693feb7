package server

import (
	"path/filepath"
	"testing"

	"github.com/jaihysc/Jactorio-sub000/server/itemset"
	"github.com/jaihysc/Jactorio-sub000/server/proto"
	"github.com/jaihysc/Jactorio-sub000/server/topology"
	"github.com/jaihysc/Jactorio-sub000/server/world"
)

func TestEngineNewPreloadsConfiguredChunks(t *testing.T) {
	conf := Config{ChunkPreload: []ChunkPosConfig{{X: 0, Y: 0}, {X: 1, Y: 0}}}
	e, err := conf.New()
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	defer e.Close()

	if _, ok := e.World.Chunk(world.ChunkPos{X: 0, Y: 0}); !ok {
		t.Fatal("expected chunk (0,0) to be preloaded")
	}
	if _, ok := e.World.Chunk(world.ChunkPos{X: 1, Y: 0}); !ok {
		t.Fatal("expected chunk (1,0) to be preloaded")
	}
}

func TestEngineStepAdvancesTickCounter(t *testing.T) {
	conf := Config{ChunkPreload: []ChunkPosConfig{{X: 0, Y: 0}}}
	e, err := conf.New()
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	defer e.Close()

	e.Step()
	if e.Sched.Tick != 1 {
		t.Fatalf("expected the scheduler tick to advance to 1, got %d", e.Sched.Tick)
	}
}

func TestEngineWithoutSaveFolderIsNotPersisting(t *testing.T) {
	conf := Config{ChunkPreload: []ChunkPosConfig{{X: 0, Y: 0}}}
	e, err := conf.New()
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	defer e.Close()

	if e.Persisting() {
		t.Fatal("expected an Engine with no SaveFolder to report not persisting")
	}
	if err := e.SaveAll(nil); err != nil {
		t.Fatalf("SaveAll should be a no-op without a save folder, got %v", err)
	}
}

func TestEngineSaveAllPersistsPlacedConveyors(t *testing.T) {
	conf := Config{
		SaveFolder:   filepath.Join(t.TempDir(), "world"),
		ChunkPreload: []ChunkPosConfig{{X: 0, Y: 0}},
	}
	e, err := conf.New()
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	defer e.Close()

	if !e.Persisting() {
		t.Fatal("expected an Engine with SaveFolder set to report persisting")
	}

	registry := itemset.NewRegistry()
	p, ok := registry.Lookup(1)
	if !ok {
		t.Fatal("expected the itemset registry to have a belt at id 1")
	}
	belt := p.(proto.Conveyor)

	coord := world.Coord{X: 4, Y: 4}
	if err := topology.Build(e.World, coord, world.Right, belt); err != nil {
		t.Fatalf("build: %v", err)
	}

	idOf := func(pr interface{}) (uint32, bool) {
		if pr == belt {
			return uint32(belt.InternalID()), true
		}
		return 0, false
	}
	if err := e.SaveAll(idOf); err != nil {
		t.Fatalf("save all: %v", err)
	}
}
