// Package server wires together the world grid, conveyor topology, tick
// scheduler and persistence layer into a single runnable engine, and
// loads its configuration from disk.
package server

import (
	"fmt"
	"log/slog"

	"github.com/jaihysc/Jactorio-sub000/server/save"
	"github.com/jaihysc/Jactorio-sub000/server/sched"
	"github.com/jaihysc/Jactorio-sub000/server/timer"
	"github.com/jaihysc/Jactorio-sub000/server/world"
)

// Engine owns a single world and the scheduler driving its tick loop. It
// is the top-level object an embedding process (or the jactorioctl CLI)
// constructs from a Config.
type Engine struct {
	conf  Config
	World *world.World
	Timer *timer.Timer
	Sched *sched.Scheduler
	db    *save.DB
}

// New builds an Engine from conf. If conf.SaveFolder is set, its LevelDB
// database is opened (created if missing) so the Engine can later persist
// and reload state; the world itself always starts empty, since loading
// persisted chunks back in requires a caller-supplied prototype registry
// (see save.DB.LoadWorld); the Engine itself has no load method.
func (conf Config) New() (*Engine, error) {
	if conf.Log == nil {
		conf.Log = slog.Default()
	}
	w := world.Config{Log: conf.Log}.New()
	t := timer.New()
	s := sched.New(w, t, conf.Metrics)

	e := &Engine{conf: conf, World: w, Timer: t, Sched: s}
	if conf.SaveFolder != "" {
		db, err := save.Open(conf.SaveFolder)
		if err != nil {
			return nil, fmt.Errorf("open save folder: %w", err)
		}
		e.db = db
	}
	for _, pos := range conf.ChunkPreload {
		if _, err := w.EmplaceChunk(world.ChunkPos{X: pos.X, Y: pos.Y}); err != nil {
			conf.Log.Warn("preload chunk", "pos", pos, "error", err)
		}
	}
	return e, nil
}

// Step advances the simulation by one tick.
func (e *Engine) Step() {
	e.Sched.Step()
}

// Persisting reports whether the Engine was configured with a save
// folder.
func (e *Engine) Persisting() bool {
	return e.db != nil
}

// SaveAll writes every loaded chunk to the Engine's database. idOf maps a
// live prototype to its registry ID for persistence. It is a no-op (and
// returns nil) if the Engine has no save folder configured.
func (e *Engine) SaveAll(idOf func(p interface{}) (uint32, bool)) error {
	if e.db == nil {
		return nil
	}
	for _, c := range e.World.Chunks() {
		if err := e.db.SaveChunk(c, idOf); err != nil {
			return err
		}
	}
	return nil
}

// Close releases the Engine's database handle, if any.
func (e *Engine) Close() error {
	if e.db == nil {
		return nil
	}
	return e.db.Close()
}
