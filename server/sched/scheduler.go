// Package sched drives the per-tick update in the fixed order the
// simulation depends on for correctness: the deferral timer fires first,
// then conveyors and splitters move items (pass A), then conveyors and
// splitters transition items onto their targets (pass B, with splitters
// swapping sides between the two passes).
package sched

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/jaihysc/Jactorio-sub000/server/conveyor"
	"github.com/jaihysc/Jactorio-sub000/server/proto"
	"github.com/jaihysc/Jactorio-sub000/server/timer"
	"github.com/jaihysc/Jactorio-sub000/server/topology"
	"github.com/jaihysc/Jactorio-sub000/server/world"
)

// Scheduler owns the current tick counter and runs Step once per game
// tick, fed by the world's logic-group registrations.
type Scheduler struct {
	World *world.World
	Timer *timer.Timer
	Tick  uint64

	stepDuration prometheus.Histogram
	stepsTotal   prometheus.Counter
}

// Metrics are never served over HTTP by this package; callers that want to
// expose them register reg with their own HTTP handler.
func New(w *world.World, t *timer.Timer, reg prometheus.Registerer) *Scheduler {
	s := &Scheduler{
		World: w,
		Timer: t,
		stepDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "jactorio",
			Subsystem: "scheduler",
			Name:      "step_duration_seconds",
			Help:      "Wall time spent executing one tick's fixed update order.",
			Buckets:   prometheus.DefBuckets,
		}),
		stepsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "jactorio",
			Subsystem: "scheduler",
			Name:      "steps_total",
			Help:      "Number of ticks executed.",
		}),
	}
	if reg != nil {
		reg.MustRegister(s.stepDuration, s.stepsTotal)
	}
	return s
}

func conveyorSpeed(w *world.World, coord world.Coord) (float64, bool) {
	cell, ok := w.Tile(coord)
	if !ok {
		return 0, false
	}
	p, ok := cell.Layer(world.LayerEntity).Prototype.(proto.Conveyor)
	if !ok {
		return 0, false
	}
	return p.Speed(), true
}

// Step advances the simulation by one tick.
func (s *Scheduler) Step() {
	start := time.Now()
	defer func() {
		s.stepDuration.Observe(time.Since(start).Seconds())
		s.stepsTotal.Inc()
	}()

	s.Timer.Update(s.Tick)

	conveyors := s.World.LogicEntries(world.LogicConveyor)
	splitters := s.World.LogicEntries(world.LogicSplitter)

	for _, e := range conveyors {
		speed, ok := conveyorSpeed(s.World, e.Coord)
		if !ok {
			continue
		}
		if data, ok := topology.Data(s.World, e.Coord); ok {
			conveyor.MovePass(speed, data.Structure)
		}
	}
	for _, e := range splitters {
		sp, ok := splitterAt(s.World, e.Coord)
		if !ok {
			continue
		}
		speed, ok := conveyorSpeed(s.World, e.Coord)
		if !ok {
			continue
		}
		conveyor.MovePass(speed, sp.Structure)
		conveyor.MovePass(speed, sp.Right)
		conveyor.SwapPass(sp)
	}

	for _, e := range conveyors {
		speed, ok := conveyorSpeed(s.World, e.Coord)
		if !ok {
			continue
		}
		if data, ok := topology.Data(s.World, e.Coord); ok {
			conveyor.TransitionPass(speed, data.Structure)
		}
	}
	for _, e := range splitters {
		sp, ok := splitterAt(s.World, e.Coord)
		if !ok {
			continue
		}
		speed, ok := conveyorSpeed(s.World, e.Coord)
		if !ok {
			continue
		}
		conveyor.TransitionPass(speed, sp.Structure)
		conveyor.TransitionPass(speed, sp.Right)
	}

	s.Tick++
}

func splitterAt(w *world.World, coord world.Coord) (*conveyor.Splitter, bool) {
	cell, ok := w.Tile(coord)
	if !ok {
		return nil, false
	}
	sp, ok := cell.Layer(world.LayerEntity).Unique.(*conveyor.Splitter)
	return sp, ok
}
