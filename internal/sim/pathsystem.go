package sim

import (
	"github.com/brandon-schabel/td-engine-sub006/internal/core/ecs"
	coresys "github.com/brandon-schabel/td-engine-sub006/internal/core/system"
	"github.com/brandon-schabel/td-engine-sub006/internal/path"
)

// PathSystem refreshes cached routes when the grid changed. It runs first in
// the tick so every later phase moves enemies along routes consistent with
// the current tower layout. Enemy progress is a scalar against one specific
// route, so when routes change under live enemies each one is remapped by
// its position: a sell that shortens a route must not teleport anyone
// toward the goal.
type PathSystem struct {
	w *World
}

func NewPathSystem(w *World) *PathSystem { return &PathSystem{w: w} }

func (s *PathSystem) Phase() coresys.Phase { return coresys.PhasePath }

func (s *PathSystem) Update(dt float64) {
	if !s.w.Grid.Dirty() {
		return
	}

	type point struct{ x, y float64 }
	held := make(map[ecs.EntityID]point, s.w.Enemies.Len())
	s.w.Enemies.Each(func(id ecs.EntityID, e *Enemy) {
		x, y := s.w.EnemyPosition(e)
		held[id] = point{x, y}
	})

	s.w.Paths.Refresh()

	s.w.Enemies.Each(func(id ecs.EntityID, e *Enemy) {
		p := held[id]
		e.Progress = path.ProgressAt(s.w.Paths.Route(e.Spawn), p.x, p.y)
	})
}
