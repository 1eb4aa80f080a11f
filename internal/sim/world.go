package sim

import (
	"github.com/brandon-schabel/td-engine-sub006/internal/core/ecs"
	"github.com/brandon-schabel/td-engine-sub006/internal/core/event"
	"github.com/brandon-schabel/td-engine-sub006/internal/data"
	"github.com/brandon-schabel/td-engine-sub006/internal/grid"
	"github.com/brandon-schabel/td-engine-sub006/internal/path"
)

// World bundles the entity stores and shared simulation state the systems
// operate on. Exclusively owned by the engine's tick scope; nothing outside
// the engine mutates it.
type World struct {
	ECS    *ecs.World
	Bus    *event.Bus
	Tables *data.Tables
	Grid   *grid.Grid
	Paths  *path.Planner

	Towers       *ecs.Store[Tower]
	Enemies      *ecs.Store[Enemy]
	Projectiles  *ecs.Store[Projectile]
	Collectibles *ecs.Store[Collectible]

	// Exactly one player unit, created at engine start.
	PlayerID ecs.EntityID
	Player   *PlayerUnit

	GameTime float64 // seconds of simulated time while PLAYING
	Lives    int
	Score    int
}

func NewWorld(tables *data.Tables, g *grid.Grid, planner *path.Planner, bus *event.Bus, lives int) *World {
	w := &World{
		ECS:          ecs.NewWorld(),
		Bus:          bus,
		Tables:       tables,
		Grid:         g,
		Paths:        planner,
		Towers:       ecs.NewStore[Tower](),
		Enemies:      ecs.NewStore[Enemy](),
		Projectiles:  ecs.NewStore[Projectile](),
		Collectibles: ecs.NewStore[Collectible](),
		Lives:        lives,
	}
	w.ECS.Registry().Register(w.Towers)
	w.ECS.Registry().Register(w.Enemies)
	w.ECS.Registry().Register(w.Projectiles)
	w.ECS.Registry().Register(w.Collectibles)

	tpl := tables.Player
	w.PlayerID = w.ECS.CreateEntity()
	w.Player = &PlayerUnit{
		X:               float64(tables.Map.PlayerCell.X),
		Y:               float64(tables.Map.PlayerCell.Y),
		Health:          tpl.MaxHealth,
		MaxHealth:       tpl.MaxHealth,
		Damage:          tpl.Damage,
		FireRate:        tpl.FireRate,
		ProjectileSpeed: tpl.ProjectileSpeed,
		Range:           tables.Map.PlayerRange,
		PickupRadius:    tpl.PickupRadius,
	}
	return w
}

// EnemyPosition derives an enemy's continuous position from its route
// progress.
func (w *World) EnemyPosition(e *Enemy) (x, y float64) {
	return path.Interpolate(w.Paths.Route(e.Spawn), e.Progress)
}

// AliveEnemy returns the enemy for id unless it is gone or already marked
// for end-of-tick destruction.
func (w *World) AliveEnemy(id ecs.EntityID) (*Enemy, bool) {
	if w.ECS.PendingDestruction(id) {
		return nil, false
	}
	e, ok := w.Enemies.Get(id)
	return e, ok
}
