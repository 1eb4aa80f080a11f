package sim

import (
	"math"

	"github.com/brandon-schabel/td-engine-sub006/internal/core/ecs"
	coresys "github.com/brandon-schabel/td-engine-sub006/internal/core/system"
)

const (
	leakContactDamage     = 10.0
	bossLeakContactDamage = 25.0
)

// MovementSystem advances enemies along their routes and projectiles along
// their headings. Runs before combat so combat resolves against current-tick
// positions. Enemies that reach the goal are marked for destruction here and
// settle in the economy phase as leaks.
type MovementSystem struct {
	w       *World
	effects *TickEffects
}

func NewMovementSystem(w *World, effects *TickEffects) *MovementSystem {
	return &MovementSystem{w: w, effects: effects}
}

func (s *MovementSystem) Phase() coresys.Phase { return coresys.PhaseMovement }

func (s *MovementSystem) Update(dt float64) {
	s.w.Enemies.Each(func(id ecs.EntityID, e *Enemy) {
		e.Progress += e.Speed * dt
		end := float64(len(s.w.Paths.Route(e.Spawn)) - 1)
		if e.Progress >= end {
			e.Progress = end
			s.w.ECS.MarkForDestruction(id)
			dmg := leakContactDamage
			if e.Boss {
				dmg = bossLeakContactDamage
			}
			s.effects.Leaks = append(s.effects.Leaks, LeakRecord{ID: id, DefID: e.DefID, Damage: dmg})
		}
	})

	s.w.Projectiles.Each(func(id ecs.EntityID, p *Projectile) {
		step := p.Speed * dt
		if p.TargetID != 0 {
			// Homing: retarget toward the target's current position every
			// tick. A vanished target is the combat phase's policy call.
			target, ok := s.w.AliveEnemy(p.TargetID)
			if !ok {
				return
			}
			tx, ty := s.w.EnemyPosition(target)
			dx, dy := tx-p.X, ty-p.Y
			dist := math.Hypot(dx, dy)
			if dist <= step {
				p.X, p.Y = tx, ty
				p.Traveled += dist
				return
			}
			p.DirX, p.DirY = dx/dist, dy/dist
		}
		p.X += p.DirX * step
		p.Y += p.DirY * step
		p.Traveled += step
	})
}
