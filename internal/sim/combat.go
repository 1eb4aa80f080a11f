package sim

import (
	"fmt"
	"math"

	"github.com/brandon-schabel/td-engine-sub006/internal/core/ecs"
	coresys "github.com/brandon-schabel/td-engine-sub006/internal/core/system"
	"github.com/brandon-schabel/td-engine-sub006/internal/data"
)

const (
	// hitRadius is the proximity, in cells, at which a projectile connects.
	hitRadius = 0.3
	// ballisticRangeFactor scales a tower's range into the travel budget of
	// its ballistic shots.
	ballisticRangeFactor = 1.25
)

// CombatSystem resolves projectile impacts, then lets towers and the player
// fire. Impacts come first so shots spawned this tick fly at least one
// movement phase before they can connect. Damage is applied exactly once per
// projectile; deaths are marked for end-of-tick destruction and settle as
// rewards in the economy phase.
type CombatSystem struct {
	w       *World
	effects *TickEffects
}

func NewCombatSystem(w *World, effects *TickEffects) *CombatSystem {
	return &CombatSystem{w: w, effects: effects}
}

func (s *CombatSystem) Phase() coresys.Phase { return coresys.PhaseCombat }

func (s *CombatSystem) Update(dt float64) {
	s.resolveImpacts()
	s.fireTowers(dt)
	s.firePlayer(dt)
}

func (s *CombatSystem) resolveImpacts() {
	s.w.Projectiles.Each(func(id ecs.EntityID, p *Projectile) {
		switch p.Kind {
		case data.ProjectileHoming:
			target, ok := s.w.AliveEnemy(p.TargetID)
			if !ok {
				// Target died mid-flight: homing shots are discarded, by
				// the per-type policy in the tower definition.
				s.w.ECS.MarkForDestruction(id)
				return
			}
			tx, ty := s.w.EnemyPosition(target)
			if math.Hypot(tx-p.X, ty-p.Y) <= hitRadius {
				s.applyDamage(p.TargetID, target, p.Damage, p.Owner)
				s.w.ECS.MarkForDestruction(id)
			}
		case data.ProjectileBallistic:
			// Hits whatever crosses its position, original target or not.
			if hitID, hit := s.nearestEnemy(p.X, p.Y, hitRadius); hit {
				e, _ := s.w.AliveEnemy(hitID)
				s.applyDamage(hitID, e, p.Damage, p.Owner)
				s.w.ECS.MarkForDestruction(id)
				return
			}
			if p.Traveled >= p.MaxRange {
				s.w.ECS.MarkForDestruction(id)
			}
		default:
			panic(fmt.Sprintf("sim: projectile %d has unknown kind %q", id, p.Kind))
		}
	})
}

func (s *CombatSystem) fireTowers(dt float64) {
	s.w.Towers.Each(func(id ecs.EntityID, t *Tower) {
		if t.Cooldown > 0 {
			t.Cooldown -= dt
		}
		if t.Cooldown > 0 {
			return
		}
		tx, ty := float64(t.Cell.X), float64(t.Cell.Y)
		targetID, found := s.nearestEnemy(tx, ty, t.Range)
		if !found {
			return
		}
		s.spawnProjectile(id, tx, ty, targetID, t.Projectile, t.Damage, t.ProjectileSpeed, t.Range)
		t.Cooldown = 1 / t.FireRate
	})
}

func (s *CombatSystem) firePlayer(dt float64) {
	p := s.w.Player
	if p.Cooldown > 0 {
		p.Cooldown -= dt
	}
	if p.Health <= 0 || p.Cooldown > 0 {
		return
	}
	targetID, found := s.nearestEnemy(p.X, p.Y, p.Range)
	if !found {
		return
	}
	damage := p.Damage * p.EffectMultiplier(data.EffectDamageBoost)
	fireRate := p.FireRate * p.EffectMultiplier(data.EffectFireRateBoost)
	s.spawnProjectile(s.w.PlayerID, p.X, p.Y, targetID, data.ProjectileHoming, damage, p.ProjectileSpeed, p.Range)
	p.Cooldown = 1 / fireRate
}

// nearestEnemy selects the closest live enemy within radius of (x, y).
// Equal distances break toward the lowest entity id, so targeting is a pure
// function of the world state.
func (s *CombatSystem) nearestEnemy(x, y, radius float64) (ecs.EntityID, bool) {
	r2 := radius * radius
	var bestID ecs.EntityID
	bestDist := math.MaxFloat64
	found := false
	s.w.Enemies.Each(func(id ecs.EntityID, e *Enemy) {
		if s.w.ECS.PendingDestruction(id) {
			return
		}
		ex, ey := s.w.EnemyPosition(e)
		d2 := (ex-x)*(ex-x) + (ey-y)*(ey-y)
		if d2 > r2 {
			return
		}
		if !found || d2 < bestDist || (d2 == bestDist && id < bestID) {
			bestID, bestDist, found = id, d2, true
		}
	})
	return bestID, found
}

func (s *CombatSystem) spawnProjectile(owner ecs.EntityID, x, y float64, targetID ecs.EntityID, kind data.ProjectileKind, damage, speed, launchRange float64) {
	target, ok := s.w.AliveEnemy(targetID)
	if !ok {
		panic(fmt.Sprintf("sim: firing at missing enemy %d", targetID))
	}
	tx, ty := s.w.EnemyPosition(target)
	dx, dy := tx-x, ty-y
	dist := math.Hypot(dx, dy)
	dirX, dirY := 0.0, 1.0
	if dist > 0 {
		dirX, dirY = dx/dist, dy/dist
	}

	p := &Projectile{
		Kind:   kind,
		X:      x,
		Y:      y,
		DirX:   dirX,
		DirY:   dirY,
		Speed:  speed,
		Damage: damage,
		Owner:  owner,
	}
	switch kind {
	case data.ProjectileHoming:
		p.TargetID = targetID
	case data.ProjectileBallistic:
		p.MaxRange = launchRange * ballisticRangeFactor
	}
	id := s.w.ECS.CreateEntity()
	s.w.Projectiles.Set(id, p)
}

func (s *CombatSystem) applyDamage(id ecs.EntityID, e *Enemy, damage float64, killer ecs.EntityID) {
	e.Health -= damage
	if e.Health > 0 {
		return
	}
	s.w.ECS.MarkForDestruction(id)
	ex, ey := s.w.EnemyPosition(e)
	s.effects.Kills = append(s.effects.Kills, KillRecord{
		ID:     id,
		DefID:  e.DefID,
		Killer: killer,
		Reward: e.Reward,
		X:      ex,
		Y:      ey,
	})
}
