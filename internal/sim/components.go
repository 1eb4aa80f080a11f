package sim

import (
	"github.com/brandon-schabel/td-engine-sub006/internal/core/ecs"
	"github.com/brandon-schabel/td-engine-sub006/internal/data"
	"github.com/brandon-schabel/td-engine-sub006/internal/grid"
)

// UpgradeAttr names an upgradeable attribute. Towers upgrade damage, range
// and fire rate; the player upgrades damage, fire rate and max health.
type UpgradeAttr string

const (
	AttrDamage    UpgradeAttr = "damage"
	AttrRange     UpgradeAttr = "range"
	AttrFireRate  UpgradeAttr = "fire_rate"
	AttrMaxHealth UpgradeAttr = "max_health"
)

// Tower occupies exactly one grid cell. Effective stats are recomputed from
// the template whenever an upgrade lands; Spent accrues purchase plus every
// upgrade and drives the sell refund.
type Tower struct {
	DefID string
	Cell  grid.Cell

	Damage          float64
	Range           float64
	FireRate        float64
	ProjectileSpeed float64
	Projectile      data.ProjectileKind

	Cooldown float64 // seconds until the next shot is allowed

	DamageLevel   int
	RangeLevel    int
	FireRateLevel int
	UpgradesDone  int // total upgrades bought, indexes the shared cost curve
	Spent         int
}

// Level returns the tower's level for attr.
func (t *Tower) Level(attr UpgradeAttr) (int, bool) {
	switch attr {
	case AttrDamage:
		return t.DamageLevel, true
	case AttrRange:
		return t.RangeLevel, true
	case AttrFireRate:
		return t.FireRateLevel, true
	}
	return 0, false
}

// Enemy walks the cached route of its spawn. Progress is scalar cells
// traveled; world position is derived by interpolation, never stored.
type Enemy struct {
	DefID    string
	Spawn    grid.Cell // keys into the planner's route cache
	Progress float64
	Health   float64
	MaxHealth float64
	Speed    float64 // cells per second, scaling already applied
	Reward   int
	Boss     bool
	Wave     int
}

// Projectile is either homing (TargetID set, heading recomputed every tick)
// or ballistic (TargetID zero, fixed unit heading, bounded by MaxRange).
type Projectile struct {
	Kind     data.ProjectileKind
	X, Y     float64
	TargetID ecs.EntityID
	DirX     float64
	DirY     float64
	Speed    float64
	Damage   float64
	Traveled float64
	MaxRange float64 // ballistic travel budget, cells
	Owner    ecs.EntityID
}

// Collectible sits on the ground until picked up or its lifetime runs out.
type Collectible struct {
	DefID string
	X, Y  float64
	Age   float64
}

// ActiveEffect is a timed power-up on the player.
type ActiveEffect struct {
	DefID     string
	Effect    data.EffectKind
	Magnitude float64
	ExpiresAt float64 // game time, seconds
}

// PlayerUnit is the single player-controlled entity. It fires through the
// same projectile pipeline as towers and soaks contact damage from leaked
// enemies. At zero health it stops firing until healed.
type PlayerUnit struct {
	X, Y      float64
	Health    float64
	MaxHealth float64

	Damage          float64
	FireRate        float64
	ProjectileSpeed float64
	Range           float64
	PickupRadius    float64

	Cooldown float64

	DamageLevel   int
	FireRateLevel int
	HealthLevel   int
	UpgradesDone  int

	Effects []ActiveEffect
}

// EffectMultiplier folds the active boosts of the given kind into one
// multiplier.
func (p *PlayerUnit) EffectMultiplier(kind data.EffectKind) float64 {
	m := 1.0
	for _, e := range p.Effects {
		if e.Effect == kind {
			m *= e.Magnitude
		}
	}
	return m
}
