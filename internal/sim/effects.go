package sim

import "github.com/brandon-schabel/td-engine-sub006/internal/core/ecs"

// TickEffects accumulates side-effects recorded by the movement and combat
// phases and settled by the economy phase later in the same tick: rewards,
// score, lives, drops. Keeping settlement in one place preserves the fixed
// phase order the clock promises.
type TickEffects struct {
	Kills []KillRecord
	Leaks []LeakRecord
}

type KillRecord struct {
	ID     ecs.EntityID
	DefID  string
	Killer ecs.EntityID
	Reward int
	X, Y   float64 // death position, for collectible drops
}

type LeakRecord struct {
	ID     ecs.EntityID
	DefID  string
	Damage float64 // contact damage dealt to the player unit
}

func (t *TickEffects) reset() {
	t.Kills = t.Kills[:0]
	t.Leaks = t.Leaks[:0]
}
