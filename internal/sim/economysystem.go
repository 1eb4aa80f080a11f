package sim

import (
	"math/rand"

	"github.com/brandon-schabel/td-engine-sub006/internal/core/event"
	coresys "github.com/brandon-schabel/td-engine-sub006/internal/core/system"
)

// EconomySystem settles the tick's kill and leak records. Rewards, score,
// lives and collectible drops all land here, after cleanup and wave
// bookkeeping, so the phases before it never observe a half-settled ledger.
type EconomySystem struct {
	w       *World
	ledger  *Ledger
	effects *TickEffects
	rng     *rand.Rand
}

func NewEconomySystem(w *World, ledger *Ledger, effects *TickEffects, rng *rand.Rand) *EconomySystem {
	return &EconomySystem{w: w, ledger: ledger, effects: effects, rng: rng}
}

func (s *EconomySystem) Phase() coresys.Phase { return coresys.PhaseEconomy }

func (s *EconomySystem) Update(dt float64) {
	for _, k := range s.effects.Kills {
		s.ledger.Credit(k.Reward)
		before := s.w.Score
		s.w.Score += k.Reward
		event.Emit(s.w.Bus, ScoreChanged{Before: before, After: s.w.Score})
		event.Emit(s.w.Bus, EnemyKilled{ID: k.ID, DefID: k.DefID, Killer: k.Killer, Reward: k.Reward})
		s.rollDrop(k)
	}
	for _, l := range s.effects.Leaks {
		before := s.w.Lives
		s.w.Lives--
		event.Emit(s.w.Bus, LivesChanged{Before: before, After: s.w.Lives})
		event.Emit(s.w.Bus, EnemyReachedGoal{ID: l.ID, DefID: l.DefID})
		s.damagePlayer(l.Damage)
	}
	s.effects.reset()
}

func (s *EconomySystem) rollDrop(k KillRecord) {
	tpl := s.w.Tables.Enemies.Get(k.DefID)
	if tpl == nil || tpl.DropID == "" {
		return
	}
	if s.rng.Float64() >= tpl.DropChance {
		return
	}
	id := s.w.ECS.CreateEntity()
	s.w.Collectibles.Set(id, &Collectible{DefID: tpl.DropID, X: k.X, Y: k.Y})
	event.Emit(s.w.Bus, CollectibleSpawned{ID: id, DefID: tpl.DropID, X: k.X, Y: k.Y})
}

func (s *EconomySystem) damagePlayer(amount float64) {
	p := s.w.Player
	if amount <= 0 || p.Health <= 0 {
		return
	}
	before := p.Health
	p.Health -= amount
	if p.Health < 0 {
		p.Health = 0
	}
	event.Emit(s.w.Bus, PlayerDamaged{Amount: amount, Before: before, After: p.Health})
}
