package sim

import (
	"fmt"
	"math"

	"github.com/brandon-schabel/td-engine-sub006/internal/core/ecs"
	"github.com/brandon-schabel/td-engine-sub006/internal/core/event"
	coresys "github.com/brandon-schabel/td-engine-sub006/internal/core/system"
	"github.com/brandon-schabel/td-engine-sub006/internal/data"
)

// CollectibleSystem ages dropped power-ups, hands them to the player when it
// stands close enough, and retires boosts whose duration has run out. Shares
// the economy phase so pickups spawned by this tick's kills lie on the
// ground for at least one full tick before they can be taken.
type CollectibleSystem struct {
	w *World
}

func NewCollectibleSystem(w *World) *CollectibleSystem { return &CollectibleSystem{w: w} }

func (s *CollectibleSystem) Phase() coresys.Phase { return coresys.PhaseEconomy }

func (s *CollectibleSystem) Update(dt float64) {
	p := s.w.Player
	s.w.Collectibles.Each(func(id ecs.EntityID, c *Collectible) {
		tpl := s.w.Tables.Collectibles.Get(c.DefID)
		if tpl == nil {
			panic(fmt.Sprintf("sim: collectible %d references unknown template %q", id, c.DefID))
		}
		c.Age += dt
		if c.Age >= tpl.Lifetime {
			s.w.ECS.MarkForDestruction(id)
			return
		}
		if math.Hypot(c.X-p.X, c.Y-p.Y) > p.PickupRadius {
			return
		}
		s.apply(tpl)
		s.w.ECS.MarkForDestruction(id)
	})
	s.expire()
}

func (s *CollectibleSystem) apply(tpl *data.CollectibleTemplate) {
	p := s.w.Player
	switch tpl.Effect {
	case data.EffectHeal:
		before := p.Health
		p.Health = math.Min(p.Health+tpl.Magnitude, p.MaxHealth)
		event.Emit(s.w.Bus, PlayerHealed{Amount: p.Health - before, Before: before, After: p.Health})
		event.Emit(s.w.Bus, PowerUpActivated{DefID: tpl.ID})
	case data.EffectDamageBoost, data.EffectFireRateBoost:
		expires := s.w.GameTime + tpl.Duration
		p.Effects = append(p.Effects, ActiveEffect{
			DefID:     tpl.ID,
			Effect:    tpl.Effect,
			Magnitude: tpl.Magnitude,
			ExpiresAt: expires,
		})
		event.Emit(s.w.Bus, PowerUpActivated{DefID: tpl.ID, ExpiresAt: expires})
	default:
		panic(fmt.Sprintf("sim: collectible template %q has unknown effect %q", tpl.ID, tpl.Effect))
	}
}

func (s *CollectibleSystem) expire() {
	p := s.w.Player
	kept := p.Effects[:0]
	for _, e := range p.Effects {
		if s.w.GameTime >= e.ExpiresAt {
			event.Emit(s.w.Bus, PowerUpExpired{DefID: e.DefID})
			continue
		}
		kept = append(kept, e)
	}
	p.Effects = kept
}
