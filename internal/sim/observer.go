package sim

import (
	"github.com/brandon-schabel/td-engine-sub006/internal/core/ecs"
	"github.com/brandon-schabel/td-engine-sub006/internal/core/event"
	"github.com/brandon-schabel/td-engine-sub006/internal/grid"
)

// Envelope is the wire form of a change event: a type tag plus the event
// payload, ready for JSON encoding.
type Envelope struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// ObserveAll subscribes sink to every event type the engine emits. Sink runs
// on the tick goroutine during flush and must not block.
func ObserveAll(bus *event.Bus, sink func(Envelope)) {
	forward[CurrencyChanged](bus, sink, "currency_changed")
	forward[LivesChanged](bus, sink, "lives_changed")
	forward[ScoreChanged](bus, sink, "score_changed")
	forward[WaveStarted](bus, sink, "wave_started")
	forward[WaveCompleted](bus, sink, "wave_completed")
	forward[EnemySpawned](bus, sink, "enemy_spawned")
	forward[EnemyKilled](bus, sink, "enemy_killed")
	forward[EnemyReachedGoal](bus, sink, "enemy_reached_goal")
	forward[TowerPlaced](bus, sink, "tower_placed")
	forward[TowerUpgraded](bus, sink, "tower_upgraded")
	forward[TowerSold](bus, sink, "tower_sold")
	forward[PlayerDamaged](bus, sink, "player_damaged")
	forward[PlayerHealed](bus, sink, "player_healed")
	forward[PlayerUpgraded](bus, sink, "player_upgraded")
	forward[PowerUpActivated](bus, sink, "powerup_activated")
	forward[PowerUpExpired](bus, sink, "powerup_expired")
	forward[CollectibleSpawned](bus, sink, "collectible_spawned")
	forward[GameStateChanged](bus, sink, "game_state_changed")
	forward[GameOver](bus, sink, "game_over")
	forward[Victory](bus, sink, "victory")
}

func forward[T any](bus *event.Bus, sink func(Envelope), tag string) {
	event.Subscribe(bus, func(ev T) {
		sink(Envelope{Type: tag, Data: ev})
	})
}

// Snapshot is a point-in-time copy of the observable world, taken between
// ticks for late-joining observers.
type Snapshot struct {
	State    GameState `json:"state"`
	Wave     int       `json:"wave"`
	WaveMode WaveState `json:"wave_mode"`
	Currency int       `json:"currency"`
	Lives    int       `json:"lives"`
	Score    int       `json:"score"`
	GameTime float64   `json:"game_time"`

	Player       PlayerView        `json:"player"`
	Towers       []TowerView       `json:"towers"`
	Enemies      []EnemyView       `json:"enemies"`
	Collectibles []CollectibleView `json:"collectibles"`
}

type PlayerView struct {
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	Health    float64 `json:"health"`
	MaxHealth float64 `json:"max_health"`
}

type TowerView struct {
	ID    ecs.EntityID `json:"id"`
	DefID string       `json:"def_id"`
	Cell  grid.Cell    `json:"cell"`
}

type EnemyView struct {
	ID        ecs.EntityID `json:"id"`
	DefID     string       `json:"def_id"`
	X         float64      `json:"x"`
	Y         float64      `json:"y"`
	Health    float64      `json:"health"`
	MaxHealth float64      `json:"max_health"`
	Boss      bool         `json:"boss"`
}

type CollectibleView struct {
	ID    ecs.EntityID `json:"id"`
	DefID string       `json:"def_id"`
	X     float64      `json:"x"`
	Y     float64      `json:"y"`
}

// Towers lists the placed towers. Call between ticks only.
func (e *Engine) Towers() []TowerView {
	e.assertOutsideTick()
	var out []TowerView
	e.world.Towers.Each(func(id ecs.EntityID, t *Tower) {
		out = append(out, TowerView{ID: id, DefID: t.DefID, Cell: t.Cell})
	})
	return out
}

// Enemies lists the enemies on the field. Call between ticks only.
func (e *Engine) Enemies() []EnemyView {
	e.assertOutsideTick()
	w := e.world
	var out []EnemyView
	w.Enemies.Each(func(id ecs.EntityID, en *Enemy) {
		x, y := w.EnemyPosition(en)
		out = append(out, EnemyView{
			ID: id, DefID: en.DefID, X: x, Y: y,
			Health: en.Health, MaxHealth: en.MaxHealth, Boss: en.Boss,
		})
	})
	return out
}

// Snapshot copies the observable state. Call between ticks only.
func (e *Engine) Snapshot() Snapshot {
	e.assertOutsideTick()
	w := e.world
	snap := Snapshot{
		State:    e.machine.Current(),
		Wave:     e.waves.CurrentWave(),
		WaveMode: e.waves.State(),
		Currency: e.ledger.Balance(),
		Lives:    w.Lives,
		Score:    w.Score,
		GameTime: w.GameTime,
		Player: PlayerView{
			X: w.Player.X, Y: w.Player.Y,
			Health: w.Player.Health, MaxHealth: w.Player.MaxHealth,
		},
	}
	w.Towers.Each(func(id ecs.EntityID, t *Tower) {
		snap.Towers = append(snap.Towers, TowerView{ID: id, DefID: t.DefID, Cell: t.Cell})
	})
	w.Enemies.Each(func(id ecs.EntityID, en *Enemy) {
		x, y := w.EnemyPosition(en)
		snap.Enemies = append(snap.Enemies, EnemyView{
			ID: id, DefID: en.DefID, X: x, Y: y,
			Health: en.Health, MaxHealth: en.MaxHealth, Boss: en.Boss,
		})
	})
	w.Collectibles.Each(func(id ecs.EntityID, c *Collectible) {
		snap.Collectibles = append(snap.Collectibles, CollectibleView{ID: id, DefID: c.DefID, X: c.X, Y: c.Y})
	})
	return snap
}
