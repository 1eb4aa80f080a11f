package sim

import (
	"github.com/brandon-schabel/td-engine-sub006/internal/core/ecs"
	"github.com/brandon-schabel/td-engine-sub006/internal/grid"
)

// Change events emitted through the engine's bus and delivered synchronously
// after each tick. Before/after payloads let the UI patch its view without
// polling; the event stream is the only notification path out of the core.

type CurrencyChanged struct {
	Before int
	After  int
}

type LivesChanged struct {
	Before int
	After  int
}

type ScoreChanged struct {
	Before int
	After  int
}

type WaveStarted struct {
	Wave    int
	Boss    bool
	Enemies int // total scheduled spawns
}

type WaveCompleted struct {
	Wave int
}

type EnemySpawned struct {
	ID    ecs.EntityID
	DefID string
	Wave  int
}

type EnemyKilled struct {
	ID     ecs.EntityID
	DefID  string
	Killer ecs.EntityID // tower or player entity
	Reward int
}

type EnemyReachedGoal struct {
	ID    ecs.EntityID
	DefID string
}

type TowerPlaced struct {
	ID    ecs.EntityID
	DefID string
	Cell  grid.Cell
	Cost  int
}

type TowerUpgraded struct {
	ID        ecs.EntityID
	Attribute UpgradeAttr
	Level     int // level after the upgrade
	Cost      int
}

type TowerSold struct {
	ID     ecs.EntityID
	Cell   grid.Cell
	Refund int
}

type PlayerDamaged struct {
	Amount float64
	Before float64
	After  float64
}

type PlayerHealed struct {
	Amount float64
	Before float64
	After  float64
}

type PlayerUpgraded struct {
	Attribute UpgradeAttr
	Level     int
	Cost      int
}

type PowerUpActivated struct {
	DefID     string
	ExpiresAt float64 // game time, seconds; 0 for instant effects
}

type PowerUpExpired struct {
	DefID string
}

type CollectibleSpawned struct {
	ID    ecs.EntityID
	DefID string
	X, Y  float64
}

type GameStateChanged struct {
	From GameState
	To   GameState
}

type GameOver struct {
	Wave  int
	Score int
}

type Victory struct {
	Wave  int
	Score int
}
