package data

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// EnemyTemplate holds static data for an enemy type loaded from YAML.
type EnemyTemplate struct {
	ID     string  `yaml:"id"`
	Name   string  `yaml:"name"`
	Health float64 `yaml:"health"`
	Speed  float64 `yaml:"speed"` // cells per second along the route
	Reward int     `yaml:"reward"`
	Boss   bool    `yaml:"boss"`

	// Collectible drop on death. Empty DropID means no drop.
	DropID     string  `yaml:"drop_id"`
	DropChance float64 `yaml:"drop_chance"`
}

type enemyListFile struct {
	Enemies []EnemyTemplate `yaml:"enemies"`
}

// EnemyTable holds all enemy templates indexed by ID.
type EnemyTable struct {
	templates map[string]*EnemyTemplate
	ids       []string
}

// LoadEnemyTable loads enemy templates from a YAML file.
func LoadEnemyTable(path string) (*EnemyTable, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read enemies: %w", err)
	}
	var f enemyListFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse enemies: %w", err)
	}
	t := &EnemyTable{templates: make(map[string]*EnemyTemplate, len(f.Enemies))}
	for i := range f.Enemies {
		tpl := &f.Enemies[i]
		if err := tpl.validate(); err != nil {
			return nil, fmt.Errorf("enemy %q: %w", tpl.ID, err)
		}
		if _, dup := t.templates[tpl.ID]; dup {
			return nil, fmt.Errorf("duplicate enemy id %q", tpl.ID)
		}
		t.templates[tpl.ID] = tpl
		t.ids = append(t.ids, tpl.ID)
	}
	return t, nil
}

func (tpl *EnemyTemplate) validate() error {
	if tpl.ID == "" {
		return fmt.Errorf("missing id")
	}
	if tpl.Health <= 0 || tpl.Speed <= 0 {
		return fmt.Errorf("health and speed must be positive")
	}
	if tpl.Reward < 0 {
		return fmt.Errorf("reward must not be negative, got %d", tpl.Reward)
	}
	if tpl.DropChance < 0 || tpl.DropChance > 1 {
		return fmt.Errorf("drop_chance must be in [0,1], got %v", tpl.DropChance)
	}
	if tpl.DropChance > 0 && tpl.DropID == "" {
		return fmt.Errorf("drop_chance set without drop_id")
	}
	return nil
}

// Get returns the template for id, or nil.
func (t *EnemyTable) Get(id string) *EnemyTemplate {
	return t.templates[id]
}

// IDs returns enemy ids in file order.
func (t *EnemyTable) IDs() []string {
	return t.ids
}

func (t *EnemyTable) Len() int {
	return len(t.templates)
}
