package data

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ProjectileKind selects the flight policy for a tower's shots.
type ProjectileKind string

const (
	ProjectileHoming    ProjectileKind = "homing"    // retargets every tick; discarded if target dies
	ProjectileBallistic ProjectileKind = "ballistic" // fixed heading; hits whatever crosses it, expires at max range
)

// TowerTemplate holds static data for a tower type loaded from YAML.
type TowerTemplate struct {
	ID              string         `yaml:"id"`
	Name            string         `yaml:"name"`
	Cost            int            `yaml:"cost"`
	Damage          float64        `yaml:"damage"`
	Range           float64        `yaml:"range"` // cells
	FireRate        float64        `yaml:"fire_rate"` // shots per second
	ProjectileSpeed float64        `yaml:"projectile_speed"` // cells per second
	Projectile      ProjectileKind `yaml:"projectile"`

	// Per-attribute upgrades. Cost for level n (0-based) is
	// UpgradeCost * UpgradeCostMult^n, rounded down; strictly increasing
	// as long as UpgradeCostMult > 1, which validation enforces.
	MaxLevel         int     `yaml:"max_level"`
	UpgradeCost      int     `yaml:"upgrade_cost"`
	UpgradeCostMult  float64 `yaml:"upgrade_cost_mult"`
	DamagePerLevel   float64 `yaml:"damage_per_level"`
	RangePerLevel    float64 `yaml:"range_per_level"`
	FireRatePerLevel float64 `yaml:"fire_rate_per_level"`
}

type towerListFile struct {
	Towers []TowerTemplate `yaml:"towers"`
}

// TowerTable holds all tower templates indexed by ID.
type TowerTable struct {
	templates map[string]*TowerTemplate
	ids       []string // load order, for stable listing
}

// LoadTowerTable loads tower templates from a YAML file.
func LoadTowerTable(path string) (*TowerTable, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read towers: %w", err)
	}
	var f towerListFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse towers: %w", err)
	}
	t := &TowerTable{templates: make(map[string]*TowerTemplate, len(f.Towers))}
	for i := range f.Towers {
		tpl := &f.Towers[i]
		if err := tpl.validate(); err != nil {
			return nil, fmt.Errorf("tower %q: %w", tpl.ID, err)
		}
		if _, dup := t.templates[tpl.ID]; dup {
			return nil, fmt.Errorf("duplicate tower id %q", tpl.ID)
		}
		t.templates[tpl.ID] = tpl
		t.ids = append(t.ids, tpl.ID)
	}
	return t, nil
}

func (tpl *TowerTemplate) validate() error {
	if tpl.ID == "" {
		return fmt.Errorf("missing id")
	}
	if tpl.Cost <= 0 {
		return fmt.Errorf("cost must be positive, got %d", tpl.Cost)
	}
	if tpl.Damage <= 0 || tpl.Range <= 0 || tpl.FireRate <= 0 || tpl.ProjectileSpeed <= 0 {
		return fmt.Errorf("damage, range, fire_rate and projectile_speed must be positive")
	}
	switch tpl.Projectile {
	case ProjectileHoming, ProjectileBallistic:
	default:
		return fmt.Errorf("unknown projectile kind %q", tpl.Projectile)
	}
	if tpl.MaxLevel < 0 {
		return fmt.Errorf("max_level must not be negative, got %d", tpl.MaxLevel)
	}
	if tpl.MaxLevel > 0 {
		if tpl.UpgradeCost <= 0 {
			return fmt.Errorf("upgrade_cost must be positive when upgrades exist")
		}
		if tpl.UpgradeCostMult <= 1 {
			return fmt.Errorf("upgrade_cost_mult must be > 1 so the cost curve strictly increases, got %v", tpl.UpgradeCostMult)
		}
	}
	return nil
}

// Get returns the template for id, or nil.
func (t *TowerTable) Get(id string) *TowerTemplate {
	return t.templates[id]
}

// IDs returns tower ids in file order.
func (t *TowerTable) IDs() []string {
	return t.ids
}

func (t *TowerTable) Len() int {
	return len(t.templates)
}
