package data

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// PlayerTemplate holds the player unit's base stats and upgrade curves.
// The player fires through the same projectile pipeline as towers.
type PlayerTemplate struct {
	MaxHealth       float64 `yaml:"max_health"`
	Damage          float64 `yaml:"damage"`
	FireRate        float64 `yaml:"fire_rate"` // shots per second
	ProjectileSpeed float64 `yaml:"projectile_speed"`
	PickupRadius    float64 `yaml:"pickup_radius"` // cells, for collectibles

	MaxLevel          int     `yaml:"max_level"`
	UpgradeCost       int     `yaml:"upgrade_cost"`
	UpgradeCostMult   float64 `yaml:"upgrade_cost_mult"`
	DamagePerLevel    float64 `yaml:"damage_per_level"`
	FireRatePerLevel  float64 `yaml:"fire_rate_per_level"`
	MaxHealthPerLevel float64 `yaml:"max_health_per_level"`
}

type playerFile struct {
	Player PlayerTemplate `yaml:"player"`
}

// LoadPlayerTemplate loads the player definition from a YAML file.
func LoadPlayerTemplate(path string) (*PlayerTemplate, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read player: %w", err)
	}
	var f playerFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse player: %w", err)
	}
	p := &f.Player
	if err := p.validate(); err != nil {
		return nil, fmt.Errorf("player: %w", err)
	}
	return p, nil
}

func (p *PlayerTemplate) validate() error {
	if p.MaxHealth <= 0 || p.Damage <= 0 || p.FireRate <= 0 || p.ProjectileSpeed <= 0 {
		return fmt.Errorf("max_health, damage, fire_rate and projectile_speed must be positive")
	}
	if p.PickupRadius <= 0 {
		return fmt.Errorf("pickup_radius must be positive, got %v", p.PickupRadius)
	}
	if p.MaxLevel < 0 {
		return fmt.Errorf("max_level must not be negative, got %d", p.MaxLevel)
	}
	if p.MaxLevel > 0 {
		if p.UpgradeCost <= 0 {
			return fmt.Errorf("upgrade_cost must be positive when upgrades exist")
		}
		if p.UpgradeCostMult <= 1 {
			return fmt.Errorf("upgrade_cost_mult must be > 1, got %v", p.UpgradeCostMult)
		}
	}
	return nil
}
