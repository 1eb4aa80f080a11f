package data

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// EffectKind names what a collectible does when picked up.
type EffectKind string

const (
	EffectDamageBoost   EffectKind = "damage_boost"
	EffectFireRateBoost EffectKind = "fire_rate_boost"
	EffectHeal          EffectKind = "heal"
)

// CollectibleTemplate holds static data for a pickup type loaded from YAML.
// Heal applies instantly; boosts last Duration seconds on the player.
type CollectibleTemplate struct {
	ID        string     `yaml:"id"`
	Name      string     `yaml:"name"`
	Effect    EffectKind `yaml:"effect"`
	Magnitude float64    `yaml:"magnitude"` // multiplier for boosts, hit points for heal
	Duration  float64    `yaml:"duration"`  // seconds; ignored for heal
	Lifetime  float64    `yaml:"lifetime"`  // seconds on the ground before despawn
}

type collectibleListFile struct {
	Collectibles []CollectibleTemplate `yaml:"collectibles"`
}

// CollectibleTable holds all collectible templates indexed by ID.
type CollectibleTable struct {
	templates map[string]*CollectibleTemplate
	ids       []string
}

// LoadCollectibleTable loads collectible templates from a YAML file.
func LoadCollectibleTable(path string) (*CollectibleTable, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read collectibles: %w", err)
	}
	var f collectibleListFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse collectibles: %w", err)
	}
	t := &CollectibleTable{templates: make(map[string]*CollectibleTemplate, len(f.Collectibles))}
	for i := range f.Collectibles {
		tpl := &f.Collectibles[i]
		if err := tpl.validate(); err != nil {
			return nil, fmt.Errorf("collectible %q: %w", tpl.ID, err)
		}
		if _, dup := t.templates[tpl.ID]; dup {
			return nil, fmt.Errorf("duplicate collectible id %q", tpl.ID)
		}
		t.templates[tpl.ID] = tpl
		t.ids = append(t.ids, tpl.ID)
	}
	return t, nil
}

func (tpl *CollectibleTemplate) validate() error {
	if tpl.ID == "" {
		return fmt.Errorf("missing id")
	}
	switch tpl.Effect {
	case EffectDamageBoost, EffectFireRateBoost:
		if tpl.Duration <= 0 {
			return fmt.Errorf("boost effects need a positive duration")
		}
	case EffectHeal:
	default:
		return fmt.Errorf("unknown effect %q", tpl.Effect)
	}
	if tpl.Magnitude <= 0 {
		return fmt.Errorf("magnitude must be positive, got %v", tpl.Magnitude)
	}
	if tpl.Lifetime <= 0 {
		return fmt.Errorf("lifetime must be positive, got %v", tpl.Lifetime)
	}
	return nil
}

// Get returns the template for id, or nil.
func (t *CollectibleTable) Get(id string) *CollectibleTemplate {
	return t.templates[id]
}

// IDs returns collectible ids in file order.
func (t *CollectibleTable) IDs() []string {
	return t.ids
}

func (t *CollectibleTable) Len() int {
	return len(t.templates)
}
