package data

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/brandon-schabel/td-engine-sub006/internal/grid"
)

// MapDef describes the playfield: grid dimensions, enemy spawn cells, the
// goal cell, scenery-blocked cells, and where the player unit stands.
type MapDef struct {
	Width       int         `yaml:"width"`
	Height      int         `yaml:"height"`
	Spawns      []grid.Cell `yaml:"spawns"`
	Goal        grid.Cell   `yaml:"goal"`
	Blocked     []grid.Cell `yaml:"blocked"`
	PlayerCell  grid.Cell   `yaml:"player_cell"`
	PlayerRange float64     `yaml:"player_range"` // cells
}

type mapFile struct {
	Map MapDef `yaml:"map"`
}

// LoadMapDef loads the playfield definition from a YAML file.
func LoadMapDef(path string) (*MapDef, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read map: %w", err)
	}
	var f mapFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse map: %w", err)
	}
	m := &f.Map
	if err := m.validate(); err != nil {
		return nil, fmt.Errorf("map: %w", err)
	}
	return m, nil
}

func (m *MapDef) validate() error {
	if m.Width <= 0 || m.Height <= 0 {
		return fmt.Errorf("width and height must be positive, got %dx%d", m.Width, m.Height)
	}
	if len(m.Spawns) == 0 {
		return fmt.Errorf("at least one spawn is required")
	}
	inBounds := func(c grid.Cell) bool {
		return c.X >= 0 && c.X < m.Width && c.Y >= 0 && c.Y < m.Height
	}
	for _, s := range m.Spawns {
		if !inBounds(s) {
			return fmt.Errorf("spawn %v out of bounds", s)
		}
		if s == m.Goal {
			return fmt.Errorf("spawn %v coincides with the goal", s)
		}
	}
	if !inBounds(m.Goal) {
		return fmt.Errorf("goal %v out of bounds", m.Goal)
	}
	for _, b := range m.Blocked {
		if !inBounds(b) {
			return fmt.Errorf("blocked cell %v out of bounds", b)
		}
		if b == m.Goal {
			return fmt.Errorf("goal cell is blocked")
		}
		for _, s := range m.Spawns {
			if b == s {
				return fmt.Errorf("spawn %v is blocked", s)
			}
		}
	}
	if !inBounds(m.PlayerCell) {
		return fmt.Errorf("player_cell %v out of bounds", m.PlayerCell)
	}
	if m.PlayerRange <= 0 {
		return fmt.Errorf("player_range must be positive, got %v", m.PlayerRange)
	}
	return nil
}
