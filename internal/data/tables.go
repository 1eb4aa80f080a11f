// Package data loads the static game definition tables from YAML. Tables are
// immutable after load; the simulation reads them but never writes.
package data

import (
	"fmt"
	"path/filepath"
)

// Tables bundles every definition table the engine needs.
type Tables struct {
	Towers       *TowerTable
	Enemies      *EnemyTable
	Waves        *WaveTable
	Collectibles *CollectibleTable
	Map          *MapDef
	Player       *PlayerTemplate
}

// LoadAll loads every table from dir and cross-validates references between
// them (wave enemy ids, enemy drop ids).
func LoadAll(dir string) (*Tables, error) {
	towers, err := LoadTowerTable(filepath.Join(dir, "towers.yaml"))
	if err != nil {
		return nil, err
	}
	enemies, err := LoadEnemyTable(filepath.Join(dir, "enemies.yaml"))
	if err != nil {
		return nil, err
	}
	waves, err := LoadWaveTable(filepath.Join(dir, "waves.yaml"))
	if err != nil {
		return nil, err
	}
	collectibles, err := LoadCollectibleTable(filepath.Join(dir, "collectibles.yaml"))
	if err != nil {
		return nil, err
	}
	mapDef, err := LoadMapDef(filepath.Join(dir, "map.yaml"))
	if err != nil {
		return nil, err
	}
	player, err := LoadPlayerTemplate(filepath.Join(dir, "player.yaml"))
	if err != nil {
		return nil, err
	}

	t := &Tables{
		Towers:       towers,
		Enemies:      enemies,
		Waves:        waves,
		Collectibles: collectibles,
		Map:          mapDef,
		Player:       player,
	}
	if err := t.crossValidate(); err != nil {
		return nil, err
	}
	return t, nil
}

func (t *Tables) crossValidate() error {
	for n := 1; n <= t.Waves.Last(); n++ {
		for i, e := range t.Waves.Get(n).Entries {
			if t.Enemies.Get(e.EnemyID) == nil {
				return fmt.Errorf("wave %d entry %d references unknown enemy %q", n, i, e.EnemyID)
			}
		}
	}
	for _, id := range t.Enemies.IDs() {
		e := t.Enemies.Get(id)
		if e.DropID != "" && t.Collectibles.Get(e.DropID) == nil {
			return fmt.Errorf("enemy %q references unknown collectible %q", id, e.DropID)
		}
	}
	return nil
}
