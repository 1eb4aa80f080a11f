package data

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// SpawnEntry is one timed batch inside a wave: Count enemies of EnemyID,
// one every Interval seconds.
type SpawnEntry struct {
	EnemyID  string  `yaml:"enemy_id"`
	Count    int     `yaml:"count"`
	Interval float64 `yaml:"interval"`
}

// WaveTemplate defines the spawn schedule for one wave. Entries run in
// order; the wave moves from spawning to active once the last entry is
// exhausted. Boss waves apply the fixed boss multipliers on top of the
// scaled base enemy.
type WaveTemplate struct {
	Number  int          `yaml:"number"`
	Boss    bool         `yaml:"boss"`
	Entries []SpawnEntry `yaml:"entries"`
}

type waveListFile struct {
	Waves []WaveTemplate `yaml:"waves"`
}

// WaveTable holds wave templates indexed by wave number, 1-based and
// contiguous. The highest number is the final wave; clearing it wins the
// game.
type WaveTable struct {
	waves map[int]*WaveTemplate
	last  int
}

// LoadWaveTable loads the wave schedule from a YAML file.
func LoadWaveTable(path string) (*WaveTable, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read waves: %w", err)
	}
	var f waveListFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse waves: %w", err)
	}
	if len(f.Waves) == 0 {
		return nil, fmt.Errorf("wave table is empty")
	}
	t := &WaveTable{waves: make(map[int]*WaveTemplate, len(f.Waves))}
	for i := range f.Waves {
		w := &f.Waves[i]
		if err := w.validate(); err != nil {
			return nil, fmt.Errorf("wave %d: %w", w.Number, err)
		}
		if _, dup := t.waves[w.Number]; dup {
			return nil, fmt.Errorf("duplicate wave number %d", w.Number)
		}
		t.waves[w.Number] = w
		if w.Number > t.last {
			t.last = w.Number
		}
	}
	for n := 1; n <= t.last; n++ {
		if _, ok := t.waves[n]; !ok {
			return nil, fmt.Errorf("wave numbers must be contiguous from 1, missing %d", n)
		}
	}
	return t, nil
}

func (w *WaveTemplate) validate() error {
	if w.Number <= 0 {
		return fmt.Errorf("number must be positive, got %d", w.Number)
	}
	if len(w.Entries) == 0 {
		return fmt.Errorf("wave has no spawn entries")
	}
	for i, e := range w.Entries {
		if e.EnemyID == "" {
			return fmt.Errorf("entry %d: missing enemy_id", i)
		}
		if e.Count <= 0 {
			return fmt.Errorf("entry %d: count must be positive, got %d", i, e.Count)
		}
		if e.Interval < 0 {
			return fmt.Errorf("entry %d: interval must not be negative, got %v", i, e.Interval)
		}
	}
	return nil
}

// Get returns the template for wave n, or nil.
func (t *WaveTable) Get(n int) *WaveTemplate {
	return t.waves[n]
}

// Last returns the highest wave number.
func (t *WaveTable) Last() int {
	return t.last
}
