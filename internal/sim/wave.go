package sim

import (
	"fmt"

	"github.com/brandon-schabel/td-engine-sub006/internal/core/event"
	coresys "github.com/brandon-schabel/td-engine-sub006/internal/core/system"
	"github.com/brandon-schabel/td-engine-sub006/internal/data"
)

// WaveState is the scheduler's phase for the current wave.
type WaveState string

const (
	WaveIdle     WaveState = "IDLE"     // before the first wave
	WaveSpawning WaveState = "SPAWNING" // dispatching the timed schedule
	WaveActive   WaveState = "ACTIVE"   // all spawned, survivors still on the field
	WaveComplete WaveState = "COMPLETE" // terminal until StartNext
)

// Boss waves apply fixed multipliers atop the scaled base enemy.
const (
	bossHealthMult = 5.0
	bossSpeedMult  = 0.5
)

// WaveHooks lets a scripting layer override wave composition and difficulty.
// Either method may decline by returning ok == false.
type WaveHooks interface {
	DifficultyMultipliers(wave int) (health, speed float64, ok bool)
	WaveEntries(wave int) ([]data.SpawnEntry, bool)
}

// WaveScheduler drives spawn batches and difficulty scaling. Runs in the
// wave phase, after cleanup, so it counts only survivors.
type WaveScheduler struct {
	w     *World
	hooks WaveHooks // nil when scripting is disabled

	state       WaveState
	wave        int
	boss        bool
	entries     []data.SpawnEntry
	entryIdx    int
	spawned     int // spawned within the current entry
	timer       float64
	spawnCursor int // round-robins over the map's spawn cells
}

func NewWaveScheduler(w *World, hooks WaveHooks) *WaveScheduler {
	return &WaveScheduler{w: w, hooks: hooks, state: WaveIdle}
}

func (s *WaveScheduler) Phase() coresys.Phase { return coresys.PhaseWave }

func (s *WaveScheduler) State() WaveState { return s.state }

// CurrentWave returns the 1-based wave number, 0 before the first wave.
func (s *WaveScheduler) CurrentWave() int { return s.wave }

// FinalCleared reports whether the last defined wave has completed.
func (s *WaveScheduler) FinalCleared() bool {
	return s.state == WaveComplete && s.wave == s.w.Tables.Waves.Last()
}

// StartNext begins the next wave. Returns false unless the scheduler is idle
// or the current wave is complete, or when no waves remain.
func (s *WaveScheduler) StartNext() bool {
	if s.state != WaveIdle && s.state != WaveComplete {
		return false
	}
	next := s.wave + 1
	if next > s.w.Tables.Waves.Last() {
		return false
	}
	tpl := s.w.Tables.Waves.Get(next)
	entries := tpl.Entries
	if s.hooks != nil {
		if scripted, ok := s.hooks.WaveEntries(next); ok && s.entriesValid(scripted) {
			entries = scripted
		}
	}

	s.wave = next
	s.boss = tpl.Boss
	s.entries = entries
	s.entryIdx = 0
	s.spawned = 0
	s.timer = 0 // first spawn lands on the next tick
	s.state = WaveSpawning

	total := 0
	for _, e := range entries {
		total += e.Count
	}
	event.Emit(s.w.Bus, WaveStarted{Wave: next, Boss: tpl.Boss, Enemies: total})
	return true
}

// entriesValid rejects scripted schedules that name enemies the tables do
// not define. The YAML schedule is already cross-validated at load.
func (s *WaveScheduler) entriesValid(entries []data.SpawnEntry) bool {
	for _, entry := range entries {
		if s.w.Tables.Enemies.Get(entry.EnemyID) == nil {
			return false
		}
	}
	return true
}

func (s *WaveScheduler) Update(dt float64) {
	switch s.state {
	case WaveSpawning:
		s.timer -= dt
		for s.timer <= 0 && s.entryIdx < len(s.entries) {
			entry := s.entries[s.entryIdx]
			s.spawnEnemy(entry.EnemyID)
			s.spawned++
			if s.spawned >= entry.Count {
				s.entryIdx++
				s.spawned = 0
			}
			// Zero-interval entries flush within the tick; the loop
			// condition terminates on the entry list either way.
			s.timer += entry.Interval
		}
		if s.entryIdx >= len(s.entries) {
			s.state = WaveActive
		}
	case WaveActive:
		if s.w.Enemies.Len() == 0 {
			s.state = WaveComplete
			event.Emit(s.w.Bus, WaveCompleted{Wave: s.wave})
		}
	}
}

// DifficultyMultipliers returns the deterministic scaling for a wave index.
// Monotonic in the wave number; a scripting hook may substitute its own
// curve.
func (s *WaveScheduler) DifficultyMultipliers(wave int) (health, speed float64) {
	if s.hooks != nil {
		if h, sp, ok := s.hooks.DifficultyMultipliers(wave); ok {
			return h, sp
		}
	}
	return 1 + 0.15*float64(wave-1), 1 + 0.05*float64(wave-1)
}

func (s *WaveScheduler) spawnEnemy(defID string) {
	def := s.w.Tables.Enemies.Get(defID)
	if def == nil {
		// Tables are cross-validated at load; only scripted entries can
		// smuggle in an unknown id, and that is a fatal scripting bug.
		panic(fmt.Sprintf("sim: wave %d references unknown enemy %q", s.wave, defID))
	}

	healthMult, speedMult := s.DifficultyMultipliers(s.wave)
	// Escorts in a boss wave scale normally; only boss types get the boss
	// multipliers.
	if def.Boss {
		healthMult *= bossHealthMult
		speedMult *= bossSpeedMult
	}

	spawns := s.w.Paths.Spawns()
	spawn := spawns[s.spawnCursor%len(spawns)]
	s.spawnCursor++

	id := s.w.ECS.CreateEntity()
	s.w.Enemies.Set(id, &Enemy{
		DefID:     defID,
		Spawn:     spawn,
		Progress:  0,
		Health:    def.Health * healthMult,
		MaxHealth: def.Health * healthMult,
		Speed:     def.Speed * speedMult,
		Reward:    def.Reward,
		Boss:      def.Boss,
		Wave:      s.wave,
	})
	event.Emit(s.w.Bus, EnemySpawned{ID: id, DefID: defID, Wave: s.wave})
}
