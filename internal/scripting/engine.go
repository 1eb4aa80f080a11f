package scripting

import (
	"fmt"
	"os"
	"path/filepath"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/brandon-schabel/td-engine-sub006/internal/data"
)

// Engine wraps a single gopher-lua VM for wave tuning scripts.
// Single-goroutine access only (the tick loop).
type Engine struct {
	vm  *lua.LState
	log *zap.Logger
}

// NewEngine creates a Lua engine and loads all .lua files from dir. A
// missing directory is not an error; the engine just declines every hook.
func NewEngine(dir string, log *zap.Logger) (*Engine, error) {
	vm := lua.NewState(lua.Options{
		SkipOpenLibs: false,
	})
	vm.SetGlobal("API_VERSION", lua.LNumber(1))

	e := &Engine{vm: vm, log: log}
	if err := e.loadDir(dir); err != nil {
		vm.Close()
		return nil, fmt.Errorf("load scripts: %w", err)
	}
	return e, nil
}

func (e *Engine) Close() { e.vm.Close() }

func (e *Engine) loadDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".lua" {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if err := e.vm.DoFile(path); err != nil {
			return fmt.Errorf("load %s: %w", path, err)
		}
		e.log.Debug("loaded lua script", zap.String("file", path))
	}
	return nil
}

// DifficultyMultipliers calls the Lua difficulty_multipliers function. The
// script returns a table {health = n, speed = n}; anything else declines
// the hook and the scheduler keeps its built-in curve.
func (e *Engine) DifficultyMultipliers(wave int) (health, speed float64, ok bool) {
	fn := e.vm.GetGlobal("difficulty_multipliers")
	if fn == lua.LNil {
		return 0, 0, false
	}
	if err := e.vm.CallByParam(lua.P{
		Fn:      fn,
		NRet:    1,
		Protect: true,
	}, lua.LNumber(wave)); err != nil {
		e.log.Error("lua difficulty_multipliers error", zap.Error(err))
		return 0, 0, false
	}
	result := e.vm.Get(-1)
	e.vm.Pop(1)

	rt, isTable := result.(*lua.LTable)
	if !isTable {
		return 0, 0, false
	}
	health = float64(lua.LVAsNumber(rt.RawGetString("health")))
	speed = float64(lua.LVAsNumber(rt.RawGetString("speed")))
	if health <= 0 || speed <= 0 {
		e.log.Error("lua difficulty_multipliers returned non-positive multipliers",
			zap.Int("wave", wave), zap.Float64("health", health), zap.Float64("speed", speed))
		return 0, 0, false
	}
	return health, speed, true
}

// WaveEntries calls the Lua wave_entries function. The script returns an
// array of {enemy = id, count = n, interval = seconds} tables, or nil to
// keep the YAML schedule.
func (e *Engine) WaveEntries(wave int) ([]data.SpawnEntry, bool) {
	fn := e.vm.GetGlobal("wave_entries")
	if fn == lua.LNil {
		return nil, false
	}
	if err := e.vm.CallByParam(lua.P{
		Fn:      fn,
		NRet:    1,
		Protect: true,
	}, lua.LNumber(wave)); err != nil {
		e.log.Error("lua wave_entries error", zap.Error(err))
		return nil, false
	}
	result := e.vm.Get(-1)
	e.vm.Pop(1)

	rt, isTable := result.(*lua.LTable)
	if !isTable {
		return nil, false
	}

	var entries []data.SpawnEntry
	bad := false
	rt.ForEach(func(_, v lua.LValue) {
		et, isEntry := v.(*lua.LTable)
		if !isEntry {
			bad = true
			return
		}
		entry := data.SpawnEntry{
			EnemyID:  lua.LVAsString(et.RawGetString("enemy")),
			Count:    int(lua.LVAsNumber(et.RawGetString("count"))),
			Interval: float64(lua.LVAsNumber(et.RawGetString("interval"))),
		}
		if entry.EnemyID == "" || entry.Count <= 0 || entry.Interval < 0 {
			bad = true
			return
		}
		entries = append(entries, entry)
	})
	if bad || len(entries) == 0 {
		e.log.Error("lua wave_entries returned malformed schedule", zap.Int("wave", wave))
		return nil, false
	}
	return entries, true
}
