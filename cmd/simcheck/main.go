package main

import (
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/brandon-schabel/td-engine-sub006/internal/data"
	"github.com/brandon-schabel/td-engine-sub006/internal/grid"
	"github.com/brandon-schabel/td-engine-sub006/internal/sim"
)

// simcheck validates a data directory and, with -play, autoplays a headless
// run to smoke-test the balance: it buys the cheapest tower whenever it can
// and launches waves as soon as they are ready.
func main() {
	dataDir := flag.String("data", "data", "definition table directory")
	play := flag.Bool("play", false, "autoplay a run after validating")
	ticks := flag.Int("ticks", 120000, "tick limit for autoplay")
	seed := flag.Int64("seed", 1, "drop RNG seed")
	flag.Parse()

	if err := run(*dataDir, *play, *ticks, *seed); err != nil {
		fmt.Fprintf(os.Stderr, "simcheck: %v\n", err)
		os.Exit(1)
	}
}

func run(dataDir string, play bool, ticks int, seed int64) error {
	tables, err := data.LoadAll(dataDir)
	if err != nil {
		return err
	}
	fmt.Printf("ok: %d towers, %d enemies, %d waves, %d collectibles, map %dx%d\n",
		tables.Towers.Len(), tables.Enemies.Len(), tables.Waves.Last(),
		tables.Collectibles.Len(), tables.Map.Width, tables.Map.Height)
	if !play {
		return nil
	}

	engine, err := sim.NewEngine(tables, sim.Options{Seed: seed}, zap.NewNop())
	if err != nil {
		return err
	}
	if err := engine.Start(); err != nil {
		return err
	}

	cheapest := cheapestTower(tables)
	const dt = 0.05
	for i := 0; i < ticks; i++ {
		autoplace(engine, tables, cheapest)
		if engine.WaveState() == sim.WaveIdle || engine.WaveState() == sim.WaveComplete {
			engine.StartNextWave()
		}
		engine.Tick(dt)
		switch engine.State() {
		case sim.StateGameOver:
			fmt.Printf("defeat: wave %d, score %d, %d ticks\n", engine.CurrentWave(), engine.Score(), i+1)
			return nil
		case sim.StateVictory:
			fmt.Printf("victory: score %d, lives %d, %d ticks\n", engine.Score(), engine.Lives(), i+1)
			return nil
		}
	}
	return fmt.Errorf("run did not finish within %d ticks (wave %d, lives %d)", ticks, engine.CurrentWave(), engine.Lives())
}

func cheapestTower(tables *data.Tables) string {
	best := ""
	for _, id := range tables.Towers.IDs() {
		if best == "" || tables.Towers.Get(id).Cost < tables.Towers.Get(best).Cost {
			best = id
		}
	}
	return best
}

// autoplace scans the map for the first affordable legal cell each tick.
// Placement errors are expected here: occupied cells and path blocks just
// mean trying the next cell.
func autoplace(engine *sim.Engine, tables *data.Tables, defID string) {
	if engine.Currency() < tables.Towers.Get(defID).Cost {
		return
	}
	for y := 0; y < tables.Map.Height; y++ {
		for x := 0; x < tables.Map.Width; x++ {
			if _, err := engine.PlaceTower(defID, grid.Cell{X: x, Y: y}); err == nil {
				return
			}
		}
	}
}
