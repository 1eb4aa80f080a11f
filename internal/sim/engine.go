package sim

import (
	"fmt"
	"math/rand"
	"time"

	"go.uber.org/zap"

	"github.com/brandon-schabel/td-engine-sub006/internal/core/ecs"
	"github.com/brandon-schabel/td-engine-sub006/internal/core/event"
	coresys "github.com/brandon-schabel/td-engine-sub006/internal/core/system"
	"github.com/brandon-schabel/td-engine-sub006/internal/data"
	"github.com/brandon-schabel/td-engine-sub006/internal/grid"
	"github.com/brandon-schabel/td-engine-sub006/internal/path"
)

// Options configures a new engine. Zero values fall back to conservative
// defaults; Seed 0 seeds the drop RNG from the wall clock.
type Options struct {
	StartingCurrency int
	StartingLives    int
	SellRefund       float64
	CommandQueueSize int
	Seed             int64
	Hooks            WaveHooks
}

func (o *Options) fillDefaults() {
	if o.StartingCurrency == 0 {
		o.StartingCurrency = 100
	}
	if o.StartingLives == 0 {
		o.StartingLives = 20
	}
	if o.SellRefund == 0 {
		o.SellRefund = 0.7
	}
	if o.CommandQueueSize == 0 {
		o.CommandQueueSize = 128
	}
	if o.Seed == 0 {
		o.Seed = time.Now().UnixNano()
	}
}

// Engine owns the simulation: world, systems, ledger, state machine and the
// event bus. All methods must be called from the goroutine driving Tick;
// other goroutines hand work in through Submit. Commands executed between
// ticks see a fully settled world.
type Engine struct {
	log    *zap.Logger
	tables *data.Tables
	opts   Options

	world   *World
	runner  *coresys.Runner
	machine *StateMachine
	ledger  *Ledger
	waves   *WaveScheduler
	effects *TickEffects
	rng     *rand.Rand

	submitted chan func(*Engine)
	selected  string
	ticking   bool // Tick re-entry guard
	inPhase   bool // set while systems run; commands are illegal then
}

func NewEngine(tables *data.Tables, opts Options, log *zap.Logger) (*Engine, error) {
	opts.fillDefaults()
	if log == nil {
		log = zap.NewNop()
	}
	e := &Engine{
		log:       log,
		tables:    tables,
		opts:      opts,
		submitted: make(chan func(*Engine), opts.CommandQueueSize),
	}
	if err := e.buildWorld(); err != nil {
		return nil, err
	}
	return e, nil
}

// buildWorld constructs a fresh run: grid, routes, stores, systems. Also the
// backing for Reset.
func (e *Engine) buildWorld() error {
	m := e.tables.Map
	g := grid.New(m.Width, m.Height, m.Blocked)
	planner, err := path.New(g, m.Spawns, m.Goal)
	if err != nil {
		return fmt.Errorf("map %dx%d: %w", m.Width, m.Height, err)
	}

	// The bus survives resets so outside subscribers keep their stream.
	bus := event.NewBus()
	if e.world != nil {
		bus = e.world.Bus
	}
	e.world = NewWorld(e.tables, g, planner, bus, e.opts.StartingLives)
	e.machine = NewStateMachine(bus)
	e.ledger = NewLedger(e.opts.StartingCurrency, e.opts.SellRefund, bus)
	e.effects = &TickEffects{}
	e.rng = rand.New(rand.NewSource(e.opts.Seed))
	e.waves = NewWaveScheduler(e.world, e.opts.Hooks)
	e.selected = ""

	e.runner = coresys.NewRunner()
	e.runner.Register(NewPathSystem(e.world))
	e.runner.Register(NewMovementSystem(e.world, e.effects))
	e.runner.Register(NewCombatSystem(e.world, e.effects))
	e.runner.Register(NewCleanupSystem(e.world))
	e.runner.Register(e.waves)
	// Collectibles before economy within the shared phase: a drop spawned
	// by this tick's kills lies on the ground until the next tick.
	e.runner.Register(NewCollectibleSystem(e.world))
	e.runner.Register(NewEconomySystem(e.world, e.ledger, e.effects, e.rng))
	e.runner.Register(NewStateSystem(e.world, e.machine, e.waves))
	return nil
}

// Tick advances the simulation by dt seconds. Submitted commands drain
// first, phases run in their fixed order while the game is PLAYING, and the
// buffered events flush last so observers always see a post-tick snapshot.
// Re-entering Tick from a handler or command is a bug and panics.
func (e *Engine) Tick(dt float64) {
	if e.ticking {
		panic("sim: Tick re-entered")
	}
	e.ticking = true
	defer func() { e.ticking = false }()

	e.drainSubmitted()
	if e.machine.Playing() {
		e.world.GameTime += dt
		e.inPhase = true
		e.runner.Tick(dt)
		e.inPhase = false
	}
	e.world.Bus.Flush()
}

// Submit queues fn to run on the tick goroutine at the start of the next
// Tick, before any phase. The only engine entry point safe for other
// goroutines. Returns false when the queue is full.
func (e *Engine) Submit(fn func(*Engine)) bool {
	select {
	case e.submitted <- fn:
		return true
	default:
		return false
	}
}

func (e *Engine) drainSubmitted() {
	for {
		select {
		case fn := <-e.submitted:
			fn(e)
		default:
			return
		}
	}
}

func (e *Engine) assertOutsideTick() {
	if e.inPhase {
		panic("sim: command issued from inside a tick phase")
	}
}

// Bus exposes the event bus for subscriptions. Subscribe before the first
// Tick; handlers run on the tick goroutine during flush.
func (e *Engine) Bus() *event.Bus { return e.world.Bus }

func (e *Engine) State() GameState       { return e.machine.Current() }
func (e *Engine) Currency() int          { return e.ledger.Balance() }
func (e *Engine) Lives() int             { return e.world.Lives }
func (e *Engine) Score() int             { return e.world.Score }
func (e *Engine) GameTime() float64      { return e.world.GameTime }
func (e *Engine) CurrentWave() int       { return e.waves.CurrentWave() }
func (e *Engine) WaveState() WaveState   { return e.waves.State() }
func (e *Engine) SelectedTower() string  { return e.selected }
func (e *Engine) Tables() *data.Tables   { return e.tables }
func (e *Engine) PlayerUnit() PlayerUnit { return *e.world.Player }

// Start begins a run from the menu.
func (e *Engine) Start() error {
	e.assertOutsideTick()
	return e.machine.Start()
}

func (e *Engine) Pause() error {
	e.assertOutsideTick()
	return e.machine.Pause()
}

func (e *Engine) Resume() error {
	e.assertOutsideTick()
	return e.machine.Resume()
}

// Reset tears the run down and returns to the menu. From MENU it is a
// no-op.
func (e *Engine) Reset() error {
	e.assertOutsideTick()
	if e.machine.Current() == StateMenu {
		return nil
	}
	// The machine emits the transition on the bus, which survives the
	// rebuild, so subscribers see it on the next flush.
	e.machine.Reset()
	return e.buildWorld()
}

// SetSelectedTowerType records the build cursor for PlaceSelected. The
// empty id clears the selection.
func (e *Engine) SetSelectedTowerType(defID string) error {
	e.assertOutsideTick()
	if defID != "" && e.tables.Towers.Get(defID) == nil {
		return fmt.Errorf("%w: %q", ErrUnknownTowerType, defID)
	}
	e.selected = defID
	return nil
}

// PlaceSelected places the currently selected tower type at c.
func (e *Engine) PlaceSelected(c grid.Cell) (ecs.EntityID, error) {
	if e.selected == "" {
		return 0, ErrNoTargetSelected
	}
	return e.PlaceTower(e.selected, c)
}

// PlaceTower validates, then commits: state, template, cell, funds and the
// path check all pass before anything mutates, so a failed placement leaves
// no trace.
func (e *Engine) PlaceTower(defID string, c grid.Cell) (ecs.EntityID, error) {
	e.assertOutsideTick()
	if !e.placementAllowed() {
		return 0, fmt.Errorf("%w: %s", ErrWrongState, e.machine.Current())
	}
	tpl := e.tables.Towers.Get(defID)
	if tpl == nil {
		return 0, fmt.Errorf("%w: %q", ErrUnknownTowerType, defID)
	}
	if err := e.world.Grid.Buildable(c); err != nil {
		return 0, err
	}
	if !e.ledger.CanAfford(tpl.Cost) {
		return 0, fmt.Errorf("%w: need %d, have %d", ErrInsufficientFunds, tpl.Cost, e.ledger.Balance())
	}
	if e.world.Paths.WouldBlock(c) {
		return 0, fmt.Errorf("%w: %v", ErrWouldBlockPath, c)
	}

	if err := e.ledger.Spend(tpl.Cost); err != nil {
		return 0, err
	}
	id := e.world.ECS.CreateEntity()
	if err := e.world.Grid.PlaceTower(c, id); err != nil {
		panic(fmt.Sprintf("sim: cell %v passed validation but placement failed: %v", c, err))
	}
	e.world.Towers.Set(id, &Tower{
		DefID:           defID,
		Cell:            c,
		Damage:          tpl.Damage,
		Range:           tpl.Range,
		FireRate:        tpl.FireRate,
		ProjectileSpeed: tpl.ProjectileSpeed,
		Projectile:      tpl.Projectile,
		Spent:           tpl.Cost,
	})
	event.Emit(e.world.Bus, TowerPlaced{ID: id, DefID: defID, Cell: c, Cost: tpl.Cost})
	e.log.Debug("tower placed", zap.String("def", defID), zap.Int("x", c.X), zap.Int("y", c.Y))
	return id, nil
}

// SellTower removes a tower and refunds a fraction of everything spent on
// it. The refund never exceeds the cumulative spend.
func (e *Engine) SellTower(id ecs.EntityID) (int, error) {
	e.assertOutsideTick()
	if !e.placementAllowed() {
		return 0, fmt.Errorf("%w: %s", ErrWrongState, e.machine.Current())
	}
	t, ok := e.world.Towers.Get(id)
	if !ok {
		return 0, fmt.Errorf("%w: tower %d", ErrUnknownEntity, id)
	}
	refund := e.ledger.RefundFor(t.Spent)
	cell := t.Cell

	e.world.Grid.RemoveTower(cell)
	e.world.ECS.MarkForDestruction(id)
	// Commands run between ticks, so flushing here only sweeps entities the
	// previous tick already condemned.
	e.world.ECS.FlushDestroyQueue()
	e.ledger.Credit(refund)
	event.Emit(e.world.Bus, TowerSold{ID: id, Cell: cell, Refund: refund})
	return refund, nil
}

// UpgradeTower raises one attribute of a tower by one level. Cost follows
// the tower's shared curve over total upgrades bought, so every purchase is
// strictly more expensive than the one before.
func (e *Engine) UpgradeTower(id ecs.EntityID, attr UpgradeAttr) (int, error) {
	e.assertOutsideTick()
	if !e.placementAllowed() {
		return 0, fmt.Errorf("%w: %s", ErrWrongState, e.machine.Current())
	}
	t, ok := e.world.Towers.Get(id)
	if !ok {
		return 0, fmt.Errorf("%w: tower %d", ErrUnknownEntity, id)
	}
	level, ok := t.Level(attr)
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrInvalidAttribute, attr)
	}
	tpl := e.tables.Towers.Get(t.DefID)
	if level >= tpl.MaxLevel {
		return 0, fmt.Errorf("%w: %s at %d", ErrMaxLevelReached, attr, level)
	}
	cost := UpgradeCost(tpl.UpgradeCost, tpl.UpgradeCostMult, t.UpgradesDone)
	if err := e.ledger.Spend(cost); err != nil {
		return 0, err
	}

	switch attr {
	case AttrDamage:
		t.Damage += tpl.DamagePerLevel
		t.DamageLevel++
		level = t.DamageLevel
	case AttrRange:
		t.Range += tpl.RangePerLevel
		t.RangeLevel++
		level = t.RangeLevel
	case AttrFireRate:
		t.FireRate += tpl.FireRatePerLevel
		t.FireRateLevel++
		level = t.FireRateLevel
	}
	t.UpgradesDone++
	t.Spent += cost
	event.Emit(e.world.Bus, TowerUpgraded{ID: id, Attribute: attr, Level: level, Cost: cost})
	return cost, nil
}

// UpgradePlayer raises one attribute of the player unit by one level.
// A max-health upgrade also heals by the gained amount.
func (e *Engine) UpgradePlayer(attr UpgradeAttr) (int, error) {
	e.assertOutsideTick()
	if !e.placementAllowed() {
		return 0, fmt.Errorf("%w: %s", ErrWrongState, e.machine.Current())
	}
	p := e.world.Player
	tpl := e.tables.Player

	var level *int
	switch attr {
	case AttrDamage:
		level = &p.DamageLevel
	case AttrFireRate:
		level = &p.FireRateLevel
	case AttrMaxHealth:
		level = &p.HealthLevel
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidAttribute, attr)
	}
	if *level >= tpl.MaxLevel {
		return 0, fmt.Errorf("%w: %s at %d", ErrMaxLevelReached, attr, *level)
	}
	cost := UpgradeCost(tpl.UpgradeCost, tpl.UpgradeCostMult, p.UpgradesDone)
	if err := e.ledger.Spend(cost); err != nil {
		return 0, err
	}

	switch attr {
	case AttrDamage:
		p.Damage += tpl.DamagePerLevel
	case AttrFireRate:
		p.FireRate += tpl.FireRatePerLevel
	case AttrMaxHealth:
		p.MaxHealth += tpl.MaxHealthPerLevel
		p.Health += tpl.MaxHealthPerLevel
	}
	*level++
	p.UpgradesDone++
	event.Emit(e.world.Bus, PlayerUpgraded{Attribute: attr, Level: *level, Cost: cost})
	return cost, nil
}

// StartNextWave launches the next wave. Valid only while PLAYING with no
// wave underway.
func (e *Engine) StartNextWave() (int, error) {
	e.assertOutsideTick()
	if !e.machine.Playing() {
		return 0, fmt.Errorf("%w: %s", ErrWrongState, e.machine.Current())
	}
	if !e.waves.StartNext() {
		return 0, ErrWaveNotReady
	}
	return e.waves.CurrentWave(), nil
}

// placementAllowed reports whether build commands may run: while playing or
// paused, never from the menu or a finished run.
func (e *Engine) placementAllowed() bool {
	switch e.machine.Current() {
	case StatePlaying, StatePaused:
		return true
	}
	return false
}
