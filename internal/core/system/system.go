package system

// Phase defines execution ordering within a single tick. The order is
// load-bearing: movement runs before combat so combat resolves against
// current-tick positions, and destruction flushes after combat but before
// wave accounting reads the survivor set.
type Phase int

const (
	PhasePath     Phase = iota // 0: apply grid mutations, recompute routes if dirty
	PhaseMovement              // 1: advance enemies, projectiles, player
	PhaseCombat                // 2: targeting, firing, impacts, damage
	PhaseCleanup               // 3: flush deferred entity destruction
	PhaseWave                  // 4: spawn scheduling, wave state transitions
	PhaseEconomy               // 5: collectibles, power-up expiry, economy side-effects
	PhaseState                 // 6: evaluate terminal game-state conditions
)

// System is the interface every simulation system implements. Update receives
// the tick delta in seconds.
type System interface {
	Phase() Phase
	Update(dt float64)
}
