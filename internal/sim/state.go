package sim

import (
	"github.com/brandon-schabel/td-engine-sub006/internal/core/event"
	coresys "github.com/brandon-schabel/td-engine-sub006/internal/core/system"
)

// StateSystem decides the end of a run. It is the last phase of the tick, so
// defeat and victory are judged against fully settled lives and score.
// Defeat wins ties: losing the last life on the tick the final wave clears
// is still a loss.
type StateSystem struct {
	w       *World
	machine *StateMachine
	waves   *WaveScheduler
}

func NewStateSystem(w *World, machine *StateMachine, waves *WaveScheduler) *StateSystem {
	return &StateSystem{w: w, machine: machine, waves: waves}
}

func (s *StateSystem) Phase() coresys.Phase { return coresys.PhaseState }

func (s *StateSystem) Update(dt float64) {
	if s.machine.Current() != StatePlaying {
		return
	}
	if s.w.Lives <= 0 {
		s.machine.GameOver()
		event.Emit(s.w.Bus, GameOver{Wave: s.waves.CurrentWave(), Score: s.w.Score})
		return
	}
	if s.waves.FinalCleared() {
		s.machine.Win()
		event.Emit(s.w.Bus, Victory{Wave: s.waves.CurrentWave(), Score: s.w.Score})
	}
}
