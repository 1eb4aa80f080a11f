package sim

import (
	"fmt"

	"github.com/brandon-schabel/td-engine-sub006/internal/core/event"
)

// GameState is the coarse game phase. Only PLAYING advances gameplay
// systems; PAUSED freezes the clock but keeps state queryable; GAME_OVER and
// VICTORY are terminal until reset.
type GameState string

const (
	StateMenu     GameState = "MENU"
	StatePlaying  GameState = "PLAYING"
	StatePaused   GameState = "PAUSED"
	StateGameOver GameState = "GAME_OVER"
	StateVictory  GameState = "VICTORY"
)

// StateMachine guards the legal transitions. GameStateChanged fires exactly
// once per actual transition and never for a no-op to the same state.
type StateMachine struct {
	state GameState
	bus   *event.Bus
}

func NewStateMachine(bus *event.Bus) *StateMachine {
	return &StateMachine{state: StateMenu, bus: bus}
}

func (m *StateMachine) Current() GameState { return m.state }

// Playing reports whether gameplay systems should advance this tick.
func (m *StateMachine) Playing() bool { return m.state == StatePlaying }

// Start moves MENU → PLAYING.
func (m *StateMachine) Start() error {
	if m.state != StateMenu {
		return fmt.Errorf("%w: start from %s", ErrWrongState, m.state)
	}
	m.set(StatePlaying)
	return nil
}

// Pause moves PLAYING → PAUSED.
func (m *StateMachine) Pause() error {
	if m.state != StatePlaying {
		return fmt.Errorf("%w: pause from %s", ErrWrongState, m.state)
	}
	m.set(StatePaused)
	return nil
}

// Resume moves PAUSED → PLAYING.
func (m *StateMachine) Resume() error {
	if m.state != StatePaused {
		return fmt.Errorf("%w: resume from %s", ErrWrongState, m.state)
	}
	m.set(StatePlaying)
	return nil
}

// GameOver moves any live state to GAME_OVER. Called by the state system
// when lives reach zero.
func (m *StateMachine) GameOver() {
	if m.state == StateGameOver || m.state == StateVictory {
		return
	}
	m.set(StateGameOver)
}

// Win moves any live state to VICTORY. Called when the final wave clears.
func (m *StateMachine) Win() {
	if m.state == StateGameOver || m.state == StateVictory {
		return
	}
	m.set(StateVictory)
}

// Reset returns to MENU from any state.
func (m *StateMachine) Reset() {
	if m.state == StateMenu {
		return
	}
	m.set(StateMenu)
}

func (m *StateMachine) set(to GameState) {
	from := m.state
	m.state = to
	event.Emit(m.bus, GameStateChanged{From: from, To: to})
}
