package sim

import (
	"errors"
	"testing"

	"github.com/brandon-schabel/td-engine-sub006/internal/core/event"
)

func TestStateMachineTransitions(t *testing.T) {
	bus := event.NewBus()
	m := NewStateMachine(bus)

	if m.Current() != StateMenu {
		t.Fatalf("initial state %s, want MENU", m.Current())
	}
	if err := m.Pause(); !errors.Is(err, ErrWrongState) {
		t.Fatalf("pause from menu -> %v, want ErrWrongState", err)
	}
	if err := m.Resume(); !errors.Is(err, ErrWrongState) {
		t.Fatalf("resume from menu -> %v, want ErrWrongState", err)
	}

	if err := m.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := m.Start(); !errors.Is(err, ErrWrongState) {
		t.Fatalf("double start -> %v, want ErrWrongState", err)
	}

	if err := m.Pause(); err != nil {
		t.Fatalf("pause: %v", err)
	}
	if err := m.Pause(); !errors.Is(err, ErrWrongState) {
		t.Fatal("double pause accepted")
	}
	if err := m.Resume(); err != nil {
		t.Fatalf("resume: %v", err)
	}
	if m.Current() != StatePlaying {
		t.Fatalf("state %s after resume, want PLAYING", m.Current())
	}
}

func TestTerminalStatesStick(t *testing.T) {
	bus := event.NewBus()
	m := NewStateMachine(bus)
	m.Start()
	m.GameOver()

	if m.Current() != StateGameOver {
		t.Fatalf("state %s, want GAME_OVER", m.Current())
	}
	// Terminal states ignore further outcomes and reject gameplay commands.
	m.Win()
	if m.Current() != StateGameOver {
		t.Fatal("Win overrode GAME_OVER")
	}
	if err := m.Start(); !errors.Is(err, ErrWrongState) {
		t.Fatal("start from terminal state accepted")
	}
	if err := m.Resume(); !errors.Is(err, ErrWrongState) {
		t.Fatal("resume from terminal state accepted")
	}

	m.Reset()
	if m.Current() != StateMenu {
		t.Fatalf("state %s after reset, want MENU", m.Current())
	}
}

func TestStateChangeEventsFireOncePerTransition(t *testing.T) {
	bus := event.NewBus()
	m := NewStateMachine(bus)

	var got []GameStateChanged
	event.Subscribe(bus, func(ev GameStateChanged) { got = append(got, ev) })

	m.Start()
	m.Pause()
	m.Pause() // rejected, no event
	m.Resume()
	m.GameOver()
	m.GameOver() // no-op in terminal state
	m.Reset()
	m.Reset() // no-op in menu
	bus.Flush()

	want := []GameStateChanged{
		{From: StateMenu, To: StatePlaying},
		{From: StatePlaying, To: StatePaused},
		{From: StatePaused, To: StatePlaying},
		{From: StatePlaying, To: StateGameOver},
		{From: StateGameOver, To: StateMenu},
	}
	if len(got) != len(want) {
		t.Fatalf("got %d events, want %d: %+v", len(got), len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("event %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}
