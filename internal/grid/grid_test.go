package grid

import (
	"errors"
	"testing"
)

func TestBuildableValidation(t *testing.T) {
	g := New(4, 3, []Cell{{X: 1, Y: 1}})

	if err := g.Buildable(Cell{X: 0, Y: 0}); err != nil {
		t.Fatalf("empty cell not buildable: %v", err)
	}
	if err := g.Buildable(Cell{X: 4, Y: 0}); !errors.Is(err, ErrOutOfBounds) {
		t.Fatalf("out of bounds -> %v, want ErrOutOfBounds", err)
	}
	if err := g.Buildable(Cell{X: -1, Y: 2}); !errors.Is(err, ErrOutOfBounds) {
		t.Fatalf("negative coord -> %v, want ErrOutOfBounds", err)
	}
	if err := g.Buildable(Cell{X: 1, Y: 1}); !errors.Is(err, ErrBlockedCell) {
		t.Fatalf("scenery cell -> %v, want ErrBlockedCell", err)
	}

	if err := g.PlaceTower(Cell{X: 2, Y: 1}, 7); err != nil {
		t.Fatalf("place: %v", err)
	}
	if err := g.Buildable(Cell{X: 2, Y: 1}); !errors.Is(err, ErrOccupiedCell) {
		t.Fatalf("tower cell -> %v, want ErrOccupiedCell", err)
	}
}

func TestPlaceRemoveRoundTrip(t *testing.T) {
	g := New(3, 3, nil)
	c := Cell{X: 1, Y: 2}

	if err := g.PlaceTower(c, 42); err != nil {
		t.Fatalf("place: %v", err)
	}
	if id, ok := g.TowerAt(c); !ok || id != 42 {
		t.Fatalf("TowerAt = %d,%v, want 42,true", id, ok)
	}
	if g.Walkable(c) {
		t.Fatal("tower cell still walkable")
	}
	if g.TowerCount() != 1 {
		t.Fatalf("TowerCount = %d, want 1", g.TowerCount())
	}

	id, ok := g.RemoveTower(c)
	if !ok || id != 42 {
		t.Fatalf("RemoveTower = %d,%v, want 42,true", id, ok)
	}
	if !g.Walkable(c) {
		t.Fatal("cell not walkable after removal")
	}
	if _, ok := g.RemoveTower(c); ok {
		t.Fatal("second removal reported a tower")
	}
}

func TestDirtyFlag(t *testing.T) {
	g := New(3, 3, nil)
	if !g.Dirty() {
		t.Fatal("fresh grid should be dirty to force the first route pass")
	}
	g.ClearDirty()

	if err := g.PlaceTower(Cell{X: 0, Y: 0}, 1); err != nil {
		t.Fatalf("place: %v", err)
	}
	if !g.Dirty() {
		t.Fatal("placement did not mark the grid dirty")
	}
	g.ClearDirty()

	g.RemoveTower(Cell{X: 0, Y: 0})
	if !g.Dirty() {
		t.Fatal("removal did not mark the grid dirty")
	}
}

func TestSpeculateRestoresState(t *testing.T) {
	g := New(3, 3, nil)
	g.ClearDirty()
	c := Cell{X: 1, Y: 1}

	saw := g.Speculate(c, func() bool {
		return !g.Walkable(c)
	})
	if !saw {
		t.Fatal("callback did not observe the speculative tower")
	}
	if !g.Walkable(c) {
		t.Fatal("speculation leaked into committed state")
	}
	if g.Dirty() {
		t.Fatal("speculation marked the grid dirty")
	}
}

func TestOutOfBoundsReadsAsBlocked(t *testing.T) {
	g := New(2, 2, nil)
	if g.Walkable(Cell{X: -1, Y: 0}) || g.Walkable(Cell{X: 0, Y: 2}) {
		t.Fatal("out-of-bounds cell reported walkable")
	}
	if g.State(Cell{X: 5, Y: 5}) != CellBlocked {
		t.Fatal("out-of-bounds state is not blocked")
	}
}
