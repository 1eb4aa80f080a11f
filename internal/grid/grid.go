// Package grid implements the placement grid: a fixed rectangular matrix of
// cells that are empty, scenery-blocked, or occupied by exactly one tower.
package grid

import (
	"errors"
	"fmt"

	"github.com/brandon-schabel/td-engine-sub006/internal/core/ecs"
)

// Validation failures returned to the command surface. Recoverable; callers
// match with errors.Is.
var (
	ErrOutOfBounds  = errors.New("cell out of bounds")
	ErrOccupiedCell = errors.New("cell already holds a tower")
	ErrBlockedCell  = errors.New("cell is blocked scenery")
)

// CellState is the occupancy of one cell.
type CellState uint8

const (
	CellEmpty CellState = iota
	CellBlocked
	CellTower
)

// Grid is the occupancy map. Mutating occupancy marks it dirty; the path
// planner consumes the flag and recomputes routes.
type Grid struct {
	width  int
	height int
	cells  []CellState
	towers map[Cell]ecs.EntityID
	dirty  bool
}

// New builds a grid of the given dimensions with the listed scenery cells
// pre-blocked.
func New(width, height int, blocked []Cell) *Grid {
	g := &Grid{
		width:  width,
		height: height,
		cells:  make([]CellState, width*height),
		towers: make(map[Cell]ecs.EntityID),
		dirty:  true, // force the first route computation
	}
	for _, c := range blocked {
		g.cells[g.index(c)] = CellBlocked
	}
	return g
}

func (g *Grid) index(c Cell) int { return c.Y*g.width + c.X }

func (g *Grid) Width() int  { return g.width }
func (g *Grid) Height() int { return g.height }

func (g *Grid) InBounds(c Cell) bool {
	return c.X >= 0 && c.X < g.width && c.Y >= 0 && c.Y < g.height
}

// State returns the occupancy of c. Out-of-bounds cells read as blocked so
// walkability checks need no separate bounds test.
func (g *Grid) State(c Cell) CellState {
	if !g.InBounds(c) {
		return CellBlocked
	}
	return g.cells[g.index(c)]
}

// Walkable reports whether an enemy can traverse c.
func (g *Grid) Walkable(c Cell) bool {
	return g.State(c) == CellEmpty
}

// Buildable reports whether a tower may be placed on c, as a nil error or
// the specific validation failure. Path connectivity is the planner's check
// and happens before commit, not here.
func (g *Grid) Buildable(c Cell) error {
	if !g.InBounds(c) {
		return fmt.Errorf("%w: %v", ErrOutOfBounds, c)
	}
	switch g.cells[g.index(c)] {
	case CellTower:
		return fmt.Errorf("%w: %v", ErrOccupiedCell, c)
	case CellBlocked:
		return fmt.Errorf("%w: %v", ErrBlockedCell, c)
	}
	return nil
}

// PlaceTower occupies c with the tower entity. The caller has already
// validated buildability and path connectivity; a conflicting placement here
// is a programming error.
func (g *Grid) PlaceTower(c Cell, id ecs.EntityID) error {
	if err := g.Buildable(c); err != nil {
		return err
	}
	g.cells[g.index(c)] = CellTower
	g.towers[c] = id
	g.dirty = true
	return nil
}

// RemoveTower frees c and returns the tower that stood there.
func (g *Grid) RemoveTower(c Cell) (ecs.EntityID, bool) {
	id, ok := g.towers[c]
	if !ok {
		return 0, false
	}
	delete(g.towers, c)
	g.cells[g.index(c)] = CellEmpty
	g.dirty = true
	return id, true
}

// TowerAt returns the tower occupying c, if any.
func (g *Grid) TowerAt(c Cell) (ecs.EntityID, bool) {
	id, ok := g.towers[c]
	return id, ok
}

// TowerCount returns the number of towers on the grid.
func (g *Grid) TowerCount() int {
	return len(g.towers)
}

// Neighbors returns the in-bounds 4-connected neighbors of c in a fixed
// order, walkable or not.
func (g *Grid) Neighbors(c Cell) []Cell {
	out := make([]Cell, 0, 4)
	for _, n := range c.Neighbors4() {
		if g.InBounds(n) {
			out = append(out, n)
		}
	}
	return out
}

// Dirty reports whether occupancy changed since the last ClearDirty.
func (g *Grid) Dirty() bool { return g.dirty }

// ClearDirty is called by the path planner after recomputing routes.
func (g *Grid) ClearDirty() { g.dirty = false }

// Speculate runs fn with c temporarily treated as tower-occupied, restoring
// the previous state afterwards. The dirty flag is untouched: speculation is
// validation, not mutation.
func (g *Grid) Speculate(c Cell, fn func() bool) bool {
	idx := g.index(c)
	prev := g.cells[idx]
	g.cells[idx] = CellTower
	defer func() { g.cells[idx] = prev }()
	return fn()
}
