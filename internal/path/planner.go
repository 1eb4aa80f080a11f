// Package path computes enemy routes across the placement grid. Routes are
// breadth-first shortest paths over the 4-connected grid, cached and
// recomputed only when grid occupancy changes.
package path

import (
	"fmt"
	"math"

	"github.com/brandon-schabel/td-engine-sub006/internal/grid"
)

// Planner owns the cached spawn→goal routes. Placement validation calls
// WouldBlock before any commit; a committed placement therefore never leaves
// a spawn without a route, and Refresh treats that case as a fatal invariant
// violation rather than a recoverable error.
type Planner struct {
	g      *grid.Grid
	spawns []grid.Cell
	goal   grid.Cell
	routes map[grid.Cell][]grid.Cell
}

// New builds a planner and computes the initial routes. An initially
// disconnected map is a data error, reported as such.
func New(g *grid.Grid, spawns []grid.Cell, goal grid.Cell) (*Planner, error) {
	p := &Planner{
		g:      g,
		spawns: spawns,
		goal:   goal,
		routes: make(map[grid.Cell][]grid.Cell, len(spawns)),
	}
	dist := p.distanceField()
	for _, s := range spawns {
		route := p.routeFrom(s, dist)
		if route == nil {
			return nil, fmt.Errorf("no route from spawn %v to goal %v", s, goal)
		}
		p.routes[s] = route
	}
	p.g.ClearDirty()
	return p, nil
}

// Refresh recomputes routes if the grid is dirty. Called once per tick,
// before movement, and immediately after any accepted placement.
func (p *Planner) Refresh() {
	if !p.g.Dirty() {
		return
	}
	dist := p.distanceField()
	for _, s := range p.spawns {
		route := p.routeFrom(s, dist)
		if route == nil {
			// Placement validation must reject disconnecting placements
			// before commit; reaching here means the simulation diverged.
			panic(fmt.Sprintf("path: spawn %v disconnected from goal after committed mutation", s))
		}
		p.routes[s] = route
	}
	p.g.ClearDirty()
}

// Route returns the cached route for a spawn. The slice is shared; callers
// must not mutate it.
func (p *Planner) Route(spawn grid.Cell) []grid.Cell {
	r, ok := p.routes[spawn]
	if !ok {
		panic(fmt.Sprintf("path: no route cached for spawn %v", spawn))
	}
	return r
}

// Spawns returns the spawn cells in definition order.
func (p *Planner) Spawns() []grid.Cell {
	return p.spawns
}

// Goal returns the goal cell.
func (p *Planner) Goal() grid.Cell {
	return p.goal
}

// WouldBlock reports whether occupying c would leave any spawn without a
// route to the goal. The grid is speculatively occupied and restored; no
// committed state changes.
func (p *Planner) WouldBlock(c grid.Cell) bool {
	if c == p.goal {
		return true
	}
	for _, s := range p.spawns {
		if c == s {
			return true
		}
	}
	return p.g.Speculate(c, func() bool {
		dist := p.distanceField()
		for _, s := range p.spawns {
			if _, ok := dist[s]; !ok {
				return true
			}
		}
		return false
	})
}

// distanceField runs a single BFS outward from the goal over walkable cells
// and returns hop distances. One pass serves every spawn.
func (p *Planner) distanceField() map[grid.Cell]int {
	dist := map[grid.Cell]int{p.goal: 0}
	queue := []grid.Cell{p.goal}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, n := range cur.Neighbors4() {
			if !p.g.Walkable(n) {
				continue
			}
			if _, seen := dist[n]; seen {
				continue
			}
			dist[n] = dist[cur] + 1
			queue = append(queue, n)
		}
	}
	return dist
}

// routeFrom descends the distance field from spawn to goal. Neighbor order
// is fixed, so equal-length routes resolve identically on every run. Returns
// nil when the spawn is unreachable.
func (p *Planner) routeFrom(spawn grid.Cell, dist map[grid.Cell]int) []grid.Cell {
	d, ok := dist[spawn]
	if !ok {
		return nil
	}
	route := make([]grid.Cell, 0, d+1)
	cur := spawn
	route = append(route, cur)
	for cur != p.goal {
		next := cur
		for _, n := range cur.Neighbors4() {
			if nd, ok := dist[n]; ok && nd == dist[cur]-1 {
				next = n
				break
			}
		}
		if next == cur {
			panic(fmt.Sprintf("path: distance field has no descent from %v", cur))
		}
		if !p.g.Walkable(next) {
			panic(fmt.Sprintf("path: route passes through non-walkable cell %v", next))
		}
		cur = next
		route = append(route, cur)
	}
	return route
}

// ProgressAt projects a continuous position onto a route and returns the
// scalar progress of the nearest point. Scalar progress is only meaningful
// against the route it was measured on, so when routes are recomputed under
// live enemies the caller re-derives progress from position through this.
// Equal distances resolve to the earlier segment.
func ProgressAt(route []grid.Cell, x, y float64) float64 {
	if len(route) == 0 {
		panic("path: progress on empty route")
	}
	best := 0.0
	bestDist := math.MaxFloat64
	for i := 0; i < len(route)-1; i++ {
		ax, ay := float64(route[i].X), float64(route[i].Y)
		bx, by := float64(route[i+1].X), float64(route[i+1].Y)
		// Segments join 4-connected cells, so each has unit length and the
		// projection parameter needs no normalization.
		t := (x-ax)*(bx-ax) + (y-ay)*(by-ay)
		if t < 0 {
			t = 0
		} else if t > 1 {
			t = 1
		}
		px, py := ax+(bx-ax)*t, ay+(by-ay)*t
		d := (x-px)*(x-px) + (y-py)*(y-py)
		if d < bestDist {
			bestDist = d
			best = float64(i) + t
		}
	}
	return best
}

// Interpolate converts scalar progress (cells traveled) along a route into a
// continuous position in cell units. Progress clamps to the route ends.
func Interpolate(route []grid.Cell, progress float64) (x, y float64) {
	if len(route) == 0 {
		panic("path: interpolate on empty route")
	}
	if progress <= 0 {
		return float64(route[0].X), float64(route[0].Y)
	}
	last := len(route) - 1
	if progress >= float64(last) {
		return float64(route[last].X), float64(route[last].Y)
	}
	i := int(progress)
	frac := progress - float64(i)
	a, b := route[i], route[i+1]
	return float64(a.X) + (float64(b.X)-float64(a.X))*frac,
		float64(a.Y) + (float64(b.Y)-float64(a.Y))*frac
}
