package grid

// Cell addresses one unit square of the placement grid. X grows right,
// Y grows down; (0,0) is the top-left corner.
type Cell struct {
	X int `yaml:"x" json:"x"`
	Y int `yaml:"y" json:"y"`
}

// Neighbors4 returns the von Neumann neighborhood in a fixed order
// (up, left, right, down). Callers filter for bounds.
func (c Cell) Neighbors4() [4]Cell {
	return [4]Cell{
		{c.X, c.Y - 1},
		{c.X - 1, c.Y},
		{c.X + 1, c.Y},
		{c.X, c.Y + 1},
	}
}
