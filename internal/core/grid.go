package core

// Faction identifies the population occupying a cell. Dead is reserved for
// unoccupied cells.
type Faction uint8

const (
	// Dead marks an unoccupied cell.
	Dead Faction = 0
	// MaxFactions bounds faction identifiers, counting Dead.
	MaxFactions = 10
	// NoCell is what At reports for coordinates outside the grid.
	NoCell = -1
)

// Grid stores faction identifiers for a rows x cols board in row-major order.
type Grid struct {
	Rows, Cols int
	data       []Faction
}

// NewGrid allocates a dead grid with the given dimensions.
func NewGrid(rows, cols int) *Grid {
	if rows < 0 {
		rows = 0
	}
	if cols < 0 {
		cols = 0
	}
	return &Grid{Rows: rows, Cols: cols, data: make([]Faction, rows*cols)}
}

// GridFrom copies cells into a new grid. Extra cells are ignored and missing
// cells stay dead.
func GridFrom(rows, cols int, cells []Faction) *Grid {
	g := NewGrid(rows, cols)
	copy(g.data, cells)
	return g
}

// Cells exposes the backing slice so callers can read/write values directly.
func (g *Grid) Cells() []Faction { return g.data }

// Len returns the number of cells.
func (g *Grid) Len() int { return len(g.data) }

// Index returns the linear slice index for (row, col).
func (g *Grid) Index(row, col int) int { return row*g.Cols + col }

// InBounds reports whether (row, col) addresses a cell of the grid.
func (g *Grid) InBounds(row, col int) bool {
	return row >= 0 && row < g.Rows && col >= 0 && col < g.Cols
}

// At returns the faction at (row, col), or NoCell when the coordinates fall
// off the edge of the board.
func (g *Grid) At(row, col int) int {
	if !g.InBounds(row, col) {
		return NoCell
	}
	return int(g.data[row*g.Cols+col])
}

// Set writes f at (row, col). Out of range writes are dropped.
func (g *Grid) Set(row, col int, f Faction) {
	if !g.InBounds(row, col) {
		return
	}
	g.data[row*g.Cols+col] = f
}

// SameShape reports whether both grids have identical dimensions.
func (g *Grid) SameShape(other *Grid) bool {
	return other != nil && g.Rows == other.Rows && g.Cols == other.Cols
}

// Clone returns an independent copy of the grid.
func (g *Grid) Clone() *Grid {
	return GridFrom(g.Rows, g.Cols, g.data)
}

// CopyFrom overwrites the grid with the contents of src. Both grids must share
// dimensions; it reports false otherwise.
func (g *Grid) CopyFrom(src *Grid) bool {
	if !g.SameShape(src) {
		return false
	}
	copy(g.data, src.data)
	return true
}

// Equal reports whether both grids have the same shape and contents.
func (g *Grid) Equal(other *Grid) bool {
	if !g.SameShape(other) {
		return false
	}
	for i, v := range g.data {
		if other.data[i] != v {
			return false
		}
	}
	return true
}

// Clear fills the grid with dead cells.
func (g *Grid) Clear() {
	for i := range g.data {
		g.data[i] = Dead
	}
}

// Census counts cells per faction. Index 0 holds the dead cell count.
func (g *Grid) Census() [MaxFactions]int {
	var out [MaxFactions]int
	for _, v := range g.data {
		if int(v) < MaxFactions {
			out[v]++
		}
	}
	return out
}

// Bytes returns a copy of the cells as raw bytes.
func (g *Grid) Bytes() []uint8 {
	out := make([]uint8, len(g.data))
	for i, v := range g.data {
		out[i] = uint8(v)
	}
	return out
}
