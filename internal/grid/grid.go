// Package grid holds the immutable obstacle grid shared by the distance-field
// engine, the window extractor and the sequential reference planner.
//
// Cells are addressed as (x, y) with x the column and y the row; storage is
// row-major, so Index(x, y) == y*Width + x.
package grid

import "errors"

var (
	// ErrEmptyGrid indicates the input has no rows or no columns.
	ErrEmptyGrid = errors.New("grid: grid must have at least one row and one column")
	// ErrNonRectangular indicates rows of differing lengths.
	ErrNonRectangular = errors.New("grid: all rows must have the same length")
	// ErrSizeMismatch indicates a flat cell slice that does not hold width*height cells.
	ErrSizeMismatch = errors.New("grid: cell count does not match width*height")
)

// Cell is a grid coordinate.
type Cell struct {
	X, Y int
}

// Task pairs the cell an agent stands on with the goal its field is computed for.
type Task struct {
	Agent Cell
	Goal  Cell
}

// Grid is a fixed-size obstacle map. It is never mutated after construction,
// so a single *Grid may be shared by any number of concurrent readers.
type Grid struct {
	width   int
	height  int
	blocked []bool
}

// New builds a Grid from a row-major blocked slice. The slice is copied.
func New(width, height int, blocked []bool) (*Grid, error) {
	if width <= 0 || height <= 0 {
		return nil, ErrEmptyGrid
	}
	if len(blocked) != width*height {
		return nil, ErrSizeMismatch
	}
	cells := make([]bool, len(blocked))
	copy(cells, blocked)
	return &Grid{width: width, height: height, blocked: cells}, nil
}

// FromBools builds a Grid from rows of blocked flags, rows[y][x].
func FromBools(rows [][]bool) (*Grid, error) {
	if len(rows) == 0 || len(rows[0]) == 0 {
		return nil, ErrEmptyGrid
	}
	w := len(rows[0])
	cells := make([]bool, 0, w*len(rows))
	for _, row := range rows {
		if len(row) != w {
			return nil, ErrNonRectangular
		}
		cells = append(cells, row...)
	}
	return &Grid{width: w, height: len(rows), blocked: cells}, nil
}

// FromRows builds a Grid from text rows using the MovingAI passability rule
// (see Passable). It is mostly a convenience for tests and examples.
func FromRows(rows ...string) (*Grid, error) {
	bools := make([][]bool, len(rows))
	for y, row := range rows {
		r := []rune(row)
		bools[y] = make([]bool, len(r))
		for x, c := range r {
			bools[y][x] = !Passable(c)
		}
	}
	return FromBools(bools)
}

// Passable reports whether a map character denotes a free cell.
func Passable(c rune) bool {
	return c == '.' || c == 'G' || c == 'S'
}

// Width returns the number of columns.
func (g *Grid) Width() int { return g.width }

// Height returns the number of rows.
func (g *Grid) Height() int { return g.height }

// Cells returns Width*Height.
func (g *Grid) Cells() int { return g.width * g.height }

// InBounds reports whether (x,y) lies within the grid.
func (g *Grid) InBounds(x, y int) bool {
	return x >= 0 && x < g.width && y >= 0 && y < g.height
}

// Blocked reports whether (x,y) is an obstacle. Off-grid cells count as blocked.
func (g *Grid) Blocked(x, y int) bool {
	if !g.InBounds(x, y) {
		return true
	}
	return g.blocked[y*g.width+x]
}

// Free is the negation of Blocked.
func (g *Grid) Free(x, y int) bool {
	return !g.Blocked(x, y)
}

// BlockedAt reports whether the cell at row-major index i is an obstacle.
func (g *Grid) BlockedAt(i int) bool {
	return g.blocked[i]
}

// Index converts (x,y) to a row-major index. No bounds check.
func (g *Grid) Index(x, y int) int {
	return y*g.width + x
}

// Coordinate converts a row-major index back to (x,y).
func (g *Grid) Coordinate(i int) (x, y int) {
	return i % g.width, i / g.width
}

// FreeCount returns the number of unblocked cells.
func (g *Grid) FreeCount() int {
	n := 0
	for _, b := range g.blocked {
		if !b {
			n++
		}
	}
	return n
}
