// Package grid buckets particle indices into uniform square cells covering
// the square that bounds the circular container.
package grid

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// DefaultCellFactor is the cell size as a multiple of the particle diameter.
// With cells at least one diameter wide, checking a cell against itself and
// four forward neighbours finds every overlapping pair.
const DefaultCellFactor = 2.5

type Grid struct {
	radius   float64
	cellSize float64
	size     int
	cells    [][]int
}

// New panics if radius or cellSize is not positive.
func New(radius, cellSize float64) *Grid {
	if !(radius > 0) || !(cellSize > 0) {
		panic("grid: radius and cell size must be positive")
	}
	size := int(radius * 2 / cellSize)
	if size < 1 {
		size = 1
	}
	return &Grid{
		radius:   radius,
		cellSize: cellSize,
		size:     size,
		cells:    make([][]int, size*size),
	}
}

func (g *Grid) Size() int              { return g.size }
func (g *Grid) CellSize() float64      { return g.cellSize }
func (g *Grid) Radius() float64        { return g.radius }
func (g *Grid) Index(row, col int) int { return row*g.size + col }

// Cell returns the indices bucketed into (row, col). The slice is owned by
// the grid and is only valid until the next Rebuild.
func (g *Grid) Cell(row, col int) []int {
	return g.cells[g.Index(row, col)]
}

// CellOf maps a position to its cell. Positions outside the bounding square
// are clamped to the nearest edge cell.
func (g *Grid) CellOf(pos r2.Vec) (row, col int) {
	col = g.clamp(math.Floor((pos.X + g.radius) / g.cellSize))
	row = g.clamp(math.Floor((pos.Y + g.radius) / g.cellSize))
	return row, col
}

func (g *Grid) clamp(v float64) int {
	if v < 0 || math.IsNaN(v) {
		return 0
	}
	if v >= float64(g.size) {
		return g.size - 1
	}
	return int(v)
}

// Rebuild empties every cell and re-buckets indices [0, n).
func (g *Grid) Rebuild(n int, position func(i int) r2.Vec) {
	for i := range g.cells {
		g.cells[i] = g.cells[i][:0]
	}
	for i := 0; i < n; i++ {
		row, col := g.CellOf(position(i))
		idx := g.Index(row, col)
		g.cells[idx] = append(g.cells[idx], i)
	}
}

// Count returns the number of bucketed indices.
func (g *Grid) Count() int {
	n := 0
	for _, c := range g.cells {
		n += len(c)
	}
	return n
}
