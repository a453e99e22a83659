package broadphase

import (
	"github.com/san-kum/verletsim/internal/grid"
	"github.com/san-kum/verletsim/internal/particle"
	"github.com/san-kum/verletsim/internal/workerpool"
)

// Forward neighbours (dx, dy): right, bottom-right, bottom, bottom-left.
// Visiting only these from every cell covers all eight neighbours exactly
// once over a full pass.
var neighborOffsets = [4][2]int{
	{1, 0},
	{1, 1},
	{0, 1},
	{-1, 1},
}

// Region is a half-open block of cells [x0, x1) x [y0, y1).
type Region struct {
	X0, X1, Y0, Y1 int
}

// scanRegion emits pairs for the cells inside r. Neighbour lookups may leave
// r; the grid is read-only while scanning so that is safe from any goroutine.
func scanRegion(g *grid.Grid, ps []particle.Particle, r Region) []Pair {
	size := g.Size()
	var out []Pair
	for y := r.Y0; y < r.Y1; y++ {
		for x := r.X0; x < r.X1; x++ {
			cell := g.Cell(y, x)
			for a, i := range cell {
				for _, j := range cell[a+1:] {
					out = emit(out, ps, i, j)
				}
				for _, off := range neighborOffsets {
					nx, ny := x+off[0], y+off[1]
					if nx < 0 || nx >= size || ny >= size {
						continue
					}
					for _, j := range g.Cell(ny, nx) {
						out = emit(out, ps, i, j)
					}
				}
			}
		}
	}
	return out
}

// FindGrid scans a grid that has already been rebuilt for ps.
func FindGrid(g *grid.Grid, ps []particle.Particle) []Pair {
	return scanRegion(g, ps, Region{X0: 0, X1: g.Size(), Y0: 0, Y1: g.Size()})
}

// Regions splits a size x size grid into xRegions x yRegions tiles. Integer
// division puts any remainder into the later tiles.
func Regions(size, xRegions, yRegions int) []Region {
	tiles := make([]Region, 0, xRegions*yRegions)
	for ry := 0; ry < yRegions; ry++ {
		y0 := ry * size / yRegions
		y1 := (ry + 1) * size / yRegions
		for rx := 0; rx < xRegions; rx++ {
			tiles = append(tiles, Region{
				X0: rx * size / xRegions,
				X1: (rx + 1) * size / xRegions,
				Y0: y0,
				Y1: y1,
			})
		}
	}
	return tiles
}

// FindParallel scans each tile as its own pool task and concatenates the
// results in tile order once every task has returned. Workers only read g
// and ps, and each returns its own slice.
func FindParallel(pool *workerpool.Pool, g *grid.Grid, ps []particle.Particle, xRegions, yRegions int) []Pair {
	tiles := Regions(g.Size(), xRegions, yRegions)
	handles := make([]<-chan []Pair, len(tiles))
	for i, tile := range tiles {
		tile := tile
		var err error
		if pool != nil {
			handles[i], err = workerpool.Execute(pool, func() []Pair {
				return scanRegion(g, ps, tile)
			})
		}
		if pool == nil || err != nil {
			ch := make(chan []Pair, 1)
			ch <- scanRegion(g, ps, tile)
			handles[i] = ch
		}
	}

	var out []Pair
	for _, h := range handles {
		out = append(out, <-h...)
	}
	return out
}
