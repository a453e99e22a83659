package broadphase

import (
	"fmt"
	"strings"

	"github.com/san-kum/verletsim/internal/grid"
	"github.com/san-kum/verletsim/internal/particle"
	"github.com/san-kum/verletsim/internal/workerpool"
	"gonum.org/v1/gonum/spatial/r2"
)

// Pair holds two particle indices with I < J.
type Pair struct {
	I, J int
}

func makePair(a, b int) Pair {
	if a > b {
		a, b = b, a
	}
	return Pair{I: a, J: b}
}

type Kind int

const (
	Naive Kind = iota
	Sweep
	Grid
	ParallelGrid
)

var kindNames = map[Kind]string{
	Naive:        "naive",
	Sweep:        "sweep",
	Grid:         "grid",
	ParallelGrid: "parallel",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Kinds lists every strategy in order of increasing sophistication.
func Kinds() []Kind { return []Kind{Naive, Sweep, Grid, ParallelGrid} }

// ParseKind accepts the names printed by String, case-insensitively, plus
// "parallel-grid" and "parallel_grid" as aliases for parallel.
func ParseKind(s string) (Kind, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	if name == "parallel-grid" || name == "parallel_grid" {
		name = "parallel"
	}
	for k, n := range kindNames {
		if n == name {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown broad phase: %s", s)
}

// overlaps reports whether the circles of particles i and j intersect.
// Every strategy filters through it so they all agree on the pair set.
func overlaps(ps []particle.Particle, i, j int) bool {
	a, b := &ps[i], &ps[j]
	pa, pb := a.Position(), b.Position()
	dx, dy := pa.X-pb.X, pa.Y-pb.Y
	r := a.Radius() + b.Radius()
	return dx*dx+dy*dy < r*r
}

func emit(out []Pair, ps []particle.Particle, i, j int) []Pair {
	if overlaps(ps, i, j) {
		out = append(out, makePair(i, j))
	}
	return out
}

// Detector runs exactly one strategy, fixed at construction, and owns the
// state that strategy needs between substeps.
type Detector struct {
	kind     Kind
	sweep    SweepState
	grid     *grid.Grid
	pool     *workerpool.Pool
	xRegions int
	yRegions int
}

// NewDetector builds a detector. g is required for Grid and ParallelGrid,
// pool for ParallelGrid.
func NewDetector(kind Kind, g *grid.Grid, pool *workerpool.Pool, xRegions, yRegions int) *Detector {
	return &Detector{
		kind:     kind,
		grid:     g,
		pool:     pool,
		xRegions: xRegions,
		yRegions: yRegions,
	}
}

func (d *Detector) Kind() Kind { return d.kind }

// Sweep exposes the persistent event list for snapshots.
func (d *Detector) Sweep() *SweepState { return &d.sweep }

// Find returns every overlapping pair in ps.
func (d *Detector) Find(ps []particle.Particle) []Pair {
	switch d.kind {
	case Sweep:
		return d.sweep.Find(ps)
	case Grid:
		d.rebuild(ps)
		return FindGrid(d.grid, ps)
	case ParallelGrid:
		d.rebuild(ps)
		return FindParallel(d.pool, d.grid, ps, d.xRegions, d.yRegions)
	default:
		return FindNaive(ps)
	}
}

func (d *Detector) rebuild(ps []particle.Particle) {
	d.grid.Rebuild(len(ps), func(i int) r2.Vec { return ps[i].Position() })
}

// FindNaive compares every pair directly.
func FindNaive(ps []particle.Particle) []Pair {
	var out []Pair
	for i := 0; i < len(ps); i++ {
		for j := i + 1; j < len(ps); j++ {
			out = emit(out, ps, i, j)
		}
	}
	return out
}
