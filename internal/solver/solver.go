package solver

import (
	"fmt"
	"image/color"
	"math"

	"github.com/san-kum/verletsim/internal/broadphase"
	"github.com/san-kum/verletsim/internal/grid"
	"github.com/san-kum/verletsim/internal/particle"
	"github.com/san-kum/verletsim/internal/workerpool"
	"gonum.org/v1/gonum/spatial/r2"
)

type Solver struct {
	opts      Options
	particles []particle.Particle
	detector  *broadphase.Detector
	grid      *grid.Grid
	pool      *workerpool.Pool

	colorFrames []color.RGBA
	nextFrame   int

	steps    int
	time     float64
	contacts int
}

// New validates opts and builds a solver holding a copy of particles.
// A ParallelGrid solver owns a worker pool; call Close to release it.
func New(opts Options, particles ...particle.Particle) (*Solver, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	for i := range particles {
		if r := particles[i].Radius(); !opts.FitsCell(r) {
			return nil, fmt.Errorf("%w: particle %d diameter %f exceeds cell size %f", ErrInvalidOptions, i, 2*r, opts.CellSize)
		}
	}

	s := &Solver{
		opts:      opts,
		particles: make([]particle.Particle, 0, len(particles)),
		grid:      grid.New(opts.ContainerRadius, opts.CellSize),
	}
	if opts.BroadPhase == broadphase.ParallelGrid {
		s.pool = workerpool.New(opts.XRegions*opts.YRegions + 2)
	}
	s.detector = broadphase.NewDetector(opts.BroadPhase, s.grid, s.pool, opts.XRegions, opts.YRegions)
	s.AddMany(particles)
	return s, nil
}

// Close stops the worker pool, if any. The solver must not be updated
// afterwards with a parallel broad phase.
func (s *Solver) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// Update advances the simulation by dt, split into Subdivision substeps.
func (s *Solver) Update(dt float64) {
	if !(dt > 0) {
		return
	}
	subDt := dt / float64(s.opts.Subdivision)
	for i := 0; i < s.opts.Subdivision; i++ {
		s.applyGravity()
		applyBoundary(s.particles, s.opts, subDt)
		pairs := s.detector.Find(s.particles)
		s.contacts = resolveCollisions(s.particles, pairs, s.opts, subDt)
		s.integrate(subDt)
		s.steps++
		s.time += subDt
	}
}

func (s *Solver) applyGravity() {
	for i := range s.particles {
		s.particles[i].Accelerate(s.opts.Gravity)
	}
}

func (s *Solver) integrate(dt float64) {
	sleep := s.opts.sleepEnabled()
	for i := range s.particles {
		p := &s.particles[i]
		p.UpdatePosition(dt)
		if sleep {
			p.TrySleep(s.opts.SleepVelocity, s.opts.SleepTime, dt)
		}
	}
}

// Add appends p, stamping the next pending colour frame if there is one.
// It panics if p is wider than a grid cell under a grid broad phase.
func (s *Solver) Add(p particle.Particle) {
	if !s.opts.FitsCell(p.Radius()) {
		panic(fmt.Sprintf("solver: particle diameter %f exceeds cell size %f", 2*p.Radius(), s.opts.CellSize))
	}
	if s.nextFrame < len(s.colorFrames) {
		p.SetColor(s.colorFrames[s.nextFrame])
		s.nextFrame++
	}
	p.SetID(len(s.particles))
	s.particles = append(s.particles, p)
}

func (s *Solver) AddMany(ps []particle.Particle) {
	for _, p := range ps {
		s.Add(p)
	}
}

// IsContainerFull reports whether the particles cover more than
// FullThreshold of the container area. It throttles spawning; it is not a
// hard limit.
func (s *Solver) IsContainerFull() bool {
	return s.FillRatio() > s.opts.FullThreshold
}

func (s *Solver) FillRatio() float64 {
	area := 0.0
	for i := range s.particles {
		r := s.particles[i].Radius()
		area += math.Pi * r * r
	}
	return area / (math.Pi * s.opts.ContainerRadius * s.opts.ContainerRadius)
}

// Particles returns a copy of the current particles.
func (s *Solver) Particles() []particle.Particle {
	out := make([]particle.Particle, len(s.particles))
	copy(out, s.particles)
	return out
}

func (s *Solver) Particle(i int) particle.Particle { return s.particles[i] }

func (s *Solver) Positions() []r2.Vec {
	out := make([]r2.Vec, len(s.particles))
	for i := range s.particles {
		out[i] = s.particles[i].Position()
	}
	return out
}

// InterpolatedPositions blends each particle between its last two
// positions; alpha is the fraction of a substep elapsed.
func (s *Solver) InterpolatedPositions(alpha float64) []r2.Vec {
	out := make([]r2.Vec, len(s.particles))
	for i := range s.particles {
		out[i] = s.particles[i].InterpolatedPosition(alpha)
	}
	return out
}

func (s *Solver) Len() int              { return len(s.particles) }
func (s *Solver) Options() Options      { return s.opts }
func (s *Solver) Kind() broadphase.Kind { return s.opts.BroadPhase }

// Step is the number of substeps run so far, not calls to Update.
func (s *Solver) Step() int { return s.steps }

// Time is the simulated time in seconds.
func (s *Solver) Time() float64 { return s.time }

// Contacts is the number of pairs resolved during the last substep.
func (s *Solver) Contacts() int { return s.contacts }

// SleepingCount returns the number of sleeping particles.
func (s *Solver) SleepingCount() int {
	n := 0
	for i := range s.particles {
		if s.particles[i].Sleeping() {
			n++
		}
	}
	return n
}

// SetColors recolours every particle. Physics state is not touched.
func (s *Solver) SetColors(colors []color.RGBA) error {
	if len(colors) != len(s.particles) {
		return fmt.Errorf("%w: got %d, have %d particles", ErrColorCount, len(colors), len(s.particles))
	}
	for i := range s.particles {
		s.particles[i].SetColor(colors[i])
	}
	return nil
}

// Colors returns the colour of every particle in order.
func (s *Solver) Colors() []color.RGBA {
	out := make([]color.RGBA, len(s.particles))
	for i := range s.particles {
		out[i] = s.particles[i].Color()
	}
	return out
}

// SetColorFrames stamps frames onto existing particles in order; frames
// left over colour the particles added later.
func (s *Solver) SetColorFrames(frames []color.RGBA) {
	s.colorFrames = append([]color.RGBA(nil), frames...)
	s.nextFrame = 0
	for i := range s.particles {
		if s.nextFrame >= len(s.colorFrames) {
			break
		}
		s.particles[i].SetColor(s.colorFrames[s.nextFrame])
		s.nextFrame++
	}
}

// PendingColorFrames returns how many frames are left for future spawns.
func (s *Solver) PendingColorFrames() int {
	return len(s.colorFrames) - s.nextFrame
}
