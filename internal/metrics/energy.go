package metrics

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/san-kum/verletsim/internal/particle"
	"github.com/san-kum/verletsim/internal/solver"
)

func KineticEnergy(ps []particle.Particle) float64 {
	total := 0.0
	for i := range ps {
		v := ps[i].Velocity()
		total += 0.5 * ps[i].Mass() * r2.Norm2(v)
	}
	return total
}

// PotentialEnergy is measured against the lowest point of the container,
// so it is never negative for particles inside it.
func PotentialEnergy(ps []particle.Particle, gravity r2.Vec, containerRadius float64) float64 {
	g := r2.Norm(gravity)
	if g == 0 {
		return 0
	}
	down := r2.Scale(1/g, gravity)
	total := 0.0
	for i := range ps {
		h := containerRadius + r2.Dot(ps[i].Position(), r2.Scale(-1, down))
		total += ps[i].Mass() * g * h
	}
	return total
}

// MaxOverlap returns the deepest penetration between any two particles.
func MaxOverlap(ps []particle.Particle) float64 {
	worst := 0.0
	for i := range ps {
		for j := i + 1; j < len(ps); j++ {
			d := r2.Norm(r2.Sub(ps[i].Position(), ps[j].Position()))
			worst = math.Max(worst, ps[i].Radius()+ps[j].Radius()-d)
		}
	}
	return worst
}

type Kinetic struct {
	name    string
	total   float64
	last    float64
	samples int
}

func NewKinetic() *Kinetic { return &Kinetic{name: "kinetic_energy"} }

func (k *Kinetic) Name() string { return k.name }

func (k *Kinetic) Observe(s *solver.Solver) {
	k.last = KineticEnergy(s.Particles())
	k.total += k.last
	k.samples++
}

// Value is the mean over all observations.
func (k *Kinetic) Value() float64 {
	if k.samples == 0 {
		return 0
	}
	return k.total / float64(k.samples)
}

func (k *Kinetic) Last() float64 { return k.last }

func (k *Kinetic) Reset() {
	k.total = 0
	k.last = 0
	k.samples = 0
}

type Potential struct {
	name string
	last float64
}

func NewPotential() *Potential { return &Potential{name: "potential_energy"} }

func (p *Potential) Name() string { return p.name }

func (p *Potential) Observe(s *solver.Solver) {
	opts := s.Options()
	p.last = PotentialEnergy(s.Particles(), opts.Gravity, opts.ContainerRadius)
}

func (p *Potential) Value() float64 { return p.last }
func (p *Potential) Reset()         { p.last = 0 }
