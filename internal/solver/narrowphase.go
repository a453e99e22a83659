package solver

import (
	"github.com/san-kum/verletsim/internal/broadphase"
	"github.com/san-kum/verletsim/internal/particle"
	"gonum.org/v1/gonum/spatial/r2"
)

// resolveCollisions runs one pass over pairs in order and returns how many
// were genuinely overlapping. Dense clusters may keep some overlap after a
// single pass.
func resolveCollisions(ps []particle.Particle, pairs []broadphase.Pair, opts Options, dt float64) int {
	resolved := 0
	for _, pr := range pairs {
		if resolvePair(&ps[pr.I], &ps[pr.J], opts, dt) {
			resolved++
		}
	}
	return resolved
}

func resolvePair(a, b *particle.Particle, opts Options, dt float64) bool {
	axis := r2.Sub(a.Position(), b.Position())
	minDist := a.Radius() + b.Radius()
	dist2 := r2.Norm2(axis)
	if dist2 >= minDist*minDist {
		return false
	}

	dist := r2.Norm(axis)
	normal := r2.Vec{Y: 1}
	if dist > 0 {
		normal = r2.Scale(1/dist, axis)
	}
	tangent := particle.Perp(normal)

	va, vb := a.Velocity(), b.Velocity()
	van, vbn := r2.Dot(va, normal), r2.Dot(vb, normal)
	vat := particle.Project(va, tangent)
	vbt := particle.Project(vb, tangent)

	ma, mb := a.Mass(), b.Mass()
	vaf := ((ma-mb)*van + 2*mb*vbn) / (ma + mb)
	vbf := ((mb-ma)*vbn + 2*ma*van) / (ma + mb)

	shift := r2.Scale((minDist-dist)*opts.SeparationFactor/2, normal)
	a.SetPosition(r2.Add(a.Position(), shift))
	b.SetPosition(r2.Sub(b.Position(), shift))

	e := opts.ParticleRestitution
	newA := r2.Add(vat, r2.Scale(vaf*e, normal))
	newB := r2.Add(vbt, r2.Scale(vbf*e, normal))
	a.SetVelocity(newA, dt)
	b.SetVelocity(newB, dt)

	if opts.sleepEnabled() {
		wake(a, newA, opts.SleepVelocity)
		wake(b, newB, opts.SleepVelocity)
	}
	return true
}

func wake(p *particle.Particle, vel r2.Vec, threshold float64) {
	if p.Sleeping() && r2.Norm(vel) > threshold {
		p.WakeUp()
	}
}
