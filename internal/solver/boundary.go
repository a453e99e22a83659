package solver

import (
	"math"

	"github.com/san-kum/verletsim/internal/particle"
	"gonum.org/v1/gonum/spatial/r2"
)

// applyBoundary keeps every particle inside the container circle centred
// on the origin. A particle past the wall is put back on it and its normal
// velocity reflected, or dropped when SmoothWall is set.
func applyBoundary(ps []particle.Particle, opts Options, dt float64) {
	for i := range ps {
		p := &ps[i]
		pos := p.Position()
		limit := math.Max(opts.ContainerRadius-p.Radius(), 0)
		dist := r2.Norm(pos)
		if dist <= limit {
			continue
		}

		normal := r2.Vec{Y: -1}
		if dist > 0 {
			normal = r2.Scale(1/dist, pos)
		}
		vel := p.Velocity()
		vn := particle.Project(vel, normal)

		p.SetPosition(r2.Scale(limit, normal))
		if opts.SmoothWall {
			p.SetVelocity(r2.Sub(vel, vn), dt)
			continue
		}
		p.SetVelocity(r2.Scale(opts.WallRestitution, r2.Sub(vel, r2.Scale(2, vn))), dt)
	}
}
