package spawn

import (
	"math"
	"math/rand"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/san-kum/verletsim/internal/particle"
)

const scatterAttempts = 64

// Scatter places up to n resting particles of the given radius inside the
// container without overlaps. Positions are drawn from seed; a particle that
// finds no free spot after a bounded number of tries is skipped, so fewer
// than n may be returned.
func Scatter(n int, radius, container float64, seed int64) []particle.Particle {
	rng := rand.New(rand.NewSource(seed))
	reach := container - radius
	if reach < 0 {
		return nil
	}

	ps := make([]particle.Particle, 0, n)
	for len(ps) < n {
		placed := false
		for try := 0; try < scatterAttempts; try++ {
			r := reach * math.Sqrt(rng.Float64())
			theta := 2 * math.Pi * rng.Float64()
			pos := r2.Vec{X: r * math.Cos(theta), Y: r * math.Sin(theta)}
			if free(ps, pos, radius) {
				ps = append(ps, particle.New(pos, radius))
				placed = true
				break
			}
		}
		if !placed {
			break
		}
	}
	return ps
}

func free(ps []particle.Particle, pos r2.Vec, radius float64) bool {
	for i := range ps {
		d := ps[i].Radius() + radius
		if r2.Norm2(r2.Sub(ps[i].Position(), pos)) < d*d {
			return false
		}
	}
	return true
}
