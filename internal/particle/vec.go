package particle

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// Perp rotates v by a quarter turn counter-clockwise.
func Perp(v r2.Vec) r2.Vec {
	return r2.Vec{X: -v.Y, Y: v.X}
}

// Project returns the vector projection of v onto dir. A zero dir yields
// the zero vector.
func Project(v, dir r2.Vec) r2.Vec {
	d2 := r2.Norm2(dir)
	if d2 == 0 {
		return r2.Vec{}
	}
	return r2.Scale(r2.Dot(v, dir)/d2, dir)
}

// Normalize is r2.Unit with the zero vector mapped to itself.
func Normalize(v r2.Vec) r2.Vec {
	n := r2.Norm(v)
	if n == 0 || math.IsNaN(n) {
		return r2.Vec{}
	}
	return r2.Scale(1/n, v)
}
