package colorize

import (
	"image/color"
	"sort"

	"github.com/san-kum/verletsim/internal/particle"
	"github.com/san-kum/verletsim/internal/solver"
)

var rainbowStops = []color.RGBA{
	{R: 255, A: 255},
	{R: 255, G: 127, A: 255},
	{R: 255, G: 255, A: 255},
	{G: 255, A: 255},
	{B: 255, A: 255},
	{R: 75, B: 130, A: 255},
	{R: 148, B: 211, A: 255},
}

// Rainbow colours particles by height, red at the bottom through violet at
// the top. Ties keep particle order.
func Rainbow(ps []particle.Particle) []color.RGBA {
	order := make([]int, len(ps))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return ps[order[a]].Position().Y < ps[order[b]].Position().Y
	})

	out := make([]color.RGBA, len(ps))
	n := float64(len(ps))
	last := len(rainbowStops) - 1
	for rank, idx := range order {
		t := float64(rank) / n * float64(last)
		lo := int(t)
		hi := min(lo+1, last)
		out[idx] = lerp(rainbowStops[lo], rainbowStops[hi], t-float64(lo))
	}
	return out
}

func lerp(a, b color.RGBA, t float64) color.RGBA {
	mix := func(x, y uint8) uint8 {
		return channel(float64(x) + (float64(y)-float64(x))*t)
	}
	return color.RGBA{R: mix(a.R, b.R), G: mix(a.G, b.G), B: mix(a.B, b.B), A: 255}
}

// ApplyRainbow recolours s with Rainbow.
func ApplyRainbow(s *solver.Solver) error {
	return s.SetColors(Rainbow(s.Particles()))
}
