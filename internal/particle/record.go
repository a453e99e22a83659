package particle

import (
	"image/color"

	"gonum.org/v1/gonum/spatial/r2"
)

// Record mirrors every field of a Particle so it can be encoded.
type Record struct {
	ID           int
	Position     r2.Vec
	Previous     r2.Vec
	Acceleration r2.Vec
	LastAcc      r2.Vec
	Radius       float64
	Density      float64
	LastDt       float64
	Color        color.RGBA
	Sleeping     bool
	SleepTimer   float64
}

func (p Particle) Record() Record {
	return Record{
		ID:           p.id,
		Position:     p.position,
		Previous:     p.previous,
		Acceleration: p.acceleration,
		LastAcc:      p.lastAcc,
		Radius:       p.radius,
		Density:      p.density,
		LastDt:       p.lastDt,
		Color:        p.color,
		Sleeping:     p.sleeping,
		SleepTimer:   p.sleepTimer,
	}
}

// FromRecord rebuilds a particle. Records with a non-positive radius or
// density are rejected with ok == false.
func FromRecord(r Record) (p Particle, ok bool) {
	if !(r.Radius > 0) || !(r.Density > 0) {
		return Particle{}, false
	}
	return Particle{
		id:           r.ID,
		position:     r.Position,
		previous:     r.Previous,
		acceleration: r.Acceleration,
		lastAcc:      r.LastAcc,
		radius:       r.Radius,
		density:      r.Density,
		lastDt:       r.LastDt,
		color:        r.Color,
		sleeping:     r.Sleeping,
		sleepTimer:   r.SleepTimer,
	}, true
}
