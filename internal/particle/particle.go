package particle

import (
	"image/color"
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

const DefaultDensity = 1.0

var DefaultColor = color.RGBA{R: 255, G: 255, B: 255, A: 255}

// Particle is a circular body integrated with position Verlet.
// Velocity is never stored; it is derived from the last two positions.
type Particle struct {
	id           int
	position     r2.Vec
	previous     r2.Vec
	acceleration r2.Vec
	lastAcc      r2.Vec
	radius       float64
	density      float64
	lastDt       float64
	color        color.RGBA
	sleeping     bool
	sleepTimer   float64
}

// New creates a particle at rest. It panics if radius is not positive.
func New(pos r2.Vec, radius float64) Particle {
	if !(radius > 0) {
		panic("particle: radius must be positive")
	}
	return Particle{
		position: pos,
		previous: pos,
		radius:   radius,
		density:  DefaultDensity,
		color:    DefaultColor,
	}
}

// NewWithVelocity creates a particle already moving at vel, as if it had
// completed one substep of length dt.
func NewWithVelocity(pos, vel r2.Vec, radius, dt float64) Particle {
	p := New(pos, radius)
	p.previous = r2.Sub(pos, r2.Scale(dt, vel))
	p.lastDt = dt
	return p
}

func (p *Particle) ID() int                     { return p.id }
func (p *Particle) SetID(id int)                { p.id = id }
func (p *Particle) Position() r2.Vec            { return p.position }
func (p *Particle) SetPosition(pos r2.Vec)      { p.position = pos }
func (p *Particle) PreviousPosition() r2.Vec    { return p.previous }
func (p *Particle) Radius() float64             { return p.radius }
func (p *Particle) Density() float64            { return p.density }
func (p *Particle) Color() color.RGBA           { return p.color }
func (p *Particle) SetColor(c color.RGBA)       { p.color = c }
func (p *Particle) Sleeping() bool              { return p.sleeping }
func (p *Particle) LastDt() float64             { return p.lastDt }
// Accelerate accumulates a until the next UpdatePosition.
func (p *Particle) Accelerate(a r2.Vec)         { p.acceleration = r2.Add(p.acceleration, a) }
func (p *Particle) PendingAcceleration() r2.Vec { return p.acceleration }

// Acceleration returns the acceleration applied during the last substep.
func (p *Particle) Acceleration() r2.Vec { return p.lastAcc }

func (p *Particle) SetDensity(d float64) {
	if !(d > 0) {
		panic("particle: density must be positive")
	}
	p.density = d
}

// Mass is density times the disk area.
func (p *Particle) Mass() float64 {
	return p.density * math.Pi * p.radius * p.radius
}

// Velocity is the last displacement divided by the last substep dt. It is
// zero until the particle has been stepped or given a velocity with a dt.
func (p *Particle) Velocity() r2.Vec {
	if p.lastDt == 0 {
		return r2.Vec{}
	}
	return r2.Scale(1/p.lastDt, r2.Sub(p.position, p.previous))
}

// SetVelocity rewrites the previous position so that the next step moves
// the particle by vel*dt.
func (p *Particle) SetVelocity(vel r2.Vec, dt float64) {
	p.previous = r2.Sub(p.position, r2.Scale(dt, vel))
}

// AddVelocity shifts the previous position by -vel*dt, adding vel to the
// implied velocity without touching the current position.
func (p *Particle) AddVelocity(vel r2.Vec, dt float64) {
	p.previous = r2.Sub(p.previous, r2.Scale(dt, vel))
}

// UpdatePosition advances the particle by one Verlet step and clears the
// accumulated acceleration. Sleeping particles stay put but still record dt.
func (p *Particle) UpdatePosition(dt float64) {
	if !p.sleeping {
		displacement := r2.Sub(p.position, p.previous)
		p.previous = p.position
		p.position = r2.Add(p.position, r2.Add(displacement, r2.Scale(dt*dt, p.acceleration)))
	}
	p.lastAcc = p.acceleration
	p.lastDt = dt
	p.acceleration = r2.Vec{}
}

// InterpolatedPosition blends between the previous and current position.
// It is meant for drawing between substeps and has no effect on the state.
func (p *Particle) InterpolatedPosition(alpha float64) r2.Vec {
	return r2.Add(p.previous, r2.Scale(alpha, r2.Sub(p.position, p.previous)))
}

// TrySleep puts the particle to sleep once its speed has stayed below
// vThreshold for at least tThreshold seconds.
func (p *Particle) TrySleep(vThreshold, tThreshold, dt float64) {
	if p.sleeping {
		return
	}
	if r2.Norm(p.Velocity()) < vThreshold {
		p.sleepTimer += dt
		if p.sleepTimer >= tThreshold {
			p.sleeping = true
		}
		return
	}
	p.sleepTimer = 0
}

// WakeUp clears the sleeping flag and the sleep timer, so a woken particle
// must stay slow for the full sleep time again before it sleeps.
func (p *Particle) WakeUp() {
	p.sleeping = false
	p.sleepTimer = 0
}
