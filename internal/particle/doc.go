// Package particle provides the circular body simulated by the solver.
//
// A [Particle] keeps its current and previous position; velocity is always
// derived from the two:
//
//	v = (position - previous) / lastDt
//
// and is zero before the first substep. [Particle.UpdatePosition] performs one
// position-Verlet step:
//
//	x' = x + (x - x_prev) + a*dt^2
//
// Particles can fall asleep ([Particle.TrySleep]) once they have been slow for
// long enough; a sleeping particle still records dt so its velocity stays
// well defined, but it no longer moves until [Particle.WakeUp].
package particle
