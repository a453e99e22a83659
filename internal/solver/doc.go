// Package solver advances a set of particles inside a circular container.
//
// Each call to [Solver.Update] is split into substeps. A substep applies
// gravity, pushes particles back inside the wall, asks the configured broad
// phase for overlapping pairs, resolves them in a single pass and finally
// integrates every particle with position Verlet.
//
// The whole state can be written with [Solver.Save] and read back with
// [Load]; replaying the same updates on the copy gives the same trajectory.
package solver
