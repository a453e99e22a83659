// Package broadphase finds the pairs of particles whose circles overlap.
//
// Four strategies are available and a [Detector] runs exactly one of them:
//
//   - [Naive]: every pair, O(n²)
//   - [Sweep]: sort-and-sweep along x over a persistent, insertion-sorted
//     event list
//   - [Grid]: uniform grid, each cell checked against itself and four
//     forward neighbours
//   - [ParallelGrid]: the grid scan split into tiles, one worker-pool task
//     per tile
//
// All strategies return the same set of pairs for the same particles; they
// only differ in cost. Pairs are always ordered I < J and never repeated.
package broadphase
