// Package colorize computes particle colours from an image or a gradient.
//
// Colours are computed first and only then handed to the solver, so a
// failure never leaves a half-tinted simulation behind.
package colorize
