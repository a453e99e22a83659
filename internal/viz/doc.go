// Package viz draws a running particle solver in the terminal.
//
// [Model] is a Bubble Tea program: particles are plotted on a Braille
// [Canvas] tinted with their colours, next to a stats panel and a kinetic
// energy chart.
//
// # Key Bindings
//
//	Space - Pause/Resume simulation
//	R     - Reset to the initial particles
//	S     - Save the scene to the run store
//	L     - Load the last saved scene
//	C     - Rainbow colours by height
//	Q     - Quit
package viz
