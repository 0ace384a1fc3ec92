// Package viz renders reactor output in the terminal.
//
//   - [ReportPrinter]: a reactor.Reporter that prints detector state reports as lipgloss panels
//   - [PlotTrace]: asciigraph line chart of a batch trace, one series per species
//   - [Model]: Bubble Tea live view stepping a batch session
//
// # Key Bindings
//
//	Space - Pause/Resume
//	R     - Restart the session
//	+/-   - Double/halve steps per frame
//	T     - Cycle color themes
//	Q     - Quit
package viz
