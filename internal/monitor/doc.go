// Package monitor implements the station console: a fixed-layout terminal
// dashboard for the Grape 2 receiver's sensor feed and GPS.
//
// # Architecture
//
// The package uses the Bubble Tea framework (Model-Update-View):
//
//   - Model: phase, display mode, controller status, terminal size
//   - Update: keystrokes, refresh ticks, controller results, feed closure
//   - View: paints a Grid at fixed coordinates from the live snapshots
//
// The dashboard never owns the data. Workers publish the sensor record,
// the GPS state and the per-channel statistics; each refresh tick reads
// whatever is current.
//
// # Phases
//
//	PhaseAwaitingController - polling for the data controller, 'r' starts it
//	PhaseRunning            - workers started, values drawn every tick
//	PhaseTerminating        - the program is quitting
//
// # Keyboard Shortcuts
//
//	r       - Start the data controller (while awaiting it)
//	Ctrl+P  - Toggle 1 hr / 24 hr min and max
//	Ctrl+X  - Stop the data controller, or leave if it runs elsewhere
//	Ctrl+C  - Quit
//	?       - Toggle key help
package monitor
