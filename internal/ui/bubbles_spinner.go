package ui

import (
	"time"

	"github.com/charmbracelet/bubbles/spinner"
)

// SpinnerFrames is the quarter-circle animation shared by the CLI spinner
// and the dashboard's Bubble Tea spinner.
var SpinnerFrames = spinner.Spinner{
	Frames: []string{"◐", "◓", "◑", "◒"},
	FPS:    time.Second / 10,
}
