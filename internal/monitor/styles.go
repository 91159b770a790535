package monitor

import "github.com/charmbracelet/lipgloss"

// The console keeps the station's classic green-on-black look.
const (
	ColorScreen lipgloss.Color = "2" // Green
	ColorError  lipgloss.Color = "1" // Red
)

var (
	// ScreenStyle paints every dashboard row.
	ScreenStyle = lipgloss.NewStyle().Foreground(ColorScreen)

	// ErrorStyle paints the row carrying the last operator-facing error.
	ErrorStyle = lipgloss.NewStyle().Foreground(ColorError).Bold(true)
)
