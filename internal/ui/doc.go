// Package ui holds the terminal styling shared by g2console's commands: the
// ANSI color palette, status symbols, and a plain-terminal Spinner for waits
// that happen outside the dashboard.
//
// Use DisableColors() to switch to monochrome output (for --no-color flag).
package ui
