package monitor

import (
	"strings"

	"github.com/charmbracelet/bubbles/help"
)

// newHelp returns a help model with unstyled output, since help text is
// painted into the Grid cell by cell.
func newHelp() help.Model {
	h := help.New()
	h.Styles = help.Styles{}
	h.ShowAll = true
	return h
}

// helpLines renders the full key help as plain lines.
func helpLines(h help.Model, k help.KeyMap) []string {
	return strings.Split(h.View(k), "\n")
}
