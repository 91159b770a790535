package monitor

import "github.com/charmbracelet/bubbles/key"

// keyMap holds the dashboard's key bindings.
type keyMap struct {
	Start  key.Binding
	Toggle key.Binding
	Stop   key.Binding
	Quit   key.Binding
	Help   key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Start: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "start data controller"),
		),
		Toggle: key.NewBinding(
			key.WithKeys("ctrl+p"),
			key.WithHelp("ctrl+p", "toggle 1hr/24hr min/max"),
		),
		Stop: key.NewBinding(
			key.WithKeys("ctrl+x"),
			key.WithHelp("ctrl+x", "terminate data controller"),
		),
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c"),
			key.WithHelp("ctrl+c", "quit console"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "toggle help"),
		),
	}
}

// ShortHelp implements help.KeyMap.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Help, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Start, k.Stop},
		{k.Toggle, k.Help, k.Quit},
	}
}

// gpsKeyMap is the reduced set used by the GPS diagnostic.
type gpsKeyMap struct {
	Quit key.Binding
}
