package monitor

import (
	"strconv"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/psws/g2console/internal/gps"
)

// GPS diagnostic layout.
const (
	gpsRowTitle    = 0
	gpsRowDateTime = 1
	gpsRowGPS      = 3
	gpsRowEnd      = 9
	gpsRowStatus   = gpsRowEnd + 1
)

// StatusGPSTerminating is shown while the GPS diagnostic quits.
const StatusGPSTerminating = "Terminating the Diagnostic Tool..."

// GPSModel is a GPS-only dashboard for checking the receiver without the
// data controller.
type GPSModel struct {
	title    string
	store    *gps.Store
	refresh  time.Duration
	keys     gpsKeyMap
	status   string
	quitting bool
	width    int
	height   int
}

// NewGPSModel creates the GPS diagnostic dashboard.
func NewGPSModel(title string, store *gps.Store, refresh time.Duration) GPSModel {
	if refresh <= 0 {
		refresh = DefaultRefresh
	}
	if title == "" {
		title = "Grape2 GPS Diagnostic"
	}
	return GPSModel{
		title:   title,
		store:   store,
		refresh: refresh,
		keys: gpsKeyMap{Quit: key.NewBinding(
			key.WithKeys("ctrl+c", "q"),
			key.WithHelp("ctrl+c/q", "quit"),
		)},
		status: "<ctrl-c> = quit",
	}
}

// Quitting reports whether the model asked to exit.
func (m GPSModel) Quitting() bool { return m.quitting }

// Init starts the refresh tick.
func (m GPSModel) Init() tea.Cmd {
	return m.tickCmd()
}

// Update handles messages and returns the updated model.
func (m GPSModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if key.Matches(msg, m.keys.Quit) {
			m.quitting = true
			m.status = StatusGPSTerminating
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
	case tickMsg:
		if !m.quitting {
			return m, m.tickCmd()
		}
	}
	return m, nil
}

// View renders the diagnostic.
func (m GPSModel) View() string {
	return paint(m.render(), -1)
}

func (m GPSModel) render() *Grid {
	w, h := m.width, m.height
	if w <= 0 {
		w = DefaultWidth
	}
	if h <= 0 {
		h = gpsRowStatus + 1
	}
	g := NewGrid(w, h)

	g.Put(gpsRowTitle, 19, m.title)
	g.Put(gpsRowDateTime+1, 0, "GPS Date/Time")
	g.Put(gpsRowGPS+1, 0, "UBLOX GPS")
	g.Put(gpsRowGPS+1, 18, "Fix")
	g.Put(gpsRowGPS+1, 27, "#Sats")
	g.Put(gpsRowGPS+1, 36, "PDOP")
	g.Put(gpsRowGPS+1, 45, "In View")
	g.Put(gpsRowGPS+4, 17, "Latitude")
	g.Put(gpsRowGPS+4, 32, "Longitude")
	g.Put(gpsRowGPS+4, 45, "Elevation(m)")

	st := gps.Initial()
	if m.store != nil {
		st = m.store.Load()
	}
	g.Put(gpsRowDateTime+1, 22, st.DateTime())
	g.Put(gpsRowGPS+2, 18, ljust(st.Fix, 2))
	g.Put(gpsRowGPS+2, 28, ljust(strconv.Itoa(st.Satellites), 2))
	g.Put(gpsRowGPS+2, 36, strconv.FormatFloat(st.PDOP, 'f', 2, 64))
	g.Put(gpsRowGPS+2, 46, ljust(strconv.Itoa(st.InView), 2))
	g.Put(gpsRowGPS+5, 15, rjust(strconv.FormatFloat(st.Latitude, 'f', 6, 64), 11))
	g.Put(gpsRowGPS+5, 30, rjust(strconv.FormatFloat(st.Longitude, 'f', 6, 64), 11))
	g.Put(gpsRowGPS+5, 47, rjust(strconv.FormatFloat(st.Elevation, 'f', 1, 64), 6))

	if st.Source != "" {
		g.Put(gpsRowEnd, 0, "Source: "+st.Source)
	}
	g.Put(gpsRowStatus, 0, m.status)
	return g
}

func (m GPSModel) tickCmd() tea.Cmd {
	return tea.Tick(m.refresh, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}
