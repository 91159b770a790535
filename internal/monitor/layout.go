package monitor

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/psws/g2console/internal/feed"
	"github.com/psws/g2console/internal/gps"
	"github.com/psws/g2console/internal/stats"
)

// First row of each widget. Widgets are stacked in this order and every
// coordinate below is relative to the terminal's top-left corner.
const (
	rowTitle    = 0
	rowNode     = 1
	rowVersions = 2
	rowDateTime = 5
	rowGPS      = 8
	rowBeacon   = 14
	rowAmpl     = 17
	rowFreq     = 22
	rowTemp     = 27
	rowMag      = 30
	rowEnd      = 36

	rowStatus = rowEnd + 1
	rowHint   = rowEnd + 2
	rowStats  = rowEnd + 3
	rowError  = rowEnd + 4
	rowHelp   = rowEnd + 5

	footerCol = 6
)

// Canvas size used before the first WindowSizeMsg arrives.
const (
	DefaultWidth  = 80
	DefaultHeight = rowHelp + 4
)

// Radio columns advance by this many cells.
const radioStride = 15

const timeLayout = "01/02/2006 15:04:05"

const hintText = "<ctrl-p> = toggle for 1Hr/24Hr Min/Max   <?> = help"

func maxLabel(mode stats.DisplayMode) string {
	if mode == stats.ModeHourly {
		return "MAX 1 hr"
	}
	return "MAX 24 hr"
}

func minLabel(mode stats.DisplayMode) string {
	if mode == stats.ModeHourly {
		return "MIN 1 hr"
	}
	return "MIN 24 hr"
}

// drawLabels paints the static text of every widget.
func drawLabels(g *Grid, title string, mode stats.DisplayMode) {
	g.Put(rowTitle, 22, title)
	g.Put(rowNode, 24, "Node")

	g.Put(rowVersions, 23, "Firmware Versions")
	g.Put(rowVersions+1, 26, "RasPi")
	g.Put(rowVersions+2, 26, "Pico")

	g.Put(rowDateTime+1, 0, "GPS Date/Time")
	g.Put(rowDateTime+2, 0, "Displayed Data")

	g.Put(rowGPS+1, 0, "UBLOX GPS")
	g.Put(rowGPS+1, 18, "Fix")
	g.Put(rowGPS+1, 27, "#Sats")
	g.Put(rowGPS+1, 36, "PDOP")
	g.Put(rowGPS+4, 0, "RF Gain")
	g.Put(rowGPS+4, 17, "Latitude")
	g.Put(rowGPS+4, 32, "Longitude")
	g.Put(rowGPS+4, 45, "Elevation(M)")

	for i := 0; i < stats.Radios; i++ {
		g.Put(rowBeacon+1, 17+radioStride*i, fmt.Sprintf("Radio %d", i+1))
	}
	g.Put(rowBeacon+2, 0, "Beacon")

	g.Put(rowAmpl+1, 0, "Signal Level")
	g.Put(rowFreq+1, 0, "Frequency")
	for i := 0; i < stats.Radios; i++ {
		g.Put(rowAmpl+1, 18+radioStride*i, "Vpeak")
		g.Put(rowFreq+1, 20+radioStride*i, "Hz")
	}
	drawTriadLabels(g, rowAmpl+2, mode)
	drawTriadLabels(g, rowFreq+2, mode)

	g.Put(rowTemp+1, 0, "Temp(C)")
	g.Put(rowTemp+1, 17, "Local")
	g.Put(rowTemp+1, 32, "Remote")

	g.Put(rowMag+1, 0, "Magnetometer")
	g.Put(rowMag+2, 0, "B Field")
	for i, axis := range []string{"X(uT)", "Y(uT)", "Z(uT)"} {
		g.Put(rowMag+2, 17+radioStride*i, axis)
	}
	drawTriadLabels(g, rowMag+3, mode)

	g.Put(rowHint, footerCol, hintText)
}

func drawTriadLabels(g *Grid, row int, mode stats.DisplayMode) {
	g.Put(row, 0, maxLabel(mode))
	g.Put(row+1, 0, "Current")
	g.Put(row+2, 0, minLabel(mode))
}

// drawStation paints the node id and RF gain. Empty values stay blank.
func drawStation(g *Grid, node, rfGain string) {
	g.Put(rowNode, 29, node)
	g.Put(rowGPS+5, 0, rfGain)
}

// drawGPS paints the values that come from the GPS reader.
func drawGPS(g *Grid, st gps.State) {
	g.Put(rowDateTime+1, 22, st.DateTime())
	g.Put(rowGPS+2, 36, strconv.FormatFloat(st.PDOP, 'f', 2, 64))
	g.Put(rowGPS+5, 15, rjust(strconv.FormatFloat(st.Latitude, 'f', 6, 64), 11))
	g.Put(rowGPS+5, 30, rjust(strconv.FormatFloat(st.Longitude, 'f', 6, 64), 11))
	g.Put(rowGPS+5, 47, rjust(strconv.FormatFloat(st.Elevation, 'f', 1, 64), 6))
}

// drawRecord paints the values carried by the latest sensor record.
func drawRecord(g *Grid, rec *feed.Record) {
	g.Put(rowVersions+1, 32, formatVersion(rec.RadioVersion))
	g.Put(rowVersions+2, 32, formatVersion(rec.PicoVersion))

	if t, ok := rec.DataTime(); ok {
		g.Put(rowDateTime+2, 22, t.Format(timeLayout))
	}

	// The controller stamps its own view of the GPS lock into ts.
	g.Put(rowGPS+2, 18, ljust(rec.GPSLock(), 2))
	if n, ok := rec.Satellites(); ok {
		g.Put(rowGPS+2, 28, ljust(strconv.Itoa(n), 2))
	}

	for i, r := range rec.Radios {
		g.Put(rowBeacon+2, 18+radioStride*i, ljust(r.Beacon, 5))
	}

	g.Put(rowTemp+2, 17, ljust(rec.LocalTemp, 5))
	g.Put(rowTemp+2, 32, ljust(rec.RemoteTemp, 5))
}

// drawBank paints the max/current/min triads of every channel.
func drawBank(g *Grid, bank *stats.Bank, mode stats.DisplayMode) {
	for i := 0; i < stats.Radios; i++ {
		drawTriad(g, rowAmpl+2, 17+radioStride*i, 8, 6, bank.Amplitude[i], mode)
		drawTriad(g, rowFreq+2, 15+radioStride*i, 12, 3, bank.Frequency[i], mode)
	}
	for i := 0; i < stats.Axes; i++ {
		drawTriad(g, rowMag+3, 16+radioStride*i, 7, 3, bank.Magnetometer[i], mode)
	}
}

func drawTriad(g *Grid, row, col, width, prec int, ch *stats.Channel, mode stats.DisplayMode) {
	put := func(r int, v float64, ok bool) {
		if ok {
			g.Put(r, col, rjust(strconv.FormatFloat(v, 'f', prec, 64), width))
		}
	}
	v, ok := ch.Max(mode)
	put(row, v, ok)
	v, ok = ch.Current()
	put(row+1, v, ok)
	v, ok = ch.Min(mode)
	put(row+2, v, ok)
}

// drawCounters paints the feed summary line.
func drawCounters(g *Grid, c *feed.Counters, rec *feed.Record, now time.Time) {
	if c == nil {
		return
	}
	line := fmt.Sprintf("%s records, %s repaired, %s rejected",
		humanize.Comma(int64(c.Accepted.Load())),
		humanize.Comma(int64(c.Repaired.Load())),
		humanize.Comma(int64(c.Rejected.Load())))
	if rec != nil && !rec.Received.IsZero() {
		line += ", last " + humanize.RelTime(rec.Received, now, "ago", "from now")
	} else {
		line += ", waiting for data"
	}
	g.Put(rowStats, footerCol, line)
}

// formatVersion zero-pads the last dotted component to two digits, so
// "2.1.3" reads "2.1.03".
func formatVersion(v string) string {
	if v == "" {
		return ""
	}
	parts := strings.Split(v, ".")
	last := len(parts) - 1
	if n := len(parts[last]); n < 2 {
		parts[last] = strings.Repeat("0", 2-n) + parts[last]
	}
	return strings.Join(parts, ".")
}
