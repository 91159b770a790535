package monitor

import (
	"strings"

	"github.com/psws/g2console/internal/feed"
)

// View renders the dashboard.
func (m Model) View() string {
	return paint(m.render(), rowError)
}

// render draws the current state onto a grid sized to the terminal.
func (m Model) render() *Grid {
	w, h := m.width, m.height
	if w <= 0 {
		w = DefaultWidth
	}
	if h <= 0 {
		h = DefaultHeight
	}
	g := NewGrid(w, h)

	drawLabels(g, m.opts.Title, m.mode)
	drawStation(g, m.opts.Node, m.opts.RFGain)

	rec := m.latest()
	if m.phase != PhaseAwaitingController {
		if m.opts.GPS != nil {
			drawGPS(g, m.opts.GPS.Load())
		}
		if rec != nil {
			drawRecord(g, rec)
			if m.opts.Bank != nil {
				drawBank(g, m.opts.Bank, m.mode)
			}
		}
		drawCounters(g, m.opts.Counters, rec, m.now())
	}

	status := m.status
	if m.launching || m.stopping {
		status = m.spinner.View() + " " + status
		g.Put(rowStatus, footerCol-2, status)
	} else {
		g.Put(rowStatus, footerCol, status)
	}
	if m.lastErr != "" {
		g.Put(rowError, footerCol, "! "+m.lastErr)
	}
	if m.showHelp {
		for i, line := range helpLines(m.help, m.keys) {
			g.Put(rowHelp+i, footerCol, line)
		}
	}
	return g
}

func (m Model) latest() *feed.Record {
	if m.opts.Latest == nil {
		return nil
	}
	return m.opts.Latest.Load()
}

// paint styles each grid row, highlighting errRow.
func paint(g *Grid, errRow int) string {
	lines := g.Lines()
	for i, line := range lines {
		if line == "" {
			continue
		}
		if i == errRow {
			lines[i] = ErrorStyle.Render(line)
		} else {
			lines[i] = ScreenStyle.Render(line)
		}
	}
	return strings.Join(lines, "\n")
}
