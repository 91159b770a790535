package monitor

import "strings"

// Grid is a fixed-size character canvas addressed by row and column.
// Writes outside the canvas are dropped and long strings are cut at the
// right edge, so a small terminal never wraps or scrolls the layout.
type Grid struct {
	width  int
	height int
	cells  [][]rune
}

// NewGrid creates a blank grid. Non-positive sizes yield an empty grid.
func NewGrid(width, height int) *Grid {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}
	cells := make([][]rune, height)
	for i := range cells {
		row := make([]rune, width)
		for j := range row {
			row[j] = ' '
		}
		cells[i] = row
	}
	return &Grid{width: width, height: height, cells: cells}
}

// Put writes s starting at (row, col).
func (g *Grid) Put(row, col int, s string) {
	if row < 0 || row >= g.height || col < 0 || col >= g.width {
		return
	}
	line := g.cells[row]
	for _, r := range s {
		if col >= g.width {
			return
		}
		line[col] = r
		col++
	}
}

// Line returns one row with trailing blanks removed.
func (g *Grid) Line(row int) string {
	if row < 0 || row >= g.height {
		return ""
	}
	return strings.TrimRight(string(g.cells[row]), " ")
}

// Lines returns every row with trailing blanks removed.
func (g *Grid) Lines() []string {
	out := make([]string, g.height)
	for i := range out {
		out[i] = g.Line(i)
	}
	return out
}

// String joins the rows with newlines.
func (g *Grid) String() string {
	return strings.Join(g.Lines(), "\n")
}

func ljust(s string, n int) string {
	if pad := n - len([]rune(s)); pad > 0 {
		return s + strings.Repeat(" ", pad)
	}
	return s
}

func rjust(s string, n int) string {
	if pad := n - len([]rune(s)); pad > 0 {
		return strings.Repeat(" ", pad) + s
	}
	return s
}
