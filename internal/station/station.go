// Package station reads the read-only identity files a PSWS station keeps
// next to the data controller.
package station

import (
	"bufio"
	"os"
	"strings"
)

// Info is the station metadata shown in the dashboard header.
type Info struct {
	// Node is the PSWS node number, e.g. "N000123".
	Node string
	// RFGain is the configured receiver gain label.
	RFGain string
}

// Read loads both files. A missing or unreadable file yields an empty field.
func Read(nodeFile, rfGainFile string) Info {
	return Info{
		Node:   FirstLine(nodeFile),
		RFGain: FirstLine(rfGainFile),
	}
}

// FirstLine returns the trimmed first line of path, or "" on any error.
func FirstLine(path string) string {
	if path == "" {
		return ""
	}
	f, err := os.Open(path)
	if err != nil {
		return ""
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	if !sc.Scan() {
		return ""
	}
	return strings.TrimSpace(sc.Text())
}
