package stats

import (
	"fmt"
	"strings"
)

// DisplayMode selects the window that Max and Min report over.
type DisplayMode int

const (
	// ModeDaily reports extremes across every retained hour (up to 24).
	ModeDaily DisplayMode = iota
	// ModeHourly reports extremes of the current hour only.
	ModeHourly
)

// Toggle returns the other mode.
func (m DisplayMode) Toggle() DisplayMode {
	if m == ModeDaily {
		return ModeHourly
	}
	return ModeDaily
}

func (m DisplayMode) String() string {
	switch m {
	case ModeHourly:
		return "hourly"
	default:
		return "daily"
	}
}

// ParseDisplayMode accepts "daily"/"24h" and "hourly"/"1h".
func ParseDisplayMode(s string) (DisplayMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "daily", "24h", "":
		return ModeDaily, nil
	case "hourly", "1h":
		return ModeHourly, nil
	default:
		return ModeDaily, fmt.Errorf("unknown display mode %q (want daily or hourly)", s)
	}
}

// Policy controls how candidate extremes are compared.
type Policy int

const (
	// PolicySigned compares raw values.
	PolicySigned Policy = iota
	// PolicyMagnitude compares absolute values and keeps the signed value.
	PolicyMagnitude
)

func (p Policy) String() string {
	if p == PolicyMagnitude {
		return "magnitude"
	}
	return "signed"
}

// ParsePolicy accepts "signed" and "magnitude".
func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "signed", "raw", "":
		return PolicySigned, nil
	case "magnitude", "abs":
		return PolicyMagnitude, nil
	default:
		return PolicySigned, fmt.Errorf("unknown comparison policy %q (want signed or magnitude)", s)
	}
}

// greater reports whether a should replace b as a maximum.
func (p Policy) greater(a, b float64) bool {
	if p == PolicyMagnitude {
		return abs(a) > abs(b)
	}
	return a > b
}

// less reports whether a should replace b as a minimum.
func (p Policy) less(a, b float64) bool {
	if p == PolicyMagnitude {
		return abs(a) < abs(b)
	}
	return a < b
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
