// Package gps tracks the station's GPS receiver: position, fix, dilution of
// precision, satellites and UTC date/time.
//
// Two sources are supported. On a stock Grape 2 the u-blox receiver is read
// directly over the Pi's serial port as NMEA. When gpsd owns the receiver the
// console subscribes to gpsd's JSON reports instead. Either way exactly one
// worker writes the shared State, published by pointer swap.
package gps

import (
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// Source names reported in State.Source.
const (
	SourceSerial = "serial"
	SourceGPSD   = "gpsd"
)

// State is a snapshot of the receiver.
type State struct {
	Latitude  float64 // decimal degrees, south negative
	Longitude float64 // decimal degrees, west negative
	Elevation float64 // meters
	PDOP      float64

	// Fix is "0" without a fix, otherwise "2D" or "3D".
	Fix string

	Satellites int // used in the solution
	InView     int

	Time  string // hh:mm:ss UTC
	Day   string
	Month string
	Year  string

	Source  string
	Updated time.Time
}

// Initial returns the state shown before any sentence has been read.
func Initial() State {
	return State{
		Fix:   "0",
		Time:  "00:00:00",
		Day:   "00",
		Month: "00",
		Year:  "0000",
	}
}

// HasFix reports whether the receiver has a 2D or 3D fix.
func (s State) HasFix() bool {
	return strings.Contains(s.Fix, "D")
}

// DateTime formats the UTC date and time as MM/DD/YYYY hh:mm:ss.
func (s State) DateTime() string {
	return fmt.Sprintf("%s/%s/%s %s", zfill(s.Month, 2), zfill(s.Day, 2), zfill(s.Year, 4), s.Time)
}

func zfill(s string, n int) string {
	if len(s) >= n {
		return s
	}
	return strings.Repeat("0", n-len(s)) + s
}

// Store publishes State snapshots. Loads never block and never observe a
// partially applied update.
type Store struct {
	writeMu sync.Mutex
	p       atomic.Pointer[State]
}

// NewStore creates a store holding Initial().
func NewStore() *Store {
	s := &Store{}
	st := Initial()
	s.p.Store(&st)
	return s
}

// Load returns the current snapshot.
func (s *Store) Load() State {
	return *s.p.Load()
}

// Update applies fn to a copy of the current state and publishes the copy.
func (s *Store) Update(fn func(*State)) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	next := *s.p.Load()
	fn(&next)
	s.p.Store(&next)
}
