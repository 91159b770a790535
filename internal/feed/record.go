// Package feed reads the sensor data stream published by the Grape 2 data
// controller on a named pipe, one JSON object per line.
//
// Each accepted line updates the rolling statistics bank and replaces the
// last-known-good Record snapshot that the dashboard renders. Malformed lines
// are logged to the diagnostic log and skipped; they never clear the
// previous snapshot.
package feed

import (
	"bytes"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/psws/g2console/internal/stats"
)

// Radio is one beacon receiver's reading.
type Radio struct {
	Amplitude float64 // volts peak
	Frequency float64 // Hz
	Beacon    string  // beacon label, e.g. "WWV10"
}

// Record is a decoded sensor line. Records are immutable once published.
type Record struct {
	// Timestamp is the raw "ts" field: a prefix character, YYYYMMDDhhmmss,
	// then lock status, fix and satellite characters.
	Timestamp    string
	Radios       [stats.Radios]Radio
	Magnetometer [stats.Axes]float64 // x, y, z in uT
	LocalTemp    string
	RemoteTemp   string
	RadioVersion string // "rver", Raspberry Pi software
	PicoVersion  string // "pver", Pico firmware

	// Received is the wall-clock time the line was accepted.
	Received time.Time
}

// Sample returns the record's channel values for the statistics bank.
func (r *Record) Sample() stats.Sample {
	s := stats.Sample{Timestamp: r.Timestamp, Magnetometer: r.Magnetometer}
	for i, radio := range r.Radios {
		s.Amplitude[i] = radio.Amplitude
		s.Frequency[i] = radio.Frequency
	}
	return s
}

const tsLayout = "20060102150405"

// DataTime parses the measurement time encoded in the timestamp.
func (r *Record) DataTime() (time.Time, bool) {
	if len(r.Timestamp) < 15 {
		return time.Time{}, false
	}
	t, err := time.Parse(tsLayout, r.Timestamp[1:15])
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// GPSLock summarizes the controller's own GPS status characters: "0" when
// the clock is unlocked or there is no fix, otherwise "<n>D".
func (r *Record) GPSLock() string {
	if len(r.Timestamp) < 17 {
		return "0"
	}
	switch r.Timestamp[15] {
	case 'U', 'X':
		return "0"
	}
	switch fix := r.Timestamp[16]; fix {
	case '0', '1':
		return "0"
	default:
		return string(fix) + "D"
	}
}

// Satellites decodes the hex satellite-count nibble of the timestamp.
func (r *Record) Satellites() (int, bool) {
	if len(r.Timestamp) < 18 {
		return 0, false
	}
	n, err := strconv.ParseUint(r.Timestamp[17:18], 16, 8)
	if err != nil {
		return 0, false
	}
	return int(n), true
}

var errNullValue = errors.New("null value")

// rawValue keeps a JSON scalar as its source text so numbers are converted
// exactly once, by us. Both quoted strings and bare number tokens are
// accepted. null is rejected so the line goes through token repair.
type rawValue string

func (v *rawValue) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		return errNullValue
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*v = rawValue(s)
		return nil
	}
	*v = rawValue(b)
	return nil
}

func (v rawValue) String() string { return string(v) }

type wireRadio struct {
	Ampl   rawValue `json:"ampl"`
	Freq   rawValue `json:"freq"`
	Beacon string   `json:"beacon"`
}

type wireRecord struct {
	TS     string      `json:"ts"`
	Radios []wireRadio `json:"radios"`
	X      rawValue    `json:"x"`
	Y      rawValue    `json:"y"`
	Z      rawValue    `json:"z"`
	LTemp  rawValue    `json:"ltemp"`
	RTemp  rawValue    `json:"rtemp"`
	RVer   string      `json:"rver"`
	PVer   string      `json:"pver"`
}

// toRecord converts every numeric field, failing before any side effects.
func (w *wireRecord) toRecord() (*Record, error) {
	if w.TS == "" {
		return nil, errors.New("missing ts")
	}
	if len(w.Radios) < stats.Radios {
		return nil, errors.New("expected " + strconv.Itoa(stats.Radios) + " radios, got " + strconv.Itoa(len(w.Radios)))
	}

	r := &Record{
		Timestamp:    w.TS,
		LocalTemp:    strings.TrimSpace(w.LTemp.String()),
		RemoteTemp:   strings.TrimSpace(w.RTemp.String()),
		RadioVersion: w.RVer,
		PicoVersion:  w.PVer,
	}

	var err error
	for i := 0; i < stats.Radios; i++ {
		wr := w.Radios[i]
		if r.Radios[i].Amplitude, err = toFloat("radios["+strconv.Itoa(i)+"].ampl", wr.Ampl); err != nil {
			return nil, err
		}
		if r.Radios[i].Frequency, err = toFloat("radios["+strconv.Itoa(i)+"].freq", wr.Freq); err != nil {
			return nil, err
		}
		r.Radios[i].Beacon = wr.Beacon
	}
	for i, axis := range []struct {
		name string
		v    rawValue
	}{{"x", w.X}, {"y", w.Y}, {"z", w.Z}} {
		if r.Magnetometer[i], err = toFloat(axis.name, axis.v); err != nil {
			return nil, err
		}
	}
	return r, nil
}
