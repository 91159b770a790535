package gps

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// sentence is a checksum-validated NMEA 0183 sentence.
type sentence struct {
	Talker string   // "GP", "GN", ... empty for proprietary sentences
	Type   string   // "GGA", "GSA", ...
	Fields []string // fields after the address field
}

var (
	errNotNMEA     = errors.New("not an NMEA sentence")
	errNoChecksum  = errors.New("missing checksum")
	errBadChecksum = errors.New("checksum mismatch")
)

// parseSentence validates the "$...*hh" framing and XOR checksum and splits
// the payload into fields.
func parseSentence(line string) (sentence, error) {
	s := strings.TrimSpace(strings.ReplaceAll(line, "\x00", ""))
	if !strings.HasPrefix(s, "$") {
		return sentence{}, errNotNMEA
	}

	star := strings.LastIndexByte(s, '*')
	if star < 0 || len(s)-star-1 < 2 {
		return sentence{}, errNoChecksum
	}
	payload := s[1:star]
	want, err := strconv.ParseUint(s[star+1:star+3], 16, 8)
	if err != nil {
		return sentence{}, errNoChecksum
	}

	var sum byte
	for i := 0; i < len(payload); i++ {
		sum ^= payload[i]
	}
	if sum != byte(want) {
		return sentence{}, fmt.Errorf("%w: calculated %02X, expected %02X", errBadChecksum, sum, want)
	}

	parts := strings.Split(payload, ",")
	addr := parts[0]
	out := sentence{Fields: parts[1:]}
	if len(addr) == 5 && !strings.HasPrefix(addr, "P") {
		out.Talker, out.Type = addr[:2], addr[2:]
	} else {
		out.Type = addr
	}
	return out, nil
}

// field returns the i-th field (0-based, after the address) or "".
func (s sentence) field(i int) string {
	if i < 0 || i >= len(s.Fields) {
		return ""
	}
	return strings.TrimSpace(s.Fields[i])
}

func (s sentence) floatField(i int) (float64, bool) {
	v, err := strconv.ParseFloat(s.field(i), 64)
	return v, err == nil
}

func (s sentence) intField(i int) (int, bool) {
	v, err := strconv.Atoi(s.field(i))
	return v, err == nil
}

// coordinate converts an NMEA ddmm.mmmm / dddmm.mmmm value and hemisphere
// into signed decimal degrees.
func coordinate(value, hemi string, degDigits int) (float64, bool) {
	if len(value) < degDigits+2 {
		return 0, false
	}
	deg, err := strconv.Atoi(value[:degDigits])
	if err != nil {
		return 0, false
	}
	min, err := strconv.ParseFloat(value[degDigits:], 64)
	if err != nil {
		return 0, false
	}
	v := float64(deg) + min/60
	switch hemi {
	case "S", "W":
		v = -v
	case "N", "E":
	default:
		return 0, false
	}
	return v, true
}

// Field positions, counted after the address field.
const (
	ggaLat     = 1
	ggaNS      = 2
	ggaLon     = 3
	ggaEW      = 4
	ggaAlt     = 8
	gsaNavMode = 1
	gsaSVFirst = 2
	gsaSVLast  = 13
	gsaPDOP    = 14
	zdaTime    = 0
	zdaDay     = 1
	zdaMonth   = 2
	zdaYear    = 3
	gsvInView  = 2
)

// fixString maps a GSA navigation mode to the displayed fix.
func fixString(s sentence) string {
	mode, ok := s.intField(gsaNavMode)
	if !ok || mode <= 1 {
		return "0"
	}
	return strconv.Itoa(mode) + "D"
}

// usedSatellites counts the filled SV slots of a GSA sentence.
func usedSatellites(s sentence) int {
	n := 0
	for i := gsaSVFirst; i <= gsaSVLast; i++ {
		if _, ok := s.intField(i); ok {
			n++
		}
	}
	return n
}

// utcTime turns hhmmss(.ss) into hh:mm:ss.
func utcTime(v string) (string, bool) {
	if len(v) < 6 {
		return "", false
	}
	for _, c := range v[:6] {
		if c < '0' || c > '9' {
			return "", false
		}
	}
	return v[0:2] + ":" + v[2:4] + ":" + v[4:6], true
}
