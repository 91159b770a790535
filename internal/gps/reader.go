package gps

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/psws/g2console/internal/logger"
)

// maxSentence bounds a buffered partial line. NMEA sentences are at most 82
// characters; anything much longer is line noise.
const maxSentence = 512

// satCounter sums used satellites across a run of consecutive GSA
// sentences (one per constellation). The total is published only when the
// run is closed by a valid non-GSA sentence. A corrupt line inside a run
// discards it and disarms counting until the next valid non-GSA sentence.
type satCounter struct {
	armed bool
	inRun bool
	total int
}

// NMEAReader applies NMEA sentences to a Store.
type NMEAReader struct {
	store *Store
	diag  *logger.DiagnosticLog
	log   logger.Logger
	sats  satCounter
	now   func() time.Time
}

// NewNMEAReader creates a reader. diag may be nil; log defaults to Noop.
func NewNMEAReader(store *Store, diag *logger.DiagnosticLog, log logger.Logger) *NMEAReader {
	if log == nil {
		log = logger.Noop()
	}
	return &NMEAReader{
		store: store,
		diag:  diag,
		log:   log,
		sats:  satCounter{armed: true},
		now:   time.Now,
	}
}

// Handle applies one line. Malformed lines are logged and otherwise only
// affect the satellite counter.
func (r *NMEAReader) Handle(line string) {
	if strings.TrimSpace(line) == "" {
		return
	}
	s, err := parseSentence(line)
	if err != nil {
		if r.sats.inRun {
			r.sats = satCounter{}
		}
		r.log.Debug("bad NMEA sentence: %v", err)
		r.diag.Record(logger.KindGPS, err, strconv.Quote(line))
		return
	}

	if s.Type != "GSA" {
		if r.sats.inRun {
			total := r.sats.total
			r.store.Update(func(st *State) { st.Satellites = total })
		}
		r.sats = satCounter{armed: true}
	}

	switch s.Type {
	case "GSA":
		r.applyGSA(s)
	case "GGA":
		r.applyGGA(s)
	case "ZDA":
		r.applyZDA(s)
	case "GSV":
		if n, ok := s.intField(gsvInView); ok {
			r.store.Update(func(st *State) { st.InView = n })
		}
	}
}

func (r *NMEAReader) applyGSA(s sentence) {
	pdop, ok := s.floatField(gsaPDOP)
	if !ok {
		pdop = 0
	}
	fix := fixString(s)
	now := r.now()
	r.store.Update(func(st *State) {
		st.PDOP = pdop
		st.Fix = fix
		st.Source = SourceSerial
		st.Updated = now
	})

	if !r.sats.armed {
		return
	}
	if !r.sats.inRun {
		r.sats.inRun = true
		r.sats.total = 0
	}
	r.sats.total += usedSatellites(s)
}

func (r *NMEAReader) applyGGA(s sentence) {
	if !r.store.Load().HasFix() {
		return
	}
	lat, ok := coordinate(s.field(ggaLat), s.field(ggaNS), 2)
	if !ok {
		lat = 0
	}
	lon, ok := coordinate(s.field(ggaLon), s.field(ggaEW), 3)
	if !ok {
		lon = 0
	}
	alt, ok := s.floatField(ggaAlt)
	if !ok {
		alt = 0
	}
	now := r.now()
	r.store.Update(func(st *State) {
		st.Latitude, st.Longitude, st.Elevation = lat, lon, alt
		st.Source = SourceSerial
		st.Updated = now
	})
}

func (r *NMEAReader) applyZDA(s sentence) {
	if !r.store.Load().HasFix() {
		return
	}
	tm, ok := utcTime(s.field(zdaTime))
	if !ok {
		tm = "00:00:00"
	}
	day := intOr(s, zdaDay, "00")
	month := intOr(s, zdaMonth, "00")
	year := intOr(s, zdaYear, "0000")
	r.store.Update(func(st *State) {
		st.Time, st.Day, st.Month, st.Year = tm, day, month, year
	})
}

func intOr(s sentence, i int, fallback string) string {
	if v, ok := s.intField(i); ok {
		return strconv.Itoa(v)
	}
	return fallback
}

// Run feeds lines from src to Handle until src is exhausted, fails, or ctx
// is cancelled. A read that returns no data and no error (a serial read
// timeout) just rechecks ctx.
func (r *NMEAReader) Run(ctx context.Context, src io.Reader) error {
	buf := make([]byte, 256)
	var pending []byte
	for {
		if ctx.Err() != nil {
			return nil
		}
		n, err := src.Read(buf)
		pending = append(pending, buf[:n]...)
		for {
			i := bytes.IndexByte(pending, '\n')
			if i < 0 {
				break
			}
			r.Handle(string(pending[:i]))
			pending = pending[i+1:]
		}
		if len(pending) > maxSentence {
			r.Handle(string(pending))
			pending = nil
		}

		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if errors.Is(err, io.EOF) {
				if len(pending) > 0 {
					r.Handle(string(pending))
				}
				return nil
			}
			return err
		}
	}
}
