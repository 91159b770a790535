package gps

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net"
	"strconv"
	"time"

	gerrors "github.com/psws/g2console/internal/errors"
	"github.com/psws/g2console/internal/logger"
)

// DefaultGPSDAddress is gpsd's standard listening address.
const DefaultGPSDAddress = "localhost:2947"

const watchCommand = `?WATCH={"enable":true,"json":true};` + "\n"

// GPSDClient subscribes to gpsd's JSON report stream.
type GPSDClient struct {
	Address string

	store  *Store
	diag   *logger.DiagnosticLog
	log    logger.Logger
	dialer net.Dialer
	now    func() time.Time
}

// NewGPSDClient creates a client for the gpsd at address.
func NewGPSDClient(address string, store *Store, diag *logger.DiagnosticLog, log logger.Logger) *GPSDClient {
	if address == "" {
		address = DefaultGPSDAddress
	}
	if log == nil {
		log = logger.Noop()
	}
	return &GPSDClient{
		Address: address,
		store:   store,
		diag:    diag,
		log:     log,
		dialer:  net.Dialer{Timeout: 5 * time.Second},
		now:     time.Now,
	}
}

// Name identifies the source.
func (c *GPSDClient) Name() string { return SourceGPSD + " " + c.Address }

// Run connects, enables watch mode and applies reports until the
// connection closes or ctx is cancelled.
func (c *GPSDClient) Run(ctx context.Context) error {
	conn, err := c.dialer.DialContext(ctx, "tcp", c.Address)
	if err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return gerrors.WrapWithCode(err, gerrors.ErrGPS,
			"Cannot connect to gpsd at "+c.Address,
			"Check that gpsd is running, or set gps.source: serial")
	}
	defer conn.Close()

	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	if _, err := conn.Write([]byte(watchCommand)); err != nil {
		return gerrors.WrapWithCode(err, gerrors.ErrGPS, "Cannot enable gpsd watch mode", "")
	}
	c.log.Info("watching gpsd at %s", c.Address)

	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		c.HandleReport(scanner.Bytes())
	}
	if ctx.Err() != nil {
		return nil
	}
	if err := scanner.Err(); err != nil {
		return gerrors.WrapWithCode(err, gerrors.ErrGPS, "gpsd connection failed", "")
	}
	c.log.Info("gpsd closed the connection")
	return nil
}

type gpsdClass struct {
	Class string `json:"class"`
}

type gpsdTPV struct {
	Mode   int      `json:"mode"`
	Time   string   `json:"time"`
	Lat    *float64 `json:"lat"`
	Lon    *float64 `json:"lon"`
	Alt    *float64 `json:"alt"`
	AltMSL *float64 `json:"altMSL"`
}

type gpsdSKY struct {
	PDOP       *float64 `json:"pdop"`
	USat       *int     `json:"uSat"`
	NSat       *int     `json:"nSat"`
	Satellites []struct {
		Used bool `json:"used"`
	} `json:"satellites"`
}

// HandleReport applies one gpsd JSON report. Classes other than TPV and SKY
// are ignored, as are SKY reports that carry no PDOP yet.
func (c *GPSDClient) HandleReport(line []byte) {
	var head gpsdClass
	if err := json.Unmarshal(line, &head); err != nil {
		c.diag.Record(logger.KindGPS, err, string(line))
		return
	}

	switch head.Class {
	case "TPV":
		var tpv gpsdTPV
		if err := json.Unmarshal(line, &tpv); err != nil {
			c.diag.Record(logger.KindGPS, err, string(line))
			return
		}
		c.applyTPV(tpv)
	case "SKY":
		var sky gpsdSKY
		if err := json.Unmarshal(line, &sky); err != nil {
			c.diag.Record(logger.KindGPS, err, string(line))
			return
		}
		if sky.PDOP == nil {
			c.log.Debug("SKY report without pdop, waiting for the next one")
			return
		}
		c.applySKY(sky)
	}
}

func (c *GPSDClient) applyTPV(tpv gpsdTPV) {
	fix := "0"
	if tpv.Mode == 2 || tpv.Mode == 3 {
		fix = strconv.Itoa(tpv.Mode) + "D"
	}
	alt := tpv.Alt
	if alt == nil {
		alt = tpv.AltMSL
	}
	t, timeOK := time.Time{}, false
	if tpv.Time != "" {
		if parsed, err := time.Parse(time.RFC3339Nano, tpv.Time); err == nil {
			t, timeOK = parsed.UTC(), true
		}
	}
	now := c.now()

	c.store.Update(func(st *State) {
		st.Fix = fix
		if fix != "0" {
			st.Latitude = valueOr(tpv.Lat)
			st.Longitude = valueOr(tpv.Lon)
			st.Elevation = valueOr(alt)
		}
		if fix != "0" && timeOK {
			st.Time = t.Format("15:04:05")
			st.Day = fmt.Sprintf("%02d", t.Day())
			st.Month = fmt.Sprintf("%02d", int(t.Month()))
			st.Year = strconv.Itoa(t.Year())
		}
		st.Source = SourceGPSD
		st.Updated = now
	})
}

func (c *GPSDClient) applySKY(sky gpsdSKY) {
	used := 0
	for _, s := range sky.Satellites {
		if s.Used {
			used++
		}
	}
	if sky.USat != nil {
		used = *sky.USat
	}
	inView := len(sky.Satellites)
	if sky.NSat != nil {
		inView = *sky.NSat
	}
	pdop := *sky.PDOP

	c.store.Update(func(st *State) {
		st.PDOP = pdop
		st.Satellites = used
		st.InView = inView
		st.Source = SourceGPSD
	})
}

func valueOr(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}
