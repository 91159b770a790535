package gps

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"io"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tarm/serial"

	gerrors "github.com/psws/g2console/internal/errors"
	"github.com/psws/g2console/internal/logger"
	"github.com/psws/g2console/internal/proc"
)

const (
	tpv3D  = `{"class":"TPV","device":"/dev/ttyS0","mode":3,"time":"2024-07-04T20:15:30.000Z","lat":40.123456,"lon":-105.5,"alt":1655.2}`
	tpvNo  = `{"class":"TPV","device":"/dev/ttyS0","mode":1}`
	skyOK  = `{"class":"SKY","pdop":1.9,"uSat":8,"nSat":14,"satellites":[{"PRN":1,"used":true}]}`
	skyUse = `{"class":"SKY","pdop":2.5,"satellites":[{"PRN":1,"used":true},{"PRN":2,"used":false},{"PRN":3,"used":true}]}`
	skyNo  = `{"class":"SKY","satellites":[]}`
)

func newGPSD() (*GPSDClient, *Store, *bytes.Buffer) {
	store := NewStore()
	var diag bytes.Buffer
	return NewGPSDClient("", store, logger.NewDiagnosticLog(&diag), nil), store, &diag
}

func TestGPSD_TPV(t *testing.T) {
	c, store, _ := newGPSD()
	assert.Equal(t, DefaultGPSDAddress, c.Address)

	c.HandleReport([]byte(tpv3D))
	st := store.Load()
	assert.Equal(t, "3D", st.Fix)
	assert.Equal(t, 40.123456, st.Latitude)
	assert.Equal(t, -105.5, st.Longitude)
	assert.Equal(t, 1655.2, st.Elevation)
	assert.Equal(t, "07/04/2024 20:15:30", st.DateTime())
	assert.Equal(t, SourceGPSD, st.Source)

	c.HandleReport([]byte(tpvNo))
	st = store.Load()
	assert.Equal(t, "0", st.Fix)
	assert.Equal(t, 40.123456, st.Latitude, "position kept without a fix")
	assert.Equal(t, -105.5, st.Longitude)
	assert.Equal(t, 1655.2, st.Elevation)
	assert.Equal(t, "20:15:30", st.Time, "time kept without a fix")
}

func TestGPSD_TPVNoFixKeepsPosition(t *testing.T) {
	c, store, _ := newGPSD()
	c.HandleReport([]byte(`{"class":"TPV","mode":3,"lat":41.5,"lon":-81.6,"alt":200}`))
	c.HandleReport([]byte(`{"class":"TPV","mode":1}`))
	c.HandleReport([]byte(`{"class":"TPV","mode":0,"lat":1,"lon":1,"alt":1}`))

	st := store.Load()
	assert.Equal(t, "0", st.Fix)
	assert.Equal(t, 41.5, st.Latitude)
	assert.Equal(t, -81.6, st.Longitude)
	assert.Equal(t, 200.0, st.Elevation)
}

func TestGPSD_TPVAltMSL(t *testing.T) {
	c, store, _ := newGPSD()
	c.HandleReport([]byte(`{"class":"TPV","mode":2,"lat":1,"lon":2,"altMSL":12.5}`))
	st := store.Load()
	assert.Equal(t, "2D", st.Fix)
	assert.Equal(t, 12.5, st.Elevation)
}

func TestGPSD_SKY(t *testing.T) {
	c, store, _ := newGPSD()

	c.HandleReport([]byte(skyNo))
	assert.Equal(t, 0.0, store.Load().PDOP, "SKY without pdop is skipped")

	c.HandleReport([]byte(skyOK))
	st := store.Load()
	assert.Equal(t, 1.9, st.PDOP)
	assert.Equal(t, 8, st.Satellites)
	assert.Equal(t, 14, st.InView)

	c.HandleReport([]byte(skyUse))
	st = store.Load()
	assert.Equal(t, 2.5, st.PDOP)
	assert.Equal(t, 2, st.Satellites, "counted from used flags without uSat")
	assert.Equal(t, 3, st.InView)
}

func TestGPSD_IgnoresOtherClassesAndLogsGarbage(t *testing.T) {
	c, store, diag := newGPSD()
	before := store.Load()

	c.HandleReport([]byte(`{"class":"VERSION","release":"3.22"}`))
	c.HandleReport([]byte(`{"class":"DEVICES","devices":[]}`))
	assert.Equal(t, before, store.Load())
	assert.Empty(t, diag.String())

	c.HandleReport([]byte(`{"class":"TPV"`))
	assert.Contains(t, diag.String(), "BEGIN gpsr exception")
}

func TestGPSD_RunAgainstServer(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	watch := make(chan string, 1)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		line, _ := bufio.NewReader(conn).ReadString('\n')
		watch <- line
		_, _ = io.WriteString(conn, `{"class":"VERSION"}`+"\n"+tpv3D+"\n"+skyOK+"\n")
	}()

	store := NewStore()
	c := NewGPSDClient(ln.Addr().String(), store, nil, nil)
	require.NoError(t, c.Run(context.Background()))

	assert.Contains(t, <-watch, `?WATCH={"enable":true,"json":true}`)
	st := store.Load()
	assert.Equal(t, "3D", st.Fix)
	assert.Equal(t, 8, st.Satellites)
}

func TestGPSD_RunCancel(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		time.Sleep(5 * time.Second)
	}()

	c := NewGPSDClient(ln.Addr().String(), NewStore(), nil, nil)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- c.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("gpsd client did not stop")
	}
}

func TestGPSD_DialError(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())

	err = NewGPSDClient(addr, NewStore(), nil, nil).Run(context.Background())
	require.Error(t, err)
	assert.True(t, gerrors.IsCode(err, gerrors.ErrGPS))
}

func TestSerialSource_ReadsUntilCancel(t *testing.T) {
	store := NewStore()
	src := NewSerialSource("/dev/ttyS0", 115200, time.Second, store, nil, nil)

	pr, pw := io.Pipe()
	var got *serial.Config
	src.open = func(c *serial.Config) (io.ReadCloser, error) {
		got = c
		return pr, nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- src.Run(ctx) }()

	_, err := io.WriteString(pw, nmea(gsa3D)+"\r\n"+nmea(gga)+"\r\n")
	require.NoError(t, err)
	require.Eventually(t, func() bool { return store.Load().Satellites == 4 }, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("serial source did not stop")
	}
	require.NotNil(t, got)
	assert.Equal(t, "/dev/ttyS0", got.Name)
	assert.Equal(t, 115200, got.Baud)
	assert.Equal(t, time.Second, got.ReadTimeout)
}

func TestSerialSource_OpenError(t *testing.T) {
	src := NewSerialSource("/dev/nope", 115200, time.Second, NewStore(), nil, nil)
	src.open = func(*serial.Config) (io.ReadCloser, error) { return nil, errors.New("no such device") }

	err := src.Run(context.Background())
	require.Error(t, err)
	assert.True(t, gerrors.IsCode(err, gerrors.ErrGPS))
	assert.Contains(t, src.Name(), "/dev/nope")
}

func TestTimeoutReader(t *testing.T) {
	n, err := timeoutReader{bytes.NewReader(nil)}.Read(make([]byte, 4))
	assert.Equal(t, 0, n)
	assert.NoError(t, err)
}

func TestSelect(t *testing.T) {
	opts := Options{Device: "/dev/ttyS0", Baud: 115200, GPSDAddress: "localhost:2947", DaemonProcess: "gpsd"}
	ctx := context.Background()

	tests := []struct {
		name  string
		mode  string
		procs proc.Static
		want  string
	}{
		{"auto without gpsd", ModeAuto, proc.Static{}, SourceSerial},
		{"auto with gpsd", ModeAuto, proc.Static{"gpsd": true}, SourceGPSD},
		{"empty means auto", "", proc.Static{"gpsd": true}, SourceGPSD},
		{"forced serial", ModeSerial, proc.Static{"gpsd": true}, SourceSerial},
		{"forced gpsd", ModeGPSD, proc.Static{}, SourceGPSD},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := opts
			o.Mode = tt.mode
			src, err := Select(ctx, o, tt.procs, NewStore(), nil, nil)
			require.NoError(t, err)
			assert.Contains(t, src.Name(), tt.want)
		})
	}

	o := opts
	o.Mode = "carrier-pigeon"
	_, err := Select(ctx, o, proc.Static{}, NewStore(), nil, nil)
	assert.Error(t, err)
}
