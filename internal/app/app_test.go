package app

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	gerrors "github.com/psws/g2console/internal/errors"
	"github.com/psws/g2console/internal/feed"
	"github.com/psws/g2console/internal/gps"
	"github.com/psws/g2console/internal/logger"
	"github.com/psws/g2console/internal/proc"
	"github.com/psws/g2console/internal/stats"
)

const sensorLine = `{"ts":"X20240101000000UD0","radios":[` +
	`{"ampl":1.0,"freq":10.0,"beacon":"WWV"},` +
	`{"ampl":2.0,"freq":20.0,"beacon":"CHU"},` +
	`{"ampl":3.0,"freq":30.0,"beacon":"WWVH"}],` +
	`"x":-4,"y":0,"z":0,"ltemp":"23.5","rtemp":"19.0","rver":"2.1.3","pver":"1.0.7"}`

func staticOpener(data string) feed.Opener {
	return func(context.Context) (io.ReadCloser, error) {
		return io.NopCloser(strings.NewReader(data)), nil
	}
}

func TestFeedWorkerRunsToEOF(t *testing.T) {
	a := New(context.Background(), Options{
		Feed:               staticOpener(sensorLine + "\nnan\n" + sensorLine + "\n"),
		NoGPS:              true,
		MagnetometerPolicy: stats.PolicyMagnitude,
		Procs:              proc.Static{},
	})
	assert.False(t, a.Started())

	a.Start()
	a.Start()
	assert.True(t, a.Started())

	select {
	case <-a.FeedDone():
	case <-time.After(5 * time.Second):
		t.Fatal("feed worker did not finish")
	}

	assert.EqualValues(t, 2, a.Counters().Accepted.Load())
	require.NotNil(t, a.Latest().Load())
	cur, ok := a.Bank().Amplitude[2].Current()
	require.True(t, ok)
	assert.Equal(t, 3.0, cur)
	assert.Equal(t, stats.PolicyMagnitude, a.Bank().Magnetometer[0].Policy())
	assert.Empty(t, a.Errors())
	assert.True(t, a.Shutdown(time.Second))
}

func TestFeedOpenErrorIsRecorded(t *testing.T) {
	var diag bytes.Buffer
	a := New(context.Background(), Options{
		Feed: func(context.Context) (io.ReadCloser, error) {
			return nil, errors.New("no such pipe")
		},
		NoGPS: true,
		Diag:  &diag,
		Procs: proc.Static{},
	})
	a.Start()
	<-a.FeedDone()

	errs := a.Errors()
	require.Len(t, errs, 1)
	assert.True(t, gerrors.IsCode(errs[0], gerrors.ErrFeed))
	assert.True(t, a.Shutdown(time.Second))
}

func TestShutdownUnblocksPendingRead(t *testing.T) {
	pr, pw := io.Pipe()
	defer pw.Close()

	a := New(context.Background(), Options{
		Feed:  func(context.Context) (io.ReadCloser, error) { return pr, nil },
		NoGPS: true,
		Procs: proc.Static{},
	})
	a.Start()

	_, err := pw.Write([]byte(sensorLine + "\n"))
	require.NoError(t, err)
	require.Eventually(t, func() bool { return a.Counters().Accepted.Load() == 1 },
		5*time.Second, 10*time.Millisecond)

	assert.True(t, a.Shutdown(5*time.Second))
	<-a.FeedDone()
	assert.Empty(t, a.Errors())
	assert.Error(t, a.Context().Err())
}

func TestNoFeedNeverSignalsDone(t *testing.T) {
	a := New(context.Background(), Options{NoGPS: true, Procs: proc.Static{}})
	a.Start()
	assert.Nil(t, a.FeedDone())
	assert.True(t, a.Shutdown(time.Second))
}

func TestGPSWorkerUsesGPSD(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		buf := make([]byte, 256)
		_, _ = conn.Read(buf)
		_, _ = conn.Write([]byte(`{"class":"TPV","mode":3,"lat":40.5,"lon":-105.25,"alt":1600}` + "\n"))
		_, _ = io.Copy(io.Discard, conn)
	}()

	log := logger.NewBufferLogger()
	a := New(context.Background(), Options{
		GPS: gps.Options{
			Mode:          gps.ModeAuto,
			GPSDAddress:   ln.Addr().String(),
			DaemonProcess: "gpsd",
		},
		Procs: proc.Static{"gpsd": true},
		Log:   log,
	})
	a.Start()

	require.Eventually(t, func() bool { return a.GPS().Load().HasFix() },
		5*time.Second, 10*time.Millisecond)
	st := a.GPS().Load()
	assert.Equal(t, 40.5, st.Latitude)
	assert.Equal(t, "3D", st.Fix)
	assert.True(t, log.Contains("gps source: gpsd"))

	assert.True(t, a.Shutdown(5*time.Second))
}

func TestGPSWorkerRetriesAfterFailure(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())

	var diag bytes.Buffer
	a := New(context.Background(), Options{
		GPS:      gps.Options{Mode: gps.ModeGPSD, GPSDAddress: addr},
		GPSRetry: 10 * time.Millisecond,
		Procs:    proc.Static{},
		Diag:     &diag,
	})
	a.Start()

	require.Eventually(t, func() bool { return len(a.Errors()) >= 2 },
		5*time.Second, 10*time.Millisecond)
	assert.True(t, gerrors.IsCode(a.Errors()[0], gerrors.ErrGPS))
	assert.True(t, a.Shutdown(5*time.Second))
	assert.Contains(t, diag.String(), "BEGIN gpsr exception")
}
