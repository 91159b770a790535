package metrics

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/psws/g2console/internal/controller"
	"github.com/psws/g2console/internal/feed"
	"github.com/psws/g2console/internal/gps"
	"github.com/psws/g2console/internal/stats"
)

type staticDetector struct {
	own controller.Ownership
	err error
}

func (d staticDetector) Detect(context.Context) (controller.Ownership, error) {
	return d.own, d.err
}

func sampleBank() *stats.Bank {
	bank := stats.NewBank(stats.PolicyMagnitude)
	bank.Observe(stats.Sample{
		Timestamp:    "X20240101000000UD0",
		Amplitude:    [3]float64{1, 2, 3},
		Frequency:    [3]float64{10, 20, 30},
		Magnetometer: [3]float64{-4, 0, 1},
	})
	bank.Observe(stats.Sample{
		Timestamp:    "X20240101000100UD0",
		Amplitude:    [3]float64{5, 2, 3},
		Frequency:    [3]float64{10, 20, 30},
		Magnetometer: [3]float64{2, 0, 1},
	})
	return bank
}

func TestFeedCounters(t *testing.T) {
	var c feed.Counters
	c.Accepted.Add(7)
	c.Repaired.Add(2)
	c.Rejected.Add(1)

	e := New(Source{Counters: &c})
	assert.Equal(t, 7.0, testutil.ToFloat64(e.accepted))
	assert.Equal(t, 2.0, testutil.ToFloat64(e.repaired))
	assert.Equal(t, 1.0, testutil.ToFloat64(e.rejected))

	c.Accepted.Add(1)
	assert.Equal(t, 8.0, testutil.ToFloat64(e.accepted), "read at scrape time")
}

func TestChannelMetrics(t *testing.T) {
	src := Source{Bank: sampleBank()}
	col := newStateCollector(src)

	// 9 channels: hours + current, plus max and min for two windows.
	assert.Equal(t, 9*6, testutil.CollectAndCount(col))
	assert.Equal(t, 9*6, testutil.CollectAndCount(col, "g2_channel_current", "g2_channel_max", "g2_channel_min", "g2_channel_hours"))

	e := New(src)
	families, err := e.Registry().Gather()
	require.NoError(t, err)

	values := map[string]float64{}
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			key := mf.GetName()
			for _, lp := range m.GetLabel() {
				key += "," + lp.GetName() + "=" + lp.GetValue()
			}
			values[key] = m.GetGauge().GetValue()
		}
	}
	assert.Equal(t, 5.0, values["g2_channel_current,index=0,kind=amplitude"])
	assert.Equal(t, 5.0, values["g2_channel_max,index=0,kind=amplitude,window=24h"])
	assert.Equal(t, 1.0, values["g2_channel_min,index=0,kind=amplitude,window=1h"])
	assert.Equal(t, -4.0, values["g2_channel_max,index=0,kind=magnetometer,window=24h"], "magnitude policy keeps the sign")
	assert.Equal(t, 1.0, values["g2_channel_hours,index=2,kind=frequency"])
}

func TestEmptyChannelsOnlyReportHours(t *testing.T) {
	col := newStateCollector(Source{Bank: stats.NewBank(stats.PolicySigned)})
	assert.Equal(t, 9, testutil.CollectAndCount(col))
}

func TestGPSAndControllerMetrics(t *testing.T) {
	store := gps.NewStore()
	store.Update(func(st *gps.State) {
		st.PDOP = 1.4
		st.Satellites = 8
		st.InView = 12
		st.Fix = "3D"
		st.Latitude = 40.1
	})
	col := newStateCollector(Source{GPS: store, Controller: staticDetector{own: controller.Owned}})

	// pdop, sats, in view, fix, 3 position axes, 2 ownership series.
	assert.Equal(t, 9, testutil.CollectAndCount(col))
	assert.Equal(t, 2, testutil.CollectAndCount(col, "g2_controller_running"))

	e := New(Source{GPS: store, Controller: staticDetector{own: controller.External}})
	rec := httptest.NewRecorder()
	e.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body := rec.Body.String()
	assert.Contains(t, body, `g2_gps_fix{fix="3D"} 1`)
	assert.Contains(t, body, `g2_gps_pdop 1.4`)
	assert.Contains(t, body, `g2_controller_running{ownership="external"} 1`)
	assert.Contains(t, body, `g2_controller_running{ownership="owned"} 0`)
}

func TestControllerDetectError(t *testing.T) {
	e := New(Source{Controller: staticDetector{err: errors.New("no proc")}})
	_, err := e.Registry().Gather()
	assert.Error(t, err)
}

func TestServe(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	var c feed.Counters
	c.Accepted.Add(3)
	e := New(Source{Counters: &c})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- e.ServeListener(ctx, ln, nil) }()

	var body string
	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + ln.Addr().String() + "/metrics")
		if err != nil {
			return false
		}
		defer resp.Body.Close()
		b, _ := io.ReadAll(resp.Body)
		body = string(b)
		return resp.StatusCode == http.StatusOK
	}, 5*time.Second, 20*time.Millisecond)
	assert.Contains(t, body, `g2_feed_records_total{outcome="accepted"} 3`)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}

func TestServeBadAddress(t *testing.T) {
	e := New(Source{})
	err := e.Serve(context.Background(), "256.0.0.1:bad", nil)
	assert.Error(t, err)
}
