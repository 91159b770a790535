// Package metrics exports the console's live state to Prometheus.
//
// Channel statistics, GPS state and controller ownership are read at
// scrape time, so the exporter adds no work to the sensor or GPS readers.
package metrics

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/psws/g2console/internal/controller"
	gerrors "github.com/psws/g2console/internal/errors"
	"github.com/psws/g2console/internal/feed"
	"github.com/psws/g2console/internal/gps"
	"github.com/psws/g2console/internal/logger"
	"github.com/psws/g2console/internal/stats"
)

const namespace = "g2"

// Detector classifies the data controller.
type Detector interface {
	Detect(ctx context.Context) (controller.Ownership, error)
}

// Source is the live state the exporter reads. Nil fields are skipped.
type Source struct {
	Bank       *stats.Bank
	GPS        *gps.Store
	Counters   *feed.Counters
	Controller Detector
}

// Exporter owns a registry holding the console's collectors.
type Exporter struct {
	reg *prometheus.Registry

	accepted prometheus.CounterFunc
	repaired prometheus.CounterFunc
	rejected prometheus.CounterFunc
}

// New builds an exporter over src.
func New(src Source) *Exporter {
	reg := prometheus.NewRegistry()
	reg.MustRegister(newStateCollector(src))

	e := &Exporter{reg: reg}
	if c := src.Counters; c != nil {
		factory := promauto.With(reg)
		counter := func(outcome string, v func() uint64) prometheus.CounterFunc {
			return factory.NewCounterFunc(prometheus.CounterOpts{
				Namespace:   namespace,
				Subsystem:   "feed",
				Name:        "records_total",
				Help:        "Sensor lines by parse outcome.",
				ConstLabels: prometheus.Labels{"outcome": outcome},
			}, func() float64 { return float64(v()) })
		}
		e.accepted = counter("accepted", c.Accepted.Load)
		e.repaired = counter("repaired", c.Repaired.Load)
		e.rejected = counter("rejected", c.Rejected.Load)
	}
	return e
}

// Registry returns the exporter's registry.
func (e *Exporter) Registry() *prometheus.Registry { return e.reg }

// Handler serves the registry in the Prometheus text format.
func (e *Exporter) Handler() http.Handler {
	return promhttp.HandlerFor(e.reg, promhttp.HandlerOpts{})
}

// Serve listens on addr and serves /metrics until ctx is cancelled.
func (e *Exporter) Serve(ctx context.Context, addr string, log logger.Logger) error {
	ln, err := Listen(addr)
	if err != nil {
		return err
	}
	return e.ServeListener(ctx, ln, log)
}

// Listen opens the metrics listener, so a bad address fails before the
// dashboard takes over the terminal.
func Listen(addr string) (net.Listener, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, gerrors.WrapWithCode(err, gerrors.ErrConfig,
			"Cannot listen for metrics on "+addr,
			"Pick a free address with --metrics-addr or metrics.address")
	}
	return ln, nil
}

// ServeListener serves /metrics on ln until ctx is cancelled.
func (e *Exporter) ServeListener(ctx context.Context, ln net.Listener, log logger.Logger) error {
	if log == nil {
		log = logger.Noop()
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", e.Handler())
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	stop := context.AfterFunc(ctx, func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	})
	defer stop()

	log.Info("serving metrics on %s", ln.Addr())
	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// stateCollector reads channel, GPS and controller state on each scrape.
type stateCollector struct {
	src Source

	current  *prometheus.Desc
	max      *prometheus.Desc
	min      *prometheus.Desc
	hours    *prometheus.Desc
	pdop     *prometheus.Desc
	sats     *prometheus.Desc
	inView   *prometheus.Desc
	fix      *prometheus.Desc
	position *prometheus.Desc
	ctrl     *prometheus.Desc
}

func newStateCollector(src Source) *stateCollector {
	channel := []string{"kind", "index"}
	windowed := []string{"kind", "index", "window"}
	return &stateCollector{
		src:      src,
		current:  prometheus.NewDesc(namespace+"_channel_current", "Most recent value of a sensor channel.", channel, nil),
		max:      prometheus.NewDesc(namespace+"_channel_max", "Largest value of a sensor channel over the window.", windowed, nil),
		min:      prometheus.NewDesc(namespace+"_channel_min", "Smallest value of a sensor channel over the window.", windowed, nil),
		hours:    prometheus.NewDesc(namespace+"_channel_hours", "Hourly buckets retained for a sensor channel.", channel, nil),
		pdop:     prometheus.NewDesc(namespace+"_gps_pdop", "Position dilution of precision.", nil, nil),
		sats:     prometheus.NewDesc(namespace+"_gps_satellites_used", "Satellites used in the fix.", nil, nil),
		inView:   prometheus.NewDesc(namespace+"_gps_satellites_in_view", "Satellites in view.", nil, nil),
		fix:      prometheus.NewDesc(namespace+"_gps_fix", "1 when the receiver has a 2D or 3D fix.", []string{"fix"}, nil),
		position: prometheus.NewDesc(namespace+"_gps_position", "Receiver position.", []string{"axis"}, nil),
		ctrl:     prometheus.NewDesc(namespace+"_controller_running", "1 when the data controller runs, by ownership.", []string{"ownership"}, nil),
	}
}

func (c *stateCollector) Describe(ch chan<- *prometheus.Desc) {
	for _, d := range []*prometheus.Desc{c.current, c.max, c.min, c.hours, c.pdop, c.sats, c.inView, c.fix, c.position, c.ctrl} {
		ch <- d
	}
}

func (c *stateCollector) Collect(ch chan<- prometheus.Metric) {
	if c.src.Bank != nil {
		c.src.Bank.Each(func(kind stats.Kind, index int, chn *stats.Channel) {
			c.collectChannel(ch, string(kind), strconv.Itoa(index), chn)
		})
	}
	if c.src.GPS != nil {
		c.collectGPS(ch, c.src.GPS.Load())
	}
	if c.src.Controller != nil {
		c.collectController(ch)
	}
}

func (c *stateCollector) collectChannel(ch chan<- prometheus.Metric, kind, index string, chn *stats.Channel) {
	ch <- prometheus.MustNewConstMetric(c.hours, prometheus.GaugeValue, float64(chn.Len()), kind, index)
	if v, ok := chn.Current(); ok {
		ch <- prometheus.MustNewConstMetric(c.current, prometheus.GaugeValue, v, kind, index)
	}
	windows := []struct {
		label string
		mode  stats.DisplayMode
	}{{"1h", stats.ModeHourly}, {"24h", stats.ModeDaily}}
	for _, w := range windows {
		if v, ok := chn.Max(w.mode); ok {
			ch <- prometheus.MustNewConstMetric(c.max, prometheus.GaugeValue, v, kind, index, w.label)
		}
		if v, ok := chn.Min(w.mode); ok {
			ch <- prometheus.MustNewConstMetric(c.min, prometheus.GaugeValue, v, kind, index, w.label)
		}
	}
}

func (c *stateCollector) collectGPS(ch chan<- prometheus.Metric, st gps.State) {
	ch <- prometheus.MustNewConstMetric(c.pdop, prometheus.GaugeValue, st.PDOP)
	ch <- prometheus.MustNewConstMetric(c.sats, prometheus.GaugeValue, float64(st.Satellites))
	ch <- prometheus.MustNewConstMetric(c.inView, prometheus.GaugeValue, float64(st.InView))
	fixed := 0.0
	if st.HasFix() {
		fixed = 1
	}
	ch <- prometheus.MustNewConstMetric(c.fix, prometheus.GaugeValue, fixed, st.Fix)
	ch <- prometheus.MustNewConstMetric(c.position, prometheus.GaugeValue, st.Latitude, "latitude")
	ch <- prometheus.MustNewConstMetric(c.position, prometheus.GaugeValue, st.Longitude, "longitude")
	ch <- prometheus.MustNewConstMetric(c.position, prometheus.GaugeValue, st.Elevation, "elevation")
}

func (c *stateCollector) collectController(ch chan<- prometheus.Metric) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	own, err := c.src.Controller.Detect(ctx)
	if err != nil {
		ch <- prometheus.NewInvalidMetric(c.ctrl, err)
		return
	}
	for _, o := range []controller.Ownership{controller.External, controller.Owned} {
		v := 0.0
		if own == o {
			v = 1
		}
		ch <- prometheus.MustNewConstMetric(c.ctrl, prometheus.GaugeValue, v, o.String())
	}
}
