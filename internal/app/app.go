// Package app owns the console's shared state and its two long-lived
// workers: the sensor feed reader and the GPS reader. Workers start once,
// share one cancellable context, and are joined once on shutdown.
package app

import (
	"context"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/psws/g2console/internal/controller"
	"github.com/psws/g2console/internal/feed"
	"github.com/psws/g2console/internal/gps"
	"github.com/psws/g2console/internal/logger"
	"github.com/psws/g2console/internal/proc"
	"github.com/psws/g2console/internal/stats"
)

// DefaultGPSRetry is the pause before reopening a GPS source that ended.
const DefaultGPSRetry = 5 * time.Second

// Options wires the app to its sources.
type Options struct {
	// Feed opens the sensor stream. Nil runs without a sensor worker.
	Feed feed.Opener
	// GPS selects the GPS source. Leave Mode empty and NoGPS false for auto.
	GPS gps.Options
	// NoGPS runs without a GPS worker.
	NoGPS bool
	// GPSRetry overrides DefaultGPSRetry.
	GPSRetry time.Duration
	// Controller configures the data controller supervisor.
	Controller controller.Options
	// MagnetometerPolicy is the min/max comparison for the axes.
	MagnetometerPolicy stats.Policy
	// Procs looks up processes. Defaults to the system table.
	Procs proc.Table
	// Diag receives exception blocks. Nil discards them.
	Diag io.Writer
	// Log defaults to Noop.
	Log logger.Logger
}

// App is the console's application context.
type App struct {
	opts Options
	log  logger.Logger
	diag *logger.DiagnosticLog

	bank   *stats.Bank
	latest *feed.Latest
	gps    *gps.Store
	parser *feed.Parser
	sup    *controller.Supervisor

	ctx    context.Context
	cancel context.CancelFunc

	startOnce sync.Once
	started   atomic.Bool
	wg        sync.WaitGroup
	feedDone  chan struct{}

	errMu sync.Mutex
	errs  []error
}

// New creates the app. Nothing runs until Start.
func New(parent context.Context, opts Options) *App {
	if opts.Log == nil {
		opts.Log = logger.Noop()
	}
	if opts.Procs == nil {
		opts.Procs = proc.System{}
	}
	if opts.GPSRetry <= 0 {
		opts.GPSRetry = DefaultGPSRetry
	}

	var diag *logger.DiagnosticLog
	if opts.Diag != nil {
		diag = logger.NewDiagnosticLog(opts.Diag)
	}

	bank := stats.NewBank(opts.MagnetometerPolicy)
	latest := &feed.Latest{}
	ctx, cancel := context.WithCancel(parent)

	a := &App{
		opts:     opts,
		log:      opts.Log,
		diag:     diag,
		bank:     bank,
		latest:   latest,
		gps:      gps.NewStore(),
		parser:   feed.NewParser(bank, latest, diag),
		sup:      controller.NewSupervisor(opts.Controller, opts.Procs, opts.Log),
		ctx:      ctx,
		cancel:   cancel,
		feedDone: make(chan struct{}),
	}
	if opts.Feed == nil {
		a.feedDone = nil
	}
	return a
}

// Bank returns the per-channel statistics.
func (a *App) Bank() *stats.Bank { return a.bank }

// Latest returns the last-known-good sensor record holder.
func (a *App) Latest() *feed.Latest { return a.latest }

// GPS returns the live GPS state.
func (a *App) GPS() *gps.Store { return a.gps }

// Counters returns the sensor parse counters.
func (a *App) Counters() *feed.Counters { return a.parser.Counters() }

// Supervisor returns the data controller supervisor.
func (a *App) Supervisor() *controller.Supervisor { return a.sup }

// Context is cancelled when the app shuts down.
func (a *App) Context() context.Context { return a.ctx }

// Started reports whether the workers have been launched.
func (a *App) Started() bool { return a.started.Load() }

// FeedDone is closed when the sensor worker ends. It is nil, and so never
// ready, when the app runs without a sensor feed.
func (a *App) FeedDone() <-chan struct{} { return a.feedDone }

// Start launches the workers. Only the first call has any effect.
func (a *App) Start() {
	a.startOnce.Do(func() {
		a.started.Store(true)
		if a.opts.Feed != nil {
			a.wg.Add(1)
			go a.runFeed()
		}
		if !a.opts.NoGPS {
			a.wg.Add(1)
			go a.runGPS()
		}
	})
}

func (a *App) runFeed() {
	defer a.wg.Done()
	defer close(a.feedDone)

	r := feed.NewReader(a.opts.Feed, a.parser, a.diag, a.log)
	if err := r.Run(a.ctx); err != nil {
		a.log.Error("sensor feed: %v", err)
		a.recordErr(err)
	}
}

// runGPS keeps a GPS source running until shutdown, reopening it after
// GPSRetry whenever it ends.
func (a *App) runGPS() {
	defer a.wg.Done()

	for {
		src, err := gps.Select(a.ctx, a.opts.GPS, a.opts.Procs, a.gps, a.diag, a.log)
		if err == nil {
			a.log.Info("gps source: %s", src.Name())
			err = src.Run(a.ctx)
		}
		if a.ctx.Err() != nil {
			return
		}
		if err != nil {
			a.log.Warn("gps: %v", err)
			a.diag.Record(logger.KindGPS, err)
			a.recordErr(err)
		}

		select {
		case <-a.ctx.Done():
			return
		case <-time.After(a.opts.GPSRetry):
		}
	}
}

func (a *App) recordErr(err error) {
	a.errMu.Lock()
	defer a.errMu.Unlock()
	a.errs = append(a.errs, err)
}

// Errors returns the worker errors seen so far.
func (a *App) Errors() []error {
	a.errMu.Lock()
	defer a.errMu.Unlock()
	out := make([]error, len(a.errs))
	copy(out, a.errs)
	return out
}

// Shutdown cancels the shared context and waits up to grace for the
// workers to return. It reports whether they all did.
func (a *App) Shutdown(grace time.Duration) bool {
	a.cancel()

	done := make(chan struct{})
	go func() {
		a.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return true
	case <-time.After(grace):
		a.log.Warn("workers still running after %s", grace)
		return false
	}
}
