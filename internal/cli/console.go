package cli

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/term"

	"github.com/psws/g2console/internal/app"
	"github.com/psws/g2console/internal/config"
	"github.com/psws/g2console/internal/controller"
	"github.com/psws/g2console/internal/errors"
	"github.com/psws/g2console/internal/feed"
	"github.com/psws/g2console/internal/gps"
	"github.com/psws/g2console/internal/logger"
	"github.com/psws/g2console/internal/metrics"
	"github.com/psws/g2console/internal/monitor"
	"github.com/psws/g2console/internal/station"
	"github.com/psws/g2console/internal/stats"
	"github.com/psws/g2console/internal/ui"
)

// consoleOptions carries the root command's flags.
type consoleOptions struct {
	Autorun     bool
	Mode        string
	MetricsAddr string
}

// session is what both dashboards need once config is loaded: the log file
// and a logger writing to it.
type session struct {
	cfg     *config.Config
	logFile *os.File
	log     logger.Logger
}

func (s *session) Close() error {
	return s.logFile.Close()
}

// loadConfig finds, loads and validates the config. The --mode flag is
// applied before validation so a bad value is reported like a bad file.
func loadConfig(mode string) (*config.Config, string, error) {
	cfg, path, err := config.LoadOrDefault(Config())
	if err != nil {
		return nil, "", err
	}
	if mode != "" {
		cfg.Display.Mode = mode
	}
	if err := config.Validate(cfg); err != nil {
		return nil, "", err
	}
	if cfg.Display.Color == "never" {
		ui.DisableColors()
	}
	return cfg, path, nil
}

// requireTerminal fails when stdin or stdout is not a terminal; the
// dashboards read raw keys and redraw in place.
func requireTerminal() error {
	if term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd())) {
		return nil
	}
	return errors.New(errors.ErrExec,
		"g2console needs an interactive terminal",
		"Run it from a terminal session, or use 'g2console doctor' for a non-interactive check")
}

// openSession loads config and opens the console log. The terminal belongs
// to the dashboard, so everything is logged to the file.
func openSession(mode, prefix string) (*session, error) {
	cfg, path, err := loadConfig(mode)
	if err != nil {
		return nil, err
	}

	f, err := logger.OpenFile(cfg.Logging.Dir, cfg.Logging.File)
	if err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrConfig,
			"Cannot open the console log in "+cfg.Logging.Dir,
			"Run 'g2console doctor --fix' to create the log directory")
	}
	log := logger.New(f, prefix)
	logger.SetDefault(log)

	if path == "" {
		path = "built-in defaults"
	}
	log.Info("g2console %s starting, config: %s", formatVersion(version), path)
	return &session{cfg: cfg, logFile: f, log: log}, nil
}

// appOptions maps config onto the app's wiring. open is nil for the GPS-only
// diagnostic.
func appOptions(cfg *config.Config, open feed.Opener, policy stats.Policy, diag io.Writer, log logger.Logger) app.Options {
	return app.Options{
		Feed: open,
		GPS: gps.Options{
			Mode:          cfg.GPS.Source,
			Device:        cfg.GPS.Device,
			Baud:          cfg.GPS.Baud,
			ReadTimeout:   cfg.GPS.ReadTimeout,
			GPSDAddress:   cfg.GPS.GPSDAddress,
			DaemonProcess: cfg.GPS.DaemonProcess,
		},
		Controller: controller.Options{
			Process: cfg.Controller.Process,
			Command: cfg.Controller.Command,
			Output:  cfg.Controller.Output,
			Settle:  cfg.Controller.Settle,
		},
		MagnetometerPolicy: policy,
		Diag:               diag,
		Log:                log,
	}
}

// signalContext is cancelled on SIGTERM or SIGHUP. Ctrl-C arrives as a key
// while the dashboard owns the terminal.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGHUP)
}

// consoleCommand runs the station dashboard until the operator exits or
// the sensor feed closes, then joins the workers.
func consoleCommand(opts consoleOptions) error {
	if err := requireTerminal(); err != nil {
		return err
	}

	s, err := openSession(opts.Mode, "console")
	if err != nil {
		return err
	}
	defer s.Close()
	cfg, log := s.cfg, s.log

	mode, err := stats.ParseDisplayMode(cfg.Display.Mode)
	if err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig, "Invalid display mode", "Use daily or hourly")
	}
	policy, err := stats.ParsePolicy(cfg.Display.MagnetometerPolicy)
	if err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig, "Invalid magnetometer policy", "Use magnitude or signed")
	}

	metricsAddr := opts.MetricsAddr
	if metricsAddr == "" {
		metricsAddr = cfg.Metrics.Address
	}

	ctx, cancel := signalContext()
	defer cancel()

	a := app.New(ctx, appOptions(cfg, feed.OpenPipe(cfg.Feed.Pipe), policy, s.logFile, log))

	if metricsAddr != "" {
		ln, err := metrics.Listen(metricsAddr)
		if err != nil {
			return err
		}
		exp := metrics.New(metrics.Source{
			Bank:       a.Bank(),
			GPS:        a.GPS(),
			Counters:   a.Counters(),
			Controller: a.Supervisor(),
		})
		go func() {
			if err := exp.ServeListener(a.Context(), ln, log); err != nil {
				log.Error("metrics server: %v", err)
			}
		}()
	}

	info := station.Read(cfg.Station.NodeFile, cfg.Station.RFGainFile)
	model := monitor.NewModel(ctx, monitor.Options{
		Node:       info.Node,
		RFGain:     info.RFGain,
		Bank:       a.Bank(),
		Latest:     a.Latest(),
		GPS:        a.GPS(),
		Counters:   a.Counters(),
		Controller: a.Supervisor(),
		Start:      a.Start,
		FeedDone:   a.FeedDone(),
		Mode:       mode,
		Refresh:    cfg.Display.Refresh,
		Autorun:    opts.Autorun || cfg.Controller.Autorun,
		Log:        log,
	})

	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	final, runErr := p.Run()
	if stderrors.Is(runErr, tea.ErrProgramKilled) {
		log.Info("terminated by signal")
		runErr = nil
	}

	waitForWorkers(a, cfg, log)
	if m, ok := final.(monitor.Model); ok && m.LastError() != "" {
		log.Info("last dashboard error: %s", m.LastError())
	}
	if runErr != nil {
		return errors.WrapWithCode(runErr, errors.ErrExec, "The dashboard stopped unexpectedly", "")
	}
	return nil
}

// waitForWorkers cancels the workers and joins them within the configured
// grace period, showing a spinner if they have been started. A controller
// this console launched and stopped is waited for, then its stdin is closed.
func waitForWorkers(a *app.App, cfg *config.Config, log logger.Logger) {
	defer finishController(a.Supervisor(), cfg.ShutdownGrace, log)

	if !a.Started() {
		a.Shutdown(cfg.ShutdownGrace)
		return
	}
	sp := ui.NewSpinner(os.Stdout, "Stopping the readers")
	sp.Start()
	if a.Shutdown(cfg.ShutdownGrace) {
		sp.Success()
	} else {
		sp.Fail()
	}
	for _, err := range a.Errors() {
		log.Debug("worker error: %v", err)
	}
	fmt.Println("Console terminated.")
}

func finishController(sup *controller.Supervisor, grace time.Duration, log logger.Logger) {
	if err := sup.Finish(grace); err != nil {
		log.Warn("%v", err)
	}
}
