package cli

import (
	stderrors "errors"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/psws/g2console/internal/app"
	"github.com/psws/g2console/internal/errors"
	"github.com/psws/g2console/internal/monitor"
	"github.com/psws/g2console/internal/stats"
)

var gpsSourceFlag string

// gpsCmd runs the GPS-only diagnostic dashboard.
var gpsCmd = &cobra.Command{
	Use:   "gps",
	Short: "Show live GPS readings without the data controller",
	Long: `Show fix, satellites, PDOP and position from the GPS receiver.

Use this to check the antenna and receiver before starting data collection.
The data controller is never started or stopped.

Examples:
  g2console gps
  g2console gps --source serial`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return gpsCommand(gpsSourceFlag)
	},
}

func init() {
	gpsCmd.Flags().StringVar(&gpsSourceFlag, "source", "", "override gps.source: auto, serial or gpsd")
}

func gpsCommand(source string) error {
	if err := requireTerminal(); err != nil {
		return err
	}

	s, err := openSession("", "gps")
	if err != nil {
		return err
	}
	defer s.Close()
	cfg, log := s.cfg, s.log

	switch source {
	case "":
	case "auto", "serial", "gpsd":
		cfg.GPS.Source = source
	default:
		return errors.New(errors.ErrConfig,
			"Unknown GPS source: "+source,
			"Use auto, serial or gpsd")
	}

	ctx, cancel := signalContext()
	defer cancel()

	a := app.New(ctx, appOptions(cfg, nil, stats.PolicyMagnitude, s.logFile, log))
	a.Start()

	p := tea.NewProgram(monitor.NewGPSModel("", a.GPS(), cfg.Display.Refresh),
		tea.WithAltScreen(), tea.WithContext(ctx))
	_, runErr := p.Run()
	if stderrors.Is(runErr, tea.ErrProgramKilled) {
		runErr = nil
	}

	waitForWorkers(a, cfg, log)
	if runErr != nil {
		return errors.WrapWithCode(runErr, errors.ErrExec, "The GPS diagnostic stopped unexpectedly", "")
	}
	return nil
}
