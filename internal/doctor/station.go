package doctor

import (
	"strings"

	"github.com/psws/g2console/internal/config"
	"github.com/psws/g2console/internal/gps"
	"github.com/psws/g2console/internal/proc"
	"github.com/psws/g2console/internal/station"
)

// StationFileCheck verifies a station metadata file has a value. The files
// are display-only, so a missing one is a warning.
type StationFileCheck struct {
	Label string
	Path  string
}

func (c *StationFileCheck) Name() string {
	return "station_" + strings.ReplaceAll(strings.ToLower(c.Label), " ", "_")
}

func (c *StationFileCheck) Category() string { return CategoryStation }

func (c *StationFileCheck) Run() CheckResult {
	v := station.FirstLine(c.Path)
	if v == "" {
		return CheckResult{
			Name:       c.Name(),
			Status:     StatusWarn,
			Message:    "No " + c.Label + " in " + c.Path,
			Suggestion: "The dashboard shows a blank " + c.Label + " until the file is written",
		}
	}
	return CheckResult{
		Name:    c.Name(),
		Status:  StatusPass,
		Message: c.Label + ": " + v,
	}
}

func (c *StationFileCheck) Fix() error {
	return nil
}

// NewChecks builds every check for cfg, in report order. configPath is the
// --config value, passed through to the CONFIG checks.
func NewChecks(configPath string, cfg *config.Config, procs proc.Table) []Check {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if procs == nil {
		procs = proc.System{}
	}

	checks := NewConfigChecks(configPath)
	checks = append(checks,
		&PipeCheck{Path: cfg.Feed.Pipe},
		&LogDirCheck{Dir: cfg.Logging.Dir},
		&GPSCheck{
			Options: gps.Options{
				Mode:          cfg.GPS.Source,
				Device:        cfg.GPS.Device,
				Baud:          cfg.GPS.Baud,
				ReadTimeout:   cfg.GPS.ReadTimeout,
				GPSDAddress:   cfg.GPS.GPSDAddress,
				DaemonProcess: cfg.GPS.DaemonProcess,
			},
			Procs: procs,
		},
		&ControllerBinaryCheck{Command: cfg.Controller.Command},
		&ControllerRunningCheck{Process: cfg.Controller.Process, Procs: procs},
		&StationFileCheck{Label: "node", Path: cfg.Station.NodeFile},
		&StationFileCheck{Label: "RF gain", Path: cfg.Station.RFGainFile},
	)
	return checks
}
