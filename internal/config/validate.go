package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/psws/g2console/internal/errors"
)

// Validate checks the config for errors and returns structured error messages.
func Validate(cfg *Config) error {
	if cfg == nil {
		return nil
	}

	if cfg.Version > CurrentConfigVersion {
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("This config is from the future (version %d, but g2console only knows up to %d)", cfg.Version, CurrentConfigVersion),
			"Upgrade g2console or regenerate the file with 'g2console init'.")
	}

	sections := []struct {
		name  string
		check func(*Config) error
	}{
		{"feed", validateFeed},
		{"gps", validateGPS},
		{"controller", validateController},
		{"logging", validateLogging},
		{"display", validateDisplay},
	}
	for _, s := range sections {
		if err := s.check(cfg); err != nil {
			return errors.WrapWithCode(err, errors.ErrConfig, err.Error(),
				fmt.Sprintf("Check the '%s' section in your config.", s.name))
		}
	}

	if cfg.ShutdownGrace < 0 {
		return errors.New(errors.ErrConfig,
			"shutdown_grace can't be negative",
			"Use a duration like '3s'.")
	}

	return nil
}

func validateFeed(cfg *Config) error {
	if strings.TrimSpace(cfg.Feed.Pipe) == "" {
		return fmt.Errorf("feed.pipe is empty - point it at the data controller's FIFO")
	}
	return nil
}

func validateGPS(cfg *Config) error {
	g := cfg.GPS
	switch g.Source {
	case "auto", "serial", "gpsd":
	default:
		return fmt.Errorf("gps.source '%s' isn't valid - use 'auto', 'serial', or 'gpsd'", g.Source)
	}
	if g.Source != "gpsd" {
		if g.Device == "" {
			return fmt.Errorf("gps.device is empty - the serial source needs a device like /dev/ttyS0")
		}
		if g.Baud <= 0 {
			return fmt.Errorf("gps.baud must be positive, got %d", g.Baud)
		}
	}
	if g.Source != "serial" && g.GPSDAddress == "" {
		return fmt.Errorf("gps.gpsd_address is empty - use host:port like localhost:2947")
	}
	if g.ReadTimeout < 0 {
		return fmt.Errorf("gps.read_timeout can't be negative")
	}
	return nil
}

func validateController(cfg *Config) error {
	c := cfg.Controller
	if c.Process == "" {
		return fmt.Errorf("controller.process is empty - name the process to look for, like 'datactrlr'")
	}
	if len(c.Command) == 0 || strings.TrimSpace(c.Command[0]) == "" {
		return fmt.Errorf("controller.command is empty - give the argv used to start the controller")
	}
	if c.Settle < 0 {
		return fmt.Errorf("controller.settle can't be negative")
	}
	return nil
}

func validateLogging(cfg *Config) error {
	if cfg.Logging.Dir == "" || cfg.Logging.File == "" {
		return fmt.Errorf("logging.dir and logging.file must both be set")
	}
	return nil
}

func validateDisplay(cfg *Config) error {
	d := cfg.Display
	switch d.Mode {
	case "daily", "hourly":
	default:
		return fmt.Errorf("display.mode '%s' isn't valid - use 'daily' or 'hourly'", d.Mode)
	}
	switch d.MagnetometerPolicy {
	case "magnitude", "signed":
	default:
		return fmt.Errorf("display.magnetometer_policy '%s' isn't valid - use 'magnitude' or 'signed'", d.MagnetometerPolicy)
	}
	switch d.Color {
	case "auto", "never":
	default:
		return fmt.Errorf("display.color '%s' isn't valid - use 'auto' or 'never'", d.Color)
	}
	if d.Refresh < 100*time.Millisecond {
		return fmt.Errorf("display.refresh %s is too fast - use at least 100ms", d.Refresh)
	}
	return nil
}
