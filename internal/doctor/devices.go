package doctor

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/psws/g2console/internal/gps"
	"github.com/psws/g2console/internal/proc"
)

// probeTimeout bounds process table scans and gpsd dials.
const probeTimeout = 2 * time.Second

// GPSCheck verifies the configured GPS source is reachable.
type GPSCheck struct {
	Options gps.Options
	Procs   proc.Table
}

func (c *GPSCheck) Name() string     { return "gps_source" }
func (c *GPSCheck) Category() string { return CategoryGPS }

func (c *GPSCheck) Run() CheckResult {
	ctx, cancel := context.WithTimeout(context.Background(), probeTimeout)
	defer cancel()

	mode := c.Options.Mode
	if mode == "" || mode == gps.ModeAuto {
		running, err := c.Procs.Running(ctx, c.Options.DaemonProcess)
		if err != nil {
			return CheckResult{
				Name:    c.Name(),
				Status:  StatusWarn,
				Message: fmt.Sprintf("Cannot read the process table: %v", err),
			}
		}
		mode = gps.ModeSerial
		if running {
			mode = gps.ModeGPSD
		}
	}

	if mode == gps.ModeGPSD {
		conn, err := (&net.Dialer{}).DialContext(ctx, "tcp", c.Options.GPSDAddress)
		if err != nil {
			return CheckResult{
				Name:       c.Name(),
				Status:     StatusFail,
				Message:    fmt.Sprintf("gpsd not answering at %s", c.Options.GPSDAddress),
				Suggestion: "Check the daemon with: systemctl status gpsd",
			}
		}
		_ = conn.Close()
		return CheckResult{
			Name:    c.Name(),
			Status:  StatusPass,
			Message: "GPS via gpsd at " + c.Options.GPSDAddress,
		}
	}

	info, err := os.Stat(c.Options.Device)
	if err != nil {
		return CheckResult{
			Name:       c.Name(),
			Status:     StatusFail,
			Message:    "GPS serial device missing: " + c.Options.Device,
			Suggestion: "Enable the serial port with raspi-config, or set gps.device",
		}
	}
	if info.Mode()&os.ModeCharDevice == 0 {
		return CheckResult{
			Name:       c.Name(),
			Status:     StatusWarn,
			Message:    "GPS device is not a character device: " + c.Options.Device,
			Suggestion: "Point gps.device at the receiver's serial port",
		}
	}
	return CheckResult{
		Name:    c.Name(),
		Status:  StatusPass,
		Message: fmt.Sprintf("GPS via %s @ %d baud", c.Options.Device, c.Options.Baud),
	}
}

func (c *GPSCheck) Fix() error {
	return nil
}

// ControllerBinaryCheck verifies the data controller executable exists.
type ControllerBinaryCheck struct {
	Command []string
}

func (c *ControllerBinaryCheck) Name() string     { return "controller_binary" }
func (c *ControllerBinaryCheck) Category() string { return CategoryController }

func (c *ControllerBinaryCheck) Run() CheckResult {
	bin := controllerBinary(c.Command)
	if bin == "" {
		return CheckResult{
			Name:       c.Name(),
			Status:     StatusFail,
			Message:    "No data controller command configured",
			Suggestion: "Set controller.command in the config",
		}
	}
	path, err := exec.LookPath(bin)
	if err != nil {
		return CheckResult{
			Name:       c.Name(),
			Status:     StatusFail,
			Message:    "Data controller not found: " + bin,
			Suggestion: "Install the Grape 2 user software, or fix controller.command",
		}
	}
	return CheckResult{
		Name:    c.Name(),
		Status:  StatusPass,
		Message: "Data controller: " + path,
	}
}

func (c *ControllerBinaryCheck) Fix() error {
	return nil
}

// controllerBinary returns the program the command runs, looking past a
// leading sudo.
func controllerBinary(argv []string) string {
	for i, a := range argv {
		if i == 0 && filepath.Base(a) == "sudo" {
			continue
		}
		if len(a) > 0 && a[0] == '-' {
			continue
		}
		return a
	}
	return ""
}

// ControllerRunningCheck reports whether a data controller is already running.
type ControllerRunningCheck struct {
	Process string
	Procs   proc.Table
}

func (c *ControllerRunningCheck) Name() string     { return "controller_running" }
func (c *ControllerRunningCheck) Category() string { return CategoryController }

func (c *ControllerRunningCheck) Run() CheckResult {
	ctx, cancel := context.WithTimeout(context.Background(), probeTimeout)
	defer cancel()

	running, err := c.Procs.Running(ctx, c.Process)
	if err != nil {
		return CheckResult{
			Name:    c.Name(),
			Status:  StatusWarn,
			Message: fmt.Sprintf("Cannot read the process table: %v", err),
		}
	}
	if running {
		return CheckResult{
			Name:    c.Name(),
			Status:  StatusPass,
			Message: c.Process + " is running; the console will attach to its output",
		}
	}
	return CheckResult{
		Name:    c.Name(),
		Status:  StatusPass,
		Message: c.Process + " is not running; press r in the console to start it",
	}
}

func (c *ControllerRunningCheck) Fix() error {
	return nil
}
