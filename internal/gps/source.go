package gps

import (
	"context"
	"fmt"
	"time"

	"github.com/psws/g2console/internal/logger"
	"github.com/psws/g2console/internal/proc"
)

// Source selection modes.
const (
	ModeAuto   = "auto"
	ModeSerial = "serial"
	ModeGPSD   = "gpsd"
)

// Source is a long-running GPS reader.
type Source interface {
	Run(ctx context.Context) error
	Name() string
}

// Options configures source selection.
type Options struct {
	Mode          string
	Device        string
	Baud          int
	ReadTimeout   time.Duration
	GPSDAddress   string
	DaemonProcess string
}

// Select picks the GPS source. In auto mode gpsd is used whenever a process
// named opts.DaemonProcess is running, since gpsd then owns the serial port.
func Select(ctx context.Context, opts Options, procs proc.Table, store *Store, diag *logger.DiagnosticLog, log logger.Logger) (Source, error) {
	mode := opts.Mode
	if mode == "" {
		mode = ModeAuto
	}

	if mode == ModeAuto {
		mode = ModeSerial
		running, err := procs.Running(ctx, opts.DaemonProcess)
		if err != nil {
			return nil, fmt.Errorf("checking for %s: %w", opts.DaemonProcess, err)
		}
		if running {
			mode = ModeGPSD
		}
	}

	switch mode {
	case ModeSerial:
		return NewSerialSource(opts.Device, opts.Baud, opts.ReadTimeout, store, diag, log), nil
	case ModeGPSD:
		return NewGPSDClient(opts.GPSDAddress, store, diag, log), nil
	default:
		return nil, fmt.Errorf("unknown GPS source %q", opts.Mode)
	}
}
