package gps

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/tarm/serial"

	gerrors "github.com/psws/g2console/internal/errors"
	"github.com/psws/g2console/internal/logger"
)

// SerialSource reads NMEA from the receiver's UART.
type SerialSource struct {
	Device      string
	Baud        int
	ReadTimeout time.Duration

	reader *NMEAReader
	log    logger.Logger
	open   func(*serial.Config) (io.ReadCloser, error)
}

// NewSerialSource creates a serial source writing to store.
func NewSerialSource(device string, baud int, readTimeout time.Duration, store *Store, diag *logger.DiagnosticLog, log logger.Logger) *SerialSource {
	if log == nil {
		log = logger.Noop()
	}
	return &SerialSource{
		Device:      device,
		Baud:        baud,
		ReadTimeout: readTimeout,
		reader:      NewNMEAReader(store, diag, log),
		log:         log,
		open: func(c *serial.Config) (io.ReadCloser, error) {
			return serial.OpenPort(c)
		},
	}
}

// Name identifies the source.
func (s *SerialSource) Name() string { return SourceSerial + " " + s.Device }

// Run opens the port and reads until ctx is cancelled or the port fails.
func (s *SerialSource) Run(ctx context.Context) error {
	port, err := s.open(&serial.Config{
		Name:        s.Device,
		Baud:        s.Baud,
		ReadTimeout: s.ReadTimeout,
	})
	if err != nil {
		return gerrors.WrapWithCode(err, gerrors.ErrGPS,
			"Cannot open GPS serial port "+s.Device,
			"Check gps.device, and that the serial login console is disabled")
	}
	defer port.Close()

	stop := context.AfterFunc(ctx, func() { _ = port.Close() })
	defer stop()

	s.log.Info("reading NMEA from %s at %d baud", s.Device, s.Baud)
	if err := s.reader.Run(ctx, timeoutReader{port}); err != nil {
		return gerrors.WrapWithCode(err, gerrors.ErrGPS, "GPS serial read failed", "")
	}
	return nil
}

// timeoutReader hides the io.EOF that a serial read timeout surfaces as on
// POSIX, so the line loop keeps polling instead of treating it as the end.
type timeoutReader struct {
	r io.Reader
}

func (t timeoutReader) Read(p []byte) (int, error) {
	n, err := t.r.Read(p)
	if n == 0 && errors.Is(err, io.EOF) {
		return 0, nil
	}
	return n, err
}
