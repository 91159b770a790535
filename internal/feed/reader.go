package feed

import (
	"bufio"
	"context"
	"errors"
	"io"

	gerrors "github.com/psws/g2console/internal/errors"
	"github.com/psws/g2console/internal/logger"
)

// Reader consumes the sensor stream line by line until the stream closes or
// the context is cancelled.
type Reader struct {
	open   Opener
	parser *Parser
	diag   *logger.DiagnosticLog
	log    logger.Logger
}

// NewReader creates a reader. diag may be nil; log defaults to Noop.
func NewReader(open Opener, parser *Parser, diag *logger.DiagnosticLog, log logger.Logger) *Reader {
	if log == nil {
		log = logger.Noop()
	}
	return &Reader{open: open, parser: parser, diag: diag, log: log}
}

// Run reads until EOF, a read error, or cancellation. EOF and cancellation
// return nil. Cancellation closes the stream so a blocked read returns.
func (r *Reader) Run(ctx context.Context) error {
	src, err := r.open(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return gerrors.WrapWithCode(err, gerrors.ErrFeed,
			"Cannot open the sensor data pipe",
			"Check feed.pipe in the config, or run 'g2console doctor --fix'")
	}
	defer src.Close()

	stop := context.AfterFunc(ctx, func() { _ = src.Close() })
	defer stop()

	r.log.Info("sensor feed opened")
	br := bufio.NewReader(src)
	for {
		line, err := br.ReadString('\n')
		if line != "" && ctx.Err() == nil {
			r.handle(line)
		}
		if ctx.Err() != nil {
			return nil
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				r.log.Info("sensor feed closed")
				return nil
			}
			r.diag.Record(logger.KindFeed, err)
			return gerrors.WrapWithCode(err, gerrors.ErrFeed, "Sensor data pipe read failed", "")
		}
	}
}

func (r *Reader) handle(line string) {
	if _, err := r.parser.Parse(line); err != nil {
		if errors.Is(err, ErrShortLine) {
			r.log.Debug("skipping fragment %q", line)
			return
		}
		r.log.Debug("rejected sensor line: %v", err)
		r.diag.Record(logger.KindFeed, err, line)
	}
}
