package logger

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"
)

// Diagnostic block kinds written by the console workers.
const (
	KindFeed   = "datar"
	KindGPS    = "gpsr"
	KindRepair = "jsonparser"
)

// diagTimeFormat matches the station's existing console.log entries.
const diagTimeFormat = "01/02/2006 15:04:05"

// DiagnosticLog appends exception blocks to the station console log:
//
//	BEGIN <kind> exception
//	<MM/DD/YYYY hh:mm:ss>
//	<error>
//	<offending input>
//	END <kind> exception
//
// Blocks from concurrent workers never interleave.
type DiagnosticLog struct {
	mu  sync.Mutex
	w   io.Writer
	now func() time.Time
}

// NewDiagnosticLog creates a diagnostic log writing to w. A nil writer
// discards blocks.
func NewDiagnosticLog(w io.Writer) *DiagnosticLog {
	if w == nil {
		w = io.Discard
	}
	return &DiagnosticLog{w: w, now: time.Now}
}

// Record writes one block. lines are written after the error text, one per
// line, with trailing newlines trimmed.
func (d *DiagnosticLog) Record(kind string, err error, lines ...string) {
	if d == nil {
		return
	}

	var b strings.Builder
	fmt.Fprintf(&b, "BEGIN %s exception\n", kind)
	b.WriteString(d.now().Format(diagTimeFormat))
	b.WriteByte('\n')
	if err != nil {
		b.WriteString(err.Error())
		b.WriteByte('\n')
	}
	for _, l := range lines {
		b.WriteString(strings.TrimRight(l, "\r\n"))
		b.WriteByte('\n')
	}
	fmt.Fprintf(&b, "END %s exception\n", kind)

	d.mu.Lock()
	defer d.mu.Unlock()
	_, _ = io.WriteString(d.w, b.String())
}
