package feed

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"regexp"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/psws/g2console/internal/logger"
	"github.com/psws/g2console/internal/stats"
)

// minRepairLength is the shortest stripped line worth repairing. Anything
// shorter is a fragment (often a lone brace from a restarted controller).
const minRepairLength = 10

// ErrShortLine is returned for undecodable lines too short to repair.
var ErrShortLine = errors.New("line too short to repair")

// badTokens matches the non-JSON number spellings the controller emits when
// an ADC read or a conversion fails.
var badTokens = regexp.MustCompile(`-?\b(?:nan|NaN|inf|Infinity)\b|\bnull\b`)

// Repair replaces bare nan, inf and null tokens with 0.0, in either the C
// spelling (nan, -inf) or the JavaScript one (NaN, -Infinity).
func Repair(line string) string {
	return badTokens.ReplaceAllString(line, "0.0")
}

func toFloat(field string, v rawValue) (float64, error) {
	s := strings.TrimSpace(v.String())
	if s == "" {
		return 0, fmt.Errorf("%s: missing value", field)
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", field, err)
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, nil
	}
	return f, nil
}

// Counters tracks parser outcomes. Safe for concurrent reads.
type Counters struct {
	Accepted atomic.Uint64
	Repaired atomic.Uint64
	Rejected atomic.Uint64
}

// Parser turns sensor lines into Records, feeding the statistics bank and
// publishing each accepted record.
type Parser struct {
	bank     *stats.Bank
	latest   *Latest
	diag     *logger.DiagnosticLog
	counters Counters
	now      func() time.Time
}

// NewParser creates a parser. diag may be nil.
func NewParser(bank *stats.Bank, latest *Latest, diag *logger.DiagnosticLog) *Parser {
	return &Parser{
		bank:   bank,
		latest: latest,
		diag:   diag,
		now:    time.Now,
	}
}

// Counters returns the parser's outcome counters.
func (p *Parser) Counters() *Counters {
	return &p.counters
}

// Parse decodes one line. On success every channel of the bank is updated
// and the record is published. Decode failures on lines longer than ten
// characters get one repair attempt; the repair is written to the
// diagnostic log. Errors leave the bank and the published record untouched.
func (p *Parser) Parse(line string) (*Record, error) {
	clean := strings.TrimSpace(strings.ReplaceAll(line, "\x00", ""))

	rec, err := decode(clean)
	if err != nil && repairable(err) {
		if len(clean) <= minRepairLength {
			p.counters.Rejected.Add(1)
			return nil, ErrShortLine
		}
		fixed := Repair(clean)
		p.diag.Record(logger.KindRepair, err, strconv.Quote(clean), strconv.Quote(fixed))
		p.counters.Repaired.Add(1)

		rec, err = decode(fixed)
	}
	if err != nil {
		p.counters.Rejected.Add(1)
		return nil, err
	}

	rec.Received = p.now()
	p.bank.Observe(rec.Sample())
	p.latest.Publish(rec)
	p.counters.Accepted.Add(1)
	return rec, nil
}

// repairable reports whether err came from the JSON syntax rather than the
// record's shape.
func repairable(err error) bool {
	var syntax *json.SyntaxError
	return errors.As(err, &syntax) ||
		errors.Is(err, errNullValue) ||
		errors.Is(err, io.ErrUnexpectedEOF) ||
		errors.Is(err, io.EOF)
}

func decode(line string) (*Record, error) {
	var w wireRecord
	dec := json.NewDecoder(bytes.NewReader([]byte(line)))
	if err := dec.Decode(&w); err != nil {
		return nil, err
	}
	if dec.More() {
		return nil, errors.New("trailing data after JSON object")
	}
	return w.toRecord()
}
