package ingest

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/garagemon/garagemon/pkg/types"
)

// maxLineSize bounds a single record. Longer lines are skipped with a
// per-line error.
const maxLineSize = 1 << 20

// ErrNoValidRows is returned when a source yields no ingestible rows.
var ErrNoValidRows = errors.New("ingest: no valid data rows")

// Sink receives every valid diagnostic. *registry.Registry satisfies it.
type Sink interface {
	Ingest(id string, kind types.SensorKind, value float64)
}

// Reason classifies a rejected line.
type Reason string

const (
	ReasonMissingType  Reason = "missing_type"
	ReasonUnknownType  Reason = "unknown_type"
	ReasonInvalidValue Reason = "invalid_value"
	ReasonLineTooLong  Reason = "line_too_long"
)

// LineError describes one rejected line.
type LineError struct {
	Line   int
	Reason Reason
	// Field is the offending text for unknown_type and invalid_value.
	Field string
}

func (e LineError) Error() string {
	switch e.Reason {
	case ReasonMissingType:
		return fmt.Sprintf("Line %d: missing Type", e.Line)
	case ReasonUnknownType:
		return fmt.Sprintf("Line %d: unknown Type '%s'", e.Line, e.Field)
	case ReasonInvalidValue:
		return fmt.Sprintf("Line %d: invalid Value '%s'", e.Line, e.Field)
	case ReasonLineTooLong:
		return fmt.Sprintf("Line %d: line exceeds %d bytes", e.Line, maxLineSize)
	default:
		return fmt.Sprintf("Line %d: %s", e.Line, e.Reason)
	}
}

// Result is the outcome of a bulk load.
type Result struct {
	// Rows is the number of diagnostics handed to the sink.
	Rows int

	// Errors holds one entry per rejected line, in line order.
	Errors []LineError
}

// Load reads records from r and feeds every valid one to sink.
//
// The returned Result is always populated, even alongside an error. The error
// is ErrNoValidRows when nothing was ingested, or a read failure of r.
func Load(r io.Reader, sink Sink) (Result, error) {
	var res Result

	br := bufio.NewReader(r)
	lineNo := 0
	for {
		raw, tooLong, err := readLine(br)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return res, fmt.Errorf("ingest: read line %d: %w", lineNo+1, err)
		}
		lineNo++
		if tooLong {
			res.Errors = append(res.Errors, LineError{Line: lineNo, Reason: ReasonLineTooLong})
			continue
		}

		d, lerr, ok := parseLine(raw, lineNo)
		if lerr != nil {
			res.Errors = append(res.Errors, *lerr)
			continue
		}
		if !ok {
			continue
		}
		sink.Ingest(d.VehicleID, d.Kind, d.Value)
		res.Rows++
	}

	if res.Rows == 0 {
		return res, ErrNoValidRows
	}

	slog.Debug("ingest: load complete", "rows", res.Rows, "rejected", len(res.Errors))
	return res, nil
}

// LoadFile opens path and calls Load.
func LoadFile(path string, sink Sink) (Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return Result{}, fmt.Errorf("ingest: open %q: %w", path, err)
	}
	defer f.Close()
	return Load(f, sink)
}

// readLine returns the next line without its terminator. A line longer than
// maxLineSize is consumed and reported through tooLong instead. err is io.EOF
// only when no bytes remain.
func readLine(br *bufio.Reader) (line string, tooLong bool, err error) {
	var (
		buf  []byte
		read int
	)
	for {
		chunk, err := br.ReadSlice('\n')
		read += len(chunk)
		if !tooLong {
			if len(buf)+len(chunk) > maxLineSize {
				tooLong, buf = true, nil
			} else {
				buf = append(buf, chunk...)
			}
		}
		switch {
		case errors.Is(err, bufio.ErrBufferFull):
			continue
		case errors.Is(err, io.EOF) && read > 0, err == nil:
			return strings.TrimRight(string(buf), "\r\n"), tooLong, nil
		default:
			return "", false, err
		}
	}
}

// parseLine parses one raw line. ok=false with a nil error means the line is
// blank or a comment.
func parseLine(raw string, lineNo int) (types.Diagnostic, *LineError, bool) {
	line := strings.TrimSpace(raw)
	if line == "" || strings.HasPrefix(line, "#") {
		return types.Diagnostic{}, nil, false
	}

	fields := strings.SplitN(line, ",", 4)
	if len(fields) < 2 {
		return types.Diagnostic{}, &LineError{Line: lineNo, Reason: ReasonMissingType}, false
	}

	// Identifiers are not validated; an empty one is a vehicle like any other.
	id := strings.TrimSpace(fields[0])

	kindStr := strings.TrimSpace(fields[1])
	kind := types.ParseSensorKind(kindStr)
	if kind == types.Unknown {
		return types.Diagnostic{}, &LineError{Line: lineNo, Reason: ReasonUnknownType, Field: kindStr}, false
	}

	var valueStr string
	if len(fields) > 2 {
		valueStr = strings.TrimSpace(fields[2])
	}
	value, ok := parseValue(valueStr)
	if !ok {
		return types.Diagnostic{}, &LineError{Line: lineNo, Reason: ReasonInvalidValue, Field: valueStr}, false
	}

	return types.Diagnostic{
		VehicleID: id,
		Reading:   types.Reading{Kind: kind, Value: value},
	}, nil, true
}

// parseValue accepts decimal and exponential notation only. Hex floats,
// NaN, infinities and out-of-range values are rejected.
func parseValue(s string) (float64, bool) {
	if s == "" || strings.ContainsAny(s, "xX_") {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}
