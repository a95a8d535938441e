// Package elapsedlog parses elapsed-time logs.
//
// An elapsed-time log holds one record per line, five whitespace-separated
// fields:
//
//	<session> <stage> <sample> <timestamp_us> <payload>
//
// Records are grouped by stage index; each stage keeps its timestamps in
// file order. Parsing is strict: a line that does not have exactly five
// fields, or whose stage, sample or timestamp is not an integer, aborts the
// parse with a *ParseError. Nothing is skipped.
package elapsedlog

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
)

const (
	// FieldCount is the number of whitespace-separated fields per line.
	FieldCount = 5

	// MaxLineLength bounds a single log line.
	MaxLineLength = 1024 * 1024
)

// Record is a single parsed log line.
type Record struct {
	Session   string
	Stage     int
	Sample    int
	Timestamp int64 // microseconds
	Payload   string
}

// Log is the stage table built from an elapsed-time log.
type Log struct {
	// Session is the session name of the last line processed.
	Session string

	// Stages maps a stage index to its timestamps in file order.
	Stages map[int][]int64

	// MaxStage is the highest stage index observed (0 when empty).
	MaxStage int

	// Records is the number of lines parsed.
	Records int
}

// NewLog returns an empty Log.
func NewLog() *Log {
	return &Log{Stages: make(map[int][]int64)}
}

// Add appends a record's timestamp to its stage.
func (l *Log) Add(rec Record) {
	l.Stages[rec.Stage] = append(l.Stages[rec.Stage], rec.Timestamp)
	if rec.Stage > l.MaxStage {
		l.MaxStage = rec.Stage
	}
	l.Session = rec.Session
	l.Records++
}

// StageIndices returns the observed stage indices in ascending order.
func (l *Log) StageIndices() []int {
	idx := make([]int, 0, len(l.Stages))
	for stage := range l.Stages {
		idx = append(idx, stage)
	}
	sort.Ints(idx)
	return idx
}

// ParseError reports a malformed line.
type ParseError struct {
	Line  int    // 1-based line number
	Field string // offending field, empty for shape errors
	Text  string
	Err   error
}

func (e *ParseError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("line %d: field %s: %v", e.Line, e.Field, e.Err)
	}
	return fmt.Sprintf("line %d: %v", e.Line, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// ErrFieldCount is wrapped by a ParseError when a line has the wrong shape.
var ErrFieldCount = errors.New("wrong number of fields")

// ErrNegative is wrapped by a ParseError when a stage or sample index is
// below zero.
var ErrNegative = errors.New("must not be negative")

// ParseLine parses a single log line. lineNo is only used for errors.
func ParseLine(line string, lineNo int) (Record, error) {
	fields := strings.Fields(line)
	if len(fields) != FieldCount {
		return Record{}, &ParseError{
			Line: lineNo,
			Text: line,
			Err:  fmt.Errorf("%w: got %d, want %d", ErrFieldCount, len(fields), FieldCount),
		}
	}

	stage, err := strconv.Atoi(fields[1])
	if err != nil {
		return Record{}, &ParseError{Line: lineNo, Field: "stage", Text: line, Err: err}
	}
	if stage < 0 {
		return Record{}, &ParseError{Line: lineNo, Field: "stage", Text: line, Err: fmt.Errorf("%w: %d", ErrNegative, stage)}
	}
	sample, err := strconv.Atoi(fields[2])
	if err != nil {
		return Record{}, &ParseError{Line: lineNo, Field: "sample", Text: line, Err: err}
	}
	if sample < 0 {
		return Record{}, &ParseError{Line: lineNo, Field: "sample", Text: line, Err: fmt.Errorf("%w: %d", ErrNegative, sample)}
	}
	ts, err := strconv.ParseInt(fields[3], 10, 64)
	if err != nil {
		return Record{}, &ParseError{Line: lineNo, Field: "timestamp", Text: line, Err: err}
	}

	return Record{
		Session:   fields[0],
		Stage:     stage,
		Sample:    sample,
		Timestamp: ts,
		Payload:   fields[4],
	}, nil
}

// Parse reads an elapsed-time log from r.
func Parse(r io.Reader) (*Log, error) {
	log := NewLog()

	scanner := bufio.NewScanner(r)
	buf := make([]byte, 64*1024)
	scanner.Buffer(buf, MaxLineLength)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		rec, err := ParseLine(scanner.Text(), lineNo)
		if err != nil {
			return nil, err
		}
		log.Add(rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read line %d: %w", lineNo+1, err)
	}

	return log, nil
}

// ParseFile opens path and parses it.
func ParseFile(path string) (*Log, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open log: %w", err)
	}
	defer f.Close()

	log, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return log, nil
}
