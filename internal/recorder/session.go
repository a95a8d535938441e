package recorder

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"sync"
	"sync/atomic"
)

// ErrSessionClosed is returned when writing to a closed session.
var ErrSessionClosed = errors.New("session closed")

type elapsedEntry struct {
	stage     int
	loop      int
	timestamp int64 // microseconds
	data      int64
}

type variableEntry struct {
	loop   int
	name   string
	values []float64
}

// Session records the elapsed-time log of one pipeline.
//
// Timestamp and Variable are meant to be called from the pipeline's own
// goroutine; Dropped and Len may be read from anywhere.
type Session struct {
	rec   *Recorder
	name  string
	index int

	mu        sync.Mutex
	loop      int
	elapsed   []elapsedEntry
	variables []variableEntry
	closed    bool // no more recording
	// Logs already appended; a failed Close retries only the others.
	elapsedFlushed  bool
	variableFlushed bool

	dropped atomic.Int64
}

func newSession(r *Recorder, name string, index int) *Session {
	return &Session{
		rec:       r,
		name:      name,
		index:     index,
		elapsed:   make([]elapsedEntry, 0, r.capacity),
		variables: make([]variableEntry, 0, r.capacity),
	}
}

// Name returns the session name.
func (s *Session) Name() string { return s.name }

// Index returns the registration index.
func (s *Session) Index() int { return s.index }

// Timestamp records that the current sample reached stage. newLoop starts
// a new sample first, so the first sample is numbered 1. data is an
// arbitrary payload written alongside the timestamp.
func (s *Session) Timestamp(stage int, newLoop bool, data int64) {
	ts := s.rec.now().UnixMicro()

	s.mu.Lock()
	defer s.mu.Unlock()

	if newLoop {
		s.loop++
	}
	if s.closed || len(s.elapsed) == cap(s.elapsed) {
		s.dropped.Add(1)
		return
	}
	s.elapsed = append(s.elapsed, elapsedEntry{
		stage:     stage,
		loop:      s.loop,
		timestamp: ts,
		data:      data,
	})
}

// Variable records named values at the current sample.
func (s *Session) Variable(name string, values []float64) error {
	if !validName(name) {
		return fmt.Errorf("variable %q: %w", name, ErrInvalidName)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		s.dropped.Add(1)
		return ErrSessionClosed
	}
	if len(s.variables) == cap(s.variables) {
		s.dropped.Add(1)
		return nil
	}
	s.variables = append(s.variables, variableEntry{
		loop:   s.loop,
		name:   name,
		values: append([]float64(nil), values...),
	})
	return nil
}

// Dropped returns how many entries were discarded (capacity or closed).
func (s *Session) Dropped() int64 {
	return s.dropped.Load()
}

// Len returns the number of buffered elapsed-time entries.
func (s *Session) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.elapsed)
}

// ElapsedPath returns where Close appends the elapsed-time log.
func (s *Session) ElapsedPath() string {
	return s.rec.path(ElapsedLogName(s.rec.pid, s.index))
}

// VariablePath returns where Close appends the variable log.
func (s *Session) VariablePath() string {
	return s.rec.path(VariableLogName(s.rec.pid, s.index))
}

// WriteElapsed writes the buffered elapsed-time entries, one line each:
// "<session> <stage> <loop> <timestamp_us> <data>".
func (s *Session) WriteElapsed(w io.Writer) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	bw := bufio.NewWriter(w)
	for _, e := range s.elapsed {
		fmt.Fprintf(bw, "%s %d %d %d %d\n", s.name, e.stage, e.loop, e.timestamp, e.data)
	}
	return bw.Flush()
}

// WriteVariables writes the buffered variable entries, one line each:
// "<session> <loop> <name> <v1> <v2> ... ".
func (s *Session) WriteVariables(w io.Writer) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	bw := bufio.NewWriter(w)
	for _, v := range s.variables {
		fmt.Fprintf(bw, "%s %d %s ", s.name, v.loop, v.name)
		for _, value := range v.values {
			bw.WriteString(strconv.FormatFloat(value, 'f', 6, 64))
			bw.WriteByte(' ')
		}
		bw.WriteByte('\n')
	}
	return bw.Flush()
}

// Close stops recording and appends both logs to their files. Both
// appends are attempted; a log that failed is retried by the next Close,
// and once both are written Close is a no-op.
func (s *Session) Close() error {
	s.mu.Lock()
	if s.elapsedFlushed && s.variableFlushed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	needElapsed, needVariable := !s.elapsedFlushed, !s.variableFlushed
	s.mu.Unlock()

	var errs []error
	if needElapsed {
		if err := appendTo(s.ElapsedPath(), s.WriteElapsed); err != nil {
			errs = append(errs, fmt.Errorf("session %s: elapsed log: %w", s.name, err))
		} else {
			s.mu.Lock()
			s.elapsedFlushed = true
			s.mu.Unlock()
		}
	}
	if needVariable {
		if err := appendTo(s.VariablePath(), s.WriteVariables); err != nil {
			errs = append(errs, fmt.Errorf("session %s: variable log: %w", s.name, err))
		} else {
			s.mu.Lock()
			s.variableFlushed = true
			s.mu.Unlock()
		}
	}
	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	logger := s.rec.logger.With("session", s.name, "index", s.index)
	if dropped := s.Dropped(); dropped > 0 {
		logger.Warn("session_entries_dropped",
			"dropped", dropped,
			"capacity", s.rec.capacity,
		)
	}
	logger.Debug("session_flushed", "path", s.ElapsedPath(), "entries", s.Len())
	return nil
}

func appendTo(path string, write func(io.Writer) error) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
