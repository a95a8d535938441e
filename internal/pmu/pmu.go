// Package pmu traces hardware performance counters around code regions.
//
// A Tracer wraps a counter Group (on Linux, a perf_event group counting
// bus-cycles in user space). Each TraceStart/TraceEnd pair resets, enables,
// disables and reads the group, and buffers one entry:
//
//	t, _ := pmu.Open(cfg, logger)
//	t.TraceStart(3)
//	...
//	t.TraceEnd(3)
//	t.Close() // appends "<trace_id> <v1> ... " lines to pmu_log_<pid>
//
// Capacity is fixed (max_logs_num.pmu); entries past it are dropped and
// counted.
package pmu

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/randomizedcoder/go-elapsed-time-analyzer/internal/config"
)

var (
	// ErrUnsupported is returned by OpenGroup where perf events do not exist.
	ErrUnsupported = errors.New("pmu: hardware counters not supported on this platform")

	// ErrClosed is returned when tracing on a closed Tracer.
	ErrClosed = errors.New("pmu: tracer closed")
)

// Events lists the counters opened in every group, leader first.
var Events = []string{"bus-cycles"}

// Value is one counter value from a group read.
type Value struct {
	Value uint64
	ID    uint64
}

// Reading is a decoded group read (PERF_FORMAT_GROUP with total times
// and ids).
type Reading struct {
	TimeEnabled uint64
	TimeRunning uint64
	Values      []Value
}

// Group is a set of counters enabled and read together.
type Group interface {
	// IDs returns the kernel id of each counter, in Events order.
	IDs() []uint64
	// Start resets and enables the group.
	Start() error
	// Stop disables the group and reads it.
	Stop() (Reading, error)
	Close() error
}

// DecodeReading decodes a group read buffer in native byte order:
// nr, time_enabled, time_running, then nr {value, id} pairs.
func DecodeReading(buf []byte) (Reading, error) {
	const word = 8
	if len(buf) < 3*word {
		return Reading{}, fmt.Errorf("pmu: short read (%d bytes)", len(buf))
	}
	u := func(i int) uint64 { return binary.NativeEndian.Uint64(buf[i*word:]) }

	nr := u(0)
	if want := 3 + 2*nr; uint64(len(buf)) < want*word {
		return Reading{}, fmt.Errorf("pmu: read has %d bytes, need %d for %d counters", len(buf), want*word, nr)
	}

	r := Reading{
		TimeEnabled: u(1),
		TimeRunning: u(2),
		Values:      make([]Value, nr),
	}
	for i := range r.Values {
		r.Values[i] = Value{Value: u(3 + 2*i), ID: u(4 + 2*i)}
	}
	return r, nil
}

type entry struct {
	traceID int
	values  []uint64
}

// Tracer buffers counter readings and flushes them on Close.
type Tracer struct {
	group  Group
	ids    []uint64
	path   string
	logger *slog.Logger

	mu      sync.Mutex
	entries []entry
	closed  bool // counters released, no more tracing
	flushed bool // log appended

	dropped atomic.Int64
}

// LogName returns the PMU log file name for a process.
func LogName(pid int) string {
	return fmt.Sprintf("pmu_log_%d", pid)
}

// Open opens the platform counter group and wraps it in a Tracer that
// writes to cfg.LogPath.
func Open(cfg *config.RecorderConfig, logger *slog.Logger) (*Tracer, error) {
	g, err := OpenGroup()
	if err != nil {
		return nil, err
	}
	t, err := NewTracer(cfg, g, os.Getpid(), logger)
	if err != nil {
		g.Close()
		return nil, err
	}
	return t, nil
}

// NewTracer wraps an already opened group.
func NewTracer(cfg *config.RecorderConfig, g Group, pid int, logger *slog.Logger) (*Tracer, error) {
	if cfg == nil {
		return nil, errors.New("nil recorder config")
	}
	if err := config.ValidateRecorder(cfg); err != nil {
		return nil, fmt.Errorf("invalid recorder config: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	ids := g.IDs()
	if len(ids) != len(Events) {
		return nil, fmt.Errorf("pmu: group has %d counters, want %d", len(ids), len(Events))
	}

	return &Tracer{
		group:   g,
		ids:     ids,
		path:    filepath.Join(cfg.LogPath, LogName(pid)),
		logger:  logger,
		entries: make([]entry, 0, cfg.MaxLogsNum.PMUCapacity()),
	}, nil
}

// Path returns the file Close appends to.
func (t *Tracer) Path() string { return t.path }

// TraceStart resets and enables the counters. traceID is only recorded
// by TraceEnd.
func (t *Tracer) TraceStart(traceID int) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return ErrClosed
	}
	if err := t.group.Start(); err != nil {
		return fmt.Errorf("trace %d: start: %w", traceID, err)
	}
	return nil
}

// TraceEnd disables the counters, reads them and buffers one entry.
// Every counter id must be present in the read.
func (t *Tracer) TraceEnd(traceID int) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return ErrClosed
	}

	r, err := t.group.Stop()
	if err != nil {
		return fmt.Errorf("trace %d: stop: %w", traceID, err)
	}
	if len(r.Values) != len(t.ids) {
		return fmt.Errorf("trace %d: read %d counters, want %d", traceID, len(r.Values), len(t.ids))
	}

	values := make([]uint64, len(t.ids))
	matched := 0
	for _, v := range r.Values {
		for j, id := range t.ids {
			if v.ID == id {
				values[j] = v.Value
				matched++
			}
		}
	}
	if matched != len(t.ids) {
		return fmt.Errorf("trace %d: matched %d counter ids, want %d", traceID, matched, len(t.ids))
	}

	if len(t.entries) == cap(t.entries) {
		t.dropped.Add(1)
		return nil
	}
	t.entries = append(t.entries, entry{traceID: traceID, values: values})
	return nil
}

// Dropped returns how many entries were discarded at capacity.
func (t *Tracer) Dropped() int64 {
	return t.dropped.Load()
}

// Len returns the number of buffered entries.
func (t *Tracer) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.entries)
}

// WriteLog writes the buffered entries, one line each:
// "<trace_id> <v1> <v2> ... ".
func (t *Tracer) WriteLog(w io.Writer) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	bw := bufio.NewWriter(w)
	for _, e := range t.entries {
		bw.WriteString(strconv.Itoa(e.traceID))
		bw.WriteByte(' ')
		for _, v := range e.values {
			bw.WriteString(strconv.FormatUint(v, 10))
			bw.WriteByte(' ')
		}
		bw.WriteByte('\n')
	}
	return bw.Flush()
}

// Close releases the counters and appends the log. A failed append can
// be retried by calling Close again.
func (t *Tracer) Close() error {
	t.mu.Lock()
	if t.flushed {
		t.mu.Unlock()
		return nil
	}
	t.closed = true
	group := t.group
	t.group = nil
	t.mu.Unlock()

	var errs []error
	if group != nil {
		if err := group.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close counters: %w", err))
		}
	}

	f, err := os.OpenFile(t.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err == nil {
		err = t.WriteLog(f)
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}
	if err != nil {
		errs = append(errs, fmt.Errorf("pmu log: %w", err))
		return errors.Join(errs...)
	}
	t.mu.Lock()
	t.flushed = true
	t.mu.Unlock()

	if dropped := t.Dropped(); dropped > 0 {
		t.logger.Warn("pmu_entries_dropped", "dropped", dropped, "capacity", cap(t.entries))
	}
	t.logger.Debug("pmu_flushed", "path", t.path, "entries", t.Len())
	return errors.Join(errs...)
}
