// Package recorder writes elapsed-time logs.
//
// Applications register a Session per pipeline, call Timestamp at every
// stage boundary, and Close the session to flush its log:
//
//	rec, _ := recorder.New(cfg, logger)
//	s, _ := rec.Session("planner")
//	for each input {
//	    s.Timestamp(0, true, 0)  // new sample, stage 0
//	    ...
//	    s.Timestamp(1, false, 0) // stage 1
//	}
//	s.Close()
//
// Capacity is fixed per session (max_logs_num.elapsed_time) and allocated
// up front. Entries past capacity are dropped and counted; Timestamp never
// blocks, allocates, or panics.
package recorder

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/randomizedcoder/go-elapsed-time-analyzer/internal/config"
)

// Clock returns the current time.
type Clock func() time.Time

var (
	// ErrDuplicateSession is returned when a session name is registered twice.
	ErrDuplicateSession = errors.New("session already registered")

	// ErrInvalidName is returned for names that would break the log format.
	ErrInvalidName = errors.New("name must be non-empty and contain no whitespace")
)

// Recorder owns the sessions of one process.
type Recorder struct {
	logPath  string
	capacity int
	pid      int
	now      Clock
	logger   *slog.Logger

	mu       sync.Mutex
	sessions []*Session
	byName   map[string]*Session
}

// Option configures a Recorder.
type Option func(*Recorder)

// WithClock overrides the time source.
func WithClock(c Clock) Option {
	return func(r *Recorder) { r.now = c }
}

// WithPID overrides the process id used in file names.
func WithPID(pid int) Option {
	return func(r *Recorder) { r.pid = pid }
}

// New creates a Recorder from a validated configuration.
func New(cfg *config.RecorderConfig, logger *slog.Logger, opts ...Option) (*Recorder, error) {
	if cfg == nil {
		return nil, errors.New("nil recorder config")
	}
	if err := config.ValidateRecorder(cfg); err != nil {
		return nil, fmt.Errorf("invalid recorder config: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}

	r := &Recorder{
		logPath:  cfg.LogPath,
		capacity: cfg.MaxLogsNum.ElapsedTime,
		pid:      os.Getpid(),
		now:      time.Now,
		logger:   logger,
		byName:   make(map[string]*Session),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Session registers a new session. Indices are assigned in registration
// order starting at 0. Safe for concurrent use.
func (r *Recorder) Session(name string) (*Session, error) {
	if !validName(name) {
		return nil, fmt.Errorf("session %q: %w", name, ErrInvalidName)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byName[name]; ok {
		return nil, fmt.Errorf("session %q: %w", name, ErrDuplicateSession)
	}

	s := newSession(r, name, len(r.sessions))
	r.sessions = append(r.sessions, s)
	r.byName[name] = s

	r.logger.Debug("session_registered", "session", name, "index", s.index, "capacity", r.capacity)
	return s, nil
}

// Lookup returns a registered session by name.
func (r *Recorder) Lookup(name string) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.byName[name]
	return s, ok
}

// Sessions returns the registered sessions in index order.
func (r *Recorder) Sessions() []*Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*Session(nil), r.sessions...)
}

// Close flushes every session that is still open.
func (r *Recorder) Close() error {
	var errs []error
	for _, s := range r.Sessions() {
		if err := s.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// ElapsedLogName returns the elapsed log file name for a session.
func ElapsedLogName(pid, index int) string {
	return fmt.Sprintf("elapsed_time_log_%d_%d", pid, index)
}

// VariableLogName returns the variable log file name for a session.
func VariableLogName(pid, index int) string {
	return fmt.Sprintf("variable_log_%d_%d", pid, index)
}

func (r *Recorder) path(name string) string {
	return filepath.Join(r.logPath, name)
}

func validName(name string) bool {
	return name != "" && !strings.ContainsFunc(name, unicode.IsSpace)
}
