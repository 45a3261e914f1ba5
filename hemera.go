// hemera.go: Public API - Leveled logger with daily file rotation
//
// Copyright (c) 2025 AGILira
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package hemera

import (
	"fmt"
	"io"
	"sync"
	"sync/atomic"
)

// Logger filters messages by level, mirrors accepted lines to a console
// and appends them to one log file per local calendar day.
//
// Basic usage example:
//
//	logger, err := hemera.New(hemera.LevelInfo, "app")
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer logger.Close()
//
//	logger.Info("service started")
//	logger.Warnf("cache miss ratio %.2f", ratio)
//
// All methods are safe for concurrent use. Log calls never fail: problems
// with the log directory or file are reported through the ErrorCallback
// and the affected lines are dropped.
type Logger struct {
	level atomic.Int32
	name  string

	console       io.Writer
	clock         Clock
	ownClock      *cachedClock
	errorCallback func(operation string, err error)

	sink *fileSink

	closeOnce sync.Once
	closeErr  error
}

// New creates a Logger that emits messages at or above level and writes
// them to <base>/logs/<name>_<yyyyMMdd>.log. An empty name selects
// DefaultName. Today's file is opened before New returns.
//
// Example:
//
//	logger, err := hemera.New(hemera.LevelDebug, "worker",
//		hemera.WithBaseDir("/var/lib/worker"),
//	)
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer logger.Close()
func New(level Level, name string, opts ...Option) (*Logger, error) {
	cfg := &Config{Level: level, Name: name}
	for _, opt := range opts {
		if opt != nil {
			opt(cfg)
		}
	}
	return NewWithConfig(cfg)
}

// NewWithConfig creates a Logger from a Config. Unset fields use the
// defaults described on Config. The config is copied, so later changes to
// it have no effect.
//
// Returns an error wrapping ErrInvalidConfig when a setting is unusable.
// Failure to create the log directory or open the file is not an error:
// it is reported, and the open is retried on the next log call.
func NewWithConfig(config *Config) (*Logger, error) {
	if config == nil {
		return nil, fmt.Errorf("%w: config cannot be nil", ErrInvalidConfig)
	}
	cfg := *config
	if err := cfg.applyDefaults(); err != nil {
		return nil, err
	}

	l := &Logger{
		name:          cfg.Name,
		console:       &lockedWriter{w: cfg.Console},
		clock:         cfg.Clock,
		errorCallback: cfg.ErrorCallback,
	}
	l.level.Store(int32(cfg.Level)) // #nosec G115 -- validated by applyDefaults

	if l.clock == nil {
		l.ownClock = newCachedClock()
		l.clock = l.ownClock
	}

	l.sink = newFileSink(&cfg, l.clock, l.reportError, l.notice)
	return l, nil
}

// SetLevel changes the minimum level for subsequent calls.
func (l *Logger) SetLevel(level Level) {
	if !level.Valid() {
		l.reportError("set_level", fmt.Errorf("%w: %d", ErrInvalidLevel, int(level)))
		return
	}
	l.level.Store(int32(level)) // #nosec G115 -- level is one of the defined constants
}

// Level returns the current minimum level.
func (l *Logger) Level() Level {
	return Level(l.level.Load())
}

// Enabled reports whether a message at level would be emitted.
func (l *Logger) Enabled(level Level) bool {
	return ShouldEmit(level, l.Level())
}

// Name returns the file name prefix.
func (l *Logger) Name() string {
	return l.name
}

// Path returns the path of the most recently opened log file, or "" if
// no file has been opened yet.
func (l *Logger) Path() string {
	path, _, _ := l.sink.snapshot()
	return path
}

// Debug logs msg at LevelDebug.
func (l *Logger) Debug(msg string) { l.logMsg(LevelDebug, msg) }

// Info logs msg at LevelInfo.
func (l *Logger) Info(msg string) { l.logMsg(LevelInfo, msg) }

// Warn logs msg at LevelWarn.
func (l *Logger) Warn(msg string) { l.logMsg(LevelWarn, msg) }

// Error logs msg at LevelError.
func (l *Logger) Error(msg string) { l.logMsg(LevelError, msg) }

// Fatal logs msg at LevelFatal. It does not stop the program.
func (l *Logger) Fatal(msg string) { l.logMsg(LevelFatal, msg) }

// Debugf formats and logs at LevelDebug.
func (l *Logger) Debugf(format string, args ...any) { l.logf(LevelDebug, format, args) }

// Infof formats and logs at LevelInfo.
func (l *Logger) Infof(format string, args ...any) { l.logf(LevelInfo, format, args) }

// Warnf formats and logs at LevelWarn.
func (l *Logger) Warnf(format string, args ...any) { l.logf(LevelWarn, format, args) }

// Errorf formats and logs at LevelError.
func (l *Logger) Errorf(format string, args ...any) { l.logf(LevelError, format, args) }

// Fatalf formats and logs at LevelFatal. It does not stop the program.
func (l *Logger) Fatalf(format string, args ...any) { l.logf(LevelFatal, format, args) }

// Log emits msg at level with an explicit call site. It is the entry point
// for wrappers that capture the call site themselves.
func (l *Logger) Log(level Level, site CallSite, msg string) {
	if !ShouldEmit(level, l.Level()) {
		return
	}
	l.emit(level, site, msg)
}

// logMsg and logf are called directly by the exported level methods, so
// the user's frame is two levels above callerSite.
func (l *Logger) logMsg(level Level, msg string) {
	if !ShouldEmit(level, l.Level()) {
		return
	}
	l.emit(level, callerSite(2), msg)
}

func (l *Logger) logf(level Level, format string, args []any) {
	if !ShouldEmit(level, l.Level()) {
		return
	}
	l.emit(level, callerSite(2), fmt.Sprintf(format, args...))
}

// emit formats the record, mirrors it to the console and hands it to the
// sink, which takes ownership of the buffer.
func (l *Logger) emit(level Level, site CallSite, msg string) {
	line := appendRecord(safeBufferPool.Get(), Record{
		Time:    l.clock.Now(),
		Level:   level,
		Site:    site,
		Message: msg,
	})

	if _, err := l.console.Write(line); err != nil {
		l.reportError("console", err)
	}
	l.sink.append(line)
}

// Close waits for queued lines to be written, then closes the log file and
// releases background resources. It is safe to call Close multiple times;
// later calls return the result of the first. Lines logged after Close are
// still mirrored to the console but dropped from the file.
func (l *Logger) Close() error {
	l.closeOnce.Do(func() {
		l.closeErr = l.sink.close()
		if l.ownClock != nil {
			l.ownClock.stop()
		}
	})
	return l.closeErr
}

// Stats is a snapshot of logger activity for monitoring and tests.
type Stats struct {
	Level       Level  `json:"level"`
	Name        string `json:"name"`
	Path        string `json:"path"`
	CurrentDate string `json:"current_date"`
	FileOpen    bool   `json:"file_open"`

	LinesQueued  uint64 `json:"lines_queued"`  // Lines handed to the write queue
	LinesWritten uint64 `json:"lines_written"` // Lines fully written to a file
	BytesWritten uint64 `json:"bytes_written"` // Bytes written, partial writes included
	WriteErrors  uint64 `json:"write_errors"`  // Failed or partial writes
	Dropped      uint64 `json:"dropped"`       // Lines never queued
	Rotations    uint64 `json:"rotations"`     // Date changes that replaced an open file

	QueueLen int `json:"queue_len"`
	QueueCap int `json:"queue_cap"`
}

// Stats returns current counters. Writes are asynchronous, so
// LinesWritten may trail LinesQueued until the queue drains.
func (l *Logger) Stats() Stats {
	path, date, open := l.sink.snapshot()
	q := l.sink.queue
	return Stats{
		Level:        l.Level(),
		Name:         l.name,
		Path:         path,
		CurrentDate:  date,
		FileOpen:     open,
		LinesQueued:  l.sink.queued.Load(),
		LinesWritten: q.linesWritten.Load(),
		BytesWritten: q.bytesWritten.Load(),
		WriteErrors:  q.writeErrors.Load(),
		Dropped:      l.sink.dropped.Load(),
		Rotations:    l.sink.rotations.Load(),
		QueueLen:     q.pending(),
		QueueCap:     q.capacity(),
	}
}

// reportError invokes the error callback if set, otherwise prints the
// error on the console. A panicking callback is contained.
func (l *Logger) reportError(operation string, err error) {
	if err == nil {
		return
	}
	if l.errorCallback != nil {
		defer func() { _ = recover() }()
		l.errorCallback(operation, err)
		return
	}
	_, _ = fmt.Fprintf(l.console, "[hemera] %s: %v\n", operation, err)
}

// notice prints an informational message on the console.
func (l *Logger) notice(msg string) {
	_, _ = fmt.Fprintln(l.console, msg)
}

// lockedWriter serializes writes so console lines never interleave.
type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (w *lockedWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.w.Write(p)
}
