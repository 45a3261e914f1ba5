// sink.go: Daily rotating file sink
//
// Copyright (c) 2025 AGILira
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package hemera

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"unicode/utf8"
)

// fileSink appends lines to <base>/logs/<name>_<yyyyMMdd>.log and switches
// files when the local date changes. It owns at most one open handle; a
// replaced handle is closed by the write queue after the lines queued for
// it have been written.
type fileSink struct {
	name     string
	baseDir  func() (string, error)
	clock    Clock
	fileMode os.FileMode
	dirMode  os.FileMode
	policy   string
	queue    *writeQueue
	report   func(operation string, err error)
	notice   func(msg string)

	// mu guards the rotation check, the handle swap and the enqueue, so
	// lines queued for a file always precede its release job.
	mu          sync.Mutex
	file        *os.File
	path        string
	currentDate string
	closed      bool

	rotations atomic.Uint64
	queued    atomic.Uint64
	dropped   atomic.Uint64
}

// newFileSink builds the sink and opens today's file eagerly. Failure to
// open is reported and leaves the sink without a handle.
func newFileSink(cfg *Config, clock Clock, report func(string, error), notice func(string)) *fileSink {
	s := &fileSink{
		name:     cfg.Name,
		baseDir:  cfg.baseDirFunc(),
		clock:    clock,
		fileMode: cfg.FileMode,
		dirMode:  cfg.DirMode,
		policy:   cfg.BackpressurePolicy,
		report:   report,
		notice:   notice,
	}
	s.queue = newWriteQueue(cfg.BufferSize, report)

	s.mu.Lock()
	s.currentDate = s.today()
	s.open()
	s.mu.Unlock()

	return s
}

func (s *fileSink) today() string {
	return s.clock.Now().Format(DateLayout)
}

// fileName returns the log file name for date.
func (s *fileSink) fileName(date string) string {
	return fmt.Sprintf("%s_%s.log", s.name, date)
}

// open opens the file for currentDate, replacing any open handle.
// Must be called with mu held.
func (s *fileSink) open() {
	if s.file != nil {
		s.release()
	}

	base, err := s.baseDir()
	if err != nil {
		if !errors.Is(err, ErrNoBaseDir) {
			err = fmt.Errorf("%w: %v", ErrNoBaseDir, err)
		}
		s.report("base_dir", err)
		return
	}

	dir := filepath.Join(base, DefaultLogDir)
	s.ensureDir(dir)

	path := filepath.Join(dir, s.fileName(s.currentDate))
	if err := ValidatePathLength(path); err != nil {
		s.report("file_open", fmt.Errorf("%w %q: %v", ErrOpenFile, path, err))
		return
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, s.fileMode) // #nosec G304 -- name is sanitized, directory comes from the application
	if err != nil {
		s.report("file_open", fmt.Errorf("%w %q: %v", ErrOpenFile, path, err))
		return
	}

	s.file = file
	s.path = path
	s.notice("log path is " + path)
}

// ensureDir creates dir without parents when it is missing. A failure is
// reported only; the following open reports its own error.
func (s *fileSink) ensureDir(dir string) {
	_, err := os.Stat(dir)
	if err == nil || !errors.Is(err, fs.ErrNotExist) {
		return
	}
	if err := os.Mkdir(dir, s.dirMode); err != nil && !errors.Is(err, fs.ErrExist) {
		s.report("directory_creation", fmt.Errorf("%w %q: %v", ErrCreateDir, dir, err))
	}
}

// release hands the current handle to the write queue for closing.
// Must be called with mu held.
func (s *fileSink) release() {
	s.queue.submit(writeJob{file: s.file, release: true})
	s.file = nil
}

// rotate switches to today's file when the date differs from the one the
// sink tracks. Must be called with mu held.
func (s *fileSink) rotate() {
	today := s.today()
	if today == s.currentDate {
		return
	}

	s.currentDate = today
	if s.file != nil {
		s.rotations.Add(1)
	}
	s.open()
}

// append queues line for today's file and takes ownership of it. Lines
// that cannot be queued are reported and dropped.
func (s *fileSink) append(line []byte) {
	if !utf8.Valid(line) {
		fixed := bytes.ToValidUTF8(line, []byte("\uFFFD"))
		safeBufferPool.Put(line)
		line = fixed
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		s.drop(line)
		s.report("write", ErrClosed)
		return
	}

	s.rotate()
	if s.file == nil {
		s.open()
	}
	if s.file == nil {
		s.drop(line)
		s.report("write", fmt.Errorf("%w: line dropped", ErrOpenFile))
		return
	}

	job := writeJob{file: s.file, data: line}
	if s.policy == PolicyDrop {
		if !s.queue.trySubmit(job) {
			s.drop(line)
			s.report("write", ErrQueueFull)
			return
		}
	} else {
		s.queue.submit(job)
	}
	s.queued.Add(1)
}

func (s *fileSink) drop(line []byte) {
	s.dropped.Add(1)
	safeBufferPool.Put(line)
}

// close stops the sink, waits for queued lines to be written and closes
// the handle. Calling it again returns nil.
func (s *fileSink) close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	s.queue.stop()

	if s.file == nil {
		return nil
	}
	err := s.file.Close()
	s.file = nil
	return err
}

// snapshot returns the current path, date and whether a file is open.
func (s *fileSink) snapshot() (path, date string, open bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.path, s.currentDate, s.file != nil
}
