// errors.go: Sentinel errors reported by the logger
//
// Copyright (c) 2025 AGILira
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package hemera

import "errors"

// Errors passed to the ErrorCallback. They are always wrapped with the
// failing path or operation, so match them with errors.Is.
var (
	// ErrNoBaseDir means no writable base directory could be resolved.
	ErrNoBaseDir = errors.New("hemera: unable to resolve base directory")

	// ErrCreateDir means the logs directory could not be created.
	ErrCreateDir = errors.New("hemera: unable to create log directory")

	// ErrOpenFile means the daily log file could not be opened.
	ErrOpenFile = errors.New("hemera: unable to open file")

	// ErrWrite means a queued line was only partially written.
	ErrWrite = errors.New("hemera: write failed")

	// ErrClosed is reported when a line arrives after Close.
	ErrClosed = errors.New("hemera: logger is closed")

	// ErrQueueFull is reported when the drop policy discards a line.
	ErrQueueFull = errors.New("hemera: write queue full")

	// ErrInvalidLevel is returned for unknown level names or ordinals.
	ErrInvalidLevel = errors.New("hemera: invalid level")

	// ErrInvalidConfig is returned by NewWithConfig for unusable settings.
	ErrInvalidConfig = errors.New("hemera: invalid config")
)
