// level.go: Severity levels and the emit filter
//
// Copyright (c) 2025 AGILira
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package hemera

import (
	"fmt"
	"strings"
)

// Level is an ordered log severity. LevelAll accepts every message and
// LevelOff accepts none; LevelOff is a threshold only and never tags a
// message.
type Level int

const (
	LevelAll Level = iota + 1
	LevelDebug
	LevelInfo
	LevelWarn
	LevelError
	LevelFatal
	LevelOff
)

var levelNames = [...]string{
	LevelAll:   "ALL",
	LevelDebug: "DEBUG",
	LevelInfo:  "INFO",
	LevelWarn:  "WARN",
	LevelError: "ERROR",
	LevelFatal: "FATAL",
	LevelOff:   "OFF",
}

// String returns the upper-case level name used in log lines.
func (l Level) String() string {
	if !l.Valid() {
		return fmt.Sprintf("LEVEL(%d)", int(l))
	}
	return levelNames[l]
}

// Valid reports whether l is one of the defined levels.
func (l Level) Valid() bool {
	return l >= LevelAll && l <= LevelOff
}

// ShouldEmit reports whether a message tagged msg passes a logger whose
// minimum level is threshold. A threshold of LevelOff rejects everything,
// and so does a message tagged LevelOff.
func ShouldEmit(msg, threshold Level) bool {
	if threshold == LevelOff || msg == LevelOff {
		return false
	}
	return msg >= threshold
}

// ParseLevel converts a level name such as "warn" or "ERROR" to a Level.
// "warning" is accepted as an alias of "warn".
func ParseLevel(s string) (Level, error) {
	name := strings.ToUpper(strings.TrimSpace(s))
	if name == "WARNING" {
		return LevelWarn, nil
	}
	for l := LevelAll; l <= LevelOff; l++ {
		if levelNames[l] == name {
			return l, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidLevel, s)
}

// MarshalText implements encoding.TextMarshaler.
func (l Level) MarshalText() ([]byte, error) {
	if !l.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidLevel, int(l))
	}
	return []byte(strings.ToLower(levelNames[l])), nil
}

// UnmarshalText implements encoding.TextUnmarshaler, so a Config can be
// decoded from JSON with "level": "warn".
func (l *Level) UnmarshalText(text []byte) error {
	parsed, err := ParseLevel(string(text))
	if err != nil {
		return err
	}
	*l = parsed
	return nil
}
