// format.go: Log line formatting
//
// Copyright (c) 2025 AGILira
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package hemera

import (
	"runtime"
	"strconv"
	"strings"
	"time"
)

const (
	// TimestampLayout is the layout of the leading timestamp of every line.
	TimestampLayout = "2006-01-02 15:04:05.000"

	// DateLayout is the layout of the date embedded in log file names.
	DateLayout = "20060102"
)

// CallSite identifies where a log call was made. File may be a full path
// and Func may carry a parameter list; both are shortened when formatted.
type CallSite struct {
	File string
	Func string
	Line int
}

// Record is a single log event. It only lives long enough to be formatted.
type Record struct {
	Time    time.Time
	Level   Level
	Site    CallSite
	Message string
}

// FormatRecord returns the line for r, newline included. It returns false
// for records tagged LevelOff, which never produce output.
func FormatRecord(r Record) (string, bool) {
	if r.Level == LevelOff {
		return "", false
	}
	return string(appendRecord(nil, r)), true
}

// appendRecord appends the formatted line for r to dst:
//
//	2006-01-02 15:04:05.000 [LEVEL] [file.go:42] [Func] message\n
//
// Records tagged LevelAll are written without the level tag.
func appendRecord(dst []byte, r Record) []byte {
	dst = r.Time.AppendFormat(dst, TimestampLayout)
	dst = append(dst, ' ')
	if r.Level != LevelAll {
		dst = append(dst, '[')
		dst = append(dst, r.Level.String()...)
		dst = append(dst, "] "...)
	}
	dst = append(dst, '[')
	dst = append(dst, ShortFileName(r.Site.File)...)
	dst = append(dst, ':')
	dst = strconv.AppendInt(dst, int64(r.Site.Line), 10)
	dst = append(dst, "] ["...)
	dst = append(dst, StripParams(r.Site.Func)...)
	dst = append(dst, "] "...)
	dst = append(dst, r.Message...)
	dst = append(dst, '\n')
	return dst
}

// ShortFileName returns the last non-empty slash separated element of
// path, or path itself when it has none.
func ShortFileName(path string) string {
	parts := strings.FieldsFunc(path, func(r rune) bool { return r == '/' || r == '\\' })
	if len(parts) == 0 {
		return path
	}
	return parts[len(parts)-1]
}

// StripParams drops a parameter list from a function name, so
// "doThing(x:)" becomes "doThing".
func StripParams(fn string) string {
	parts := strings.FieldsFunc(fn, func(r rune) bool { return r == '(' })
	if len(parts) == 0 {
		return fn
	}
	return parts[0]
}

// shortFuncName turns a runtime function name such as
// "github.com/acme/app/store.(*DB).Get" into "DB.Get".
func shortFuncName(name string) string {
	if i := strings.LastIndexByte(name, '/'); i >= 0 {
		name = name[i+1:]
	}
	if i := strings.IndexByte(name, '.'); i >= 0 {
		name = name[i+1:]
	}
	return receiverMarks.Replace(name)
}

var receiverMarks = strings.NewReplacer("(*", "", "(", "", ")", "")

// callerSite captures the call site skip frames above its caller.
func callerSite(skip int) CallSite {
	pc, file, line, ok := runtime.Caller(skip + 1)
	if !ok {
		return CallSite{File: "???", Func: "???"}
	}
	site := CallSite{File: file, Line: line}
	if fn := runtime.FuncForPC(pc); fn != nil {
		site.Func = shortFuncName(fn.Name())
	}
	return site
}
