// Package hemera provides a leveled logger that mirrors every line to the
// console and appends it to one log file per local calendar day.
//
// # Quick Start
//
//	logger, err := hemera.New(hemera.LevelInfo, "app")
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer logger.Close()
//
//	logger.Debug("not written, below the threshold")
//	logger.Info("service started")
//	logger.Errorf("payment %s failed: %v", id, err)
//
// # Levels
//
// Levels are ordered LevelAll < LevelDebug < LevelInfo < LevelWarn <
// LevelError < LevelFatal < LevelOff. A message is emitted when its level
// is at or above the logger's threshold. LevelAll as threshold emits
// everything and LevelOff emits nothing:
//
//	logger.SetLevel(hemera.LevelOff) // silence the logger
//
// Rejected calls stop at the level comparison: nothing is formatted and
// the file is not touched.
//
// # Line Format
//
// Every line has the shape
//
//	2025-03-14 09:26:53.589 [ERROR] [checkout.go:42] [Cart.Pay] card declined
//
// with the file reduced to its base name and the function stripped of its
// package path and parameter list. Wrappers that know the call site can
// pass it explicitly:
//
//	logger.Log(hemera.LevelWarn, hemera.CallSite{
//		File: "/src/Widget.swift",
//		Func: "doThing(x:)",
//		Line: 42,
//	}, "boom")
//
// # Files and Rotation
//
// Lines are appended to <base>/logs/<name>_<yyyyMMdd>.log. The base
// directory defaults to DocumentsDir and can be set with WithBaseDir or
// WithBaseDirFunc. The logs directory is created when missing (its parent
// must exist). Existing files are appended to, never truncated.
//
// Before each line is queued the logger compares today's date with the
// date of the open file; when they differ the old file is closed and the
// new day's file is opened. Lines queued before the switch are still
// written to the old file.
//
// # Asynchronous Writes
//
// File writes run on one background goroutine per Logger, in the order the
// lines were accepted. Log calls return once the line is queued. Close
// waits for the queue to drain before closing the file:
//
//	logger, _ := hemera.New(hemera.LevelAll, "batch",
//		hemera.WithBufferSize(4096),
//		hemera.WithBackpressurePolicy(hemera.PolicyDrop),
//	)
//
// With PolicyBlock (the default) a full queue makes callers wait; with
// PolicyDrop the line is dropped and counted in Stats.Dropped.
//
// # Error Handling
//
// Logging never fails the caller. Directory, open and write failures are
// passed to the ErrorCallback, or printed on the console when no callback
// is set, and the affected line is dropped:
//
//	logger, _ := hemera.New(hemera.LevelInfo, "api",
//		hemera.WithErrorCallback(func(op string, err error) {
//			metrics.Inc("log_errors", op)
//		}),
//	)
//
// The reported errors wrap the sentinels in errors.go (ErrOpenFile,
// ErrCreateDir, ErrWrite, ...), so they can be matched with errors.Is.
//
// # Configuration
//
// NewWithConfig accepts a Config, which can also be decoded from JSON:
//
//	{"level": "warn", "name": "api", "base_dir": "/var/log/api", "buffer_size": 2048}
package hemera
