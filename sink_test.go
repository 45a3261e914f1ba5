// sink_test.go: Tests for daily file rotation and the file lifecycle
//
// Copyright (c) 2025 AGILira
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package hemera

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSink_OpensEagerlyAndCreatesLogsDir(t *testing.T) {
	env := newTestEnv(t, LevelAll, "app")

	logsDir := filepath.Join(env.baseDir, DefaultLogDir)
	assert.DirExists(t, logsDir)
	assert.FileExists(t, env.logPath("app", "20250314"))
	assert.Equal(t, env.logPath("app", "20250314"), env.logger.Path())
	assert.Contains(t, env.console.String(), "log path is "+env.logPath("app", "20250314"))
	assert.Empty(t, env.errs.all())
}

func TestSink_RotatesAtMidnight(t *testing.T) {
	env := newTestEnv(t, LevelAll, "app")
	env.clock.Set(time.Date(2025, time.March, 14, 23, 59, 59, 999_000_000, time.Local))

	env.logger.Info("before midnight 1")
	env.logger.Info("before midnight 2")
	env.clock.Add(2 * time.Millisecond)
	env.logger.Info("after midnight")
	require.NoError(t, env.logger.Close())

	day1 := readLines(t, env.logPath("app", "20250314"))
	day2 := readLines(t, env.logPath("app", "20250315"))

	require.Len(t, day1, 2)
	assert.True(t, strings.HasSuffix(day1[0], "before midnight 1"))
	assert.True(t, strings.HasSuffix(day1[1], "before midnight 2"))
	assert.True(t, strings.HasPrefix(day1[1], "2025-03-14 23:59:59.999 [INFO] "))

	require.Len(t, day2, 1)
	assert.True(t, strings.HasSuffix(day2[0], "after midnight"))
	assert.True(t, strings.HasPrefix(day2[0], "2025-03-15 00:00:00.001 [INFO] "))

	stats := env.logger.Stats()
	assert.EqualValues(t, 1, stats.Rotations)
	assert.EqualValues(t, 3, stats.LinesWritten)
	assert.Empty(t, env.errs.all())
}

func TestSink_RotatesAcrossSeveralDays(t *testing.T) {
	env := newTestEnv(t, LevelAll, "multi")

	dates := []string{"20250314", "20250315", "20250316", "20250320"}
	days := []time.Time{
		fixedDay,
		fixedDay.AddDate(0, 0, 1),
		fixedDay.AddDate(0, 0, 2),
		fixedDay.AddDate(0, 0, 6),
	}
	for i, day := range days {
		env.clock.Set(day)
		for j := 0; j < 3; j++ {
			env.logger.Infof("day %d line %d", i, j)
		}
	}
	require.NoError(t, env.logger.Close())

	for i, date := range dates {
		lines := readLines(t, env.logPath("multi", date))
		require.Len(t, lines, 3, date)
		for j, line := range lines {
			assert.True(t, strings.HasSuffix(line, fmt.Sprintf("day %d line %d", i, j)), line)
		}
	}
	assert.EqualValues(t, 3, env.logger.Stats().Rotations)
}

func TestSink_ClockGoingBackwardsAlsoSwitchesFiles(t *testing.T) {
	env := newTestEnv(t, LevelAll, "skew")

	env.logger.Info("today")
	env.clock.Set(fixedDay.AddDate(0, 0, -1))
	env.logger.Info("yesterday")
	require.NoError(t, env.logger.Close())

	assert.Len(t, readLines(t, env.logPath("skew", "20250314")), 1)
	assert.Len(t, readLines(t, env.logPath("skew", "20250313")), 1)
}

func TestSink_SameDayLoggersAppend(t *testing.T) {
	base := t.TempDir()
	clock := newManualClock(fixedDay)

	for i := 0; i < 2; i++ {
		logger, err := New(LevelInfo, "shared",
			WithBaseDir(base), WithClock(clock), WithConsole(nil))
		require.NoError(t, err)
		logger.Infof("run %d", i)
		require.NoError(t, logger.Close())
	}

	lines := readLines(t, filepath.Join(base, DefaultLogDir, "shared_20250314.log"))
	require.Len(t, lines, 2)
	assert.True(t, strings.HasSuffix(lines[0], "run 0"))
	assert.True(t, strings.HasSuffix(lines[1], "run 1"))
}

func TestSink_ExistingLogsDirIsReused(t *testing.T) {
	base := t.TempDir()
	logsDir := filepath.Join(base, DefaultLogDir)
	require.NoError(t, os.Mkdir(logsDir, 0750))
	require.NoError(t, os.WriteFile(filepath.Join(logsDir, "keep.txt"), []byte("x"), 0600))

	errs := &errorRecorder{}
	logger, err := New(LevelAll, "app", WithBaseDir(base), WithClock(newManualClock(fixedDay)),
		WithConsole(nil), WithErrorCallback(errs.record))
	require.NoError(t, err)
	require.NoError(t, logger.Close())

	assert.FileExists(t, filepath.Join(logsDir, "keep.txt"))
	assert.Empty(t, errs.all())
}

func TestSink_MissingParentIsNotCreated(t *testing.T) {
	base := filepath.Join(t.TempDir(), "missing", "deeper")

	errs := &errorRecorder{}
	logger, err := New(LevelAll, "app", WithBaseDir(base), WithClock(newManualClock(fixedDay)),
		WithConsole(nil), WithErrorCallback(errs.record))
	require.NoError(t, err, "resource failures never fail construction")

	logger.Info("dropped")
	require.NoError(t, logger.Close())

	assert.NoDirExists(t, base)
	reported := errs.all()
	require.NotEmpty(t, reported)
	assert.Equal(t, "directory_creation", reported[0].op)
	assert.ErrorIs(t, reported[0].err, ErrCreateDir)
	assert.True(t, hasError(reported, "file_open", ErrOpenFile))
	assert.True(t, hasError(reported, "write", ErrOpenFile))

	stats := logger.Stats()
	assert.False(t, stats.FileOpen)
	assert.EqualValues(t, 1, stats.Dropped)
	assert.Zero(t, stats.LinesQueued)
}

func TestSink_BaseDirFailureIsReported(t *testing.T) {
	errs := &errorRecorder{}
	console := &syncBuffer{}
	logger, err := New(LevelAll, "app",
		WithBaseDirFunc(func() (string, error) { return "", errors.New("no sandbox") }),
		WithClock(newManualClock(fixedDay)),
		WithConsole(console),
		WithErrorCallback(errs.record))
	require.NoError(t, err)

	logger.Error("nowhere to go")
	require.NoError(t, logger.Close())

	reported := errs.all()
	assert.True(t, hasError(reported, "base_dir", ErrNoBaseDir))
	assert.True(t, hasError(reported, "write", ErrOpenFile))
	assert.Contains(t, console.String(), "[ERROR]", "console mirror still works")
	assert.Empty(t, logger.Path())
}

func TestSink_RecoversWhenBaseDirAppears(t *testing.T) {
	base := t.TempDir()
	var mu sync.Mutex
	available := false
	resolve := func() (string, error) {
		mu.Lock()
		defer mu.Unlock()
		if !available {
			return "", errors.New("not mounted")
		}
		return base, nil
	}

	errs := &errorRecorder{}
	logger, err := New(LevelAll, "late", WithBaseDirFunc(resolve),
		WithClock(newManualClock(fixedDay)), WithConsole(nil), WithErrorCallback(errs.record))
	require.NoError(t, err)
	assert.False(t, logger.Stats().FileOpen)

	mu.Lock()
	available = true
	mu.Unlock()

	logger.Info("written on retry")
	require.NoError(t, logger.Close())

	lines := readLines(t, filepath.Join(base, DefaultLogDir, "late_20250314.log"))
	require.Len(t, lines, 1)
	assert.True(t, strings.HasSuffix(lines[0], "written on retry"))
	assert.False(t, hasError(errs.all(), "write", ErrOpenFile))
}

func TestSink_CloseIsIdempotent(t *testing.T) {
	env := newTestEnv(t, LevelAll, "app")
	env.logger.Info("once")

	assert.NoError(t, env.logger.Close())
	assert.NoError(t, env.logger.Close())
	assert.NotPanics(t, func() { _ = env.logger.sink.close() })
	assert.False(t, env.logger.Stats().FileOpen)
}

func TestSink_AppendAfterClose(t *testing.T) {
	env := newTestEnv(t, LevelAll, "app")
	env.logger.Info("kept")
	require.NoError(t, env.logger.Close())

	assert.NotPanics(t, func() { env.logger.Warn("too late") })

	lines := readLines(t, env.logPath("app", "20250314"))
	require.Len(t, lines, 1)
	assert.True(t, strings.HasSuffix(lines[0], "kept"))
	assert.True(t, hasError(env.errs.all(), "write", ErrClosed))
	assert.EqualValues(t, 1, env.logger.Stats().Dropped)
}

func TestSink_ConcurrentAppends(t *testing.T) {
	env := newTestEnv(t, LevelAll, "concurrent", WithBufferSize(16))

	const workers = 32
	const perWorker = 50
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				env.logger.Infof("worker=%02d seq=%03d %s", w, i, strings.Repeat("x", 100))
			}
		}(w)
	}
	wg.Wait()
	require.NoError(t, env.logger.Close())

	lines := readLines(t, env.logPath("concurrent", "20250314"))
	require.Len(t, lines, workers*perWorker)

	pattern := regexp.MustCompile(`^2025-03-14 09:26:53\.589 \[INFO\] \[sink_test\.go:\d+\] \[TestSink_ConcurrentAppends\.func1\] worker=(\d{2}) seq=(\d{3}) x{100}$`)
	last := make(map[string]int)
	for _, line := range lines {
		m := pattern.FindStringSubmatch(line)
		require.NotNil(t, m, "malformed line %q", line)
		seq, err := strconv.Atoi(m[2])
		require.NoError(t, err)
		prev, seen := last[m[1]]
		if seen {
			assert.Greater(t, seq, prev, "worker %s out of order", m[1])
		}
		last[m[1]] = seq
	}
	assert.Len(t, last, workers)
	assert.Empty(t, env.errs.all())
}

func TestSink_ConcurrentAppendsAcrossMidnight(t *testing.T) {
	env := newTestEnv(t, LevelAll, "straddle")
	env.clock.Set(time.Date(2025, time.March, 14, 23, 59, 59, 0, time.Local))

	const workers = 16
	var wg sync.WaitGroup
	start := make(chan struct{})
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			<-start
			for i := 0; i < 20; i++ {
				env.logger.Infof("w%d-%d", w, i)
			}
		}(w)
	}
	close(start)
	env.clock.Add(2 * time.Second)
	wg.Wait()
	require.NoError(t, env.logger.Close())

	total := 0
	for _, date := range []string{"20250314", "20250315"} {
		path := env.logPath("straddle", date)
		if _, err := os.Stat(path); err == nil {
			total += len(readLines(t, path))
		}
	}
	assert.Equal(t, workers*20, total)
	assert.LessOrEqual(t, env.logger.Stats().Rotations, uint64(1))
	assert.Empty(t, env.errs.all())
}

func TestSink_InvalidUTF8IsReplaced(t *testing.T) {
	env := newTestEnv(t, LevelAll, "utf8")
	env.logger.Info("bad \xff\xfe byte")
	env.logger.Info("ünïcödé ok")
	require.NoError(t, env.logger.Close())

	lines := readLines(t, env.logPath("utf8", "20250314"))
	require.Len(t, lines, 2)
	assert.True(t, strings.HasSuffix(lines[0], "bad � byte"), lines[0])
	assert.True(t, strings.HasSuffix(lines[1], "ünïcödé ok"), lines[1])
}

func TestSink_NameIsSanitized(t *testing.T) {
	env := newTestEnv(t, LevelAll, "../escape")
	require.NoError(t, env.logger.Close())

	assert.Equal(t, ".._escape", env.logger.Name())
	assert.FileExists(t, env.logPath(".._escape", "20250314"))
}

func TestSink_FileMode(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("permission bits are not enforced on Windows")
	}
	env := newTestEnv(t, LevelAll, "mode", WithFileMode(0600))
	require.NoError(t, env.logger.Close())

	info, err := os.Stat(env.logPath("mode", "20250314"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

// hasError reports whether an error for op wrapping target was recorded.
func hasError(reported []reportedError, op string, target error) bool {
	for _, r := range reported {
		if r.op == op && errors.Is(r.err, target) {
			return true
		}
	}
	return false
}
