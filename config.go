// config.go: Logger configuration, defaults and path helpers
//
// Copyright (c) 2025 AGILira
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package hemera

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

// Defaults applied by New and NewWithConfig.
const (
	DefaultName       = "default"
	DefaultBufferSize = 1024
	DefaultLogDir     = "logs"

	PolicyBlock = "block"
	PolicyDrop  = "drop"
)

// Config holds every option of a Logger. Zero values select the defaults,
// so a Config decoded from JSON only needs the fields it changes.
type Config struct {
	// Level is the minimum level emitted. Zero means LevelAll.
	Level Level `json:"level"`

	// Name prefixes every log file name. Empty means DefaultName.
	Name string `json:"name"`

	// BaseDir is the writable directory that holds the logs directory.
	// When empty, BaseDirFunc is consulted, then DocumentsDir.
	BaseDir string `json:"base_dir"`

	// BaseDirFunc resolves the base directory on every file open.
	BaseDirFunc func() (string, error) `json:"-"`

	// Console receives a copy of every emitted line. Nil means os.Stdout
	// unless DisableConsole is set.
	Console        io.Writer `json:"-"`
	DisableConsole bool      `json:"disable_console"`

	// Clock overrides the time source. Nil uses a go-timecache clock.
	Clock Clock `json:"-"`

	// ErrorCallback receives every internal failure. Nil prints them to
	// the console. It may run while the sink is locked, so it must not log
	// through the same Logger.
	ErrorCallback func(operation string, err error) `json:"-"`

	// BufferSize is the capacity of the write queue (default 1024).
	BufferSize int `json:"buffer_size"`

	// BackpressurePolicy decides what happens when the write queue is
	// full: "block" (default) waits, "drop" discards the line.
	BackpressurePolicy string `json:"backpressure_policy"`

	// FileMode is used when creating log files (default 0644).
	FileMode os.FileMode `json:"file_mode"`

	// DirMode is used when creating the logs directory (default 0750).
	DirMode os.FileMode `json:"dir_mode"`
}

// Option configures a Logger built by New.
type Option func(*Config)

// WithBaseDir sets a fixed base directory.
func WithBaseDir(dir string) Option {
	return func(c *Config) { c.BaseDir = dir }
}

// WithBaseDirFunc sets the base directory resolver.
func WithBaseDirFunc(fn func() (string, error)) Option {
	return func(c *Config) { c.BaseDirFunc = fn }
}

// WithConsole sets the console mirror. Passing nil disables it.
func WithConsole(w io.Writer) Option {
	return func(c *Config) {
		c.Console = w
		c.DisableConsole = w == nil
	}
}

// WithClock sets the time source.
func WithClock(clock Clock) Option {
	return func(c *Config) { c.Clock = clock }
}

// WithErrorCallback sets the internal error hook.
func WithErrorCallback(fn func(operation string, err error)) Option {
	return func(c *Config) { c.ErrorCallback = fn }
}

// WithBufferSize sets the write queue capacity.
func WithBufferSize(n int) Option {
	return func(c *Config) { c.BufferSize = n }
}

// WithBackpressurePolicy sets the full-queue policy ("block" or "drop").
func WithBackpressurePolicy(policy string) Option {
	return func(c *Config) { c.BackpressurePolicy = policy }
}

// WithFileMode sets the permission bits of new log files.
func WithFileMode(mode os.FileMode) Option {
	return func(c *Config) { c.FileMode = mode }
}

// applyDefaults fills unset fields and rejects values that cannot work.
func (c *Config) applyDefaults() error {
	if c.Level == 0 {
		c.Level = LevelAll
	}
	if !c.Level.Valid() {
		return fmt.Errorf("%w: level %d", ErrInvalidConfig, int(c.Level))
	}
	if c.Name == "" {
		c.Name = DefaultName
	}
	c.Name = SanitizeFilename(c.Name)

	if c.BufferSize < 0 {
		return fmt.Errorf("%w: negative buffer size %d", ErrInvalidConfig, c.BufferSize)
	}
	if c.BufferSize == 0 {
		c.BufferSize = DefaultBufferSize
	}

	c.BackpressurePolicy = strings.ToLower(c.BackpressurePolicy)
	switch c.BackpressurePolicy {
	case "":
		c.BackpressurePolicy = PolicyBlock
	case PolicyBlock, PolicyDrop:
	default:
		return fmt.Errorf("%w: unknown backpressure policy %q", ErrInvalidConfig, c.BackpressurePolicy)
	}

	if c.FileMode&^os.ModePerm != 0 || c.DirMode&^os.ModePerm != 0 {
		return fmt.Errorf("%w: only permission bits allowed in file and dir modes", ErrInvalidConfig)
	}
	if c.FileMode == 0 {
		c.FileMode = GetDefaultFileMode()
	}
	if c.DirMode == 0 {
		c.DirMode = 0750
	}

	if c.Console == nil && !c.DisableConsole {
		c.Console = os.Stdout
	}
	if c.DisableConsole {
		c.Console = io.Discard
	}
	return nil
}

// baseDirFunc returns the resolver the sink should use.
func (c *Config) baseDirFunc() func() (string, error) {
	switch {
	case c.BaseDir != "":
		dir := c.BaseDir
		return func() (string, error) { return dir, nil }
	case c.BaseDirFunc != nil:
		return c.BaseDirFunc
	default:
		return DocumentsDir
	}
}

// DocumentsDir is the default base directory: $HOME/Documents when it
// exists, otherwise the home directory itself.
func DocumentsDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrNoBaseDir, err)
	}
	docs := filepath.Join(home, "Documents")
	if info, err := os.Stat(docs); err == nil && info.IsDir() {
		return docs, nil
	}
	return home, nil
}

// SanitizeFilename removes or replaces invalid characters for cross-platform compatibility
func SanitizeFilename(filename string) string {
	// Path separators would move the file out of the logs directory
	result := strings.NewReplacer("/", "_", "\\", "_").Replace(filename)

	if runtime.GOOS == "windows" {
		// Windows invalid characters: < > : " | ? * and control characters
		invalidChars := []string{"<", ">", ":", "\"", "|", "?", "*"}
		for _, char := range invalidChars {
			result = strings.ReplaceAll(result, char, "_")
		}

		// Remove control characters (0-31)
		var sanitized strings.Builder
		for _, r := range result {
			if r >= 32 {
				sanitized.WriteRune(r)
			} else {
				sanitized.WriteRune('_')
			}
		}

		return sanitized.String()
	}

	// For Unix-like systems, just remove null characters
	return strings.ReplaceAll(result, "\x00", "_")
}

// ValidatePathLength checks if the path length is within OS limits
func ValidatePathLength(path string) error {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("invalid path: %v", err)
	}

	pathLen := len(absPath)

	switch runtime.GOOS {
	case "windows":
		// Windows has a 260 character limit for paths (historically)
		if pathLen > 260 {
			return fmt.Errorf("path too long for Windows: %d characters (limit: 260)", pathLen)
		}
	default:
		// Unix-like systems typically have higher limits (4096 on Linux)
		if pathLen > 4096 {
			return fmt.Errorf("path too long: %d characters (limit: 4096)", pathLen)
		}
	}

	return nil
}

// GetDefaultFileMode returns the appropriate default file mode for the OS
func GetDefaultFileMode() os.FileMode {
	return 0644
}
