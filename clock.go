// clock.go: Time source for timestamps and rotation checks
//
// Copyright (c) 2025 AGILira
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package hemera

import (
	"time"

	"github.com/agilira/go-timecache"
)

// Clock supplies the wall-clock time used for line timestamps and for the
// date of the active log file.
type Clock interface {
	Now() time.Time
}

// ClockFunc adapts a plain function to Clock.
type ClockFunc func() time.Time

// Now implements Clock.
func (f ClockFunc) Now() time.Time { return f() }

// cachedClock reads time from a go-timecache instance refreshed every
// millisecond, which matches the resolution of the line timestamp.
type cachedClock struct {
	tc *timecache.TimeCache
}

func newCachedClock() *cachedClock {
	return &cachedClock{tc: timecache.NewWithResolution(time.Millisecond)}
}

func (c *cachedClock) Now() time.Time {
	return c.tc.CachedTime().Local()
}

func (c *cachedClock) stop() {
	c.tc.Stop()
}
