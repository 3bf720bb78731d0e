// This Source Code Form is subject to the terms of the MIT License.
// If a copy of the MIT License was not distributed with this
// file, you can obtain one at https://opensource.org/licenses/MIT.
//
// Copyright (c) DUSK NETWORK. All rights reserved.

package topicindex

import (
	"math"
	"sync"
	"time"
)

// AbsTime is a point in time in nanoseconds since an arbitrary epoch.
type AbsTime int64

// Never is later than any time a Clock returns.
const Never = AbsTime(math.MaxInt64)

// Add returns t + d.
func (t AbsTime) Add(d time.Duration) AbsTime {
	return t + AbsTime(d)
}

// Sub returns t - t2.
func (t AbsTime) Sub(t2 AbsTime) time.Duration {
	return time.Duration(t - t2)
}

// Clock is the time source of the topic tables.
type Clock interface {
	Now() AbsTime
}

// SystemClock follows the wall clock.
type SystemClock struct{}

// Now implements Clock.
func (SystemClock) Now() AbsTime {
	return AbsTime(time.Now().UnixNano())
}

// SimClock is a manually advanced Clock. The zero value starts at time zero.
type SimClock struct {
	mu  sync.RWMutex
	now AbsTime
}

// Now implements Clock.
func (c *SimClock) Now() AbsTime {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.now
}

// Run advances the clock by d.
func (c *SimClock) Run(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}
