// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package clock

import "time"

// Clock abstracts the time operations used by the sync engine.
type Clock interface {
	// Now returns the current time.
	Now() time.Time

	// NewTimer returns a Timer that delivers the current time on its
	// channel once d has elapsed. If d <= 0 the channel is ready
	// immediately.
	NewTimer(d time.Duration) *Timer
}

// Timer is a one-shot timer. Read the firing time from C. Call Stop
// when the timer is abandoned so a fake clock stops counting it as
// pending.
type Timer struct {
	C <-chan time.Time

	stopFunc func() bool
}

// Stop prevents the Timer from firing. Returns false if the timer has
// already fired or been stopped.
func (t *Timer) Stop() bool { return t.stopFunc() }
