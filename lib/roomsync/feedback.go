// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package roomsync

import "sync"

// Feedback holds the last human-readable problem to show the user.
// An empty message means there is nothing to report.
type Feedback struct {
	mu       sync.Mutex
	message  string
	onChange func(string)
}

// NewFeedback returns an empty Feedback. onChange, if non-nil, is
// called with the new message every time it changes, outside any lock.
func NewFeedback(onChange func(string)) *Feedback {
	return &Feedback{onChange: onChange}
}

// Message returns the current message.
func (f *Feedback) Message() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.message
}

// Set replaces the message.
func (f *Feedback) Set(message string) {
	f.mu.Lock()
	changed := f.message != message
	f.message = message
	onChange := f.onChange
	f.mu.Unlock()

	if changed && onChange != nil {
		onChange(message)
	}
}

// Clear removes the message.
func (f *Feedback) Clear() {
	f.Set("")
}
