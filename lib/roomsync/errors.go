// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package roomsync

import (
	"errors"

	"github.com/bureau-foundation/roomsync/messaging"
)

// ErrForbidden is wrapped into the error returned by [PollLoop.Run]
// when the server refuses the event stream. The loop never polls again
// after returning it.
var ErrForbidden = errors.New("roomsync: event stream forbidden")

// failureClass is how a failed poll is handled.
type failureClass int

const (
	// failureTransient covers timeouts, connection failures, and any
	// server error other than forbidden. Retried after the backoff.
	failureTransient failureClass = iota
	// failureForbidden stops the loop.
	failureForbidden
)

func (c failureClass) String() string {
	if c == failureForbidden {
		return "forbidden"
	}
	return "transient"
}

func classify(err error) failureClass {
	if messaging.IsForbidden(err) {
		return failureForbidden
	}
	return failureTransient
}
