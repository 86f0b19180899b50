// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package roomsync

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/bureau-foundation/roomsync/messaging"
)

// DefaultWaitWindow is how long the server may hold a poll open when
// there is nothing to deliver.
const DefaultWaitWindow = 5 * time.Second

// Batch is the result of one successful poll.
type Batch struct {
	// Events in arrival order. May be empty when the wait window
	// elapsed without activity.
	Events []messaging.Event
	// End is the cursor to resume from.
	End string
}

// EventFeed issues one blocking long-poll per call.
type EventFeed interface {
	Poll(ctx context.Context, cursor string) (Batch, error)
}

// SessionFeed is the [EventFeed] backed by a messaging session's
// /events endpoint.
type SessionFeed struct {
	session    messaging.Session
	waitWindow time.Duration
	logger     *slog.Logger
}

// NewSessionFeed wraps session. A zero waitWindow uses
// [DefaultWaitWindow]; a nil logger uses slog.Default().
func NewSessionFeed(session messaging.Session, waitWindow time.Duration, logger *slog.Logger) *SessionFeed {
	if waitWindow <= 0 {
		waitWindow = DefaultWaitWindow
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &SessionFeed{session: session, waitWindow: waitWindow, logger: logger}
}

// Poll long-polls from cursor. After a failure that was not caused by
// ctx, idle connections are dropped so the next attempt opens a fresh
// socket instead of reusing one the failure may have poisoned.
func (f *SessionFeed) Poll(ctx context.Context, cursor string) (Batch, error) {
	response, err := f.session.Events(ctx, cursor, f.waitWindow)
	if err != nil {
		if ctx.Err() == nil {
			if closer, ok := f.session.(interface{ CloseIdleConnections() }); ok {
				closer.CloseIdleConnections()
			}
		}
		return Batch{}, fmt.Errorf("polling events from %q: %w", cursor, err)
	}
	f.logger.Debug("poll returned",
		"from", cursor,
		"end", response.End,
		"events", len(response.Chunk),
	)
	return Batch{Events: response.Chunk, End: response.End}, nil
}
