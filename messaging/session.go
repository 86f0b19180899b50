// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package messaging

import (
	"context"
	"time"
)

// Session is the set of homeserver operations a room view consumes.
// *DirectSession is the production implementation; tests supply fakes.
type Session interface {
	// UserID returns the fully-qualified user ID of the session owner.
	UserID() string

	// Close releases resources held by the session. Idempotent.
	Close() error

	// Events long-polls the event stream from the given token. The
	// server holds the request for up to timeout.
	Events(ctx context.Context, from string, timeout time.Duration) (*EventsResponse, error)

	// JoinRoom joins the room.
	JoinRoom(ctx context.Context, roomID string) error

	// GetMemberList returns the room's current m.room.member events.
	GetMemberList(ctx context.Context, roomID string) ([]Event, error)

	// GetDisplayName fetches a user's profile display name.
	GetDisplayName(ctx context.Context, userID string) (string, error)

	// GetAvatarURL fetches a user's profile avatar URL.
	GetAvatarURL(ctx context.Context, userID string) (string, error)

	// SendTextMessage sends an m.text message. Returns the event ID.
	SendTextMessage(ctx context.Context, roomID, body string) (string, error)

	// SendEmoteMessage sends an m.emote message. Returns the event ID.
	SendEmoteMessage(ctx context.Context, roomID, body string) (string, error)

	// SendImageMessage sends an m.image message. Returns the event ID.
	SendImageMessage(ctx context.Context, roomID string, image ImageContent) (string, error)

	// InviteUser invites a user to the room.
	InviteUser(ctx context.Context, roomID, userID string) error

	// LeaveRoom leaves the room.
	LeaveRoom(ctx context.Context, roomID string) error
}

// Compile-time check: *DirectSession implements Session.
var _ Session = (*DirectSession)(nil)
