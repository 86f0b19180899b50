// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package roomsync keeps a [roomstate.RoomState] in step with a
// homeserver event stream.
//
// A [PollLoop] long-polls an [EventFeed] from an opaque cursor, hands
// each batch to a [roomstate.Dispatcher], and then schedules profile
// lookups for members the batch created. Successful polls are followed
// immediately by the next poll: the server's wait window is the only
// rate limit. Failed polls wait a fixed backoff before retrying, except
// forbidden failures, which stop the loop for good.
//
// [View] ties the pieces to one room: it joins, loads the initial
// member list, runs the loop, and passes send/invite/leave commands
// through to the session while surfacing failures as [Feedback].
package roomsync
