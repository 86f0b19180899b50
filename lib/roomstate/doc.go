// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package roomstate holds the client-side projection of one room: the
// append-only message timeline and the member roster with presence.
//
// A [RoomState] is created when a room view opens and closed when it is
// torn down. It is mutated only through a [Dispatcher], which applies
// one ordered batch of stream events at a time under a single write
// lock, so readers never observe half a batch:
//
//	state := roomstate.New("!room:example.org")
//	dispatcher := roomstate.NewDispatcher(state, logger)
//	result := dispatcher.Apply(batch)
//	// result.Pending is flushed only now, after the batch is visible.
//
// Three projections are driven from the one feed:
//
//   - m.room.message events are appended to the timeline in arrival order.
//   - m.room.member events create a roster entry the first time a user
//     is named, and afterwards only update the membership field.
//   - m.presence events are global (no room ID). They merge presence
//     state and profile fields into an existing member and never create one.
//
// Creating a member queues a [ProfileRequest] in [Result].Pending. The
// caller resolves display name and avatar asynchronously and writes
// them back with SetDisplayName and SetAvatarURL, which no-op when the
// member (or the whole state) is gone by then.
package roomstate
