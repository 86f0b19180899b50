// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package roomui is the interactive terminal view of one synced room.
//
// [Model] is a bubbletea model with four regions: a header naming the
// room, a scrollable message timeline, a roster sidebar with presence
// markers, and an input line with the current feedback message above
// it. The timeline follows new messages while it is scrolled to the
// bottom; scrolling up pins it until the user returns to the bottom.
//
// The sync engine talks to the model through a [Relay], whose methods
// plug into roomsync.ViewConfig's OnBatch and OnFeedback callbacks.
// The model reads the room state on every batch rather than
// mirroring it, so the state stays the single source of truth.
//
// Input lines starting with "/" are commands:
//
//	/me <action>             send an emote
//	/invite <user>           invite a user
//	/image <mxc-url> [text]  send an image message
//	/leave                   leave the room and exit
//	/quit                    exit without leaving
//
// "//" at the start of a line sends a literal "/".
package roomui
