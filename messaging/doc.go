// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package messaging is the transport for a single-room Matrix client.
//
// [Client] holds the homeserver URL, API prefix, and HTTP transport.
// [DirectSession] adds an access token (kept in a secret.Buffer and
// sent as the access_token query parameter) and implements [Session]:
// the resumable event stream (Events), room join and member listing,
// profile lookups, and the pass-through commands (send text, emote,
// and image messages, invite, leave).
//
// Events is a long-poll: the server holds the request for up to the
// requested timeout and returns early when events are available. The
// returned End token is the resume position for the next call.
//
// Every non-2xx response is returned as a [*MatrixError] carrying the
// server's errcode and the HTTP status. [IsForbidden] is the check the
// sync engine uses to tell a permanent permission failure apart from
// a transient one.
package messaging
