// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package roomsync

import "sync"

// InitialCursor asks the server to start the stream at its current
// head.
const InitialCursor = "END"

// Cursor is the resume position in the event stream. The token is
// opaque: it is replaced wholesale by the end token of each successful
// poll and never parsed or compared.
type Cursor struct {
	mu    sync.Mutex
	token string
}

// NewCursor returns a cursor at token, or at [InitialCursor] when token
// is empty.
func NewCursor(token string) *Cursor {
	if token == "" {
		token = InitialCursor
	}
	return &Cursor{token: token}
}

// Token returns the current position.
func (c *Cursor) Token() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.token
}

func (c *Cursor) advance(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = token
}
