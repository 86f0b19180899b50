// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package netutil holds HTTP I/O helpers shared by the homeserver
// client.
//
// Response bodies from the homeserver are read through ReadResponse,
// which bounds the read at MaxResponseSize so a misbehaving server
// cannot exhaust memory with an endless event chunk. IsTimeout
// separates deadline failures from other transport failures so that
// user-visible feedback can say which one happened.
package netutil

import (
	"context"
	"errors"
	"io"
	"net"
)

// MaxResponseSize bounds response body reads: 32 MB. Event stream
// chunks and member lists are far smaller.
const MaxResponseSize int64 = 32 << 20

// ReadResponse reads a response body up to MaxResponseSize bytes.
func ReadResponse(body io.Reader) ([]byte, error) {
	return io.ReadAll(io.LimitReader(body, MaxResponseSize))
}

// ErrorBody reads an error response body for use in a diagnostic
// message. Read errors yield whatever was read so far.
func ErrorBody(body io.Reader) string {
	data, _ := io.ReadAll(io.LimitReader(body, MaxResponseSize))
	return string(data)
}

// IsTimeout reports whether err is a network timeout or an expired
// context deadline.
func IsTimeout(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
