// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package secret keeps the homeserver access token out of the Go heap.
//
// A Buffer is an anonymous mmap region locked into RAM (no swap) and
// excluded from core dumps. The token is copied in once when the
// session is created, read at the request boundary, and zeroed and
// unmapped on Close. Fingerprint gives logs a stable identifier for
// the token without exposing it.
package secret
