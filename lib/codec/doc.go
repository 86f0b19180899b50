// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package codec provides the CBOR encoding used for roomsync's binary
// output stream.
//
// JSON is used wherever a homeserver or a human is on the other end.
// CBOR is offered for machine consumers of the message stream: each
// appended message is written as one item of a CBOR sequence (RFC
// 8742), so a reader decodes items until EOF.
//
// The encoder uses Core Deterministic Encoding (RFC 8949 §4.2): sorted
// map keys, smallest integer encoding, no indefinite-length items.
// Same logical data always produces identical bytes.
//
//	encoder := codec.NewEncoder(os.Stdout)
//	err := encoder.Encode(message)
//
// # Struct Tag Rules
//
// Types that are only ever CBOR carry `cbor` tags. Types that are
// also JSON carry only `json` tags: fxamacker/cbor v2 reads `json`
// tags when `cbor` tags are absent. Never put both on one field.
package codec
