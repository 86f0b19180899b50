// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package sealed reads access tokens stored as age-encrypted files.
//
// A token file sealed to an x25519 recipient can sit on shared or
// backed-up storage; only the holder of the matching identity file can
// open it. Both binary and ASCII-armored age files are accepted.
// Identities and decrypted tokens are held in [secret.Buffer] values
// (mmap-backed, locked against swap, zeroed on Close).
//
// Key exports:
//
//   - [OpenFile] -- decrypt a sealed token file with an identity file
//   - [Seal] -- encrypt a token to one or more age recipients
//   - [GenerateKeypair] -- new x25519 identity and recipient
package sealed
