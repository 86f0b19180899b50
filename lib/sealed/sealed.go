// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package sealed

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"

	"filippo.io/age"
	"filippo.io/age/armor"

	"github.com/bureau-foundation/roomsync/lib/secret"
)

// Keypair holds an age x25519 identity and its recipient.
//
// The caller must call Close when the keypair is no longer needed.
type Keypair struct {
	// Identity is the secret key in AGE-SECRET-KEY-1... format. Must
	// never be logged or passed on the command line.
	Identity *secret.Buffer

	// Recipient is the public key in age1... format.
	Recipient string
}

// Close releases the identity memory. Idempotent.
func (k *Keypair) Close() error {
	if k.Identity != nil {
		return k.Identity.Close()
	}
	return nil
}

// GenerateKeypair generates a new age x25519 keypair.
func GenerateKeypair() (*Keypair, error) {
	identity, err := age.GenerateX25519Identity()
	if err != nil {
		return nil, fmt.Errorf("sealed: generating keypair: %w", err)
	}
	// The string form stays on the heap until collected; the buffer is
	// the durable copy.
	buffer, err := secret.NewFromBytes([]byte(identity.String()))
	if err != nil {
		return nil, fmt.Errorf("sealed: protecting identity: %w", err)
	}
	return &Keypair{Identity: buffer, Recipient: identity.Recipient().String()}, nil
}

// Seal encrypts plaintext to the given age1... recipients and returns
// an ASCII-armored age file.
func Seal(plaintext []byte, recipientKeys []string) ([]byte, error) {
	if len(recipientKeys) == 0 {
		return nil, fmt.Errorf("sealed: at least one recipient is required")
	}
	recipients := make([]age.Recipient, 0, len(recipientKeys))
	for _, key := range recipientKeys {
		recipient, err := age.ParseX25519Recipient(key)
		if err != nil {
			return nil, fmt.Errorf("sealed: parsing recipient %q: %w", key, err)
		}
		recipients = append(recipients, recipient)
	}

	var output bytes.Buffer
	armored := armor.NewWriter(&output)
	writer, err := age.Encrypt(armored, recipients...)
	if err != nil {
		return nil, fmt.Errorf("sealed: creating encryptor: %w", err)
	}
	if _, err := writer.Write(plaintext); err != nil {
		return nil, fmt.Errorf("sealed: writing plaintext: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("sealed: finishing encryption: %w", err)
	}
	if err := armored.Close(); err != nil {
		return nil, fmt.Errorf("sealed: finishing armor: %w", err)
	}
	return output.Bytes(), nil
}

// OpenFile decrypts the sealed file at path with the identities in
// the file at identityPath and returns the trimmed plaintext. The
// identity file uses age's format: one AGE-SECRET-KEY-1... per line,
// with # comments allowed.
func OpenFile(path, identityPath string) (*secret.Buffer, error) {
	identityBuffer, err := secret.ReadFile(identityPath)
	if err != nil {
		return nil, fmt.Errorf("sealed: reading identity: %w", err)
	}
	defer identityBuffer.Close()

	identities, err := age.ParseIdentities(strings.NewReader(identityBuffer.String()))
	if err != nil {
		return nil, fmt.Errorf("sealed: parsing identity file %s: %w", identityPath, err)
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("sealed: %w", err)
	}
	defer file.Close()
	return open(file, identities)
}

func open(source io.Reader, identities []age.Identity) (*secret.Buffer, error) {
	buffered := bufio.NewReader(source)
	var ciphertext io.Reader = buffered
	if header, _ := buffered.Peek(len(armor.Header)); string(header) == armor.Header {
		ciphertext = armor.NewReader(buffered)
	}

	reader, err := age.Decrypt(ciphertext, identities...)
	if err != nil {
		return nil, fmt.Errorf("sealed: decrypting: %w", err)
	}
	plaintext, err := io.ReadAll(reader)
	if err != nil {
		clear(plaintext)
		return nil, fmt.Errorf("sealed: reading plaintext: %w", err)
	}
	defer clear(plaintext)

	trimmed := bytes.TrimSpace(plaintext)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("sealed: decrypted token is empty")
	}
	buffer, err := secret.NewFromBytes(trimmed)
	if err != nil {
		return nil, fmt.Errorf("sealed: protecting plaintext: %w", err)
	}
	return buffer, nil
}
