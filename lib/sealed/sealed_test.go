// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package sealed

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"filippo.io/age"
	"filippo.io/age/armor"
)

func writeFile(t *testing.T, name string, content []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, content, 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func newKeypair(t *testing.T) *Keypair {
	t.Helper()
	keypair, err := GenerateKeypair()
	if err != nil {
		t.Fatalf("GenerateKeypair: %v", err)
	}
	t.Cleanup(func() { keypair.Close() })
	return keypair
}

func identityFile(t *testing.T, keypair *Keypair) string {
	t.Helper()
	content := "# created for tests\n# public key: " + keypair.Recipient + "\n" + keypair.Identity.String() + "\n"
	return writeFile(t, "identity.txt", []byte(content))
}

func TestGenerateKeypair(t *testing.T) {
	first := newKeypair(t)
	second := newKeypair(t)

	if !strings.HasPrefix(first.Identity.String(), "AGE-SECRET-KEY-1") {
		t.Errorf("Identity has wrong prefix")
	}
	if !strings.HasPrefix(first.Recipient, "age1") {
		t.Errorf("Recipient = %q, want prefix age1", first.Recipient)
	}
	if first.Recipient == second.Recipient {
		t.Error("two keypairs share a recipient")
	}
}

func TestSealOpenArmored(t *testing.T) {
	keypair := newKeypair(t)
	sealed, err := Seal([]byte("syt_token_value\n"), []string{keypair.Recipient})
	if err != nil {
		t.Fatalf("Seal: %v", err)
	}
	if !bytes.HasPrefix(sealed, []byte(armor.Header)) {
		t.Fatalf("Seal output is not armored:\n%s", sealed)
	}

	token, err := OpenFile(writeFile(t, "token.age", sealed), identityFile(t, keypair))
	if err != nil {
		t.Fatalf("OpenFile: %v", err)
	}
	defer token.Close()
	if token.String() != "syt_token_value" {
		t.Errorf("token = %q, want trimmed plaintext", token.String())
	}
}

func TestOpenBinary(t *testing.T) {
	keypair := newKeypair(t)
	recipient, err := age.ParseX25519Recipient(keypair.Recipient)
	if err != nil {
		t.Fatal(err)
	}
	var ciphertext bytes.Buffer
	writer, err := age.Encrypt(&ciphertext, recipient)
	if err != nil {
		t.Fatal(err)
	}
	writer.Write([]byte("binary-token"))
	writer.Close()

	token, err := OpenFile(writeFile(t, "token.age", ciphertext.Bytes()), identityFile(t, keypair))
	if err != nil {
		t.Fatalf("OpenFile: %v", err)
	}
	defer token.Close()
	if token.String() != "binary-token" {
		t.Errorf("token = %q", token.String())
	}
}

func TestSealMultipleRecipients(t *testing.T) {
	first := newKeypair(t)
	second := newKeypair(t)
	sealed, err := Seal([]byte("shared"), []string{first.Recipient, second.Recipient})
	if err != nil {
		t.Fatalf("Seal: %v", err)
	}
	path := writeFile(t, "token.age", sealed)
	for _, keypair := range []*Keypair{first, second} {
		token, err := OpenFile(path, identityFile(t, keypair))
		if err != nil {
			t.Fatalf("OpenFile with %s: %v", keypair.Recipient, err)
		}
		if token.String() != "shared" {
			t.Errorf("token = %q", token.String())
		}
		token.Close()
	}
}

func TestOpenFileErrors(t *testing.T) {
	owner := newKeypair(t)
	stranger := newKeypair(t)
	sealed, err := Seal([]byte("token"), []string{owner.Recipient})
	if err != nil {
		t.Fatal(err)
	}
	tokenPath := writeFile(t, "token.age", sealed)
	empty, err := Seal([]byte("  \n"), []string{owner.Recipient})
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name         string
		path         string
		identityPath string
		want         string
	}{
		{"wrong identity", tokenPath, identityFile(t, stranger), "decrypting"},
		{"bad identity file", tokenPath, writeFile(t, "bad.txt", []byte("not a key")), "parsing identity"},
		{"missing identity", tokenPath, filepath.Join(t.TempDir(), "absent"), "reading identity"},
		{"missing token", filepath.Join(t.TempDir(), "absent"), identityFile(t, owner), "no such file"},
		{"plaintext token", writeFile(t, "plain", []byte("token")), identityFile(t, owner), "decrypting"},
		{"empty token", writeFile(t, "empty.age", empty), identityFile(t, owner), "empty"},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			token, err := OpenFile(test.path, test.identityPath)
			if err == nil {
				token.Close()
				t.Fatal("OpenFile succeeded")
			}
			if !strings.Contains(err.Error(), test.want) {
				t.Errorf("error = %v, want mention of %q", err, test.want)
			}
		})
	}
}

func TestSealRequiresValidRecipient(t *testing.T) {
	if _, err := Seal([]byte("x"), nil); err == nil {
		t.Error("Seal accepted no recipients")
	}
	if _, err := Seal([]byte("x"), []string{"age1notakey"}); err == nil {
		t.Error("Seal accepted a malformed recipient")
	}
}
