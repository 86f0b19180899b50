// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

func validConfig() *Config {
	cfg := Default()
	cfg.Homeserver.URL = "https://matrix.example.org"
	cfg.Homeserver.UserID = "@alice:example.org"
	cfg.Homeserver.TokenFile = "/run/secrets/token"
	cfg.Room.ID = "!room:example.org"
	return cfg
}

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Homeserver.APIPrefix != "/_matrix/client/api/v1" {
		t.Errorf("expected api_prefix=/_matrix/client/api/v1, got %s", cfg.Homeserver.APIPrefix)
	}
	if cfg.Sync.InitialCursor != "END" {
		t.Errorf("expected initial_cursor=END, got %s", cfg.Sync.InitialCursor)
	}
	if cfg.Output.Format != FormatPlain {
		t.Errorf("expected format=plain, got %s", cfg.Output.Format)
	}
	if backoff, err := cfg.Backoff(); err != nil || backoff != 5*time.Second {
		t.Errorf("Backoff() = %v, %v; want 5s", backoff, err)
	}
	if window, err := cfg.WaitWindow(); err != nil || window != 5*time.Second {
		t.Errorf("WaitWindow() = %v, %v; want 5s", window, err)
	}
}

func TestLoad_RequiresEnvVar(t *testing.T) {
	t.Setenv(EnvVar, "")

	_, err := Load()
	if err == nil {
		t.Fatal("expected error when ROOMSYNC_CONFIG not set, got nil")
	}
	if !strings.HasPrefix(err.Error(), "ROOMSYNC_CONFIG environment variable not set") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestLoad_WithEnvVar(t *testing.T) {
	path := writeConfig(t, "roomsync.yaml", `
homeserver:
  url: https://matrix.example.org
room:
  id: "!abc:example.org"
`)
	t.Setenv(EnvVar, path)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if cfg.Room.ID != "!abc:example.org" {
		t.Errorf("expected room.id=!abc:example.org, got %s", cfg.Room.ID)
	}
	if cfg.Sync.Backoff != "5s" {
		t.Errorf("expected default backoff to survive, got %s", cfg.Sync.Backoff)
	}
}

func TestLoadFileYAML(t *testing.T) {
	path := writeConfig(t, "roomsync.yaml", `
homeserver:
  url: http://localhost:8008
  api_prefix: /_matrix/client/r0
  user_id: "@bob:localhost"
  token_file: /tmp/token

room:
  id: "!room:localhost"

sync:
  wait_window: 10s
  backoff: 2s

output:
  format: json
  tui: true

metrics:
  listen: 127.0.0.1:9464

log:
  level: debug
`)

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate failed: %v", err)
	}

	if cfg.Homeserver.APIPrefix != "/_matrix/client/r0" {
		t.Errorf("expected api_prefix=/_matrix/client/r0, got %s", cfg.Homeserver.APIPrefix)
	}
	if window, _ := cfg.WaitWindow(); window != 10*time.Second {
		t.Errorf("expected wait_window=10s, got %v", window)
	}
	if !cfg.Output.TUI || cfg.Output.Format != FormatJSON {
		t.Errorf("unexpected output config: %+v", cfg.Output)
	}
	if cfg.Metrics.Listen != "127.0.0.1:9464" {
		t.Errorf("expected metrics.listen=127.0.0.1:9464, got %s", cfg.Metrics.Listen)
	}
	if cfg.LogLevel() != slog.LevelDebug {
		t.Errorf("expected debug level, got %v", cfg.LogLevel())
	}
}

func TestLoadFileJSONC(t *testing.T) {
	path := writeConfig(t, "roomsync.jsonc", `{
  // Local test server.
  "homeserver": {
    "url": "http://localhost:8008",
    "user_id": "@bob:localhost",
    "token_file": "/tmp/token", /* never inline the token */
  },
  "room": {"id": "!room:localhost"},
  "output": {"format": "cbor"},
}`)

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	if cfg.Output.Format != FormatCBOR {
		t.Errorf("expected format=cbor, got %s", cfg.Output.Format)
	}
	if cfg.Homeserver.APIPrefix != "/_matrix/client/api/v1" {
		t.Errorf("default api_prefix lost: %s", cfg.Homeserver.APIPrefix)
	}
}

func TestLoadFileErrors(t *testing.T) {
	if _, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
	if _, err := LoadFile(writeConfig(t, "bad.yaml", "homeserver: [")); err == nil {
		t.Error("expected error for malformed YAML")
	}
	if _, err := LoadFile(writeConfig(t, "bad.json", `{"room": `)); err == nil {
		t.Error("expected error for malformed JSON")
	}
}

func TestExpandVariables(t *testing.T) {
	t.Setenv("ROOMSYNC_TEST_SERVER", "https://hs.example.org")
	t.Setenv("HOME", "/home/alice")

	path := writeConfig(t, "roomsync.yaml", `
homeserver:
  url: ${ROOMSYNC_TEST_SERVER}
  user_id: "@alice:${ROOMSYNC_TEST_DOMAIN:-example.org}"
  token_file: ${HOME}/.roomsync/token
room:
  id: "!room:example.org"
`)

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}

	tests := []struct {
		name, got, want string
	}{
		{"url", cfg.Homeserver.URL, "https://hs.example.org"},
		{"user_id default", cfg.Homeserver.UserID, "@alice:example.org"},
		{"token_file", cfg.Homeserver.TokenFile, "/home/alice/.roomsync/token"},
	}
	for _, test := range tests {
		if test.got != test.want {
			t.Errorf("%s = %q, want %q", test.name, test.got, test.want)
		}
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"missing url", func(c *Config) { c.Homeserver.URL = "" }, "homeserver.url is required"},
		{"bad scheme", func(c *Config) { c.Homeserver.URL = "ftp://example.org" }, "must be http or https"},
		{"bad prefix", func(c *Config) { c.Homeserver.APIPrefix = "_matrix" }, "api_prefix must start with /"},
		{"bad user", func(c *Config) { c.Homeserver.UserID = "alice" }, "@localpart:server"},
		{"missing token file", func(c *Config) { c.Homeserver.TokenFile = "" }, "token_file is required"},
		{"missing room", func(c *Config) { c.Room.ID = "" }, "room.id is required"},
		{"bad backoff", func(c *Config) { c.Sync.Backoff = "soon" }, "sync.backoff"},
		{"zero window", func(c *Config) { c.Sync.WaitWindow = "0s" }, "must be positive"},
		{"bad format", func(c *Config) { c.Output.Format = "xml" }, "output.format"},
		{"bad level", func(c *Config) { c.Log.Level = "trace" }, "log.level"},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			cfg := validConfig()
			test.modify(cfg)
			err := cfg.Validate()
			if test.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate() = %v, want nil", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), test.wantErr) {
				t.Fatalf("Validate() = %v, want error containing %q", err, test.wantErr)
			}
		})
	}
}

func TestValidateReportsAllErrors(t *testing.T) {
	err := Default().Validate()
	if err == nil {
		t.Fatal("Default() validated without connection fields")
	}
	for _, want := range []string{"homeserver.url", "homeserver.user_id", "homeserver.token_file", "room.id"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("Validate() error missing %q: %v", want, err)
		}
	}
}
