// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package config provides configuration loading for roomsync.
//
// Configuration is loaded from a single file specified by either the
// ROOMSYNC_CONFIG environment variable (via [Load]) or a --config flag
// (via [LoadFile]). There are no fallbacks, no ~/.config discovery,
// and no automatic file search.
//
// Files ending in .json or .jsonc are read as JSON with comments and
// trailing commas allowed; anything else is read as YAML. Both formats
// use the same field names.
//
// Variable expansion is performed on string fields after loading:
// ${HOME} and ${VAR:-default} patterns are expanded. No environment
// variable overrides a config value directly.
//
// Key exports:
//
//   - [Config] -- homeserver, room, sync, output, metrics, and log settings
//   - [Default] -- returns a Config with defaults for every optional field
//   - [Load] and [LoadFile] -- the two entry points for loading
//
// This package depends on no other roomsync packages.
package config
