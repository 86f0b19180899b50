// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"
	"time"

	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"
)

// EnvVar names the environment variable read by [Load].
const EnvVar = "ROOMSYNC_CONFIG"

// Output formats for streamed messages.
const (
	FormatPlain = "plain"
	FormatJSON  = "json"
	FormatCBOR  = "cbor"
)

// Config is the complete roomsync configuration.
type Config struct {
	// Homeserver configures the server connection and identity.
	Homeserver HomeserverConfig `yaml:"homeserver" json:"homeserver"`

	// Room selects the room to open.
	Room RoomConfig `yaml:"room" json:"room"`

	// Sync tunes the event stream.
	Sync SyncConfig `yaml:"sync" json:"sync"`

	// Output selects how messages are presented.
	Output OutputConfig `yaml:"output" json:"output"`

	// Metrics configures the Prometheus endpoint.
	Metrics MetricsConfig `yaml:"metrics" json:"metrics"`

	// Log configures the process logger.
	Log LogConfig `yaml:"log" json:"log"`
}

// HomeserverConfig configures the server connection.
type HomeserverConfig struct {
	// URL is the homeserver base URL, e.g. "https://matrix.example.org".
	URL string `yaml:"url" json:"url"`

	// APIPrefix is the client API path prefix.
	// Default: /_matrix/client/api/v1
	APIPrefix string `yaml:"api_prefix" json:"api_prefix"`

	// UserID is the fully-qualified user ID, e.g. "@alice:example.org".
	UserID string `yaml:"user_id" json:"user_id"`

	// TokenFile is a file containing the access token. The token is
	// never read from the config file itself.
	TokenFile string `yaml:"token_file" json:"token_file"`

	// IdentityFile, when set, is an age identity file and TokenFile is
	// an age-encrypted token sealed to it.
	IdentityFile string `yaml:"identity_file" json:"identity_file"`
}

// RoomConfig selects the room.
type RoomConfig struct {
	// ID is the room ID, e.g. "!abc:example.org".
	ID string `yaml:"id" json:"id"`
}

// SyncConfig tunes the event stream.
type SyncConfig struct {
	// WaitWindow is how long the server may hold a poll open.
	// Default: 5s
	WaitWindow string `yaml:"wait_window" json:"wait_window"`

	// Backoff is the delay before retrying a failed poll.
	// Default: 5s
	Backoff string `yaml:"backoff" json:"backoff"`

	// InitialCursor is where the stream starts.
	// Default: END (the current head)
	InitialCursor string `yaml:"initial_cursor" json:"initial_cursor"`
}

// OutputConfig selects how messages are presented.
type OutputConfig struct {
	// Format is plain, json (one object per line), or cbor (a CBOR
	// sequence). Ignored when TUI is set.
	// Default: plain
	Format string `yaml:"format" json:"format"`

	// TUI runs the interactive terminal view instead of streaming.
	TUI bool `yaml:"tui" json:"tui"`
}

// MetricsConfig configures the Prometheus endpoint.
type MetricsConfig struct {
	// Listen is the address for /metrics, e.g. "127.0.0.1:9464".
	// Empty disables the endpoint.
	Listen string `yaml:"listen" json:"listen"`
}

// LogConfig configures logging.
type LogConfig struct {
	// Level is debug, info, warn, or error.
	// Default: info
	Level string `yaml:"level" json:"level"`
}

// Default returns the configuration used as a base before loading the
// config file. Connection fields are left empty: the file must supply
// them.
func Default() *Config {
	return &Config{
		Homeserver: HomeserverConfig{
			APIPrefix: "/_matrix/client/api/v1",
		},
		Sync: SyncConfig{
			WaitWindow:    "5s",
			Backoff:       "5s",
			InitialCursor: "END",
		},
		Output: OutputConfig{
			Format: FormatPlain,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load loads configuration from the file named by ROOMSYNC_CONFIG.
// There is no default location: if the variable is unset, Load fails.
func Load() (*Config, error) {
	configPath := os.Getenv(EnvVar)
	if configPath == "" {
		return nil, fmt.Errorf("%s environment variable not set; "+
			"set it to the path of your roomsync config file, or use --config flag", EnvVar)
	}
	return LoadFile(configPath)
}

// LoadFile loads configuration from path over [Default] and expands
// variables. It does not validate; call [Config.Validate] after
// applying any flag overrides.
func LoadFile(path string) (*Config, error) {
	cfg := Default()
	if err := cfg.loadFile(path); err != nil {
		return nil, err
	}
	cfg.expandVariables()
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config: reading %s: %w", path, err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".jsonc":
		if err := json.Unmarshal(jsonc.ToJSON(data), c); err != nil {
			return fmt.Errorf("config: parsing %s: %w", path, err)
		}
	default:
		if err := yaml.Unmarshal(data, c); err != nil {
			return fmt.Errorf("config: parsing %s: %w", path, err)
		}
	}
	return nil
}

// expandVariables expands ${VAR} and ${VAR:-default} patterns in
// string fields.
func (c *Config) expandVariables() {
	vars := map[string]string{
		"HOME": os.Getenv("HOME"),
	}
	for _, field := range []*string{
		&c.Homeserver.URL,
		&c.Homeserver.UserID,
		&c.Homeserver.TokenFile,
		&c.Room.ID,
		&c.Metrics.Listen,
	} {
		*field = expandVars(*field, vars)
	}
}

var varPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

func expandVars(s string, vars map[string]string) string {
	return varPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := varPattern.FindStringSubmatch(match)
		if len(parts) < 2 {
			return match
		}

		name := parts[1]
		defaultValue := ""
		if len(parts) >= 3 {
			defaultValue = parts[2]
		}

		if value, ok := vars[name]; ok && value != "" {
			return value
		}
		if value := os.Getenv(name); value != "" {
			return value
		}
		return defaultValue
	})
}

var (
	formats   = []string{FormatPlain, FormatJSON, FormatCBOR}
	logLevels = []string{"debug", "info", "warn", "error"}
)

// Validate checks the configuration and reports every problem found.
func (c *Config) Validate() error {
	var errs []error

	if c.Homeserver.URL == "" {
		errs = append(errs, errors.New("homeserver.url is required"))
	} else if parsed, err := url.Parse(c.Homeserver.URL); err != nil {
		errs = append(errs, fmt.Errorf("homeserver.url: %w", err))
	} else if parsed.Scheme != "http" && parsed.Scheme != "https" {
		errs = append(errs, fmt.Errorf("homeserver.url must be http or https, got %q", c.Homeserver.URL))
	}

	if c.Homeserver.APIPrefix != "" && !strings.HasPrefix(c.Homeserver.APIPrefix, "/") {
		errs = append(errs, fmt.Errorf("homeserver.api_prefix must start with /, got %q", c.Homeserver.APIPrefix))
	}

	if c.Homeserver.UserID == "" {
		errs = append(errs, errors.New("homeserver.user_id is required"))
	} else if !strings.HasPrefix(c.Homeserver.UserID, "@") || !strings.Contains(c.Homeserver.UserID, ":") {
		errs = append(errs, fmt.Errorf("homeserver.user_id must look like @localpart:server, got %q", c.Homeserver.UserID))
	}

	if c.Homeserver.TokenFile == "" {
		errs = append(errs, errors.New("homeserver.token_file is required"))
	}

	if c.Room.ID == "" {
		errs = append(errs, errors.New("room.id is required"))
	}

	if _, err := c.WaitWindow(); err != nil {
		errs = append(errs, err)
	}
	if _, err := c.Backoff(); err != nil {
		errs = append(errs, err)
	}

	if !slices.Contains(formats, c.Output.Format) {
		errs = append(errs, fmt.Errorf("output.format must be one of: %v", formats))
	}

	if !slices.Contains(logLevels, c.Log.Level) {
		errs = append(errs, fmt.Errorf("log.level must be one of: %v", logLevels))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// WaitWindow parses Sync.WaitWindow.
func (c *Config) WaitWindow() (time.Duration, error) {
	return parsePositive("sync.wait_window", c.Sync.WaitWindow)
}

// Backoff parses Sync.Backoff.
func (c *Config) Backoff() (time.Duration, error) {
	return parsePositive("sync.backoff", c.Sync.Backoff)
}

func parsePositive(field, value string) (time.Duration, error) {
	duration, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", field, err)
	}
	if duration <= 0 {
		return 0, fmt.Errorf("%s must be positive, got %s", field, value)
	}
	return duration, nil
}

// LogLevel returns Log.Level as a slog.Level. Unknown values map to
// info; Validate rejects them.
func (c *Config) LogLevel() slog.Level {
	switch c.Log.Level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
