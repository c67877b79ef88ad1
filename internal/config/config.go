// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading and management for documind.
package config

import (
	"bytes"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/jeranaias/documind-tui/internal/util"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete documind configuration.
type Config struct {
	// Server settings
	Server ServerConfig `toml:"server"`

	// Chat settings
	Chat ChatConfig `toml:"chat"`

	// UI settings
	UI UIConfig `toml:"ui"`
}

// ServerConfig contains backend connection configuration.
type ServerConfig struct {
	// URL is the DocuMind backend base URL (e.g. "http://localhost:8000")
	URL string `toml:"url"`
	// TimeoutSecs is the request timeout for non-streaming calls.
	// Streaming answers are never subject to this timeout.
	TimeoutSecs int `toml:"timeout_secs"`
}

// ChatConfig contains chat behavior configuration.
type ChatConfig struct {
	// MaxTokens is the per-answer token budget (0 = server default).
	// The backend caps this at 1600; larger values are clamped.
	MaxTokens int `toml:"max_tokens"`
	// ArchiveEnabled mirrors finished conversations to local JSON files.
	ArchiveEnabled bool `toml:"archive_enabled"`
	// HistoryCacheEnabled mirrors the server-side session list and
	// history into a local SQLite cache for offline reading.
	HistoryCacheEnabled bool `toml:"history_cache_enabled"`
}

// UIConfig contains presentation configuration.
type UIConfig struct {
	// Theme is the color theme: "dark", "light", or "auto"
	Theme string `toml:"theme"`
	// Markdown renders assistant answers as markdown when on a TTY
	Markdown bool `toml:"markdown"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			URL:         "http://localhost:8000",
			TimeoutSecs: 60,
		},
		Chat: ChatConfig{
			MaxTokens:           1600,
			ArchiveEnabled:      true,
			HistoryCacheEnabled: true,
		},
		UI: UIConfig{
			Theme:    "auto",
			Markdown: true,
		},
	}
}

// =============================================================================
// CONFIG PATH HELPERS
// =============================================================================

// ConfigDir returns the documind configuration directory path.
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".documind"), nil
}

// ConfigPath returns the path to the TOML config file.
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// EnsureConfigDir ensures the config directory exists. 0700: the directory
// also holds credentials.
func EnsureConfigDir() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	return os.MkdirAll(dir, 0700)
}

// =============================================================================
// LOAD FUNCTIONS
// =============================================================================

// Load loads configuration from the default config file, falling back to
// defaults when no file exists. Environment overrides are applied last.
func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return nil, err
	}
	if _, statErr := os.Stat(path); statErr != nil {
		cfg := Default()
		cfg.ApplyEnvOverrides()
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("invalid config: %w", err)
		}
		return cfg, nil
	}
	return LoadFromPath(path)
}

// LoadFromPath loads configuration from a specific TOML file with full
// validation.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config file: %w", err)
	}

	cfg.fillDefaults()
	cfg.ApplyEnvOverrides()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// fillDefaults fills in any missing values with defaults. Decoding on top
// of Default() covers absent tables; this covers explicit zero values that
// have no valid zero meaning.
func (c *Config) fillDefaults() {
	defaults := Default()

	if c.Server.URL == "" {
		c.Server.URL = defaults.Server.URL
	}
	if c.Server.TimeoutSecs <= 0 {
		c.Server.TimeoutSecs = defaults.Server.TimeoutSecs
	}
	if c.UI.Theme == "" {
		c.UI.Theme = defaults.UI.Theme
	}
}

// =============================================================================
// SAVE FUNCTIONS
// =============================================================================

// Save saves the configuration to the default TOML file.
func Save(cfg *Config) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	return SaveTOML(cfg, path)
}

// SaveTOML saves the configuration to a TOML file.
// RELIABILITY: Atomic write with fsync prevents data loss on crash.
func SaveTOML(cfg *Config, path string) error {
	if err := EnsureConfigDir(); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	var buf bytes.Buffer
	fmt.Fprintln(&buf, "# documind configuration file")
	fmt.Fprintln(&buf, "# Generated by documind - edit with care")
	fmt.Fprintln(&buf, "")

	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	if err := util.AtomicWriteFile(path, buf.Bytes(), 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidationError describes a single invalid config field.
type ValidationError struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	if c.Server.URL != "" {
		u, err := url.Parse(c.Server.URL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return ValidationError{Field: "server.url", Message: "must be an http(s) URL"}
		}
	}
	if c.Server.TimeoutSecs < 0 {
		return ValidationError{Field: "server.timeout_secs", Message: "must not be negative"}
	}
	if c.Chat.MaxTokens < 0 {
		return ValidationError{Field: "chat.max_tokens", Message: "must not be negative"}
	}
	switch c.UI.Theme {
	case "", "dark", "light", "auto":
	default:
		return ValidationError{Field: "ui.theme", Message: `must be "dark", "light", or "auto"`}
	}
	return nil
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// ApplyEnvOverrides applies DOCUMIND_* environment variables on top of the
// loaded configuration.
func (c *Config) ApplyEnvOverrides() {
	if v := os.Getenv("DOCUMIND_SERVER_URL"); v != "" {
		c.Server.URL = v
	}
	if v := os.Getenv("DOCUMIND_TIMEOUT_SECS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Server.TimeoutSecs = n
		}
	}
	if v := os.Getenv("DOCUMIND_MAX_TOKENS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			c.Chat.MaxTokens = n
		}
	}
	if v := os.Getenv("DOCUMIND_THEME"); v != "" {
		c.UI.Theme = v
	}
}

// =============================================================================
// GET/SET BY KEY (config command)
// =============================================================================

// Keys returns the settable configuration keys.
func Keys() []string {
	return []string{
		"server.url",
		"server.timeout_secs",
		"chat.max_tokens",
		"chat.archive_enabled",
		"chat.history_cache_enabled",
		"ui.theme",
		"ui.markdown",
	}
}

// Get returns the value of a dotted configuration key.
func (c *Config) Get(key string) (string, error) {
	switch key {
	case "server.url":
		return c.Server.URL, nil
	case "server.timeout_secs":
		return strconv.Itoa(c.Server.TimeoutSecs), nil
	case "chat.max_tokens":
		return strconv.Itoa(c.Chat.MaxTokens), nil
	case "chat.archive_enabled":
		return strconv.FormatBool(c.Chat.ArchiveEnabled), nil
	case "chat.history_cache_enabled":
		return strconv.FormatBool(c.Chat.HistoryCacheEnabled), nil
	case "ui.theme":
		return c.UI.Theme, nil
	case "ui.markdown":
		return strconv.FormatBool(c.UI.Markdown), nil
	default:
		return "", fmt.Errorf("unknown config key: %s", key)
	}
}

// Set sets a dotted configuration key from its string representation and
// validates the result.
func (c *Config) Set(key, value string) error {
	switch key {
	case "server.url":
		c.Server.URL = value
	case "server.timeout_secs":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("%s: expected a number", key)
		}
		c.Server.TimeoutSecs = n
	case "chat.max_tokens":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("%s: expected a number", key)
		}
		c.Chat.MaxTokens = n
	case "chat.archive_enabled":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("%s: expected true or false", key)
		}
		c.Chat.ArchiveEnabled = b
	case "chat.history_cache_enabled":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("%s: expected true or false", key)
		}
		c.Chat.HistoryCacheEnabled = b
	case "ui.theme":
		c.UI.Theme = strings.ToLower(value)
	case "ui.markdown":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("%s: expected true or false", key)
		}
		c.UI.Markdown = b
	default:
		return fmt.Errorf("unknown config key: %s", key)
	}
	return c.Validate()
}
