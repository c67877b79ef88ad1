// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading and management for documind.
//
// Configuration is TOML, with sensible defaults, environment variable
// overrides, and validation.
//
// Configuration file locations (in order of precedence):
//   - path given on the command line
//   - ~/.documind/config.toml
//   - Built-in defaults
//
// Environment overrides (applied last):
//   - DOCUMIND_SERVER_URL
//   - DOCUMIND_TIMEOUT_SECS
//   - DOCUMIND_MAX_TOKENS
//   - DOCUMIND_THEME
package config
