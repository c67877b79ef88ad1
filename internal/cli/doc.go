// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli implements the documind command-line interface.
//
// Running documind with no command starts the TUI; everything else is a
// one-shot command (ask, login, upload, ...) suitable for scripting. Output
// degrades gracefully: colors and markdown rendering are TTY-only, so piped
// output stays plain.
package cli
