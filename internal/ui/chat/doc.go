// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the interactive TUI for conversing with a DocuMind
// backend.
//
// The view is a single Bubble Tea model: a scrollable conversation viewport,
// a one-line input, and a toggleable session sidebar. Streamed answer tokens
// arrive over a channel bridged into the Bubble Tea update loop, so the
// engine goroutine never touches the model directly.
package chat
