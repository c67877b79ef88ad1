// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for conversations and messages.
//
// The model package has no dependencies on other internal packages and serves
// as the shared vocabulary between the chat engine, the session coordinator,
// the persistence layers, and both front ends (CLI and TUI).
package model
