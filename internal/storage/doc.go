// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storage provides local transcript persistence for documind.
//
// Transcripts are the client-side archive of conversations: one JSON file
// per conversation under ~/.documind/transcripts/. They exist alongside
// server-side history and survive it - a guest's exchanges, which the server
// never persists, live only here.
package storage
