// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session tracks which backend conversation the client is in.
//
// The backend owns session identity: it assigns numeric ids and may report
// the id of the conversation it actually used on each answer. The
// Coordinator mirrors that state client-side - the active id, the cached
// session list - and treats a server-reported id as authoritative over
// whatever the client thought it had selected.
package session
