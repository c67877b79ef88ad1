// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package api provides the HTTP client for communicating with the DocuMind
// backend.
//
// The backend exposes a small REST surface (auth, chat, sessions, history,
// files) plus one streaming endpoint: POST /chat answers with newline-delimited
// JSON records of the form {"content": "..."} and an optional X-Session-Id
// response header carrying the server-assigned conversation id.
//
// Field names in backend payloads are not uniform across deployments; the
// normalization helpers in this package fold the known variants
// (id/session_id/sessionId, content/text/message/body, role/sender) into the
// client's types with a fixed priority order.
package api
