// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package api provides the HTTP client for communicating with the DocuMind
// backend.
package api

import (
	"io"
	"strings"

	"github.com/jeranaias/documind-tui/internal/model"
)

// Session is one server-tracked conversation, as returned by /chat/sessions.
// The list order is the server's order and is preserved as-is.
type Session struct {
	ID    int64
	Title string
}

// DisplayTitle returns the session title, or a placeholder for sessions whose
// title has not been set server-side yet.
func (s Session) DisplayTitle() string {
	if strings.TrimSpace(s.Title) == "" {
		return "(untitled)"
	}
	return s.Title
}

// HistoryMessage is one message from /chat/history/{id}, with the role and
// content already normalized from the backend's field variants.
type HistoryMessage struct {
	Role    model.Role
	Content string
}

// FileInfo describes one uploaded document from /files/list.
type FileInfo struct {
	ID       int64
	Filename string
}

// Account is the authenticated user's profile from /auth/me.
type Account struct {
	Email    string `json:"email"`
	FullName string `json:"full_name"`
}

// AskRequest is the body of POST /chat.
type AskRequest struct {
	Question string `json:"question"`
	// SessionID is null for "no session yet - the next message creates one
	// server-side".
	SessionID *int64 `json:"session_id"`
	MaxTokens int    `json:"max_tokens"`
}

// AskStream is an open answer stream from POST /chat. The caller owns the
// body and must Close it exactly once, streaming or not.
type AskStream struct {
	// AssignedSessionID is the raw X-Session-Id header value ("" when the
	// server sent none). The server is authoritative about which conversation
	// a reply belongs to, so this overrides any locally tracked id.
	AssignedSessionID string

	// Streamed reports whether the body is newline-delimited JSON. When
	// false the whole body is one plain-text final answer.
	Streamed bool

	body io.ReadCloser
}

// Body returns the response body reader.
func (s *AskStream) Body() io.Reader {
	return s.body
}

// Close releases the underlying connection.
func (s *AskStream) Close() error {
	return s.body.Close()
}
