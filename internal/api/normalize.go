// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package api provides the HTTP client for communicating with the DocuMind
// backend.
package api

import (
	"encoding/json"
	"strings"

	"github.com/jeranaias/documind-tui/internal/model"
	"github.com/jeranaias/documind-tui/internal/util"
)

// =============================================================================
// FIELD NORMALIZATION
// =============================================================================
//
// Different backend builds have shipped the same data under different field
// names. Each helper below folds the known variants with a fixed priority
// order; the first present, convertible field wins.

// idFields is the priority order for session identifiers.
var idFields = []string{"id", "session_id", "sessionId"}

// contentFields is the priority order for message text.
var contentFields = []string{"content", "text", "message", "body"}

// roleFields is the priority order for message sender.
var roleFields = []string{"role", "sender"}

// normalizeID extracts a numeric identifier from a raw object.
// Ids arrive as JSON numbers or as numeric strings; both normalize to int64
// so that id equality is numeric, never textual.
func normalizeID(obj map[string]json.RawMessage) (int64, bool) {
	for _, field := range idFields {
		raw, ok := obj[field]
		if !ok {
			continue
		}
		if id, ok := rawToInt64(raw); ok {
			return id, true
		}
	}
	return 0, false
}

// normalizeContent extracts message text from a raw object.
func normalizeContent(obj map[string]json.RawMessage) string {
	for _, field := range contentFields {
		raw, ok := obj[field]
		if !ok {
			continue
		}
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			return s
		}
	}
	return ""
}

// normalizeRole extracts the sender role from a raw object. A role value
// containing "user" or "me" is the user; everything else (including a missing
// field) is the assistant.
func normalizeRole(obj map[string]json.RawMessage) model.Role {
	for _, field := range roleFields {
		raw, ok := obj[field]
		if !ok {
			continue
		}
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			continue
		}
		lower := strings.ToLower(s)
		if strings.Contains(lower, "user") || strings.Contains(lower, "me") {
			return model.RoleUser
		}
		return model.RoleAssistant
	}
	return model.RoleAssistant
}

// rawToInt64 converts a raw JSON value (number or numeric string) to int64.
func rawToInt64(raw json.RawMessage) (int64, bool) {
	var num json.Number
	if err := json.Unmarshal(raw, &num); err == nil {
		if id, err := num.Int64(); err == nil {
			return id, true
		}
		return 0, false
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return util.ParseInt64(strings.TrimSpace(s))
	}
	return 0, false
}

// ParseSessionID parses a server-supplied session id string (for example the
// X-Session-Id header). Returns false for empty or non-numeric input.
func ParseSessionID(s string) (int64, bool) {
	return util.ParseInt64(strings.TrimSpace(s))
}

// decodeObjectList decodes a JSON array of objects into raw field maps.
// Returns false when the payload is not an array of objects; elements that
// are not objects are skipped rather than failing the whole list.
func decodeObjectList(data []byte) ([]map[string]json.RawMessage, bool) {
	var items []json.RawMessage
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, false
	}

	objs := make([]map[string]json.RawMessage, 0, len(items))
	for _, item := range items {
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(item, &obj); err != nil {
			continue
		}
		objs = append(objs, obj)
	}
	return objs, true
}
