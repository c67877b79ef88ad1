// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package api provides the HTTP client for communicating with the DocuMind
// backend.
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Error variables for common client errors.
var (
	// ErrNetwork indicates the request never completed (DNS, connectivity,
	// timeout). Callers surface NetworkAdvisory instead of the raw cause.
	ErrNetwork = errors.New("network unavailable")

	// ErrRateLimited indicates a background refresh was throttled client-side.
	ErrRateLimited = errors.New("rate limited")

	// ErrNotConfigured indicates the server URL is not set.
	ErrNotConfigured = errors.New("server URL not configured")
)

// NetworkAdvisory is the fixed user-facing message for network-level failures.
// It deliberately carries no technical detail: a connection error signals an
// availability problem, not an application error.
const NetworkAdvisory = "cannot reach the DocuMind server - check your connection and server URL"

// APIError represents a non-2xx HTTP response from the backend.
type APIError struct {
	Status int
	Body   string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("server error (HTTP %d): %s", e.Status, e.Body)
	}
	return fmt.Sprintf("server error (HTTP %d)", e.Status)
}

// Detail returns the failure text to show a user: the response body when the
// server sent one, otherwise the status code.
func (e *APIError) Detail() string {
	if strings.TrimSpace(e.Body) != "" {
		return e.Body
	}
	return fmt.Sprintf("HTTP %d", e.Status)
}

// AuthError represents rejected credentials. The message is extracted from the
// backend's structured error payload when it parses, with a generic fallback.
type AuthError struct {
	Status int
	Detail string
}

// Error implements the error interface.
func (e *AuthError) Error() string {
	return e.Detail
}

// authErrorFromBody builds an AuthError from an error response body.
// The backend reports failures as {"detail": "..."}; anything else
// (non-JSON body, missing field) falls back to a generic message.
func authErrorFromBody(status int, body []byte) *AuthError {
	var payload struct {
		Detail string `json:"detail"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && strings.TrimSpace(payload.Detail) != "" {
		return &AuthError{Status: status, Detail: payload.Detail}
	}
	return &AuthError{Status: status, Detail: "authentication failed"}
}

// IsNetworkError reports whether err is a network-level failure (request never
// completed) as opposed to a server-reported error.
func IsNetworkError(err error) bool {
	return errors.Is(err, ErrNetwork)
}
