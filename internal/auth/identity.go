// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package auth tracks who the client is talking to the backend as.
package auth

import (
	"errors"
	"strings"
)

// =============================================================================
// IDENTITY
// =============================================================================

// Mode is the authentication mode.
type Mode int

const (
	// Guest is unauthenticated usage: no uploads, no persisted history.
	Guest Mode = iota
	// Authenticated means a bearer token is held for the backend.
	Authenticated
)

// String returns the mode name.
func (m Mode) String() string {
	if m == Authenticated {
		return "authenticated"
	}
	return "guest"
}

// Identity is the current authentication state.
// Invariant: Mode == Authenticated iff Token is non-empty.
type Identity struct {
	Mode  Mode
	Token string
	Email string
}

// IsAuthenticated reports whether requests should carry a bearer token.
func (id Identity) IsAuthenticated() bool {
	return id.Mode == Authenticated && id.Token != ""
}

// guestIdentity is the zero-state identity.
func guestIdentity() Identity {
	return Identity{Mode: Guest}
}

// =============================================================================
// LOCAL VALIDATION
// =============================================================================

// MinPasswordLength is the minimum accepted password length.
const MinPasswordLength = 6

// ValidationError is a local, pre-network input failure. It never reaches
// the wire: requests are only built from input that passed validation.
type ValidationError struct {
	Reason string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return e.Reason
}

// IsValidationError reports whether err is a local input failure.
func IsValidationError(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

// validateRegistration applies the local registration rules. The first
// failed rule wins; nothing touches the network until all pass.
func validateRegistration(email, password, confirm string) error {
	if strings.TrimSpace(email) == "" || password == "" || confirm == "" {
		return &ValidationError{Reason: "all fields are required"}
	}
	if !strings.Contains(email, "@") {
		return &ValidationError{Reason: "enter a valid email address"}
	}
	if len(password) < MinPasswordLength {
		return &ValidationError{Reason: "password must be at least 6 characters"}
	}
	if password != confirm {
		return &ValidationError{Reason: "passwords do not match"}
	}
	return nil
}

// fullNameFromEmail derives the registration full_name from the email local
// part, matching what the web frontend sends.
func fullNameFromEmail(email string) string {
	if i := strings.Index(email, "@"); i > 0 {
		return email[:i]
	}
	return email
}
