// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package auth tracks who the client is talking to the backend as.
package auth

import "testing"

func TestValidateRegistration(t *testing.T) {
	tests := []struct {
		name     string
		email    string
		password string
		confirm  string
		wantErr  string // "" means valid
	}{
		{"valid", "a@b.c", "hunter22", "hunter22", ""},
		{"empty email", "", "hunter22", "hunter22", "all fields are required"},
		{"whitespace email", "   ", "hunter22", "hunter22", "all fields are required"},
		{"empty password", "a@b.c", "", "", "all fields are required"},
		{"missing at sign", "not-an-email", "hunter22", "hunter22", "enter a valid email address"},
		{"five char password", "a@b.c", "12345", "12345", "password must be at least 6 characters"},
		{"six char password ok", "a@b.c", "123456", "123456", ""},
		{"mismatched confirm", "a@b.c", "hunter22", "hunter23", "passwords do not match"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateRegistration(tt.email, tt.password, tt.confirm)
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("validateRegistration() = %v, want nil", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("validateRegistration() = nil, want %q", tt.wantErr)
			}
			if !IsValidationError(err) {
				t.Errorf("expected ValidationError, got %T", err)
			}
			if err.Error() != tt.wantErr {
				t.Errorf("error = %q, want %q", err.Error(), tt.wantErr)
			}
		})
	}
}

func TestIdentity_IsAuthenticated(t *testing.T) {
	tests := []struct {
		name string
		id   Identity
		want bool
	}{
		{"guest", guestIdentity(), false},
		{"authenticated with token", Identity{Mode: Authenticated, Token: "tok"}, true},
		{"authenticated without token", Identity{Mode: Authenticated}, false},
		{"guest with stray token", Identity{Mode: Guest, Token: "tok"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.id.IsAuthenticated(); got != tt.want {
				t.Errorf("IsAuthenticated() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFullNameFromEmail(t *testing.T) {
	tests := []struct {
		email string
		want  string
	}{
		{"alice@example.com", "alice"},
		{"bob.smith@corp.io", "bob.smith"},
		{"@leading", "@leading"},
		{"noat", "noat"},
	}

	for _, tt := range tests {
		if got := fullNameFromEmail(tt.email); got != tt.want {
			t.Errorf("fullNameFromEmail(%q) = %q, want %q", tt.email, got, tt.want)
		}
	}
}

func TestMode_String(t *testing.T) {
	if Guest.String() != "guest" {
		t.Errorf("Guest.String() = %q", Guest.String())
	}
	if Authenticated.String() != "authenticated" {
		t.Errorf("Authenticated.String() = %q", Authenticated.String())
	}
}
