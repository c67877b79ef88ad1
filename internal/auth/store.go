// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package auth tracks who the client is talking to the backend as.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/jeranaias/documind-tui/internal/api"
)

// ErrRegisteredNotLoggedIn distinguishes "the account exists but the
// follow-up login failed" from a hard registration failure, so callers can
// redirect to a manual login instead of reporting an error.
var ErrRegisteredNotLoggedIn = errors.New("registered, but automatic login failed")

// IdentityStore owns the current authentication state.
//
// All reads and mutations go through its methods; the mutex makes each
// read-modify-write atomic should a host introduce real parallelism (the TUI
// event loop is single-threaded, but bubbletea commands run on goroutines).
type IdentityStore struct {
	mu       sync.Mutex
	client   *api.Client
	creds    CredentialStore
	identity Identity
}

// NewIdentityStore creates a store and restores any persisted identity.
// A corrupt credential file degrades to Guest rather than failing startup.
func NewIdentityStore(client *api.Client, creds CredentialStore) *IdentityStore {
	s := &IdentityStore{
		client:   client,
		creds:    creds,
		identity: guestIdentity(),
	}

	stored, err := creds.Load()
	if err != nil {
		log.Printf("auth: ignoring stored credentials: %v", err)
		return s
	}
	if stored.Token != "" {
		s.identity = Identity{Mode: Authenticated, Token: stored.Token, Email: stored.Email}
	}
	return s
}

// Current returns the current identity. Pure read.
func (s *IdentityStore) Current() Identity {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.identity
}

// Token returns the bearer token, or "" in guest mode.
func (s *IdentityStore) Token() string {
	return s.Current().Token
}

// Login exchanges credentials for a token and persists the result.
// Failures leave the previous identity untouched.
func (s *IdentityStore) Login(ctx context.Context, email, password string) (Identity, error) {
	if email == "" || password == "" {
		return s.Current(), &ValidationError{Reason: "email and password are required"}
	}

	token, err := s.client.Login(ctx, email, password)
	if err != nil {
		return s.Current(), err
	}

	return s.adopt(token, email), nil
}

// Register validates locally, creates the account, then logs in with the
// same credentials. A successful registration followed by a failed login
// yields ErrRegisteredNotLoggedIn (wrapped around the login failure).
func (s *IdentityStore) Register(ctx context.Context, email, password, confirm string) (Identity, error) {
	if err := validateRegistration(email, password, confirm); err != nil {
		return s.Current(), err
	}

	if err := s.client.Register(ctx, email, password, fullNameFromEmail(email)); err != nil {
		return s.Current(), err
	}

	identity, err := s.Login(ctx, email, password)
	if err != nil {
		return identity, fmt.Errorf("%w: %w", ErrRegisteredNotLoggedIn, err)
	}
	return identity, nil
}

// ContinueAsGuest clears any persisted credentials and switches to guest
// mode. Guests never call the authenticated-only endpoints.
func (s *IdentityStore) ContinueAsGuest() Identity {
	return s.reset()
}

// Logout clears persisted token and email and resets to guest.
func (s *IdentityStore) Logout() {
	s.reset()
}

// adopt installs an authenticated identity and persists it.
// Persistence failure degrades to a session-only login, logged.
func (s *IdentityStore) adopt(token, email string) Identity {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.identity = Identity{Mode: Authenticated, Token: token, Email: email}
	if err := s.creds.Save(Credentials{Token: token, Email: email}); err != nil {
		log.Printf("auth: login will not survive restart: %v", err)
	}
	return s.identity
}

// reset clears persisted and in-memory state back to guest.
func (s *IdentityStore) reset() Identity {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.creds.Clear(); err != nil {
		log.Printf("auth: failed to clear stored credentials: %v", err)
	}
	s.identity = guestIdentity()
	return s.identity
}
