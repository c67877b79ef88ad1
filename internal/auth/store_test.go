// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package auth tracks who the client is talking to the backend as.
package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jeranaias/documind-tui/internal/api"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

// backend is a minimal fake of the auth endpoints with call counting.
type backend struct {
	calls       atomic.Int64
	loginStatus int
	srv         *httptest.Server
}

func newBackend(t *testing.T) *backend {
	b := &backend{loginStatus: http.StatusOK}
	b.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b.calls.Add(1)
		switch r.URL.Path {
		case "/auth/login":
			if b.loginStatus != http.StatusOK {
				w.WriteHeader(b.loginStatus)
				w.Write([]byte(`{"detail":"Invalid email or password"}`))
				return
			}
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(map[string]string{"access_token": "tok-abc"})
		case "/auth/register":
			w.WriteHeader(http.StatusCreated)
			w.Write([]byte(`{"id":1}`))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(b.srv.Close)
	return b
}

func (b *backend) store() *IdentityStore {
	return NewIdentityStore(api.NewClient(b.srv.URL), &MemoryCredentialStore{})
}

// =============================================================================
// IDENTITY STORE TESTS
// =============================================================================

func TestIdentityStore_StartsAsGuest(t *testing.T) {
	s := newBackend(t).store()
	id := s.Current()
	require.Equal(t, Guest, id.Mode)
	require.Empty(t, id.Token)
}

func TestIdentityStore_RestoresPersistedIdentity(t *testing.T) {
	creds := &MemoryCredentialStore{}
	require.NoError(t, creds.Save(Credentials{Token: "persisted", Email: "a@b.c"}))

	s := NewIdentityStore(api.NewClient("http://unused"), creds)
	id := s.Current()
	require.True(t, id.IsAuthenticated())
	require.Equal(t, "persisted", id.Token)
	require.Equal(t, "a@b.c", id.Email)
}

func TestIdentityStore_LoginPersistsBothFields(t *testing.T) {
	b := newBackend(t)
	creds := &MemoryCredentialStore{}
	s := NewIdentityStore(api.NewClient(b.srv.URL), creds)

	id, err := s.Login(context.Background(), "a@b.c", "secret")
	require.NoError(t, err)
	require.True(t, id.IsAuthenticated())
	require.Equal(t, "tok-abc", id.Token)

	stored, err := creds.Load()
	require.NoError(t, err)
	require.Equal(t, Credentials{Token: "tok-abc", Email: "a@b.c"}, stored)
}

func TestIdentityStore_LoginFailureKeepsPreviousIdentity(t *testing.T) {
	b := newBackend(t)
	s := b.store()

	_, err := s.Login(context.Background(), "a@b.c", "secret")
	require.NoError(t, err)

	b.loginStatus = http.StatusUnauthorized
	id, err := s.Login(context.Background(), "a@b.c", "wrong")
	require.Error(t, err)
	require.True(t, id.IsAuthenticated(), "failed login must not evict the current identity")
	require.Equal(t, "tok-abc", id.Token)
}

func TestIdentityStore_ShortPasswordNeverTouchesNetwork(t *testing.T) {
	b := newBackend(t)
	s := b.store()

	_, err := s.Register(context.Background(), "a@b.c", "12345", "12345")
	require.True(t, IsValidationError(err))
	require.Zero(t, b.calls.Load(), "rejected input must not produce a request")
}

func TestIdentityStore_MismatchedConfirmNeverTouchesNetwork(t *testing.T) {
	b := newBackend(t)
	s := b.store()

	_, err := s.Register(context.Background(), "a@b.c", "hunter22", "hunter23")
	require.True(t, IsValidationError(err))
	require.Zero(t, b.calls.Load())
}

func TestIdentityStore_RegisterThenAutoLogin(t *testing.T) {
	b := newBackend(t)
	s := b.store()

	id, err := s.Register(context.Background(), "new@b.c", "hunter22", "hunter22")
	require.NoError(t, err)
	require.True(t, id.IsAuthenticated())
	require.Equal(t, "new@b.c", id.Email)
	require.Equal(t, int64(2), b.calls.Load(), "register followed by login")
}

func TestIdentityStore_RegisteredButAutoLoginFailed(t *testing.T) {
	var registered bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/auth/register":
			registered = true
			w.WriteHeader(http.StatusCreated)
		case "/auth/login":
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"detail":"temporarily unavailable"}`))
		}
	}))
	defer srv.Close()

	s := NewIdentityStore(api.NewClient(srv.URL), &MemoryCredentialStore{})
	id, err := s.Register(context.Background(), "new@b.c", "hunter22", "hunter22")

	require.ErrorIs(t, err, ErrRegisteredNotLoggedIn)
	require.True(t, registered, "registration itself succeeded")
	require.Equal(t, Guest, id.Mode, "account exists but nobody is logged in")
}

func TestIdentityStore_LogoutResetsToGuest(t *testing.T) {
	b := newBackend(t)
	creds := &MemoryCredentialStore{}
	s := NewIdentityStore(api.NewClient(b.srv.URL), creds)

	_, err := s.Login(context.Background(), "a@b.c", "secret")
	require.NoError(t, err)

	s.Logout()
	require.Equal(t, Guest, s.Current().Mode)
	require.Empty(t, s.Token())

	stored, err := creds.Load()
	require.NoError(t, err)
	require.Empty(t, stored.Token)
}

func TestIdentityStore_ContinueAsGuestClearsStoredCredentials(t *testing.T) {
	creds := &MemoryCredentialStore{}
	require.NoError(t, creds.Save(Credentials{Token: "old", Email: "a@b.c"}))

	s := NewIdentityStore(api.NewClient("http://unused"), creds)
	id := s.ContinueAsGuest()

	require.Equal(t, Guest, id.Mode)
	stored, _ := creds.Load()
	require.Empty(t, stored.Token)
}

// =============================================================================
// FILE CREDENTIAL STORE TESTS
// =============================================================================

func TestFileCredentialStore_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	s := NewFileCredentialStore(dir)

	want := Credentials{Token: "tok-abc", Email: "a@b.c"}
	require.NoError(t, s.Save(want))

	got, err := s.Load()
	require.NoError(t, err)
	require.Equal(t, want, got)

	// Fresh store over the same dir sees the same credentials
	got, err = NewFileCredentialStore(dir).Load()
	require.NoError(t, err)
	require.Equal(t, want, got)
}

func TestFileCredentialStore_LoadMissingIsNotAnError(t *testing.T) {
	s := NewFileCredentialStore(t.TempDir())
	got, err := s.Load()
	require.NoError(t, err)
	require.Empty(t, got.Token)
}

func TestFileCredentialStore_ClearThenLoad(t *testing.T) {
	s := NewFileCredentialStore(t.TempDir())
	require.NoError(t, s.Save(Credentials{Token: "tok"}))
	require.NoError(t, s.Clear())

	got, err := s.Load()
	require.NoError(t, err)
	require.Empty(t, got.Token)

	// Clearing twice is fine
	require.NoError(t, s.Clear())
}

func TestFileCredentialStore_TamperedFileDetected(t *testing.T) {
	dir := t.TempDir()
	s := NewFileCredentialStore(dir)
	require.NoError(t, s.Save(Credentials{Token: "tok"}))

	flipLastByte(t, s.credsPath)

	_, err := s.Load()
	require.ErrorIs(t, err, ErrCorruptCredentials)
}

func flipLastByte(t *testing.T, path string) {
	t.Helper()
	blob, err := os.ReadFile(path)
	require.NoError(t, err)
	require.NotEmpty(t, blob)
	blob[len(blob)-1] ^= 0xff
	require.NoError(t, os.WriteFile(path, blob, 0600))
}

func copyFile(t *testing.T, src, dst string) {
	t.Helper()
	blob, err := os.ReadFile(src)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(dst, blob, 0600))
}

func TestFileCredentialStore_WrongKeyDetected(t *testing.T) {
	dir := t.TempDir()
	s := NewFileCredentialStore(dir)
	require.NoError(t, s.Save(Credentials{Token: "tok"}))

	// Replace the master key: the GCM tag no longer verifies
	other := NewFileCredentialStore(t.TempDir())
	require.NoError(t, other.Save(Credentials{Token: "x"}))
	copyFile(t, other.keyPath, s.keyPath)

	_, err := s.Load()
	require.ErrorIs(t, err, ErrCorruptCredentials)
}
