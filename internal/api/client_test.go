// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package api provides the HTTP client for communicating with the DocuMind
// backend.
package api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

// =============================================================================
// LOGIN TESTS
// =============================================================================

func TestClient_Login_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/auth/login", r.URL.Path)
		require.NoError(t, r.ParseForm())
		require.Equal(t, "a@b.c", r.PostForm.Get("username"))
		require.Equal(t, "secret", r.PostForm.Get("password"))
		require.Empty(t, r.Header.Get("Authorization"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"access_token":"tok123","token_type":"bearer"}`))
	}))
	defer srv.Close()

	token, err := NewClient(srv.URL).Login(context.Background(), "a@b.c", "secret")
	require.NoError(t, err)
	require.Equal(t, "tok123", token)
}

func TestClient_Login_BadCredentials(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"detail":"Invalid email or password"}`))
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL).Login(context.Background(), "a@b.c", "wrong")

	var authErr *AuthError
	require.ErrorAs(t, err, &authErr)
	require.Equal(t, "Invalid email or password", authErr.Detail)
	require.Equal(t, http.StatusUnauthorized, authErr.Status)
}

func TestClient_Login_UnparseableErrorBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte("<html>gateway error</html>"))
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL).Login(context.Background(), "a@b.c", "pw")

	var authErr *AuthError
	require.ErrorAs(t, err, &authErr)
	require.Equal(t, "authentication failed", authErr.Detail)
}

func TestClient_Login_NetworkFailure(t *testing.T) {
	// Closed server: the request never completes
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	_, err := NewClient(srv.URL).Login(context.Background(), "a@b.c", "pw")
	require.True(t, IsNetworkError(err), "expected ErrNetwork, got %v", err)
}

// =============================================================================
// ASK TESTS
// =============================================================================

func TestClient_Ask_GuestOmitsAuthHeader(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, present := r.Header["Authorization"]
		require.False(t, present, "guest requests must not carry an Authorization header at all")

		body, _ := io.ReadAll(r.Body)
		require.JSONEq(t, `{"question":"What is 2+2?","session_id":null,"max_tokens":1600}`, string(body))

		w.Header().Set("Content-Type", "application/x-ndjson")
		w.Write([]byte("{\"content\":\"4\"}\n"))
	}))
	defer srv.Close()

	stream, err := NewClient(srv.URL).Ask(context.Background(), "", AskRequest{Question: "What is 2+2?"})
	require.NoError(t, err)
	defer stream.Close()

	require.True(t, stream.Streamed)
	require.Empty(t, stream.AssignedSessionID)

	data, err := io.ReadAll(stream.Body())
	require.NoError(t, err)
	require.Equal(t, "{\"content\":\"4\"}\n", string(data))
}

func TestClient_Ask_AuthenticatedWithSessionHeader(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "Bearer tok", r.Header.Get("Authorization"))

		w.Header().Set("Content-Type", "application/x-ndjson")
		w.Header().Set("X-Session-Id", "42")
		w.Write([]byte("{\"content\":\"hi\"}\n"))
	}))
	defer srv.Close()

	sid := int64(7)
	stream, err := NewClient(srv.URL).Ask(context.Background(), "tok",
		AskRequest{Question: "hello", SessionID: &sid, MaxTokens: 800})
	require.NoError(t, err)
	defer stream.Close()

	require.Equal(t, "42", stream.AssignedSessionID)
}

func TestClient_Ask_PlainTextBodyNotStreamed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.Write([]byte("final answer"))
	}))
	defer srv.Close()

	stream, err := NewClient(srv.URL).Ask(context.Background(), "", AskRequest{Question: "q"})
	require.NoError(t, err)
	defer stream.Close()

	require.False(t, stream.Streamed)
}

func TestClient_Ask_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("model backend down"))
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL).Ask(context.Background(), "", AskRequest{Question: "q"})

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, http.StatusInternalServerError, apiErr.Status)
	require.Equal(t, "model backend down", apiErr.Detail())
}

func TestClient_Ask_MaxTokensClamped(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		require.Contains(t, string(body), `"max_tokens":1600`)
		w.Header().Set("Content-Type", "application/x-ndjson")
	}))
	defer srv.Close()

	stream, err := NewClient(srv.URL).Ask(context.Background(), "",
		AskRequest{Question: "q", MaxTokens: 999999})
	require.NoError(t, err)
	stream.Close()
}

// =============================================================================
// SESSION / HISTORY TESTS
// =============================================================================

func TestClient_Sessions_HeterogeneousIDs(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/chat/sessions", r.URL.Path)
		require.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[
			{"id": 3, "title": "first"},
			{"session_id": "5", "title": "second"},
			{"sessionId": 9, "title": ""},
			{"title": "no id, skipped"}
		]`))
	}))
	defer srv.Close()

	sessions, err := NewClient(srv.URL).Sessions(context.Background(), "tok")
	require.NoError(t, err)
	require.Len(t, sessions, 3)
	require.Equal(t, int64(3), sessions[0].ID)
	require.Equal(t, int64(5), sessions[1].ID)
	require.Equal(t, int64(9), sessions[2].ID)
	require.Equal(t, "(untitled)", sessions[2].DisplayTitle())
}

func TestClient_Sessions_NonArrayDegradesToEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"detail":"unexpected"}`))
	}))
	defer srv.Close()

	sessions, err := NewClient(srv.URL).Sessions(context.Background(), "tok")
	require.NoError(t, err)
	require.Empty(t, sessions)
}

func TestClient_Sessions_RateLimited(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	var limited bool
	for i := 0; i < 20; i++ {
		if _, err := c.Sessions(context.Background(), "tok"); errors.Is(err, ErrRateLimited) {
			limited = true
			break
		}
	}
	require.True(t, limited, "burst of refreshes should trip the client-side limiter")
}

func TestClient_History_NormalizesRolesAndContent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/chat/history/9", r.URL.Path)
		w.Write([]byte(`[
			{"role": "user", "content": "hi"},
			{"sender": "bot", "text": "hello!"},
			{"role": "assistant"}
		]`))
	}))
	defer srv.Close()

	msgs, err := NewClient(srv.URL).History(context.Background(), "tok", 9)
	require.NoError(t, err)
	require.Len(t, msgs, 2, "content-less messages are dropped")
	require.Equal(t, "hi", msgs[0].Content)
	require.Equal(t, "hello!", msgs[1].Content)
}

func TestClient_History_EmptySession(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	msgs, err := NewClient(srv.URL).History(context.Background(), "tok", 9)
	require.NoError(t, err)
	require.NotNil(t, msgs)
	require.Empty(t, msgs)
}

// =============================================================================
// FILE TESTS
// =============================================================================

func TestClient_DeleteFile(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodDelete, r.Method)
		require.Equal(t, "/files/12", r.URL.Path)
		w.Write([]byte(`{"message":"Document deleted successfully"}`))
	}))
	defer srv.Close()

	require.NoError(t, NewClient(srv.URL).DeleteFile(context.Background(), "tok", 12))
}

func TestClient_NotConfigured(t *testing.T) {
	c := NewClient("")
	_, err := c.Login(context.Background(), "a@b.c", "pw")
	require.ErrorIs(t, err, ErrNotConfigured)
}
