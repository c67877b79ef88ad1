// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session tracks which backend conversation the client is in.
package session

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jeranaias/documind-tui/internal/api"
)

// =============================================================================
// ACTIVE ID TESTS
// =============================================================================

func TestCoordinator_StartsWithNoActiveSession(t *testing.T) {
	c := NewCoordinator(api.NewClient("http://unused"))

	_, ok := c.Active()
	require.False(t, ok)
	require.Nil(t, c.ActiveRef(), "no session serializes as null")
}

func TestCoordinator_SelectAndReset(t *testing.T) {
	c := NewCoordinator(api.NewClient("http://unused"))

	c.Select(7)
	id, ok := c.Active()
	require.True(t, ok)
	require.Equal(t, int64(7), id)

	ref := c.ActiveRef()
	require.NotNil(t, ref)
	require.Equal(t, int64(7), *ref)

	c.Reset()
	_, ok = c.Active()
	require.False(t, ok)
}

func TestCoordinator_ObserveAssignedID(t *testing.T) {
	tests := []struct {
		name        string
		selected    int64 // 0 = none
		header      string
		wantChanged bool
		wantActive  int64
	}{
		{"assigns on fresh conversation", 0, "7", true, 7},
		{"same id is a no-op", 7, "7", false, 7},
		{"server id overrides selection", 7, "42", true, 42},
		{"absent header keeps selection", 7, "", false, 7},
		{"non-numeric header keeps selection", 7, "abc", false, 7},
		{"whitespace-padded id parses", 0, " 9 ", true, 9},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewCoordinator(api.NewClient("http://unused"))
			if tt.selected != 0 {
				c.Select(tt.selected)
			}

			changed := c.ObserveAssignedID(tt.header)
			require.Equal(t, tt.wantChanged, changed)

			active, _ := c.Active()
			require.Equal(t, tt.wantActive, active)
		})
	}
}

// =============================================================================
// REFRESH TESTS
// =============================================================================

func TestCoordinator_RefreshGuestIsEmptyWithoutNetwork(t *testing.T) {
	var called bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer srv.Close()

	c := NewCoordinator(api.NewClient(srv.URL))
	sessions, err := c.Refresh(context.Background(), "")
	require.NoError(t, err)
	require.Empty(t, sessions)
	require.False(t, called, "guests never hit the sessions endpoint")
}

func TestCoordinator_RefreshCachesList(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"id": 1, "title": "alpha"}, {"id": 2, "title": "beta"}]`))
	}))
	defer srv.Close()

	c := NewCoordinator(api.NewClient(srv.URL))
	sessions, err := c.Refresh(context.Background(), "tok")
	require.NoError(t, err)
	require.Len(t, sessions, 2)
	require.Equal(t, sessions, c.Cached())
}

func TestCoordinator_RefreshFailureKeepsCache(t *testing.T) {
	var fail bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if fail {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte(`[{"id": 1, "title": "alpha"}]`))
	}))
	defer srv.Close()

	c := NewCoordinator(api.NewClient(srv.URL))
	_, err := c.Refresh(context.Background(), "tok")
	require.NoError(t, err)

	fail = true
	sessions, err := c.Refresh(context.Background(), "tok")
	require.Error(t, err)
	require.Len(t, sessions, 1, "failed refresh falls back to the cached list")
}

// =============================================================================
// HISTORY TESTS
// =============================================================================

func TestCoordinator_HistoryGuestMode(t *testing.T) {
	c := NewCoordinator(api.NewClient("http://unused"))

	msgs, outcome, err := c.History(context.Background(), "", 7)
	require.NoError(t, err)
	require.Equal(t, HistoryGuestMode, outcome)
	require.Empty(t, msgs)
}

func TestCoordinator_HistoryOutcomes(t *testing.T) {
	var status int
	var body string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if status != 0 {
			w.WriteHeader(status)
			return
		}
		w.Write([]byte(body))
	}))
	defer srv.Close()

	c := NewCoordinator(api.NewClient(srv.URL))

	body = `[{"role": "user", "content": "hi"}, {"role": "assistant", "content": "hello"}]`
	msgs, outcome, err := c.History(context.Background(), "tok", 7)
	require.NoError(t, err)
	require.Equal(t, HistoryOK, outcome)
	require.Len(t, msgs, 2)

	body = `[]`
	_, outcome, err = c.History(context.Background(), "tok", 7)
	require.NoError(t, err)
	require.Equal(t, HistoryEmpty, outcome)

	status = http.StatusBadGateway
	_, outcome, err = c.History(context.Background(), "tok", 7)
	require.Error(t, err)
	require.Equal(t, HistoryUnavailable, outcome)
}
