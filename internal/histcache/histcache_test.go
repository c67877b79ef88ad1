// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package histcache mirrors server-side chat history into a local SQLite
// database for offline reading.
package histcache

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jeranaias/documind-tui/internal/api"
)

func newTestCache(t *testing.T) *Cache {
	t.Helper()
	c, err := Open(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c
}

func TestCache_SessionsRoundTrip(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	want := []api.Session{
		{ID: 1, Title: "alpha"},
		{ID: 2, Title: "beta"},
	}
	require.NoError(t, c.StoreSessions(ctx, want))

	got, err := c.Sessions(ctx)
	require.NoError(t, err)
	require.ElementsMatch(t, want, got)
}

func TestCache_StoreSessionsRemovesStale(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.StoreSessions(ctx, []api.Session{{ID: 1, Title: "keep"}, {ID: 2, Title: "drop"}}))
	require.NoError(t, c.StoreHistory(ctx, 2, []api.HistoryMessage{{Role: "user", Content: "bye"}}))

	require.NoError(t, c.StoreSessions(ctx, []api.Session{{ID: 1, Title: "keep"}}))

	sessions, err := c.Sessions(ctx)
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	require.Equal(t, int64(1), sessions[0].ID)

	msgs, err := c.History(ctx, 2)
	require.NoError(t, err)
	require.Empty(t, msgs, "cascade removes messages of dropped sessions")
}

func TestCache_HistoryRoundTripPreservesOrder(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	want := []api.HistoryMessage{
		{Role: "user", Content: "first question"},
		{Role: "assistant", Content: "first answer"},
		{Role: "user", Content: "second question"},
	}
	require.NoError(t, c.StoreHistory(ctx, 7, want))

	got, err := c.History(ctx, 7)
	require.NoError(t, err)
	require.Equal(t, want, got)
}

func TestCache_StoreHistoryReplaces(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.StoreHistory(ctx, 7, []api.HistoryMessage{{Role: "user", Content: "old"}}))
	require.NoError(t, c.StoreHistory(ctx, 7, []api.HistoryMessage{
		{Role: "user", Content: "old"},
		{Role: "assistant", Content: "new"},
	}))

	got, err := c.History(ctx, 7)
	require.NoError(t, err)
	require.Len(t, got, 2)
}

func TestCache_SessionTitleUpdates(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.StoreSessions(ctx, []api.Session{{ID: 1, Title: "draft"}}))
	require.NoError(t, c.StoreSessions(ctx, []api.Session{{ID: 1, Title: "renamed"}}))

	sessions, err := c.Sessions(ctx)
	require.NoError(t, err)
	require.Equal(t, "renamed", sessions[0].Title)
}

func TestCache_Clear(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.StoreSessions(ctx, []api.Session{{ID: 1, Title: "x"}}))
	require.NoError(t, c.StoreHistory(ctx, 1, []api.HistoryMessage{{Role: "user", Content: "q"}}))
	require.NoError(t, c.Clear(ctx))

	sessions, err := c.Sessions(ctx)
	require.NoError(t, err)
	require.Empty(t, sessions)

	msgs, err := c.History(ctx, 1)
	require.NoError(t, err)
	require.Empty(t, msgs)
}

func TestCache_SurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	ctx := context.Background()

	c, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, c.StoreSessions(ctx, []api.Session{{ID: 9, Title: "persisted"}}))
	require.NoError(t, c.Close())

	c, err = Open(path)
	require.NoError(t, err)
	defer c.Close()

	sessions, err := c.Sessions(ctx)
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	require.Equal(t, "persisted", sessions[0].Title)
}
