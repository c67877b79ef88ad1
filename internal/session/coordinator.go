// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session tracks which backend conversation the client is in.
package session

import (
	"context"
	"errors"
	"log"
	"sync"

	"github.com/jeranaias/documind-tui/internal/api"
)

// =============================================================================
// HISTORY OUTCOME
// =============================================================================

// HistoryOutcome classifies a history fetch so callers can render the right
// thing without inspecting errors.
type HistoryOutcome int

const (
	// HistoryOK means messages were retrieved.
	HistoryOK HistoryOutcome = iota
	// HistoryEmpty means the session exists but holds no messages.
	HistoryEmpty
	// HistoryGuestMode means no fetch was attempted: guests have no
	// server-side history.
	HistoryGuestMode
	// HistoryUnavailable means the fetch failed; the session may still
	// exist.
	HistoryUnavailable
)

// String returns the outcome name.
func (o HistoryOutcome) String() string {
	switch o {
	case HistoryOK:
		return "ok"
	case HistoryEmpty:
		return "empty"
	case HistoryGuestMode:
		return "guest"
	default:
		return "unavailable"
	}
}

// =============================================================================
// COORDINATOR
// =============================================================================

// Coordinator mirrors the backend's session state: the active conversation
// id and the last known session list.
//
// Session ids are numeric; equality is numeric, so a server-reported "7"
// matches a selected 7. Zero means "no active session" - the next question
// starts a fresh conversation and the backend assigns the id.
type Coordinator struct {
	mu       sync.Mutex
	client   *api.Client
	active   int64
	sessions []api.Session
}

// NewCoordinator creates a coordinator with no active session.
func NewCoordinator(client *api.Client) *Coordinator {
	return &Coordinator{client: client}
}

// Active returns the active session id, and whether one is set.
func (c *Coordinator) Active() (int64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active, c.active != 0
}

// ActiveRef returns the active id as a request pointer: nil when no session
// is active, so the serialized request carries an explicit null.
func (c *Coordinator) ActiveRef() *int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active == 0 {
		return nil
	}
	id := c.active
	return &id
}

// Select makes id the active session. Subsequent questions continue that
// conversation.
func (c *Coordinator) Select(id int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.active = id
}

// Reset clears the active session. The next question starts a new
// conversation.
func (c *Coordinator) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.active = 0
}

// ObserveAssignedID records the session id the server reported for an
// answer. The server's id is authoritative: it overwrites the active id even
// when one was already selected. Absent or non-numeric values change
// nothing. Returns whether the active id changed.
func (c *Coordinator) ObserveAssignedID(header string) bool {
	id, ok := api.ParseSessionID(header)
	if !ok {
		return false
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active == id {
		return false
	}
	c.active = id
	return true
}

// Refresh fetches the session list. Guests get an empty list without a
// network call. A rate-limited or failed refresh degrades to the cached
// list; only hard failures surface the error.
func (c *Coordinator) Refresh(ctx context.Context, token string) ([]api.Session, error) {
	if token == "" {
		return nil, nil
	}

	sessions, err := c.client.Sessions(ctx, token)
	if errors.Is(err, api.ErrRateLimited) {
		return c.Cached(), nil
	}
	if err != nil {
		log.Printf("session: refresh failed: %v", err)
		return c.Cached(), err
	}

	c.mu.Lock()
	c.sessions = sessions
	c.mu.Unlock()
	return sessions, nil
}

// Cached returns the session list from the last successful refresh.
func (c *Coordinator) Cached() []api.Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sessions
}

// History fetches the message history of a session. The outcome tells the
// caller what to render; err is non-nil only for HistoryUnavailable.
func (c *Coordinator) History(ctx context.Context, token string, id int64) ([]api.HistoryMessage, HistoryOutcome, error) {
	if token == "" {
		return nil, HistoryGuestMode, nil
	}

	msgs, err := c.client.History(ctx, token, id)
	if err != nil {
		return nil, HistoryUnavailable, err
	}
	if len(msgs) == 0 {
		return msgs, HistoryEmpty, nil
	}
	return msgs, HistoryOK, nil
}
