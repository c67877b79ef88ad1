// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// messages.go - Bubble Tea messages bridging backend events into the UI loop.
package chat

import (
	"github.com/jeranaias/documind-tui/internal/api"
	engine "github.com/jeranaias/documind-tui/internal/chat"
	"github.com/jeranaias/documind-tui/internal/session"
)

// StreamEmissionMsg carries one cumulative answer snapshot from the engine.
type StreamEmissionMsg struct {
	Emission engine.Emission
}

// StreamClosedMsg signals that the exchange finished, however it ended.
type StreamClosedMsg struct {
	Question string
	Outcome  engine.Outcome
	Err      error
}

// streamDrainedMsg signals the emission channel is closed and empty.
type streamDrainedMsg struct{}

// SessionsLoadedMsg carries a refreshed session list (or the failure).
type SessionsLoadedMsg struct {
	Sessions []api.Session
	Err      error
}

// HistoryLoadedMsg carries a fetched session history for display.
type HistoryLoadedMsg struct {
	SessionID int64
	Messages  []api.HistoryMessage
	Outcome   session.HistoryOutcome
	Err       error
}

// statusExpiredMsg clears a transient status line.
type statusExpiredMsg struct{}
