// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// commands.go - Bubble Tea commands that run backend work off the UI loop.
package chat

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	engine "github.com/jeranaias/documind-tui/internal/chat"
)

// askCmd runs one exchange on the engine. Emissions are relayed through ch;
// the channel is closed when the exchange settles so pending readers drain.
func askCmd(m *Model, question string, ch chan engine.Emission) tea.Cmd {
	eng := m.deps.Engine
	token := m.deps.Identity.Token()
	return func() tea.Msg {
		outcome, err := eng.Ask(context.Background(), token, question, func(em engine.Emission) {
			ch <- em
		})
		close(ch)
		return StreamClosedMsg{Question: question, Outcome: outcome, Err: err}
	}
}

// waitForEmission reads the next cumulative snapshot from the stream channel.
func waitForEmission(ch chan engine.Emission) tea.Cmd {
	return func() tea.Msg {
		em, ok := <-ch
		if !ok {
			return streamDrainedMsg{}
		}
		return StreamEmissionMsg{Emission: em}
	}
}

// loadSessionsCmd refreshes the server-side session list.
func loadSessionsCmd(m *Model) tea.Cmd {
	coord := m.deps.Sessions
	token := m.deps.Identity.Token()
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		sessions, err := coord.Refresh(ctx, token)
		return SessionsLoadedMsg{Sessions: sessions, Err: err}
	}
}

// loadHistoryCmd fetches one session's messages for display.
func loadHistoryCmd(m *Model, id int64) tea.Cmd {
	coord := m.deps.Sessions
	token := m.deps.Identity.Token()
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		msgs, outcome, err := coord.History(ctx, token, id)
		return HistoryLoadedMsg{SessionID: id, Messages: msgs, Outcome: outcome, Err: err}
	}
}

// statusExpiryCmd clears the transient status line after a short delay.
func statusExpiryCmd() tea.Cmd {
	return tea.Tick(4*time.Second, func(time.Time) tea.Msg {
		return statusExpiredMsg{}
	})
}
