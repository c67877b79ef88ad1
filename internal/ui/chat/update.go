// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// update.go - Bubble Tea update loop for the chat view.
package chat

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	engine "github.com/jeranaias/documind-tui/internal/chat"
	"github.com/jeranaias/documind-tui/internal/model"
	"github.com/jeranaias/documind-tui/internal/session"
)

// streamChannelBuffer absorbs bursts of emissions between UI frames.
const streamChannelBuffer = 64

// Update handles all incoming messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		return m.handleResize(msg)

	case tea.KeyMsg:
		return m.handleKey(msg)

	case spinner.TickMsg:
		if m.state == StateStreaming {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
		return m, nil

	case StreamEmissionMsg:
		return m.handleEmission(msg)

	case streamDrainedMsg:
		return m, nil

	case StreamClosedMsg:
		return m.handleStreamClosed(msg)

	case SessionsLoadedMsg:
		return m.handleSessionsLoaded(msg)

	case HistoryLoadedMsg:
		return m.handleHistoryLoaded(msg)

	case statusExpiredMsg:
		m.statusMsg = ""
		return m, nil
	}

	return m, nil
}

// =============================================================================
// RESIZE
// =============================================================================

func (m Model) handleResize(msg tea.WindowSizeMsg) (tea.Model, tea.Cmd) {
	m.width = msg.Width
	m.height = msg.Height

	// header + status bar + input line
	chrome := 3
	m.viewport.Width = msg.Width
	m.viewport.Height = max(msg.Height-chrome, 3)
	m.input.Width = max(msg.Width-4, 20)
	m.ready = true

	m.syncViewport()
	return m, nil
}

// =============================================================================
// KEYS
// =============================================================================

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// Sidebar captures navigation keys while open
	if m.showSessions {
		return m.handleSidebarKey(msg)
	}

	switch {
	case key.Matches(msg, m.keyMap.Quit):
		if m.state == StateStreaming {
			m.deps.Engine.Cancel()
		}
		return m, tea.Quit

	case key.Matches(msg, m.keyMap.Cancel):
		if m.state == StateStreaming {
			// The cancelled outcome arrives via StreamClosedMsg
			m.deps.Engine.Cancel()
		}
		return m, nil

	case key.Matches(msg, m.keyMap.Help):
		m.showHelp = !m.showHelp
		return m, nil

	case key.Matches(msg, m.keyMap.NewSession):
		m.deps.Sessions.Reset()
		m.messages = nil
		m.streaming = ""
		m.syncViewport()
		return m, m.setStatus("New conversation - the next question starts a fresh session")

	case key.Matches(msg, m.keyMap.Sessions):
		return m.toggleSidebar()

	case key.Matches(msg, m.keyMap.PageUp):
		m.viewport.ViewUp()
		return m, nil

	case key.Matches(msg, m.keyMap.PageDown):
		m.viewport.ViewDown()
		return m, nil

	case key.Matches(msg, m.keyMap.Submit):
		return m.submit()
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) handleSidebarKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		if m.sessionCursor > 0 {
			m.sessionCursor--
		}
	case "down", "j":
		if m.sessionCursor < len(m.sessionList)-1 {
			m.sessionCursor++
		}
	case "enter":
		if m.sessionCursor < len(m.sessionList) {
			selected := m.sessionList[m.sessionCursor]
			m.deps.Sessions.Select(selected.ID)
			m.showSessions = false
			return m, loadHistoryCmd(&m, selected.ID)
		}
	case "esc", "ctrl+s", "q":
		m.showSessions = false
	case "ctrl+c":
		return m, tea.Quit
	}
	return m, nil
}

func (m Model) toggleSidebar() (tea.Model, tea.Cmd) {
	if m.showSessions {
		m.showSessions = false
		return m, nil
	}
	if m.deps.Identity.Token() == "" {
		m.setError("Sessions require login - run: documind login")
		return m, nil
	}
	m.showSessions = true
	m.sessionCursor = 0
	m.sessionList = m.deps.Sessions.Cached()
	return m, loadSessionsCmd(&m)
}

// =============================================================================
// EXCHANGE LIFECYCLE
// =============================================================================

func (m Model) submit() (tea.Model, tea.Cmd) {
	if m.state == StateStreaming {
		return m, nil
	}
	question := strings.TrimSpace(m.input.Value())
	if question == "" {
		return m, nil
	}

	m.input.SetValue("")
	m.errMsg = ""
	m.question = question
	m.messages = append(m.messages, displayMessage{role: model.RoleUser, content: question})
	m.state = StateStreaming
	m.streaming = ""
	m.streamCh = make(chan engine.Emission, streamChannelBuffer)
	m.syncViewport()

	return m, tea.Batch(
		askCmd(&m, question, m.streamCh),
		waitForEmission(m.streamCh),
		m.spinnerTick(),
	)
}

func (m Model) handleEmission(msg StreamEmissionMsg) (tea.Model, tea.Cmd) {
	if m.state != StateStreaming {
		// Late emission from a settled exchange; the outcome already has it
		return m, nil
	}
	m.streaming = msg.Emission.Text
	m.syncViewport()
	return m, waitForEmission(m.streamCh)
}

func (m Model) handleStreamClosed(msg StreamClosedMsg) (tea.Model, tea.Cmd) {
	m.state = StateReady
	m.streaming = ""

	if msg.Err != nil {
		m.setError(msg.Err.Error())
		m.syncViewport()
		return m, nil
	}

	var cmd tea.Cmd
	switch msg.Outcome.Kind {
	case engine.OutcomeSuccess:
		m.messages = append(m.messages, displayMessage{role: model.RoleAssistant, content: msg.Outcome.Text})
		m.recordExchange(msg.Question, msg.Outcome.Text)
		// The engine refreshed the coordinator cache after the exchange
		m.sessionList = m.deps.Sessions.Cached()

	case engine.OutcomeCancelled:
		if msg.Outcome.Text != "" {
			m.messages = append(m.messages, displayMessage{role: model.RoleAssistant, content: msg.Outcome.Text})
			m.recordExchange(msg.Question, msg.Outcome.Text)
		}
		cmd = m.setStatus("Cancelled")

	case engine.OutcomeFailure:
		// Failures stay visible in the transcript, not just the status bar
		m.messages = append(m.messages, displayMessage{role: model.RoleSystem, content: msg.Outcome.Advisory})
		m.setError(msg.Outcome.Advisory)
	}

	m.syncViewport()
	return m, cmd
}

// =============================================================================
// SESSION DATA
// =============================================================================

func (m Model) handleSessionsLoaded(msg SessionsLoadedMsg) (tea.Model, tea.Cmd) {
	if msg.Err != nil && len(msg.Sessions) == 0 {
		m.setError("Could not fetch sessions - " + msg.Err.Error())
		return m, nil
	}
	m.sessionList = msg.Sessions
	if m.sessionCursor >= len(m.sessionList) {
		m.sessionCursor = 0
	}
	if m.deps.HistCache != nil {
		// Best-effort offline mirror
		_ = m.deps.HistCache.StoreSessions(context.Background(), msg.Sessions)
	}
	return m, nil
}

func (m Model) handleHistoryLoaded(msg HistoryLoadedMsg) (tea.Model, tea.Cmd) {
	switch msg.Outcome {
	case session.HistoryOK:
		m.messages = m.messages[:0]
		for _, hm := range msg.Messages {
			m.messages = append(m.messages, displayMessage{role: hm.Role, content: hm.Content})
		}
		if m.deps.HistCache != nil {
			_ = m.deps.HistCache.StoreHistory(context.Background(), msg.SessionID, msg.Messages)
		}
		m.syncViewport()
		return m, m.setStatus(fmt.Sprintf("Session %d", msg.SessionID))

	case session.HistoryEmpty:
		m.messages = nil
		m.syncViewport()
		return m, m.setStatus(fmt.Sprintf("Session %d is empty", msg.SessionID))

	case session.HistoryGuestMode:
		m.setError("History requires login - run: documind login")

	case session.HistoryUnavailable:
		if cached := m.cachedHistory(msg.SessionID); len(cached) > 0 {
			m.messages = cached
			m.syncViewport()
			return m, m.setStatus(fmt.Sprintf("Session %d (cached, offline)", msg.SessionID))
		}
		m.setError("Could not fetch history - " + msg.Err.Error())
	}
	return m, nil
}

// cachedHistory serves a session's messages from the offline cache.
func (m *Model) cachedHistory(id int64) []displayMessage {
	if m.deps.HistCache == nil {
		return nil
	}
	msgs, err := m.deps.HistCache.History(context.Background(), id)
	if err != nil {
		return nil
	}
	out := make([]displayMessage, 0, len(msgs))
	for _, hm := range msgs {
		out = append(out, displayMessage{role: hm.Role, content: hm.Content})
	}
	return out
}
