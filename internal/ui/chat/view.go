// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// view.go - Rendering for the chat view.
package chat

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/documind-tui/internal/model"
	"github.com/jeranaias/documind-tui/internal/ui/styles"
	"github.com/jeranaias/documind-tui/internal/util"
)

// =============================================================================
// STYLES
// =============================================================================

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(styles.Cyan)

	headerInfoStyle = lipgloss.NewStyle().
			Foreground(styles.TextMuted)

	promptStyle = lipgloss.NewStyle().
			Foreground(styles.Cyan).
			Bold(true)

	userLabelStyle = lipgloss.NewStyle().
			Foreground(styles.Cyan).
			Bold(true)

	assistantLabelStyle = lipgloss.NewStyle().
				Foreground(styles.Purple).
				Bold(true)

	bodyStyle = lipgloss.NewStyle().
			Foreground(styles.TextPrimary)

	statusStyle = lipgloss.NewStyle().
			Foreground(styles.TextMuted)

	errorStyle = lipgloss.NewStyle().
			Foreground(styles.Rose)

	guestStyle = lipgloss.NewStyle().
			Foreground(styles.Amber)

	sidebarStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(styles.Overlay).
			Padding(0, 1)

	selectedStyle = lipgloss.NewStyle().
			Foreground(styles.Cyan).
			Bold(true)
)

// =============================================================================
// VIEW
// =============================================================================

// View renders the full chat screen.
func (m Model) View() string {
	if !m.ready {
		return "loading..."
	}

	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n")

	if m.showSessions {
		b.WriteString(m.renderSidebar())
	} else {
		b.WriteString(m.viewport.View())
	}
	b.WriteString("\n")

	b.WriteString(m.input.View())
	b.WriteString("\n")
	b.WriteString(m.renderStatusBar())

	return b.String()
}

// renderHeader shows the app name, server, account and active session.
func (m Model) renderHeader() string {
	left := headerStyle.Render(" documind ")

	identity := m.deps.Identity.Current()
	account := guestStyle.Render("guest")
	if identity.IsAuthenticated() {
		account = headerInfoStyle.Render(identity.Email)
	}

	sessionPart := ""
	if id, ok := m.deps.Sessions.Active(); ok {
		sessionPart = headerInfoStyle.Render(fmt.Sprintf(" | session %d", id))
	}

	right := headerInfoStyle.Render(m.deps.Config.Server.URL+" | ") + account + sessionPart
	gap := m.width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		return left
	}
	return left + strings.Repeat(" ", gap) + right
}

// renderStatusBar shows errors, transient status, or key hints.
func (m Model) renderStatusBar() string {
	switch {
	case m.errMsg != "":
		return errorStyle.Render(" " + m.errMsg)
	case m.statusMsg != "":
		return statusStyle.Render(" " + m.statusMsg)
	case m.state == StateStreaming:
		return statusStyle.Render(" " + m.spinner.View() + " answering... (Esc cancels)")
	case m.showHelp:
		return statusStyle.Render(" " + m.renderKeyHints())
	default:
		return statusStyle.Render(" Enter send | C-s sessions | C-n new | C-h help | C-c quit")
	}
}

func (m Model) renderKeyHints() string {
	var parts []string
	for _, b := range m.keyMap.ShortHelp() {
		h := b.Help()
		parts = append(parts, h.Key+" "+h.Desc)
	}
	return strings.Join(parts, " | ")
}

// =============================================================================
// CONVERSATION
// =============================================================================

// syncViewport re-renders the conversation and keeps the view pinned to the
// latest content.
func (m *Model) syncViewport() {
	m.viewport.SetContent(m.renderConversation())
	m.viewport.GotoBottom()
}

func (m *Model) renderConversation() string {
	width := max(m.width-2, 20)
	wrap := bodyStyle.Width(width)

	var b strings.Builder
	if len(m.messages) == 0 && m.streaming == "" && m.state != StateStreaming {
		b.WriteString(statusStyle.Render("\n  Ask a question about your uploaded documents.\n"))
		if m.deps.Identity.Token() == "" {
			b.WriteString(guestStyle.Render("\n  Guest mode: conversations are not saved server-side.\n"))
		}
		return b.String()
	}

	for _, msg := range m.messages {
		b.WriteString(m.renderLabel(msg.role))
		b.WriteString("\n")
		b.WriteString(wrap.Render(msg.content))
		b.WriteString("\n\n")
	}

	if m.state == StateStreaming {
		b.WriteString(m.renderLabel(model.RoleAssistant))
		b.WriteString("\n")
		if m.streaming == "" {
			b.WriteString(m.spinner.View())
		} else {
			b.WriteString(wrap.Render(m.streaming))
		}
		b.WriteString("\n")
	}

	return b.String()
}

func (m *Model) renderLabel(role model.Role) string {
	switch role {
	case model.RoleUser:
		return userLabelStyle.Render(role.DisplayName())
	case model.RoleSystem:
		return guestStyle.Render(role.DisplayName())
	default:
		return assistantLabelStyle.Render(role.DisplayName())
	}
}

// =============================================================================
// SESSION SIDEBAR
// =============================================================================

// renderSidebar draws the session picker in place of the conversation.
func (m Model) renderSidebar() string {
	var b strings.Builder
	b.WriteString(headerStyle.Render("Sessions"))
	b.WriteString("\n\n")

	if len(m.sessionList) == 0 {
		b.WriteString(statusStyle.Render("No sessions yet"))
	}

	for i, s := range m.sessionList {
		line := fmt.Sprintf("%4d  %s", s.ID, util.TruncateWidth(s.DisplayTitle(), max(m.width-14, 10)))
		if i == m.sessionCursor {
			b.WriteString(selectedStyle.Render("> " + line))
		} else {
			b.WriteString("  " + statusStyle.Render(line))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(statusStyle.Render("Enter select | Esc close"))

	panel := sidebarStyle.
		Width(max(m.width-4, 20)).
		Height(max(m.viewport.Height-2, 3)).
		Render(b.String())
	return panel
}
