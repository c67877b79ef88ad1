// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/documind-tui/internal/api"
	"github.com/jeranaias/documind-tui/internal/auth"
	engine "github.com/jeranaias/documind-tui/internal/chat"
	"github.com/jeranaias/documind-tui/internal/config"
	"github.com/jeranaias/documind-tui/internal/model"
	"github.com/jeranaias/documind-tui/internal/session"
)

// testModel wires a guest-mode model against an unreachable server. No test
// here executes commands, so nothing touches the network.
func testModel(t *testing.T) Model {
	t.Helper()
	client := api.NewClient("http://localhost:1")
	coord := session.NewCoordinator(client)
	deps := Deps{
		Config:   config.Default(),
		Identity: auth.NewIdentityStore(client, auth.NewFileCredentialStore(t.TempDir())),
		Sessions: coord,
		Engine:   engine.NewEngine(client, coord),
	}
	m := New(deps)
	resized, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	return resized.(Model)
}

func TestSubmit_EmptyInputIsIgnored(t *testing.T) {
	m := testModel(t)

	updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	got := updated.(Model)

	if got.state != StateReady {
		t.Errorf("state = %v, want StateReady", got.state)
	}
	if cmd != nil {
		t.Error("expected no command for empty input")
	}
	if len(got.messages) != 0 {
		t.Errorf("messages = %d, want 0", len(got.messages))
	}
}

func TestSubmit_StartsExchange(t *testing.T) {
	m := testModel(t)
	m.input.SetValue("what is chunk overlap?")

	updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	got := updated.(Model)

	if got.state != StateStreaming {
		t.Errorf("state = %v, want StateStreaming", got.state)
	}
	if cmd == nil {
		t.Fatal("expected a command batch to start the exchange")
	}
	if len(got.messages) != 1 || got.messages[0].role != model.RoleUser {
		t.Fatalf("messages = %+v, want one user message", got.messages)
	}
	if got.input.Value() != "" {
		t.Error("input should be cleared after submit")
	}
	if got.streamCh == nil {
		t.Error("stream channel should be allocated")
	}
}

func TestSubmit_BlockedWhileStreaming(t *testing.T) {
	m := testModel(t)
	m.input.SetValue("first")
	updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = updated.(Model)

	m.input.SetValue("second")
	updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	got := updated.(Model)

	if cmd != nil {
		t.Error("expected no command while an exchange is in flight")
	}
	if len(got.messages) != 1 {
		t.Errorf("messages = %d, want 1", len(got.messages))
	}
}

func TestEmission_UpdatesStreamingText(t *testing.T) {
	m := testModel(t)
	m.input.SetValue("q")
	updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = updated.(Model)

	updated, cmd := m.Update(StreamEmissionMsg{
		Emission: engine.Emission{Text: "partial answer"},
	})
	got := updated.(Model)

	if got.streaming != "partial answer" {
		t.Errorf("streaming = %q", got.streaming)
	}
	if cmd == nil {
		t.Error("expected a follow-up wait command")
	}
}

func TestStreamClosed_SuccessAppendsAssistantMessage(t *testing.T) {
	m := testModel(t)
	m.input.SetValue("q")
	updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = updated.(Model)

	updated, _ = m.Update(StreamClosedMsg{
		Question: "q",
		Outcome:  engine.Outcome{Kind: engine.OutcomeSuccess, Text: "the answer"},
	})
	got := updated.(Model)

	if got.state != StateReady {
		t.Errorf("state = %v, want StateReady", got.state)
	}
	if len(got.messages) != 2 {
		t.Fatalf("messages = %d, want 2", len(got.messages))
	}
	last := got.messages[len(got.messages)-1]
	if last.role != model.RoleAssistant || last.content != "the answer" {
		t.Errorf("last message = %+v", last)
	}
}

func TestStreamClosed_FailureShowsAdvisory(t *testing.T) {
	m := testModel(t)
	m.input.SetValue("q")
	updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = updated.(Model)

	updated, _ = m.Update(StreamClosedMsg{
		Question: "q",
		Outcome:  engine.Outcome{Kind: engine.OutcomeFailure, Advisory: api.NetworkAdvisory},
	})
	got := updated.(Model)

	if got.errMsg != api.NetworkAdvisory {
		t.Errorf("errMsg = %q, want the network advisory", got.errMsg)
	}
	if len(got.messages) != 2 {
		t.Fatalf("messages = %d, want user message plus system advisory", len(got.messages))
	}
	if got.messages[1].role != model.RoleSystem || got.messages[1].content != api.NetworkAdvisory {
		t.Errorf("advisory message = %+v", got.messages[1])
	}
}

func TestStreamClosed_CancelledKeepsPartialAnswer(t *testing.T) {
	m := testModel(t)
	m.input.SetValue("q")
	updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = updated.(Model)

	updated, _ = m.Update(StreamClosedMsg{
		Question: "q",
		Outcome:  engine.Outcome{Kind: engine.OutcomeCancelled, Text: "partial"},
	})
	got := updated.(Model)

	if len(got.messages) != 2 {
		t.Fatalf("messages = %d, want partial answer kept", len(got.messages))
	}
	if got.messages[1].content != "partial" {
		t.Errorf("partial = %q", got.messages[1].content)
	}
}

func TestLateEmissionAfterSettleIsIgnored(t *testing.T) {
	m := testModel(t)

	updated, cmd := m.Update(StreamEmissionMsg{Emission: engine.Emission{Text: "stale"}})
	got := updated.(Model)

	if got.streaming != "" {
		t.Errorf("streaming = %q, want empty", got.streaming)
	}
	if cmd != nil {
		t.Error("expected no follow-up command outside an exchange")
	}
}

func TestSidebar_GuestModeShowsError(t *testing.T) {
	m := testModel(t)

	updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyCtrlS})
	got := updated.(Model)

	if got.showSessions {
		t.Error("sidebar should not open in guest mode")
	}
	if got.errMsg == "" {
		t.Error("expected a login hint")
	}
}

func TestSessionsLoaded_ClampsCursor(t *testing.T) {
	m := testModel(t)
	m.sessionCursor = 5

	updated, _ := m.Update(SessionsLoadedMsg{Sessions: []api.Session{{ID: 1, Title: "a"}}})
	got := updated.(Model)

	if got.sessionCursor != 0 {
		t.Errorf("sessionCursor = %d, want 0", got.sessionCursor)
	}
	if len(got.sessionList) != 1 {
		t.Errorf("sessionList = %d entries", len(got.sessionList))
	}
}
