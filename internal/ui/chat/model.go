// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// model.go - Bubble Tea model for the documind chat view.
package chat

import (
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/documind-tui/internal/api"
	"github.com/jeranaias/documind-tui/internal/auth"
	engine "github.com/jeranaias/documind-tui/internal/chat"
	"github.com/jeranaias/documind-tui/internal/config"
	"github.com/jeranaias/documind-tui/internal/histcache"
	"github.com/jeranaias/documind-tui/internal/model"
	"github.com/jeranaias/documind-tui/internal/session"
	"github.com/jeranaias/documind-tui/internal/storage"
	"github.com/jeranaias/documind-tui/internal/ui/styles"
)

// =============================================================================
// STATE
// =============================================================================

// State represents the current state of the chat view.
type State int

const (
	StateReady     State = iota // Ready for input
	StateStreaming              // Receiving a streamed answer
)

// Deps are the wired-up application components the view drives. Archive and
// HistCache may be nil when disabled in config.
type Deps struct {
	Config    *config.Config
	Identity  *auth.IdentityStore
	Sessions  *session.Coordinator
	Engine    *engine.Engine
	Archive   *storage.Archive
	HistCache *histcache.Cache
}

// displayMessage is one rendered turn of the on-screen conversation.
type displayMessage struct {
	role    model.Role
	content string
}

// =============================================================================
// MODEL
// =============================================================================

// Model is the Bubble Tea model for the chat view.
type Model struct {
	deps Deps

	state  State
	width  int
	height int
	ready  bool

	// Conversation
	messages  []displayMessage
	streaming string // cumulative text of the in-flight answer
	question  string // question of the in-flight exchange

	// Stream bridge: the engine goroutine writes, the UI loop reads
	streamCh chan engine.Emission

	// Session sidebar
	showSessions  bool
	sessionList   []api.Session
	sessionCursor int

	// Transient feedback
	statusMsg string
	errMsg    string
	showHelp  bool

	// Components
	viewport viewport.Model
	input    textinput.Model
	spinner  spinner.Model
	keyMap   KeyMap
}

// New creates the chat view model.
func New(deps Deps) Model {
	ti := textinput.New()
	ti.Prompt = promptStyle.Render("> ")
	ti.Placeholder = "Ask about your documents..."
	ti.CharLimit = 4096
	ti.Focus()

	vp := viewport.New(80, 20)

	sp := spinner.New()
	sp.Spinner = spinner.MiniDot
	sp.Style = lipgloss.NewStyle().Foreground(styles.Purple)

	return Model{
		deps:     deps,
		state:    StateReady,
		viewport: vp,
		input:    ti,
		spinner:  sp,
		keyMap:   DefaultKeyMap(),
	}
}

// Init starts the spinner and, when logged in, the initial session fetch.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{textinput.Blink}
	if m.deps.Identity.Token() != "" {
		cmds = append(cmds, loadSessionsCmd(&m))
	}
	return tea.Batch(cmds...)
}

// Run starts the TUI program on the alternate screen.
func Run(deps Deps) error {
	p := tea.NewProgram(New(deps), tea.WithAltScreen())
	_, err := p.Run()
	return err
}

// recordExchange archives a finished exchange, if archiving is on.
func (m *Model) recordExchange(question, answer string) {
	if m.deps.Archive == nil || answer == "" {
		return
	}
	sessionID, _ := m.deps.Sessions.Active()
	m.deps.Archive.RecordExchange(sessionID, question, answer)
}

// setStatus shows a transient status line.
func (m *Model) setStatus(msg string) tea.Cmd {
	m.statusMsg = msg
	m.errMsg = ""
	return statusExpiryCmd()
}

// setError shows a sticky error line (cleared on the next exchange).
func (m *Model) setError(msg string) {
	m.errMsg = msg
	m.statusMsg = ""
}

// spinnerTick keeps the spinner animated while streaming.
func (m *Model) spinnerTick() tea.Cmd {
	return m.spinner.Tick
}
