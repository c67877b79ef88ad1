// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// chat.go - Interactive chat command handler for documind CLI.
//
// USABILITY: Markdown rendering and input history for better CLI experience
//
// Handles the "documind chat" command which provides an interactive REPL
// for conversing with the DocuMind backend.
//
// Command: chat
// Short:   Start an interactive chat session
// Aliases: (none)
//
// Examples:
//   documind chat                     Start interactive chat
//   documind chat --session 7        Continue server session 7
//
// Interactive Commands (during chat):
//   /help, /h           Show available commands
//   /new, /n            Start a new conversation
//   /sessions           List server-side sessions
//   /session N          Switch to session N
//   /history            Show the active session's history
//   /status, /s         Show session statistics
//   /quit, /q           Exit chat
//   Ctrl+C              Cancel current answer
//   Ctrl+D              Exit chat
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/peterh/liner"

	"github.com/jeranaias/documind-tui/internal/chat"
	"github.com/jeranaias/documind-tui/internal/config"
	"github.com/jeranaias/documind-tui/internal/model"
	"github.com/jeranaias/documind-tui/internal/session"
	"github.com/jeranaias/documind-tui/internal/util"
)

// =============================================================================
// INPUT HISTORY
// =============================================================================

// ChatCLI provides input history and line editing for interactive chat.
// USABILITY: Supports arrow keys for history navigation and line editing.
type ChatCLI struct {
	line        *liner.State
	historyFile string
}

// NewChatCLI creates a new ChatCLI with input history support.
func NewChatCLI() *ChatCLI {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)

	configDir, err := config.ConfigDir()
	if err != nil {
		// Fallback to temp directory if config dir unavailable
		configDir = os.TempDir()
	}

	cli := &ChatCLI{
		line:        line,
		historyFile: filepath.Join(configDir, "chat_history"),
	}
	cli.LoadHistory()
	return cli
}

// LoadHistory loads input history from file.
func (c *ChatCLI) LoadHistory() {
	if f, err := os.Open(c.historyFile); err == nil {
		c.line.ReadHistory(f)
		f.Close()
	}
}

// ReadInput reads a line of input with the given prompt.
// Supports history navigation with arrow keys.
func (c *ChatCLI) ReadInput(prompt string) (string, error) {
	input, err := c.line.Prompt(prompt)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(input) != "" {
		c.line.AppendHistory(input)
	}
	return input, nil
}

// SaveHistory persists input history with owner-only permissions.
func (c *ChatCLI) SaveHistory() {
	if err := config.EnsureConfigDir(); err != nil {
		return
	}
	f, err := os.OpenFile(c.historyFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return
	}
	defer f.Close()
	c.line.WriteHistory(f)
}

// Close saves history and closes the liner.
func (c *ChatCLI) Close() {
	c.SaveHistory()
	c.line.Close()
}

// =============================================================================
// CHAT HANDLER
// =============================================================================

// HandleChat runs the interactive REPL against the DocuMind backend.
func HandleChat(app *App, args Args) error {
	if !IsTTY() {
		return fmt.Errorf("chat requires an interactive terminal - use: documind ask \"question\"")
	}

	if sid := args.Parser.FlagIntOrDefault("session", 0); sid > 0 {
		app.Sessions.Select(int64(sid))
	}

	input := NewChatCLI()
	defer input.Close()

	startTime := time.Now()
	exchanges := 0

	if !app.Quiet {
		printChatWelcome(app)
	}

	// First Ctrl+C during an answer cancels the stream; at the prompt,
	// liner turns it into ErrPromptAborted and we exit.
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)
	go func() {
		for range sigChan {
			app.Engine.Cancel()
		}
	}()

	for {
		line, err := input.ReadInput(PromptStyle.Render("documind> "))
		if err != nil {
			// liner.ErrPromptAborted (Ctrl+C) or EOF (Ctrl+D)
			fmt.Println()
			printChatSummary(app, exchanges, startTime)
			return nil
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, "/") {
			keepGoing, err := handleSlashCommand(app, line)
			if err != nil {
				fmt.Fprintf(os.Stderr, "%s %v\n", ErrorStyle.Render("[Error]"), err)
			}
			if !keepGoing {
				printChatSummary(app, exchanges, startTime)
				return nil
			}
			continue
		}

		if strings.EqualFold(line, "exit") || strings.EqualFold(line, "quit") {
			printChatSummary(app, exchanges, startTime)
			return nil
		}

		if err := chatExchange(app, line); err != nil {
			fmt.Fprintf(os.Stderr, "%s %v\n", ErrorStyle.Render("[Error]"), err)
			continue
		}
		exchanges++
	}
}

// chatExchange sends one question and shows the streamed answer.
func chatExchange(app *App, question string) error {
	fmt.Println()

	outcome, err := runExchange(context.Background(), app, question, shouldRenderMarkdown(app))
	if err != nil {
		return err
	}

	switch outcome.Kind {
	case chat.OutcomeSuccess:
		app.RecordExchange(question, outcome.Text)
	case chat.OutcomeCancelled:
		fmt.Println(DimStyle.Render("(cancelled)"))
		app.RecordExchange(question, outcome.Text)
	case chat.OutcomeFailure:
		return fmt.Errorf("%s", outcome.Advisory)
	}

	fmt.Println()
	return nil
}

// =============================================================================
// SLASH COMMANDS
// =============================================================================

// handleSlashCommand processes slash commands.
// Returns (keepGoing, error) where keepGoing=false means exit.
func handleSlashCommand(app *App, cmd string) (bool, error) {
	parts := strings.Fields(cmd)
	command := strings.ToLower(parts[0])
	rest := parts[1:]

	switch command {
	case "/help", "/h", "/?", "/":
		printChatHelp()
		return true, nil

	case "/new", "/n":
		app.Sessions.Reset()
		fmt.Println(SuccessStyle.Render("[New conversation]") +
			DimStyle.Render(" the next question starts a fresh session"))
		return true, nil

	case "/sessions":
		return true, printChatSessions(app)

	case "/session":
		return true, switchChatSession(app, rest)

	case "/history":
		return true, printChatHistory(app)

	case "/status", "/s":
		printChatStatus(app)
		return true, nil

	case "/quit", "/q", "/exit":
		return false, nil

	default:
		return true, fmt.Errorf("unknown command: %s (type /help for commands)", command)
	}
}

// printChatSessions lists server-side sessions inside the REPL.
func printChatSessions(app *App) error {
	token := app.Token()
	if token == "" {
		return fmt.Errorf("sessions require login - run: documind login")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	sessions, err := app.Sessions.Refresh(ctx, token)
	if err != nil && len(sessions) == 0 {
		return fmt.Errorf("could not fetch sessions: %v", err)
	}
	if len(sessions) == 0 {
		fmt.Println(DimStyle.Render("[No sessions yet]"))
		return nil
	}

	active, _ := app.Sessions.Active()
	fmt.Println()
	for _, s := range sessions {
		marker := "  "
		if s.ID == active {
			marker = PromptStyle.Render("> ")
		}
		fmt.Printf("%s%s %s\n", marker,
			ValueStyle.Render(fmt.Sprintf("%4d", s.ID)),
			DimStyle.Render(s.DisplayTitle()))
	}
	fmt.Println()
	return nil
}

// switchChatSession changes the active session from "/session N".
func switchChatSession(app *App, args []string) error {
	if len(args) == 0 {
		if id, ok := app.Sessions.Active(); ok {
			fmt.Println(DimStyle.Render(fmt.Sprintf("[Active session: %d]", id)))
		} else {
			fmt.Println(DimStyle.Render("[No active session - the next question starts one]"))
		}
		return nil
	}

	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil || id <= 0 {
		return fmt.Errorf("usage: /session N")
	}
	app.Sessions.Select(id)
	fmt.Println(SuccessStyle.Render(fmt.Sprintf("[Switched to session %d]", id)))
	return nil
}

// printChatHistory shows the active session's server-side history.
func printChatHistory(app *App) error {
	id, ok := app.Sessions.Active()
	if !ok {
		fmt.Println(DimStyle.Render("[No active session yet]"))
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	messages, outcome, err := app.Sessions.History(ctx, app.Token(), id)
	switch outcome {
	case session.HistoryGuestMode:
		return fmt.Errorf("history requires login - run: documind login")
	case session.HistoryUnavailable:
		return fmt.Errorf("could not fetch history: %v", err)
	case session.HistoryEmpty:
		fmt.Println(DimStyle.Render("[No messages in this session]"))
		return nil
	}

	fmt.Println()
	for _, msg := range messages {
		label := AssistantStyle.Render(msg.Role.DisplayName())
		if msg.Role == model.RoleUser {
			label = PromptStyle.Render(msg.Role.DisplayName())
		}
		content := util.TruncateWidth(util.CollapseWhitespace(msg.Content), GetTerminalWidth()-12)
		fmt.Printf("  %s: %s\n", label, content)
	}
	fmt.Println()
	return nil
}

// =============================================================================
// DISPLAY
// =============================================================================

// printChatWelcome prints the welcome banner.
func printChatWelcome(app *App) {
	fmt.Println()
	fmt.Println(TitleStyle.Render("documind interactive chat"))
	fmt.Println(DimStyle.Render(strings.Repeat("─", 30)))
	fmt.Printf("%s %s\n",
		DimStyle.Render("Server:"),
		ValueStyle.Render(app.Config.Server.URL))

	identity := app.Identity.Current()
	if identity.IsAuthenticated() {
		fmt.Printf("%s %s\n",
			DimStyle.Render("Account:"),
			SuccessStyle.Render(identity.Email))
	} else {
		fmt.Printf("%s %s\n",
			DimStyle.Render("Account:"),
			WarningStyle.Render("guest (sessions are not saved server-side)"))
	}

	if id, ok := app.Sessions.Active(); ok {
		fmt.Printf("%s %s\n",
			DimStyle.Render("Session:"),
			ValueStyle.Render(strconv.FormatInt(id, 10)))
	}

	fmt.Println()
	fmt.Println(DimStyle.Render("Type your question and press Enter. Commands: /help, /quit"))
	fmt.Println()
}

// printChatHelp prints available commands.
func printChatHelp() {
	commands := []struct {
		cmd  string
		desc string
	}{
		{"/help, /h", "Show this help"},
		{"/new, /n", "Start a new conversation"},
		{"/sessions", "List server-side sessions"},
		{"/session N", "Switch to session N"},
		{"/history", "Show the active session's history"},
		{"/status, /s", "Show session statistics"},
		{"/quit, /q", "Exit chat"},
	}

	fmt.Println()
	fmt.Println(TitleStyle.Render("Available Commands"))
	fmt.Println(DimStyle.Render(strings.Repeat("─", 20)))
	fmt.Println()
	for _, c := range commands {
		fmt.Printf("  %s  %s\n",
			SuccessStyle.Render(fmt.Sprintf("%-12s", c.cmd)),
			DimStyle.Render(c.desc))
	}
	fmt.Println()
	fmt.Println(DimStyle.Render("Tip: Ctrl+C cancels the current answer, Ctrl+D exits"))
	fmt.Println()
}

// printChatStatus prints current REPL state.
func printChatStatus(app *App) {
	fmt.Println()
	fmt.Println(TitleStyle.Render("Session Status"))
	fmt.Println(DimStyle.Render(strings.Repeat("─", 20)))
	fmt.Println()

	fmt.Printf("  %s %s\n",
		DimStyle.Render("Server:"),
		ValueStyle.Render(app.Config.Server.URL))

	identity := app.Identity.Current()
	if identity.IsAuthenticated() {
		fmt.Printf("  %s %s\n", DimStyle.Render("Account:"), ValueStyle.Render(identity.Email))
	} else {
		fmt.Printf("  %s %s\n", DimStyle.Render("Account:"), WarningStyle.Render("guest"))
	}

	if id, ok := app.Sessions.Active(); ok {
		fmt.Printf("  %s %d\n", DimStyle.Render("Session:"), id)
	} else {
		fmt.Printf("  %s %s\n", DimStyle.Render("Session:"), DimStyle.Render("none yet"))
	}

	fmt.Printf("  %s %s\n", DimStyle.Render("State:"), ValueStyle.Render(app.Engine.State().String()))
	fmt.Println()
}

// printChatSummary prints the exit summary.
func printChatSummary(app *App, exchanges int, startTime time.Time) {
	if exchanges == 0 {
		fmt.Println(DimStyle.Render("Goodbye!"))
		return
	}

	elapsed := time.Since(startTime).Round(time.Second)
	fmt.Println()
	fmt.Println(TitleStyle.Render("Session Summary"))
	fmt.Println(DimStyle.Render(strings.Repeat("─", 15)))
	fmt.Printf("  %s %d\n", DimStyle.Render("Exchanges:"), exchanges)
	if id, ok := app.Sessions.Active(); ok {
		fmt.Printf("  %s %d\n", DimStyle.Render("Session:"), id)
	}
	fmt.Printf("  %s %s\n", DimStyle.Render("Duration:"), elapsed.String())
	fmt.Println()
	fmt.Println(DimStyle.Render("Goodbye!"))
}
