// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// session_cmd.go - sessions and history commands.
//
// Both commands mirror successful fetches into the local history cache and
// fall back to it when the server is unreachable, so past conversations stay
// readable offline.
package cli

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"time"

	"github.com/jeranaias/documind-tui/internal/api"
	"github.com/jeranaias/documind-tui/internal/model"
	"github.com/jeranaias/documind-tui/internal/session"
	"github.com/jeranaias/documind-tui/internal/util"
)

// =============================================================================
// SESSIONS
// =============================================================================

// HandleSessions lists the account's server-side chat sessions.
func HandleSessions(app *App, args Args) error {
	token := app.Token()
	if token == "" {
		return errors.New("sessions require login - run: documind login")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	sessions, err := app.Sessions.Refresh(ctx, token)
	if err != nil && api.IsNetworkError(err) {
		// Offline: serve the last synced snapshot
		cached, cacheErr := cachedSessions(app)
		if cacheErr == nil && len(cached) > 0 {
			if !app.Quiet {
				fmt.Println(WarningStyle.Render("[offline]") + DimStyle.Render(" showing cached sessions"))
			}
			printSessionList(app, cached)
			return nil
		}
		return errors.New(api.NetworkAdvisory)
	}
	if err != nil {
		return err
	}

	mirrorSessions(app, sessions)

	if len(sessions) == 0 {
		fmt.Println(DimStyle.Render("No sessions yet - start one with: documind ask \"question\""))
		return nil
	}
	printSessionList(app, sessions)
	return nil
}

func printSessionList(app *App, sessions []api.Session) {
	active, _ := app.Sessions.Active()
	for _, s := range sessions {
		marker := "  "
		if s.ID == active {
			marker = PromptStyle.Render("> ")
		}
		title := util.TruncateWidth(s.DisplayTitle(), GetTerminalWidth()-10)
		fmt.Printf("%s%s  %s\n", marker,
			ValueStyle.Render(fmt.Sprintf("%4d", s.ID)),
			DimStyle.Render(title))
	}
}

// =============================================================================
// HISTORY
// =============================================================================

// HandleHistory shows the full message history of one session.
func HandleHistory(app *App, args Args) error {
	idArg := args.Parser.Positional(0)
	if idArg == "" {
		return errors.New("usage: documind history <session-id>")
	}
	id, err := strconv.ParseInt(idArg, 10, 64)
	if err != nil || id <= 0 {
		return fmt.Errorf("invalid session id: %q", idArg)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	messages, outcome, err := app.Sessions.History(ctx, app.Token(), id)
	switch outcome {
	case session.HistoryGuestMode:
		return errors.New("history requires login - run: documind login")

	case session.HistoryUnavailable:
		if api.IsNetworkError(err) {
			cached, cacheErr := cachedHistory(app, id)
			if cacheErr == nil && len(cached) > 0 {
				if !app.Quiet {
					fmt.Println(WarningStyle.Render("[offline]") + DimStyle.Render(" showing cached history"))
				}
				printHistoryMessages(app, cached)
				return nil
			}
			return errors.New(api.NetworkAdvisory)
		}
		return err

	case session.HistoryEmpty:
		fmt.Println(DimStyle.Render("No messages in this session yet"))
		return nil
	}

	mirrorHistory(app, id, messages)
	printHistoryMessages(app, messages)
	return nil
}

func printHistoryMessages(app *App, messages []api.HistoryMessage) {
	render := shouldRenderMarkdown(app)
	for _, msg := range messages {
		label := AssistantStyle.Render(msg.Role.DisplayName())
		if msg.Role == model.RoleUser {
			label = PromptStyle.Render(msg.Role.DisplayName())
		}
		fmt.Println(label)
		if render && msg.Role == model.RoleAssistant {
			fmt.Print(renderMarkdown(msg.Content))
		} else {
			fmt.Println(msg.Content)
		}
		fmt.Println()
	}
}

// =============================================================================
// HISTORY CACHE MIRRORING
// =============================================================================

func mirrorSessions(app *App, sessions []api.Session) {
	if app.HistCache == nil {
		return
	}
	if err := app.HistCache.StoreSessions(context.Background(), sessions); err != nil {
		log.Printf("cli: history cache sync failed: %v", err)
	}
}

func mirrorHistory(app *App, id int64, messages []api.HistoryMessage) {
	if app.HistCache == nil {
		return
	}
	if err := app.HistCache.StoreHistory(context.Background(), id, messages); err != nil {
		log.Printf("cli: history cache sync failed: %v", err)
	}
}

func cachedSessions(app *App) ([]api.Session, error) {
	if app.HistCache == nil {
		return nil, errors.New("history cache disabled")
	}
	return app.HistCache.Sessions(context.Background())
}

func cachedHistory(app *App, id int64) ([]api.HistoryMessage, error) {
	if app.HistCache == nil {
		return nil, errors.New("history cache disabled")
	}
	return app.HistCache.History(context.Background(), id)
}
