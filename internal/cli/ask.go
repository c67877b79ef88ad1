// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// ask.go - One-shot question command with streamed output.
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/charmbracelet/glamour"

	"github.com/jeranaias/documind-tui/internal/chat"
)

// =============================================================================
// MARKDOWN RENDERING
// =============================================================================

// markdownRenderer is the glamour renderer for markdown output.
// USABILITY: Renders markdown answers with syntax highlighting.
var markdownRenderer *glamour.TermRenderer

func init() {
	var err error
	markdownRenderer, err = glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(80),
	)
	if err != nil {
		// Fall back to plain text if renderer initialization fails
		markdownRenderer = nil
	}
}

// renderMarkdown renders markdown content for terminal display.
// Returns the original content if rendering fails or is unavailable.
func renderMarkdown(content string) string {
	if markdownRenderer == nil {
		return content
	}
	rendered, err := markdownRenderer.Render(content)
	if err != nil {
		return content
	}
	return rendered
}

// shouldRenderMarkdown reports whether the final answer should be rendered.
// Only on a TTY: piped output must stay byte-faithful.
func shouldRenderMarkdown(app *App) bool {
	return !app.NoMarkdown && app.Config.UI.Markdown && IsStdoutTTY()
}

// =============================================================================
// ASK COMMAND
// =============================================================================

// HandleAsk sends a single question and streams the answer to stdout.
func HandleAsk(app *App, args Args) error {
	question := args.Parser.JoinPositional(0)
	if strings.TrimSpace(question) == "" {
		return errors.New("usage: documind ask \"question\"")
	}

	if sid := args.Parser.FlagIntOrDefault("session", 0); sid > 0 {
		app.Sessions.Select(int64(sid))
	}
	if mt := args.Parser.FlagIntOrDefault("max-tokens", 0); mt > 0 {
		app.Engine.SetMaxTokens(mt)
	}

	// Ctrl-C cancels the stream but keeps partial output
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	outcome, err := runExchange(ctx, app, question, shouldRenderMarkdown(app))
	if err != nil {
		return err
	}

	switch outcome.Kind {
	case chat.OutcomeSuccess:
		app.RecordExchange(question, outcome.Text)
		return nil
	case chat.OutcomeCancelled:
		fmt.Fprintln(os.Stderr, DimStyle.Render("\n(cancelled)"))
		app.RecordExchange(question, outcome.Text)
		return nil
	default:
		return errors.New(outcome.Advisory)
	}
}

// runExchange drives one exchange. With rendering on, the answer is
// buffered and printed once as rendered markdown; with rendering off,
// tokens stream straight to stdout as they arrive.
func runExchange(ctx context.Context, app *App, question string, render bool) (chat.Outcome, error) {
	var printed int

	emit := func(e chat.Emission) {
		if render {
			return
		}
		// Emissions are cumulative; print only the unseen suffix
		if len(e.Text) > printed {
			fmt.Print(e.Text[printed:])
			printed = len(e.Text)
		}
	}

	outcome, err := app.Engine.Ask(ctx, app.Token(), question, emit)
	if err != nil {
		return chat.Outcome{}, err
	}

	if render && outcome.Text != "" {
		fmt.Print(renderMarkdown(outcome.Text))
	} else if printed > 0 {
		fmt.Println()
	}
	return outcome, nil
}
