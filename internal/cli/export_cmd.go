// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// export_cmd.go - transcript export command.
//
// "documind export" with no argument lists archived transcripts; with a
// transcript id (or list index) it writes the transcript to a file.
package cli

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/jeranaias/documind-tui/internal/export"
	"github.com/jeranaias/documind-tui/internal/storage"
)

// HandleExport lists or exports archived transcripts.
func HandleExport(app *App, args Args) error {
	if app.Archive == nil {
		return errors.New("transcript archive is disabled - enable chat.archive_enabled in config")
	}

	target := args.Parser.Positional(0)
	if target == "" {
		return listTranscripts(app)
	}
	return exportTranscript(app, args, target)
}

// listTranscripts prints archived transcripts, newest first.
func listTranscripts(app *App) error {
	metas, err := app.Archive.List()
	if err != nil {
		return err
	}
	if len(metas) == 0 {
		fmt.Println(DimStyle.Render("No archived transcripts yet"))
		return nil
	}

	for i, m := range metas {
		fmt.Printf("  %s %s  %s\n",
			ValueStyle.Render(fmt.Sprintf("%2d.", i+1)),
			ValueStyle.Render(m.ID),
			DimStyle.Render(fmt.Sprintf("%s (%d messages, %s)",
				m.Title, m.MessageCount, formatAge(m.UpdatedAt))))
	}
	fmt.Println()
	fmt.Println(DimStyle.Render("Export one with: documind export <id> [--format markdown|json] [--output DIR]"))
	return nil
}

// exportTranscript writes one transcript to disk.
func exportTranscript(app *App, args Args, target string) error {
	tr, err := resolveTranscript(app, target)
	if err != nil {
		return err
	}

	opts := export.DefaultOptions()
	if dir := args.Parser.Flag("output"); dir != "" {
		opts.OutputDir = dir
	}
	if args.Parser.BoolFlag("no-timestamps") {
		opts.IncludeTimestamps = false
	}

	exporter, err := export.ForFormat(args.Parser.FlagOrDefault("format", "markdown"), opts)
	if err != nil {
		return err
	}

	path, err := export.ToFile(tr, exporter, opts)
	if err != nil {
		return err
	}

	if !app.Quiet {
		fmt.Println(SuccessStyle.Render("Exported") + DimStyle.Render(" to "+path))
	}
	return nil
}

// resolveTranscript accepts either a transcript id or a 1-based list index.
func resolveTranscript(app *App, target string) (*storage.Transcript, error) {
	if idx, err := strconv.Atoi(target); err == nil && idx > 0 {
		metas, err := app.Archive.List()
		if err != nil {
			return nil, err
		}
		if idx > len(metas) {
			return nil, fmt.Errorf("no transcript at index %d (have %d)", idx, len(metas))
		}
		return app.Archive.Load(metas[idx-1].ID)
	}

	tr, err := app.Archive.Load(target)
	if errors.Is(err, storage.ErrTranscriptNotFound) {
		return nil, fmt.Errorf("transcript %q not found - list them with: documind export", target)
	}
	return tr, err
}

// formatAge renders a coarse relative age for transcript listings.
func formatAge(t time.Time) string {
	d := time.Since(t)
	switch {
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	default:
		return fmt.Sprintf("%dd ago", int(d.Hours()/24))
	}
}
