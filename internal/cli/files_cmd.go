// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// files_cmd.go - document upload and management commands.
//
// All three commands require a logged-in account: uploaded documents are
// scoped to the account that owns them.
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/jeranaias/documind-tui/internal/api"
)

// uploadTimeout is generous: document ingestion includes server-side
// embedding and can take a while for large PDFs.
const uploadTimeout = 5 * time.Minute

// requireLogin returns the bearer token or an actionable error in guest mode.
func requireLogin(app *App, action string) (string, error) {
	token := app.Token()
	if token == "" {
		return "", fmt.Errorf("%s requires login - run: documind login", action)
	}
	return token, nil
}

// =============================================================================
// UPLOAD
// =============================================================================

// HandleUpload uploads one or more documents for retrieval.
func HandleUpload(app *App, args Args) error {
	paths := args.Parser.PositionalFrom(0)
	if len(paths) == 0 {
		return errors.New("usage: documind upload <file> [file...]")
	}

	token, err := requireLogin(app, "upload")
	if err != nil {
		return err
	}

	// Fail before the network round trip on unreadable paths
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return fmt.Errorf("cannot read %s: %w", p, err)
		}
		if info.IsDir() {
			return fmt.Errorf("%s is a directory - upload files individually", p)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), uploadTimeout)
	defer cancel()

	if !app.Quiet {
		fmt.Println(DimStyle.Render(fmt.Sprintf("Uploading %d file(s)...", len(paths))))
	}

	if err := app.Client.Upload(ctx, token, paths); err != nil {
		return describeFilesError(err)
	}

	if !app.Quiet {
		fmt.Println(SuccessStyle.Render("Uploaded") +
			DimStyle.Render(fmt.Sprintf(" %d file(s) - they are now searchable", len(paths))))
	}
	return nil
}

// =============================================================================
// LIST
// =============================================================================

// HandleFiles lists the account's uploaded documents.
func HandleFiles(app *App, args Args) error {
	token, err := requireLogin(app, "files")
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	files, err := app.Client.Files(ctx, token)
	if err != nil {
		return describeFilesError(err)
	}

	if len(files) == 0 {
		fmt.Println(DimStyle.Render("No documents uploaded yet - add some with: documind upload <file>"))
		return nil
	}

	for _, f := range files {
		fmt.Printf("  %s  %s\n",
			ValueStyle.Render(fmt.Sprintf("%4d", f.ID)),
			DimStyle.Render(f.Filename))
	}
	return nil
}

// =============================================================================
// REMOVE
// =============================================================================

// HandleRm deletes an uploaded document by id.
func HandleRm(app *App, args Args) error {
	idArg := args.Parser.Positional(0)
	if idArg == "" {
		return errors.New("usage: documind rm <file-id>")
	}
	id, err := strconv.ParseInt(idArg, 10, 64)
	if err != nil || id <= 0 {
		return fmt.Errorf("invalid file id: %q", idArg)
	}

	token, err := requireLogin(app, "rm")
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := app.Client.DeleteFile(ctx, token, id); err != nil {
		return describeFilesError(err)
	}

	if !app.Quiet {
		fmt.Println(SuccessStyle.Render("Deleted") + DimStyle.Render(fmt.Sprintf(" file %d", id)))
	}
	return nil
}

// =============================================================================
// ERROR PRESENTATION
// =============================================================================

// describeFilesError maps file API failures to actionable messages.
func describeFilesError(err error) error {
	if api.IsNetworkError(err) {
		return errors.New(api.NetworkAdvisory)
	}
	var apiErr *api.APIError
	if errors.As(err, &apiErr) {
		if apiErr.Status == 401 {
			return errors.New("stored login is no longer valid - run: documind login")
		}
		return errors.New(apiErr.Detail())
	}
	return err
}
