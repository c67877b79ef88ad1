// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// auth_cmd.go - login, register, logout and whoami commands.
package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/jeranaias/documind-tui/internal/api"
	"github.com/jeranaias/documind-tui/internal/auth"
)

// =============================================================================
// LOGIN
// =============================================================================

// HandleLogin logs in, prompting for anything not given on the command line.
func HandleLogin(app *App, args Args) error {
	email := args.Parser.Positional(0)
	var err error
	if email == "" {
		email, err = PromptLine("Email: ")
		if err != nil {
			return err
		}
	}

	password := args.Parser.Flag("password")
	if password == "" {
		password, err = PromptPassword("Password: ")
		if err != nil {
			return err
		}
	}

	identity, err := app.Identity.Login(context.Background(), email, password)
	if err != nil {
		return describeAuthError(err)
	}

	if !app.Quiet {
		fmt.Println(SuccessStyle.Render("Logged in") + DimStyle.Render(" as "+identity.Email))
	}
	return nil
}

// =============================================================================
// REGISTER
// =============================================================================

// HandleRegister creates an account and logs in with it.
func HandleRegister(app *App, args Args) error {
	email := args.Parser.Positional(0)
	var err error
	if email == "" {
		email, err = PromptLine("Email: ")
		if err != nil {
			return err
		}
	}

	password, err := PromptPassword("Password (min 6 characters): ")
	if err != nil {
		return err
	}
	confirm, err := PromptPassword("Confirm password: ")
	if err != nil {
		return err
	}

	identity, err := app.Identity.Register(context.Background(), email, password, confirm)
	if errors.Is(err, auth.ErrRegisteredNotLoggedIn) {
		fmt.Println(WarningStyle.Render("Account created, but automatic login failed."))
		fmt.Println(DimStyle.Render("Run: documind login " + email))
		return nil
	}
	if err != nil {
		return describeAuthError(err)
	}

	if !app.Quiet {
		fmt.Println(SuccessStyle.Render("Account created") + DimStyle.Render(" - logged in as "+identity.Email))
	}
	return nil
}

// =============================================================================
// LOGOUT / WHOAMI
// =============================================================================

// HandleLogout clears credentials and the local history cache.
func HandleLogout(app *App, args Args) error {
	app.Identity.Logout()

	// Cached history belongs to the account that fetched it
	if app.HistCache != nil {
		if err := app.HistCache.Clear(context.Background()); err != nil {
			fmt.Println(WarningStyle.Render("warning: could not clear local history cache"))
		}
	}

	if !app.Quiet {
		fmt.Println(SuccessStyle.Render("Logged out"))
	}
	return nil
}

// HandleWhoami shows the logged-in account, verified against the backend.
func HandleWhoami(app *App, args Args) error {
	identity := app.Identity.Current()
	if !identity.IsAuthenticated() {
		fmt.Println(WarningStyle.Render("Not logged in") + DimStyle.Render(" (guest mode)"))
		return nil
	}

	account, err := app.Client.Me(context.Background(), identity.Token)
	if err != nil {
		if api.IsNetworkError(err) {
			// Offline: show what we know locally
			fmt.Println(ValueStyle.Render(identity.Email) + DimStyle.Render(" (offline, not verified)"))
			return nil
		}
		var apiErr *api.APIError
		if errors.As(err, &apiErr) && apiErr.Status == 401 {
			return fmt.Errorf("stored login is no longer valid - run: documind login")
		}
		return err
	}

	fmt.Println(LabelStyle.Render("Email") + ValueStyle.Render(account.Email))
	if account.FullName != "" {
		fmt.Println(LabelStyle.Render("Name") + ValueStyle.Render(account.FullName))
	}
	return nil
}

// =============================================================================
// ERROR PRESENTATION
// =============================================================================

// describeAuthError maps auth failures to actionable messages.
func describeAuthError(err error) error {
	if auth.IsValidationError(err) {
		return err
	}
	var authErr *api.AuthError
	if errors.As(err, &authErr) {
		return errors.New(authErr.Detail)
	}
	if api.IsNetworkError(err) {
		return errors.New(api.NetworkAdvisory)
	}
	return err
}
