// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// config_cmd.go - configuration inspection and editing command.
//
// Subcommands:
//   documind config              Show all settings
//   documind config get KEY      Show one setting
//   documind config set KEY VAL  Change a setting and save
//   documind config path         Print the config file location
package cli

import (
	"errors"
	"fmt"

	"github.com/jeranaias/documind-tui/internal/config"
)

// HandleConfig dispatches the config subcommands.
func HandleConfig(app *App, args Args) error {
	sub := args.Parser.Positional(0)

	switch sub {
	case "", "show", "list":
		return showConfig(app)

	case "get":
		key := args.Parser.Positional(1)
		if key == "" {
			return errors.New("usage: documind config get <key>")
		}
		value, err := app.Config.Get(key)
		if err != nil {
			return err
		}
		fmt.Println(value)
		return nil

	case "set":
		key := args.Parser.Positional(1)
		value := args.Parser.Positional(2)
		if key == "" || value == "" {
			return errors.New("usage: documind config set <key> <value>")
		}
		if err := app.Config.Set(key, value); err != nil {
			return err
		}
		if err := config.Save(app.Config); err != nil {
			return fmt.Errorf("could not save config: %w", err)
		}
		if !app.Quiet {
			fmt.Println(SuccessStyle.Render("Saved") + DimStyle.Render(fmt.Sprintf(" %s = %s", key, value)))
		}
		return nil

	case "path":
		path, err := config.ConfigPath()
		if err != nil {
			return err
		}
		fmt.Println(path)
		return nil

	default:
		return fmt.Errorf("unknown config subcommand: %q (try: show, get, set, path)", sub)
	}
}

// showConfig prints every setting with its current value.
func showConfig(app *App) error {
	for _, key := range config.Keys() {
		value, err := app.Config.Get(key)
		if err != nil {
			return err
		}
		fmt.Printf("%s %s\n",
			LabelStyle.Width(28).Render(key),
			ValueStyle.Render(value))
	}
	return nil
}
