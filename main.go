// documind - chat with your documents from the terminal.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"fmt"
	"os"

	"github.com/jeranaias/documind-tui/internal/api"
	"github.com/jeranaias/documind-tui/internal/cli"
	"github.com/jeranaias/documind-tui/internal/config"
	"github.com/jeranaias/documind-tui/internal/ui/chat"
)

// Version information (set at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

func main() {
	cli.Version = Version
	cli.GitCommit = GitCommit
	cli.BuildDate = BuildDate
	api.Version = Version

	cmd, args := cli.Parse()

	// Commands that need no backend wiring
	switch cmd {
	case cli.CmdVersion:
		cli.HandleVersion()
		return
	case cli.CmdHelp:
		cli.HandleHelp()
		return
	}

	app, err := cli.NewApp(args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	defer app.Close()

	if err := dispatch(cmd, app, args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		app.Close()
		os.Exit(1)
	}
}

// dispatch routes a parsed command to its handler.
func dispatch(cmd cli.Command, app *cli.App, args cli.Args) error {
	switch cmd {
	case cli.CmdTUI:
		return runTUI(app, args)
	case cli.CmdAsk:
		return cli.HandleAsk(app, args)
	case cli.CmdChat:
		return cli.HandleChat(app, args)
	case cli.CmdLogin:
		return cli.HandleLogin(app, args)
	case cli.CmdRegister:
		return cli.HandleRegister(app, args)
	case cli.CmdLogout:
		return cli.HandleLogout(app, args)
	case cli.CmdWhoami:
		return cli.HandleWhoami(app, args)
	case cli.CmdSessions:
		return cli.HandleSessions(app, args)
	case cli.CmdHistory:
		return cli.HandleHistory(app, args)
	case cli.CmdUpload:
		return cli.HandleUpload(app, args)
	case cli.CmdFiles:
		return cli.HandleFiles(app, args)
	case cli.CmdRm:
		return cli.HandleRm(app, args)
	case cli.CmdExport:
		return cli.HandleExport(app, args)
	case cli.CmdConfig:
		return cli.HandleConfig(app, args)
	default:
		return fmt.Errorf("unhandled command %d", cmd)
	}
}

// runTUI starts the full-screen chat interface. Config edits made while the
// TUI runs are picked up live for the settings that can change mid-session.
func runTUI(app *cli.App, args cli.Args) error {
	if !cli.IsTTY() {
		return fmt.Errorf("the TUI requires an interactive terminal - try: documind ask \"question\"")
	}

	cfgPath := args.ConfigPath
	if cfgPath == "" {
		if p, err := config.ConfigPath(); err == nil {
			cfgPath = p
		}
	}
	if cfgPath != "" {
		watcher, err := config.NewWatcher(cfgPath, func(cfg *config.Config) {
			app.Engine.SetMaxTokens(cfg.Chat.MaxTokens)
		})
		if err == nil {
			defer watcher.Close()
		}
	}

	return chat.Run(chat.Deps{
		Config:    app.Config,
		Identity:  app.Identity,
		Sessions:  app.Sessions,
		Engine:    app.Engine,
		Archive:   app.Archive,
		HistCache: app.HistCache,
	})
}
