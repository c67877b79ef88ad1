// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// app.go - Shared wiring for all documind commands.
package cli

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/jeranaias/documind-tui/internal/api"
	"github.com/jeranaias/documind-tui/internal/auth"
	"github.com/jeranaias/documind-tui/internal/chat"
	"github.com/jeranaias/documind-tui/internal/config"
	"github.com/jeranaias/documind-tui/internal/histcache"
	"github.com/jeranaias/documind-tui/internal/session"
	"github.com/jeranaias/documind-tui/internal/storage"
)

// =============================================================================
// APP
// =============================================================================

// App bundles the wired-up components every command needs. Optional pieces
// (archive, history cache) are nil when disabled in config.
type App struct {
	Config   *config.Config
	Client   *api.Client
	Identity *auth.IdentityStore
	Sessions *session.Coordinator
	Engine   *chat.Engine

	Archive   *storage.Archive
	HistCache *histcache.Cache

	Quiet      bool
	Verbose    bool
	NoMarkdown bool
}

// NewApp loads configuration and wires up the application components.
func NewApp(args Args) (*App, error) {
	setupLogging(args.Verbose)

	var cfg *config.Config
	var err error
	if args.ConfigPath != "" {
		cfg, err = config.LoadFromPath(args.ConfigPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}
	if args.Server != "" {
		cfg.Server.URL = args.Server
	}

	client := api.NewClient(cfg.Server.URL).
		WithTimeout(time.Duration(cfg.Server.TimeoutSecs) * time.Second)

	configDir, err := config.ConfigDir()
	if err != nil {
		return nil, err
	}
	identity := auth.NewIdentityStore(client, auth.NewFileCredentialStore(configDir))

	sessions := session.NewCoordinator(client)
	engine := chat.NewEngine(client, sessions)
	engine.SetMaxTokens(cfg.Chat.MaxTokens)

	app := &App{
		Config:     cfg,
		Client:     client,
		Identity:   identity,
		Sessions:   sessions,
		Engine:     engine,
		Quiet:      args.Quiet,
		Verbose:    args.Verbose,
		NoMarkdown: args.NoMarkdown,
	}

	if cfg.Chat.ArchiveEnabled {
		archive, err := storage.NewArchive()
		if err != nil {
			// Archiving is best-effort; the chat still works without it
			fmt.Fprintf(logWriter(args), "warning: transcript archive unavailable: %v\n", err)
		} else {
			app.Archive = archive
		}
	}

	if cfg.Chat.HistoryCacheEnabled {
		path, err := histcache.DefaultPath()
		if err == nil {
			if cache, err := histcache.Open(path); err == nil {
				app.HistCache = cache
			}
		}
	}

	return app, nil
}

// Close releases resources held by the app.
func (a *App) Close() {
	if a.HistCache != nil {
		a.HistCache.Close()
	}
}

// Token returns the current bearer token ("" in guest mode).
func (a *App) Token() string {
	return a.Identity.Token()
}

func logWriter(args Args) io.Writer {
	if args.Verbose {
		return os.Stderr
	}
	return io.Discard
}

// setupLogging sends diagnostics to a file under the config dir so they
// never interleave with command output. --verbose mirrors them to stderr.
func setupLogging(verbose bool) {
	var writers []io.Writer

	if err := config.EnsureConfigDir(); err == nil {
		if dir, err := config.ConfigDir(); err == nil {
			f, err := os.OpenFile(filepath.Join(dir, "documind.log"),
				os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
			if err == nil {
				writers = append(writers, f)
			}
		}
	}
	if verbose {
		writers = append(writers, os.Stderr)
	}

	if len(writers) == 0 {
		log.SetOutput(io.Discard)
		return
	}
	log.SetOutput(io.MultiWriter(writers...))
}

// RecordExchange archives a finished exchange, if archiving is on.
func (a *App) RecordExchange(question, answer string) {
	if a.Archive == nil || answer == "" {
		return
	}
	sessionID, _ := a.Sessions.Active()
	if _, err := a.Archive.RecordExchange(sessionID, question, answer); err != nil {
		log.Printf("cli: transcript archive failed: %v", err)
	}
}
