// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// cli.go - CLI parsing and command dispatch for documind.
package cli

import (
	"fmt"
	"os"
	"strings"
)

// Version information (can be overridden at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Command represents the CLI command to execute.
type Command int

const (
	CmdTUI Command = iota
	CmdAsk
	CmdChat
	CmdLogin
	CmdRegister
	CmdLogout
	CmdWhoami
	CmdSessions
	CmdHistory
	CmdUpload
	CmdFiles
	CmdRm
	CmdExport
	CmdConfig
	CmdVersion
	CmdHelp
)

// Args holds parsed CLI arguments.
type Args struct {
	// Global flags
	Quiet      bool
	Verbose    bool
	NoMarkdown bool
	Server     string // override server URL for this invocation
	ConfigPath string // explicit config file

	// Parser over the command-specific remainder
	Parser *ArgParser
}

const usageText = `documind - chat with your documents from the terminal

Documind talks to a DocuMind RAG backend: upload documents, then ask
questions and get streamed answers grounded in them. Works logged in
(persistent sessions, uploads) or as a guest (ephemeral Q&A).

Usage:
  documind                        Start the TUI (default)
  documind ask "question"         Ask a single question
    --session N                   Continue backend session N
    --max-tokens N                Answer token budget (server caps at 1600)
    --no-markdown                 Plain output even on a TTY
  documind chat                   Interactive chat (REPL)
  documind login [email]          Log in (password prompted)
  documind register [email]       Create an account and log in
  documind logout                 Log out and clear stored credentials
  documind whoami                 Show the logged-in account
  documind sessions               List backend chat sessions
  documind history <id>           Show a session's messages
  documind upload <file>...       Upload documents
  documind files                  List uploaded documents
  documind rm <id>                Delete an uploaded document
  documind export [transcript]    Export a local transcript
    --format markdown|json        Export format (default: markdown)
    --output DIR                  Output directory (default: .)
  documind config [show|get|set|path]
                                  Configuration management
  documind version                Show version
  documind help                   Show this help

Global flags:
  --server URL                    Backend URL for this invocation
  --config FILE                   Config file to use
  --quiet, -q                     Suppress non-essential output
  --verbose, -v                   Verbose logging to stderr
  --no-markdown                   Never render markdown

Environment:
  DOCUMIND_SERVER_URL, DOCUMIND_MAX_TOKENS, DOCUMIND_THEME, NO_COLOR

Files:
  ~/.documind/config.toml         Configuration
  ~/.documind/credentials.enc     Encrypted login token
  ~/.documind/transcripts/        Local conversation archive
  ~/.documind/history.db          Offline history cache
`

// =============================================================================
// PARSING
// =============================================================================

// Parse parses os.Args into a command and its arguments.
func Parse() (Command, Args) {
	return parseArgs(os.Args[1:])
}

// parseArgs is the testable core of Parse.
func parseArgs(raw []string) (Command, Args) {
	remaining, args := parseGlobalFlags(raw)

	if len(remaining) == 0 {
		args.Parser = NewArgParser(nil)
		return CmdTUI, args
	}

	cmd := strings.ToLower(remaining[0])
	args.Parser = NewArgParser(remaining[1:])

	switch cmd {
	case "tui":
		return CmdTUI, args
	case "ask":
		return CmdAsk, args
	case "chat":
		return CmdChat, args
	case "login":
		return CmdLogin, args
	case "register", "signup":
		return CmdRegister, args
	case "logout":
		return CmdLogout, args
	case "whoami":
		return CmdWhoami, args
	case "sessions", "session":
		return CmdSessions, args
	case "history":
		return CmdHistory, args
	case "upload", "up":
		return CmdUpload, args
	case "files", "ls":
		return CmdFiles, args
	case "rm", "delete":
		return CmdRm, args
	case "export":
		return CmdExport, args
	case "config":
		return CmdConfig, args
	case "version", "--version", "-V":
		return CmdVersion, args
	case "help", "--help", "-h":
		return CmdHelp, args
	default:
		// Unknown word: treat the whole remainder as an ask question,
		// so `documind what is X` just works
		args.Parser = NewArgParser(remaining)
		return CmdAsk, args
	}
}

// parseGlobalFlags extracts flags that apply to every command.
func parseGlobalFlags(raw []string) ([]string, Args) {
	var args Args
	var remaining []string

	i := 0
	for i < len(raw) {
		switch raw[i] {
		case "--quiet", "-q":
			args.Quiet = true
			i++
		case "--verbose", "-v":
			args.Verbose = true
			i++
		case "--no-markdown":
			args.NoMarkdown = true
			i++
		case "--server":
			if i+1 < len(raw) {
				args.Server = raw[i+1]
				i += 2
			} else {
				i++
			}
		case "--config":
			if i+1 < len(raw) {
				args.ConfigPath = raw[i+1]
				i += 2
			} else {
				i++
			}
		default:
			if v, ok := strings.CutPrefix(raw[i], "--server="); ok {
				args.Server = v
			} else if v, ok := strings.CutPrefix(raw[i], "--config="); ok {
				args.ConfigPath = v
			} else {
				remaining = append(remaining, raw[i])
			}
			i++
		}
	}
	return remaining, args
}

// =============================================================================
// SIMPLE HANDLERS
// =============================================================================

// HandleVersion prints version information.
func HandleVersion() {
	fmt.Printf("documind %s (commit %s, built %s)\n", Version, GitCommit, BuildDate)
}

// HandleHelp prints usage.
func HandleHelp() {
	fmt.Print(usageText)
}
