// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// terminal.go - Terminal detection and interaction for the documind CLI.
//
// USABILITY: TTY detection for proper terminal handling
//
// Colors and prompts are only used on real terminals:
// - Interactive terminals get colors, prompts, and markdown rendering
// - Piped output stays plain
// - NO_COLOR and FORCE_COLOR are respected
package cli

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/muesli/termenv"
	"golang.org/x/term"
)

// =============================================================================
// TTY DETECTION
// =============================================================================

// IsTTY returns true if stdin is a terminal.
// Use this to determine if interactive prompts are possible.
func IsTTY() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

// IsStdoutTTY returns true if stdout is a terminal.
// Use this to determine if colored output should be used.
func IsStdoutTTY() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

// GetTerminalWidth returns the current terminal width, with a floor and a
// fallback for non-terminals.
func GetTerminalWidth() int {
	const (
		defaultWidth = 80
		minWidth     = 40
	)
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return defaultWidth
	}
	if width < minWidth {
		return minWidth
	}
	return width
}

// =============================================================================
// COLOR CONTROL
// =============================================================================

var (
	colorsForced  bool
	colorsForcedV bool
	colorsMu      sync.Mutex
)

// ColorsEnabled reports whether colored output should be used.
// Honors NO_COLOR (https://no-color.org/) and FORCE_COLOR.
func ColorsEnabled() bool {
	colorsMu.Lock()
	if colorsForced {
		v := colorsForcedV
		colorsMu.Unlock()
		return v
	}
	colorsMu.Unlock()

	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	if os.Getenv("FORCE_COLOR") != "" {
		return true
	}
	return IsStdoutTTY()
}

// ForceColorsEnabled overrides color detection (for tests and flags).
func ForceColorsEnabled(enabled bool) {
	colorsMu.Lock()
	defer colorsMu.Unlock()
	colorsForced = true
	colorsForcedV = enabled
}

// GetColorProfile returns the termenv profile matching color settings.
func GetColorProfile() termenv.Profile {
	if !ColorsEnabled() {
		return termenv.Ascii
	}
	return termenv.ColorProfile()
}

// =============================================================================
// PROMPTS
// =============================================================================

// PromptLine reads a line of input after printing a prompt. Returns an error
// when stdin is not a terminal: never hang a script waiting for input.
func PromptLine(prompt string) (string, error) {
	if !IsTTY() {
		return "", fmt.Errorf("%s: interactive input required (stdin is not a terminal)", strings.TrimSuffix(prompt, ": "))
	}
	fmt.Print(prompt)
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// PromptPassword reads a password without echoing it.
func PromptPassword(prompt string) (string, error) {
	if !IsTTY() {
		return "", fmt.Errorf("password prompt requires a terminal")
	}
	fmt.Print(prompt)
	pw, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Println()
	if err != nil {
		return "", err
	}
	return string(pw), nil
}
