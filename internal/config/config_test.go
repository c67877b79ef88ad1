// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading and management for documind.
package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.Server.URL != "http://localhost:8000" {
		t.Errorf("Server.URL = %q", cfg.Server.URL)
	}
	if cfg.Server.TimeoutSecs != 60 {
		t.Errorf("Server.TimeoutSecs = %d", cfg.Server.TimeoutSecs)
	}
	if cfg.Chat.MaxTokens != 1600 {
		t.Errorf("Chat.MaxTokens = %d", cfg.Chat.MaxTokens)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config must validate: %v", err)
	}
}

func TestLoadFromPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	data := `
[server]
url = "https://docs.example.com"

[chat]
max_tokens = 800

[ui]
theme = "light"
`
	if err := os.WriteFile(path, []byte(data), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("LoadFromPath() error: %v", err)
	}

	if cfg.Server.URL != "https://docs.example.com" {
		t.Errorf("Server.URL = %q", cfg.Server.URL)
	}
	if cfg.Chat.MaxTokens != 800 {
		t.Errorf("Chat.MaxTokens = %d", cfg.Chat.MaxTokens)
	}
	if cfg.UI.Theme != "light" {
		t.Errorf("UI.Theme = %q", cfg.UI.Theme)
	}
	// Unset fields keep defaults
	if cfg.Server.TimeoutSecs != 60 {
		t.Errorf("Server.TimeoutSecs = %d, want default 60", cfg.Server.TimeoutSecs)
	}
}

func TestLoadFromPath_InvalidValues(t *testing.T) {
	tests := []struct {
		name string
		toml string
	}{
		{"bad url scheme", "[server]\nurl = \"ftp://x\"\n"},
		{"negative max tokens", "[chat]\nmax_tokens = -1\n"},
		{"unknown theme", "[ui]\ntheme = \"sepia\"\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.toml")
			if err := os.WriteFile(path, []byte(tt.toml), 0600); err != nil {
				t.Fatal(err)
			}
			if _, err := LoadFromPath(path); err == nil {
				t.Error("expected validation error, got nil")
			}
		})
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("DOCUMIND_SERVER_URL", "http://env.example.com")
	t.Setenv("DOCUMIND_MAX_TOKENS", "400")
	t.Setenv("DOCUMIND_THEME", "dark")
	t.Setenv("DOCUMIND_TIMEOUT_SECS", "not-a-number")

	cfg := Default()
	cfg.ApplyEnvOverrides()

	if cfg.Server.URL != "http://env.example.com" {
		t.Errorf("Server.URL = %q", cfg.Server.URL)
	}
	if cfg.Chat.MaxTokens != 400 {
		t.Errorf("Chat.MaxTokens = %d", cfg.Chat.MaxTokens)
	}
	if cfg.UI.Theme != "dark" {
		t.Errorf("UI.Theme = %q", cfg.UI.Theme)
	}
	if cfg.Server.TimeoutSecs != 60 {
		t.Errorf("unparseable env override must be ignored, got %d", cfg.Server.TimeoutSecs)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")

	cfg := Default()
	cfg.Server.URL = "https://rt.example.com"
	cfg.Chat.MaxTokens = 1200
	cfg.UI.Markdown = false

	if err := SaveTOML(cfg, path); err != nil {
		t.Fatalf("SaveTOML() error: %v", err)
	}

	loaded, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("LoadFromPath() error: %v", err)
	}
	if loaded.Server.URL != cfg.Server.URL {
		t.Errorf("Server.URL = %q, want %q", loaded.Server.URL, cfg.Server.URL)
	}
	if loaded.Chat.MaxTokens != cfg.Chat.MaxTokens {
		t.Errorf("Chat.MaxTokens = %d, want %d", loaded.Chat.MaxTokens, cfg.Chat.MaxTokens)
	}
	if loaded.UI.Markdown {
		t.Error("UI.Markdown should round-trip as false")
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0600 {
		t.Errorf("config file mode = %o, want 0600", info.Mode().Perm())
	}
}

func TestGetSet(t *testing.T) {
	cfg := Default()

	if err := cfg.Set("chat.max_tokens", "500"); err != nil {
		t.Fatalf("Set() error: %v", err)
	}
	got, err := cfg.Get("chat.max_tokens")
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if got != "500" {
		t.Errorf("Get() = %q, want 500", got)
	}

	if err := cfg.Set("ui.theme", "SEPIA"); err == nil {
		t.Error("invalid theme must fail validation")
	}
	if err := cfg.Set("no.such.key", "x"); err == nil {
		t.Error("unknown key must fail")
	}
	if _, err := cfg.Get("no.such.key"); err == nil {
		t.Error("unknown key must fail")
	}

	for _, key := range Keys() {
		if _, err := cfg.Get(key); err != nil {
			t.Errorf("Get(%q) error: %v", key, err)
		}
	}
}
