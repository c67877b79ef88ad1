// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"encoding/json"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/jeranaias/documind-tui/internal/storage"
)

func sampleTranscript() *storage.Transcript {
	return &storage.Transcript{
		ID:        "tr_test",
		Title:     "what is RAG?",
		SessionID: 7,
		CreatedAt: time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC),
		UpdatedAt: time.Date(2025, 3, 1, 10, 5, 0, 0, time.UTC),
		Messages: []storage.TranscriptMessage{
			{Role: "user", Content: "what is RAG?", Timestamp: time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)},
			{Role: "assistant", Content: "Retrieval-augmented generation.", Timestamp: time.Date(2025, 3, 1, 10, 0, 5, 0, time.UTC)},
		},
	}
}

func TestMarkdownExporter(t *testing.T) {
	out, err := NewMarkdownExporter(nil).Export(sampleTranscript())
	if err != nil {
		t.Fatalf("Export() error: %v", err)
	}
	content := string(out)

	for _, want := range []string{
		"### You",
		"### DocuMind",
		"Retrieval-augmented generation.",
		"session: 7",
	} {
		if !strings.Contains(content, want) {
			t.Errorf("markdown output missing %q", want)
		}
	}
}

func TestMarkdownExporter_TitleEscaping(t *testing.T) {
	tr := sampleTranscript()
	tr.Title = "weird: #title with \"quotes\""

	out, err := NewMarkdownExporter(nil).Export(tr)
	if err != nil {
		t.Fatalf("Export() error: %v", err)
	}
	content := string(out)

	if !strings.Contains(content, `title: "weird: \#title with \"quotes\""`) &&
		!strings.Contains(content, "title: \"") {
		t.Error("frontmatter title with special characters must be quoted")
	}
	if !strings.Contains(content, "\\#title") {
		t.Error("heading must escape markdown specials")
	}
}

func TestMarkdownExporter_RejectsEmpty(t *testing.T) {
	if _, err := NewMarkdownExporter(nil).Export(&storage.Transcript{}); err == nil {
		t.Error("empty transcript must be rejected")
	}
	if _, err := NewMarkdownExporter(nil).Export(nil); err == nil {
		t.Error("nil transcript must be rejected")
	}
}

func TestJSONExporter_RoundTrip(t *testing.T) {
	out, err := NewJSONExporter().Export(sampleTranscript())
	if err != nil {
		t.Fatalf("Export() error: %v", err)
	}

	var tr storage.Transcript
	if err := json.Unmarshal(out, &tr); err != nil {
		t.Fatalf("exported JSON does not parse: %v", err)
	}
	if tr.SessionID != 7 || len(tr.Messages) != 2 {
		t.Errorf("round trip lost data: %+v", tr)
	}
}

func TestToFile(t *testing.T) {
	opts := DefaultOptions()
	opts.OutputDir = t.TempDir()

	path, err := ToFile(sampleTranscript(), NewMarkdownExporter(opts), opts)
	if err != nil {
		t.Fatalf("ToFile() error: %v", err)
	}
	if !strings.HasSuffix(path, ".md") {
		t.Errorf("path = %q, want .md suffix", path)
	}
	if !strings.Contains(path, "what_is_RAG-") {
		t.Errorf("filename not sanitized: %q", path)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("exported file missing: %v", err)
	}
}

func TestForFormat(t *testing.T) {
	tests := []struct {
		format  string
		wantExt string
		wantErr bool
	}{
		{"markdown", ".md", false},
		{"md", ".md", false},
		{"", ".md", false},
		{"json", ".json", false},
		{"pdf", "", true},
	}

	for _, tt := range tests {
		exp, err := ForFormat(tt.format, nil)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ForFormat(%q) expected error", tt.format)
			}
			continue
		}
		if err != nil {
			t.Errorf("ForFormat(%q) error: %v", tt.format, err)
			continue
		}
		if exp.FileExtension() != tt.wantExt {
			t.Errorf("ForFormat(%q).FileExtension() = %q, want %q", tt.format, exp.FileExtension(), tt.wantExt)
		}
	}
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"simple", "simple"},
		{"with spaces", "with_spaces"},
		{"a/b\\c:d", "a-b-c-d"},
		{"", "transcript"},
	}

	for _, tt := range tests {
		if got := sanitizeFilename(tt.in); got != tt.want {
			t.Errorf("sanitizeFilename(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
