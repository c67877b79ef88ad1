// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storage provides local transcript persistence for documind.
package storage

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/jeranaias/documind-tui/internal/util"
)

// ErrTranscriptNotFound is returned when a transcript ID does not exist.
var ErrTranscriptNotFound = errors.New("transcript not found")

// =============================================================================
// TRANSCRIPT TYPES
// =============================================================================

// Transcript is a locally archived conversation. Guests get transcripts too:
// the archive is independent of server-side session history.
type Transcript struct {
	// Identity
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// SessionID links to the backend conversation, 0 for guest exchanges
	// the server never assigned an id to.
	SessionID int64 `json:"session_id,omitempty"`

	Messages []TranscriptMessage `json:"messages"`
}

// TranscriptMessage is one turn of an archived conversation.
type TranscriptMessage struct {
	Role      string    `json:"role"` // "user" or "assistant"
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// TranscriptMeta contains metadata for listing transcripts.
type TranscriptMeta struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	SessionID    int64     `json:"session_id,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	MessageCount int       `json:"message_count"`
	Preview      string    `json:"preview"` // First question, truncated
}

// =============================================================================
// ARCHIVE
// =============================================================================

// Archive persists transcripts as one JSON file each.
type Archive struct {
	// BaseDir is the directory for storing transcripts
	// Default: ~/.documind/transcripts/
	BaseDir string

	// MaxTranscripts limits stored transcripts (0 = unlimited)
	MaxTranscripts int
}

// NewArchive creates an archive in the default location.
func NewArchive() (*Archive, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}
	return NewArchiveWithDir(filepath.Join(homeDir, ".documind", "transcripts"))
}

// NewArchiveWithDir creates an archive with a custom directory.
func NewArchiveWithDir(baseDir string) (*Archive, error) {
	if err := os.MkdirAll(baseDir, 0700); err != nil {
		return nil, err
	}
	return &Archive{
		BaseDir:        baseDir,
		MaxTranscripts: 200,
	}, nil
}

// =============================================================================
// SAVE OPERATIONS
// =============================================================================

// Save persists a transcript and returns its ID.
func (a *Archive) Save(tr *Transcript) (string, error) {
	if tr.ID == "" {
		tr.ID = generateTranscriptID()
	}
	if tr.Title == "" {
		tr.Title = a.generateTitle(tr)
	}

	tr.UpdatedAt = time.Now()
	if tr.CreatedAt.IsZero() {
		tr.CreatedAt = tr.UpdatedAt
	}

	data, err := json.MarshalIndent(tr, "", "  ")
	if err != nil {
		return "", err
	}

	// RELIABILITY: Atomic write with fsync prevents data loss on crash
	if err := util.AtomicWriteFile(a.filePath(tr.ID), data, 0600); err != nil {
		return "", err
	}

	if a.MaxTranscripts > 0 {
		a.enforceLimit()
	}
	return tr.ID, nil
}

// RecordExchange appends a question/answer pair to the transcript for the
// given session, creating it if none exists. sessionID 0 always creates a
// new transcript: guest exchanges have no stable server identity to join on.
func (a *Archive) RecordExchange(sessionID int64, question, answer string) (string, error) {
	var tr *Transcript

	if sessionID != 0 {
		if existing, err := a.FindBySession(sessionID); err == nil {
			tr = existing
		}
	}
	if tr == nil {
		tr = &Transcript{SessionID: sessionID}
	}

	now := time.Now()
	tr.Messages = append(tr.Messages,
		TranscriptMessage{Role: "user", Content: question, Timestamp: now},
		TranscriptMessage{Role: "assistant", Content: answer, Timestamp: now},
	)
	return a.Save(tr)
}

// generateTitle creates a title from the first question.
func (a *Archive) generateTitle(tr *Transcript) string {
	for _, msg := range tr.Messages {
		if msg.Role == "user" && msg.Content != "" {
			// Multi-line questions title by their first real line
			line := util.FirstNonEmptyLine(msg.Content)
			if line == "" {
				line = util.CollapseWhitespace(msg.Content)
			}
			return util.TruncateRunes(line, 50)
		}
	}
	return "New conversation"
}

// enforceLimit removes oldest transcripts if over limit.
func (a *Archive) enforceLimit() {
	metas, err := a.List()
	if err != nil || len(metas) <= a.MaxTranscripts {
		return
	}

	sort.Slice(metas, func(i, j int) bool {
		return metas[i].UpdatedAt.Before(metas[j].UpdatedAt)
	})

	excess := len(metas) - a.MaxTranscripts
	for i := 0; i < excess; i++ {
		a.Delete(metas[i].ID)
	}
}

// =============================================================================
// LOAD OPERATIONS
// =============================================================================

// Load retrieves a transcript by ID.
func (a *Archive) Load(id string) (*Transcript, error) {
	data, err := os.ReadFile(a.filePath(id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrTranscriptNotFound
		}
		return nil, err
	}

	var tr Transcript
	if err := json.Unmarshal(data, &tr); err != nil {
		return nil, err
	}
	return &tr, nil
}

// FindBySession returns the transcript linked to a backend session id.
func (a *Archive) FindBySession(sessionID int64) (*Transcript, error) {
	if sessionID == 0 {
		return nil, ErrTranscriptNotFound
	}

	metas, err := a.List()
	if err != nil {
		return nil, err
	}
	for _, meta := range metas {
		if meta.SessionID == sessionID {
			return a.Load(meta.ID)
		}
	}
	return nil, ErrTranscriptNotFound
}

// =============================================================================
// LIST OPERATIONS
// =============================================================================

// List returns all archived transcripts (most recent first).
func (a *Archive) List() ([]TranscriptMeta, error) {
	entries, err := os.ReadDir(a.BaseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []TranscriptMeta{}, nil
		}
		return nil, err
	}

	var metas []TranscriptMeta
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}

		tr, err := a.Load(strings.TrimSuffix(entry.Name(), ".json"))
		if err != nil {
			// Skip corrupted files
			continue
		}

		preview := ""
		for _, msg := range tr.Messages {
			if msg.Role == "user" {
				preview = util.TruncateRunes(msg.Content, 80)
				break
			}
		}

		metas = append(metas, TranscriptMeta{
			ID:           tr.ID,
			Title:        tr.Title,
			SessionID:    tr.SessionID,
			CreatedAt:    tr.CreatedAt,
			UpdatedAt:    tr.UpdatedAt,
			MessageCount: len(tr.Messages),
			Preview:      preview,
		})
	}

	sort.Slice(metas, func(i, j int) bool {
		return metas[i].UpdatedAt.After(metas[j].UpdatedAt)
	})
	return metas, nil
}

// Search finds transcripts whose title or preview matches a query string.
func (a *Archive) Search(query string) ([]TranscriptMeta, error) {
	all, err := a.List()
	if err != nil {
		return nil, err
	}

	query = strings.ToLower(query)
	var results []TranscriptMeta
	for _, meta := range all {
		if strings.Contains(strings.ToLower(meta.Title), query) ||
			strings.Contains(strings.ToLower(meta.Preview), query) {
			results = append(results, meta)
		}
	}
	return results, nil
}

// =============================================================================
// DELETE OPERATIONS
// =============================================================================

// Delete removes a transcript by ID.
func (a *Archive) Delete(id string) error {
	err := os.Remove(a.filePath(id))
	if os.IsNotExist(err) {
		return ErrTranscriptNotFound
	}
	return err
}

// =============================================================================
// HELPERS
// =============================================================================

func (a *Archive) filePath(id string) string {
	return filepath.Join(a.BaseDir, id+".json")
}

// generateTranscriptID creates a unique transcript ID.
func generateTranscriptID() string {
	b := make([]byte, 8)
	if _, err := rand.Read(b); err != nil {
		// Timestamp fallback, still unique enough for a local archive
		return fmt.Sprintf("tr_%d", time.Now().UnixNano())
	}
	return "tr_" + hex.EncodeToString(b)
}
