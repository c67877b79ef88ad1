// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package auth tracks who the client is talking to the backend as.
package auth

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"golang.org/x/crypto/pbkdf2"

	"github.com/jeranaias/documind-tui/internal/util"
)

// =============================================================================
// CREDENTIAL STORE
// =============================================================================

// Credentials is the persisted credential pair. Token and email are written
// together or not at all - there is no partial state on disk.
type Credentials struct {
	Token string `json:"token"`
	Email string `json:"email"`
}

// CredentialStore persists credentials across process restarts.
type CredentialStore interface {
	// Load returns the stored credentials, or zero credentials when none
	// are stored.
	Load() (Credentials, error)
	// Save stores both fields atomically.
	Save(creds Credentials) error
	// Clear removes any stored credentials.
	Clear() error
}

// =============================================================================
// MEMORY STORE (TESTS, GUEST-ONLY SESSIONS)
// =============================================================================

// MemoryCredentialStore keeps credentials in memory only.
type MemoryCredentialStore struct {
	creds Credentials
}

// Load returns the in-memory credentials.
func (m *MemoryCredentialStore) Load() (Credentials, error) { return m.creds, nil }

// Save stores the credentials in memory.
func (m *MemoryCredentialStore) Save(creds Credentials) error {
	m.creds = creds
	return nil
}

// Clear zeros the in-memory credentials.
func (m *MemoryCredentialStore) Clear() error {
	m.creds = Credentials{}
	return nil
}

// =============================================================================
// ENCRYPTED FILE STORE
// =============================================================================

// Encryption parameters for credentials at rest.
const (
	keySize   = 32 // AES-256
	nonceSize = 12 // GCM standard nonce
	saltSize  = 16

	// subkeyIterations stretches the random master key into a per-file
	// subkey bound to the file's salt. The master key is already random,
	// so a small iteration count suffices.
	subkeyIterations = 4096
)

// ErrCorruptCredentials indicates the credential file failed authentication
// (wrong key or tampered data).
var ErrCorruptCredentials = errors.New("credential file is corrupt or was written by another installation")

// FileCredentialStore stores credentials AES-256-GCM encrypted in the config
// directory. The master key lives next to it in a 0600 file and is generated
// on first save.
//
// File layout: salt (16) | nonce (12) | ciphertext+tag.
type FileCredentialStore struct {
	credsPath string
	keyPath   string
}

// NewFileCredentialStore creates a store rooted at dir (typically the config
// directory, e.g. ~/.documind).
func NewFileCredentialStore(dir string) *FileCredentialStore {
	return &FileCredentialStore{
		credsPath: filepath.Join(dir, "credentials.enc"),
		keyPath:   filepath.Join(dir, "credentials.key"),
	}
}

// Load decrypts and returns the stored credentials. A missing file is not an
// error - it simply means nobody is logged in.
func (s *FileCredentialStore) Load() (Credentials, error) {
	blob, err := os.ReadFile(s.credsPath)
	if errors.Is(err, os.ErrNotExist) {
		return Credentials{}, nil
	}
	if err != nil {
		return Credentials{}, fmt.Errorf("failed to read credential file: %w", err)
	}

	key, err := os.ReadFile(s.keyPath)
	if errors.Is(err, os.ErrNotExist) {
		// Credentials without a key cannot be recovered
		return Credentials{}, ErrCorruptCredentials
	}
	if err != nil {
		return Credentials{}, fmt.Errorf("failed to read key file: %w", err)
	}

	if len(blob) < saltSize+nonceSize {
		return Credentials{}, ErrCorruptCredentials
	}
	salt := blob[:saltSize]
	nonce := blob[saltSize : saltSize+nonceSize]
	ciphertext := blob[saltSize+nonceSize:]

	aead, err := newAEAD(key, salt)
	if err != nil {
		return Credentials{}, err
	}

	plaintext, err := aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return Credentials{}, ErrCorruptCredentials
	}

	var creds Credentials
	if err := json.Unmarshal(plaintext, &creds); err != nil {
		return Credentials{}, ErrCorruptCredentials
	}
	return creds, nil
}

// Save encrypts and stores both fields atomically: the encrypted blob is a
// single file written via atomic rename, so a crash leaves either the old
// pair or the new pair, never a mix.
func (s *FileCredentialStore) Save(creds Credentials) error {
	key, err := s.loadOrCreateKey()
	if err != nil {
		return err
	}

	plaintext, err := json.Marshal(creds)
	if err != nil {
		return fmt.Errorf("failed to marshal credentials: %w", err)
	}

	salt := make([]byte, saltSize)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return fmt.Errorf("failed to generate salt: %w", err)
	}
	nonce := make([]byte, nonceSize)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return fmt.Errorf("failed to generate nonce: %w", err)
	}

	aead, err := newAEAD(key, salt)
	if err != nil {
		return err
	}

	blob := make([]byte, 0, saltSize+nonceSize+len(plaintext)+aead.Overhead())
	blob = append(blob, salt...)
	blob = append(blob, nonce...)
	blob = aead.Seal(blob, nonce, plaintext, nil)

	if err := util.AtomicWriteFileWithDir(s.credsPath, blob, 0600, 0700); err != nil {
		return fmt.Errorf("failed to write credential file: %w", err)
	}
	return nil
}

// Clear removes the credential file. The key file is kept so future saves
// reuse it. Missing files are fine.
func (s *FileCredentialStore) Clear() error {
	if err := os.Remove(s.credsPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove credential file: %w", err)
	}
	return nil
}

// loadOrCreateKey returns the master key, generating one on first use.
func (s *FileCredentialStore) loadOrCreateKey() ([]byte, error) {
	key, err := os.ReadFile(s.keyPath)
	if err == nil && len(key) == keySize {
		return key, nil
	}
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to read key file: %w", err)
	}

	key = make([]byte, keySize)
	if _, err := io.ReadFull(rand.Reader, key); err != nil {
		return nil, fmt.Errorf("failed to generate master key: %w", err)
	}
	if err := util.AtomicWriteFileWithDir(s.keyPath, key, 0600, 0700); err != nil {
		return nil, fmt.Errorf("failed to write key file: %w", err)
	}
	return key, nil
}

// newAEAD derives the per-file subkey and builds the AES-256-GCM cipher.
func newAEAD(masterKey, salt []byte) (cipher.AEAD, error) {
	subkey := pbkdf2.Key(masterKey, salt, subkeyIterations, keySize, sha256.New)

	block, err := aes.NewCipher(subkey)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}
	return aead, nil
}
