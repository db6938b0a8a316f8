// Package auth manages the user-selected Gemini API key. The ambient key
// (environment or config file) lives in the config package; this package
// only tracks explicit selections made after the backend rejects the
// ambient credential, and persists them across runs.
package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"conceptlens/internal/logging"
)

// Prompter obtains an API key from the user. The chat UI provides the
// interactive one; one-shot commands use a stdin prompter.
type Prompter interface {
	PromptKey(ctx context.Context) (string, error)
}

// storedKey is the on-disk selection format.
type storedKey struct {
	APIKey     string `json:"apiKey"`
	SelectedAt int64  `json:"selectedAt"` // Unix milliseconds
}

// KeyStore tracks whether the user has explicitly selected a key this run
// and persists the selection to disk.
type KeyStore struct {
	mu       sync.Mutex
	path     string
	prompter Prompter

	selected bool
	key      string
}

// DefaultPath returns the key selection file location.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".conceptlens", "key.json")
	}
	return filepath.Join(home, ".conceptlens", "key.json")
}

// NewKeyStore creates a key store backed by path. An existing selection on
// disk is loaded but does not count as selected for the current run; the
// one-shot retry policy only treats keys chosen this run as final.
func NewKeyStore(path string, prompter Prompter) *KeyStore {
	ks := &KeyStore{path: path, prompter: prompter}

	data, err := os.ReadFile(path)
	if err == nil {
		var sk storedKey
		if jsonErr := json.Unmarshal(data, &sk); jsonErr == nil && sk.APIKey != "" {
			ks.key = sk.APIKey
			logging.Auth("loaded stored key selection from %s", path)
		}
	}

	return ks
}

// HasSelectedKey reports whether the user explicitly selected a key during
// this run.
func (ks *KeyStore) HasSelectedKey() bool {
	ks.mu.Lock()
	defer ks.mu.Unlock()
	return ks.selected
}

// Key returns the most recently selected or loaded key, if any.
func (ks *KeyStore) Key() string {
	ks.mu.Lock()
	defer ks.mu.Unlock()
	return ks.key
}

// SelectKey prompts the user for a key, persists it, and marks this run as
// having an explicit selection. Subsequent credential rejections are final.
func (ks *KeyStore) SelectKey(ctx context.Context) (string, error) {
	if ks.prompter == nil {
		return "", fmt.Errorf("no key prompter configured")
	}

	key, err := ks.prompter.PromptKey(ctx)
	if err != nil {
		return "", err
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return "", fmt.Errorf("empty API key")
	}

	ks.mu.Lock()
	ks.key = key
	ks.selected = true
	ks.mu.Unlock()

	if err := ks.persist(key); err != nil {
		// The in-memory selection still stands; persistence is best effort.
		logging.Auth("failed to persist key selection: %v", err)
	}

	logging.Auth("user selected new API key")
	return key, nil
}

func (ks *KeyStore) persist(key string) error {
	if err := os.MkdirAll(filepath.Dir(ks.path), 0700); err != nil {
		return fmt.Errorf("failed to create key directory: %w", err)
	}

	data, err := json.MarshalIndent(storedKey{
		APIKey:     key,
		SelectedAt: time.Now().UnixMilli(),
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal key selection: %w", err)
	}

	if err := os.WriteFile(ks.path, data, 0600); err != nil {
		return fmt.Errorf("failed to write key selection: %w", err)
	}
	return nil
}
