package client

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
)

// CredentialStorage is the durable side-channel for the access token. It
// survives process restarts so a relaunched client can restore its session
// without prompting for a password.
type CredentialStorage interface {
	// Load returns the stored token, or "" when none is stored.
	Load() (string, error)
	// Save replaces the stored token.
	Save(token string) error
	// Clear removes the stored token. Clearing an empty store is not an error.
	Clear() error
}

type storedCredential struct {
	AccessToken string `json:"accessToken"`
}

// FileStorage keeps the credential in a JSON file, created with 0600 since
// it holds a live bearer token.
type FileStorage struct {
	Path string
}

// NewFileStorage places the credential file under the user config directory
// (e.g. ~/.config/rifle/credentials.json).
func NewFileStorage() (*FileStorage, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return nil, err
	}
	return &FileStorage{Path: filepath.Join(dir, "rifle", "credentials.json")}, nil
}

func (s *FileStorage) Load() (string, error) {
	raw, err := os.ReadFile(s.Path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	var cred storedCredential
	if err := json.Unmarshal(raw, &cred); err != nil {
		// A corrupt file is treated as absent; the next Save rewrites it.
		return "", nil
	}
	return cred.AccessToken, nil
}

func (s *FileStorage) Save(token string) error {
	if err := os.MkdirAll(filepath.Dir(s.Path), 0o700); err != nil {
		return err
	}
	raw, err := json.Marshal(storedCredential{AccessToken: token})
	if err != nil {
		return err
	}
	return os.WriteFile(s.Path, raw, 0o600)
}

func (s *FileStorage) Clear() error {
	err := os.Remove(s.Path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

// MemoryStorage is a CredentialStorage for tests and ephemeral sessions.
type MemoryStorage struct {
	token string
}

func (s *MemoryStorage) Load() (string, error)   { return s.token, nil }
func (s *MemoryStorage) Save(token string) error { s.token = token; return nil }
func (s *MemoryStorage) Clear() error            { s.token = ""; return nil }
