package authctx

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// Credentials is what survives a restart: enough to re-open the session.
type Credentials struct {
	Email        string `json:"email"`
	RefreshToken string `json:"refresh_token"`
}

// CredentialStore persists Credentials between runs.
type CredentialStore interface {
	// Load returns nil, nil when nothing is stored.
	Load() (*Credentials, error)
	Save(c Credentials) error
	Clear() error
}

// FileCredentialStore keeps credentials in a JSON file readable only by the owner.
type FileCredentialStore struct {
	Path string
}

// DefaultCredentialPath is <user config dir>/techlam/credentials.json.
func DefaultCredentialPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("locate config dir: %w", err)
	}
	return filepath.Join(dir, "techlam", "credentials.json"), nil
}

func (s FileCredentialStore) Load() (*Credentials, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read credentials: %w", err)
	}
	var c Credentials
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse credentials: %w", err)
	}
	if c.RefreshToken == "" {
		return nil, nil
	}
	return &c, nil
}

func (s FileCredentialStore) Save(c Credentials) error {
	if err := os.MkdirAll(filepath.Dir(s.Path), 0o700); err != nil {
		return fmt.Errorf("create credentials dir: %w", err)
	}
	data, err := json.Marshal(c)
	if err != nil {
		return err
	}
	tmp := s.Path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write credentials: %w", err)
	}
	return os.Rename(tmp, s.Path)
}

func (s FileCredentialStore) Clear() error {
	if err := os.Remove(s.Path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove credentials: %w", err)
	}
	return nil
}
