package session

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"
)

// DefaultFileName is the session document written inside the profile directory.
const DefaultFileName = "session.yaml"

// FileStore persists the session as a small YAML document on disk. It plays the
// role browser local storage plays for the web dashboard: one document per profile.
type FileStore struct {
	path string
	mu   sync.Mutex
}

// NewFileStore returns a store backed by the given path. The file is created lazily.
func NewFileStore(path string) (*FileStore, error) {
	if path == "" {
		return nil, errors.New("session: file path is required")
	}
	return &FileStore{path: path}, nil
}

// DefaultPath resolves <user config dir>/leads-dashboard/session.yaml.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("session: resolve config dir: %w", err)
	}
	return filepath.Join(dir, "leads-dashboard", DefaultFileName), nil
}

// Path reports the backing file.
func (s *FileStore) Path() string {
	return s.path
}

// Save writes both keys to disk with owner-only permissions.
func (s *FileStore) Save(token, username string) error {
	if token == "" {
		return errEmptyToken
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	doc := map[string]string{
		TokenKey: token,
		UserKey:  username,
	}
	data, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("session: encode %s: %w", s.path, err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("session: mkdir %s: %w", filepath.Dir(s.path), err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("session: write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("session: replace %s: %w", s.path, err)
	}
	return nil
}

// Token reads the token from disk. A missing or unreadable file means no session.
func (s *FileStore) Token() (string, bool) {
	doc := s.read()
	token := doc[TokenKey]
	return token, token != ""
}

// Username reads the stored username.
func (s *FileStore) Username() string {
	return s.read()[UserKey]
}

// Clear deletes the session document. Clearing an absent document is a no-op.
func (s *FileStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("session: remove %s: %w", s.path, err)
	}
	return nil
}

func (s *FileStore) read() map[string]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, err := os.ReadFile(s.path)
	if err != nil {
		return map[string]string{}
	}
	doc := map[string]string{}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return map[string]string{}
	}
	return doc
}
