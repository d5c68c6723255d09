package session

import (
	"errors"
	"sync"
)

const (
	// TokenKey is the persisted key holding the bearer token.
	TokenKey = "crexe_token"
	// UserKey is the persisted key holding the signed-in username.
	UserKey = "crexe_user"
)

var errEmptyToken = errors.New("session: token is required")

// Store persists the single active session (bearer token + username).
// Implementations must be safe for concurrent use and Clear must be idempotent.
type Store interface {
	Save(token, username string) error
	Token() (string, bool)
	Username() string
	Clear() error
}

// MemoryStore keeps the session in process memory.
type MemoryStore struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewMemoryStore builds an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: map[string]string{}}
}

// Save writes both keys, replacing any previous session.
func (s *MemoryStore) Save(token, username string) error {
	if token == "" {
		return errEmptyToken
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[TokenKey] = token
	s.values[UserKey] = username
	return nil
}

// Token returns the stored token, if any.
func (s *MemoryStore) Token() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	token, ok := s.values[TokenKey]
	return token, ok && token != ""
}

// Username returns the stored username or an empty string.
func (s *MemoryStore) Username() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.values[UserKey]
}

// Clear removes both keys.
func (s *MemoryStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.values, TokenKey)
	delete(s.values, UserKey)
	return nil
}
