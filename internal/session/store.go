// Package session persists the authenticated user's bearer token and
// user descriptor. Token and user are always written and cleared together.
package session

import (
	"encoding/json"
	"fmt"
	"sync"

	"resumetracker/internal/config"
	"resumetracker/internal/types"
)

// Storage keys shared by every backend
const (
	KeyAuthToken = "authToken"
	KeyUserData  = "userData"
)

// CredentialStore holds the current AuthSession
type CredentialStore interface {
	Get() (types.AuthSession, error)
	Set(session types.AuthSession) error
	Clear() error
	Close() error
}

// New opens the credential store selected by configuration
func New(cfg config.SessionConfig) (CredentialStore, error) {
	switch cfg.Backend {
	case "", "file":
		return NewFileStore(cfg.Path)
	case "sqlite":
		return NewSQLiteStore(cfg.Path)
	default:
		return nil, fmt.Errorf("unsupported session backend: %s", cfg.Backend)
	}
}

// encode flattens a session into the persisted key/value form
func encode(session types.AuthSession) (map[string]string, error) {
	user, err := json.Marshal(session.User)
	if err != nil {
		return nil, fmt.Errorf("failed to encode user data: %w", err)
	}
	return map[string]string{
		KeyAuthToken: session.Token,
		KeyUserData:  string(user),
	}, nil
}

// decode rebuilds a session from persisted values. A token without user
// data, or the reverse, is treated as no session at all.
func decode(values map[string]string) (types.AuthSession, error) {
	token, rawUser := values[KeyAuthToken], values[KeyUserData]
	if token == "" || rawUser == "" {
		return types.AuthSession{}, nil
	}

	var user types.UserData
	if err := json.Unmarshal([]byte(rawUser), &user); err != nil {
		return types.AuthSession{}, fmt.Errorf("failed to decode user data: %w", err)
	}
	return types.AuthSession{Token: token, User: user}, nil
}

// MemoryStore keeps the session in process memory
type MemoryStore struct {
	mu      sync.RWMutex
	session types.AuthSession
}

// NewMemoryStore creates a store seeded with the given session
func NewMemoryStore(initial types.AuthSession) *MemoryStore {
	return &MemoryStore{session: initial}
}

func (m *MemoryStore) Get() (types.AuthSession, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.session, nil
}

func (m *MemoryStore) Set(session types.AuthSession) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.session = session
	return nil
}

func (m *MemoryStore) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.session = types.AuthSession{}
	return nil
}

func (m *MemoryStore) Close() error { return nil }
