package store

import (
	"context"
	"sync"

	"growskill/pkg/domain"
)

// MemoryStore keeps the session in-process. It does not survive restarts.
type MemoryStore struct {
	mu      sync.RWMutex
	token   string
	user    domain.User
	hasUser bool
}

// NewMemoryStore initializes an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) SaveSession(_ context.Context, token string, user domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = token
	m.user = user
	m.hasUser = true
	return nil
}

func (m *MemoryStore) Token(_ context.Context) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.token, m.token != "", nil
}

func (m *MemoryStore) User(_ context.Context) (domain.User, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.user, m.hasUser, nil
}

func (m *MemoryStore) ClearSession(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = ""
	return nil
}

func (m *MemoryStore) Close() error { return nil }
