package session

import (
	"context"
	"sync"
)

// MemoryStore keeps sessions in process memory. Used by tests and by
// servers started without a state directory.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]Session
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string]Session)}
}

func (m *MemoryStore) Get(_ context.Context, key string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	sess, ok := m.sessions[key]
	if !ok {
		return nil, nil
	}
	return &sess, nil
}

func (m *MemoryStore) Set(_ context.Context, key string, sess *Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[key] = *sess
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, key)
	return nil
}

var _ Store = (*MemoryStore)(nil)
