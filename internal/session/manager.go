package session

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"sync"
)

// Manager holds the live sessions under a mutex, keyed by ID.
type Manager struct {
	mu       sync.Mutex
	sessions map[string]*Session
}

// NewManager returns an empty session manager.
func NewManager() *Manager {
	return &Manager{sessions: make(map[string]*Session)}
}

// Create registers a new empty session and returns it.
func (m *Manager) Create() *Session {
	id := newSessionID()
	s := newSession(id)

	m.mu.Lock()
	m.sessions[id] = s
	m.mu.Unlock()
	return s
}

// Get looks up a session by ID.
func (m *Manager) Get(id string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: session %q", ErrNotFound, id)
	}
	return s, nil
}

// Delete removes a session. In-flight jobs for it are left to the worker's
// cancellation path.
func (m *Manager) Delete(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[id]; !ok {
		return fmt.Errorf("%w: session %q", ErrNotFound, id)
	}
	delete(m.sessions, id)
	return nil
}

// Len returns the number of live sessions.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

func newSessionID() string {
	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err != nil {
		panic(err)
	}
	return hex.EncodeToString(buf)
}
