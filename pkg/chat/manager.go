package chat

import "sync"

// Manager holds the sessions of a running server, keyed by session id.
// Sessions are kept for the life of the process.
type Manager struct {
	classifier Classifier

	mu       sync.Mutex
	sessions map[string]*Session
}

func NewManager(classifier Classifier) *Manager {
	return &Manager{
		classifier: classifier,
		sessions:   make(map[string]*Session),
	}
}

func (m *Manager) Get(id string) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[id]
	return s, ok
}

// GetOrCreate returns the session with id, or a new session when id is
// empty or unknown.
func (m *Manager) GetOrCreate(id string) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	if s, ok := m.sessions[id]; ok {
		return s
	}

	s := NewSession(m.classifier)
	m.sessions[s.ID()] = s
	return s
}

func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}
