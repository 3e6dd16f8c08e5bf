// Package session keeps per-browser sessions in memory.
package session

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/brickify/web/internal/uploadgate"
)

// GateFactory builds the upload gate owned by a new session.
type GateFactory func(s *Session) *uploadgate.Gate

// Manager manages browser sessions.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	newGate  GateFactory
	log      logrus.FieldLogger
	now      func() time.Time
}

// NewManager creates a new session manager.
func NewManager(newGate GateFactory, log logrus.FieldLogger) *Manager {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Manager{
		sessions: make(map[string]*Session),
		newGate:  newGate,
		log:      log.WithField("component", "session"),
		now:      time.Now,
	}
}

// Create starts a new anonymous session.
func (m *Manager) Create() *Session {
	now := m.now()
	s := &Session{
		ID:           uuid.New().String(),
		CreatedAt:    now,
		lastAccessed: now,
	}
	if m.newGate != nil {
		s.gate = m.newGate(s)
	}

	m.mu.Lock()
	m.sessions[s.ID] = s
	m.mu.Unlock()

	m.log.WithField("session", s.ID[:8]).Debug("session created")
	return s
}

// Get retrieves a session by ID and marks it as accessed.
func (m *Manager) Get(id string) (*Session, bool) {
	m.mu.RLock()
	s, ok := m.sessions[id]
	m.mu.RUnlock()
	if !ok {
		return nil, false
	}
	s.touch(m.now())
	return s, true
}

// GetOrCreate returns the session for id, or a fresh one if id is unknown.
// created reports whether a new session was made.
func (m *Manager) GetOrCreate(id string) (s *Session, created bool) {
	if id != "" {
		if s, ok := m.Get(id); ok {
			return s, false
		}
	}
	return m.Create(), true
}

// Delete removes a session.
func (m *Manager) Delete(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
}

// Count returns the number of live sessions.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// CleanupOldSessions removes sessions idle for longer than maxAge. Sessions
// with an upload in flight are kept until the upload settles.
func (m *Manager) CleanupOldSessions(maxAge time.Duration) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	cutoff := m.now().Add(-maxAge)
	removed := 0
	for id, s := range m.sessions {
		if s.gate != nil && s.gate.State() == uploadgate.StateBusy {
			continue
		}
		if s.LastAccessed().Before(cutoff) {
			delete(m.sessions, id)
			removed++
		}
	}
	if removed > 0 {
		m.log.WithField("removed", removed).Info("expired sessions cleaned up")
	}
	return removed
}
