package session

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/wricardo/mcp-training/tileslide/game/engine"
	"github.com/wricardo/mcp-training/tileslide/game/service"
)

var (
	ErrSessionNotFound      = service.ErrSessionNotFound
	ErrSessionAlreadyExists = errors.New("session already exists")
	ErrInvalidSessionID     = errors.New("invalid session ID")
)

// maxIDAttempts bounds random ID generation before giving up
const maxIDAttempts = 32

// Manager handles game session lifecycle
type Manager struct {
	sessions map[string]*service.Session
	log      logrus.FieldLogger
	mu       sync.RWMutex
}

// NewManager creates a new session manager
func NewManager(log logrus.FieldLogger) *Manager {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Manager{
		sessions: make(map[string]*service.Session),
		log:      log.WithField("component", "sessions"),
	}
}

// Create registers a session for game under id. An empty id is replaced by
// a random 4-character one.
func (m *Manager) Create(id, profile string, game *engine.Game) (*service.Session, error) {
	if game == nil {
		return nil, errors.New("session needs a game")
	}
	if id != "" && !validID(id) {
		return nil, ErrInvalidSessionID
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if id == "" {
		var err error
		if id, err = m.generateSessionID(); err != nil {
			return nil, err
		}
	}

	// Check if session already exists (case-insensitive)
	key := strings.ToLower(id)
	if _, exists := m.sessions[key]; exists {
		return nil, ErrSessionAlreadyExists
	}

	session := service.NewSession(id, profile, game)
	m.sessions[key] = session
	m.log.WithFields(logrus.Fields{"session": id, "profile": profile}).Debug("Session registered")
	return session, nil
}

// Get retrieves a session by ID (case-insensitive)
func (m *Manager) Get(id string) (*service.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	session, exists := m.sessions[strings.ToLower(id)]
	if !exists {
		return nil, ErrSessionNotFound
	}
	return session, nil
}

// List returns all active sessions, oldest first
func (m *Manager) List() []*service.Session {
	m.mu.RLock()
	result := make([]*service.Session, 0, len(m.sessions))
	for _, session := range m.sessions {
		result = append(result, session)
	}
	m.mu.RUnlock()

	sort.Slice(result, func(i, j int) bool {
		if result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].ID < result[j].ID
		}
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result
}

// Delete removes a session and closes its game
func (m *Manager) Delete(id string) error {
	m.mu.Lock()
	key := strings.ToLower(id)
	session, exists := m.sessions[key]
	if exists {
		delete(m.sessions, key)
	}
	m.mu.Unlock()

	if !exists {
		return ErrSessionNotFound
	}
	session.Close()
	return nil
}

// UpdateLastAccessed updates the last accessed time for a session
func (m *Manager) UpdateLastAccessed(id string) error {
	session, err := m.Get(id)
	if err != nil {
		return err
	}
	session.Lock()
	session.LastAccessedAt = time.Now()
	session.Unlock()
	return nil
}

// CleanupExpiredSessions removes and closes sessions that haven't been
// accessed in the given duration
func (m *Manager) CleanupExpiredSessions(maxAge time.Duration) int {
	cutoff := time.Now().Add(-maxAge)
	var expired []*service.Session

	m.mu.Lock()
	for key, session := range m.sessions {
		session.Lock()
		stale := session.LastAccessedAt.Before(cutoff)
		session.Unlock()
		if stale {
			delete(m.sessions, key)
			expired = append(expired, session)
		}
	}
	m.mu.Unlock()

	for _, session := range expired {
		session.Close()
	}
	if len(expired) > 0 {
		m.log.WithField("removed", len(expired)).Info("Expired sessions removed")
	}
	return len(expired)
}

// Count returns the number of active sessions
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Close closes every session
func (m *Manager) Close() {
	m.mu.Lock()
	sessions := m.sessions
	m.sessions = make(map[string]*service.Session)
	m.mu.Unlock()
	for _, session := range sessions {
		session.Close()
	}
}

// generateSessionID generates a random unused 4-character session ID. Must
// be called with m.mu held.
func (m *Manager) generateSessionID() (string, error) {
	bytes := make([]byte, 2)
	for i := 0; i < maxIDAttempts; i++ {
		if _, err := rand.Read(bytes); err != nil {
			return "", err
		}
		id := hex.EncodeToString(bytes)
		if _, taken := m.sessions[id]; !taken {
			return id, nil
		}
	}
	return "", ErrSessionAlreadyExists
}

func validID(id string) bool {
	if len(id) > 64 {
		return false
	}
	for _, r := range id {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
		default:
			return false
		}
	}
	return true
}
