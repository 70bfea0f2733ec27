// Package flow implements the conversation routing core: the turn router,
// guided activity workflows, classifiers, mentor recommendation, goal
// extraction, and conversation compaction.
package flow

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/AthenaAdvising/AthenaPipe/internal/models"
	"github.com/AthenaAdvising/AthenaPipe/internal/store"
)

// SessionManager loads and persists per-student session state and serializes
// turns per student id. Different students proceed concurrently; two requests
// for the same student are processed one at a time.
type SessionManager struct {
	store store.Store

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewSessionManager creates a session manager backed by the given store.
func NewSessionManager(st store.Store) *SessionManager {
	return &SessionManager{
		store: st,
		locks: make(map[string]*sync.Mutex),
	}
}

// Lock acquires the per-student mutex and returns the unlock function.
// Callers must hold the lock for the whole read-modify-write cycle of a turn.
func (sm *SessionManager) Lock(studentID string) func() {
	sm.mu.Lock()
	l, ok := sm.locks[studentID]
	if !ok {
		l = &sync.Mutex{}
		sm.locks[studentID] = l
	}
	sm.mu.Unlock()

	l.Lock()
	return l.Unlock
}

// GetOrCreate loads the session for a student, creating a fresh one lazily on
// first contact. Sessions are never explicitly destroyed.
func (sm *SessionManager) GetOrCreate(studentID string) (*models.SessionState, error) {
	session, err := sm.store.GetSession(studentID)
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	if session == nil {
		slog.Debug("SessionManager.GetOrCreate: creating new session", "studentID", studentID)
		session = models.NewSessionState(studentID)
	}
	return session, nil
}

// Save persists the session state.
func (sm *SessionManager) Save(session *models.SessionState) error {
	if err := sm.store.SaveSession(*session); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}
