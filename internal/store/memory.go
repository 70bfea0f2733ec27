package store

import (
	"sync"

	"github.com/AthenaAdvising/AthenaPipe/internal/models"
)

// InMemoryStore keeps profiles and sessions in process memory. Used for
// tests and for running without a configured database.
type InMemoryStore struct {
	mu       sync.RWMutex
	students map[string]models.StudentProfile
	sessions map[string]models.SessionState
}

// NewInMemoryStore creates an empty in-memory store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		students: make(map[string]models.StudentProfile),
		sessions: make(map[string]models.SessionState),
	}
}

func (s *InMemoryStore) SaveStudent(p models.StudentProfile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.students[p.StudentID] = cloneProfile(p)
	return nil
}

func (s *InMemoryStore) GetStudent(studentID string) (*models.StudentProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.students[studentID]
	if !ok {
		return nil, nil
	}
	copied := cloneProfile(p)
	return &copied, nil
}

func (s *InMemoryStore) ListStudents() ([]models.StudentProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.StudentProfile, 0, len(s.students))
	for _, p := range s.students {
		out = append(out, cloneProfile(p))
	}
	return out, nil
}

func (s *InMemoryStore) SaveSession(sess models.SessionState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sess.StudentID] = cloneSession(sess)
	return nil
}

func (s *InMemoryStore) GetSession(studentID string) (*models.SessionState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[studentID]
	if !ok {
		return nil, nil
	}
	copied := cloneSession(sess)
	return &copied, nil
}

func (s *InMemoryStore) DeleteSession(studentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, studentID)
	return nil
}

// Close is a no-op for the in-memory store.
func (s *InMemoryStore) Close() error { return nil }

// cloneProfile deep-copies the slice fields so callers cannot alias the
// stored record.
func cloneProfile(p models.StudentProfile) models.StudentProfile {
	p.Competitions = append([]string(nil), p.Competitions...)
	p.Notes = append([]string(nil), p.Notes...)
	p.Goals = append([]string(nil), p.Goals...)
	p.Topics = append([]string(nil), p.Topics...)
	return p
}

// cloneSession deep-copies the conversation and stage map.
func cloneSession(s models.SessionState) models.SessionState {
	s.Conversation = append([]models.Message(nil), s.Conversation...)
	if s.Stages != nil {
		stages := make(map[models.WorkflowType]models.StageType, len(s.Stages))
		for k, v := range s.Stages {
			stages[k] = v
		}
		s.Stages = stages
	}
	return s
}
