// Package models defines the core data structures for AthenaPipe.
//
// It includes student profiles, conversation messages, per-student session
// state, and the request/response payloads shared across modules.
package models

import (
	"errors"
	"strings"
	"time"
)

// Role identifies the author of a conversation message.
type Role string

const (
	// RoleUser marks a message written by the student.
	RoleUser Role = "user"
	// RoleAssistant marks a message written by Athena.
	RoleAssistant Role = "assistant"
	// RoleSystem marks synthetic context messages (e.g. compaction summaries).
	RoleSystem Role = "system"
)

// Message is a single turn in a conversation. Messages are append-only:
// the ordered sequence is the literal prompt context for the next completion.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Bounds for the accumulating profile fields.
const (
	// MaxNotes limits the notes field to the most recent entries.
	MaxNotes = 10
	// MaxTopics limits the topic history, newest first.
	MaxTopics = 50
)

// Error variables for validation and lookup failures.
var (
	ErrEmptyStudentID  = errors.New("student_id is required")
	ErrEmptyMessage    = errors.New("message is required")
	ErrEmptyName       = errors.New("name is required")
	ErrStudentNotFound = errors.New("student not found")
)

// NormalizeStudentID derives the canonical student identifier from a name:
// lower-cased and trimmed. Profiles are keyed by this value.
func NormalizeStudentID(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// StudentProfile holds everything AthenaPipe knows about one student.
// The static fields come from enrollment; the accumulating fields are
// grown by the conversation router and never deleted wholesale.
type StudentProfile struct {
	StudentID               string    `json:"student_id"`
	Name                    string    `json:"name"`
	Grade                   string    `json:"grade,omitempty"`
	FutureStudy             string    `json:"future_study,omitempty"`
	DeepInterest            string    `json:"deep_interest,omitempty"`
	UniqueSomething         string    `json:"unique_something,omitempty"`
	CurrentExtracurriculars string    `json:"current_extracurriculars,omitempty"`
	FavoriteCourses         string    `json:"favorite_courses,omitempty"`
	Competitions            []string  `json:"competitions,omitempty"`
	Notes                   []string  `json:"notes,omitempty"`
	Goals                   []string  `json:"goals,omitempty"`
	Topics                  []string  `json:"topics,omitempty"`
	CreatedAt               time.Time `json:"created_at"`
	UpdatedAt               time.Time `json:"updated_at"`
}

// AddNote appends a note, deduplicating and keeping only the last MaxNotes.
func (p *StudentProfile) AddNote(note string) {
	note = strings.TrimSpace(note)
	if note == "" {
		return
	}
	for _, existing := range p.Notes {
		if existing == note {
			return
		}
	}
	p.Notes = append(p.Notes, note)
	if len(p.Notes) > MaxNotes {
		p.Notes = p.Notes[len(p.Notes)-MaxNotes:]
	}
}

// AddGoal adds a goal to the profile's goal set. Returns true if the goal
// was genuinely new. Comparison is case-sensitive.
func (p *StudentProfile) AddGoal(goal string) bool {
	goal = strings.TrimSpace(goal)
	if goal == "" {
		return false
	}
	for _, existing := range p.Goals {
		if existing == goal {
			return false
		}
	}
	p.Goals = append(p.Goals, goal)
	return true
}

// AddTopic records a topic at the front of the topic history, newest first,
// bounded to MaxTopics. Consecutive duplicates are dropped.
func (p *StudentProfile) AddTopic(topic string) {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return
	}
	if len(p.Topics) > 0 && p.Topics[0] == topic {
		return
	}
	p.Topics = append([]string{topic}, p.Topics...)
	if len(p.Topics) > MaxTopics {
		p.Topics = p.Topics[:MaxTopics]
	}
}

// AddCompetition appends a competition to the ordered sequence, skipping
// exact duplicates.
func (p *StudentProfile) AddCompetition(name string) {
	name = strings.TrimSpace(name)
	if name == "" {
		return
	}
	for _, existing := range p.Competitions {
		if existing == name {
			return
		}
	}
	p.Competitions = append(p.Competitions, name)
}

// ChatRequest is the payload for POST /chat.
type ChatRequest struct {
	StudentID string `json:"student_id"`
	Message   string `json:"message"`
}

// Validate rejects empty identifiers and messages before any state is touched.
func (r *ChatRequest) Validate() error {
	if strings.TrimSpace(r.StudentID) == "" {
		return ErrEmptyStudentID
	}
	if strings.TrimSpace(r.Message) == "" {
		return ErrEmptyMessage
	}
	return nil
}

// ChatResponse is the payload returned by POST /chat.
type ChatResponse struct {
	Conversation []Message `json:"conversation"`
	LastResponse string    `json:"last_response"`
	MentorID     *int      `json:"mentor_id"`
}

// StudentUpsertRequest is the payload for POST /student. The normalized name
// doubles as the student identifier.
type StudentUpsertRequest struct {
	Name                    string `json:"name"`
	Grade                   string `json:"grade,omitempty"`
	FutureStudy             string `json:"future_study,omitempty"`
	DeepInterest            string `json:"deep_interest,omitempty"`
	UniqueSomething         string `json:"unique_something,omitempty"`
	CurrentExtracurriculars string `json:"current_extracurriculars,omitempty"`
	FavoriteCourses         string `json:"favorite_courses,omitempty"`
}

// Validate checks that the upsert carries a usable name.
func (r *StudentUpsertRequest) Validate() error {
	if NormalizeStudentID(r.Name) == "" {
		return ErrEmptyName
	}
	return nil
}

// StudentBio is the read-only derived view returned by GET /student_bio/{id}.
type StudentBio struct {
	StudentID               string   `json:"student_id"`
	Name                    string   `json:"name"`
	Grade                   string   `json:"grade,omitempty"`
	FutureStudy             string   `json:"future_study,omitempty"`
	DeepInterest            string   `json:"deep_interest,omitempty"`
	CurrentExtracurriculars string   `json:"current_extracurriculars,omitempty"`
	FavoriteCourses         string   `json:"favorite_courses,omitempty"`
	Competitions            []string `json:"competitions,omitempty"`
	GoalCount               int      `json:"goal_count"`
}

// APIStatus represents the status of an API response.
type APIStatus string

const (
	// APIStatusOK indicates an API request completed successfully.
	APIStatusOK APIStatus = "ok"
	// APIStatusError indicates an API request failed with an error.
	APIStatusError APIStatus = "error"
)

// APIResponse is the standard JSON envelope for every endpoint.
type APIResponse struct {
	Status  string      `json:"status"`
	Message string      `json:"message,omitempty"`
	Result  interface{} `json:"result,omitempty"`
}

// Success creates a successful API response with optional result data.
func Success(result interface{}) APIResponse {
	return APIResponse{Status: string(APIStatusOK), Result: result}
}

// SuccessWithMessage creates a successful API response with a message.
func SuccessWithMessage(message string, result interface{}) APIResponse {
	return APIResponse{Status: string(APIStatusOK), Message: message, Result: result}
}

// Error creates an error API response with a message.
func Error(message string) APIResponse {
	return APIResponse{Status: string(APIStatusError), Message: message}
}
