// Package models defines session state structures for AthenaPipe workflows.
package models

import "time"

// WorkflowType identifies one guided-activity workflow.
type WorkflowType string

const (
	WorkflowResearch        WorkflowType = "research"
	WorkflowDECA            WorkflowType = "deca"
	WorkflowMUN             WorkflowType = "mun"
	WorkflowPodcast         WorkflowType = "podcast"
	WorkflowScienceOlympiad WorkflowType = "science_olympiad"
	WorkflowVolunteering    WorkflowType = "volunteering"
	WorkflowScienceProject  WorkflowType = "science_project"
	WorkflowCompetition     WorkflowType = "competition"
)

// StageType is the current named state of a workflow for one student.
type StageType string

// StageNone means the workflow is not in flight.
const StageNone StageType = "none"

// SessionState is the per-student conversational state. It is created lazily
// on first contact and persisted by the store every turn; it is never
// explicitly destroyed.
type SessionState struct {
	StudentID           string                        `json:"student_id"`
	Conversation        []Message                     `json:"conversation"`
	ConversationSummary string                        `json:"conversation_summary,omitempty"`
	MentorCooldown      int                           `json:"mentor_cooldown"`
	GoalCooldown        int                           `json:"goal_cooldown"`
	Stages              map[WorkflowType]StageType    `json:"stages,omitempty"`
	CreatedAt           time.Time                     `json:"created_at"`
	UpdatedAt           time.Time                     `json:"updated_at"`
}

// NewSessionState returns a fresh session for a student with every workflow
// stage at none.
func NewSessionState(studentID string) *SessionState {
	now := time.Now()
	return &SessionState{
		StudentID: studentID,
		Stages:    make(map[WorkflowType]StageType),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Stage returns the current stage for a workflow, defaulting to none.
func (s *SessionState) Stage(w WorkflowType) StageType {
	if s.Stages == nil {
		return StageNone
	}
	if stage, ok := s.Stages[w]; ok && stage != "" {
		return stage
	}
	return StageNone
}

// SetStage updates the stage variable for one workflow.
func (s *SessionState) SetStage(w WorkflowType, stage StageType) {
	if s.Stages == nil {
		s.Stages = make(map[WorkflowType]StageType)
	}
	s.Stages[w] = stage
}

// ResetStagesExcept sets every workflow stage to none except the given one.
// At most one workflow may be mid-flight at a time.
func (s *SessionState) ResetStagesExcept(keep WorkflowType) {
	for w := range s.Stages {
		if w != keep {
			s.Stages[w] = StageNone
		}
	}
}

// Append adds a message to the conversation.
func (s *SessionState) Append(role Role, content string) {
	s.Conversation = append(s.Conversation, Message{Role: role, Content: content})
}
