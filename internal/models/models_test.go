package models

import (
	"fmt"
	"testing"
)

func TestNormalizeStudentID(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"lowercases", "Ana", "ana"},
		{"trims whitespace", "  Ana Silva  ", "ana silva"},
		{"already normalized", "ana", "ana"},
		{"empty", "   ", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeStudentID(tt.input); got != tt.want {
				t.Errorf("NormalizeStudentID(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestChatRequestValidate(t *testing.T) {
	tests := []struct {
		name    string
		req     ChatRequest
		wantErr error
	}{
		{"valid", ChatRequest{StudentID: "ana", Message: "hi"}, nil},
		{"missing student id", ChatRequest{Message: "hi"}, ErrEmptyStudentID},
		{"whitespace student id", ChatRequest{StudentID: "  ", Message: "hi"}, ErrEmptyStudentID},
		{"missing message", ChatRequest{StudentID: "ana"}, ErrEmptyMessage},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.req.Validate(); err != tt.wantErr {
				t.Errorf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestAddNoteBoundedAndDeduplicated(t *testing.T) {
	p := &StudentProfile{}
	for i := 0; i < MaxNotes+5; i++ {
		p.AddNote(fmt.Sprintf("note %d", i))
	}
	if len(p.Notes) != MaxNotes {
		t.Fatalf("expected %d notes, got %d", MaxNotes, len(p.Notes))
	}
	if p.Notes[0] != "note 5" || p.Notes[len(p.Notes)-1] != "note 14" {
		t.Errorf("expected oldest notes evicted, got first=%q last=%q", p.Notes[0], p.Notes[len(p.Notes)-1])
	}

	p.AddNote("note 14")
	if len(p.Notes) != MaxNotes {
		t.Errorf("duplicate note should not be added, got %d notes", len(p.Notes))
	}
	p.AddNote("   ")
	if len(p.Notes) != MaxNotes {
		t.Errorf("blank note should not be added, got %d notes", len(p.Notes))
	}
}

func TestAddGoalDeduplicates(t *testing.T) {
	p := &StudentProfile{}
	if !p.AddGoal("email two professors") {
		t.Error("expected first add to report new")
	}
	if p.AddGoal("email two professors") {
		t.Error("expected duplicate add to report not-new")
	}
	// Comparison is case-sensitive.
	if !p.AddGoal("Email two professors") {
		t.Error("expected differently-cased goal to be treated as new")
	}
	if len(p.Goals) != 2 {
		t.Errorf("expected 2 goals, got %d", len(p.Goals))
	}
}

func TestAddTopicNewestFirstAndBounded(t *testing.T) {
	p := &StudentProfile{}
	p.AddTopic("first")
	p.AddTopic("second")
	if p.Topics[0] != "second" || p.Topics[1] != "first" {
		t.Errorf("expected newest-first ordering, got %v", p.Topics)
	}

	p.AddTopic("second")
	if len(p.Topics) != 2 {
		t.Errorf("consecutive duplicate should be dropped, got %v", p.Topics)
	}

	for i := 0; i < MaxTopics+10; i++ {
		p.AddTopic(fmt.Sprintf("topic %d", i))
	}
	if len(p.Topics) != MaxTopics {
		t.Errorf("expected topics bounded to %d, got %d", MaxTopics, len(p.Topics))
	}
	if p.Topics[0] != fmt.Sprintf("topic %d", MaxTopics+9) {
		t.Errorf("expected newest topic first, got %q", p.Topics[0])
	}
}

func TestSessionStateStages(t *testing.T) {
	s := NewSessionState("ana")
	if got := s.Stage(WorkflowResearch); got != StageNone {
		t.Errorf("fresh session stage = %q, want none", got)
	}

	s.SetStage(WorkflowResearch, "step1_intro")
	s.SetStage(WorkflowDECA, "event_type")
	s.ResetStagesExcept(WorkflowResearch)

	if got := s.Stage(WorkflowResearch); got != "step1_intro" {
		t.Errorf("kept workflow stage = %q, want step1_intro", got)
	}
	if got := s.Stage(WorkflowDECA); got != StageNone {
		t.Errorf("reset workflow stage = %q, want none", got)
	}
}
