package flow

import (
	"context"
	"strings"
	"testing"

	"github.com/AthenaAdvising/AthenaPipe/internal/models"
	"github.com/AthenaAdvising/AthenaPipe/internal/testutil"
)

func newTestEngine(mock *testutil.MockGenAI) *WorkflowEngine {
	return NewWorkflowEngine(NewClassifier(mock), mock, DefaultWorkflows())
}

func testProfile() *models.StudentProfile {
	return &models.StudentProfile{
		StudentID:    "ana",
		Name:         "Ana",
		DeepInterest: "marine biology",
		FutureStudy:  "biology",
	}
}

func TestTryEnterStartsAtFirstStep(t *testing.T) {
	engine := newTestEngine(&testutil.MockGenAI{})
	session := models.NewSessionState("ana")

	replies, handled := engine.TryEnter(context.Background(), session, testProfile(), "I'd love to start a podcast someday")
	if !handled {
		t.Fatal("expected podcast workflow to enter")
	}
	if got := session.Stage(models.WorkflowPodcast); got != StagePodcastTopic {
		t.Errorf("entry stage = %q, want %q", got, StagePodcastTopic)
	}
	if len(replies) != 1 || !strings.Contains(replies[0], "marine biology") {
		t.Errorf("entry prompt should interpolate profile fields, got %v", replies)
	}
}

func TestTryEnterNoTrigger(t *testing.T) {
	engine := newTestEngine(&testutil.MockGenAI{})
	session := models.NewSessionState("ana")

	if _, handled := engine.TryEnter(context.Background(), session, testProfile(), "what's a good breakfast?"); handled {
		t.Error("no workflow should enter without a trigger")
	}
}

func TestEnteringWorkflowResetsOthers(t *testing.T) {
	engine := newTestEngine(&testutil.MockGenAI{})
	session := models.NewSessionState("ana")
	session.SetStage(models.WorkflowResearch, StageResearchTypes)

	// Research is mid-flight, so continuation owns any message first; this
	// exercises direct entry resetting a stale stage.
	session.SetStage(models.WorkflowResearch, models.StageNone)
	session.SetStage(models.WorkflowPodcast, StagePodcastTopic)

	_, handled := engine.TryEnter(context.Background(), session, testProfile(), "actually, tell me about deca")
	if !handled {
		t.Fatal("expected deca workflow to enter")
	}
	if got := session.Stage(models.WorkflowPodcast); got != models.StageNone {
		t.Errorf("podcast stage = %q, want none after entering deca", got)
	}
	if got := session.Stage(models.WorkflowDECA); got != StageDECAEventType {
		t.Errorf("deca stage = %q, want %q", got, StageDECAEventType)
	}
}

func TestUnrecognizedAnswerKeepsStage(t *testing.T) {
	// The LLM fallback also fails to classify, so the step re-prompts.
	mock := &testutil.MockGenAI{
		GeneratePromptFunc: func(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
			return "other", nil
		},
	}
	engine := newTestEngine(mock)
	session := models.NewSessionState("ana")
	session.SetStage(models.WorkflowResearch, StageResearchIntro)

	replies, handled := engine.ContinueActive(context.Background(), session, testProfile(), "the sky is quite blue today")
	if !handled {
		t.Fatal("mid-flight workflow must own the turn")
	}
	if got := session.Stage(models.WorkflowResearch); got != StageResearchIntro {
		t.Errorf("stage advanced on unrecognized input: %q", got)
	}
	if len(replies) != 1 || !strings.Contains(replies[0], "yes or no") {
		t.Errorf("expected the clarifying re-prompt, got %v", replies)
	}
}

func TestOptionStepTransitions(t *testing.T) {
	mock := &testutil.MockGenAI{
		GeneratePromptFunc: func(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
			return "generated guidance", nil
		},
	}
	engine := newTestEngine(mock)
	session := models.NewSessionState("ana")
	session.SetStage(models.WorkflowDECA, StageDECAEventType)

	replies, handled := engine.ContinueActive(context.Background(), session, testProfile(), "the roleplay ones sound fun")
	if !handled {
		t.Fatal("deca workflow must own the turn")
	}
	if got := session.Stage(models.WorkflowDECA); got != models.StageNone {
		t.Errorf("deca stage = %q, want none after guidance", got)
	}
	if len(replies) != 2 {
		t.Fatalf("expected ack plus generated guidance, got %v", replies)
	}
	if replies[1] != "generated guidance" {
		t.Errorf("generated reply = %q", replies[1])
	}
}

func TestGenerationFailureStillTransitions(t *testing.T) {
	mock := &testutil.MockGenAI{
		GeneratePromptFunc: func(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
			return "", context.DeadlineExceeded
		},
	}
	engine := newTestEngine(mock)
	session := models.NewSessionState("ana")
	session.SetStage(models.WorkflowScienceProject, StageClarifying)

	replies, handled := engine.ContinueActive(context.Background(), session, testProfile(), "I like chemistry and have a home kit")
	if !handled {
		t.Fatal("science project workflow must own the turn")
	}
	if got := session.Stage(models.WorkflowScienceProject); got != models.StageNone {
		t.Errorf("stage = %q, want none even when generation fails", got)
	}
	if len(replies) != 2 || replies[1] != apologyMessage {
		t.Errorf("expected ack plus apology, got %v", replies)
	}
}
