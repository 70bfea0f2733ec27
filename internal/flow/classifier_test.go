package flow

import (
	"context"
	"errors"
	"testing"

	"github.com/AthenaAdvising/AthenaPipe/internal/testutil"
)

func TestMatchesTrigger(t *testing.T) {
	triggers := []string{"research", "lab work"}
	tests := []struct {
		message string
		want    bool
	}{
		{"I want to do research this summer", true},
		{"RESEARCH sounds fun", true},
		{"any lab work opportunities?", true},
		{"what's for lunch?", false},
	}
	for _, tt := range tests {
		if got := MatchesTrigger(tt.message, triggers); got != tt.want {
			t.Errorf("MatchesTrigger(%q) = %v, want %v", tt.message, got, tt.want)
		}
	}
}

func TestYesNoDeterministic(t *testing.T) {
	// The model must never be consulted for obvious answers.
	mock := &testutil.MockGenAI{
		GeneratePromptFunc: func(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
			t.Errorf("unexpected model call for %q", userPrompt)
			return "", nil
		},
	}
	c := NewClassifier(mock)

	tests := []struct {
		message string
		want    Answer
	}{
		{"yes", AnswerYes},
		{"Yes, please!", AnswerYes},
		{"sure thing", AnswerYes},
		{"okay sounds good", AnswerYes},
		{"no", AnswerNo},
		{"nope, not for me", AnswerNo},
	}
	for _, tt := range tests {
		if got := c.YesNo(context.Background(), tt.message); got != tt.want {
			t.Errorf("YesNo(%q) = %q, want %q", tt.message, got, tt.want)
		}
	}
}

func TestYesNoLLMFallback(t *testing.T) {
	mock := &testutil.MockGenAI{
		GeneratePromptFunc: func(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
			return " Yes \n", nil
		},
	}
	c := NewClassifier(mock)
	if got := c.YesNo(context.Background(), "that sounds like something I'd enjoy"); got != AnswerYes {
		t.Errorf("YesNo = %q, want yes via model fallback", got)
	}
}

func TestYesNoFailureDegradesToOther(t *testing.T) {
	mock := &testutil.MockGenAI{
		GeneratePromptFunc: func(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
			return "", errors.New("upstream down")
		},
	}
	c := NewClassifier(mock)
	if got := c.YesNo(context.Background(), "hmm, tell me more first"); got != AnswerOther {
		t.Errorf("YesNo = %q, want other on failure", got)
	}
}

func TestOptionDeterministicContainment(t *testing.T) {
	mock := &testutil.MockGenAI{
		GeneratePromptFunc: func(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
			t.Errorf("unexpected model call for %q", userPrompt)
			return "", nil
		},
	}
	c := NewClassifier(mock)

	opt, ok := c.Option(context.Background(), "I think the Roleplay events suit me", []string{"roleplay", "prepared", "online"})
	if !ok || opt != "roleplay" {
		t.Errorf("Option = (%q, %v), want (roleplay, true)", opt, ok)
	}
}

func TestOptionLLMFallback(t *testing.T) {
	mock := &testutil.MockGenAI{
		GeneratePromptFunc: func(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
			return "prepared", nil
		},
	}
	c := NewClassifier(mock)

	opt, ok := c.Option(context.Background(), "the kind where you write a big report beforehand", []string{"roleplay", "prepared", "online"})
	if !ok || opt != "prepared" {
		t.Errorf("Option = (%q, %v), want (prepared, true)", opt, ok)
	}
}

func TestOptionUnrecognized(t *testing.T) {
	mock := &testutil.MockGenAI{
		GeneratePromptFunc: func(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
			return "none", nil
		},
	}
	c := NewClassifier(mock)

	if _, ok := c.Option(context.Background(), "I really can't decide", []string{"solo", "interview", "panel"}); ok {
		t.Error("expected unrecognized option")
	}
}
