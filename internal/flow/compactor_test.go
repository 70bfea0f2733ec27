package flow

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/AthenaAdvising/AthenaPipe/internal/models"
	"github.com/AthenaAdvising/AthenaPipe/internal/testutil"
)

func conversationOfLength(n int) []models.Message {
	msgs := make([]models.Message, 0, n)
	for i := 0; i < n; i++ {
		role := models.RoleUser
		if i%2 == 1 {
			role = models.RoleAssistant
		}
		msgs = append(msgs, models.Message{Role: role, Content: fmt.Sprintf("turn %d", i)})
	}
	return msgs
}

func TestOptimizeBelowThresholdNoOp(t *testing.T) {
	c := NewCompactor(&testutil.MockGenAI{}, 0)
	conv := conversationOfLength(3)

	got, summary := c.Optimize(context.Background(), conv, "old summary")
	if len(got) != 3 || summary != "old summary" {
		t.Errorf("below threshold must be a no-op, got %d messages, summary %q", len(got), summary)
	}
}

func TestOptimizeCompactsToSingleMessage(t *testing.T) {
	mock := &testutil.MockGenAI{
		GeneratePromptFunc: func(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
			if !strings.Contains(userPrompt, "turn 0") {
				t.Errorf("summary prompt missing transcript: %q", userPrompt)
			}
			return "the student explored research options", nil
		},
	}
	c := NewCompactor(mock, 0)
	conv := conversationOfLength(DefaultCompactionThreshold)

	got, summary := c.Optimize(context.Background(), conv, "")
	if len(got) != 1 {
		t.Fatalf("compaction must yield exactly one message, got %d", len(got))
	}
	if got[0].Role != models.RoleSystem {
		t.Errorf("compacted message role = %q, want system", got[0].Role)
	}
	if !strings.HasPrefix(got[0].Content, "Conversation summary: ") {
		t.Errorf("compacted message = %q", got[0].Content)
	}
	if summary != "the student explored research options" {
		t.Errorf("summary = %q", summary)
	}

	// Immediately re-running is a no-op: length 1 is below the threshold.
	again, againSummary := c.Optimize(context.Background(), got, summary)
	if len(again) != 1 || againSummary != summary {
		t.Error("compaction must be idempotent immediately after it runs")
	}
}

func TestOptimizeKeepsHistoryOnFailure(t *testing.T) {
	mock := &testutil.MockGenAI{
		GeneratePromptFunc: func(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
			return "", errors.New("upstream down")
		},
	}
	c := NewCompactor(mock, 0)
	conv := conversationOfLength(DefaultCompactionThreshold + 2)

	got, summary := c.Optimize(context.Background(), conv, "prior")
	if len(got) != len(conv) || summary != "prior" {
		t.Errorf("failure must return inputs unchanged, got %d messages, summary %q", len(got), summary)
	}
}

func TestOptimizeCarriesPriorSummary(t *testing.T) {
	var sawPrompt string
	mock := &testutil.MockGenAI{
		GeneratePromptFunc: func(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
			sawPrompt = userPrompt
			return "fresh summary", nil
		},
	}
	c := NewCompactor(mock, 0)

	c.Optimize(context.Background(), conversationOfLength(DefaultCompactionThreshold), "earlier context")
	if !strings.Contains(sawPrompt, "earlier context") {
		t.Errorf("prior summary should feed the new one, prompt: %q", sawPrompt)
	}
}
