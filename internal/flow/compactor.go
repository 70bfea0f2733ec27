package flow

import (
	"context"
	"log/slog"
	"strings"

	"github.com/AthenaAdvising/AthenaPipe/internal/genai"
	"github.com/AthenaAdvising/AthenaPipe/internal/models"
)

// DefaultCompactionThreshold is the conversation length at which history is
// summarized down to a single message.
const DefaultCompactionThreshold = 8

// Compactor bounds conversation context by destructive summarization: once
// the transcript reaches the threshold, the whole message list is replaced by
// one system message carrying a rolling summary.
type Compactor struct {
	genAIClient genai.ClientInterface
	threshold   int
}

// NewCompactor creates a compactor. A non-positive threshold falls back to
// the default.
func NewCompactor(client genai.ClientInterface, threshold int) *Compactor {
	if threshold <= 0 {
		threshold = DefaultCompactionThreshold
	}
	return &Compactor{genAIClient: client, threshold: threshold}
}

// Optimize compacts the conversation when it has reached the threshold.
// Below the threshold the inputs are returned unchanged, so running it again
// immediately after a compaction is a no-op. Summary generation failure also
// returns the inputs unchanged; the turn continues with full history.
func (c *Compactor) Optimize(ctx context.Context, conversation []models.Message, summary string) ([]models.Message, string) {
	if len(conversation) < c.threshold {
		return conversation, summary
	}

	var sb strings.Builder
	if summary != "" {
		sb.WriteString("Earlier summary: ")
		sb.WriteString(summary)
		sb.WriteString("\n")
	}
	for _, msg := range conversation {
		sb.WriteString(string(msg.Role))
		sb.WriteString(": ")
		sb.WriteString(msg.Content)
		sb.WriteString("\n")
	}

	system := "You summarize an advising conversation between a student and their advisor. Capture the student's interests, decisions made, and any commitments, in a short paragraph. Write in third person."
	newSummary, err := c.genAIClient.GeneratePrompt(ctx, system, sb.String())
	if err != nil {
		slog.Warn("Compactor.Optimize: summary generation failed, keeping full history", "error", err, "length", len(conversation))
		return conversation, summary
	}

	slog.Info("Compactor.Optimize: conversation compacted", "messages", len(conversation))
	compacted := []models.Message{{Role: models.RoleSystem, Content: "Conversation summary: " + newSummary}}
	return compacted, newSummary
}
