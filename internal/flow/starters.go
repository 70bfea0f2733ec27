package flow

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/AthenaAdvising/AthenaPipe/internal/genai"
	"github.com/AthenaAdvising/AthenaPipe/internal/models"
)

const maxStarters = 3

var numberedLine = regexp.MustCompile(`^\s*\d+[.)]\s*(.+)$`)

// StarterGenerator produces personalized conversation starters a client can
// show the student before they type anything.
type StarterGenerator struct {
	genAIClient genai.ClientInterface
}

// NewStarterGenerator creates a starter generator backed by the GenAI client.
func NewStarterGenerator(client genai.ClientInterface) *StarterGenerator {
	return &StarterGenerator{genAIClient: client}
}

// Generate asks for a numbered list of starters built from the profile and
// the last few turns, and parses out at most three. Failure returns an empty
// list rather than an error; the client simply shows none.
func (s *StarterGenerator) Generate(ctx context.Context, profile *models.StudentProfile, conversation []models.Message) []string {
	profileJSON, _ := json.Marshal(profile)

	recent := conversation
	if len(recent) > 5 {
		recent = recent[len(recent)-5:]
	}
	var sb strings.Builder
	for _, msg := range recent {
		fmt.Fprintf(&sb, "%s: %s\n", msg.Role, msg.Content)
	}

	system := "You suggest conversation starters a high school student could send their advisor. Based on the student's profile and recent conversation, write exactly 3 short, specific starters as a numbered list. Each should pick up a thread from their interests or recent discussion."
	user := "Profile: " + string(profileJSON) + "\nRecent conversation:\n" + sb.String()

	result, err := s.genAIClient.GeneratePrompt(ctx, system, user)
	if err != nil {
		slog.Warn("StarterGenerator.Generate: generation failed", "error", err)
		return nil
	}

	var starters []string
	for _, line := range strings.Split(result, "\n") {
		if match := numberedLine.FindStringSubmatch(line); match != nil {
			starters = append(starters, strings.TrimSpace(match[1]))
			if len(starters) == maxStarters {
				break
			}
		}
	}
	return starters
}
