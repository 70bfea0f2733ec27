package flow

import (
	"context"
	"encoding/json"
	"log/slog"
	"regexp"
	"strings"

	"github.com/AthenaAdvising/AthenaPipe/internal/genai"
)

// DefaultGoalCooldown is how many fallback turns goal extraction sleeps
// after it adds at least one goal.
const DefaultGoalCooldown = 5

// goalPatterns are phrasing templates an advising reply tends to use when it
// hands the student something actionable. The first capture group is the
// goal text.
var goalPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)you should try to ([^.!?\n]+)`),
	regexp.MustCompile(`(?i)it would be great if you could ([^.!?\n]+)`),
	regexp.MustCompile(`(?i)consider working on ([^.!?\n]+)`),
	regexp.MustCompile(`(?i)maybe set a goal to ([^.!?\n]+)`),
}

// GoalExtractor pulls actionable goals out of a generated advising reply.
type GoalExtractor struct {
	genAIClient genai.ClientInterface
}

// NewGoalExtractor creates a goal extractor backed by the GenAI client.
func NewGoalExtractor(client genai.ClientInterface) *GoalExtractor {
	return &GoalExtractor{genAIClient: client}
}

// Extract runs both extraction passes over the assistant reply and returns
// the deduplicated union: a deterministic pattern match yielding at most one
// goal, and an LLM pass asked for a JSON array, retried once with a rephrased
// prompt when the first yields nothing. Malformed model output degrades to an
// empty list.
func (g *GoalExtractor) Extract(ctx context.Context, assistantReply string) []string {
	seen := make(map[string]bool)
	var goals []string
	add := func(goal string) {
		goal = strings.TrimSpace(goal)
		if goal == "" || seen[goal] {
			return
		}
		seen[goal] = true
		goals = append(goals, goal)
	}

	for _, pattern := range goalPatterns {
		if match := pattern.FindStringSubmatch(assistantReply); match != nil {
			add(match[1])
			break
		}
	}

	llmGoals := g.llmPass(ctx, assistantReply,
		"You extract actionable goals for a student from an advisor's message. Respond with a JSON array of short goal strings, for example [\"email two professors about research\"]. Respond with [] if there are none.")
	if len(llmGoals) == 0 {
		llmGoals = g.llmPass(ctx, assistantReply,
			"Read the advisor's message below and list any concrete next steps the student is being asked to take. Output only a JSON array of strings, nothing else.")
	}
	for _, goal := range llmGoals {
		add(goal)
	}
	return goals
}

func (g *GoalExtractor) llmPass(ctx context.Context, reply, system string) []string {
	result, err := g.genAIClient.GeneratePrompt(ctx, system, reply)
	if err != nil {
		slog.Warn("GoalExtractor.llmPass: extraction failed", "error", err)
		return nil
	}
	raw, ok := genai.ExtractJSON(result)
	if !ok {
		return nil
	}
	var goals []string
	if err := json.Unmarshal([]byte(raw), &goals); err != nil {
		slog.Debug("GoalExtractor.llmPass: unparseable goal list", "error", err)
		return nil
	}
	return goals
}
