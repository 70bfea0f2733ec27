package flow

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"os"
	"strings"
	"sync"

	"github.com/AthenaAdvising/AthenaPipe/internal/genai"
	"github.com/AthenaAdvising/AthenaPipe/internal/models"
)

// Similarity thresholds for mentor matching.
const (
	// MentorRecommendationThreshold is the minimum cosine similarity for a
	// roster match to be recommended at all.
	MentorRecommendationThreshold = 0.3
	// ExplicitRequestThreshold is the stricter similarity bar for treating a
	// message as an explicit ask for a mentor.
	ExplicitRequestThreshold = 0.85
	// DefaultMentorCooldown is how many fallback turns a passive
	// recommendation is suppressed for after one fires.
	DefaultMentorCooldown = 5
)

// explicitRequestExamples are canonical phrasings of a direct mentor ask.
var explicitRequestExamples = []string{
	"can you recommend a mentor for me",
	"i want a mentor",
	"can you find me a mentor",
	"is there a mentor who could help me",
	"i would like to be matched with a mentor",
}

// Mentor is one roster entry with its precomputed embedding.
type Mentor struct {
	ID        int       `json:"id"`
	Name      string    `json:"name"`
	Expertise string    `json:"expertise,omitempty"`
	Embedding []float64 `json:"embedding"`
}

// LoadRoster reads the mentor index JSON file. The roster is read-only
// process-wide state loaded once at startup.
func LoadRoster(path string) ([]Mentor, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read mentor index: %w", err)
	}
	var roster []Mentor
	if err := json.Unmarshal(data, &roster); err != nil {
		return nil, fmt.Errorf("failed to parse mentor index: %w", err)
	}
	slog.Info("LoadRoster: mentor index loaded", "path", path, "mentors", len(roster))
	return roster, nil
}

// MentorRecommender matches students against the mentor roster by embedding
// similarity.
type MentorRecommender struct {
	genAIClient genai.ClientInterface
	roster      []Mentor

	mu                sync.Mutex
	exampleEmbeddings [][]float64
}

// NewMentorRecommender creates a recommender over a fixed roster.
func NewMentorRecommender(client genai.ClientInterface, roster []Mentor) *MentorRecommender {
	return &MentorRecommender{genAIClient: client, roster: roster}
}

// Recommend embeds a blob of profile fields plus the raw message and returns
// the best roster match with its score. Returns nil when the best score is
// below MentorRecommendationThreshold. Ties keep the earliest roster entry.
func (m *MentorRecommender) Recommend(ctx context.Context, message string, profile *models.StudentProfile) (*Mentor, float64) {
	if len(m.roster) == 0 {
		return nil, 0
	}

	blob := strings.Join([]string{
		profile.FutureStudy,
		profile.DeepInterest,
		profile.CurrentExtracurriculars,
		profile.FavoriteCourses,
		message,
	}, " ")
	vec, err := m.genAIClient.Embed(ctx, blob)
	if err != nil {
		slog.Warn("MentorRecommender.Recommend: embedding failed", "error", err)
		return nil, 0
	}

	var best *Mentor
	bestScore := -1.0
	for i := range m.roster {
		score := cosineSimilarity(vec, m.roster[i].Embedding)
		if score > bestScore {
			bestScore = score
			best = &m.roster[i]
		}
	}

	if bestScore < MentorRecommendationThreshold {
		slog.Debug("MentorRecommender.Recommend: no match above threshold", "bestScore", bestScore)
		return nil, bestScore
	}
	slog.Info("MentorRecommender.Recommend: matched mentor", "mentorID", best.ID, "score", bestScore)
	return best, bestScore
}

// IsExplicitRequest reports whether the message is a direct ask for a mentor,
// by similarity against the canonical phrasings. Embedding failures are
// treated as not-explicit so the turn continues normally.
func (m *MentorRecommender) IsExplicitRequest(ctx context.Context, message string) bool {
	examples, err := m.exampleVectors(ctx)
	if err != nil {
		slog.Warn("MentorRecommender.IsExplicitRequest: example embeddings unavailable", "error", err)
		return false
	}
	vec, err := m.genAIClient.Embed(ctx, message)
	if err != nil {
		slog.Warn("MentorRecommender.IsExplicitRequest: embedding failed", "error", err)
		return false
	}
	for _, ex := range examples {
		if cosineSimilarity(vec, ex) >= ExplicitRequestThreshold {
			return true
		}
	}
	return false
}

// Reason generates a short explanation of why a mentor fits the student.
// Failure degrades to generic text rather than suppressing the recommendation.
func (m *MentorRecommender) Reason(ctx context.Context, mentor *Mentor, message string) string {
	system := "You explain in one or two friendly sentences why a mentor is a good match for a high school student, based on the student's message. Do not invent credentials."
	user := fmt.Sprintf("Mentor: %s (%s). Student message: %s", mentor.Name, mentor.Expertise, message)
	reason, err := m.genAIClient.GeneratePrompt(ctx, system, user)
	if err != nil {
		slog.Warn("MentorRecommender.Reason: generation failed, using fallback", "error", err)
		return fmt.Sprintf("I think %s could be a great mentor for you based on what you're interested in.", mentor.Name)
	}
	return reason
}

// exampleVectors lazily embeds the canonical request phrasings and caches
// them for the process lifetime. The network calls happen outside the lock so
// concurrent checks are not serialized behind the first fill; a failed fill
// is retried on the next call.
func (m *MentorRecommender) exampleVectors(ctx context.Context) ([][]float64, error) {
	m.mu.Lock()
	cached := m.exampleEmbeddings
	m.mu.Unlock()
	if cached != nil {
		return cached, nil
	}

	vectors := make([][]float64, 0, len(explicitRequestExamples))
	for _, ex := range explicitRequestExamples {
		vec, err := m.genAIClient.Embed(ctx, ex)
		if err != nil {
			return nil, fmt.Errorf("failed to embed request example: %w", err)
		}
		vectors = append(vectors, vec)
	}

	m.mu.Lock()
	if m.exampleEmbeddings == nil {
		m.exampleEmbeddings = vectors
	} else {
		vectors = m.exampleEmbeddings
	}
	m.mu.Unlock()
	return vectors, nil
}

// cosineSimilarity returns the cosine of the angle between two vectors, or 0
// when either has zero magnitude or the lengths differ.
func cosineSimilarity(a, b []float64) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
