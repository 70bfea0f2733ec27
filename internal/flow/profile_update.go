package flow

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"

	"github.com/AthenaAdvising/AthenaPipe/internal/genai"
	"github.com/AthenaAdvising/AthenaPipe/internal/models"
)

// ProfileUpdate is the structured result of a profile-update extraction pass:
// field patches the student revealed in conversation plus any caveat the
// model attached to them.
type ProfileUpdate struct {
	Updates     map[string]interface{} `json:"updates"`
	Disclaimers string                 `json:"disclaimers"`
}

// ProfileUpdater watches fallback-chat turns for new facts about the student
// and patches them onto the profile.
type ProfileUpdater struct {
	genAIClient genai.ClientInterface
}

// NewProfileUpdater creates a profile updater backed by the GenAI client.
func NewProfileUpdater(client genai.ClientInterface) *ProfileUpdater {
	return &ProfileUpdater{genAIClient: client}
}

// Parse asks the model whether the latest message revealed profile-worthy
// information. Any failure or malformed output degrades to an empty update.
func (p *ProfileUpdater) Parse(ctx context.Context, summary string, profile *models.StudentProfile, message string) ProfileUpdate {
	empty := ProfileUpdate{Updates: map[string]interface{}{}}

	profileJSON, err := json.Marshal(profile)
	if err != nil {
		return empty
	}
	system := `You maintain a student profile from conversation. Given the current profile, a conversation summary, and the student's latest message, decide whether the message reveals new or changed profile information. Respond with JSON of the form {"updates": {...}, "disclaimers": "..."} where updates contains only changed fields from this set: grade, future_study, deep_interest, unique_something, current_extracurriculars, favorite_courses, competitions, notes, goals. Use {"updates": {}, "disclaimers": ""} when nothing changed.`
	user := "Current profile: " + string(profileJSON) + "\nConversation summary: " + summary + "\nLatest message: " + message

	result, err := p.genAIClient.GeneratePrompt(ctx, system, user)
	if err != nil {
		slog.Warn("ProfileUpdater.Parse: extraction failed", "error", err)
		return empty
	}
	raw, ok := genai.ExtractJSON(result)
	if !ok {
		return empty
	}
	var update ProfileUpdate
	if err := json.Unmarshal([]byte(raw), &update); err != nil {
		slog.Debug("ProfileUpdater.Parse: unparseable update", "error", err)
		return empty
	}
	if update.Updates == nil {
		update.Updates = map[string]interface{}{}
	}
	return update
}

// Apply patches recognized fields onto the profile. Scalar fields are
// overwritten; competitions, notes, and goals go through the bounded,
// deduplicated accumulators. Returns true if anything changed.
func (p *ProfileUpdater) Apply(profile *models.StudentProfile, update ProfileUpdate) bool {
	changed := false
	setString := func(dst *string, v interface{}) {
		if s, ok := v.(string); ok && strings.TrimSpace(s) != "" && s != *dst {
			*dst = s
			changed = true
		}
	}

	for field, value := range update.Updates {
		switch field {
		case "grade":
			setString(&profile.Grade, value)
		case "future_study":
			setString(&profile.FutureStudy, value)
		case "deep_interest":
			setString(&profile.DeepInterest, value)
		case "unique_something":
			setString(&profile.UniqueSomething, value)
		case "current_extracurriculars":
			setString(&profile.CurrentExtracurriculars, value)
		case "favorite_courses":
			setString(&profile.FavoriteCourses, value)
		case "competitions":
			for _, name := range toStrings(value) {
				before := len(profile.Competitions)
				profile.AddCompetition(name)
				changed = changed || len(profile.Competitions) != before
			}
		case "notes":
			for _, note := range toStrings(value) {
				before := len(profile.Notes)
				profile.AddNote(note)
				changed = changed || len(profile.Notes) != before
			}
		case "goals":
			for _, goal := range toStrings(value) {
				if profile.AddGoal(goal) {
					changed = true
				}
			}
		}
	}

	if strings.TrimSpace(update.Disclaimers) != "" {
		profile.AddNote(update.Disclaimers)
		changed = true
	}
	return changed
}

// toStrings accepts either a JSON string or array of strings.
func toStrings(v interface{}) []string {
	switch t := v.(type) {
	case string:
		return []string{t}
	case []interface{}:
		var out []string
		for _, item := range t {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}
