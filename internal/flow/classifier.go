package flow

import (
	"context"
	"log/slog"
	"strings"

	"github.com/AthenaAdvising/AthenaPipe/internal/genai"
)

// Answer is a classified yes/no/other decision for one workflow step.
type Answer string

const (
	AnswerYes   Answer = "yes"
	AnswerNo    Answer = "no"
	AnswerOther Answer = "other"
)

// Classifier turns free text into the small closed decisions workflow steps
// expect. Deterministic word matching runs first; the GenAI client is only
// consulted when the message is not obviously one of the expected values.
type Classifier struct {
	genAIClient genai.ClientInterface
}

// NewClassifier creates a classifier backed by the given GenAI client.
func NewClassifier(client genai.ClientInterface) *Classifier {
	return &Classifier{genAIClient: client}
}

// MatchesTrigger reports whether any trigger phrase occurs in the message.
// Matching is case-insensitive substring containment.
func MatchesTrigger(message string, triggers []string) bool {
	lower := strings.ToLower(message)
	for _, t := range triggers {
		if strings.Contains(lower, t) {
			return true
		}
	}
	return false
}

var (
	yesWords = []string{"yes", "yeah", "yep", "yup", "sure", "ok", "okay", "definitely", "absolutely", "sounds good", "let's do it", "lets do it"}
	noWords  = []string{"no", "nope", "nah", "not really", "don't", "dont"}
)

// YesNo classifies a message as yes, no, or other. Word-list matching is
// tried first; the LLM fallback handles indirect phrasings. Any classifier
// failure degrades to other so the workflow stays in its current stage.
func (c *Classifier) YesNo(ctx context.Context, message string) Answer {
	lower := strings.ToLower(strings.TrimSpace(message))
	for _, w := range yesWords {
		if lower == w || strings.HasPrefix(lower, w+" ") || strings.HasPrefix(lower, w+",") || strings.HasPrefix(lower, w+"!") {
			return AnswerYes
		}
	}
	for _, w := range noWords {
		if lower == w || strings.HasPrefix(lower, w+" ") || strings.HasPrefix(lower, w+",") {
			return AnswerNo
		}
	}

	system := "You classify a student's reply as agreement or refusal. Respond with exactly one word: yes, no, or other."
	result, err := c.genAIClient.GeneratePrompt(ctx, system, message)
	if err != nil {
		slog.Warn("Classifier.YesNo: classification failed, treating as other", "error", err)
		return AnswerOther
	}
	switch strings.ToLower(strings.TrimSpace(result)) {
	case "yes":
		return AnswerYes
	case "no":
		return AnswerNo
	default:
		return AnswerOther
	}
}

// Option classifies a message against a closed set of named options. Returns
// the matched option and true, or ("", false) when nothing in the set fits.
func (c *Classifier) Option(ctx context.Context, message string, options []string) (string, bool) {
	lower := strings.ToLower(message)
	for _, opt := range options {
		if strings.Contains(lower, strings.ToLower(opt)) {
			return opt, true
		}
	}

	system := "You map a student's reply onto one of a fixed set of options. Respond with exactly one option from the list, or the word none if the reply matches none of them. Options: " + strings.Join(options, ", ")
	result, err := c.genAIClient.GeneratePrompt(ctx, system, message)
	if err != nil {
		slog.Warn("Classifier.Option: classification failed, treating as unrecognized", "error", err)
		return "", false
	}
	cleaned := strings.ToLower(strings.TrimSpace(result))
	for _, opt := range options {
		if cleaned == strings.ToLower(opt) {
			return opt, true
		}
	}
	return "", false
}
