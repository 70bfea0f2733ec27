package flow

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"

	"github.com/AthenaAdvising/AthenaPipe/internal/genai"
	"github.com/AthenaAdvising/AthenaPipe/internal/models"
)

// apologyMessage is the inline degraded reply used whenever generation fails
// mid-turn. The student always receives a response.
const apologyMessage = "Sorry, I ran into a problem putting together my answer. Could you say that again?"

// ExpectKind describes the answer shape a workflow step classifies against.
type ExpectKind int

const (
	// ExpectYesNo steps branch on agreement or refusal.
	ExpectYesNo ExpectKind = iota
	// ExpectOption steps branch on a closed set of named options.
	ExpectOption
	// ExpectAny steps accept any free-form answer and always take the
	// "any" transition.
	ExpectAny
)

// Transition describes what happens when a step's classifier recognizes an
// answer: the next stage plus the reply to emit. Ack is a fixed message sent
// first; Template is a fixed reply; Generate renders the reply through the
// completion gateway seeded with GenPrompt, the profile, and the raw message.
type Transition struct {
	To        models.StageType
	Ack       string
	Template  string
	Generate  bool
	GenPrompt string
}

// WorkflowStep is one named state of a workflow's state machine.
type WorkflowStep struct {
	Stage       models.StageType
	Expect      ExpectKind
	Options     []string
	Transitions map[string]Transition
	Reprompt    string
}

// WorkflowDef is a complete guided-activity workflow as a data table. The
// engine interprets these; workflows carry no bespoke code.
type WorkflowDef struct {
	Type          models.WorkflowType
	Triggers      []string
	EntryTemplate string
	EntryGenerate bool
	EntryPrompt   string
	Steps         []WorkflowStep
}

func (d *WorkflowDef) step(stage models.StageType) (WorkflowStep, bool) {
	for _, s := range d.Steps {
		if s.Stage == stage {
			return s, true
		}
	}
	return WorkflowStep{}, false
}

// WorkflowEngine interprets workflow definitions in priority order. One
// engine instance serves all students; per-student state lives entirely in
// the session's stage map.
type WorkflowEngine struct {
	classifier  *Classifier
	genAIClient genai.ClientInterface
	workflows   []WorkflowDef
}

// NewWorkflowEngine builds an engine over the given workflow tables. The
// slice order is the priority order for both continuation and entry checks.
func NewWorkflowEngine(classifier *Classifier, client genai.ClientInterface, workflows []WorkflowDef) *WorkflowEngine {
	return &WorkflowEngine{
		classifier:  classifier,
		genAIClient: client,
		workflows:   workflows,
	}
}

// ContinueActive advances a mid-flight workflow, if any. Returns the replies
// to append and whether a workflow handled the turn.
func (e *WorkflowEngine) ContinueActive(ctx context.Context, session *models.SessionState, profile *models.StudentProfile, message string) ([]string, bool) {
	for i := range e.workflows {
		def := &e.workflows[i]
		stage := session.Stage(def.Type)
		if stage == models.StageNone {
			continue
		}
		return e.advance(ctx, def, stage, session, profile, message), true
	}
	return nil, false
}

// TryEnter starts the first workflow whose trigger matches the message.
// Entry always lands on the first named step, never later ones.
func (e *WorkflowEngine) TryEnter(ctx context.Context, session *models.SessionState, profile *models.StudentProfile, message string) ([]string, bool) {
	for i := range e.workflows {
		def := &e.workflows[i]
		if !MatchesTrigger(message, def.Triggers) {
			continue
		}
		slog.Info("WorkflowEngine.TryEnter: entering workflow", "workflow", def.Type, "studentID", session.StudentID)

		var reply string
		if def.EntryGenerate {
			reply = e.generate(ctx, def.EntryPrompt, profile, message)
		} else {
			reply = renderTemplate(def.EntryTemplate, profile, "", message)
		}

		session.SetStage(def.Type, def.Steps[0].Stage)
		session.ResetStagesExcept(def.Type)
		return []string{reply}, true
	}
	return nil, false
}

// advance classifies the message against the current step and applies the
// step's transition table. Unrecognized input keeps the stage and re-prompts.
func (e *WorkflowEngine) advance(ctx context.Context, def *WorkflowDef, stage models.StageType, session *models.SessionState, profile *models.StudentProfile, message string) []string {
	step, ok := def.step(stage)
	if !ok {
		// Stage value from an older table layout; restart the workflow.
		slog.Warn("WorkflowEngine.advance: unknown stage, resetting", "workflow", def.Type, "stage", stage)
		session.SetStage(def.Type, models.StageNone)
		return []string{renderTemplate(def.EntryTemplate, profile, "", message)}
	}

	answer, recognized := e.classify(ctx, step, message)
	if !recognized {
		slog.Debug("WorkflowEngine.advance: unrecognized answer, re-prompting", "workflow", def.Type, "stage", stage)
		return []string{renderTemplate(step.Reprompt, profile, "", message)}
	}

	tr, ok := step.Transitions[answer]
	if !ok {
		return []string{renderTemplate(step.Reprompt, profile, "", message)}
	}

	var replies []string
	if tr.Ack != "" {
		replies = append(replies, renderTemplate(tr.Ack, profile, answer, message))
	}
	if tr.Generate {
		replies = append(replies, e.generate(ctx, renderTemplate(tr.GenPrompt, profile, answer, message), profile, message))
	} else if tr.Template != "" {
		replies = append(replies, renderTemplate(tr.Template, profile, answer, message))
	}

	session.SetStage(def.Type, tr.To)
	slog.Info("WorkflowEngine.advance: stage transition", "workflow", def.Type, "from", stage, "to", tr.To, "answer", answer)
	return replies
}

func (e *WorkflowEngine) classify(ctx context.Context, step WorkflowStep, message string) (string, bool) {
	switch step.Expect {
	case ExpectYesNo:
		answer := e.classifier.YesNo(ctx, message)
		if answer == AnswerOther {
			return "", false
		}
		return string(answer), true
	case ExpectOption:
		return e.classifier.Option(ctx, message, step.Options)
	default:
		return "any", true
	}
}

// generate renders a reply through the completion gateway with the profile
// attached as context. Failure degrades to the apology message; the stage
// transition still applies.
func (e *WorkflowEngine) generate(ctx context.Context, systemPrompt string, profile *models.StudentProfile, message string) string {
	profileJSON, _ := json.Marshal(profile)
	user := "Student profile: " + string(profileJSON) + "\nStudent message: " + message
	reply, err := e.genAIClient.GeneratePrompt(ctx, systemPrompt, user)
	if err != nil {
		slog.Error("WorkflowEngine.generate: generation failed", "error", err)
		return apologyMessage
	}
	return reply
}

// renderTemplate interpolates profile fields and the classified answer into a
// template string.
func renderTemplate(tmpl string, profile *models.StudentProfile, answer, message string) string {
	r := strings.NewReplacer(
		"{name}", profile.Name,
		"{grade}", profile.Grade,
		"{future_study}", profile.FutureStudy,
		"{deep_interest}", profile.DeepInterest,
		"{extracurriculars}", profile.CurrentExtracurriculars,
		"{favorite_courses}", profile.FavoriteCourses,
		"{answer}", answer,
		"{message}", message,
	)
	return r.Replace(tmpl)
}
