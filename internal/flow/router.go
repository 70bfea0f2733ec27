package flow

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/AthenaAdvising/AthenaPipe/internal/genai"
	"github.com/AthenaAdvising/AthenaPipe/internal/models"
	"github.com/AthenaAdvising/AthenaPipe/internal/store"
)

// maxTopicLength bounds the recorded per-turn topic string.
const maxTopicLength = 80

// Opts holds tunable router configuration.
type Opts struct {
	MentorCooldown      int
	GoalCooldown        int
	CompactionThreshold int
	Workflows           []WorkflowDef
}

// Option configures router construction.
type Option func(*Opts)

// WithMentorCooldown overrides how long passive mentor recommendations sleep
// after one fires.
func WithMentorCooldown(turns int) Option {
	return func(o *Opts) { o.MentorCooldown = turns }
}

// WithGoalCooldown overrides how long goal extraction sleeps after adding a
// goal.
func WithGoalCooldown(turns int) Option {
	return func(o *Opts) { o.GoalCooldown = turns }
}

// WithCompactionThreshold overrides the conversation length that triggers
// compaction.
func WithCompactionThreshold(n int) Option {
	return func(o *Opts) { o.CompactionThreshold = n }
}

// WithWorkflows overrides the workflow tables, in priority order.
func WithWorkflows(workflows []WorkflowDef) Option {
	return func(o *Opts) { o.Workflows = workflows }
}

// TurnResult is what one processed turn hands back to the API layer.
type TurnResult struct {
	Conversation []models.Message
	NewMessages  []models.Message
	MentorID     *int
}

// LastResponse returns the final assistant message of the turn, empty when
// the turn produced none.
func (r *TurnResult) LastResponse() string {
	for i := len(r.Conversation) - 1; i >= 0; i-- {
		if r.Conversation[i].Role == models.RoleAssistant {
			return r.Conversation[i].Content
		}
	}
	return ""
}

// Router is the per-turn decision process: given a student message it picks
// exactly one response strategy, produces the assistant turn, and persists
// the updated session and profile.
type Router struct {
	store          store.Store
	sessions       *SessionManager
	genAIClient    genai.ClientInterface
	engine         *WorkflowEngine
	recommender    *MentorRecommender
	compactor      *Compactor
	goals          *GoalExtractor
	profileUpdater *ProfileUpdater
	starters       *StarterGenerator
	mentorCooldown int
	goalCooldown   int
}

// NewRouter wires the routing core over a store, a GenAI client, and the
// mentor roster.
func NewRouter(st store.Store, client genai.ClientInterface, roster []Mentor, opts ...Option) *Router {
	cfg := Opts{
		MentorCooldown: DefaultMentorCooldown,
		GoalCooldown:   DefaultGoalCooldown,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.Workflows == nil {
		cfg.Workflows = DefaultWorkflows()
	}

	classifier := NewClassifier(client)
	return &Router{
		store:          st,
		sessions:       NewSessionManager(st),
		genAIClient:    client,
		engine:         NewWorkflowEngine(classifier, client, cfg.Workflows),
		recommender:    NewMentorRecommender(client, roster),
		compactor:      NewCompactor(client, cfg.CompactionThreshold),
		goals:          NewGoalExtractor(client),
		profileUpdater: NewProfileUpdater(client),
		starters:       NewStarterGenerator(client),
		mentorCooldown: cfg.MentorCooldown,
		goalCooldown:   cfg.GoalCooldown,
	}
}

// Sessions exposes the session manager, used by the API layer to create
// sessions lazily on student upsert.
func (r *Router) Sessions() *SessionManager {
	return r.sessions
}

// ProcessMessage runs one turn for a student. Validation failures return
// sentinel errors before any state is touched; unknown students return
// models.ErrStudentNotFound. Upstream model failures degrade to an inline
// apology so the student always gets a reply; store failures are returned.
func (r *Router) ProcessMessage(ctx context.Context, studentID, message string) (*TurnResult, error) {
	if strings.TrimSpace(studentID) == "" {
		return nil, models.ErrEmptyStudentID
	}
	if strings.TrimSpace(message) == "" {
		return nil, models.ErrEmptyMessage
	}
	studentID = models.NormalizeStudentID(studentID)

	unlock := r.sessions.Lock(studentID)
	defer unlock()

	profile, err := r.store.GetStudent(studentID)
	if err != nil {
		return nil, fmt.Errorf("failed to load student: %w", err)
	}
	if profile == nil {
		return nil, models.ErrStudentNotFound
	}

	session, err := r.sessions.GetOrCreate(studentID)
	if err != nil {
		return nil, err
	}

	// The user turn lands in the transcript before any branching so every
	// strategy sees the same history.
	session.Append(models.RoleUser, message)
	session.Conversation, session.ConversationSummary = r.compactor.Optimize(ctx, session.Conversation, session.ConversationSummary)

	result := &TurnResult{}
	replies, handled := r.engine.ContinueActive(ctx, session, profile, message)
	if !handled {
		replies, handled = r.engine.TryEnter(ctx, session, profile, message)
	}
	if !handled && r.recommender.IsExplicitRequest(ctx, message) {
		replies = r.explicitMentorTurn(ctx, session, profile, message, result)
		handled = true
	}
	if !handled {
		replies = r.fallbackTurn(ctx, session, profile, message, result)
	}

	for _, reply := range replies {
		session.Append(models.RoleAssistant, reply)
		result.NewMessages = append(result.NewMessages, models.Message{Role: models.RoleAssistant, Content: reply})
	}

	profile.AddTopic(truncateTopic(message))
	now := time.Now()
	profile.UpdatedAt = now
	session.UpdatedAt = now

	if err := r.sessions.Save(session); err != nil {
		return nil, err
	}
	if err := r.store.SaveStudent(*profile); err != nil {
		return nil, fmt.Errorf("failed to save student: %w", err)
	}

	result.Conversation = session.Conversation
	slog.Debug("Router.ProcessMessage: turn complete", "studentID", studentID, "newMessages", len(result.NewMessages))
	return result, nil
}

// ConversationStarters builds personalized starters for a student from their
// profile and recent conversation.
func (r *Router) ConversationStarters(ctx context.Context, studentID string) ([]string, error) {
	studentID = models.NormalizeStudentID(studentID)
	profile, err := r.store.GetStudent(studentID)
	if err != nil {
		return nil, fmt.Errorf("failed to load student: %w", err)
	}
	if profile == nil {
		return nil, models.ErrStudentNotFound
	}
	session, err := r.sessions.GetOrCreate(studentID)
	if err != nil {
		return nil, err
	}
	return r.starters.Generate(ctx, profile, session.Conversation), nil
}

// explicitMentorTurn handles a direct mentor ask. Cooldown never gates
// explicit requests.
func (r *Router) explicitMentorTurn(ctx context.Context, session *models.SessionState, profile *models.StudentProfile, message string, result *TurnResult) []string {
	mentor, score := r.recommender.Recommend(ctx, message, profile)
	if mentor == nil {
		slog.Info("Router.explicitMentorTurn: no match above threshold", "studentID", session.StudentID, "bestScore", score)
		return []string{"I looked through the mentors I know, but I don't have a strong match for that yet. Tell me more about what you'd want to work on with a mentor and I'll keep looking."}
	}
	reason := r.recommender.Reason(ctx, mentor, message)
	result.MentorID = &mentor.ID
	return []string{fmt.Sprintf("I'd recommend %s as a mentor for you. %s", mentor.Name, reason)}
}

// fallbackTurn is the general-chat branch: a completion over the full
// context, followed by profile-update extraction, goal extraction, and
// passive mentor recommendation.
func (r *Router) fallbackTurn(ctx context.Context, session *models.SessionState, profile *models.StudentProfile, message string, result *TurnResult) []string {
	reply, err := r.genAIClient.GenerateWithMessages(ctx, r.systemPrompt(profile, session.ConversationSummary), session.Conversation)
	if err != nil {
		slog.Error("Router.fallbackTurn: completion failed", "error", err, "studentID", session.StudentID)
		reply = apologyMessage
	}
	replies := []string{reply}

	update := r.profileUpdater.Parse(ctx, session.ConversationSummary, profile, message)
	if r.profileUpdater.Apply(profile, update) {
		slog.Debug("Router.fallbackTurn: profile updated", "studentID", session.StudentID)
	}

	if session.GoalCooldown > 0 {
		session.GoalCooldown--
	} else {
		added := false
		for _, goal := range r.goals.Extract(ctx, reply) {
			if profile.AddGoal(goal) {
				added = true
				replies = append(replies, fmt.Sprintf("I've added a goal for you: %s", goal))
			}
		}
		if added {
			session.GoalCooldown = r.goalCooldown
		}
	}

	if session.MentorCooldown > 0 {
		session.MentorCooldown--
	} else if mentor, score := r.recommender.Recommend(ctx, message, profile); mentor != nil {
		slog.Info("Router.fallbackTurn: passive mentor recommendation", "studentID", session.StudentID, "mentorID", mentor.ID, "score", score)
		reason := r.recommender.Reason(ctx, mentor, message)
		result.MentorID = &mentor.ID
		replies = append(replies, fmt.Sprintf("By the way, %s might be a great mentor for you. %s", mentor.Name, reason))
		session.MentorCooldown = r.mentorCooldown
	}

	return replies
}

func (r *Router) systemPrompt(profile *models.StudentProfile, summary string) string {
	var sb strings.Builder
	sb.WriteString("You are Athena, a warm and practical advisor for high school students. Keep replies short, specific, and encouraging.\n")
	fmt.Fprintf(&sb, "Student: %s, grade %s. Wants to study: %s. Deep interest: %s. Extracurriculars: %s. Favorite courses: %s.",
		profile.Name, profile.Grade, profile.FutureStudy, profile.DeepInterest, profile.CurrentExtracurriculars, profile.FavoriteCourses)
	if len(profile.Goals) > 0 {
		sb.WriteString("\nCurrent goals: " + strings.Join(profile.Goals, "; "))
	}
	if summary != "" {
		sb.WriteString("\nEarlier conversation summary: " + summary)
	}
	return sb.String()
}

// truncateTopic bounds the recorded topic, cutting on a rune boundary so the
// stored string stays valid UTF-8.
func truncateTopic(message string) string {
	message = strings.TrimSpace(message)
	if len(message) <= maxTopicLength {
		return message
	}
	cut := 0
	for i := range message {
		if i > maxTopicLength {
			break
		}
		cut = i
	}
	return message[:cut]
}
