package flow

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/AthenaAdvising/AthenaPipe/internal/models"
	"github.com/AthenaAdvising/AthenaPipe/internal/store"
	"github.com/AthenaAdvising/AthenaPipe/internal/testutil"
)

// neutralEmbed keeps embedding-based checks quiet: mentor-request phrasings
// land on one axis, everything else on another, so nothing clears the
// explicit-request threshold.
func neutralEmbed(ctx context.Context, text string) ([]float64, error) {
	if strings.Contains(strings.ToLower(text), "mentor") {
		return []float64{0, 1, 0}, nil
	}
	return []float64{1, 0, 0}, nil
}

func seedStudent(t *testing.T, st store.Store) {
	t.Helper()
	err := st.SaveStudent(models.StudentProfile{
		StudentID:   "ana",
		Name:        "Ana",
		Grade:       "10",
		FutureStudy: "biology",
	})
	if err != nil {
		t.Fatalf("failed to seed student: %v", err)
	}
}

func TestProcessMessageValidation(t *testing.T) {
	st := store.NewInMemoryStore()
	router := NewRouter(st, &testutil.MockGenAI{EmbedFunc: neutralEmbed}, nil)

	if _, err := router.ProcessMessage(context.Background(), "", "hi"); !errors.Is(err, models.ErrEmptyStudentID) {
		t.Errorf("empty student id: got %v, want ErrEmptyStudentID", err)
	}
	if _, err := router.ProcessMessage(context.Background(), "ana", "  "); !errors.Is(err, models.ErrEmptyMessage) {
		t.Errorf("empty message: got %v, want ErrEmptyMessage", err)
	}
	if _, err := router.ProcessMessage(context.Background(), "ghost", "hi"); !errors.Is(err, models.ErrStudentNotFound) {
		t.Errorf("unknown student: got %v, want ErrStudentNotFound", err)
	}
}

func TestResearchWorkflowScenario(t *testing.T) {
	st := store.NewInMemoryStore()
	seedStudent(t, st)
	router := NewRouter(st, &testutil.MockGenAI{EmbedFunc: neutralEmbed}, nil)
	ctx := context.Background()

	stage := func() models.StageType {
		session, err := st.GetSession("ana")
		if err != nil || session == nil {
			t.Fatalf("failed to load session: %v", err)
		}
		return session.Stage(models.WorkflowResearch)
	}

	// Trigger enters at step 1, never later.
	result, err := router.ProcessMessage(ctx, "ana", "I want to do research, can you help me get started?")
	if err != nil {
		t.Fatalf("turn 1 failed: %v", err)
	}
	if got := stage(); got != StageResearchIntro {
		t.Fatalf("after trigger, stage = %q, want %q", got, StageResearchIntro)
	}
	if !strings.Contains(result.LastResponse(), "Ana") {
		t.Errorf("entry prompt should interpolate the student name, got %q", result.LastResponse())
	}

	// "yes" advances to the path list.
	result, err = router.ProcessMessage(ctx, "ana", "yes")
	if err != nil {
		t.Fatalf("turn 2 failed: %v", err)
	}
	if got := stage(); got != StageResearchTypes {
		t.Fatalf("after yes, stage = %q, want %q", got, StageResearchTypes)
	}
	if !strings.Contains(result.LastResponse(), "summer research program") {
		t.Errorf("expected the path list, got %q", result.LastResponse())
	}

	// Any path choice moves to the mentor-or-details step.
	if _, err = router.ProcessMessage(ctx, "ana", "a summer program sounds good"); err != nil {
		t.Fatalf("turn 3 failed: %v", err)
	}
	if got := stage(); got != StageResearchMentor {
		t.Fatalf("after path choice, stage = %q, want %q", got, StageResearchMentor)
	}

	// "mentor" parks the workflow rather than advancing to details.
	if _, err = router.ProcessMessage(ctx, "ana", "mentor"); err != nil {
		t.Fatalf("turn 4 failed: %v", err)
	}
	if got := stage(); got != StageResearchParked {
		t.Fatalf("after mentor, stage = %q, want %q", got, StageResearchParked)
	}
}

func TestUserMessageAppendedBeforeBranching(t *testing.T) {
	st := store.NewInMemoryStore()
	seedStudent(t, st)
	router := NewRouter(st, &testutil.MockGenAI{EmbedFunc: neutralEmbed}, nil)

	if _, err := router.ProcessMessage(context.Background(), "ana", "tell me about research"); err != nil {
		t.Fatalf("turn failed: %v", err)
	}
	session, _ := st.GetSession("ana")
	if len(session.Conversation) < 2 {
		t.Fatalf("expected user and assistant turns recorded, got %d messages", len(session.Conversation))
	}
	if session.Conversation[0].Role != models.RoleUser || session.Conversation[0].Content != "tell me about research" {
		t.Errorf("workflow turn did not record the user message first: %+v", session.Conversation[0])
	}
}

func TestFallbackApologyOnCompletionFailure(t *testing.T) {
	st := store.NewInMemoryStore()
	seedStudent(t, st)
	mock := &testutil.MockGenAI{
		EmbedFunc: neutralEmbed,
		GenerateWithMessagesFunc: func(ctx context.Context, systemPrompt string, history []models.Message) (string, error) {
			return "", errors.New("upstream down")
		},
	}
	router := NewRouter(st, mock, nil)

	result, err := router.ProcessMessage(context.Background(), "ana", "how was your day?")
	if err != nil {
		t.Fatalf("turn should not fail on upstream error: %v", err)
	}
	if result.LastResponse() != apologyMessage {
		t.Errorf("expected apology reply, got %q", result.LastResponse())
	}
}

func TestPassiveMentorCooldownDecrements(t *testing.T) {
	st := store.NewInMemoryStore()
	seedStudent(t, st)
	roster := []Mentor{{ID: 1, Name: "Dr. Reyes", Embedding: []float64{1, 0, 0}}}
	router := NewRouter(st, &testutil.MockGenAI{EmbedFunc: neutralEmbed}, roster)
	ctx := context.Background()

	session := models.NewSessionState("ana")
	session.MentorCooldown = 2
	if err := st.SaveSession(*session); err != nil {
		t.Fatalf("failed to seed session: %v", err)
	}

	result, err := router.ProcessMessage(ctx, "ana", "what classes should I take for biology?")
	if err != nil {
		t.Fatalf("turn failed: %v", err)
	}
	if result.MentorID != nil {
		t.Error("recommendation must be suppressed while cooldown > 0")
	}
	saved, _ := st.GetSession("ana")
	if saved.MentorCooldown != 1 {
		t.Errorf("cooldown = %d, want 1", saved.MentorCooldown)
	}
	for _, msg := range result.NewMessages {
		if strings.Contains(msg.Content, "mentor for you") {
			t.Errorf("unexpected recommendation message: %q", msg.Content)
		}
	}
}

func TestPassiveMentorRecommendationFires(t *testing.T) {
	st := store.NewInMemoryStore()
	seedStudent(t, st)
	roster := []Mentor{{ID: 7, Name: "Dr. Reyes", Embedding: []float64{1, 0, 0}}}
	router := NewRouter(st, &testutil.MockGenAI{EmbedFunc: neutralEmbed}, roster)

	result, err := router.ProcessMessage(context.Background(), "ana", "what classes should I take for biology?")
	if err != nil {
		t.Fatalf("turn failed: %v", err)
	}
	if result.MentorID == nil || *result.MentorID != 7 {
		t.Fatalf("expected mentor 7 recommended, got %v", result.MentorID)
	}
	saved, _ := st.GetSession("ana")
	if saved.MentorCooldown != DefaultMentorCooldown {
		t.Errorf("cooldown = %d, want %d after recommendation", saved.MentorCooldown, DefaultMentorCooldown)
	}
}

func TestExplicitMentorRequestIgnoresCooldown(t *testing.T) {
	st := store.NewInMemoryStore()
	seedStudent(t, st)
	roster := []Mentor{{ID: 3, Name: "Dr. Osei", Embedding: []float64{0, 1, 0}}}
	// Every embedding lands on the same axis, so the message matches the
	// canonical request phrasings exactly.
	mock := &testutil.MockGenAI{
		EmbedFunc: func(ctx context.Context, text string) ([]float64, error) {
			return []float64{0, 1, 0}, nil
		},
	}
	router := NewRouter(st, mock, roster)

	session := models.NewSessionState("ana")
	session.MentorCooldown = 4
	if err := st.SaveSession(*session); err != nil {
		t.Fatalf("failed to seed session: %v", err)
	}

	result, err := router.ProcessMessage(context.Background(), "ana", "can you recommend a mentor for me?")
	if err != nil {
		t.Fatalf("turn failed: %v", err)
	}
	if result.MentorID == nil || *result.MentorID != 3 {
		t.Fatalf("explicit request should recommend regardless of cooldown, got %v", result.MentorID)
	}
}

func TestGoalExtractionRespectsCooldownAndDedup(t *testing.T) {
	st := store.NewInMemoryStore()
	if err := st.SaveStudent(models.StudentProfile{
		StudentID: "ana",
		Name:      "Ana",
		Goals:     []string{"email two professors"},
	}); err != nil {
		t.Fatalf("failed to seed student: %v", err)
	}
	mock := &testutil.MockGenAI{
		EmbedFunc: neutralEmbed,
		GenerateWithMessagesFunc: func(ctx context.Context, systemPrompt string, history []models.Message) (string, error) {
			return "You should try to email two professors. And you should join the science club.", nil
		},
		GeneratePromptFunc: func(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
			if strings.Contains(systemPrompt, "actionable goals") || strings.Contains(systemPrompt, "next steps") {
				return `["email two professors", "join the science club"]`, nil
			}
			return "{}", nil
		},
	}
	router := NewRouter(st, mock, nil)
	ctx := context.Background()

	// With cooldown set, extraction is skipped entirely and the counter
	// decrements.
	session := models.NewSessionState("ana")
	session.GoalCooldown = 1
	if err := st.SaveSession(*session); err != nil {
		t.Fatalf("failed to seed session: %v", err)
	}
	if _, err := router.ProcessMessage(ctx, "ana", "any advice?"); err != nil {
		t.Fatalf("turn failed: %v", err)
	}
	profile, _ := st.GetStudent("ana")
	if len(profile.Goals) != 1 {
		t.Fatalf("extraction ran despite cooldown: %v", profile.Goals)
	}
	saved, _ := st.GetSession("ana")
	if saved.GoalCooldown != 0 {
		t.Fatalf("goal cooldown = %d, want 0", saved.GoalCooldown)
	}

	// Cooldown exhausted: only the genuinely new goal lands, and the
	// cooldown resets.
	if _, err := router.ProcessMessage(ctx, "ana", "any more advice?"); err != nil {
		t.Fatalf("turn failed: %v", err)
	}
	profile, _ = st.GetStudent("ana")
	if len(profile.Goals) != 2 {
		t.Fatalf("expected exactly one new goal, got %v", profile.Goals)
	}
	if profile.Goals[1] != "join the science club" {
		t.Errorf("unexpected goals: %v", profile.Goals)
	}
	saved, _ = st.GetSession("ana")
	if saved.GoalCooldown != DefaultGoalCooldown {
		t.Errorf("goal cooldown = %d, want %d after adding a goal", saved.GoalCooldown, DefaultGoalCooldown)
	}
}

func TestTruncateTopicRuneBoundary(t *testing.T) {
	long := strings.Repeat("é", maxTopicLength) // 2 bytes per rune
	got := truncateTopic(long)
	if len(got) > maxTopicLength {
		t.Errorf("truncated topic is %d bytes, want at most %d", len(got), maxTopicLength)
	}
	for _, r := range got {
		if r == '�' {
			t.Fatal("truncation split a rune")
		}
	}

	short := "what about marine biology?"
	if truncateTopic(short) != short {
		t.Errorf("short topic must pass through unchanged")
	}
}

func TestTopicRecordedEveryTurn(t *testing.T) {
	st := store.NewInMemoryStore()
	seedStudent(t, st)
	router := NewRouter(st, &testutil.MockGenAI{EmbedFunc: neutralEmbed}, nil)

	if _, err := router.ProcessMessage(context.Background(), "ana", "tell me about colleges"); err != nil {
		t.Fatalf("turn failed: %v", err)
	}
	profile, _ := st.GetStudent("ana")
	if len(profile.Topics) != 1 || profile.Topics[0] != "tell me about colleges" {
		t.Errorf("topic not recorded: %v", profile.Topics)
	}
}
