package service

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"assessment-service/internal/content"
	"assessment-service/internal/hint"
	"assessment-service/internal/models"
	"assessment-service/internal/repository"
)

type fakeCheckpointGenerator struct {
	generate func(ctx context.Context, concept models.Concept, documentContext string, count int) ([]models.Checkpoint, error)
}

func (f *fakeCheckpointGenerator) GenerateCheckpoints(ctx context.Context, concept models.Concept, documentContext string, count int) ([]models.Checkpoint, error) {
	return f.generate(ctx, concept, documentContext, count)
}

type fakeAnalyzer struct {
	analyze func(ctx context.Context, checkpoint *models.Checkpoint, userResponse string, attemptCount int, history []models.ConversationTurn) (*content.ResponseAnalysis, error)
}

func (f *fakeAnalyzer) AnalyzeResponse(ctx context.Context, checkpoint *models.Checkpoint, userResponse string, attemptCount int, history []models.ConversationTurn) (*content.ResponseAnalysis, error) {
	return f.analyze(ctx, checkpoint, userResponse, attemptCount, history)
}

type fakeEncourager struct {
	encourage func(ctx context.Context, checkpointCompleted bool, level content.UnderstandingLevel) (string, error)
}

func (f *fakeEncourager) Encouragement(ctx context.Context, checkpointCompleted bool, level content.UnderstandingLevel) (string, error) {
	return f.encourage(ctx, checkpointCompleted, level)
}

func staticCheckpoints(count int) []models.Checkpoint {
	checkpoints := make([]models.Checkpoint, count)
	for i := 0; i < count; i++ {
		checkpoints[i] = models.Checkpoint{
			ID:               fmt.Sprintf("cp%d", i+1),
			Order:            i + 1,
			Title:            fmt.Sprintf("Checkpoint %d", i+1),
			SocraticQuestion: fmt.Sprintf("What about part %d?", i+1),
			ExpectedInsight:  "The key idea.",
			Hints: []models.Hint{
				{Level: 1, Text: "Gentle nudge."},
				{Level: 2, Text: "Stronger push."},
				{Level: 3, Text: "Almost the insight."},
			},
		}
	}
	return checkpoints
}

func advancingAnalyzer() *fakeAnalyzer {
	return &fakeAnalyzer{
		analyze: func(ctx context.Context, checkpoint *models.Checkpoint, userResponse string, attemptCount int, history []models.ConversationTurn) (*content.ResponseAnalysis, error) {
			return &content.ResponseAnalysis{UnderstandingLevel: content.UnderstandingGood, ShouldAdvance: true}, nil
		},
	}
}

func stallingAnalyzer() *fakeAnalyzer {
	return &fakeAnalyzer{
		analyze: func(ctx context.Context, checkpoint *models.Checkpoint, userResponse string, attemptCount int, history []models.ConversationTurn) (*content.ResponseAnalysis, error) {
			return &content.ResponseAnalysis{
				UnderstandingLevel: content.UnderstandingPartial,
				ShouldAdvance:      false,
				FollowUp:           "What else could it mean?",
			}, nil
		},
	}
}

func newLearning(t *testing.T, sessions *repository.Sessions, analyzer content.ResponseAnalyzer, maxAttempts int) *LearningService {
	t.Helper()
	checkpoints := &fakeCheckpointGenerator{
		generate: func(ctx context.Context, concept models.Concept, documentContext string, count int) ([]models.Checkpoint, error) {
			return staticCheckpoints(count), nil
		},
	}
	return NewLearningService(sessions, checkpoints, analyzer, nil, maxAttempts)
}

func TestEnterLearningMode(t *testing.T) {
	svc, sessions := newEngine(t, 2)
	session := startedSession(t, svc, 2)
	learningSvc := newLearning(t, sessions, advancingAnalyzer(), 0)
	ctx := context.Background()

	state, err := learningSvc.EnterLearningMode(ctx, session.ID, "q1")
	if err != nil {
		t.Fatal(err)
	}
	if state.SessionStatus != models.SessionLearningMode {
		t.Errorf("Expected session learning_mode, got %s", state.SessionStatus)
	}
	if state.TotalCheckpoints != 3 || state.Checkpoint.Position != 1 {
		t.Errorf("Unexpected episode state: %+v", state)
	}
	if state.ConceptName != "Derivatives" {
		t.Errorf("Unexpected concept: %s", state.ConceptName)
	}

	loaded, _ := svc.GetSession(ctx, session.ID)
	if loaded.LearningModeTriggeredCount != 1 {
		t.Errorf("Expected trigger count 1, got %d", loaded.LearningModeTriggeredCount)
	}
	if loaded.Progress[0].Status != models.QuestionLearningMode {
		t.Errorf("Expected question learning_mode, got %s", loaded.Progress[0].Status)
	}

	t.Run("re-entry while active is rejected", func(t *testing.T) {
		_, err := learningSvc.EnterLearningMode(ctx, session.ID, "q1")
		if !errors.Is(err, ErrQuestionInLearningMode) {
			t.Errorf("Expected ErrQuestionInLearningMode, got %v", err)
		}
	})

	t.Run("answering while in learning mode is rejected", func(t *testing.T) {
		_, err := svc.RecordAttempt(ctx, session.ID, "q1", "d", 0)
		if !errors.Is(err, ErrQuestionInLearningMode) {
			t.Errorf("Expected ErrQuestionInLearningMode, got %v", err)
		}
	})
}

func TestEnterLearningModeConceptNotFound(t *testing.T) {
	sessions := repository.NewSessions(repository.NewMemorySessionStore())
	generator := &fakeQuestionGenerator{
		generate: func(ctx context.Context, concepts []models.Concept, documentText string, count int) ([]models.Question, error) {
			questions := validQuestions(1)
			questions[0].ConceptID = "c99" // not in the session's concept set
			return questions, nil
		},
	}
	svc := NewSessionService(sessions, repository.NewMemoryResultStore(), generator, &hint.Policy{})
	session := startedSession(t, svc, 1)
	learningSvc := newLearning(t, sessions, advancingAnalyzer(), 0)

	_, err := learningSvc.EnterLearningMode(context.Background(), session.ID, "q1")
	if !errors.Is(err, ErrConceptNotFound) {
		t.Errorf("Expected ErrConceptNotFound, got %v", err)
	}
}

func TestEnterLearningModeFailsHardOnGeneratorError(t *testing.T) {
	svc, sessions := newEngine(t, 1)
	session := startedSession(t, svc, 1)
	checkpoints := &fakeCheckpointGenerator{
		generate: func(ctx context.Context, concept models.Concept, documentContext string, count int) ([]models.Checkpoint, error) {
			return nil, errors.New("upstream down")
		},
	}
	learningSvc := NewLearningService(sessions, checkpoints, advancingAnalyzer(), nil, 0)

	_, err := learningSvc.EnterLearningMode(context.Background(), session.ID, "q1")
	if KindOf(err) != KindContentGeneration {
		t.Fatalf("Expected content_generation kind, got %v", err)
	}

	// The failed entry must leave no trace.
	loaded, _ := svc.GetSession(context.Background(), session.ID)
	if loaded.Status != models.SessionInProgress || loaded.LearningModeTriggeredCount != 0 {
		t.Errorf("Failed entry mutated the session: %+v", loaded.Status)
	}
}

func TestRespondCheckpointGuards(t *testing.T) {
	svc, sessions := newEngine(t, 1)
	session := startedSession(t, svc, 1)
	learningSvc := newLearning(t, sessions, advancingAnalyzer(), 0)
	ctx := context.Background()

	t.Run("not in learning mode", func(t *testing.T) {
		_, err := learningSvc.RespondCheckpoint(ctx, session.ID, "q1", "cp1", "my answer")
		if !errors.Is(err, ErrNotInLearningMode) {
			t.Errorf("Expected ErrNotInLearningMode, got %v", err)
		}
	})

	if _, err := learningSvc.EnterLearningMode(ctx, session.ID, "q1"); err != nil {
		t.Fatal(err)
	}

	t.Run("wrong checkpoint id", func(t *testing.T) {
		_, err := learningSvc.RespondCheckpoint(ctx, session.ID, "q1", "cp3", "my answer")
		if !errors.Is(err, ErrCheckpointNotFound) {
			t.Errorf("Expected ErrCheckpointNotFound, got %v", err)
		}
	})
}

func TestEpisodeWalkthrough(t *testing.T) {
	svc, sessions := newEngine(t, 2)
	session := startedSession(t, svc, 2)
	learningSvc := newLearning(t, sessions, advancingAnalyzer(), 0)
	ctx := context.Background()

	if _, err := learningSvc.EnterLearningMode(ctx, session.ID, "q1"); err != nil {
		t.Fatal(err)
	}

	for i := 1; i <= 2; i++ {
		outcome, err := learningSvc.RespondCheckpoint(ctx, session.ID, "q1", fmt.Sprintf("cp%d", i), "insightful answer")
		if err != nil {
			t.Fatal(err)
		}
		if !outcome.CheckpointCompleted || outcome.EpisodeComplete {
			t.Fatalf("checkpoint %d: unexpected outcome %+v", i, outcome)
		}
		if outcome.NextCheckpoint == nil || outcome.NextCheckpoint.Position != i+1 {
			t.Fatalf("checkpoint %d: expected next checkpoint %d", i, i+1)
		}
	}

	outcome, err := learningSvc.RespondCheckpoint(ctx, session.ID, "q1", "cp3", "final insight")
	if err != nil {
		t.Fatal(err)
	}
	if !outcome.EpisodeComplete {
		t.Fatal("Expected the episode to complete after the last checkpoint")
	}
	if outcome.QuestionStatus != models.QuestionInProgress {
		t.Errorf("Completing learning mode must return the question to in_progress, never correct; got %s", outcome.QuestionStatus)
	}
	if outcome.Encouragement == "" {
		t.Error("Expected encouragement text")
	}

	loaded, _ := svc.GetSession(ctx, session.ID)
	if loaded.Status != models.SessionInProgress {
		t.Errorf("Expected session back to in_progress, got %s", loaded.Status)
	}

	// The learner must still answer the original question.
	result, err := svc.RecordAttempt(ctx, session.ID, "q1", "d", 0)
	if err != nil {
		t.Fatal(err)
	}
	if !result.IsCorrect || result.Score != 1 {
		t.Errorf("Unexpected post-episode attempt result: %+v", result)
	}
}

func TestStallingResponsesFollowUp(t *testing.T) {
	svc, sessions := newEngine(t, 1)
	session := startedSession(t, svc, 1)
	learningSvc := newLearning(t, sessions, stallingAnalyzer(), 0)
	ctx := context.Background()

	if _, err := learningSvc.EnterLearningMode(ctx, session.ID, "q1"); err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 4; i++ {
		outcome, err := learningSvc.RespondCheckpoint(ctx, session.ID, "q1", "cp1", "vague answer")
		if err != nil {
			t.Fatal(err)
		}
		if outcome.CheckpointCompleted {
			t.Fatal("Unbounded retries must not advance on their own")
		}
		if outcome.FollowUp != "What else could it mean?" {
			t.Errorf("Expected the analyzer's follow-up verbatim, got %q", outcome.FollowUp)
		}
	}

	loaded, _ := svc.GetSession(ctx, session.ID)
	cp := loaded.Progress[0].CheckpointProgress[0]
	if cp.Attempts != 4 || len(cp.Turns) != 4 {
		t.Errorf("Expected 4 recorded turns, got attempts=%d turns=%d", cp.Attempts, len(cp.Turns))
	}
}

func TestRespondAfterEpisodeCompleted(t *testing.T) {
	svc, sessions := newEngine(t, 1)
	session := startedSession(t, svc, 1)
	learningSvc := newLearning(t, sessions, advancingAnalyzer(), 0)
	ctx := context.Background()

	if _, err := learningSvc.EnterLearningMode(ctx, session.ID, "q1"); err != nil {
		t.Fatal(err)
	}
	for _, cp := range []string{"cp1", "cp2", "cp3"} {
		if _, err := learningSvc.RespondCheckpoint(ctx, session.ID, "q1", cp, "insight"); err != nil {
			t.Fatal(err)
		}
	}

	// The episode is over; a finished episode is reported as such, not as
	// never having been in learning mode.
	_, err := learningSvc.RespondCheckpoint(ctx, session.ID, "q1", "cp3", "one more")
	if !errors.Is(err, ErrAllCheckpointsCompleted) {
		t.Errorf("Expected ErrAllCheckpointsCompleted, got %v", err)
	}

	// Re-entry resets the episode and responding works again.
	if _, err := learningSvc.EnterLearningMode(ctx, session.ID, "q1"); err != nil {
		t.Fatal(err)
	}
	if _, err := learningSvc.RespondCheckpoint(ctx, session.ID, "q1", "cp1", "fresh start"); err != nil {
		t.Errorf("Expected a fresh episode to accept responses, got %v", err)
	}
}

func TestCheckpointHintsEscalateWithAttempts(t *testing.T) {
	svc, sessions := newEngine(t, 1)
	session := startedSession(t, svc, 1)
	learningSvc := newLearning(t, sessions, stallingAnalyzer(), 0)
	ctx := context.Background()

	if _, err := learningSvc.EnterLearningMode(ctx, session.ID, "q1"); err != nil {
		t.Fatal(err)
	}

	expected := []string{"Gentle nudge.", "Stronger push.", "Almost the insight.", "Almost the insight."}
	for i, want := range expected {
		outcome, err := learningSvc.RespondCheckpoint(ctx, session.ID, "q1", "cp1", "vague answer")
		if err != nil {
			t.Fatal(err)
		}
		if outcome.CheckpointHint != want {
			t.Errorf("attempt %d: expected checkpoint hint %q, got %q", i+1, want, outcome.CheckpointHint)
		}
	}
}

func TestForcedAdvanceAtMaxAttempts(t *testing.T) {
	svc, sessions := newEngine(t, 1)
	session := startedSession(t, svc, 1)
	learningSvc := newLearning(t, sessions, stallingAnalyzer(), 2)
	ctx := context.Background()

	if _, err := learningSvc.EnterLearningMode(ctx, session.ID, "q1"); err != nil {
		t.Fatal(err)
	}

	outcome, err := learningSvc.RespondCheckpoint(ctx, session.ID, "q1", "cp1", "first try")
	if err != nil {
		t.Fatal(err)
	}
	if outcome.CheckpointCompleted {
		t.Fatal("Must not advance below the attempt bound")
	}

	outcome, err = learningSvc.RespondCheckpoint(ctx, session.ID, "q1", "cp1", "second try")
	if err != nil {
		t.Fatal(err)
	}
	if !outcome.CheckpointCompleted || !outcome.ForcedAdvance {
		t.Fatalf("Expected a forced advance at the bound, got %+v", outcome)
	}
}

func TestAnalyzerFailureLeavesNoTrace(t *testing.T) {
	svc, sessions := newEngine(t, 1)
	session := startedSession(t, svc, 1)
	analyzer := &fakeAnalyzer{
		analyze: func(ctx context.Context, checkpoint *models.Checkpoint, userResponse string, attemptCount int, history []models.ConversationTurn) (*content.ResponseAnalysis, error) {
			return nil, errors.New("upstream down")
		},
	}
	learningSvc := newLearning(t, sessions, analyzer, 0)
	ctx := context.Background()

	if _, err := learningSvc.EnterLearningMode(ctx, session.ID, "q1"); err != nil {
		t.Fatal(err)
	}

	_, err := learningSvc.RespondCheckpoint(ctx, session.ID, "q1", "cp1", "my answer")
	if KindOf(err) != KindContentGeneration {
		t.Fatalf("Expected content_generation kind, got %v", err)
	}

	loaded, _ := svc.GetSession(ctx, session.ID)
	cp := loaded.Progress[0].CheckpointProgress[0]
	if cp.Attempts != 0 || len(cp.Turns) != 0 {
		t.Errorf("A failed analysis must not record the turn, got attempts=%d turns=%d", cp.Attempts, len(cp.Turns))
	}
}

func TestEncouragementFallsBackToStatic(t *testing.T) {
	svc, sessions := newEngine(t, 1)
	session := startedSession(t, svc, 1)
	checkpoints := &fakeCheckpointGenerator{
		generate: func(ctx context.Context, concept models.Concept, documentContext string, count int) ([]models.Checkpoint, error) {
			return staticCheckpoints(count), nil
		},
	}
	encourager := &fakeEncourager{
		encourage: func(ctx context.Context, checkpointCompleted bool, level content.UnderstandingLevel) (string, error) {
			return "", errors.New("upstream down")
		},
	}
	learningSvc := NewLearningService(sessions, checkpoints, advancingAnalyzer(), encourager, 0)
	ctx := context.Background()

	if _, err := learningSvc.EnterLearningMode(ctx, session.ID, "q1"); err != nil {
		t.Fatal(err)
	}
	outcome, err := learningSvc.RespondCheckpoint(ctx, session.ID, "q1", "cp1", "answer")
	if err != nil {
		t.Fatal(err)
	}
	if outcome.Encouragement != content.StaticEncouragement(true, content.UnderstandingGood) {
		t.Errorf("Expected the static fallback, got %q", outcome.Encouragement)
	}
}

// The end-to-end scenario: correct answer, sustained struggle with a mixed
// pattern, a full learning-mode episode, then recovery.
func TestFiveQuestionScenario(t *testing.T) {
	svc, sessions := newEngine(t, 5)
	session := startedSession(t, svc, 5)
	learningSvc := newLearning(t, sessions, advancingAnalyzer(), 0)
	ctx := context.Background()

	// Q1 correct on the first attempt.
	result, err := svc.RecordAttempt(ctx, session.ID, "q1", "d", 0)
	if err != nil {
		t.Fatal(err)
	}
	if !result.IsCorrect || result.Score != 1 {
		t.Fatalf("Q1: unexpected result %+v", result)
	}

	// Q2 wrong three times with options [b, b, c].
	var levels []int
	for _, option := range []string{"b", "b", "c"} {
		result, err = svc.RecordAttempt(ctx, session.ID, "q2", option, 0)
		if err != nil {
			t.Fatal(err)
		}
		levels = append(levels, result.Hint.Level)
	}
	if levels[0] != 1 || levels[1] != 2 || levels[2] != 3 {
		t.Errorf("Expected hint level sequence [1 2 3], got %v", levels)
	}
	if result.Struggle.Level != "significant" || !result.Struggle.ShouldTriggerLearningMode {
		t.Errorf("Expected significant struggle with trigger, got %+v", result.Struggle)
	}
	if result.Struggle.Pattern.Type != "mixed" {
		t.Errorf("Expected mixed pattern, got %s", result.Struggle.Pattern.Type)
	}
	if result.Struggle.Pattern.OptionFrequencies["b"] != 2 || result.Struggle.Pattern.OptionFrequencies["c"] != 1 {
		t.Errorf("Expected frequencies b:2 c:1, got %v", result.Struggle.Pattern.OptionFrequencies)
	}

	// Triggered, but entry is explicit.
	if _, err := learningSvc.EnterLearningMode(ctx, session.ID, "q2"); err != nil {
		t.Fatal(err)
	}
	for _, cp := range []string{"cp1", "cp2", "cp3"} {
		if _, err := learningSvc.RespondCheckpoint(ctx, session.ID, "q2", cp, "insight"); err != nil {
			t.Fatal(err)
		}
	}

	loaded, _ := svc.GetSession(ctx, session.ID)
	if loaded.Progress[1].Status != models.QuestionInProgress {
		t.Fatalf("Expected Q2 back to in_progress, got %s", loaded.Progress[1].Status)
	}

	// Q2 correct at last.
	result, err = svc.RecordAttempt(ctx, session.ID, "q2", "d", 0)
	if err != nil {
		t.Fatal(err)
	}
	if result.Score != 2 {
		t.Errorf("Expected score 2, got %d", result.Score)
	}
	loaded, _ = svc.GetSession(ctx, session.ID)
	if loaded.CurrentIndex != 2 {
		t.Errorf("Expected the scoring cursor on Q3, got %d", loaded.CurrentIndex)
	}
}
