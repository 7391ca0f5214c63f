package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"assessment-service/internal/content"
	"assessment-service/internal/hint"
	"assessment-service/internal/models"
	"assessment-service/internal/repository"
	"assessment-service/internal/struggle"

	"github.com/google/uuid"
)

const DefaultQuestionCount = 5

// SessionService is the progression engine: the single entry point for every
// learner action on a session. All mutations run inside Sessions.Mutate, so
// each session sees a strictly serial sequence of state transitions.
type SessionService struct {
	Sessions  *repository.Sessions
	Results   repository.ResultStore
	Generator content.QuestionGenerator
	Hints     *hint.Policy
}

func NewSessionService(sessions *repository.Sessions, results repository.ResultStore, generator content.QuestionGenerator, hints *hint.Policy) *SessionService {
	return &SessionService{
		Sessions:  sessions,
		Results:   results,
		Generator: generator,
		Hints:     hints,
	}
}

// QuestionView is a question as shown to the learner: no correct option id,
// no explanation, no hint bank.
type QuestionView struct {
	ID      string          `json:"id"`
	Text    string          `json:"text"`
	Options []models.Option `json:"options"`
}

func viewOf(q *models.Question) *QuestionView {
	return &QuestionView{ID: q.ID, Text: q.Text, Options: q.Options}
}

// AttemptResult is the engine's combined verdict on one answer submission.
type AttemptResult struct {
	IsCorrect        bool                  `json:"is_correct"`
	QuestionStatus   models.QuestionStatus `json:"question_status"`
	Score            int                   `json:"score"`
	SessionCompleted bool                  `json:"session_completed"`

	// Populated on a correct attempt, and on wrong attempts once the
	// reveal threshold has been crossed.
	CorrectOption string `json:"correct_option,omitempty"`
	Explanation   string `json:"explanation,omitempty"`

	// Populated on wrong attempts only.
	Struggle *struggle.Report   `json:"struggle,omitempty"`
	Hint     *hint.ResolvedHint `json:"hint,omitempty"`

	// Navigation metadata for the client.
	Position    int  `json:"position"` // 1-based display position
	HasPrevious bool `json:"has_previous"`
	HasNext     bool `json:"has_next"`
}

// NavigationResult describes the question the learner landed on.
type NavigationResult struct {
	Question    *QuestionView         `json:"question"`
	Status      models.QuestionStatus `json:"status"`
	Position    int                   `json:"position"`
	Total       int                   `json:"total"`
	HasPrevious bool                  `json:"has_previous"`
	HasNext     bool                  `json:"has_next"`
}

// CreateSession generates the question sequence once, validates it, and
// persists the session in NOT_STARTED. Generation failure is a hard error:
// there is no safe static substitute for assessment content.
func (s *SessionService) CreateSession(ctx context.Context, episodeID, documentText string, concepts []models.Concept, questionCount int) (*models.QuizSession, error) {
	if questionCount <= 0 {
		questionCount = DefaultQuestionCount
	}

	questions, err := s.Generator.GenerateQuestions(ctx, concepts, documentText, questionCount)
	if err != nil {
		log.Printf("Question generation failed for episode %s: %v", episodeID, err)
		return nil, fmt.Errorf("%w: %v", contentFailure("question generation failed"), err)
	}
	if err := content.ValidateQuestions(questions); err != nil {
		log.Printf("Generated questions rejected for episode %s: %v", episodeID, err)
		return nil, fmt.Errorf("%w: %v", contentFailure("generated questions failed validation"), err)
	}

	now := time.Now()
	session := &models.QuizSession{
		ID:             uuid.NewString(),
		EpisodeID:      episodeID,
		Questions:      questions,
		Concepts:       concepts,
		DocumentText:   documentText,
		Status:         models.SessionNotStarted,
		Progress:       make([]models.QuestionProgress, len(questions)),
		TotalQuestions: len(questions),
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	for i := range questions {
		session.Progress[i] = models.QuestionProgress{
			QuestionID: questions[i].ID,
			Status:     models.QuestionNotAttempted,
		}
	}

	if err := s.Sessions.Create(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

// StartQuiz moves NOT_STARTED to IN_PROGRESS and opens the first question.
// Starting an already started session is a no-op.
func (s *SessionService) StartQuiz(ctx context.Context, id string) (*models.QuizSession, error) {
	return s.mutate(ctx, id, func(session *models.QuizSession) error {
		if session.Status.Terminal() {
			return ErrSessionTerminal
		}
		if session.Status != models.SessionNotStarted {
			return nil
		}
		now := time.Now()
		session.Status = models.SessionInProgress
		session.StartedAt = &now
		session.Progress[0].Status = models.QuestionInProgress
		session.Progress[0].StartedAt = &now
		return nil
	})
}

// RecordAttempt appends one answer submission and returns the combined
// verdict: advancement on a correct answer, struggle report plus escalated
// hint on a wrong one.
func (s *SessionService) RecordAttempt(ctx context.Context, id, questionID, selectedOption string, timeSpentSeconds float64) (*AttemptResult, error) {
	var result *AttemptResult
	_, err := s.mutate(ctx, id, func(session *models.QuizSession) error {
		if session.Status.Terminal() {
			return ErrSessionTerminal
		}
		if session.Status == models.SessionNotStarted {
			return ErrSessionNotStarted
		}

		question, idx := session.QuestionByID(questionID)
		if question == nil {
			return ErrQuestionNotFound
		}
		progress := &session.Progress[idx]

		switch progress.Status {
		case models.QuestionCorrect:
			return ErrQuestionCompleted
		case models.QuestionLearningMode:
			return ErrQuestionInLearningMode
		}

		if question.Option(selectedOption) == nil {
			return ErrUnknownOption
		}

		now := time.Now()
		if progress.Status == models.QuestionNotAttempted {
			progress.Status = models.QuestionInProgress
			progress.StartedAt = &now
		}

		isCorrect := selectedOption == question.CorrectOption
		progress.Attempts = append(progress.Attempts, models.Attempt{
			SelectedOption:   selectedOption,
			IsCorrect:        isCorrect,
			TimeSpentSeconds: timeSpentSeconds,
			Timestamp:        now,
		})

		result = &AttemptResult{IsCorrect: isCorrect}

		if isCorrect {
			progress.Status = models.QuestionCorrect
			progress.CompletedAt = &now
			session.Score++
			result.CorrectOption = question.CorrectOption
			result.Explanation = question.Explanation
			result.SessionCompleted = s.advanceOrComplete(ctx, session, idx, now)
		} else {
			report := struggle.Analyze(progress.Attempts, question, totalTimeSpent(progress.Attempts))
			result.Struggle = report

			resolved := s.Hints.Resolve(ctx, question, selectedOption, report.WrongCount, session.DocumentText)
			if !progress.HintUsed(resolved.Level) {
				progress.HintsUsed = append(progress.HintsUsed, resolved.Level)
				session.HintsUsedTotal++
			}
			result.Hint = resolved

			// The reveal is irreversible: once crossed, every later
			// wrong attempt shows the answer too.
			if report.WrongCount >= hint.RevealThreshold {
				progress.AnswerRevealed = true
			}
			if progress.AnswerRevealed {
				result.CorrectOption = question.CorrectOption
				result.Explanation = question.Explanation
			}
		}

		result.QuestionStatus = progress.Status
		result.Score = session.Score
		result.Position = session.DisplayIndex + 1
		result.HasPrevious = session.DisplayIndex > 0
		result.HasNext = session.DisplayIndex < len(session.Questions)-1
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// advanceOrComplete moves the scoring cursor after a correct answer. When
// every question is CORRECT the session completes and its result is
// archived. Returns true on completion.
func (s *SessionService) advanceOrComplete(ctx context.Context, session *models.QuizSession, answeredIdx int, now time.Time) bool {
	if next, ok := s.nextUnresolved(session); ok {
		if answeredIdx == session.CurrentIndex {
			session.CurrentIndex = next
			session.DisplayIndex = next
			p := &session.Progress[next]
			if p.Status == models.QuestionNotAttempted {
				p.Status = models.QuestionInProgress
				p.StartedAt = &now
			}
		}
		return false
	}

	session.Status = models.SessionCompleted
	session.CompletedAt = &now
	s.archiveResult(ctx, session, "completed", now)
	return true
}

// nextUnresolved finds the first question after the scoring cursor that is
// not yet CORRECT, wrapping to the front to pick up questions skipped via
// navigation.
func (s *SessionService) nextUnresolved(session *models.QuizSession) (int, bool) {
	n := len(session.Questions)
	for offset := 1; offset <= n; offset++ {
		i := (session.CurrentIndex + offset) % n
		if session.Progress[i].Status != models.QuestionCorrect {
			return i, true
		}
	}
	return 0, false
}

// archiveResult is best-effort: a failed archive is logged and never blocks
// the session transition.
func (s *SessionService) archiveResult(ctx context.Context, session *models.QuizSession, completionType string, now time.Time) {
	percentage := 0.0
	if session.TotalQuestions > 0 {
		percentage = float64(session.Score) / float64(session.TotalQuestions) * 100
	}
	duration := 0.0
	if session.StartedAt != nil {
		duration = now.Sub(*session.StartedAt).Seconds()
	}
	result := &models.SessionResult{
		ID:                         uuid.NewString(),
		SessionID:                  session.ID,
		EpisodeID:                  session.EpisodeID,
		Score:                      session.Score,
		TotalQuestions:             session.TotalQuestions,
		Percentage:                 percentage,
		HintsUsedTotal:             session.HintsUsedTotal,
		LearningModeTriggeredCount: session.LearningModeTriggeredCount,
		DurationSeconds:            duration,
		CompletionType:             completionType,
		CreatedAt:                  now,
	}
	if err := s.Results.Create(ctx, result); err != nil {
		log.Printf("Failed to archive result for session %s: %v", session.ID, err)
	}
}

// GetHint resolves an explicitly requested hint level. Requesting a level
// already shown is idempotent bookkeeping.
func (s *SessionService) GetHint(ctx context.Context, id, questionID string, level int) (*hint.ResolvedHint, error) {
	if level < 1 || level > hint.MaxLevel {
		return nil, ErrInvalidHintLevel
	}

	var resolved *hint.ResolvedHint
	_, err := s.mutate(ctx, id, func(session *models.QuizSession) error {
		if session.Status.Terminal() {
			return ErrSessionTerminal
		}
		question, idx := session.QuestionByID(questionID)
		if question == nil {
			return ErrQuestionNotFound
		}
		progress := &session.Progress[idx]
		if progress.Status == models.QuestionCorrect {
			return ErrQuestionCompleted
		}

		resolved = s.Hints.Resolve(ctx, question, lastWrongOption(progress.Attempts), level, session.DocumentText)
		resolved.Level = level
		resolved.RevealAnswer = progress.AnswerRevealed
		if !progress.HintUsed(level) {
			progress.HintsUsed = append(progress.HintsUsed, level)
			session.HintsUsedTotal++
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return resolved, nil
}

// Navigate moves the display cursor. Scoring state (current_index, score,
// attempts) is never touched: browsing is free.
func (s *SessionService) Navigate(ctx context.Context, id, direction string, jumpTo int) (*NavigationResult, error) {
	var nav *NavigationResult
	_, err := s.mutate(ctx, id, func(session *models.QuizSession) error {
		if session.Status.Terminal() {
			return ErrSessionTerminal
		}
		if session.Status == models.SessionNotStarted {
			return ErrSessionNotStarted
		}

		target := session.DisplayIndex
		switch direction {
		case "previous":
			if session.DisplayIndex == 0 {
				return ErrOutOfRange
			}
			target--
		case "next":
			if session.DisplayIndex >= len(session.Questions)-1 {
				return ErrOutOfRange
			}
			target++
		case "jump":
			if jumpTo < 1 || jumpTo > len(session.Questions) {
				return ErrInvalidIndex
			}
			target = jumpTo - 1
		default:
			return fmt.Errorf("%w: unknown direction %q", ErrInvalidIndex, direction)
		}

		session.DisplayIndex = target
		progress := &session.Progress[target]
		if progress.Status == models.QuestionNotAttempted {
			now := time.Now()
			progress.Status = models.QuestionInProgress
			progress.StartedAt = &now
		}

		nav = &NavigationResult{
			Question:    viewOf(&session.Questions[target]),
			Status:      progress.Status,
			Position:    target + 1,
			Total:       len(session.Questions),
			HasPrevious: target > 0,
			HasNext:     target < len(session.Questions)-1,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return nav, nil
}

// Abandon is the explicit external give-up signal, valid from any
// non-terminal state.
func (s *SessionService) Abandon(ctx context.Context, id string) (*models.QuizSession, error) {
	return s.mutate(ctx, id, func(session *models.QuizSession) error {
		if session.Status.Terminal() {
			return ErrSessionTerminal
		}
		now := time.Now()
		session.Status = models.SessionAbandoned
		session.CompletedAt = &now
		s.archiveResult(ctx, session, "abandoned", now)
		return nil
	})
}

func (s *SessionService) GetSession(ctx context.Context, id string) (*models.QuizSession, error) {
	session, err := s.Sessions.View(ctx, id)
	if err == repository.ErrNotFound {
		return nil, ErrSessionNotFound
	}
	return session, err
}

func (s *SessionService) GetResult(ctx context.Context, sessionID string) (*models.SessionResult, error) {
	result, err := s.Results.FindBySessionID(ctx, sessionID)
	if err == repository.ErrNotFound {
		return nil, ErrResultNotFound
	}
	return result, err
}

// QuestionProgressView is one row of the progress breakdown.
type QuestionProgressView struct {
	QuestionID     string                `json:"question_id"`
	Status         models.QuestionStatus `json:"status"`
	AttemptCount   int                   `json:"attempt_count"`
	WrongCount     int                   `json:"wrong_count"`
	HintsUsed      []int                 `json:"hints_used,omitempty"`
	AnswerRevealed bool                  `json:"answer_revealed"`
	InLearningMode bool                  `json:"in_learning_mode"`
}

type ProgressReport struct {
	SessionID                  string                 `json:"session_id"`
	Status                     models.SessionStatus   `json:"status"`
	Score                      int                    `json:"score"`
	TotalQuestions             int                    `json:"total_questions"`
	AnsweredCorrectly          int                    `json:"answered_correctly"`
	HintsUsedTotal             int                    `json:"hints_used_total"`
	LearningModeTriggeredCount int                    `json:"learning_mode_triggered_count"`
	CurrentPosition            int                    `json:"current_position"`
	Questions                  []QuestionProgressView `json:"questions"`
}

func (s *SessionService) GetProgress(ctx context.Context, id string) (*ProgressReport, error) {
	session, err := s.GetSession(ctx, id)
	if err != nil {
		return nil, err
	}

	report := &ProgressReport{
		SessionID:                  session.ID,
		Status:                     session.Status,
		Score:                      session.Score,
		TotalQuestions:             session.TotalQuestions,
		HintsUsedTotal:             session.HintsUsedTotal,
		LearningModeTriggeredCount: session.LearningModeTriggeredCount,
		CurrentPosition:            session.DisplayIndex + 1,
		Questions:                  make([]QuestionProgressView, len(session.Progress)),
	}
	for i := range session.Progress {
		p := &session.Progress[i]
		if p.Status == models.QuestionCorrect {
			report.AnsweredCorrectly++
		}
		report.Questions[i] = QuestionProgressView{
			QuestionID:     p.QuestionID,
			Status:         p.Status,
			AttemptCount:   len(p.Attempts),
			WrongCount:     p.WrongCount(),
			HintsUsed:      p.HintsUsed,
			AnswerRevealed: p.AnswerRevealed,
			InLearningMode: p.InLearningMode,
		}
	}
	return report, nil
}

// mutate adapts the store wrapper: not-found maps into the error taxonomy
// and every successful mutation bumps the session's updated timestamp.
func (s *SessionService) mutate(ctx context.Context, id string, fn func(session *models.QuizSession) error) (*models.QuizSession, error) {
	session, err := s.Sessions.Mutate(ctx, id, func(session *models.QuizSession) error {
		if err := fn(session); err != nil {
			return err
		}
		session.UpdatedAt = time.Now()
		return nil
	})
	if err == repository.ErrNotFound {
		return nil, ErrSessionNotFound
	}
	return session, err
}

func totalTimeSpent(attempts []models.Attempt) float64 {
	total := 0.0
	for i := range attempts {
		total += attempts[i].TimeSpentSeconds
	}
	return total
}

func lastWrongOption(attempts []models.Attempt) string {
	for i := len(attempts) - 1; i >= 0; i-- {
		if !attempts[i].IsCorrect {
			return attempts[i].SelectedOption
		}
	}
	return ""
}
