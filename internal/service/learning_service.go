package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"assessment-service/internal/content"
	"assessment-service/internal/hint"
	"assessment-service/internal/learning"
	"assessment-service/internal/models"
	"assessment-service/internal/repository"
)

// LearningService orchestrates the Socratic learning-mode episodes. Entry is
// always explicit: a struggle report recommending learning mode never enters
// it on the learner's behalf.
type LearningService struct {
	Sessions    *repository.Sessions
	Checkpoints content.CheckpointGenerator
	Analyzer    content.ResponseAnalyzer
	Encourager  content.EncouragementGenerator

	// MaxCheckpointAttempts forces advancement after this many attempts on
	// one checkpoint. Zero means unbounded retries.
	MaxCheckpointAttempts int
}

func NewLearningService(sessions *repository.Sessions, checkpoints content.CheckpointGenerator, analyzer content.ResponseAnalyzer, encourager content.EncouragementGenerator, maxCheckpointAttempts int) *LearningService {
	return &LearningService{
		Sessions:              sessions,
		Checkpoints:           checkpoints,
		Analyzer:              analyzer,
		Encourager:            encourager,
		MaxCheckpointAttempts: maxCheckpointAttempts,
	}
}

// CheckpointView is a checkpoint as shown to the learner: the question, not
// the grading criteria.
type CheckpointView struct {
	ID               string `json:"id"`
	Order            int    `json:"order"`
	Title            string `json:"title"`
	SocraticQuestion string `json:"socratic_question"`
	Position         int    `json:"position"`
	Total            int    `json:"total"`
}

func checkpointView(progress *models.QuestionProgress) *CheckpointView {
	idx := progress.CurrentCheckpoint
	cp := &progress.Checkpoints[idx]
	return &CheckpointView{
		ID:               cp.ID,
		Order:            cp.Order,
		Title:            cp.Title,
		SocraticQuestion: cp.SocraticQuestion,
		Position:         idx + 1,
		Total:            len(progress.Checkpoints),
	}
}

// EpisodeState is returned on learning-mode entry.
type EpisodeState struct {
	SessionStatus    models.SessionStatus `json:"session_status"`
	QuestionID       string               `json:"question_id"`
	ConceptName      string               `json:"concept_name"`
	TotalCheckpoints int                  `json:"total_checkpoints"`
	Checkpoint       *CheckpointView      `json:"checkpoint"`
}

// CheckpointOutcome is the verdict on one checkpoint response.
type CheckpointOutcome struct {
	UnderstandingLevel  content.UnderstandingLevel `json:"understanding_level"`
	CheckpointCompleted bool                       `json:"checkpoint_completed"`
	ForcedAdvance       bool                       `json:"forced_advance,omitempty"`
	EpisodeComplete     bool                       `json:"episode_complete"`
	FollowUp            string                     `json:"follow_up,omitempty"`
	CheckpointHint      string                     `json:"checkpoint_hint,omitempty"`
	Encouragement       string                     `json:"encouragement"`
	NextCheckpoint      *CheckpointView            `json:"next_checkpoint,omitempty"`
	QuestionStatus      models.QuestionStatus      `json:"question_status"`
}

// EnterLearningMode generates the checkpoint sequence for the question's
// concept and opens the episode. Generation failure is a hard error, same as
// question generation: the episode cannot run without its content.
func (s *LearningService) EnterLearningMode(ctx context.Context, sessionID, questionID string) (*EpisodeState, error) {
	var state *EpisodeState
	_, err := s.mutate(ctx, sessionID, func(session *models.QuizSession) error {
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
		if progress.Status == models.QuestionCorrect {
			return ErrQuestionCompleted
		}
		if progress.InLearningMode {
			return ErrQuestionInLearningMode
		}

		concept := session.ConceptByID(question.ConceptID)
		if concept == nil {
			return ErrConceptNotFound
		}

		checkpoints, err := s.Checkpoints.GenerateCheckpoints(ctx, *concept, session.DocumentText, learning.DefaultCheckpointCount)
		if err != nil {
			log.Printf("Checkpoint generation failed for session %s concept %s: %v", session.ID, concept.ID, err)
			return fmt.Errorf("%w: %v", contentFailure("checkpoint generation failed"), err)
		}
		if err := content.ValidateCheckpoints(checkpoints); err != nil {
			log.Printf("Generated checkpoints rejected for session %s: %v", session.ID, err)
			return fmt.Errorf("%w: %v", contentFailure("generated checkpoints failed validation"), err)
		}

		session.Status = models.SessionLearningMode
		session.LearningModeTriggeredCount++
		learning.Begin(progress, checkpoints, time.Now())

		state = &EpisodeState{
			SessionStatus:    session.Status,
			QuestionID:       questionID,
			ConceptName:      concept.Name,
			TotalCheckpoints: len(checkpoints),
			Checkpoint:       checkpointView(progress),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return state, nil
}

// RespondCheckpoint records one free-text response against the active
// checkpoint and either keeps probing, advances, or closes the episode. An
// analyzer failure aborts the whole mutation: nothing is recorded, nothing
// moves.
func (s *LearningService) RespondCheckpoint(ctx context.Context, sessionID, questionID, checkpointID, userText string) (*CheckpointOutcome, error) {
	var outcome *CheckpointOutcome
	_, err := s.mutate(ctx, sessionID, func(session *models.QuizSession) error {
		if session.Status.Terminal() {
			return ErrSessionTerminal
		}

		question, idx := session.QuestionByID(questionID)
		if question == nil {
			return ErrQuestionNotFound
		}
		progress := &session.Progress[idx]
		if !progress.InLearningMode {
			if episodeCompleted(progress) {
				return ErrAllCheckpointsCompleted
			}
			return ErrNotInLearningMode
		}

		def := &progress.Checkpoints[progress.CurrentCheckpoint]
		cp := &progress.CheckpointProgress[progress.CurrentCheckpoint]
		if checkpointID != "" && checkpointID != def.ID {
			return ErrCheckpointNotFound
		}

		history := append([]models.ConversationTurn(nil), cp.Turns...)
		learning.RecordTurn(cp, def.SocraticQuestion, userText)

		analysis, err := s.Analyzer.AnalyzeResponse(ctx, def, userText, cp.Attempts, history)
		if err != nil {
			log.Printf("Response analysis failed for session %s checkpoint %s: %v", session.ID, def.ID, err)
			return fmt.Errorf("%w: %v", contentFailure("response analysis failed"), err)
		}

		advance := analysis.ShouldAdvance
		forced := false
		if !advance && s.MaxCheckpointAttempts > 0 && cp.Attempts >= s.MaxCheckpointAttempts {
			advance = true
			forced = true
		}

		outcome = &CheckpointOutcome{
			UnderstandingLevel:  analysis.UnderstandingLevel,
			CheckpointCompleted: advance,
			ForcedAdvance:       forced,
		}

		now := time.Now()
		if advance {
			if learning.Advance(progress, now) {
				learning.End(progress)
				session.Status = models.SessionInProgress
				outcome.EpisodeComplete = true
			} else {
				outcome.NextCheckpoint = checkpointView(progress)
			}
		} else {
			outcome.FollowUp = analysis.FollowUp
			// Checkpoint definitions carry their own graduated hints;
			// escalate them with the attempt count.
			if h := def.HintForLevel(hint.LevelFor(cp.Attempts)); h != nil {
				outcome.CheckpointHint = h.Text
			}
		}

		outcome.QuestionStatus = progress.Status
		outcome.Encouragement = s.encourage(ctx, advance, analysis.UnderstandingLevel)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return outcome, nil
}

// episodeCompleted reports whether the question's most recent episode ran
// through every checkpoint. The cached definitions are dropped on exit but
// the per-checkpoint records are kept, which is what makes a finished
// episode distinguishable from one that was never entered.
func episodeCompleted(progress *models.QuestionProgress) bool {
	if len(progress.CheckpointProgress) == 0 {
		return false
	}
	for i := range progress.CheckpointProgress {
		if progress.CheckpointProgress[i].Status != models.CheckpointCompleted {
			return false
		}
	}
	return true
}

// encourage is best-effort: failures fall back to static text and are only
// logged.
func (s *LearningService) encourage(ctx context.Context, completed bool, level content.UnderstandingLevel) string {
	if s.Encourager != nil {
		text, err := s.Encourager.Encouragement(ctx, completed, level)
		if err == nil && text != "" {
			return text
		}
		if err != nil {
			log.Printf("Encouragement generation failed, using static fallback: %v", err)
		}
	}
	return content.StaticEncouragement(completed, level)
}

func (s *LearningService) mutate(ctx context.Context, id string, fn func(session *models.QuizSession) error) (*models.QuizSession, error) {
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
