package content

import (
	"context"

	"assessment-service/internal/models"
)

// The five external content collaborators. All are synchronous
// request/response calls; the session core never inspects how the text is
// produced, only whether the call succeeded.

type QuestionGenerator interface {
	GenerateQuestions(ctx context.Context, concepts []models.Concept, documentText string, count int) ([]models.Question, error)
}

type HintGenerator interface {
	GenerateHint(ctx context.Context, question *models.Question, selectedOption string, level int, documentContext string) (*SocraticHint, error)
}

type CheckpointGenerator interface {
	GenerateCheckpoints(ctx context.Context, concept models.Concept, documentContext string, count int) ([]models.Checkpoint, error)
}

type ResponseAnalyzer interface {
	AnalyzeResponse(ctx context.Context, checkpoint *models.Checkpoint, userResponse string, attemptCount int, history []models.ConversationTurn) (*ResponseAnalysis, error)
}

type EncouragementGenerator interface {
	Encouragement(ctx context.Context, checkpointCompleted bool, level UnderstandingLevel) (string, error)
}

// SocraticHint is a dynamically generated hint that analyzes the learner's
// specific wrong answer instead of nudging generically.
type SocraticHint struct {
	WrongAnswerReasoning string   `json:"wrong_answer_reasoning"`
	SocraticQuestions    []string `json:"socratic_questions"`
	GuidingQuestions     []string `json:"guiding_questions,omitempty"`
	CitationURL          string   `json:"citation_url,omitempty"`
}

type UnderstandingLevel string

const (
	UnderstandingNone    UnderstandingLevel = "none"
	UnderstandingPartial UnderstandingLevel = "partial"
	UnderstandingGood    UnderstandingLevel = "good"
	UnderstandingMastery UnderstandingLevel = "mastery"
)

// ResponseAnalysis is the analyzer's verdict on one checkpoint response.
type ResponseAnalysis struct {
	UnderstandingLevel UnderstandingLevel `json:"understanding_level"`
	ShouldAdvance      bool               `json:"should_advance"`
	FollowUp           string             `json:"follow_up,omitempty"`
	Reasoning          string             `json:"reasoning,omitempty"`
}

// StaticEncouragement is the no-collaborator fallback. Encouragement is
// best-effort; a failed generation never blocks the learner.
func StaticEncouragement(checkpointCompleted bool, level UnderstandingLevel) string {
	switch {
	case checkpointCompleted && level == UnderstandingMastery:
		return "Excellent! You've really grasped this concept."
	case checkpointCompleted:
		return "Good progress! You're on the right track."
	default:
		return "Keep thinking through this - you're getting closer!"
	}
}
