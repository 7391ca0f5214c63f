package models

import "time"

// Session status state machine:
// NOT_STARTED -> IN_PROGRESS <-> LEARNING_MODE -> COMPLETED
// ABANDONED is reachable from any non-terminal state by explicit signal.
type SessionStatus string

const (
	SessionNotStarted   SessionStatus = "not_started"
	SessionInProgress   SessionStatus = "in_progress"
	SessionLearningMode SessionStatus = "learning_mode"
	SessionCompleted    SessionStatus = "completed"
	SessionAbandoned    SessionStatus = "abandoned"
)

// Terminal reports whether the session can no longer be mutated.
func (s SessionStatus) Terminal() bool {
	return s == SessionCompleted || s == SessionAbandoned
}

// Question status state machine:
// NOT_ATTEMPTED -> IN_PROGRESS -> CORRECT (terminal)
//                       ^
//                       v
//                 LEARNING_MODE
// A question may cycle between IN_PROGRESS and LEARNING_MODE any number of
// times; CORRECT is the only terminal state.
type QuestionStatus string

const (
	QuestionNotAttempted QuestionStatus = "not_attempted"
	QuestionInProgress   QuestionStatus = "in_progress"
	QuestionCorrect      QuestionStatus = "correct"
	QuestionLearningMode QuestionStatus = "learning_mode"
)

type CheckpointStatus string

const (
	CheckpointNotStarted CheckpointStatus = "not_started"
	CheckpointInProgress CheckpointStatus = "in_progress"
	CheckpointCompleted  CheckpointStatus = "completed"
)

// Attempt is an immutable, append-only record of one answer submission.
type Attempt struct {
	SelectedOption   string    `bson:"selected_option" json:"selected_option"`
	IsCorrect        bool      `bson:"is_correct" json:"is_correct"`
	TimeSpentSeconds float64   `bson:"time_spent_seconds,omitempty" json:"time_spent_seconds,omitempty"`
	Timestamp        time.Time `bson:"timestamp" json:"timestamp"`
}

type ConversationTurn struct {
	Question string `bson:"question" json:"question"`
	Answer   string `bson:"answer" json:"answer"`
}

// CheckpointProgress tracks one checkpoint within a learning-mode episode.
type CheckpointProgress struct {
	CheckpointID string             `bson:"checkpoint_id" json:"checkpoint_id"`
	Status       CheckpointStatus   `bson:"status" json:"status"`
	Turns        []ConversationTurn `bson:"turns,omitempty" json:"turns,omitempty"`
	Attempts     int                `bson:"attempts" json:"attempts"`
	StartedAt    *time.Time         `bson:"started_at,omitempty" json:"started_at,omitempty"`
	CompletedAt  *time.Time         `bson:"completed_at,omitempty" json:"completed_at,omitempty"`
}

// QuestionProgress tracks everything the learner has done on one question.
// Invariant: Status == QuestionCorrect implies exactly one attempt with
// IsCorrect == true and no attempts recorded after it.
type QuestionProgress struct {
	QuestionID     string         `bson:"question_id" json:"question_id"`
	Status         QuestionStatus `bson:"status" json:"status"`
	Attempts       []Attempt      `bson:"attempts,omitempty" json:"attempts,omitempty"`
	HintsUsed      []int          `bson:"hints_used,omitempty" json:"hints_used,omitempty"`
	AnswerRevealed bool           `bson:"answer_revealed" json:"answer_revealed"`
	StartedAt      *time.Time     `bson:"started_at,omitempty" json:"started_at,omitempty"`
	CompletedAt    *time.Time     `bson:"completed_at,omitempty" json:"completed_at,omitempty"`

	// Learning-mode episode state. Checkpoints caches the generated
	// definitions for the lifetime of the episode so responses never
	// re-invoke the generator.
	InLearningMode     bool                 `bson:"in_learning_mode" json:"in_learning_mode"`
	Checkpoints        []Checkpoint         `bson:"checkpoints,omitempty" json:"checkpoints,omitempty"`
	CheckpointProgress []CheckpointProgress `bson:"checkpoint_progress,omitempty" json:"checkpoint_progress,omitempty"`
	CurrentCheckpoint  int                  `bson:"current_checkpoint" json:"current_checkpoint"`
}

// WrongCount returns the number of incorrect attempts.
func (qp *QuestionProgress) WrongCount() int {
	n := 0
	for i := range qp.Attempts {
		if !qp.Attempts[i].IsCorrect {
			n++
		}
	}
	return n
}

// HintUsed reports whether the given hint level was already shown.
func (qp *QuestionProgress) HintUsed(level int) bool {
	for _, l := range qp.HintsUsed {
		if l == level {
			return true
		}
	}
	return false
}

// QuizSession is the complete per-learner assessment state. The question
// sequence is immutable once created; Progress is index-aligned with
// Questions. CurrentIndex drives scoring/completion and only moves on a
// correct answer; DisplayIndex is what navigation moves.
type QuizSession struct {
	ID           string     `bson:"_id,omitempty" json:"id"`
	EpisodeID    string     `bson:"episode_id" json:"episode_id"`
	Questions    []Question `bson:"questions" json:"questions"`
	Concepts     []Concept  `bson:"concepts" json:"concepts"`
	DocumentText string     `bson:"document_text" json:"-"`

	Status       SessionStatus      `bson:"status" json:"status"`
	CurrentIndex int                `bson:"current_index" json:"current_index"`
	DisplayIndex int                `bson:"display_index" json:"display_index"`
	Progress     []QuestionProgress `bson:"progress" json:"progress"`

	Score                      int `bson:"score" json:"score"`
	TotalQuestions             int `bson:"total_questions" json:"total_questions"`
	HintsUsedTotal             int `bson:"hints_used_total" json:"hints_used_total"`
	LearningModeTriggeredCount int `bson:"learning_mode_triggered_count" json:"learning_mode_triggered_count"`

	StartedAt   *time.Time `bson:"started_at,omitempty" json:"started_at,omitempty"`
	CompletedAt *time.Time `bson:"completed_at,omitempty" json:"completed_at,omitempty"`
	CreatedAt   time.Time  `bson:"created_at" json:"created_at"`
	UpdatedAt   time.Time  `bson:"updated_at" json:"updated_at"`
}

// QuestionByID returns the question and its index, or nil and -1.
func (s *QuizSession) QuestionByID(id string) (*Question, int) {
	for i := range s.Questions {
		if s.Questions[i].ID == id {
			return &s.Questions[i], i
		}
	}
	return nil, -1
}

// ProgressFor returns the progress record for a question id, or nil.
func (s *QuizSession) ProgressFor(questionID string) *QuestionProgress {
	for i := range s.Progress {
		if s.Progress[i].QuestionID == questionID {
			return &s.Progress[i]
		}
	}
	return nil
}

// ConceptByID resolves a concept in the session's concept set, or nil.
func (s *QuizSession) ConceptByID(id string) *Concept {
	for i := range s.Concepts {
		if s.Concepts[i].ID == id {
			return &s.Concepts[i]
		}
	}
	return nil
}
