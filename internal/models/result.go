package models

import "time"

// SessionResult is the archived outcome of a finished session. Sessions are
// archived, not deleted, once completed or abandoned.
type SessionResult struct {
	ID                         string    `bson:"_id,omitempty" json:"id"`
	SessionID                  string    `bson:"session_id" json:"session_id"`
	EpisodeID                  string    `bson:"episode_id" json:"episode_id"`
	Score                      int       `bson:"score" json:"score"`
	TotalQuestions             int       `bson:"total_questions" json:"total_questions"`
	Percentage                 float64   `bson:"percentage" json:"percentage"`
	HintsUsedTotal             int       `bson:"hints_used_total" json:"hints_used_total"`
	LearningModeTriggeredCount int       `bson:"learning_mode_triggered_count" json:"learning_mode_triggered_count"`
	DurationSeconds            float64   `bson:"duration_seconds" json:"duration_seconds"`
	CompletionType             string    `bson:"completion_type" json:"completion_type"`
	CreatedAt                  time.Time `bson:"created_at" json:"created_at"`
}
