package learning

import (
	"fmt"
	"time"

	"assessment-service/internal/models"
)

// DefaultCheckpointCount is how many Socratic checkpoints an episode runs
// through when the generator is asked for a fresh set.
const DefaultCheckpointCount = 3

// Pure transition functions for the learning-mode episode embedded in a
// question's progress record. Callers hold the session lock and handle
// persistence; nothing here touches storage or generators.

// Begin initializes an episode on the progress record: the checkpoint
// definitions are cached for the episode's lifetime and the first checkpoint
// starts immediately.
func Begin(progress *models.QuestionProgress, checkpoints []models.Checkpoint, now time.Time) {
	progress.InLearningMode = true
	progress.Status = models.QuestionLearningMode
	progress.Checkpoints = checkpoints
	progress.CurrentCheckpoint = 0
	progress.CheckpointProgress = make([]models.CheckpointProgress, len(checkpoints))
	for i := range checkpoints {
		progress.CheckpointProgress[i] = models.CheckpointProgress{
			CheckpointID: checkpoints[i].ID,
			Status:       models.CheckpointNotStarted,
		}
	}
	started := now
	progress.CheckpointProgress[0].Status = models.CheckpointInProgress
	progress.CheckpointProgress[0].StartedAt = &started
}

// Current returns the active checkpoint definition and its progress record.
func Current(progress *models.QuestionProgress) (*models.Checkpoint, *models.CheckpointProgress, error) {
	if !progress.InLearningMode {
		return nil, nil, fmt.Errorf("question %s is not in learning mode", progress.QuestionID)
	}
	idx := progress.CurrentCheckpoint
	if idx >= len(progress.Checkpoints) {
		return nil, nil, fmt.Errorf("all checkpoints already completed for question %s", progress.QuestionID)
	}
	return &progress.Checkpoints[idx], &progress.CheckpointProgress[idx], nil
}

// RecordTurn appends one question/answer exchange to the active checkpoint
// and counts it as an attempt at demonstrating the insight.
func RecordTurn(cp *models.CheckpointProgress, asked, answered string) {
	cp.Turns = append(cp.Turns, models.ConversationTurn{Question: asked, Answer: answered})
	cp.Attempts++
}

// Advance completes the active checkpoint and starts the next one. It
// returns true when the episode has no checkpoints left.
func Advance(progress *models.QuestionProgress, now time.Time) (episodeComplete bool) {
	idx := progress.CurrentCheckpoint
	if idx < len(progress.CheckpointProgress) {
		completed := now
		progress.CheckpointProgress[idx].Status = models.CheckpointCompleted
		progress.CheckpointProgress[idx].CompletedAt = &completed
	}
	progress.CurrentCheckpoint++
	if progress.CurrentCheckpoint >= len(progress.Checkpoints) {
		return true
	}
	started := now
	next := &progress.CheckpointProgress[progress.CurrentCheckpoint]
	next.Status = models.CheckpointInProgress
	next.StartedAt = &started
	return false
}

// End closes the episode. The question returns to IN_PROGRESS, never
// straight to CORRECT: the learner must still answer the quiz question. The
// cached definitions are dropped; the conversation history is kept.
func End(progress *models.QuestionProgress) {
	progress.InLearningMode = false
	progress.Status = models.QuestionInProgress
	progress.Checkpoints = nil
}
