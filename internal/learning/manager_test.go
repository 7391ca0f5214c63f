package learning

import (
	"testing"
	"time"

	"assessment-service/internal/models"
)

func twoCheckpoints() []models.Checkpoint {
	return []models.Checkpoint{
		{ID: "cp1", Order: 1, Title: "Foundation", SocraticQuestion: "What does the concept describe?"},
		{ID: "cp2", Order: 2, Title: "Connections", SocraticQuestion: "How does it relate to what you already know?"},
	}
}

func TestBeginStartsFirstCheckpoint(t *testing.T) {
	progress := &models.QuestionProgress{QuestionID: "q1", Status: models.QuestionInProgress}
	now := time.Now()

	Begin(progress, twoCheckpoints(), now)

	if !progress.InLearningMode {
		t.Fatal("Expected the episode to be active")
	}
	if progress.Status != models.QuestionLearningMode {
		t.Errorf("Expected question status learning_mode, got %s", progress.Status)
	}
	if len(progress.CheckpointProgress) != 2 {
		t.Fatalf("Expected 2 checkpoint records, got %d", len(progress.CheckpointProgress))
	}
	if progress.CheckpointProgress[0].Status != models.CheckpointInProgress {
		t.Errorf("Expected first checkpoint in_progress, got %s", progress.CheckpointProgress[0].Status)
	}
	if progress.CheckpointProgress[1].Status != models.CheckpointNotStarted {
		t.Errorf("Expected second checkpoint not_started, got %s", progress.CheckpointProgress[1].Status)
	}
}

func TestCurrentRequiresActiveEpisode(t *testing.T) {
	progress := &models.QuestionProgress{QuestionID: "q1", Status: models.QuestionInProgress}

	if _, _, err := Current(progress); err == nil {
		t.Error("Expected an error outside learning mode")
	}
}

func TestRecordTurnAccumulates(t *testing.T) {
	progress := &models.QuestionProgress{QuestionID: "q1"}
	Begin(progress, twoCheckpoints(), time.Now())

	_, cp, err := Current(progress)
	if err != nil {
		t.Fatal(err)
	}
	RecordTurn(cp, "What does the concept describe?", "I think it describes change over time.")
	RecordTurn(cp, "Can you be more specific?", "The rate of change, not the change itself.")

	if cp.Attempts != 2 {
		t.Errorf("Expected 2 attempts, got %d", cp.Attempts)
	}
	if len(cp.Turns) != 2 {
		t.Fatalf("Expected 2 turns, got %d", len(cp.Turns))
	}
	if cp.Turns[1].Answer != "The rate of change, not the change itself." {
		t.Errorf("Unexpected turn: %+v", cp.Turns[1])
	}
}

func TestAdvanceWalksTheEpisode(t *testing.T) {
	progress := &models.QuestionProgress{QuestionID: "q1"}
	Begin(progress, twoCheckpoints(), time.Now())

	if done := Advance(progress, time.Now()); done {
		t.Fatal("Episode must not complete with a checkpoint remaining")
	}
	if progress.CheckpointProgress[0].Status != models.CheckpointCompleted {
		t.Errorf("Expected first checkpoint completed, got %s", progress.CheckpointProgress[0].Status)
	}
	if progress.CheckpointProgress[0].CompletedAt == nil {
		t.Error("Expected a completion timestamp")
	}
	if progress.CheckpointProgress[1].Status != models.CheckpointInProgress {
		t.Errorf("Expected second checkpoint in_progress, got %s", progress.CheckpointProgress[1].Status)
	}

	if done := Advance(progress, time.Now()); !done {
		t.Fatal("Expected the episode to complete after the last checkpoint")
	}
	if _, _, err := Current(progress); err == nil {
		t.Error("Expected Current to fail once all checkpoints are completed")
	}
}

func TestEndReturnsQuestionToInProgress(t *testing.T) {
	progress := &models.QuestionProgress{QuestionID: "q1"}
	Begin(progress, twoCheckpoints(), time.Now())
	Advance(progress, time.Now())
	Advance(progress, time.Now())

	End(progress)

	if progress.InLearningMode {
		t.Error("Expected the episode flag to be cleared")
	}
	if progress.Status != models.QuestionInProgress {
		t.Errorf("Completing learning mode must return the question to in_progress, got %s", progress.Status)
	}
	if progress.Checkpoints != nil {
		t.Error("Expected cached checkpoint definitions to be dropped")
	}
	if len(progress.CheckpointProgress) != 2 {
		t.Error("Expected the conversation history to be kept")
	}
}

func TestRepeatedEpisodesOnOneQuestion(t *testing.T) {
	progress := &models.QuestionProgress{QuestionID: "q1"}

	Begin(progress, twoCheckpoints(), time.Now())
	End(progress)
	Begin(progress, twoCheckpoints(), time.Now())

	if progress.CurrentCheckpoint != 0 {
		t.Errorf("A fresh episode must restart at checkpoint 0, got %d", progress.CurrentCheckpoint)
	}
	if progress.CheckpointProgress[0].Status != models.CheckpointInProgress {
		t.Errorf("Expected first checkpoint in_progress, got %s", progress.CheckpointProgress[0].Status)
	}
}
