package content

import (
	"fmt"

	"assessment-service/internal/models"
)

const (
	optionsPerQuestion = 4
	maxHintLevels      = 3
)

// ValidateQuestions checks generated questions once at ingestion. Downstream
// code relies on these shapes and never re-validates.
func ValidateQuestions(questions []models.Question) error {
	if len(questions) == 0 {
		return fmt.Errorf("generator returned no questions")
	}
	for i := range questions {
		q := &questions[i]
		if q.ID == "" {
			return fmt.Errorf("question %d: missing id", i)
		}
		if q.Text == "" {
			return fmt.Errorf("question %s: missing text", q.ID)
		}
		if len(q.Options) != optionsPerQuestion {
			return fmt.Errorf("question %s: expected %d options, got %d", q.ID, optionsPerQuestion, len(q.Options))
		}
		if q.Option(q.CorrectOption) == nil {
			return fmt.Errorf("question %s: correct option %q not among options", q.ID, q.CorrectOption)
		}
		if len(q.Hints) > maxHintLevels {
			return fmt.Errorf("question %s: expected at most %d hints, got %d", q.ID, maxHintLevels, len(q.Hints))
		}
		for _, h := range q.Hints {
			if h.Level < 1 || h.Level > maxHintLevels {
				return fmt.Errorf("question %s: hint level %d out of range", q.ID, h.Level)
			}
		}
		if q.ConceptID == "" {
			return fmt.Errorf("question %s: missing concept id", q.ID)
		}
	}
	return nil
}

// ValidateCheckpoints checks generated checkpoint definitions at
// learning-mode entry.
func ValidateCheckpoints(checkpoints []models.Checkpoint) error {
	if len(checkpoints) == 0 {
		return fmt.Errorf("generator returned no checkpoints")
	}
	for i := range checkpoints {
		cp := &checkpoints[i]
		if cp.ID == "" {
			return fmt.Errorf("checkpoint %d: missing id", i)
		}
		if cp.SocraticQuestion == "" {
			return fmt.Errorf("checkpoint %s: missing socratic question", cp.ID)
		}
	}
	return nil
}
