package models

type Option struct {
	ID   string `bson:"id" json:"id"`
	Text string `bson:"text" json:"text"`
}

// Hint is a statically authored hint attached to a question or checkpoint.
// Level runs 1 (subtle) through 3 (near-explicit).
type Hint struct {
	Level int    `bson:"level" json:"level"`
	Type  string `bson:"type,omitempty" json:"type,omitempty"`
	Text  string `bson:"text" json:"text"`
}

// Question is read-only content supplied at session creation. The core never
// edits it; correctness checks compare against CorrectOption.
type Question struct {
	ID            string   `bson:"id" json:"id"`
	Text          string   `bson:"text" json:"text"`
	Options       []Option `bson:"options" json:"options"`
	CorrectOption string   `bson:"correct_option" json:"correct_option"`
	Explanation   string   `bson:"explanation" json:"explanation"`
	Hints         []Hint   `bson:"hints" json:"hints"`
	ConceptID     string   `bson:"concept_id" json:"concept_id"`
}

// HintForLevel returns the authored hint for the given level, or nil.
func (q *Question) HintForLevel(level int) *Hint {
	for i := range q.Hints {
		if q.Hints[i].Level == level {
			return &q.Hints[i]
		}
	}
	return nil
}

// Option returns the option with the given id, or nil.
func (q *Question) Option(id string) *Option {
	for i := range q.Options {
		if q.Options[i].ID == id {
			return &q.Options[i]
		}
	}
	return nil
}

// Concept is one idea extracted from the source document. Learning-mode
// checkpoints are generated from the concept a question is tagged with.
type Concept struct {
	ID         string `bson:"id" json:"id"`
	Name       string `bson:"name" json:"name"`
	Definition string `bson:"definition,omitempty" json:"definition,omitempty"`
}

// Checkpoint is one step of a Socratic dialogue, supplied by the external
// checkpoint generator when learning mode is entered. Definitions are cached
// on the question's progress record for the lifetime of the episode.
type Checkpoint struct {
	ID                string   `bson:"id" json:"id"`
	Order             int      `bson:"order" json:"order"`
	Title             string   `bson:"title" json:"title"`
	SocraticQuestion  string   `bson:"socratic_question" json:"socratic_question"`
	ExpectedInsight   string   `bson:"expected_insight" json:"expected_insight"`
	FollowUpQuestions []string `bson:"follow_up_questions,omitempty" json:"follow_up_questions,omitempty"`
	Hints             []Hint   `bson:"hints,omitempty" json:"hints,omitempty"`
	MasteryCriteria   string   `bson:"mastery_criteria,omitempty" json:"mastery_criteria,omitempty"`
}

// HintForLevel returns the checkpoint hint for the given level, or nil.
func (cp *Checkpoint) HintForLevel(level int) *Hint {
	for i := range cp.Hints {
		if cp.Hints[i].Level == level {
			return &cp.Hints[i]
		}
	}
	return nil
}
