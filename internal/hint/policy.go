package hint

import (
	"context"
	"log"

	"assessment-service/internal/content"
	"assessment-service/internal/models"
)

// MaxLevel is the most explicit hint tier. Levels escalate with wrong
// attempts and cap here.
const MaxLevel = 3

// RevealThreshold is the wrong-attempt count at which the correct answer is
// included alongside the hint.
const RevealThreshold = 3

// LevelFor maps a wrong-attempt count to the hint level the learner has
// earned. Zero wrong attempts earns no hint.
func LevelFor(wrongCount int) int {
	if wrongCount <= 0 {
		return 0
	}
	if wrongCount > MaxLevel {
		return MaxLevel
	}
	return wrongCount
}

// HintSource records where a resolved hint's text came from.
type HintSource string

const (
	SourceGenerated   HintSource = "generated"
	SourceAuthored    HintSource = "authored"
	SourcePlaceholder HintSource = "placeholder"
)

// ResolvedHint is what the learner actually receives. Resolution never
// fails: there is always at least a placeholder.
type ResolvedHint struct {
	Level        int                   `json:"level"`
	Text         string                `json:"text"`
	Source       HintSource            `json:"source"`
	Socratic     *content.SocraticHint `json:"socratic,omitempty"`
	RevealAnswer bool                  `json:"reveal_answer"`
}

// Policy resolves hints through a fallback chain: generated Socratic hint,
// then the question's authored hint for the level, then the highest authored
// hint, then a generic placeholder.
type Policy struct {
	Generator content.HintGenerator
}

func (p *Policy) Resolve(ctx context.Context, question *models.Question, selectedOption string, wrongCount int, documentContext string) *ResolvedHint {
	level := LevelFor(wrongCount)
	if level == 0 {
		level = 1
	}

	resolved := &ResolvedHint{
		Level:        level,
		RevealAnswer: wrongCount >= RevealThreshold,
	}

	if p.Generator != nil && selectedOption != "" {
		socratic, err := p.Generator.GenerateHint(ctx, question, selectedOption, level, documentContext)
		if err == nil && socratic != nil && len(socratic.SocraticQuestions) > 0 {
			resolved.Text = socratic.SocraticQuestions[0]
			resolved.Source = SourceGenerated
			resolved.Socratic = socratic
			return resolved
		}
		if err != nil {
			log.Printf("Hint generation failed for question %s, falling back to authored hints: %v", question.ID, err)
		}
	}

	if authored := question.HintForLevel(level); authored != nil {
		resolved.Text = authored.Text
		resolved.Source = SourceAuthored
		return resolved
	}
	// The exact level may be missing; take the strongest authored hint below it.
	for l := level - 1; l >= 1; l-- {
		if authored := question.HintForLevel(l); authored != nil {
			resolved.Text = authored.Text
			resolved.Source = SourceAuthored
			return resolved
		}
	}

	resolved.Text = "Take another look at the question and rule out the options you know are wrong."
	resolved.Source = SourcePlaceholder
	return resolved
}
