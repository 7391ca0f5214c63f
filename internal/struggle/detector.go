package struggle

import (
	"assessment-service/internal/models"
)

// Analyze classifies the attempt history for one question. It is a pure
// function: same attempts, same report. Pass timeSpentSeconds <= 0 to skip
// the time analysis.
func Analyze(attempts []models.Attempt, question *models.Question, timeSpentSeconds float64) *Report {
	wrongCount := 0
	for i := range attempts {
		if !attempts[i].IsCorrect {
			wrongCount++
		}
	}

	level := levelFor(wrongCount)
	shouldTrigger := wrongCount >= LearningModeThreshold
	pattern := analyzePattern(attempts)

	report := &Report{
		Level:                     level,
		ShouldTriggerLearningMode: shouldTrigger,
		WrongCount:                wrongCount,
		TotalCount:                len(attempts),
		Pattern:                   pattern,
		Recommendation:            recommend(level, pattern, shouldTrigger),
	}

	if timeSpentSeconds > 0 {
		report.Time = analyzeTime(timeSpentSeconds, wrongCount)
	}

	return report
}

func levelFor(wrongCount int) Level {
	switch wrongCount {
	case 0:
		return LevelNone
	case 1:
		return LevelMinor
	case 2:
		return LevelModerate
	default:
		return LevelSignificant
	}
}

// analyzePattern looks only at which option ids were selected, ignoring
// correctness: two identical picks signal one specific wrong belief, all
// distinct picks signal guessing.
func analyzePattern(attempts []models.Attempt) PatternAnalysis {
	if len(attempts) < 2 {
		return PatternAnalysis{
			Type:    PatternInsufficientData,
			Insight: "Not enough attempts to detect a pattern",
		}
	}

	selected := make([]string, len(attempts))
	distinct := make(map[string]int, len(attempts))
	for i := range attempts {
		selected[i] = attempts[i].SelectedOption
		distinct[selected[i]]++
	}

	if len(distinct) == 1 {
		return PatternAnalysis{
			Type:           PatternConsistentMisconception,
			Insight:        "Learner consistently selects the same answer - likely holds one specific misconception",
			RepeatedOption: selected[0],
		}
	}

	if len(distinct) == len(selected) {
		return PatternAnalysis{
			Type:    PatternRandomGuessing,
			Insight: "Learner tries a different option each time - may not understand the concept",
		}
	}

	return PatternAnalysis{
		Type:              PatternMixed,
		Insight:           "Learner has tried multiple different answers",
		OptionFrequencies: distinct,
	}
}

func analyzeTime(totalSeconds float64, wrongCount int) *TimeAnalysis {
	attempts := wrongCount + 1
	if attempts < 1 {
		attempts = 1
	}
	avg := totalSeconds / float64(attempts)

	ta := &TimeAnalysis{
		TotalSeconds:  totalSeconds,
		AvgPerAttempt: avg,
	}
	switch {
	case avg < 10:
		ta.Assessment = TimeRushed
		ta.Insight = "Quick attempts - learner may be guessing without careful thought"
	case avg < 30:
		ta.Assessment = TimeNormal
		ta.Insight = "Reasonable time per attempt"
	default:
		ta.Assessment = TimeDeliberate
		ta.Insight = "Significant time per attempt - thinking carefully but may be confused"
	}
	return ta
}

// recommend is a fixed decision table over (level, pattern, trigger).
func recommend(level Level, pattern PatternAnalysis, shouldTrigger bool) string {
	if shouldTrigger {
		return "Trigger interactive learning mode to build understanding through Socratic questioning"
	}

	switch level {
	case LevelNone:
		return "No intervention needed - learner is progressing well"
	case LevelMinor:
		return "Provide a level 1 hint (gentle nudge)"
	case LevelModerate:
		if pattern.Type == PatternConsistentMisconception {
			return "Provide a level 2 hint addressing the specific misconception"
		}
		return "Provide a level 2 hint to guide thinking"
	}
	return "Continue monitoring"
}
