package struggle

// Level classifies how much a learner is struggling on one question,
// keyed purely on the wrong-attempt count.
type Level string

const (
	LevelNone        Level = "none"        // 0 wrong attempts
	LevelMinor       Level = "minor"       // 1 wrong attempt
	LevelModerate    Level = "moderate"    // 2 wrong attempts
	LevelSignificant Level = "significant" // 3+ wrong attempts
)

// LearningModeThreshold is the wrong-attempt count at which interactive
// learning mode is recommended. Fixed policy, not configurable per question.
const LearningModeThreshold = 3

type PatternType string

const (
	PatternInsufficientData        PatternType = "insufficient_data"
	PatternConsistentMisconception PatternType = "consistent_misconception"
	PatternRandomGuessing          PatternType = "random_guessing"
	PatternMixed                   PatternType = "mixed"
)

// PatternAnalysis describes which options the learner has been choosing,
// regardless of correctness.
type PatternAnalysis struct {
	Type              PatternType    `json:"pattern_type"`
	Insight           string         `json:"insight"`
	RepeatedOption    string         `json:"repeated_option,omitempty"`
	OptionFrequencies map[string]int `json:"option_frequencies,omitempty"`
}

type TimeAssessment string

const (
	TimeRushed     TimeAssessment = "rushed"
	TimeNormal     TimeAssessment = "normal"
	TimeDeliberate TimeAssessment = "deliberate"
)

// TimeAnalysis is advisory only; it never affects the learning-mode trigger.
type TimeAnalysis struct {
	TotalSeconds  float64        `json:"total_time_seconds"`
	AvgPerAttempt float64        `json:"avg_time_per_attempt"`
	Assessment    TimeAssessment `json:"assessment"`
	Insight       string         `json:"insight"`
}

// Report is the full verdict for one question's attempt history.
type Report struct {
	Level                     Level           `json:"struggle_level"`
	ShouldTriggerLearningMode bool            `json:"should_trigger_learning_mode"`
	WrongCount                int             `json:"wrong_attempt_count"`
	TotalCount                int             `json:"total_attempt_count"`
	Pattern                   PatternAnalysis `json:"pattern_analysis"`
	Time                      *TimeAnalysis   `json:"time_analysis,omitempty"`
	Recommendation            string          `json:"recommendation"`
}
