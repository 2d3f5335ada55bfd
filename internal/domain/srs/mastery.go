package srs

// Level is a coarse bucket summarizing an item's review state.
type Level string

const (
	LevelNew      Level = "new"
	LevelLearning Level = "learning"
	LevelReview   Level = "review"
	LevelMastered Level = "mastered"
)

// Levels lists all mastery levels in progression order.
var Levels = []Level{LevelNew, LevelLearning, LevelReview, LevelMastered}

// Valid reports whether l is a known level.
func (l Level) Valid() bool {
	switch l {
	case LevelNew, LevelLearning, LevelReview, LevelMastered:
		return true
	}
	return false
}

// MasteryPolicy holds the thresholds used by Classify.
type MasteryPolicy struct {
	MasteredMinAccuracy     float64 `mapstructure:"mastered_min_accuracy"`
	MasteredMinAttempts     int     `mapstructure:"mastered_min_attempts"`
	MasteredFlagMinInterval int     `mapstructure:"mastered_flag_min_interval"` // interval needed for caller-flagged mastery
	ReviewMinAccuracy       float64 `mapstructure:"review_min_accuracy"`
	ReviewMinAttempts       int     `mapstructure:"review_min_attempts"`
	ReviewIntervalAbove     int     `mapstructure:"review_interval_above"` // interval strictly above this means review
}

// DefaultMasteryPolicy returns the canonical thresholds.
func DefaultMasteryPolicy() MasteryPolicy {
	return MasteryPolicy{
		MasteredMinAccuracy:     0.9,
		MasteredMinAttempts:     5,
		MasteredFlagMinInterval: 10,
		ReviewMinAccuracy:       0.7,
		ReviewMinAttempts:       3,
		ReviewIntervalAbove:     6,
	}
}

// Tally is the part of a review state the classification looks at.
type Tally struct {
	IntervalDays   int
	CorrectCount   int
	IncorrectCount int
}

// Attempts is the total number of reviews.
func (t Tally) Attempts() int {
	return t.CorrectCount + t.IncorrectCount
}

// Accuracy is the share of correct reviews, 0 when there are none.
func (t Tally) Accuracy() float64 {
	n := t.Attempts()
	if n == 0 {
		return 0
	}
	return float64(t.CorrectCount) / float64(n)
}

// Classify derives the mastery level of a review state. It may move an item
// backward when its accuracy drops.
func (p MasteryPolicy) Classify(t Tally, flagMastered bool) Level {
	attempts := t.Attempts()
	if attempts == 0 {
		return LevelNew
	}

	acc := t.Accuracy()
	switch {
	case attempts >= p.MasteredMinAttempts && acc >= p.MasteredMinAccuracy:
		return LevelMastered
	case flagMastered && t.IntervalDays >= p.MasteredFlagMinInterval:
		return LevelMastered
	case attempts >= p.ReviewMinAttempts && acc >= p.ReviewMinAccuracy:
		return LevelReview
	case t.IntervalDays > p.ReviewIntervalAbove:
		return LevelReview
	default:
		return LevelLearning
	}
}
