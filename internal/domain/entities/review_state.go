package entities

import (
	"time"

	"github.com/google/uuid"

	"github.com/aliskhannn/jlpt-n1-study/internal/domain/srs"
)

// ReviewState stores the spaced repetition state of one item for one user.
type ReviewState struct {
	UserID uuid.UUID
	ItemID int64

	// SRS fields.
	IntervalDays   int       // current interval in days, at least 1
	EasinessFactor float64   // SM-2 easiness, at least 1.3
	NextReviewAt   time.Time // calendar date of the next review

	CorrectCount   int
	IncorrectCount int
	MasteryLevel   srs.Level

	LastReviewedAt *time.Time // nil until the first review
	CreatedAt      time.Time
}

// NewReviewState returns the state used when an item has never been reviewed.
func NewReviewState(userID uuid.UUID, itemID int64) *ReviewState {
	return &ReviewState{
		UserID:         userID,
		ItemID:         itemID,
		IntervalDays:   srs.DefaultInterval,
		EasinessFactor: srs.DefaultEasiness,
		MasteryLevel:   srs.LevelNew,
	}
}

// Tally returns the fields mastery classification looks at.
func (s *ReviewState) Tally() srs.Tally {
	return srs.Tally{
		IntervalDays:   s.IntervalDays,
		CorrectCount:   s.CorrectCount,
		IncorrectCount: s.IncorrectCount,
	}
}

// Apply records one review of the given quality.
//
// today is the calendar date in the user's timezone, now is the wall-clock
// instant of the review.
func (s *ReviewState) Apply(quality int, today, now time.Time, policy srs.MasteryPolicy, flagMastered bool) srs.Result {
	res := srs.Schedule(quality, s.IntervalDays, s.EasinessFactor, today)

	s.IntervalDays = res.IntervalDays
	s.EasinessFactor = res.EasinessFactor
	s.NextReviewAt = res.NextReviewAt

	if srs.IsCorrect(quality) {
		s.CorrectCount++
	} else {
		s.IncorrectCount++
	}

	s.MasteryLevel = policy.Classify(s.Tally(), flagMastered)
	s.LastReviewedAt = &now
	if s.CreatedAt.IsZero() {
		s.CreatedAt = now
	}

	return res
}

// IsDue reports whether the item should be reviewed on the given date.
func (s *ReviewState) IsDue(today time.Time) bool {
	return !s.NextReviewAt.After(srs.Date(today))
}
