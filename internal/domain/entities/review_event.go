package entities

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/aliskhannn/jlpt-n1-study/internal/domain/srs"
)

var (
	ErrMissingOutcome   = errors.New("review outcome is required")
	ErrAmbiguousOutcome = errors.New("review outcome must be either known or quality, not both")
)

// ReviewSource identifies the flow that produced a review.
type ReviewSource string

const (
	SourceQuiz      ReviewSource = "quiz"
	SourceFlashcard ReviewSource = "flashcard"
)

// ReviewEvent is a single review submitted by a user.
// Exactly one of Known and Quality must be set.
type ReviewEvent struct {
	UserID       uuid.UUID
	ItemID       int64
	Known        *bool
	Quality      *int
	FlagMastered bool
	Source       ReviewSource
}

// ResolveQuality maps the event outcome onto the 0-5 quality scale.
func (e ReviewEvent) ResolveQuality() (int, error) {
	switch {
	case e.Known != nil && e.Quality != nil:
		return 0, ErrAmbiguousOutcome
	case e.Known != nil:
		return srs.FromKnown(*e.Known), nil
	case e.Quality != nil:
		if err := srs.ValidateQuality(*e.Quality); err != nil {
			return 0, err
		}
		return *e.Quality, nil
	default:
		return 0, ErrMissingOutcome
	}
}

// ReviewResult is what a caller learns about the item after a review.
type ReviewResult struct {
	ItemID         int64     `json:"item_id"`
	Quality        int       `json:"quality"`
	IntervalDays   int       `json:"interval_days"`
	EasinessFactor float64   `json:"easiness_factor"`
	NextReviewAt   time.Time `json:"next_review_at"`
	MasteryLevel   srs.Level `json:"mastery_level"`
}

// ResultOf builds the result view of a state after Apply.
func ResultOf(s *ReviewState, quality int) ReviewResult {
	return ReviewResult{
		ItemID:         s.ItemID,
		Quality:        quality,
		IntervalDays:   s.IntervalDays,
		EasinessFactor: s.EasinessFactor,
		NextReviewAt:   s.NextReviewAt,
		MasteryLevel:   s.MasteryLevel,
	}
}

// ReviewLog is one entry of a user's review history.
type ReviewLog struct {
	ID             int64
	UserID         uuid.UUID
	ItemID         int64
	Quality        int
	Source         ReviewSource
	IntervalDays   int
	EasinessFactor float64
	ReviewedOn     time.Time // calendar date in the user's timezone
	ReviewedAt     time.Time
}

// NewReviewLog builds the history entry for a review that was just applied.
func NewReviewLog(s *ReviewState, quality int, source ReviewSource, today, now time.Time) *ReviewLog {
	return &ReviewLog{
		UserID:         s.UserID,
		ItemID:         s.ItemID,
		Quality:        quality,
		Source:         source,
		IntervalDays:   s.IntervalDays,
		EasinessFactor: s.EasinessFactor,
		ReviewedOn:     srs.Date(today),
		ReviewedAt:     now,
	}
}
