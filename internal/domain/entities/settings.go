package entities

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/aliskhannn/jlpt-n1-study/internal/domain/srs"
)

var ErrInvalidSettings = errors.New("invalid settings")

const (
	DefaultNewPerDay        = 10
	DefaultMaxReviewsPerDay = 100
	DefaultQuizLength       = 10

	MaxNewPerDay        = 100
	MaxReviewsPerDayCap = 1000
	MinQuizLength       = 4
	MaxQuizLength       = 50
)

// UserSettings stores user-specific configuration and preferences for learning.
type UserSettings struct {
	UserID           uuid.UUID `json:"-"`
	NewPerDay        int       `json:"new_per_day"`         // new items introduced per day
	MaxReviewsPerDay int       `json:"max_reviews_per_day"` // cap on cards served per day
	QuizLength       int       `json:"quiz_length"`
	QuizMode         QuizMode  `json:"quiz_mode"`
	Timezone         string    `json:"timezone"`
	TelegramChatID   *int64    `json:"telegram_chat_id,omitempty"` // set once the user links the bot
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// NewUserSettings creates a new UserSettings instance with default values.
func NewUserSettings(userID uuid.UUID) *UserSettings {
	now := time.Now()
	return &UserSettings{
		UserID:           userID,
		NewPerDay:        DefaultNewPerDay,
		MaxReviewsPerDay: DefaultMaxReviewsPerDay,
		QuizLength:       DefaultQuizLength,
		QuizMode:         QuizModeMixed,
		Timezone:         "UTC",
		CreatedAt:        now,
		UpdatedAt:        now,
	}
}

// Location returns the user's timezone, falling back to UTC when it cannot be parsed.
func (us *UserSettings) Location() *time.Location {
	loc, err := ParseTimezoneLocation(us.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// Today returns the user's current calendar date.
func (us *UserSettings) Today(now time.Time) time.Time {
	return srs.Today(now, us.Location())
}

// SettingsPatch is a partial update of UserSettings. Nil fields are left unchanged.
type SettingsPatch struct {
	NewPerDay        *int      `json:"new_per_day"`
	MaxReviewsPerDay *int      `json:"max_reviews_per_day"`
	QuizLength       *int      `json:"quiz_length"`
	QuizMode         *QuizMode `json:"quiz_mode"`
	Timezone         *string   `json:"timezone"`
}

// Validate checks every set field.
func (p SettingsPatch) Validate() error {
	if p.NewPerDay != nil && (*p.NewPerDay < 0 || *p.NewPerDay > MaxNewPerDay) {
		return fmt.Errorf("%w: new_per_day must be between 0 and %d", ErrInvalidSettings, MaxNewPerDay)
	}
	if p.MaxReviewsPerDay != nil && (*p.MaxReviewsPerDay < 1 || *p.MaxReviewsPerDay > MaxReviewsPerDayCap) {
		return fmt.Errorf("%w: max_reviews_per_day must be between 1 and %d", ErrInvalidSettings, MaxReviewsPerDayCap)
	}
	if p.QuizLength != nil && (*p.QuizLength < MinQuizLength || *p.QuizLength > MaxQuizLength) {
		return fmt.Errorf("%w: quiz_length must be between %d and %d", ErrInvalidSettings, MinQuizLength, MaxQuizLength)
	}
	if p.QuizMode != nil && !p.QuizMode.Valid() {
		return fmt.Errorf("%w: unknown quiz_mode %q", ErrInvalidSettings, *p.QuizMode)
	}
	if p.Timezone != nil {
		if _, err := ParseTimezoneLocation(*p.Timezone); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidSettings, err)
		}
	}
	return nil
}

// ApplyTo copies the set fields onto s.
func (p SettingsPatch) ApplyTo(s *UserSettings, now time.Time) {
	if p.NewPerDay != nil {
		s.NewPerDay = *p.NewPerDay
	}
	if p.MaxReviewsPerDay != nil {
		s.MaxReviewsPerDay = *p.MaxReviewsPerDay
	}
	if p.QuizLength != nil {
		s.QuizLength = *p.QuizLength
	}
	if p.QuizMode != nil {
		s.QuizMode = *p.QuizMode
	}
	if p.Timezone != nil {
		s.Timezone = *p.Timezone
	}
	s.UpdatedAt = now
}
