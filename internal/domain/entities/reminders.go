package entities

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

var ErrInvalidReminders = errors.New("invalid reminder settings")

const reminderTimeLayout = "15:04:05"

// ReminderPayload carries the numbers shown in a reminder message.
type ReminderPayload struct {
	DueToday     int // items due for review today
	NewAvailable int // new items the user may still start today
	Mastered     int
	StreakDays   int
}

// ReminderWithUser combines reminder settings with the delivery target and timezone.
type ReminderWithUser struct {
	UserID        uuid.UUID
	ChatID        int64
	IsEnabled     bool
	IntervalHours int
	StartTime     string
	EndTime       string
	LastSentAt    *time.Time
	NextSendAt    *time.Time
	Timezone      string
}

// UserReminders contains reminder configuration for a user.
type UserReminders struct {
	UserID        uuid.UUID  `json:"-"`
	IsEnabled     bool       `json:"enabled"`
	IntervalHours int        `json:"interval_hours"` // interval between reminders
	StartTime     string     `json:"start_time"`     // local time, "HH:MM:SS"
	EndTime       string     `json:"end_time"`       // local time, "HH:MM:SS"
	LastSentAt    *time.Time `json:"last_sent_at,omitempty"`
	NextSendAt    *time.Time `json:"next_send_at,omitempty"`
	CreatedAt     time.Time  `json:"-"`
	UpdatedAt     time.Time  `json:"-"`
}

// NewUserReminders creates the default, disabled configuration. Reminders
// only make sense after the user links a Telegram chat.
func NewUserReminders(userID uuid.UUID) *UserReminders {
	now := time.Now()
	return &UserReminders{
		UserID:        userID,
		IsEnabled:     false,
		IntervalHours: 4,
		StartTime:     "09:00:00",
		EndTime:       "21:00:00",
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// Validate checks the window and the interval.
func (r *UserReminders) Validate() error {
	if r.IntervalHours < 1 || r.IntervalHours > 24 {
		return fmt.Errorf("%w: interval_hours must be between 1 and 24", ErrInvalidReminders)
	}
	start, err := time.Parse(reminderTimeLayout, r.StartTime)
	if err != nil {
		return fmt.Errorf("%w: start_time must be HH:MM:SS", ErrInvalidReminders)
	}
	end, err := time.Parse(reminderTimeLayout, r.EndTime)
	if err != nil {
		return fmt.Errorf("%w: end_time must be HH:MM:SS", ErrInvalidReminders)
	}
	if !start.Before(end) {
		return fmt.Errorf("%w: start_time must be before end_time", ErrInvalidReminders)
	}
	return nil
}

// CalculateNextSendAt returns the next reminder slot in UTC.
// Slots fall on round hours inside [start, end], stepping by IntervalHours from start.
func (r *UserReminders) CalculateNextSendAt(timezone string, now time.Time) time.Time {
	loc, err := ParseTimezoneLocation(timezone)
	if err != nil {
		loc = time.UTC
	}
	local := now.In(loc)

	startHour, endHour := 9, 21
	if t, err := time.Parse(reminderTimeLayout, r.StartTime); err == nil {
		startHour = t.Hour()
	}
	if t, err := time.Parse(reminderTimeLayout, r.EndTime); err == nil {
		endHour = t.Hour()
	}
	step := max(r.IntervalHours, 1)

	var nextHour int
	switch hour := local.Hour(); {
	case hour < startHour:
		nextHour = startHour
	case hour >= endHour:
		nextHour = startHour + 24
	default:
		nextHour = startHour + ((hour-startHour)/step+1)*step
		if nextHour > endHour {
			nextHour = startHour + 24
		}
	}

	day := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	return day.AddDate(0, 0, nextHour/24).Add(time.Duration(nextHour%24) * time.Hour).UTC()
}

// CanSendNow checks if it's time to send a reminder.
func (r *ReminderWithUser) CanSendNow(now time.Time) bool {
	if !r.IsEnabled || r.ChatID == 0 {
		return false
	}
	if r.NextSendAt == nil {
		return true
	}
	return !now.Before(*r.NextSendAt)
}

// Reminders returns the reminder part of the combined row.
func (r *ReminderWithUser) Reminders() *UserReminders {
	return &UserReminders{
		UserID:        r.UserID,
		IsEnabled:     r.IsEnabled,
		IntervalHours: r.IntervalHours,
		StartTime:     r.StartTime,
		EndTime:       r.EndTime,
		LastSentAt:    r.LastSentAt,
		NextSendAt:    r.NextSendAt,
	}
}
