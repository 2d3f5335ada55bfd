// Package srs implements the SM-2 derived review scheduler and the mastery
// classification shared by every place that mutates review state.
//
// Everything in this package is pure: no database, no context, no logger.
package srs

import (
	"math"
	"time"
)

const (
	MinQuality  = 0
	MaxQuality  = 5
	PassQuality = 3 // qualities below this reset the interval

	DefaultInterval = 1   // days, used when there is no prior review state
	DefaultEasiness = 2.5 // easiness factor for a never-reviewed item
	MinEasiness     = 1.3

	graduationInterval = 6
)

// Result is the outcome of scheduling a single review.
type Result struct {
	IntervalDays   int
	EasinessFactor float64
	NextReviewAt   time.Time // calendar date (midnight UTC)
}

// Schedule computes the next interval and easiness factor for a review of the
// given quality. today is interpreted as a calendar date; only its year, month
// and day are used.
//
// Inputs outside the valid domain are clamped, so the function is total.
func Schedule(quality, previousInterval int, previousEasiness float64, today time.Time) Result {
	q := ClampQuality(quality)
	if previousInterval < 1 {
		previousInterval = DefaultInterval
	}
	if math.IsNaN(previousEasiness) || previousEasiness < MinEasiness {
		previousEasiness = MinEasiness
	}

	ease := NextEasiness(q, previousEasiness)

	var interval int
	switch {
	case q < PassQuality:
		interval = 1
	case previousInterval == 1:
		interval = graduationInterval
	default:
		interval = int(math.Round(float64(previousInterval) * ease))
	}
	if interval < 1 {
		interval = 1
	}

	return Result{
		IntervalDays:   interval,
		EasinessFactor: ease,
		NextReviewAt:   Date(today).AddDate(0, 0, interval),
	}
}

// NextEasiness applies the SM-2 easiness update and the 1.3 floor.
func NextEasiness(quality int, previous float64) float64 {
	d := float64(MaxQuality - ClampQuality(quality))
	ease := previous + (0.1 - d*(0.08+d*0.02))
	return math.Max(ease, MinEasiness)
}

// Date truncates t to its calendar date, keeping the wall-clock day of t's
// location, and returns it as midnight UTC.
func Date(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Today returns the calendar date of now in loc. A nil loc means UTC.
func Today(now time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	return Date(now.In(loc))
}
