package entities

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/aliskhannn/jlpt-n1-study/internal/domain/srs"
)

func ptr[T any](v T) *T { return &v }

func TestReviewStateApplyFirstKnownReview(t *testing.T) {
	today := time.Date(2026, time.May, 1, 0, 0, 0, 0, time.UTC)
	now := today.Add(10 * time.Hour)

	s := NewReviewState(uuid.New(), 42)
	s.Apply(srs.FromKnown(true), today, now, srs.DefaultMasteryPolicy(), false)

	if s.IntervalDays != 6 {
		t.Errorf("interval = %d, want 6", s.IntervalDays)
	}
	if math.Abs(s.EasinessFactor-2.5) > 1e-9 {
		t.Errorf("easiness = %v, want 2.5", s.EasinessFactor)
	}
	if want := today.AddDate(0, 0, 6); !s.NextReviewAt.Equal(want) {
		t.Errorf("next review = %v, want %v", s.NextReviewAt, want)
	}
	if s.CorrectCount != 1 || s.IncorrectCount != 0 {
		t.Errorf("tally = %d/%d, want 1/0", s.CorrectCount, s.IncorrectCount)
	}
	if s.MasteryLevel != srs.LevelLearning {
		t.Errorf("level = %q, want learning", s.MasteryLevel)
	}
	if s.LastReviewedAt == nil || !s.LastReviewedAt.Equal(now) {
		t.Errorf("last reviewed = %v, want %v", s.LastReviewedAt, now)
	}
	if !s.CreatedAt.Equal(now) {
		t.Errorf("created = %v, want %v", s.CreatedAt, now)
	}
}

func TestReviewStateApplyFailureAfterLongInterval(t *testing.T) {
	today := time.Date(2026, time.May, 1, 0, 0, 0, 0, time.UTC)
	s := NewReviewState(uuid.New(), 1)
	s.IntervalDays = 6
	s.CorrectCount = 2

	s.Apply(2, today, today, srs.DefaultMasteryPolicy(), false)

	if s.IntervalDays != 1 {
		t.Errorf("interval = %d, want 1", s.IntervalDays)
	}
	if math.Abs(s.EasinessFactor-2.18) > 1e-9 {
		t.Errorf("easiness = %v, want 2.18", s.EasinessFactor)
	}
	if s.IncorrectCount != 1 {
		t.Errorf("incorrect = %d, want 1", s.IncorrectCount)
	}
}

func TestReviewStateReachesMastery(t *testing.T) {
	today := time.Date(2026, time.May, 1, 0, 0, 0, 0, time.UTC)
	s := NewReviewState(uuid.New(), 1)
	policy := srs.DefaultMasteryPolicy()

	// second review jumps the interval to 16 days, which already counts as review
	want := []srs.Level{srs.LevelLearning, srs.LevelReview, srs.LevelReview, srs.LevelReview, srs.LevelMastered}
	for i, w := range want {
		s.Apply(5, today, today, policy, false)
		if s.MasteryLevel != w {
			t.Fatalf("review %d: level = %q, want %q", i+1, s.MasteryLevel, w)
		}
		today = s.NextReviewAt
	}
}

func TestReviewStateIsDue(t *testing.T) {
	s := &ReviewState{NextReviewAt: time.Date(2026, time.May, 5, 0, 0, 0, 0, time.UTC)}

	if s.IsDue(time.Date(2026, time.May, 4, 23, 0, 0, 0, time.UTC)) {
		t.Error("due a day early")
	}
	if !s.IsDue(time.Date(2026, time.May, 5, 8, 0, 0, 0, time.UTC)) {
		t.Error("not due on its date")
	}
}

func TestReviewEventResolveQuality(t *testing.T) {
	tests := []struct {
		name    string
		event   ReviewEvent
		want    int
		wantErr error
	}{
		{"known", ReviewEvent{Known: ptr(true)}, 4, nil},
		{"unknown", ReviewEvent{Known: ptr(false)}, 2, nil},
		{"explicit quality", ReviewEvent{Quality: ptr(5)}, 5, nil},
		{"zero quality", ReviewEvent{Quality: ptr(0)}, 0, nil},
		{"out of range", ReviewEvent{Quality: ptr(6)}, 0, srs.ErrQualityOutOfRange},
		{"negative", ReviewEvent{Quality: ptr(-1)}, 0, srs.ErrQualityOutOfRange},
		{"both", ReviewEvent{Known: ptr(true), Quality: ptr(3)}, 0, ErrAmbiguousOutcome},
		{"neither", ReviewEvent{}, 0, ErrMissingOutcome},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.event.ResolveQuality()
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("err = %v, want %v", err, tt.wantErr)
			}
			if err == nil && got != tt.want {
				t.Errorf("quality = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestNewReviewLog(t *testing.T) {
	tokyo := time.FixedZone("JST", 9*3600)
	now := time.Date(2026, time.May, 1, 23, 30, 0, 0, tokyo)
	s := NewReviewState(uuid.New(), 3)
	s.Apply(4, now, now, srs.DefaultMasteryPolicy(), false)

	l := NewReviewLog(s, 4, SourceFlashcard, now, now)
	if want := time.Date(2026, time.May, 1, 0, 0, 0, 0, time.UTC); !l.ReviewedOn.Equal(want) {
		t.Errorf("reviewed on = %v, want %v", l.ReviewedOn, want)
	}
	if l.IntervalDays != s.IntervalDays || l.Source != SourceFlashcard {
		t.Errorf("unexpected log %+v", l)
	}
}
