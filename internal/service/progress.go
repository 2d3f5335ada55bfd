package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/aliskhannn/jlpt-n1-study/internal/domain/entities"
	"github.com/aliskhannn/jlpt-n1-study/internal/infra/postgres/repository"
)

const (
	DefaultActivityDays = 30
	MaxActivityDays     = 365
	DefaultForecastDays = 14
	MaxForecastDays     = 90

	streakLookbackDays = 366
)

// ProgressService answers analytics questions about a user's learning.
type ProgressService struct {
	analytics AnalyticsRepository
	states    ReviewStateRepository
	settings  SettingsProvider
	now       func() time.Time
}

func NewProgressService(analytics AnalyticsRepository, states ReviewStateRepository, settings SettingsProvider) *ProgressService {
	return &ProgressService{
		analytics: analytics,
		states:    states,
		settings:  settings,
		now:       time.Now,
	}
}

func (s *ProgressService) today(ctx context.Context, userID uuid.UUID) (*entities.UserSettings, time.Time, error) {
	settings, err := s.settings.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("get settings: %w", err)
	}
	return settings, settings.Today(s.now()), nil
}

// Summary returns level counts, due items, accuracy and the current streak.
func (s *ProgressService) Summary(ctx context.Context, userID uuid.UUID) (*entities.ProgressSummary, error) {
	_, today, err := s.today(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.summary(ctx, userID, today)
}

func (s *ProgressService) summary(ctx context.Context, userID uuid.UUID, today time.Time) (*entities.ProgressSummary, error) {
	itemTotals, err := s.analytics.ItemTotals(ctx, userID)
	if err != nil {
		return nil, err
	}
	rows, err := s.analytics.LevelCounts(ctx, userID, today)
	if err != nil {
		return nil, err
	}
	totals, err := s.analytics.Totals(ctx, userID)
	if err != nil {
		return nil, err
	}
	days, err := s.analytics.ReviewDays(ctx, userID, today.AddDate(0, 0, -streakLookbackDays))
	if err != nil {
		return nil, err
	}

	sum := &entities.ProgressSummary{
		TotalReviews:    totals.Attempts,
		AverageEasiness: totals.AverageEasiness,
		LastActivityAt:  totals.LastActivityAt,
		StreakDays:      entities.StreakDays(days, today),
	}
	for _, n := range itemTotals {
		sum.TotalItems += n
	}
	for _, row := range rows {
		sum.Levels.Add(row.Level, row.Count)
		sum.DueToday += row.Due
	}
	sum.Levels.New = max(sum.TotalItems-sum.Levels.Started(), 0)
	if totals.Attempts > 0 {
		sum.Accuracy = float64(totals.Correct) / float64(totals.Attempts)
	}

	return sum, nil
}

// ByKind splits level counts and due items by item kind.
func (s *ProgressService) ByKind(ctx context.Context, userID uuid.UUID) ([]entities.KindProgress, error) {
	_, today, err := s.today(ctx, userID)
	if err != nil {
		return nil, err
	}

	itemTotals, err := s.analytics.ItemTotals(ctx, userID)
	if err != nil {
		return nil, err
	}
	rows, err := s.analytics.LevelCounts(ctx, userID, today)
	if err != nil {
		return nil, err
	}

	return byKind(itemTotals, rows), nil
}

func byKind(itemTotals map[entities.ItemKind]int, rows []repository.LevelCountRow) []entities.KindProgress {
	out := make([]entities.KindProgress, 0, len(entities.ItemKinds))
	for _, kind := range entities.ItemKinds {
		kp := entities.KindProgress{Kind: kind, TotalItems: itemTotals[kind]}
		for _, row := range rows {
			if row.Kind != kind {
				continue
			}
			kp.Levels.Add(row.Level, row.Count)
			kp.DueToday += row.Due
		}
		kp.Levels.New = max(kp.TotalItems-kp.Levels.Started(), 0)
		out = append(out, kp)
	}
	return out
}

// Activity returns reviews per day for the last days days, today included.
func (s *ProgressService) Activity(ctx context.Context, userID uuid.UUID, days int) ([]entities.DailyActivity, error) {
	days = clampDays(days, DefaultActivityDays, MaxActivityDays)

	_, today, err := s.today(ctx, userID)
	if err != nil {
		return nil, err
	}
	from := today.AddDate(0, 0, -(days - 1))

	rows, err := s.analytics.Activity(ctx, userID, from, today)
	if err != nil {
		return nil, err
	}
	return entities.FillActivity(rows, from, today), nil
}

// Forecast returns the number of items due per day for the next days days.
func (s *ProgressService) Forecast(ctx context.Context, userID uuid.UUID, days int) ([]entities.ForecastDay, error) {
	days = clampDays(days, DefaultForecastDays, MaxForecastDays)

	_, today, err := s.today(ctx, userID)
	if err != nil {
		return nil, err
	}

	rows, err := s.analytics.Forecast(ctx, userID, today.AddDate(0, 0, days-1))
	if err != nil {
		return nil, err
	}
	return entities.FillForecast(rows, today, days), nil
}

// ReminderPayload implements PayloadBuilder.
func (s *ProgressService) ReminderPayload(ctx context.Context, userID uuid.UUID) (entities.ReminderPayload, error) {
	settings, today, err := s.today(ctx, userID)
	if err != nil {
		return entities.ReminderPayload{}, err
	}

	sum, err := s.summary(ctx, userID, today)
	if err != nil {
		return entities.ReminderPayload{}, err
	}

	introduced, err := s.states.CountIntroducedSince(ctx, userID, dayStart(today, settings.Location()))
	if err != nil {
		return entities.ReminderPayload{}, err
	}

	return entities.ReminderPayload{
		DueToday:     sum.DueToday,
		NewAvailable: min(max(settings.NewPerDay-introduced, 0), sum.Levels.New),
		Mastered:     sum.Levels.Mastered,
		StreakDays:   sum.StreakDays,
	}, nil
}

func clampDays(days, def, maxDays int) int {
	if days <= 0 {
		return def
	}
	return min(days, maxDays)
}
