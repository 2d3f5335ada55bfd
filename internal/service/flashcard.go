package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/aliskhannn/jlpt-n1-study/internal/domain/entities"
	"github.com/aliskhannn/jlpt-n1-study/internal/infra/postgres"
)

const MaxCardsPerRequest = 100

// FlashcardService serves the daily card queue and records card reviews.
type FlashcardService struct {
	db       postgres.DBTX
	stores   Stores
	settings SettingsProvider
	reviews  *ReviewService
}

func NewFlashcardService(db postgres.DBTX, stores Stores, settings SettingsProvider, reviews *ReviewService) *FlashcardService {
	return &FlashcardService{
		db:       db,
		stores:   stores,
		settings: settings,
		reviews:  reviews,
	}
}

// DueCards returns due cards first, then new cards. New cards are limited by
// what is left of the daily new item allowance, and the whole queue by what
// is left of the daily review cap.
func (s *FlashcardService) DueCards(ctx context.Context, userID uuid.UUID, kind entities.ItemKind, limit int) ([]*entities.ItemProgress, error) {
	if limit <= 0 || limit > MaxCardsPerRequest {
		limit = MaxCardsPerRequest
	}

	settings, err := s.settings.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get settings: %w", err)
	}

	now := s.reviews.now()
	today := settings.Today(now)
	repo := s.stores.ReviewStates(s.db)

	reviewed, err := repo.CountReviewedOn(ctx, userID, today)
	if err != nil {
		return nil, err
	}
	budget := min(limit, max(settings.MaxReviewsPerDay-reviewed, 0))
	if budget == 0 {
		return []*entities.ItemProgress{}, nil
	}

	introduced, err := repo.CountIntroducedSince(ctx, userID, dayStart(today, settings.Location()))
	if err != nil {
		return nil, err
	}
	newRoom := max(settings.NewPerDay-introduced, 0)

	due, err := repo.ListDue(ctx, userID, kind, today, budget)
	if err != nil {
		return nil, fmt.Errorf("list due items: %w", err)
	}

	newLimit := min(newRoom, budget-len(due))
	cards, err := selectItems(ctx, repo, userID, kind, today, 0, newLimit)
	if err != nil {
		return nil, err
	}

	return append(due, cards...), nil
}

// Review records the outcome of one card.
func (s *FlashcardService) Review(ctx context.Context, ev entities.ReviewEvent) (*entities.ReviewResult, error) {
	ev.Source = entities.SourceFlashcard
	return s.reviews.Record(ctx, ev)
}
