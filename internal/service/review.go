package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/aliskhannn/jlpt-n1-study/internal/domain/entities"
	"github.com/aliskhannn/jlpt-n1-study/internal/domain/srs"
	"github.com/aliskhannn/jlpt-n1-study/internal/infra/postgres"
	"github.com/aliskhannn/jlpt-n1-study/internal/infra/postgres/repository"
)

// ReviewService is the only code path that changes review states. Quiz and
// flashcard flows both go through it.
type ReviewService struct {
	tr       Transactor
	stores   Stores
	settings SettingsProvider
	policy   srs.MasteryPolicy
	logger   *zap.Logger
	now      func() time.Time
}

func NewReviewService(
	tr Transactor,
	stores Stores,
	settings SettingsProvider,
	policy srs.MasteryPolicy,
	logger *zap.Logger,
) *ReviewService {
	return &ReviewService{
		tr:       tr,
		stores:   stores,
		settings: settings,
		policy:   policy,
		logger:   logger,
		now:      time.Now,
	}
}

// Policy returns the mastery policy applied on every review.
func (s *ReviewService) Policy() srs.MasteryPolicy {
	return s.policy
}

// Record applies one review event in its own transaction.
func (s *ReviewService) Record(ctx context.Context, ev entities.ReviewEvent) (*entities.ReviewResult, error) {
	if _, err := ev.ResolveQuality(); err != nil {
		return nil, err
	}

	settings, err := s.settings.GetOrCreate(ctx, ev.UserID)
	if err != nil {
		return nil, fmt.Errorf("get settings: %w", err)
	}

	now := s.now()
	today := settings.Today(now)

	var res entities.ReviewResult
	err = s.tr.WithinTx(ctx, func(ctx context.Context, tx pgx.Tx) error {
		item, err := s.stores.Items(tx).GetByID(ctx, ev.ItemID)
		if err != nil {
			if errors.Is(err, repository.ErrItemNotFound) {
				return ErrItemNotFound
			}
			return err
		}
		if !item.VisibleTo(ev.UserID) {
			return ErrItemNotFound
		}

		res, err = s.RecordTx(ctx, tx, ev, today, now)
		return err
	})
	if err != nil {
		return nil, err
	}

	return &res, nil
}

// RecordTx applies a review event on db, which must be a transaction. The
// state row is locked until the transaction ends.
func (s *ReviewService) RecordTx(
	ctx context.Context,
	db postgres.DBTX,
	ev entities.ReviewEvent,
	today, now time.Time,
) (entities.ReviewResult, error) {
	quality, err := ev.ResolveQuality()
	if err != nil {
		return entities.ReviewResult{}, err
	}

	repo := s.stores.ReviewStates(db)

	state, err := repo.GetForUpdate(ctx, ev.UserID, ev.ItemID)
	if err != nil {
		if !errors.Is(err, repository.ErrReviewStateNotFound) {
			return entities.ReviewResult{}, err
		}
		state = entities.NewReviewState(ev.UserID, ev.ItemID)
	}

	state.Apply(quality, today, now, s.policy, ev.FlagMastered)

	if err := repo.Upsert(ctx, state); err != nil {
		return entities.ReviewResult{}, err
	}

	source := ev.Source
	if source == "" {
		source = entities.SourceFlashcard
	}
	if err := repo.AppendLog(ctx, entities.NewReviewLog(state, quality, source, today, now)); err != nil {
		return entities.ReviewResult{}, err
	}

	s.logger.Debug("review recorded",
		zap.String("user_id", ev.UserID.String()),
		zap.Int64("item_id", ev.ItemID),
		zap.Int("quality", quality),
		zap.Int("interval_days", state.IntervalDays),
		zap.String("mastery_level", string(state.MasteryLevel)),
	)

	return entities.ResultOf(state, quality), nil
}
