package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/aliskhannn/jlpt-n1-study/internal/domain/entities"
	"github.com/aliskhannn/jlpt-n1-study/internal/infra/postgres/repository"
)

type ResetService struct {
	tr     Transactor
	stores Stores
}

func NewResetService(
	tr Transactor,
	stores Stores,
) *ResetService {
	return &ResetService{
		tr:     tr,
		stores: stores,
	}
}

// ResetUser wipes the user's learning data and restores default settings
// and reminders. A linked Telegram chat stays linked.
func (s *ResetService) ResetUser(ctx context.Context, userID uuid.UUID) error {
	return s.tr.WithinTx(ctx, func(ctx context.Context, tx pgx.Tx) error {
		resetRepo := s.stores.Resets(tx)
		settingsRepo := s.stores.Settings(tx)
		reminderRepo := s.stores.Reminders(tx)

		settings, err := settingsRepo.GetByUserID(ctx, userID)
		switch {
		case errors.Is(err, repository.ErrSettingsNotFound):
			if err := settingsRepo.Create(ctx, entities.NewUserSettings(userID)); err != nil {
				return err
			}
		case err != nil:
			return err
		default:
			defaults := entities.NewUserSettings(userID)
			defaults.TelegramChatID = settings.TelegramChatID
			defaults.CreatedAt = settings.CreatedAt
			if err := settingsRepo.Update(ctx, defaults); err != nil {
				return err
			}
		}

		defRem := entities.NewUserReminders(userID)
		if err := reminderRepo.Upsert(ctx, defRem); err != nil {
			return err
		}

		if err := resetRepo.ResetUser(ctx, userID); err != nil {
			return err
		}

		return nil
	})
}
