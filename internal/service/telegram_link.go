package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/aliskhannn/jlpt-n1-study/internal/domain/entities"
	"github.com/aliskhannn/jlpt-n1-study/internal/infra/postgres/repository"
)

// LinkInvite is returned to the user to open the bot with a link code.
type LinkInvite struct {
	entities.TelegramLink
	URL string `json:"url,omitempty"`
}

// TelegramLinkService connects a Telegram chat to a user account through a
// one-time code passed as /start <code>.
type TelegramLinkService struct {
	tr          Transactor
	stores      Stores
	botUsername string // empty when the bot is not configured
	logger      *zap.Logger
	now         func() time.Time
}

func NewTelegramLinkService(tr Transactor, stores Stores, botUsername string, logger *zap.Logger) *TelegramLinkService {
	return &TelegramLinkService{
		tr:          tr,
		stores:      stores,
		botUsername: botUsername,
		logger:      logger,
		now:         time.Now,
	}
}

// CreateLink issues a new code and drops any pending one.
func (s *TelegramLinkService) CreateLink(ctx context.Context, userID uuid.UUID) (*LinkInvite, error) {
	if s.botUsername == "" {
		return nil, ErrTelegramDisabled
	}

	link := &entities.TelegramLink{
		Code:      rand.Text(),
		UserID:    userID,
		ExpiresAt: s.now().Add(entities.TelegramLinkTTL),
	}

	err := s.tr.WithinTx(ctx, func(ctx context.Context, tx pgx.Tx) error {
		return s.stores.Links(tx).Create(ctx, link)
	})
	if err != nil {
		return nil, err
	}

	return &LinkInvite{
		TelegramLink: *link,
		URL:          fmt.Sprintf("https://t.me/%s?start=%s", s.botUsername, link.Code),
	}, nil
}

// Link consumes a code and stores chatID as the user's reminder target.
func (s *TelegramLinkService) Link(ctx context.Context, code string, chatID int64) (uuid.UUID, error) {
	var userID uuid.UUID

	err := s.tr.WithinTx(ctx, func(ctx context.Context, tx pgx.Tx) error {
		id, err := s.stores.Links(tx).Consume(ctx, code, s.now())
		if err != nil {
			return err
		}

		settingsRepo := s.stores.Settings(tx)
		err = settingsRepo.SetTelegramChatID(ctx, id, chatID)
		if errors.Is(err, repository.ErrSettingsNotFound) {
			if err := settingsRepo.Create(ctx, entities.NewUserSettings(id)); err != nil {
				return err
			}
			err = settingsRepo.SetTelegramChatID(ctx, id, chatID)
		}
		if err != nil {
			return err
		}

		userID = id
		return nil
	})
	if err != nil {
		return uuid.Nil, err
	}

	s.logger.Info("telegram chat linked",
		zap.String("user_id", userID.String()),
		zap.Int64("chat_id", chatID),
	)

	return userID, nil
}
