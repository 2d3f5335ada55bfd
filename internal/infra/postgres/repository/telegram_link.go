package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/aliskhannn/jlpt-n1-study/internal/domain/entities"
	"github.com/aliskhannn/jlpt-n1-study/internal/infra/postgres"
)

var ErrLinkNotFound = errors.New("telegram link code not found or expired")

type TelegramLinkRepository struct {
	db postgres.DBTX
}

func NewTelegramLinkRepository(db postgres.DBTX) *TelegramLinkRepository {
	return &TelegramLinkRepository{db: db}
}

// Create replaces any pending code of the user with a new one.
func (r *TelegramLinkRepository) Create(ctx context.Context, link *entities.TelegramLink) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM telegram_links WHERE user_id = $1 OR expires_at <= NOW()`, link.UserID); err != nil {
		return fmt.Errorf("delete old links: %w", err)
	}

	_, err := r.db.Exec(ctx,
		`INSERT INTO telegram_links (code, user_id, expires_at) VALUES ($1, $2, $3)`,
		link.Code, link.UserID, link.ExpiresAt,
	)
	if err != nil {
		return fmt.Errorf("create link: %w", err)
	}
	return nil
}

// Consume deletes a valid code and returns the user it belongs to.
func (r *TelegramLinkRepository) Consume(ctx context.Context, code string, now time.Time) (uuid.UUID, error) {
	var userID uuid.UUID
	err := r.db.QueryRow(ctx,
		`DELETE FROM telegram_links WHERE code = $1 AND expires_at > $2 RETURNING user_id`,
		code, now,
	).Scan(&userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return uuid.Nil, ErrLinkNotFound
		}
		return uuid.Nil, fmt.Errorf("consume link: %w", err)
	}
	return userID, nil
}
