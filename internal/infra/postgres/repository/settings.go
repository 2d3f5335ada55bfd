package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/aliskhannn/jlpt-n1-study/internal/domain/entities"
	"github.com/aliskhannn/jlpt-n1-study/internal/infra/postgres"
)

var (
	ErrSettingsNotFound  = errors.New("settings not found")
	ErrChatAlreadyLinked = errors.New("telegram chat is linked to another account")
)

// SettingsRepository provides access to user settings data in the database.
type SettingsRepository struct {
	db postgres.DBTX
}

// NewSettingsRepository creates a new SettingsRepository with the provided database handle.
func NewSettingsRepository(db postgres.DBTX) *SettingsRepository {
	return &SettingsRepository{db: db}
}

// Create inserts the default settings for a user if none exist yet.
func (r *SettingsRepository) Create(ctx context.Context, s *entities.UserSettings) error {
	query := `
		INSERT INTO user_settings (
			user_id, new_per_day, max_reviews_per_day, quiz_length,
			quiz_mode, timezone, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (user_id) DO NOTHING
	`

	_, err := r.db.Exec(ctx, query,
		s.UserID, s.NewPerDay, s.MaxReviewsPerDay, s.QuizLength,
		string(s.QuizMode), s.Timezone, s.CreatedAt, s.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("create settings: %w", err)
	}

	return nil
}

// GetByUserID retrieves settings for a user.
func (r *SettingsRepository) GetByUserID(ctx context.Context, userID uuid.UUID) (*entities.UserSettings, error) {
	query := `
		SELECT user_id, new_per_day, max_reviews_per_day, quiz_length,
		       quiz_mode, timezone, telegram_chat_id, created_at, updated_at
		FROM user_settings
		WHERE user_id = $1
	`

	var s entities.UserSettings
	var mode string
	err := r.db.QueryRow(ctx, query, userID).Scan(
		&s.UserID,
		&s.NewPerDay,
		&s.MaxReviewsPerDay,
		&s.QuizLength,
		&mode,
		&s.Timezone,
		&s.TelegramChatID,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSettingsNotFound
		}
		return nil, fmt.Errorf("get settings: %w", err)
	}
	s.QuizMode = entities.QuizMode(mode)

	return &s, nil
}

// Update writes the editable settings fields.
func (r *SettingsRepository) Update(ctx context.Context, s *entities.UserSettings) error {
	query := `
		UPDATE user_settings
		SET new_per_day = $1,
		    max_reviews_per_day = $2,
		    quiz_length = $3,
		    quiz_mode = $4,
		    timezone = $5,
		    updated_at = $6
		WHERE user_id = $7
	`

	result, err := r.db.Exec(ctx, query,
		s.NewPerDay, s.MaxReviewsPerDay, s.QuizLength,
		string(s.QuizMode), s.Timezone, s.UpdatedAt, s.UserID,
	)
	if err != nil {
		return fmt.Errorf("update settings: %w", err)
	}

	if result.RowsAffected() == 0 {
		return ErrSettingsNotFound
	}

	return nil
}

// SetTelegramChatID links a Telegram chat to the user.
func (r *SettingsRepository) SetTelegramChatID(ctx context.Context, userID uuid.UUID, chatID int64) error {
	query := `
		UPDATE user_settings
		SET telegram_chat_id = $1, updated_at = NOW()
		WHERE user_id = $2
	`

	result, err := r.db.Exec(ctx, query, chatID, userID)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrChatAlreadyLinked
		}
		return fmt.Errorf("set telegram chat id: %w", err)
	}

	if result.RowsAffected() == 0 {
		return ErrSettingsNotFound
	}

	return nil
}
