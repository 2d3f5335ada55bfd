package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/aliskhannn/jlpt-n1-study/internal/domain/entities"
	"github.com/aliskhannn/jlpt-n1-study/internal/infra/postgres"
)

var ErrReminderNotFound = errors.New("reminder not found")

// ReminderRepository provides access to user reminder data in the database.
type ReminderRepository struct {
	db postgres.DBTX
}

// NewReminderRepository creates a new ReminderRepository with the provided database handle.
func NewReminderRepository(db postgres.DBTX) *ReminderRepository {
	return &ReminderRepository{db: db}
}

func timePtr(t pgtype.Timestamptz) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}

// GetByUserID retrieves reminder settings for a user.
func (r *ReminderRepository) GetByUserID(ctx context.Context, userID uuid.UUID) (*entities.UserReminders, error) {
	query := `
		SELECT user_id, is_enabled, interval_hours, start_time, end_time,
		       last_sent_at, next_send_at, created_at, updated_at
		FROM user_reminders
		WHERE user_id = $1
	`

	var reminder entities.UserReminders
	var lastSent, nextSend pgtype.Timestamptz

	err := r.db.QueryRow(ctx, query, userID).Scan(
		&reminder.UserID,
		&reminder.IsEnabled,
		&reminder.IntervalHours,
		&reminder.StartTime,
		&reminder.EndTime,
		&lastSent,
		&nextSend,
		&reminder.CreatedAt,
		&reminder.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrReminderNotFound
		}
		return nil, fmt.Errorf("get reminder: %w", err)
	}

	reminder.LastSentAt = timePtr(lastSent)
	reminder.NextSendAt = timePtr(nextSend)

	return &reminder, nil
}

// Upsert creates or updates reminder settings.
func (r *ReminderRepository) Upsert(ctx context.Context, reminder *entities.UserReminders) error {
	query := `
		INSERT INTO user_reminders (
			user_id, is_enabled, interval_hours, start_time, end_time,
			last_sent_at, next_send_at, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (user_id) DO UPDATE SET
			is_enabled = EXCLUDED.is_enabled,
			interval_hours = EXCLUDED.interval_hours,
			start_time = EXCLUDED.start_time,
			end_time = EXCLUDED.end_time,
			last_sent_at = EXCLUDED.last_sent_at,
			next_send_at = EXCLUDED.next_send_at,
			updated_at = EXCLUDED.updated_at
	`

	_, err := r.db.Exec(ctx, query,
		reminder.UserID,
		reminder.IsEnabled,
		reminder.IntervalHours,
		reminder.StartTime,
		reminder.EndTime,
		reminder.LastSentAt,
		reminder.NextSendAt,
		reminder.CreatedAt,
		reminder.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert reminder: %w", err)
	}

	return nil
}

// GetDueRemindersBatch retrieves enabled reminders of linked users whose
// next slot has been reached (paginated).
func (r *ReminderRepository) GetDueRemindersBatch(ctx context.Context, now time.Time, limit, offset int) ([]*entities.ReminderWithUser, error) {
	query := `
		SELECT
			ur.user_id,
			us.telegram_chat_id,
			ur.is_enabled,
			ur.interval_hours,
			ur.start_time,
			ur.end_time,
			ur.last_sent_at,
			ur.next_send_at,
			us.timezone
		FROM user_reminders ur
		JOIN user_settings us ON us.user_id = ur.user_id
		WHERE ur.is_enabled = true
		  AND us.telegram_chat_id IS NOT NULL
		  AND (ur.next_send_at IS NULL OR ur.next_send_at <= $1)
		ORDER BY ur.next_send_at NULLS FIRST, ur.user_id
		LIMIT $2 OFFSET $3
	`

	rows, err := r.db.Query(ctx, query, now, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("get due reminders batch: %w", err)
	}
	defer rows.Close()

	var reminders []*entities.ReminderWithUser
	for rows.Next() {
		var rwu entities.ReminderWithUser
		var lastSent, nextSend pgtype.Timestamptz

		if err := rows.Scan(
			&rwu.UserID,
			&rwu.ChatID,
			&rwu.IsEnabled,
			&rwu.IntervalHours,
			&rwu.StartTime,
			&rwu.EndTime,
			&lastSent,
			&nextSend,
			&rwu.Timezone,
		); err != nil {
			return nil, fmt.Errorf("scan reminder: %w", err)
		}

		rwu.LastSentAt = timePtr(lastSent)
		rwu.NextSendAt = timePtr(nextSend)
		reminders = append(reminders, &rwu)
	}

	return reminders, rows.Err()
}

// UpdateAfterSend stores the send time and the next slot.
func (r *ReminderRepository) UpdateAfterSend(ctx context.Context, userID uuid.UUID, sentAt, nextSendAt time.Time) error {
	query := `
		UPDATE user_reminders
		SET last_sent_at = $1, next_send_at = $2, updated_at = NOW()
		WHERE user_id = $3
	`

	result, err := r.db.Exec(ctx, query, sentAt, nextSendAt, userID)
	if err != nil {
		return fmt.Errorf("update after send: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrReminderNotFound
	}

	return nil
}

// RescheduleNext moves the next slot without marking a send.
func (r *ReminderRepository) RescheduleNext(ctx context.Context, userID uuid.UUID, nextSendAt time.Time) error {
	query := `
		UPDATE user_reminders
		SET next_send_at = $1, updated_at = NOW()
		WHERE user_id = $2
	`

	tag, err := r.db.Exec(ctx, query, nextSendAt, userID)
	if err != nil {
		return fmt.Errorf("reschedule next: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrReminderNotFound
	}

	return nil
}
