package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/aliskhannn/jlpt-n1-study/internal/infra/postgres"
)

// ResetRepository wipes a user's learning data. Personal items, settings and
// reminders are kept.
type ResetRepository struct {
	db postgres.DBTX
}

func NewResetRepository(db postgres.DBTX) *ResetRepository {
	return &ResetRepository{db: db}
}

func (r *ResetRepository) ResetUser(ctx context.Context, userID uuid.UUID) error {
	tables := []string{"quiz_sessions", "review_logs", "review_states", "generated_content"}
	for _, table := range tables {
		if _, err := r.db.Exec(ctx, `DELETE FROM `+table+` WHERE user_id = $1`, userID); err != nil {
			return fmt.Errorf("delete %s: %w", table, err)
		}
	}

	return nil
}
