package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/aliskhannn/jlpt-n1-study/internal/domain/entities"
	"github.com/aliskhannn/jlpt-n1-study/internal/domain/srs"
	"github.com/aliskhannn/jlpt-n1-study/internal/infra/postgres"
)

var ErrReviewStateNotFound = errors.New("review state not found")

const stateColumns = `rs.user_id, rs.item_id, rs.interval_days, rs.easiness_factor, rs.correct_count,
	rs.incorrect_count, rs.mastery_level, rs.next_review_at, rs.last_reviewed_at, rs.created_at`

// ReviewStateRepository stores per-user review state and the review log.
type ReviewStateRepository struct {
	db postgres.DBTX
}

func NewReviewStateRepository(db postgres.DBTX) *ReviewStateRepository {
	return &ReviewStateRepository{db: db}
}

func stateDest(s *entities.ReviewState, level *string) []any {
	return []any{
		&s.UserID,
		&s.ItemID,
		&s.IntervalDays,
		&s.EasinessFactor,
		&s.CorrectCount,
		&s.IncorrectCount,
		level,
		&s.NextReviewAt,
		&s.LastReviewedAt,
		&s.CreatedAt,
	}
}

// GetForUpdate reads the state row and locks it until the surrounding
// transaction ends. It must be called on a pgx.Tx.
func (r *ReviewStateRepository) GetForUpdate(ctx context.Context, userID uuid.UUID, itemID int64) (*entities.ReviewState, error) {
	query := `
		SELECT ` + stateColumns + `
		FROM review_states rs
		WHERE rs.user_id = $1 AND rs.item_id = $2
		FOR UPDATE
	`

	var s entities.ReviewState
	var level string
	if err := r.db.QueryRow(ctx, query, userID, itemID).Scan(stateDest(&s, &level)...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrReviewStateNotFound
		}
		return nil, fmt.Errorf("get review state: %w", err)
	}
	s.MasteryLevel = srs.Level(level)
	return &s, nil
}

// Upsert writes the state row.
func (r *ReviewStateRepository) Upsert(ctx context.Context, s *entities.ReviewState) error {
	query := `
		INSERT INTO review_states (
			user_id, item_id, interval_days, easiness_factor, correct_count,
			incorrect_count, mastery_level, next_review_at, last_reviewed_at, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NOW())
		ON CONFLICT (user_id, item_id) DO UPDATE SET
			interval_days = EXCLUDED.interval_days,
			easiness_factor = EXCLUDED.easiness_factor,
			correct_count = EXCLUDED.correct_count,
			incorrect_count = EXCLUDED.incorrect_count,
			mastery_level = EXCLUDED.mastery_level,
			next_review_at = EXCLUDED.next_review_at,
			last_reviewed_at = EXCLUDED.last_reviewed_at,
			updated_at = NOW()
	`

	_, err := r.db.Exec(ctx, query,
		s.UserID,
		s.ItemID,
		s.IntervalDays,
		s.EasinessFactor,
		s.CorrectCount,
		s.IncorrectCount,
		string(s.MasteryLevel),
		s.NextReviewAt,
		s.LastReviewedAt,
		s.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert review state: %w", err)
	}
	return nil
}

// AppendLog adds an entry to the review history.
func (r *ReviewStateRepository) AppendLog(ctx context.Context, l *entities.ReviewLog) error {
	query := `
		INSERT INTO review_logs (
			user_id, item_id, quality, source, interval_days, easiness_factor, reviewed_on, reviewed_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`

	err := r.db.QueryRow(ctx, query,
		l.UserID, l.ItemID, l.Quality, string(l.Source),
		l.IntervalDays, l.EasinessFactor, l.ReviewedOn, l.ReviewedAt,
	).Scan(&l.ID)
	if err != nil {
		return fmt.Errorf("append review log: %w", err)
	}
	return nil
}

func (r *ReviewStateRepository) queryCards(ctx context.Context, query string, args ...any) ([]*entities.ItemProgress, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cards []*entities.ItemProgress
	for rows.Next() {
		var s entities.ReviewState
		var level string
		item, err := scanItem(rows, stateDest(&s, &level)...)
		if err != nil {
			return nil, fmt.Errorf("scan card: %w", err)
		}
		s.MasteryLevel = srs.Level(level)
		cards = append(cards, &entities.ItemProgress{Item: *item, State: &s})
	}
	return cards, rows.Err()
}

func prefixed(cols string) string {
	return "i." + strings.ReplaceAll(cols, ", ", ", i.")
}

// ListDue returns items due on or before today, oldest due date first and
// then lowest easiness. An empty kind means any kind.
func (r *ReviewStateRepository) ListDue(ctx context.Context, userID uuid.UUID, kind entities.ItemKind, today time.Time, limit int) ([]*entities.ItemProgress, error) {
	query := `
		SELECT ` + prefixed(itemColumns) + `, ` + stateColumns + `
		FROM review_states rs
		JOIN study_items i ON i.id = rs.item_id
		WHERE rs.user_id = $1
		  AND rs.next_review_at <= $2
		  AND ($3 = '' OR i.kind = $3)
		ORDER BY rs.next_review_at, rs.easiness_factor, rs.item_id
		LIMIT $4
	`

	cards, err := r.queryCards(ctx, query, userID, srs.Date(today), string(kind), limit)
	if err != nil {
		return nil, fmt.Errorf("list due: %w", err)
	}
	return cards, nil
}

// ListNew returns visible items the user has never reviewed, catalog order.
func (r *ReviewStateRepository) ListNew(ctx context.Context, userID uuid.UUID, kind entities.ItemKind, limit int) ([]*entities.StudyItem, error) {
	query := `
		SELECT ` + prefixed(itemColumns) + `
		FROM study_items i
		LEFT JOIN review_states rs ON rs.item_id = i.id AND rs.user_id = $1
		WHERE rs.item_id IS NULL
		  AND (i.owner_id IS NULL OR i.owner_id = $1)
		  AND ($2 = '' OR i.kind = $2)
		ORDER BY i.owner_id NULLS FIRST, i.id
		LIMIT $3
	`

	rows, err := r.db.Query(ctx, query, userID, string(kind), limit)
	if err != nil {
		return nil, fmt.Errorf("list new: %w", err)
	}
	defer rows.Close()

	var items []*entities.StudyItem
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan new item: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// CountIntroducedSince counts items whose first review happened at or after since.
func (r *ReviewStateRepository) CountIntroducedSince(ctx context.Context, userID uuid.UUID, since time.Time) (int, error) {
	var n int
	err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM review_states WHERE user_id = $1 AND created_at >= $2`,
		userID, since,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count introduced: %w", err)
	}
	return n, nil
}

// CountReviewedOn counts review log entries on the given calendar day.
func (r *ReviewStateRepository) CountReviewedOn(ctx context.Context, userID uuid.UUID, day time.Time) (int, error) {
	var n int
	err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM review_logs WHERE user_id = $1 AND reviewed_on = $2`,
		userID, srs.Date(day),
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count reviewed: %w", err)
	}
	return n, nil
}
