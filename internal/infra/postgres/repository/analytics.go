package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/aliskhannn/jlpt-n1-study/internal/domain/entities"
	"github.com/aliskhannn/jlpt-n1-study/internal/domain/srs"
	"github.com/aliskhannn/jlpt-n1-study/internal/infra/postgres"
)

// LevelCountRow is the number of reviewed items of one kind at one level.
type LevelCountRow struct {
	Kind  entities.ItemKind
	Level srs.Level
	Count int
	Due   int // of Count, items due on the reference date
}

// ReviewTotals aggregates the review states of a user.
type ReviewTotals struct {
	Attempts        int
	Correct         int
	AverageEasiness float64
	LastActivityAt  *time.Time
}

// AnalyticsRepository runs the read-only queries behind progress reporting.
type AnalyticsRepository struct {
	db postgres.DBTX
}

func NewAnalyticsRepository(db postgres.DBTX) *AnalyticsRepository {
	return &AnalyticsRepository{db: db}
}

// ItemTotals counts the items visible to the user per kind.
func (r *AnalyticsRepository) ItemTotals(ctx context.Context, userID uuid.UUID) (map[entities.ItemKind]int, error) {
	query := `
		SELECT kind, COUNT(*)
		FROM study_items
		WHERE owner_id IS NULL OR owner_id = $1
		GROUP BY kind
	`

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("item totals: %w", err)
	}
	defer rows.Close()

	res := make(map[entities.ItemKind]int, len(entities.ItemKinds))
	for rows.Next() {
		var kind string
		var n int
		if err := rows.Scan(&kind, &n); err != nil {
			return nil, fmt.Errorf("scan item total: %w", err)
		}
		res[entities.ItemKind(kind)] = n
	}
	return res, rows.Err()
}

// LevelCounts groups the user's review states by item kind and mastery level.
func (r *AnalyticsRepository) LevelCounts(ctx context.Context, userID uuid.UUID, today time.Time) ([]LevelCountRow, error) {
	query := `
		SELECT i.kind, rs.mastery_level, COUNT(*),
		       COUNT(*) FILTER (WHERE rs.next_review_at <= $2)
		FROM review_states rs
		JOIN study_items i ON i.id = rs.item_id
		WHERE rs.user_id = $1
		GROUP BY i.kind, rs.mastery_level
	`

	rows, err := r.db.Query(ctx, query, userID, srs.Date(today))
	if err != nil {
		return nil, fmt.Errorf("level counts: %w", err)
	}
	defer rows.Close()

	var out []LevelCountRow
	for rows.Next() {
		var row LevelCountRow
		var kind, level string
		if err := rows.Scan(&kind, &level, &row.Count, &row.Due); err != nil {
			return nil, fmt.Errorf("scan level count: %w", err)
		}
		row.Kind, row.Level = entities.ItemKind(kind), srs.Level(level)
		out = append(out, row)
	}
	return out, rows.Err()
}

// Totals aggregates attempts, accuracy inputs and easiness over all states.
func (r *AnalyticsRepository) Totals(ctx context.Context, userID uuid.UUID) (*ReviewTotals, error) {
	query := `
		SELECT COALESCE(SUM(correct_count + incorrect_count), 0),
		       COALESCE(SUM(correct_count), 0),
		       COALESCE(AVG(easiness_factor), 2.5),
		       MAX(last_reviewed_at)
		FROM review_states
		WHERE user_id = $1
	`

	var t ReviewTotals
	if err := r.db.QueryRow(ctx, query, userID).Scan(&t.Attempts, &t.Correct, &t.AverageEasiness, &t.LastActivityAt); err != nil {
		return nil, fmt.Errorf("review totals: %w", err)
	}
	return &t, nil
}

// ReviewDays returns the distinct days with at least one review since the given date.
func (r *AnalyticsRepository) ReviewDays(ctx context.Context, userID uuid.UUID, since time.Time) ([]time.Time, error) {
	query := `
		SELECT DISTINCT reviewed_on
		FROM review_logs
		WHERE user_id = $1 AND reviewed_on >= $2
		ORDER BY reviewed_on DESC
	`

	rows, err := r.db.Query(ctx, query, userID, srs.Date(since))
	if err != nil {
		return nil, fmt.Errorf("review days: %w", err)
	}
	defer rows.Close()

	var days []time.Time
	for rows.Next() {
		var d time.Time
		if err := rows.Scan(&d); err != nil {
			return nil, fmt.Errorf("scan review day: %w", err)
		}
		days = append(days, d)
	}
	return days, rows.Err()
}

// Activity counts reviews per day in [from, to].
func (r *AnalyticsRepository) Activity(ctx context.Context, userID uuid.UUID, from, to time.Time) ([]entities.DailyActivity, error) {
	query := `
		SELECT reviewed_on, COUNT(*), COUNT(*) FILTER (WHERE quality >= 3)
		FROM review_logs
		WHERE user_id = $1 AND reviewed_on BETWEEN $2 AND $3
		GROUP BY reviewed_on
		ORDER BY reviewed_on
	`

	rows, err := r.db.Query(ctx, query, userID, srs.Date(from), srs.Date(to))
	if err != nil {
		return nil, fmt.Errorf("activity: %w", err)
	}
	defer rows.Close()

	var out []entities.DailyActivity
	for rows.Next() {
		var a entities.DailyActivity
		if err := rows.Scan(&a.Date, &a.Reviews, &a.Correct); err != nil {
			return nil, fmt.Errorf("scan activity: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// Forecast counts review states per due date up to and including until.
// Overdue items are returned with their original date.
func (r *AnalyticsRepository) Forecast(ctx context.Context, userID uuid.UUID, until time.Time) ([]entities.ForecastDay, error) {
	query := `
		SELECT next_review_at, COUNT(*)
		FROM review_states
		WHERE user_id = $1 AND next_review_at <= $2
		GROUP BY next_review_at
		ORDER BY next_review_at
	`

	rows, err := r.db.Query(ctx, query, userID, srs.Date(until))
	if err != nil {
		return nil, fmt.Errorf("forecast: %w", err)
	}
	defer rows.Close()

	var out []entities.ForecastDay
	for rows.Next() {
		var f entities.ForecastDay
		if err := rows.Scan(&f.Date, &f.Due); err != nil {
			return nil, fmt.Errorf("scan forecast: %w", err)
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

// ItemProgress lists every visible item with the user's review state, if any.
func (r *AnalyticsRepository) ItemProgress(ctx context.Context, userID uuid.UUID) ([]*entities.ItemProgress, error) {
	query := `
		SELECT ` + prefixed(itemColumns) + `,
		       rs.interval_days, rs.easiness_factor, rs.correct_count, rs.incorrect_count,
		       rs.mastery_level, rs.next_review_at, rs.last_reviewed_at
		FROM study_items i
		LEFT JOIN review_states rs ON rs.item_id = i.id AND rs.user_id = $1
		WHERE i.owner_id IS NULL OR i.owner_id = $1
		ORDER BY i.kind, i.id
	`

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("item progress: %w", err)
	}
	defer rows.Close()

	var out []*entities.ItemProgress
	for rows.Next() {
		var (
			interval, correct, incorrect *int
			ease                         *float64
			level                        *string
			next                         *time.Time
			last                         *time.Time
		)
		item, err := scanItem(rows, &interval, &ease, &correct, &incorrect, &level, &next, &last)
		if err != nil {
			return nil, fmt.Errorf("scan item progress: %w", err)
		}

		p := &entities.ItemProgress{Item: *item}
		if interval != nil {
			p.State = &entities.ReviewState{
				UserID:         userID,
				ItemID:         item.ID,
				IntervalDays:   *interval,
				EasinessFactor: *ease,
				CorrectCount:   *correct,
				IncorrectCount: *incorrect,
				MasteryLevel:   srs.Level(*level),
				NextReviewAt:   *next,
				LastReviewedAt: last,
			}
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
