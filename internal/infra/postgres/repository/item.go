package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/aliskhannn/jlpt-n1-study/internal/domain/entities"
	"github.com/aliskhannn/jlpt-n1-study/internal/infra/postgres"
)

var (
	ErrItemNotFound  = errors.New("study item not found")
	ErrDuplicateItem = errors.New("study item with this expression already exists")
)

const itemColumns = `id, owner_id, kind, expression, reading, meaning, example, jlpt_level, tags, created_at, updated_at`

// ItemRepository stores catalog and personal study items.
type ItemRepository struct {
	db postgres.DBTX
}

func NewItemRepository(db postgres.DBTX) *ItemRepository {
	return &ItemRepository{db: db}
}

func scanItem(row pgx.Row, extra ...any) (*entities.StudyItem, error) {
	var item entities.StudyItem
	var kind string
	dest := []any{
		&item.ID,
		&item.OwnerID,
		&kind,
		&item.Expression,
		&item.Reading,
		&item.Meaning,
		&item.Example,
		&item.JLPTLevel,
		&item.Tags,
		&item.CreatedAt,
		&item.UpdatedAt,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}
	item.Kind = entities.ItemKind(kind)
	return &item, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation
}

// List returns items visible to the user that match the filter, together
// with the total number of matches ignoring paging.
func (r *ItemRepository) List(ctx context.Context, userID uuid.UUID, f entities.ItemFilter) ([]*entities.StudyItem, int, error) {
	where := []string{"(owner_id IS NULL OR owner_id = $1)"}
	args := []any{userID}

	if f.Kind != "" {
		args = append(args, f.Kind)
		where = append(where, fmt.Sprintf("kind = $%d", len(args)))
	}
	if f.Tag != "" {
		args = append(args, f.Tag)
		where = append(where, fmt.Sprintf("$%d = ANY(tags)", len(args)))
	}
	if f.Search != "" {
		args = append(args, "%"+escapeLike(f.Search)+"%")
		n := len(args)
		where = append(where, fmt.Sprintf("(expression ILIKE $%d OR reading ILIKE $%d OR meaning ILIKE $%d)", n, n, n))
	}
	args = append(args, f.Limit, f.Offset)

	query := fmt.Sprintf(`
		SELECT %s, COUNT(*) OVER() AS total
		FROM study_items
		WHERE %s
		ORDER BY kind, expression, id
		LIMIT $%d OFFSET $%d
	`, itemColumns, strings.Join(where, " AND "), len(args)-1, len(args))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list items: %w", err)
	}
	defer rows.Close()

	var (
		items []*entities.StudyItem
		total int
	)
	for rows.Next() {
		item, err := scanItem(rows, &total)
		if err != nil {
			return nil, 0, fmt.Errorf("scan item: %w", err)
		}
		items = append(items, item)
	}

	return items, total, rows.Err()
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

// GetByID retrieves an item regardless of its owner; visibility is checked by the caller.
func (r *ItemRepository) GetByID(ctx context.Context, id int64) (*entities.StudyItem, error) {
	query := `SELECT ` + itemColumns + ` FROM study_items WHERE id = $1`

	item, err := scanItem(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrItemNotFound
		}
		return nil, fmt.Errorf("get item: %w", err)
	}
	return item, nil
}

// GetByIDs returns the items with the given ids keyed by id.
func (r *ItemRepository) GetByIDs(ctx context.Context, ids []int64) (map[int64]*entities.StudyItem, error) {
	query := `SELECT ` + itemColumns + ` FROM study_items WHERE id = ANY($1::bigint[])`

	rows, err := r.db.Query(ctx, query, ids)
	if err != nil {
		return nil, fmt.Errorf("get items by ids: %w", err)
	}
	defer rows.Close()

	res := make(map[int64]*entities.StudyItem, len(ids))
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		res[item.ID] = item
	}
	return res, rows.Err()
}

// Create inserts a personal item and fills its id and timestamps.
func (r *ItemRepository) Create(ctx context.Context, item *entities.StudyItem) error {
	query := `
		INSERT INTO study_items (owner_id, kind, expression, reading, meaning, example, jlpt_level, tags)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at
	`

	err := r.db.QueryRow(ctx, query,
		item.OwnerID, item.Kind, item.Expression, item.Reading,
		item.Meaning, item.Example, item.JLPTLevel, item.Tags,
	).Scan(&item.ID, &item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateItem
		}
		return fmt.Errorf("create item: %w", err)
	}

	return nil
}

// Update overwrites the editable fields of an item owned by item.OwnerID.
func (r *ItemRepository) Update(ctx context.Context, item *entities.StudyItem) error {
	query := `
		UPDATE study_items
		SET kind = $1, expression = $2, reading = $3, meaning = $4,
		    example = $5, jlpt_level = $6, tags = $7, updated_at = NOW()
		WHERE id = $8 AND owner_id = $9
		RETURNING updated_at
	`

	err := r.db.QueryRow(ctx, query,
		item.Kind, item.Expression, item.Reading, item.Meaning,
		item.Example, item.JLPTLevel, item.Tags, item.ID, item.OwnerID,
	).Scan(&item.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrItemNotFound
		}
		if isUniqueViolation(err) {
			return ErrDuplicateItem
		}
		return fmt.Errorf("update item: %w", err)
	}

	return nil
}

// Delete removes a personal item. Review states go with it by cascade.
func (r *ItemRepository) Delete(ctx context.Context, id int64, ownerID uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM study_items WHERE id = $1 AND owner_id = $2`, id, ownerID)
	if err != nil {
		return fmt.Errorf("delete item: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrItemNotFound
	}
	return nil
}

// Distractors returns random visible items of the given kind other than excludeID.
func (r *ItemRepository) Distractors(ctx context.Context, userID uuid.UUID, kind entities.ItemKind, excludeID int64, limit int) ([]*entities.StudyItem, error) {
	query := `
		SELECT ` + itemColumns + `
		FROM study_items
		WHERE (owner_id IS NULL OR owner_id = $1)
		  AND kind = $2
		  AND id <> $3
		ORDER BY RANDOM()
		LIMIT $4
	`

	rows, err := r.db.Query(ctx, query, userID, kind, excludeID, limit)
	if err != nil {
		return nil, fmt.Errorf("get distractors: %w", err)
	}
	defer rows.Close()

	var items []*entities.StudyItem
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan distractor: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}
