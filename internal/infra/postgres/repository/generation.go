package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/aliskhannn/jlpt-n1-study/internal/domain/entities"
	"github.com/aliskhannn/jlpt-n1-study/internal/infra/postgres"
)

// generatedPayload is the jsonb column layout.
type generatedPayload struct {
	Examples  []entities.ExampleSentence  `json:"examples,omitempty"`
	Questions []entities.PracticeQuestion `json:"questions,omitempty"`
}

// GenerationRepository stores AI generated practice material.
type GenerationRepository struct {
	db postgres.DBTX
}

func NewGenerationRepository(db postgres.DBTX) *GenerationRepository {
	return &GenerationRepository{db: db}
}

func (r *GenerationRepository) Create(ctx context.Context, g *entities.GeneratedContent) error {
	payload, err := json.Marshal(generatedPayload{Examples: g.Examples, Questions: g.Questions})
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	query := `
		INSERT INTO generated_content (id, user_id, item_id, kind, model, payload, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err = r.db.Exec(ctx, query, g.ID, g.UserID, g.ItemID, string(g.Kind), g.Model, payload, g.CreatedAt)
	if err != nil {
		return fmt.Errorf("create generated content: %w", err)
	}
	return nil
}

// ListByItem returns the user's generated content for an item, newest first.
func (r *GenerationRepository) ListByItem(ctx context.Context, userID uuid.UUID, itemID int64, limit int) ([]*entities.GeneratedContent, error) {
	query := `
		SELECT id, user_id, item_id, kind, model, payload, created_at
		FROM generated_content
		WHERE user_id = $1 AND item_id = $2
		ORDER BY created_at DESC
		LIMIT $3
	`

	rows, err := r.db.Query(ctx, query, userID, itemID, limit)
	if err != nil {
		return nil, fmt.Errorf("list generated content: %w", err)
	}
	defer rows.Close()

	var out []*entities.GeneratedContent
	for rows.Next() {
		var g entities.GeneratedContent
		var kind string
		var raw []byte
		if err := rows.Scan(&g.ID, &g.UserID, &g.ItemID, &kind, &g.Model, &raw, &g.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan generated content: %w", err)
		}

		var p generatedPayload
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, fmt.Errorf("decode payload %s: %w", g.ID, err)
		}
		g.Kind = entities.GenerationKind(kind)
		g.Examples, g.Questions = p.Examples, p.Questions
		out = append(out, &g)
	}
	return out, rows.Err()
}
