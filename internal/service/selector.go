package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/aliskhannn/jlpt-n1-study/internal/domain/entities"
)

// selectItems returns up to dueLimit due items followed by up to newLimit
// never reviewed items. New items carry a nil State.
func selectItems(
	ctx context.Context,
	repo ReviewStateRepository,
	userID uuid.UUID,
	kind entities.ItemKind,
	today time.Time,
	dueLimit, newLimit int,
) ([]*entities.ItemProgress, error) {
	var out []*entities.ItemProgress

	if dueLimit > 0 {
		due, err := repo.ListDue(ctx, userID, kind, today, dueLimit)
		if err != nil {
			return nil, fmt.Errorf("list due items: %w", err)
		}
		out = append(out, due...)
	}

	if newLimit > 0 {
		fresh, err := repo.ListNew(ctx, userID, kind, newLimit)
		if err != nil {
			return nil, fmt.Errorf("list new items: %w", err)
		}
		for _, item := range fresh {
			out = append(out, &entities.ItemProgress{Item: *item})
		}
	}

	return uniqueKeepOrder(out), nil
}

func uniqueKeepOrder(in []*entities.ItemProgress) []*entities.ItemProgress {
	seen := make(map[int64]struct{}, len(in))
	out := in[:0]
	for _, p := range in {
		if _, ok := seen[p.Item.ID]; ok {
			continue
		}
		seen[p.Item.ID] = struct{}{}
		out = append(out, p)
	}
	return out
}

// dayStart returns the instant the given calendar day begins in loc.
func dayStart(today time.Time, loc *time.Location) time.Time {
	return time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, loc)
}
