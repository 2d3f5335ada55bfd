package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/aliskhannn/jlpt-n1-study/internal/domain/entities"
	"github.com/aliskhannn/jlpt-n1-study/internal/infra/postgres/repository"
)

// ItemPage is one page of a filtered item listing.
type ItemPage struct {
	Items  []*entities.StudyItem `json:"items"`
	Total  int                   `json:"total"`
	Limit  int                   `json:"limit"`
	Offset int                   `json:"offset"`
}

type ItemService struct {
	repository ItemRepository
}

func NewItemService(repository ItemRepository) *ItemService {
	return &ItemService{repository: repository}
}

func (s *ItemService) List(ctx context.Context, userID uuid.UUID, f entities.ItemFilter) (*ItemPage, error) {
	f.Normalize()
	if f.Kind != "" && !f.Kind.Valid() {
		return nil, fmt.Errorf("%w: unknown kind %q", entities.ErrInvalidItem, f.Kind)
	}

	items, total, err := s.repository.List(ctx, userID, f)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []*entities.StudyItem{}
	}

	return &ItemPage{Items: items, Total: total, Limit: f.Limit, Offset: f.Offset}, nil
}

// Get returns a catalog item or one of the user's own items.
func (s *ItemService) Get(ctx context.Context, userID uuid.UUID, id int64) (*entities.StudyItem, error) {
	item, err := s.repository.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrItemNotFound) {
			return nil, ErrItemNotFound
		}
		return nil, err
	}
	if !item.VisibleTo(userID) {
		return nil, ErrItemNotFound
	}
	return item, nil
}

// Create adds a personal item owned by the user.
func (s *ItemService) Create(ctx context.Context, userID uuid.UUID, item *entities.StudyItem) error {
	item.Normalize()
	if err := item.Validate(); err != nil {
		return err
	}

	owner := userID
	item.OwnerID = &owner

	return s.repository.Create(ctx, item)
}

// Update overwrites one of the user's own items.
func (s *ItemService) Update(ctx context.Context, userID uuid.UUID, item *entities.StudyItem) error {
	if err := s.checkOwner(ctx, userID, item.ID); err != nil {
		return err
	}

	item.Normalize()
	if err := item.Validate(); err != nil {
		return err
	}

	owner := userID
	item.OwnerID = &owner

	return s.repository.Update(ctx, item)
}

// Delete removes one of the user's own items.
func (s *ItemService) Delete(ctx context.Context, userID uuid.UUID, id int64) error {
	if err := s.checkOwner(ctx, userID, id); err != nil {
		return err
	}
	return s.repository.Delete(ctx, id, userID)
}

func (s *ItemService) checkOwner(ctx context.Context, userID uuid.UUID, id int64) error {
	existing, err := s.Get(ctx, userID, id)
	if err != nil {
		return err
	}
	if !existing.OwnedBy(userID) {
		return ErrNotOwner
	}
	return nil
}
