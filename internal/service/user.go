package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/aliskhannn/jlpt-n1-study/internal/domain/entities"
)

type UserService struct {
	repository UserRepository
	settings   SettingsProvider
}

func NewUserService(repository UserRepository, settings SettingsProvider) *UserService {
	return &UserService{repository: repository, settings: settings}
}

// EnsureUser records the token subject as a user and creates default
// settings for first-time users.
func (s *UserService) EnsureUser(ctx context.Context, userID uuid.UUID, email, displayName string) error {
	created, err := s.repository.Save(ctx, entities.NewUser(userID, email, displayName))
	if err != nil {
		return err
	}
	if !created {
		return nil
	}

	_, err = s.settings.GetOrCreate(ctx, userID)
	return err
}

func (s *UserService) Get(ctx context.Context, userID uuid.UUID) (*entities.User, error) {
	return s.repository.GetByID(ctx, userID)
}
