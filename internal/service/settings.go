package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/aliskhannn/jlpt-n1-study/internal/domain/entities"
	"github.com/aliskhannn/jlpt-n1-study/internal/infra/postgres/repository"
)

type SettingsService struct {
	repository SettingsRepository
}

func NewSettingsService(repository SettingsRepository) *SettingsService {
	return &SettingsService{repository: repository}
}

func (s *SettingsService) GetOrCreate(ctx context.Context, userID uuid.UUID) (*entities.UserSettings, error) {
	settings, err := s.repository.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrSettingsNotFound) {
			// Create default settings.
			if err := s.repository.Create(ctx, entities.NewUserSettings(userID)); err != nil {
				return nil, err
			}
			// Retrieve newly created settings.
			return s.repository.GetByUserID(ctx, userID)
		}
		return nil, err
	}

	return settings, nil
}

// Update validates and applies a partial update.
func (s *SettingsService) Update(ctx context.Context, userID uuid.UUID, patch entities.SettingsPatch) (*entities.UserSettings, error) {
	if err := patch.Validate(); err != nil {
		return nil, err
	}

	settings, err := s.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, err
	}

	patch.ApplyTo(settings, time.Now())
	if err := s.repository.Update(ctx, settings); err != nil {
		return nil, err
	}

	return settings, nil
}
