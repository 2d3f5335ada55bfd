package handlers

import (
	"context"
	"io"

	"github.com/google/uuid"

	"github.com/aliskhannn/jlpt-n1-study/internal/domain/entities"
	"github.com/aliskhannn/jlpt-n1-study/internal/service"
)

type UserService interface {
	Get(ctx context.Context, userID uuid.UUID) (*entities.User, error)
}

type ResetService interface {
	ResetUser(ctx context.Context, userID uuid.UUID) error
}

type ItemService interface {
	List(ctx context.Context, userID uuid.UUID, f entities.ItemFilter) (*service.ItemPage, error)
	Get(ctx context.Context, userID uuid.UUID, id int64) (*entities.StudyItem, error)
	Create(ctx context.Context, userID uuid.UUID, item *entities.StudyItem) error
	Update(ctx context.Context, userID uuid.UUID, item *entities.StudyItem) error
	Delete(ctx context.Context, userID uuid.UUID, id int64) error
}

type GenerationService interface {
	Generate(ctx context.Context, userID uuid.UUID, itemID int64, req service.GenerateRequest) (*entities.GeneratedContent, error)
	List(ctx context.Context, userID uuid.UUID, itemID int64) ([]*entities.GeneratedContent, error)
}

type FlashcardService interface {
	DueCards(ctx context.Context, userID uuid.UUID, kind entities.ItemKind, limit int) ([]*entities.ItemProgress, error)
	Review(ctx context.Context, ev entities.ReviewEvent) (*entities.ReviewResult, error)
}

type QuizService interface {
	Start(ctx context.Context, userID uuid.UUID, req service.StartQuizRequest) (*service.QuizView, error)
	Current(ctx context.Context, userID uuid.UUID, sessionID int64) (*service.QuizView, error)
	Answer(ctx context.Context, userID uuid.UUID, sessionID int64, req service.AnswerRequest) (*service.AnswerResult, error)
	History(ctx context.Context, userID uuid.UUID, limit int) ([]*entities.QuizSession, error)
}

type ProgressService interface {
	Summary(ctx context.Context, userID uuid.UUID) (*entities.ProgressSummary, error)
	ByKind(ctx context.Context, userID uuid.UUID) ([]entities.KindProgress, error)
	Activity(ctx context.Context, userID uuid.UUID, days int) ([]entities.DailyActivity, error)
	Forecast(ctx context.Context, userID uuid.UUID, days int) ([]entities.ForecastDay, error)
	Export(ctx context.Context, userID uuid.UUID, w io.Writer) error
}

type SettingsService interface {
	GetOrCreate(ctx context.Context, userID uuid.UUID) (*entities.UserSettings, error)
	Update(ctx context.Context, userID uuid.UUID, patch entities.SettingsPatch) (*entities.UserSettings, error)
}

type ReminderService interface {
	GetOrCreate(ctx context.Context, userID uuid.UUID) (*entities.UserReminders, error)
	Update(ctx context.Context, userID uuid.UUID, patch service.RemindersPatch) (*entities.UserReminders, error)
}

type TelegramLinkService interface {
	CreateLink(ctx context.Context, userID uuid.UUID) (*service.LinkInvite, error)
}
