package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/aliskhannn/jlpt-n1-study/internal/domain/entities"
	"github.com/aliskhannn/jlpt-n1-study/internal/infra/postgres"
	"github.com/aliskhannn/jlpt-n1-study/internal/infra/postgres/repository"
)

// Transactor runs fn inside a database transaction.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx pgx.Tx) error) error
}

type UserRepository interface {
	Save(ctx context.Context, user *entities.User) (bool, error)
	GetByID(ctx context.Context, userID uuid.UUID) (*entities.User, error)
}

type ItemRepository interface {
	List(ctx context.Context, userID uuid.UUID, f entities.ItemFilter) ([]*entities.StudyItem, int, error)
	GetByID(ctx context.Context, id int64) (*entities.StudyItem, error)
	GetByIDs(ctx context.Context, ids []int64) (map[int64]*entities.StudyItem, error)
	Create(ctx context.Context, item *entities.StudyItem) error
	Update(ctx context.Context, item *entities.StudyItem) error
	Delete(ctx context.Context, id int64, ownerID uuid.UUID) error
	Distractors(ctx context.Context, userID uuid.UUID, kind entities.ItemKind, excludeID int64, limit int) ([]*entities.StudyItem, error)
}

type ReviewStateRepository interface {
	GetForUpdate(ctx context.Context, userID uuid.UUID, itemID int64) (*entities.ReviewState, error)
	Upsert(ctx context.Context, s *entities.ReviewState) error
	AppendLog(ctx context.Context, l *entities.ReviewLog) error
	ListDue(ctx context.Context, userID uuid.UUID, kind entities.ItemKind, today time.Time, limit int) ([]*entities.ItemProgress, error)
	ListNew(ctx context.Context, userID uuid.UUID, kind entities.ItemKind, limit int) ([]*entities.StudyItem, error)
	CountIntroducedSince(ctx context.Context, userID uuid.UUID, since time.Time) (int, error)
	CountReviewedOn(ctx context.Context, userID uuid.UUID, day time.Time) (int, error)
}

type QuizRepository interface {
	Create(ctx context.Context, s *entities.QuizSession) error
	CreateQuestion(ctx context.Context, q *entities.QuizQuestion) error
	GetSession(ctx context.Context, sessionID int64, userID uuid.UUID) (*entities.QuizSession, error)
	GetSessionForUpdate(ctx context.Context, sessionID int64, userID uuid.UUID) (*entities.QuizSession, error)
	GetQuestionByOrder(ctx context.Context, sessionID int64, order int) (*entities.QuizQuestion, error)
	SaveAnswer(ctx context.Context, a *entities.QuizAnswer) error
	UpdateSession(ctx context.Context, s *entities.QuizSession) error
	AbandonActiveSessions(ctx context.Context, userID uuid.UUID) error
	ListFinished(ctx context.Context, userID uuid.UUID, limit int) ([]*entities.QuizSession, error)
}

type SettingsRepository interface {
	Create(ctx context.Context, s *entities.UserSettings) error
	GetByUserID(ctx context.Context, userID uuid.UUID) (*entities.UserSettings, error)
	Update(ctx context.Context, s *entities.UserSettings) error
	SetTelegramChatID(ctx context.Context, userID uuid.UUID, chatID int64) error
}

// ReminderRepository manages reminder persistence.
type ReminderRepository interface {
	GetByUserID(ctx context.Context, userID uuid.UUID) (*entities.UserReminders, error)
	Upsert(ctx context.Context, rem *entities.UserReminders) error
	GetDueRemindersBatch(ctx context.Context, now time.Time, limit, offset int) ([]*entities.ReminderWithUser, error)
	UpdateAfterSend(ctx context.Context, userID uuid.UUID, sentAt, nextSendAt time.Time) error
	RescheduleNext(ctx context.Context, userID uuid.UUID, nextSendAt time.Time) error
}

type ResetRepository interface {
	ResetUser(ctx context.Context, userID uuid.UUID) error
}

type TelegramLinkRepository interface {
	Create(ctx context.Context, link *entities.TelegramLink) error
	Consume(ctx context.Context, code string, now time.Time) (uuid.UUID, error)
}

type GenerationRepository interface {
	Create(ctx context.Context, g *entities.GeneratedContent) error
	ListByItem(ctx context.Context, userID uuid.UUID, itemID int64, limit int) ([]*entities.GeneratedContent, error)
}

type AnalyticsRepository interface {
	ItemTotals(ctx context.Context, userID uuid.UUID) (map[entities.ItemKind]int, error)
	LevelCounts(ctx context.Context, userID uuid.UUID, today time.Time) ([]repository.LevelCountRow, error)
	Totals(ctx context.Context, userID uuid.UUID) (*repository.ReviewTotals, error)
	ReviewDays(ctx context.Context, userID uuid.UUID, since time.Time) ([]time.Time, error)
	Activity(ctx context.Context, userID uuid.UUID, from, to time.Time) ([]entities.DailyActivity, error)
	Forecast(ctx context.Context, userID uuid.UUID, until time.Time) ([]entities.ForecastDay, error)
	ItemProgress(ctx context.Context, userID uuid.UUID) ([]*entities.ItemProgress, error)
}

// Stores builds repositories bound to a connection or a transaction.
type Stores interface {
	ReviewStates(db postgres.DBTX) ReviewStateRepository
	Quizzes(db postgres.DBTX) QuizRepository
	Items(db postgres.DBTX) ItemRepository
	Settings(db postgres.DBTX) SettingsRepository
	Reminders(db postgres.DBTX) ReminderRepository
	Resets(db postgres.DBTX) ResetRepository
	Links(db postgres.DBTX) TelegramLinkRepository
}

// SettingsProvider returns the settings of a user, creating defaults on first use.
type SettingsProvider interface {
	GetOrCreate(ctx context.Context, userID uuid.UUID) (*entities.UserSettings, error)
}

// Cache stores JSON values with a time to live.
type Cache interface {
	GetJSON(ctx context.Context, key string, out any) (bool, error)
	SetJSON(ctx context.Context, key string, v any, ttl time.Duration) error
}

// Counter is a shared counter that resets at a given instant.
type Counter interface {
	Incr(ctx context.Context, key string, resetAt time.Time) (int64, error)
	Decr(ctx context.Context, key string) error
}

// Generator produces JSON documents from a language model.
type Generator interface {
	GenerateJSON(ctx context.Context, system, user string, out any) error
	Model() string
}

// ReminderNotifier sends reminder notifications to users.
type ReminderNotifier interface {
	SendReminder(ctx context.Context, chatID int64, payload entities.ReminderPayload) error
}

// pgStores binds the Postgres repositories.
type pgStores struct{}

// NewPostgresStores returns the Stores backed by the Postgres repositories.
func NewPostgresStores() Stores { return pgStores{} }

func (pgStores) ReviewStates(db postgres.DBTX) ReviewStateRepository {
	return repository.NewReviewStateRepository(db)
}

func (pgStores) Quizzes(db postgres.DBTX) QuizRepository {
	return repository.NewQuizRepository(db)
}

func (pgStores) Items(db postgres.DBTX) ItemRepository {
	return repository.NewItemRepository(db)
}

func (pgStores) Settings(db postgres.DBTX) SettingsRepository {
	return repository.NewSettingsRepository(db)
}

func (pgStores) Reminders(db postgres.DBTX) ReminderRepository {
	return repository.NewReminderRepository(db)
}

func (pgStores) Resets(db postgres.DBTX) ResetRepository {
	return repository.NewResetRepository(db)
}

func (pgStores) Links(db postgres.DBTX) TelegramLinkRepository {
	return repository.NewTelegramLinkRepository(db)
}
