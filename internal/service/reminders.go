package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/aliskhannn/jlpt-n1-study/internal/domain/entities"
	"github.com/aliskhannn/jlpt-n1-study/internal/infra/postgres/repository"
)

const (
	reminderBatchSize     = 100
	reminderMaxConcurrent = 10
	DefaultReminderSpec   = "0 * * * *"
)

// PayloadBuilder computes the numbers shown in a reminder.
type PayloadBuilder interface {
	ReminderPayload(ctx context.Context, userID uuid.UUID) (entities.ReminderPayload, error)
}

// RemindersPatch is a partial update of reminder settings.
type RemindersPatch struct {
	Enabled       *bool   `json:"enabled"`
	IntervalHours *int    `json:"interval_hours"`
	StartTime     *string `json:"start_time"`
	EndTime       *string `json:"end_time"`
}

// ReminderService handles reminder business logic with batch processing.
type ReminderService struct {
	reminderRepo ReminderRepository
	settings     SettingsProvider
	payloads     PayloadBuilder
	notifier     ReminderNotifier
	spec         string
	logger       *zap.Logger
	now          func() time.Time
}

// NewReminderService creates a new reminder service.
func NewReminderService(
	reminderRepo ReminderRepository,
	settings SettingsProvider,
	payloads PayloadBuilder,
	spec string,
	logger *zap.Logger,
) *ReminderService {
	if spec == "" {
		spec = DefaultReminderSpec
	}
	return &ReminderService{
		reminderRepo: reminderRepo,
		settings:     settings,
		payloads:     payloads,
		spec:         spec,
		logger:       logger,
		now:          time.Now,
	}
}

// SetNotifier sets the notifier (called after the bot is created).
func (s *ReminderService) SetNotifier(notifier ReminderNotifier) {
	s.notifier = notifier
}

// Start runs the reminder schedule until ctx is cancelled.
func (s *ReminderService) Start(ctx context.Context) error {
	c := cron.New(cron.WithLocation(time.UTC))

	_, err := c.AddFunc(s.spec, func() {
		s.logger.Info("cron triggered: processing reminders")
		if err := s.SendDueReminders(ctx); err != nil {
			s.logger.Error("failed to send reminders", zap.Error(err))
		}
	})
	if err != nil {
		return fmt.Errorf("add cron job: %w", err)
	}

	c.Start()
	s.logger.Info("reminder service started", zap.String("spec", s.spec))

	<-ctx.Done()

	<-c.Stop().Done()
	s.logger.Info("reminder service stopped")
	return nil
}

// SendDueReminders processes and sends all due reminders in batches.
func (s *ReminderService) SendDueReminders(ctx context.Context) error {
	if s.notifier == nil {
		return fmt.Errorf("notifier not initialized")
	}

	now := s.now().UTC()
	offset := 0
	totalSent := 0

	for {
		reminders, err := s.reminderRepo.GetDueRemindersBatch(ctx, now, reminderBatchSize, offset)
		if err != nil {
			return fmt.Errorf("get due reminders batch: %w", err)
		}
		if len(reminders) == 0 {
			break
		}

		sent, failed := s.processBatch(ctx, reminders, now)
		totalSent += sent

		if len(reminders) < reminderBatchSize {
			break
		}

		// Handled rows leave the due set; only failed ones still occupy the head.
		offset += failed
	}

	s.logger.Info("reminders processed", zap.Int("total_sent", totalSent))

	return nil
}

// processBatch processes a batch of reminders concurrently.
func (s *ReminderService) processBatch(ctx context.Context, reminders []*entities.ReminderWithUser, now time.Time) (sent, failed int) {
	var (
		g  errgroup.Group
		mu sync.Mutex
	)
	g.SetLimit(reminderMaxConcurrent)

	for _, rwu := range reminders {
		g.Go(func() error {
			ok, err := s.processReminder(ctx, rwu, now)

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err != nil:
				failed++
				s.logger.Error("failed to process reminder",
					zap.String("user_id", rwu.UserID.String()),
					zap.Error(err))
			case ok:
				sent++
			}
			return nil
		})
	}

	_ = g.Wait()
	return sent, failed
}

// processReminder sends one reminder if there is something to study and
// moves the next slot forward. It reports whether a message was sent.
func (s *ReminderService) processReminder(ctx context.Context, rwu *entities.ReminderWithUser, now time.Time) (bool, error) {
	next := rwu.Reminders().CalculateNextSendAt(rwu.Timezone, now)

	// A missing slot is aligned to the user's window before anything is sent.
	if rwu.NextSendAt == nil || !rwu.CanSendNow(now) {
		return false, s.reminderRepo.RescheduleNext(ctx, rwu.UserID, next)
	}

	payload, err := s.payloads.ReminderPayload(ctx, rwu.UserID)
	if err != nil {
		return false, fmt.Errorf("build reminder payload: %w", err)
	}

	if payload.DueToday == 0 && payload.NewAvailable == 0 {
		s.logger.Debug("nothing to study", zap.String("user_id", rwu.UserID.String()))
		if err := s.reminderRepo.RescheduleNext(ctx, rwu.UserID, next); err != nil {
			return false, fmt.Errorf("reschedule next send: %w", err)
		}
		return false, nil
	}

	if err := s.notifier.SendReminder(ctx, rwu.ChatID, payload); err != nil {
		return false, fmt.Errorf("send notification: %w", err)
	}

	if err := s.reminderRepo.UpdateAfterSend(ctx, rwu.UserID, now, next); err != nil {
		return false, fmt.Errorf("update after send: %w", err)
	}

	s.logger.Info("reminder sent",
		zap.String("user_id", rwu.UserID.String()),
		zap.Int("due_today", payload.DueToday),
		zap.Time("next_send_at", next),
	)

	return true, nil
}

// GetOrCreate retrieves reminder settings or creates default ones.
func (s *ReminderService) GetOrCreate(ctx context.Context, userID uuid.UUID) (*entities.UserReminders, error) {
	reminder, err := s.reminderRepo.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrReminderNotFound) {
			reminder = entities.NewUserReminders(userID)
			if err := s.reminderRepo.Upsert(ctx, reminder); err != nil {
				return nil, fmt.Errorf("create default reminder: %w", err)
			}
			return reminder, nil
		}
		return nil, fmt.Errorf("get reminder: %w", err)
	}

	return reminder, nil
}

// Update applies a partial update and recalculates the next slot.
func (s *ReminderService) Update(ctx context.Context, userID uuid.UUID, patch RemindersPatch) (*entities.UserReminders, error) {
	reminder, err := s.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, err
	}

	if patch.Enabled != nil {
		reminder.IsEnabled = *patch.Enabled
	}
	if patch.IntervalHours != nil {
		reminder.IntervalHours = *patch.IntervalHours
	}
	if patch.StartTime != nil {
		reminder.StartTime = *patch.StartTime
	}
	if patch.EndTime != nil {
		reminder.EndTime = *patch.EndTime
	}
	if err := reminder.Validate(); err != nil {
		return nil, err
	}

	settings, err := s.settings.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get settings: %w", err)
	}

	now := s.now().UTC()
	reminder.UpdatedAt = now
	reminder.NextSendAt = nil
	if reminder.IsEnabled {
		next := reminder.CalculateNextSendAt(settings.Timezone, now)
		reminder.NextSendAt = &next
	}

	if err := s.reminderRepo.Upsert(ctx, reminder); err != nil {
		return nil, fmt.Errorf("upsert reminder: %w", err)
	}

	s.logger.Info("reminder settings updated",
		zap.String("user_id", userID.String()),
		zap.Bool("enabled", reminder.IsEnabled),
		zap.Int("interval_hours", reminder.IntervalHours),
		zap.String("timezone", settings.Timezone),
	)

	return reminder, nil
}
