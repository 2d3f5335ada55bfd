package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap/zaptest"

	"github.com/aliskhannn/jlpt-n1-study/internal/domain/entities"
)

type fakeNotifier struct {
	mu   sync.Mutex
	sent map[int64]entities.ReminderPayload
	fail map[int64]bool
}

func (n *fakeNotifier) SendReminder(_ context.Context, chatID int64, payload entities.ReminderPayload) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.fail[chatID] {
		return errors.New("chat not found")
	}
	if n.sent == nil {
		n.sent = map[int64]entities.ReminderPayload{}
	}
	n.sent[chatID] = payload
	return nil
}

type fakePayloads map[uuid.UUID]entities.ReminderPayload

func (p fakePayloads) ReminderPayload(_ context.Context, userID uuid.UUID) (entities.ReminderPayload, error) {
	return p[userID], nil
}

func dueReminder(chatID int64, next time.Time) *entities.ReminderWithUser {
	return &entities.ReminderWithUser{
		UserID:        uuid.New(),
		ChatID:        chatID,
		IsEnabled:     true,
		IntervalHours: 4,
		StartTime:     "09:00:00",
		EndTime:       "21:00:00",
		NextSendAt:    &next,
		Timezone:      "UTC",
	}
}

func TestReminderService_SendDueReminders(t *testing.T) {
	now := time.Date(2026, 3, 10, 13, 0, 0, 0, time.UTC)

	withWork := dueReminder(1, now.Add(-time.Minute))
	idle := dueReminder(2, now.Add(-time.Hour))
	broken := dueReminder(3, now)
	unscheduled := dueReminder(4, now)
	unscheduled.NextSendAt = nil

	repo := newFakeReminders()
	repo.due = []*entities.ReminderWithUser{withWork, idle, broken, unscheduled}

	payloads := fakePayloads{
		withWork.UserID: {DueToday: 12, NewAvailable: 3, StreakDays: 4},
		broken.UserID:   {DueToday: 1},
	}
	notifier := &fakeNotifier{fail: map[int64]bool{3: true}}

	svc := NewReminderService(repo, nil, payloads, "", zaptest.NewLogger(t))
	svc.now = func() time.Time { return now }

	if err := svc.SendDueReminders(context.Background()); err == nil {
		t.Fatal("expected an error without a notifier")
	}

	svc.SetNotifier(notifier)
	if err := svc.SendDueReminders(context.Background()); err != nil {
		t.Fatalf("SendDueReminders: %v", err)
	}

	if len(notifier.sent) != 1 || notifier.sent[1].DueToday != 12 {
		t.Errorf("sent = %+v, want one reminder to chat 1", notifier.sent)
	}

	wantNext := time.Date(2026, 3, 10, 17, 0, 0, 0, time.UTC)
	if next, ok := repo.sent[withWork.UserID]; !ok || !next.Equal(wantNext) {
		t.Errorf("next send = %v, want %v", next, wantNext)
	}
	for _, r := range []*entities.ReminderWithUser{idle, unscheduled} {
		if next, ok := repo.rescheduled[r.UserID]; !ok || !next.Equal(wantNext) {
			t.Errorf("chat %d rescheduled to %v, want %v", r.ChatID, next, wantNext)
		}
	}
	if _, ok := repo.sent[broken.UserID]; ok {
		t.Errorf("failed reminder marked as sent")
	}
}

func TestReminderService_Update(t *testing.T) {
	now := time.Date(2026, 3, 10, 13, 30, 0, 0, time.UTC)
	f := newFixture(t, now)
	f.withSettings(func(s *entities.UserSettings) { s.Timezone = "+09:00" })

	repo := newFakeReminders()
	svc := NewReminderService(repo, f.settings, nil, "", zaptest.NewLogger(t))
	svc.now = func() time.Time { return now }
	ctx := context.Background()

	rem, err := svc.GetOrCreate(ctx, f.user)
	if err != nil {
		t.Fatalf("GetOrCreate: %v", err)
	}
	if rem.IsEnabled || rem.NextSendAt != nil {
		t.Errorf("default reminders = %+v, want disabled", rem)
	}

	rem, err = svc.Update(ctx, f.user, RemindersPatch{Enabled: ptr(true), IntervalHours: ptr(2)})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	// 22:30 in +09:00 is past the window, so the next slot is 09:00 tomorrow.
	want := time.Date(2026, 3, 11, 0, 0, 0, 0, time.UTC)
	if rem.NextSendAt == nil || !rem.NextSendAt.Equal(want) {
		t.Errorf("next send = %v, want %v", rem.NextSendAt, want)
	}

	rem, err = svc.Update(ctx, f.user, RemindersPatch{Enabled: ptr(false)})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if rem.NextSendAt != nil {
		t.Errorf("disabled reminders keep a slot: %v", rem.NextSendAt)
	}

	_, err = svc.Update(ctx, f.user, RemindersPatch{IntervalHours: ptr(0)})
	if !errors.Is(err, entities.ErrInvalidReminders) {
		t.Errorf("err = %v, want %v", err, entities.ErrInvalidReminders)
	}
}
