package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"github.com/aliskhannn/jlpt-n1-study/internal/domain/entities"
	"github.com/aliskhannn/jlpt-n1-study/internal/infra/postgres/repository"
)

func TestTelegramLinkService_CreateAndLink(t *testing.T) {
	now := time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC)
	f := newFixture(t, now)
	svc := NewTelegramLinkService(f.tx, f.stores, "n1_study_bot", zaptest.NewLogger(t))
	svc.now = func() time.Time { return now }
	ctx := context.Background()

	invite, err := svc.CreateLink(ctx, f.user)
	if err != nil {
		t.Fatalf("CreateLink: %v", err)
	}
	if invite.Code == "" || !strings.HasSuffix(invite.URL, "?start="+invite.Code) {
		t.Errorf("invite = %+v", invite)
	}
	if !strings.HasPrefix(invite.URL, "https://t.me/n1_study_bot") {
		t.Errorf("url = %q", invite.URL)
	}
	if !invite.ExpiresAt.Equal(now.Add(entities.TelegramLinkTTL)) {
		t.Errorf("expires at %v", invite.ExpiresAt)
	}

	userID, err := svc.Link(ctx, invite.Code, 4242)
	if err != nil {
		t.Fatalf("Link: %v", err)
	}
	if userID != f.user {
		t.Errorf("linked %v, want %v", userID, f.user)
	}
	s := f.stores.settings.settings[f.user]
	if s == nil || s.TelegramChatID == nil || *s.TelegramChatID != 4242 {
		t.Errorf("chat id not stored: %+v", s)
	}

	if _, err := svc.Link(ctx, invite.Code, 4242); !errors.Is(err, repository.ErrLinkNotFound) {
		t.Errorf("reused code err = %v, want %v", err, repository.ErrLinkNotFound)
	}
}

func TestTelegramLinkService_Expired(t *testing.T) {
	now := time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC)
	f := newFixture(t, now)
	svc := NewTelegramLinkService(f.tx, f.stores, "n1_study_bot", zaptest.NewLogger(t))
	svc.now = func() time.Time { return now }
	ctx := context.Background()

	invite, err := svc.CreateLink(ctx, f.user)
	if err != nil {
		t.Fatalf("CreateLink: %v", err)
	}

	svc.now = func() time.Time { return now.Add(entities.TelegramLinkTTL) }
	if _, err := svc.Link(ctx, invite.Code, 1); !errors.Is(err, repository.ErrLinkNotFound) {
		t.Errorf("err = %v, want %v", err, repository.ErrLinkNotFound)
	}
}

func TestTelegramLinkService_Disabled(t *testing.T) {
	f := newFixture(t, time.Now())
	svc := NewTelegramLinkService(f.tx, f.stores, "", zaptest.NewLogger(t))

	if _, err := svc.CreateLink(context.Background(), f.user); !errors.Is(err, ErrTelegramDisabled) {
		t.Errorf("err = %v, want %v", err, ErrTelegramDisabled)
	}
}
