package service

import (
	"context"
	"testing"
	"time"

	"github.com/aliskhannn/jlpt-n1-study/internal/domain/entities"
	"github.com/aliskhannn/jlpt-n1-study/internal/domain/srs"
)

func newFlashcards(f *fixture) *FlashcardService {
	return NewFlashcardService(nil, f.stores, f.settings, f.reviews)
}

func cardIDs(cards []*entities.ItemProgress) []int64 {
	ids := make([]int64, 0, len(cards))
	for _, c := range cards {
		ids = append(ids, c.Item.ID)
	}
	return ids
}

func TestFlashcardService_DueCardsOrder(t *testing.T) {
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	f := newFixture(t, now, vocabulary()...)

	for _, st := range []*entities.ReviewState{
		{UserID: f.user, ItemID: 4, IntervalDays: 6, EasinessFactor: 2.5, NextReviewAt: day(2026, 3, 9), CreatedAt: now.AddDate(0, 0, -7)},
		{UserID: f.user, ItemID: 2, IntervalDays: 6, EasinessFactor: 2.5, NextReviewAt: day(2026, 3, 5), CreatedAt: now.AddDate(0, 0, -9)},
		{UserID: f.user, ItemID: 5, IntervalDays: 6, EasinessFactor: 2.5, NextReviewAt: day(2026, 3, 20), CreatedAt: now.AddDate(0, 0, -5)},
	} {
		f.stores.states.put(st)
	}

	cards, err := newFlashcards(f).DueCards(context.Background(), f.user, "", 0)
	if err != nil {
		t.Fatalf("DueCards: %v", err)
	}

	want := []int64{2, 4, 1, 3}
	got := cardIDs(cards)
	if len(got) != len(want) {
		t.Fatalf("cards = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("cards = %v, want %v", got, want)
		}
	}
	if cards[2].State != nil {
		t.Errorf("new card carries a state")
	}
}

func TestFlashcardService_DailyNewLimit(t *testing.T) {
	now := time.Date(2026, 3, 1, 23, 30, 0, 0, time.UTC)
	f := newFixture(t, now, vocabulary()...)
	f.withSettings(func(s *entities.UserSettings) {
		s.Timezone = "Asia/Tokyo"
		s.NewPerDay = 2
	})
	svc := newFlashcards(f)
	ctx := context.Background()

	cards, err := svc.DueCards(ctx, f.user, entities.KindVocabulary, 10)
	if err != nil {
		t.Fatalf("DueCards: %v", err)
	}
	if len(cards) != 2 {
		t.Fatalf("cards = %v, want 2 new cards", cardIDs(cards))
	}

	if _, err := svc.Review(ctx, entities.ReviewEvent{UserID: f.user, ItemID: cards[0].Item.ID, Known: ptr(false)}); err != nil {
		t.Fatalf("Review: %v", err)
	}

	cards, err = svc.DueCards(ctx, f.user, entities.KindVocabulary, 10)
	if err != nil {
		t.Fatalf("DueCards: %v", err)
	}
	if len(cards) != 1 || cards[0].State != nil {
		t.Fatalf("cards = %v, want one new card", cardIDs(cards))
	}
}

func TestFlashcardService_DailyReviewCap(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	f := newFixture(t, now, vocabulary()...)
	f.withSettings(func(s *entities.UserSettings) { s.MaxReviewsPerDay = 2 })
	svc := newFlashcards(f)
	ctx := context.Background()

	for _, id := range []int64{1, 2} {
		if _, err := svc.Review(ctx, entities.ReviewEvent{UserID: f.user, ItemID: id, Quality: ptr(srs.PassQuality)}); err != nil {
			t.Fatalf("Review %d: %v", id, err)
		}
	}

	cards, err := svc.DueCards(ctx, f.user, "", 10)
	if err != nil {
		t.Fatalf("DueCards: %v", err)
	}
	if len(cards) != 0 {
		t.Errorf("cards = %v, want none after the daily cap", cardIDs(cards))
	}
}

func TestFlashcardService_KindFilter(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	items := append(vocabulary(),
		catalogItem(20, entities.KindGrammar, "～をもって", "", "by means of"),
		catalogItem(21, entities.KindKanji, "顰", "ひん", "frown"),
	)
	f := newFixture(t, now, items...)

	cards, err := newFlashcards(f).DueCards(context.Background(), f.user, entities.KindGrammar, 10)
	if err != nil {
		t.Fatalf("DueCards: %v", err)
	}
	if len(cards) != 1 || cards[0].Item.ID != 20 {
		t.Errorf("cards = %v, want [20]", cardIDs(cards))
	}
}
