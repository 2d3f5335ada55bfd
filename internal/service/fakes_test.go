package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/aliskhannn/jlpt-n1-study/internal/domain/entities"
	"github.com/aliskhannn/jlpt-n1-study/internal/domain/srs"
	"github.com/aliskhannn/jlpt-n1-study/internal/infra/postgres"
	"github.com/aliskhannn/jlpt-n1-study/internal/infra/postgres/repository"
)

func ptr[T any](v T) *T { return &v }

type fakeTx struct {
	calls int
}

func (f *fakeTx) WithinTx(ctx context.Context, fn func(ctx context.Context, tx pgx.Tx) error) error {
	f.calls++
	return fn(ctx, nil)
}

// fakeItems is an in-memory ItemRepository.
type fakeItems struct {
	mu     sync.Mutex
	items  map[int64]*entities.StudyItem
	nextID int64
}

func newFakeItems(items ...*entities.StudyItem) *fakeItems {
	f := &fakeItems{items: map[int64]*entities.StudyItem{}}
	for _, it := range items {
		if it.ID > f.nextID {
			f.nextID = it.ID
		}
		f.items[it.ID] = it
	}
	return f
}

func (f *fakeItems) sorted() []*entities.StudyItem {
	out := make([]*entities.StudyItem, 0, len(f.items))
	for _, it := range f.items {
		out = append(out, it)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (f *fakeItems) List(_ context.Context, userID uuid.UUID, flt entities.ItemFilter) ([]*entities.StudyItem, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*entities.StudyItem
	for _, it := range f.sorted() {
		if it.VisibleTo(userID) && (flt.Kind == "" || it.Kind == flt.Kind) {
			out = append(out, it)
		}
	}
	return out, len(out), nil
}

func (f *fakeItems) GetByID(_ context.Context, id int64) (*entities.StudyItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	it, ok := f.items[id]
	if !ok {
		return nil, repository.ErrItemNotFound
	}
	cp := *it
	return &cp, nil
}

func (f *fakeItems) GetByIDs(ctx context.Context, ids []int64) (map[int64]*entities.StudyItem, error) {
	out := map[int64]*entities.StudyItem{}
	for _, id := range ids {
		if it, err := f.GetByID(ctx, id); err == nil {
			out[id] = it
		}
	}
	return out, nil
}

func (f *fakeItems) Create(_ context.Context, item *entities.StudyItem) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, it := range f.items {
		if it.Kind == item.Kind && it.Expression == item.Expression && sameOwner(it.OwnerID, item.OwnerID) {
			return repository.ErrDuplicateItem
		}
	}
	f.nextID++
	item.ID = f.nextID
	cp := *item
	f.items[item.ID] = &cp
	return nil
}

func sameOwner(a, b *uuid.UUID) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func (f *fakeItems) Update(_ context.Context, item *entities.StudyItem) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	it, ok := f.items[item.ID]
	if !ok || !sameOwner(it.OwnerID, item.OwnerID) {
		return repository.ErrItemNotFound
	}
	cp := *item
	f.items[item.ID] = &cp
	return nil
}

func (f *fakeItems) Delete(_ context.Context, id int64, ownerID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	it, ok := f.items[id]
	if !ok || !it.OwnedBy(ownerID) {
		return repository.ErrItemNotFound
	}
	delete(f.items, id)
	return nil
}

func (f *fakeItems) Distractors(_ context.Context, userID uuid.UUID, kind entities.ItemKind, excludeID int64, limit int) ([]*entities.StudyItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*entities.StudyItem
	for _, it := range f.sorted() {
		if it.ID != excludeID && it.Kind == kind && it.VisibleTo(userID) && len(out) < limit {
			out = append(out, it)
		}
	}
	return out, nil
}

type stateKey struct {
	user uuid.UUID
	item int64
}

// fakeStates is an in-memory ReviewStateRepository backed by fakeItems.
type fakeStates struct {
	mu     sync.Mutex
	items  *fakeItems
	states map[stateKey]*entities.ReviewState
	logs   []*entities.ReviewLog
	locked int
}

func newFakeStates(items *fakeItems) *fakeStates {
	return &fakeStates{items: items, states: map[stateKey]*entities.ReviewState{}}
}

func (f *fakeStates) put(s *entities.ReviewState) {
	f.states[stateKey{s.UserID, s.ItemID}] = s
}

func (f *fakeStates) GetForUpdate(_ context.Context, userID uuid.UUID, itemID int64) (*entities.ReviewState, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.locked++
	s, ok := f.states[stateKey{userID, itemID}]
	if !ok {
		return nil, repository.ErrReviewStateNotFound
	}
	cp := *s
	return &cp, nil
}

func (f *fakeStates) Upsert(_ context.Context, s *entities.ReviewState) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *s
	f.put(&cp)
	return nil
}

func (f *fakeStates) AppendLog(_ context.Context, l *entities.ReviewLog) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	l.ID = int64(len(f.logs) + 1)
	f.logs = append(f.logs, l)
	return nil
}

func (f *fakeStates) ListDue(_ context.Context, userID uuid.UUID, kind entities.ItemKind, today time.Time, limit int) ([]*entities.ItemProgress, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*entities.ItemProgress
	for _, s := range f.states {
		it := f.items.items[s.ItemID]
		if s.UserID != userID || it == nil || !s.IsDue(today) || (kind != "" && it.Kind != kind) {
			continue
		}
		cp := *s
		out = append(out, &entities.ItemProgress{Item: *it, State: &cp})
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i].State, out[j].State
		if !a.NextReviewAt.Equal(b.NextReviewAt) {
			return a.NextReviewAt.Before(b.NextReviewAt)
		}
		if a.EasinessFactor != b.EasinessFactor {
			return a.EasinessFactor < b.EasinessFactor
		}
		return a.ItemID < b.ItemID
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeStates) ListNew(_ context.Context, userID uuid.UUID, kind entities.ItemKind, limit int) ([]*entities.StudyItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*entities.StudyItem
	for _, it := range f.items.sorted() {
		if _, ok := f.states[stateKey{userID, it.ID}]; ok {
			continue
		}
		if !it.VisibleTo(userID) || (kind != "" && it.Kind != kind) {
			continue
		}
		if len(out) < limit {
			out = append(out, it)
		}
	}
	return out, nil
}

func (f *fakeStates) CountIntroducedSince(_ context.Context, userID uuid.UUID, since time.Time) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, s := range f.states {
		if s.UserID == userID && !s.CreatedAt.Before(since) {
			n++
		}
	}
	return n, nil
}

func (f *fakeStates) CountReviewedOn(_ context.Context, userID uuid.UUID, day time.Time) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, l := range f.logs {
		if l.UserID == userID && l.ReviewedOn.Equal(srs.Date(day)) {
			n++
		}
	}
	return n, nil
}

// fakeQuizzes is an in-memory QuizRepository.
type fakeQuizzes struct {
	mu        sync.Mutex
	sessions  map[int64]*entities.QuizSession
	questions map[int64][]*entities.QuizQuestion
	answers   []*entities.QuizAnswer
	nextID    int64
}

func newFakeQuizzes() *fakeQuizzes {
	return &fakeQuizzes{
		sessions:  map[int64]*entities.QuizSession{},
		questions: map[int64][]*entities.QuizQuestion{},
	}
}

func (f *fakeQuizzes) Create(_ context.Context, s *entities.QuizSession) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	s.ID = f.nextID
	cp := *s
	f.sessions[s.ID] = &cp
	return nil
}

func (f *fakeQuizzes) CreateQuestion(_ context.Context, q *entities.QuizQuestion) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	q.ID = f.nextID
	cp := *q
	f.questions[q.SessionID] = append(f.questions[q.SessionID], &cp)
	return nil
}

func (f *fakeQuizzes) GetSession(_ context.Context, id int64, userID uuid.UUID) (*entities.QuizSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.sessions[id]
	if !ok || s.UserID != userID {
		return nil, repository.ErrSessionNotFound
	}
	cp := *s
	return &cp, nil
}

func (f *fakeQuizzes) GetSessionForUpdate(ctx context.Context, id int64, userID uuid.UUID) (*entities.QuizSession, error) {
	return f.GetSession(ctx, id, userID)
}

func (f *fakeQuizzes) GetQuestionByOrder(_ context.Context, sessionID int64, order int) (*entities.QuizQuestion, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, q := range f.questions[sessionID] {
		if q.QuestionOrder == order {
			cp := *q
			return &cp, nil
		}
	}
	return nil, repository.ErrQuestionNotFound
}

func (f *fakeQuizzes) SaveAnswer(_ context.Context, a *entities.QuizAnswer) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.answers = append(f.answers, a)
	return nil
}

func (f *fakeQuizzes) UpdateSession(_ context.Context, s *entities.QuizSession) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cur, ok := f.sessions[s.ID]
	if !ok || cur.Version != s.Version {
		return repository.ErrOptimisticLock
	}
	s.Version++
	cp := *s
	f.sessions[s.ID] = &cp
	return nil
}

func (f *fakeQuizzes) AbandonActiveSessions(_ context.Context, userID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, s := range f.sessions {
		if s.UserID == userID && s.IsActive() {
			s.SessionStatus = entities.SessionAbandoned
			s.Version++
		}
	}
	return nil
}

func (f *fakeQuizzes) ListFinished(_ context.Context, userID uuid.UUID, limit int) ([]*entities.QuizSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*entities.QuizSession
	for _, s := range f.sessions {
		if s.UserID == userID && s.SessionStatus == entities.SessionCompleted && len(out) < limit {
			out = append(out, s)
		}
	}
	return out, nil
}

// fakeSettings is an in-memory SettingsRepository.
type fakeSettings struct {
	mu       sync.Mutex
	settings map[uuid.UUID]*entities.UserSettings
	chats    map[int64]uuid.UUID
}

func newFakeSettings(list ...*entities.UserSettings) *fakeSettings {
	f := &fakeSettings{settings: map[uuid.UUID]*entities.UserSettings{}, chats: map[int64]uuid.UUID{}}
	for _, s := range list {
		f.settings[s.UserID] = s
	}
	return f
}

func (f *fakeSettings) Create(_ context.Context, s *entities.UserSettings) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.settings[s.UserID]; !ok {
		cp := *s
		f.settings[s.UserID] = &cp
	}
	return nil
}

func (f *fakeSettings) GetByUserID(_ context.Context, userID uuid.UUID) (*entities.UserSettings, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.settings[userID]
	if !ok {
		return nil, repository.ErrSettingsNotFound
	}
	cp := *s
	return &cp, nil
}

func (f *fakeSettings) Update(_ context.Context, s *entities.UserSettings) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.settings[s.UserID]; !ok {
		return repository.ErrSettingsNotFound
	}
	cp := *s
	f.settings[s.UserID] = &cp
	return nil
}

func (f *fakeSettings) SetTelegramChatID(_ context.Context, userID uuid.UUID, chatID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.settings[userID]
	if !ok {
		return repository.ErrSettingsNotFound
	}
	if owner, taken := f.chats[chatID]; taken && owner != userID {
		return repository.ErrChatAlreadyLinked
	}
	f.chats[chatID] = userID
	s.TelegramChatID = &chatID
	return nil
}

// fakeReminders is an in-memory ReminderRepository.
type fakeReminders struct {
	mu          sync.Mutex
	reminders   map[uuid.UUID]*entities.UserReminders
	due         []*entities.ReminderWithUser
	sent        map[uuid.UUID]time.Time
	rescheduled map[uuid.UUID]time.Time
}

func newFakeReminders() *fakeReminders {
	return &fakeReminders{
		reminders:   map[uuid.UUID]*entities.UserReminders{},
		sent:        map[uuid.UUID]time.Time{},
		rescheduled: map[uuid.UUID]time.Time{},
	}
}

func (f *fakeReminders) GetByUserID(_ context.Context, userID uuid.UUID) (*entities.UserReminders, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.reminders[userID]
	if !ok {
		return nil, repository.ErrReminderNotFound
	}
	cp := *r
	return &cp, nil
}

func (f *fakeReminders) Upsert(_ context.Context, r *entities.UserReminders) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *r
	f.reminders[r.UserID] = &cp
	return nil
}

// GetDueRemindersBatch returns rows that were neither sent nor rescheduled.
func (f *fakeReminders) GetDueRemindersBatch(_ context.Context, _ time.Time, limit, offset int) ([]*entities.ReminderWithUser, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var pending []*entities.ReminderWithUser
	for _, r := range f.due {
		_, sent := f.sent[r.UserID]
		_, moved := f.rescheduled[r.UserID]
		if !sent && !moved {
			pending = append(pending, r)
		}
	}
	if offset >= len(pending) {
		return nil, nil
	}
	pending = pending[offset:]
	if len(pending) > limit {
		pending = pending[:limit]
	}
	return pending, nil
}

func (f *fakeReminders) UpdateAfterSend(_ context.Context, userID uuid.UUID, _, next time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent[userID] = next
	return nil
}

func (f *fakeReminders) RescheduleNext(_ context.Context, userID uuid.UUID, next time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rescheduled[userID] = next
	return nil
}

type fakeResets struct {
	reset []uuid.UUID
}

func (f *fakeResets) ResetUser(_ context.Context, userID uuid.UUID) error {
	f.reset = append(f.reset, userID)
	return nil
}

type fakeLinks struct {
	links map[string]*entities.TelegramLink
}

func (f *fakeLinks) Create(_ context.Context, l *entities.TelegramLink) error {
	if f.links == nil {
		f.links = map[string]*entities.TelegramLink{}
	}
	for code, old := range f.links {
		if old.UserID == l.UserID {
			delete(f.links, code)
		}
	}
	cp := *l
	f.links[l.Code] = &cp
	return nil
}

func (f *fakeLinks) Consume(_ context.Context, code string, now time.Time) (uuid.UUID, error) {
	l, ok := f.links[code]
	if !ok || l.Expired(now) {
		return uuid.Nil, repository.ErrLinkNotFound
	}
	delete(f.links, code)
	return l.UserID, nil
}

// fakeStores hands out the same in-memory repositories regardless of db.
type fakeStores struct {
	items     *fakeItems
	states    *fakeStates
	quizzes   *fakeQuizzes
	settings  *fakeSettings
	reminders *fakeReminders
	resets    *fakeResets
	links     *fakeLinks
}

func newFakeStores(items ...*entities.StudyItem) *fakeStores {
	fi := newFakeItems(items...)
	return &fakeStores{
		items:     fi,
		states:    newFakeStates(fi),
		quizzes:   newFakeQuizzes(),
		settings:  newFakeSettings(),
		reminders: newFakeReminders(),
		resets:    &fakeResets{},
		links:     &fakeLinks{},
	}
}

func (f *fakeStores) ReviewStates(postgres.DBTX) ReviewStateRepository { return f.states }
func (f *fakeStores) Quizzes(postgres.DBTX) QuizRepository             { return f.quizzes }
func (f *fakeStores) Items(postgres.DBTX) ItemRepository               { return f.items }
func (f *fakeStores) Settings(postgres.DBTX) SettingsRepository        { return f.settings }
func (f *fakeStores) Reminders(postgres.DBTX) ReminderRepository       { return f.reminders }
func (f *fakeStores) Resets(postgres.DBTX) ResetRepository             { return f.resets }
func (f *fakeStores) Links(postgres.DBTX) TelegramLinkRepository       { return f.links }

func catalogItem(id int64, kind entities.ItemKind, expr, reading, meaning string) *entities.StudyItem {
	return &entities.StudyItem{
		ID:         id,
		Kind:       kind,
		Expression: expr,
		Reading:    reading,
		Meaning:    meaning,
		JLPTLevel:  1,
		Tags:       []string{},
	}
}

func vocabulary() []*entities.StudyItem {
	return []*entities.StudyItem{
		catalogItem(1, entities.KindVocabulary, "曖昧", "あいまい", "vague"),
		catalogItem(2, entities.KindVocabulary, "斡旋", "あっせん", "mediation"),
		catalogItem(3, entities.KindVocabulary, "案の定", "あんのじょう", "just as expected"),
		catalogItem(4, entities.KindVocabulary, "潔い", "いさぎよい", "manly; graceful"),
		catalogItem(5, entities.KindVocabulary, "著しい", "いちじるしい", "remarkable"),
	}
}
