package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	nethttp "net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap/zaptest"

	"github.com/aliskhannn/jlpt-n1-study/internal/delivery/http/apierr"
	httpH "github.com/aliskhannn/jlpt-n1-study/internal/delivery/http/handlers"
	httpMW "github.com/aliskhannn/jlpt-n1-study/internal/delivery/http/middleware"
	"github.com/aliskhannn/jlpt-n1-study/internal/domain/entities"
	"github.com/aliskhannn/jlpt-n1-study/internal/infra/postgres/repository"
	"github.com/aliskhannn/jlpt-n1-study/internal/service"
)

const testSecret = "test-secret"

type fakeUsers struct {
	ensured map[uuid.UUID]int
	reset   []uuid.UUID
}

func (f *fakeUsers) EnsureUser(_ context.Context, id uuid.UUID, _, _ string) error {
	f.ensured[id]++
	return nil
}

func (f *fakeUsers) Get(_ context.Context, id uuid.UUID) (*entities.User, error) {
	if f.ensured[id] == 0 {
		return nil, repository.ErrUserNotFound
	}
	return &entities.User{ID: id, Email: "a@example.com"}, nil
}

func (f *fakeUsers) ResetUser(_ context.Context, id uuid.UUID) error {
	f.reset = append(f.reset, id)
	return nil
}

type fakeItems struct {
	created []*entities.StudyItem
}

func (f *fakeItems) List(_ context.Context, _ uuid.UUID, flt entities.ItemFilter) (*service.ItemPage, error) {
	return &service.ItemPage{Items: []*entities.StudyItem{}, Limit: flt.Limit}, nil
}

func (f *fakeItems) Get(_ context.Context, _ uuid.UUID, id int64) (*entities.StudyItem, error) {
	if id != 1 {
		return nil, service.ErrItemNotFound
	}
	return &entities.StudyItem{ID: 1, Kind: entities.KindVocabulary, Expression: "曖昧", Meaning: "vague"}, nil
}

func (f *fakeItems) Create(_ context.Context, userID uuid.UUID, item *entities.StudyItem) error {
	for _, c := range f.created {
		if c.Expression == item.Expression {
			return repository.ErrDuplicateItem
		}
	}
	item.ID = int64(100 + len(f.created))
	item.OwnerID = &userID
	f.created = append(f.created, item)
	return nil
}

func (f *fakeItems) Update(context.Context, uuid.UUID, *entities.StudyItem) error {
	return service.ErrNotOwner
}

func (f *fakeItems) Delete(context.Context, uuid.UUID, int64) error { return nil }

type fakeFlashcards struct {
	last entities.ReviewEvent
}

func (f *fakeFlashcards) DueCards(context.Context, uuid.UUID, entities.ItemKind, int) ([]*entities.ItemProgress, error) {
	return []*entities.ItemProgress{
		{Item: entities.StudyItem{ID: 1, Expression: "曖昧"}, State: &entities.ReviewState{IntervalDays: 6, NextReviewAt: time.Date(2026, 3, 8, 0, 0, 0, 0, time.UTC)}},
		{Item: entities.StudyItem{ID: 2, Expression: "斡旋"}},
	}, nil
}

func (f *fakeFlashcards) Review(_ context.Context, ev entities.ReviewEvent) (*entities.ReviewResult, error) {
	f.last = ev
	q, err := ev.ResolveQuality()
	if err != nil {
		return nil, err
	}
	return &entities.ReviewResult{ItemID: ev.ItemID, Quality: q, IntervalDays: 6}, nil
}

type fakeProgress struct{}

func (fakeProgress) Summary(context.Context, uuid.UUID) (*entities.ProgressSummary, error) {
	return &entities.ProgressSummary{TotalItems: 3}, nil
}

func (fakeProgress) ByKind(context.Context, uuid.UUID) ([]entities.KindProgress, error) {
	return nil, nil
}

func (fakeProgress) Activity(context.Context, uuid.UUID, int) ([]entities.DailyActivity, error) {
	return nil, nil
}

func (fakeProgress) Forecast(context.Context, uuid.UUID, int) ([]entities.ForecastDay, error) {
	return nil, nil
}

func (fakeProgress) Export(_ context.Context, _ uuid.UUID, w io.Writer) error {
	_, err := w.Write([]byte("PK"))
	return err
}

type testAPI struct {
	router     *gin.Engine
	users      *fakeUsers
	items      *fakeItems
	flashcards *fakeFlashcards
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	gin.SetMode(gin.TestMode)

	log := zaptest.NewLogger(t)
	api := &testAPI{
		users:      &fakeUsers{ensured: map[uuid.UUID]int{}},
		items:      &fakeItems{},
		flashcards: &fakeFlashcards{},
	}
	api.router = NewRouter(RouterConfig{
		Logger:           log,
		AuthMiddleware:   httpMW.NewAuthMiddleware(httpMW.AuthConfig{JWTSecret: testSecret, Issuer: "auth.test"}, api.users, log),
		HealthHandler:    httpH.NewHealthHandler(nil),
		UserHandler:      httpH.NewUserHandler(api.users, api.users),
		ItemHandler:      httpH.NewItemHandler(api.items, nil),
		FlashcardHandler: httpH.NewFlashcardHandler(api.flashcards),
		ProgressHandler:  httpH.NewProgressHandler(fakeProgress{}),
	})
	return api
}

func token(t *testing.T, sub, issuer string, exp time.Time, secret string) string {
	t.Helper()
	claims := httpMW.Claims{
		Email: "a@example.com",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   sub,
			Issuer:    issuer,
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return s
}

func (api *testAPI) do(method, path, tok, body string) *httptest.ResponseRecorder {
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	w := httptest.NewRecorder()
	api.router.ServeHTTP(w, req)
	return w
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var env apierr.Envelope
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode envelope %q: %v", w.Body.String(), err)
	}
	return env.Error.Code
}

func TestRouter_Auth(t *testing.T) {
	api := newTestAPI(t)
	user := uuid.New()
	future := time.Now().Add(time.Hour)

	tests := []struct {
		name   string
		tok    string
		status int
	}{
		{"missing", "", nethttp.StatusUnauthorized},
		{"garbage", "abc.def.ghi", nethttp.StatusUnauthorized},
		{"expired", token(t, user.String(), "auth.test", time.Now().Add(-time.Hour), testSecret), nethttp.StatusUnauthorized},
		{"wrong secret", token(t, user.String(), "auth.test", future, "other"), nethttp.StatusUnauthorized},
		{"wrong issuer", token(t, user.String(), "evil", future, testSecret), nethttp.StatusUnauthorized},
		{"subject not uuid", token(t, "alice", "auth.test", future, testSecret), nethttp.StatusForbidden},
		{"valid", token(t, user.String(), "auth.test", future, testSecret), nethttp.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := api.do(nethttp.MethodGet, "/api/me", tt.tok, "")
			if w.Code != tt.status {
				t.Fatalf("status = %d, want %d: %s", w.Code, tt.status, w.Body.String())
			}
			if tt.status != nethttp.StatusOK && errorCode(t, w) == "" {
				t.Errorf("error envelope without code: %s", w.Body.String())
			}
		})
	}

	api.do(nethttp.MethodGet, "/api/me", token(t, user.String(), "auth.test", future, testSecret), "")
	if api.users.ensured[user] != 1 {
		t.Errorf("EnsureUser called %d times, want 1", api.users.ensured[user])
	}
}

func TestRouter_Health(t *testing.T) {
	api := newTestAPI(t)
	w := api.do(nethttp.MethodGet, "/healthcheck", "", "")
	if w.Code != nethttp.StatusOK || w.Body.String() != "ok" {
		t.Errorf("health = %d %q", w.Code, w.Body.String())
	}
}

func TestRouter_Items(t *testing.T) {
	api := newTestAPI(t)
	tok := token(t, uuid.NewString(), "auth.test", time.Now().Add(time.Hour), testSecret)
	body := `{"kind":"vocabulary","expression":"杞憂","meaning":"needless worry"}`

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		status int
		code   string
	}{
		{"create", nethttp.MethodPost, "/api/items", body, nethttp.StatusCreated, ""},
		{"duplicate", nethttp.MethodPost, "/api/items", body, nethttp.StatusConflict, "duplicate_item"},
		{"bad json", nethttp.MethodPost, "/api/items", `{"kind":`, nethttp.StatusBadRequest, "invalid_request"},
		{"get", nethttp.MethodGet, "/api/items/1", "", nethttp.StatusOK, ""},
		{"get missing", nethttp.MethodGet, "/api/items/7", "", nethttp.StatusNotFound, "item_not_found"},
		{"bad id", nethttp.MethodGet, "/api/items/abc", "", nethttp.StatusBadRequest, "invalid_request"},
		{"update catalog", nethttp.MethodPut, "/api/items/1", body, nethttp.StatusForbidden, "not_owner"},
		{"delete", nethttp.MethodDelete, "/api/items/100", "", nethttp.StatusNoContent, ""},
		{"bad limit", nethttp.MethodGet, "/api/items?limit=x", "", nethttp.StatusBadRequest, "invalid_request"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := api.do(tt.method, tt.path, tok, tt.body)
			if w.Code != tt.status {
				t.Fatalf("status = %d, want %d: %s", w.Code, tt.status, w.Body.String())
			}
			if tt.code != "" {
				if got := errorCode(t, w); got != tt.code {
					t.Errorf("code = %q, want %q", got, tt.code)
				}
			}
		})
	}
}

func TestRouter_Flashcards(t *testing.T) {
	api := newTestAPI(t)
	tok := token(t, uuid.NewString(), "auth.test", time.Now().Add(time.Hour), testSecret)

	w := api.do(nethttp.MethodGet, "/api/flashcards/due", tok, "")
	if w.Code != nethttp.StatusOK {
		t.Fatalf("due status = %d", w.Code)
	}
	var due struct {
		Cards []struct {
			Item  entities.StudyItem `json:"item"`
			State *struct {
				NextReviewAt string `json:"next_review_at"`
			} `json:"state"`
		} `json:"cards"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &due); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(due.Cards) != 2 || due.Cards[0].State == nil || due.Cards[0].State.NextReviewAt != "2026-03-08" || due.Cards[1].State != nil {
		t.Errorf("due = %s", w.Body.String())
	}

	w = api.do(nethttp.MethodPost, "/api/flashcards/review", tok, `{"item_id":1,"known":true,"flag_mastered":true}`)
	if w.Code != nethttp.StatusOK {
		t.Fatalf("review status = %d: %s", w.Code, w.Body.String())
	}
	if !api.flashcards.last.FlagMastered || api.flashcards.last.Known == nil || !*api.flashcards.last.Known {
		t.Errorf("event = %+v", api.flashcards.last)
	}

	bad := []struct {
		body string
		code string
	}{
		{`{"item_id":1}`, "invalid_review"},
		{`{"item_id":1,"quality":7}`, "invalid_review"},
		{`{"item_id":1,"known":true,"quality":3}`, "invalid_review"},
		{`{"known":true}`, "invalid_request"},
	}
	for _, b := range bad {
		w := api.do(nethttp.MethodPost, "/api/flashcards/review", tok, b.body)
		if w.Code != nethttp.StatusBadRequest {
			t.Errorf("%s: status = %d", b.body, w.Code)
			continue
		}
		if got := errorCode(t, w); got != b.code {
			t.Errorf("%s: code = %q, want %q", b.body, got, b.code)
		}
	}
}

func TestRouter_ProgressExport(t *testing.T) {
	api := newTestAPI(t)
	tok := token(t, uuid.NewString(), "auth.test", time.Now().Add(time.Hour), testSecret)

	w := api.do(nethttp.MethodGet, "/api/progress/export", tok, "")
	if w.Code != nethttp.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "application/vnd.openxmlformats") {
		t.Errorf("content type = %q", ct)
	}
	if cd := w.Header().Get("Content-Disposition"); !strings.Contains(cd, ".xlsx") {
		t.Errorf("content disposition = %q", cd)
	}
	if !bytes.Equal(w.Body.Bytes(), []byte("PK")) {
		t.Errorf("body = %q", w.Body.String())
	}
}

func TestRouter_ResetProgress(t *testing.T) {
	api := newTestAPI(t)
	user := uuid.New()
	tok := token(t, user.String(), "auth.test", time.Now().Add(time.Hour), testSecret)

	w := api.do(nethttp.MethodDelete, "/api/me/progress", tok, "")
	if w.Code != nethttp.StatusNoContent {
		t.Fatalf("status = %d", w.Code)
	}
	if len(api.users.reset) != 1 || api.users.reset[0] != user {
		t.Errorf("reset = %v", api.users.reset)
	}
}
