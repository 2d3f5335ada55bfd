package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"

	"github.com/aliskhannn/jlpt-n1-study/internal/domain/entities"
)

const (
	DefaultDailyQuota  = 20
	DefaultCacheTTL    = 7 * 24 * time.Hour
	generatedListLimit = 20
)

var ErrInvalidKind = errors.New("unknown generation kind")

// GenerationConfig tunes the generation service.
type GenerationConfig struct {
	DailyQuota int           `mapstructure:"daily_quota"`
	CacheTTL   time.Duration `mapstructure:"cache_ttl"`
}

// GenerateRequest asks for practice material about one item.
type GenerateRequest struct {
	Kind  entities.GenerationKind `json:"kind"`
	Count int                     `json:"count"`
}

// GenerationService produces example sentences and practice questions with a
// language model. Cache and quota are optional.
type GenerationService struct {
	items     ItemRepository
	repo      GenerationRepository
	generator Generator
	cache     Cache
	quota     Counter
	cfg       GenerationConfig
	logger    *zap.Logger
	now       func() time.Time
}

func NewGenerationService(
	items ItemRepository,
	repo GenerationRepository,
	generator Generator,
	cache Cache,
	quota Counter,
	cfg GenerationConfig,
	logger *zap.Logger,
) *GenerationService {
	if cfg.DailyQuota <= 0 {
		cfg.DailyQuota = DefaultDailyQuota
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = DefaultCacheTTL
	}
	return &GenerationService{
		items:     items,
		repo:      repo,
		generator: generator,
		cache:     cache,
		quota:     quota,
		cfg:       cfg,
		logger:    logger,
		now:       time.Now,
	}
}

// Enabled reports whether a model is configured.
func (s *GenerationService) Enabled() bool {
	return s.generator != nil
}

// Generate returns new practice material for an item.
func (s *GenerationService) Generate(ctx context.Context, userID uuid.UUID, itemID int64, req GenerateRequest) (*entities.GeneratedContent, error) {
	if s.generator == nil {
		return nil, ErrGenerationDisabled
	}
	if !req.Kind.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidKind, req.Kind)
	}
	if req.Count == 0 {
		req.Count = 3
	}
	if req.Count < 1 || req.Count > entities.MaxGenerateCount {
		return nil, fmt.Errorf("%w: count must be between 1 and %d", ErrInvalidCount, entities.MaxGenerateCount)
	}

	item, err := s.visibleItem(ctx, userID, itemID)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	cacheKey := fmt.Sprintf("generated:%d:%s:%d", item.ID, req.Kind, req.Count)

	if s.cache != nil {
		var cached entities.GeneratedContent
		ok, err := s.cache.GetJSON(ctx, cacheKey, &cached)
		if err != nil {
			s.logger.Warn("generation cache read failed", zap.Error(err))
		}
		if ok {
			return s.store(ctx, userID, &cached, now)
		}
	}

	if err := s.takeQuota(ctx, userID, now); err != nil {
		return nil, err
	}

	content, err := s.callModel(ctx, item, req)
	if err != nil {
		s.releaseQuota(ctx, userID, now)
		return nil, err
	}

	stored, err := s.store(ctx, userID, content, now)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.SetJSON(ctx, cacheKey, stored, s.cfg.CacheTTL); err != nil {
			s.logger.Warn("generation cache write failed", zap.Error(err))
		}
	}

	s.logger.Info("content generated",
		zap.String("user_id", userID.String()),
		zap.Int64("item_id", item.ID),
		zap.String("kind", string(req.Kind)),
		zap.String("model", stored.Model),
	)

	return stored, nil
}

// List returns content generated earlier for the item, newest first.
func (s *GenerationService) List(ctx context.Context, userID uuid.UUID, itemID int64) ([]*entities.GeneratedContent, error) {
	if _, err := s.visibleItem(ctx, userID, itemID); err != nil {
		return nil, err
	}

	out, err := s.repo.ListByItem(ctx, userID, itemID, generatedListLimit)
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []*entities.GeneratedContent{}
	}
	return out, nil
}

func (s *GenerationService) visibleItem(ctx context.Context, userID uuid.UUID, itemID int64) (*entities.StudyItem, error) {
	item, err := s.items.GetByID(ctx, itemID)
	if err != nil {
		return nil, ErrItemNotFound
	}
	if !item.VisibleTo(userID) {
		return nil, ErrItemNotFound
	}
	return item, nil
}

// store saves a copy of content owned by userID under a fresh id.
func (s *GenerationService) store(ctx context.Context, userID uuid.UUID, content *entities.GeneratedContent, now time.Time) (*entities.GeneratedContent, error) {
	g := *content
	g.ID = ulid.Make().String()
	g.UserID = userID
	g.CreatedAt = now

	if err := s.repo.Create(ctx, &g); err != nil {
		return nil, err
	}
	return &g, nil
}

func quotaKey(userID uuid.UUID, now time.Time) string {
	return "generate:" + userID.String() + ":" + now.Format("20060102")
}

func (s *GenerationService) takeQuota(ctx context.Context, userID uuid.UUID, now time.Time) error {
	if s.quota == nil {
		return nil
	}

	resetAt := time.Date(now.Year(), now.Month(), now.Day()+1, 0, 0, 0, 0, time.UTC)
	n, err := s.quota.Incr(ctx, quotaKey(userID, now), resetAt)
	if err != nil {
		return fmt.Errorf("take quota: %w", err)
	}
	if n > int64(s.cfg.DailyQuota) {
		s.releaseQuota(ctx, userID, now)
		return ErrQuotaExceeded
	}
	return nil
}

func (s *GenerationService) releaseQuota(ctx context.Context, userID uuid.UUID, now time.Time) {
	if s.quota == nil {
		return
	}
	if err := s.quota.Decr(ctx, quotaKey(userID, now)); err != nil {
		s.logger.Warn("release quota failed", zap.Error(err))
	}
}

const systemPrompt = `You are a Japanese teacher preparing JLPT N1 study material. Answer with a single JSON object and nothing else.`

type modelOutput struct {
	Examples  []entities.ExampleSentence  `json:"examples"`
	Questions []entities.PracticeQuestion `json:"questions"`
}

func buildPrompt(item *entities.StudyItem, req GenerateRequest) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Study item (%s): %s", item.Kind, item.Expression)
	if item.Reading != "" {
		fmt.Fprintf(&b, " [%s]", item.Reading)
	}
	fmt.Fprintf(&b, "\nMeaning: %s\n", item.Meaning)

	switch req.Kind {
	case entities.GenerateQuestions:
		fmt.Fprintf(&b, `Write %d multiple choice questions that test this item at N1 level. `+
			`Return {"questions":[{"prompt":"...","options":["...","...","...","..."],"correct_index":0,"explanation":"..."}]}. `+
			`Each question has exactly 4 options.`, req.Count)
	default:
		fmt.Fprintf(&b, `Write %d natural example sentences that use this item. `+
			`Return {"examples":[{"japanese":"...","reading":"...","translation":"..."}]}. `+
			`The reading is the whole sentence in hiragana and the translation is in English.`, req.Count)
	}
	return b.String()
}

func (s *GenerationService) callModel(ctx context.Context, item *entities.StudyItem, req GenerateRequest) (*entities.GeneratedContent, error) {
	var out modelOutput
	if err := s.generator.GenerateJSON(ctx, systemPrompt, buildPrompt(item, req), &out); err != nil {
		return nil, fmt.Errorf("generate content: %w", err)
	}

	content := &entities.GeneratedContent{
		ItemID: item.ID,
		Kind:   req.Kind,
		Model:  s.generator.Model(),
	}
	switch req.Kind {
	case entities.GenerateQuestions:
		content.Questions = out.Questions
	default:
		content.Examples = out.Examples
	}

	if err := content.Validate(); err != nil {
		return nil, err
	}
	return content, nil
}
