package service

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/aliskhannn/jlpt-n1-study/internal/domain/entities"
	"github.com/aliskhannn/jlpt-n1-study/internal/domain/srs"
	"github.com/aliskhannn/jlpt-n1-study/internal/infra/postgres"
)

const (
	distractorPool      = 8
	DefaultHistoryLimit = 20
	MaxHistoryLimit     = 100
)

// StartQuizRequest describes a new quiz. Zero values fall back to the user's settings.
type StartQuizRequest struct {
	Mode   entities.QuizMode `json:"mode"`
	Kind   entities.ItemKind `json:"kind"`
	Length int               `json:"length"`
}

// AnswerRequest carries either the index of a chosen option or a typed answer.
type AnswerRequest struct {
	SelectedIndex *int    `json:"selected_index"`
	Answer        *string `json:"answer"`
}

// QuizView is a session with its current question, if any.
type QuizView struct {
	Session  *entities.QuizSession  `json:"session"`
	Question *entities.QuizQuestion `json:"question,omitempty"`
}

// AnswerResult is the outcome of answering the current question.
type AnswerResult struct {
	Correct       bool                   `json:"correct"`
	CorrectAnswer string                 `json:"correct_answer"`
	CorrectIndex  int                    `json:"correct_index"`
	Review        entities.ReviewResult  `json:"review"`
	Session       *entities.QuizSession  `json:"session"`
	Next          *entities.QuizQuestion `json:"next,omitempty"`
}

type QuizService struct {
	db        postgres.DBTX
	tr        Transactor
	stores    Stores
	settings  SettingsProvider
	reviews   *ReviewService
	options   *OptionGenerator
	validator *AnswerValidator
	logger    *zap.Logger
}

func NewQuizService(
	db postgres.DBTX,
	tr Transactor,
	stores Stores,
	settings SettingsProvider,
	reviews *ReviewService,
	logger *zap.Logger,
) *QuizService {
	return &QuizService{
		db:        db,
		tr:        tr,
		stores:    stores,
		settings:  settings,
		reviews:   reviews,
		options:   NewOptionGenerator(),
		validator: NewAnswerValidator(),
		logger:    logger,
	}
}

// Start abandons the user's active sessions and creates a new one.
func (s *QuizService) Start(ctx context.Context, userID uuid.UUID, req StartQuizRequest) (*QuizView, error) {
	settings, err := s.settings.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get settings: %w", err)
	}

	if req.Mode == "" {
		req.Mode = settings.QuizMode
	}
	if !req.Mode.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidMode, req.Mode)
	}
	if req.Kind != "" && !req.Kind.Valid() {
		return nil, fmt.Errorf("%w: unknown kind %q", entities.ErrInvalidItem, req.Kind)
	}
	if req.Length == 0 {
		req.Length = settings.QuizLength
	}
	if req.Length < entities.MinQuizLength || req.Length > entities.MaxQuizLength {
		return nil, fmt.Errorf("%w: quiz length must be between %d and %d",
			ErrInvalidCount, entities.MinQuizLength, entities.MaxQuizLength)
	}

	now := s.reviews.now()
	today := settings.Today(now)

	items, err := s.pickItems(ctx, userID, req, today)
	if err != nil {
		return nil, err
	}

	questions, err := s.generateQuestions(ctx, userID, items)
	if err != nil {
		return nil, err
	}
	if len(questions) == 0 {
		return nil, ErrNoItemsAvailable
	}

	session := entities.NewQuizSession(userID, len(questions), req.Mode, req.Kind, now)

	err = s.tr.WithinTx(ctx, func(ctx context.Context, tx pgx.Tx) error {
		quizRepo := s.stores.Quizzes(tx)

		if err := quizRepo.AbandonActiveSessions(ctx, userID); err != nil {
			return err
		}
		if err := quizRepo.Create(ctx, session); err != nil {
			return err
		}

		for i, q := range questions {
			q.SessionID = session.ID
			q.QuestionOrder = i + 1
			if err := quizRepo.CreateQuestion(ctx, q); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("quiz started",
		zap.String("user_id", userID.String()),
		zap.Int64("session_id", session.ID),
		zap.String("mode", string(req.Mode)),
		zap.Int("questions", len(questions)),
	)

	return &QuizView{Session: session, Question: questions[0]}, nil
}

func (s *QuizService) pickItems(
	ctx context.Context,
	userID uuid.UUID,
	req StartQuizRequest,
	today time.Time,
) ([]*entities.ItemProgress, error) {
	repo := s.stores.ReviewStates(s.db)

	var dueLimit, newLimit int
	switch req.Mode {
	case entities.QuizModeReview:
		dueLimit = req.Length
	case entities.QuizModeNew:
		newLimit = req.Length
	default:
		dueLimit, newLimit = req.Length, req.Length
	}

	items, err := selectItems(ctx, repo, userID, req.Kind, today, dueLimit, newLimit)
	if err != nil {
		return nil, err
	}
	if len(items) > req.Length {
		items = items[:req.Length]
	}
	if len(items) == 0 {
		return nil, ErrNoItemsAvailable
	}

	rand.Shuffle(len(items), func(i, j int) {
		items[i], items[j] = items[j], items[i]
	})

	return items, nil
}

// generateQuestions builds one question per item. Items for which no
// question with at least two options can be built are skipped.
func (s *QuizService) generateQuestions(
	ctx context.Context,
	userID uuid.UUID,
	items []*entities.ItemProgress,
) ([]*entities.QuizQuestion, error) {
	itemRepo := s.stores.Items(s.db)
	questions := make([]*entities.QuizQuestion, 0, len(items))

	for _, p := range items {
		item := &p.Item

		distractors, err := itemRepo.Distractors(ctx, userID, item.Kind, item.ID, distractorPool)
		if err != nil {
			return nil, err
		}

		types := QuestionTypesFor(item)
		rand.Shuffle(len(types), func(i, j int) {
			types[i], types[j] = types[j], types[i]
		})

		for _, qt := range types {
			options, correctIndex := s.options.GenerateOptions(item, qt, distractors)
			if len(options) < 2 {
				continue
			}

			questions = append(questions, &entities.QuizQuestion{
				ItemID:        item.ID,
				QuestionType:  qt,
				Prompt:        PromptFor(item, qt),
				Options:       options,
				CorrectAnswer: options[correctIndex],
				CorrectIndex:  correctIndex,
			})
			break
		}
	}

	return questions, nil
}

// Current returns the session and its current question. A finished session
// has no current question.
func (s *QuizService) Current(ctx context.Context, userID uuid.UUID, sessionID int64) (*QuizView, error) {
	quizRepo := s.stores.Quizzes(s.db)

	session, err := quizRepo.GetSession(ctx, sessionID, userID)
	if err != nil {
		return nil, err
	}

	view := &QuizView{Session: session}
	if !session.IsActive() {
		return view, nil
	}

	q, err := quizRepo.GetQuestionByOrder(ctx, session.ID, session.CurrentQuestionNum)
	if err != nil {
		return nil, err
	}
	view.Question = q

	return view, nil
}

// Answer checks the answer to the current question, records the review and
// moves the session forward.
func (s *QuizService) Answer(ctx context.Context, userID uuid.UUID, sessionID int64, req AnswerRequest) (*AnswerResult, error) {
	if (req.SelectedIndex == nil) == (req.Answer == nil) {
		return nil, fmt.Errorf("%w: either selected_index or answer is required", ErrInvalidAnswer)
	}

	settings, err := s.settings.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get settings: %w", err)
	}

	now := s.reviews.now()
	today := settings.Today(now)

	var res AnswerResult
	err = s.tr.WithinTx(ctx, func(ctx context.Context, tx pgx.Tx) error {
		quizRepo := s.stores.Quizzes(tx)

		session, err := quizRepo.GetSessionForUpdate(ctx, sessionID, userID)
		if err != nil {
			return err
		}
		if !session.IsActive() {
			return ErrSessionNotActive
		}

		q, err := quizRepo.GetQuestionByOrder(ctx, session.ID, session.CurrentQuestionNum)
		if err != nil {
			return err
		}

		var userAnswer string
		var correct bool
		if req.SelectedIndex != nil {
			idx := *req.SelectedIndex
			if idx < 0 || idx >= len(q.Options) {
				return fmt.Errorf("%w: selected index out of range", ErrInvalidAnswer)
			}
			userAnswer = q.Options[idx]
			correct = idx == q.CorrectIndex
		} else {
			userAnswer = *req.Answer
			correct = s.validator.Validate(userAnswer, q.CorrectAnswer)
		}

		if err := quizRepo.SaveAnswer(ctx, entities.NewQuizAnswer(userID, q, userAnswer, correct, now)); err != nil {
			return err
		}

		quality := srs.FromKnown(correct)
		review, err := s.reviews.RecordTx(ctx, tx, entities.ReviewEvent{
			UserID:  userID,
			ItemID:  q.ItemID,
			Quality: &quality,
			Source:  entities.SourceQuiz,
		}, today, now)
		if err != nil {
			return err
		}

		completed := session.Advance(correct, now)
		if err := quizRepo.UpdateSession(ctx, session); err != nil {
			return err
		}

		res = AnswerResult{
			Correct:       correct,
			CorrectAnswer: q.CorrectAnswer,
			CorrectIndex:  q.CorrectIndex,
			Review:        review,
			Session:       session,
		}

		if !completed {
			next, err := quizRepo.GetQuestionByOrder(ctx, session.ID, session.CurrentQuestionNum)
			if err != nil {
				return err
			}
			res.Next = next
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if res.Next == nil {
		s.logger.Info("quiz completed",
			zap.String("user_id", userID.String()),
			zap.Int64("session_id", sessionID),
			zap.Int("correct", res.Session.CorrectAnswers),
			zap.Int("total", res.Session.TotalQuestions),
		)
	}

	return &res, nil
}

// History returns finished sessions, newest first.
func (s *QuizService) History(ctx context.Context, userID uuid.UUID, limit int) ([]*entities.QuizSession, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	limit = min(limit, MaxHistoryLimit)

	sessions, err := s.stores.Quizzes(s.db).ListFinished(ctx, userID, limit)
	if err != nil {
		return nil, err
	}
	if sessions == nil {
		sessions = []*entities.QuizSession{}
	}
	return sessions, nil
}
