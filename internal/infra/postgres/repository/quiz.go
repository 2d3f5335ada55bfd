package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/aliskhannn/jlpt-n1-study/internal/domain/entities"
	"github.com/aliskhannn/jlpt-n1-study/internal/infra/postgres"
)

var (
	ErrSessionNotFound  = errors.New("quiz session not found")
	ErrQuestionNotFound = errors.New("quiz question not found")
	ErrOptimisticLock   = errors.New("quiz session was modified by another process")
)

const sessionColumns = `id, user_id, kind, current_question_num, correct_answers, total_questions,
	quiz_mode, session_status, started_at, completed_at, version`

// QuizRepository provides access to quiz session and answer data in the database.
type QuizRepository struct {
	db postgres.DBTX
}

// NewQuizRepository creates a new QuizRepository with the provided database handle.
func NewQuizRepository(db postgres.DBTX) *QuizRepository {
	return &QuizRepository{db: db}
}

func scanSession(row pgx.Row) (*entities.QuizSession, error) {
	var s entities.QuizSession
	var kind, mode, status string
	err := row.Scan(
		&s.ID,
		&s.UserID,
		&kind,
		&s.CurrentQuestionNum,
		&s.CorrectAnswers,
		&s.TotalQuestions,
		&mode,
		&status,
		&s.StartedAt,
		&s.CompletedAt,
		&s.Version,
	)
	if err != nil {
		return nil, err
	}
	s.Kind = entities.ItemKind(kind)
	s.QuizMode = entities.QuizMode(mode)
	s.SessionStatus = entities.SessionStatus(status)
	return &s, nil
}

// Create inserts a new quiz session and sets its id.
func (r *QuizRepository) Create(ctx context.Context, session *entities.QuizSession) error {
	query := `
		INSERT INTO quiz_sessions (
			user_id, kind, current_question_num, total_questions,
			quiz_mode, session_status, started_at, version
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`

	err := r.db.QueryRow(ctx, query,
		session.UserID,
		string(session.Kind),
		session.CurrentQuestionNum,
		session.TotalQuestions,
		string(session.QuizMode),
		string(session.SessionStatus),
		session.StartedAt,
		session.Version,
	).Scan(&session.ID)
	if err != nil {
		return fmt.Errorf("create quiz session: %w", err)
	}

	return nil
}

// CreateQuestion inserts a quiz question and sets its id.
func (r *QuizRepository) CreateQuestion(ctx context.Context, q *entities.QuizQuestion) error {
	query := `
		INSERT INTO quiz_questions (
			session_id, question_order, item_id, question_type,
			prompt, correct_answer, options, correct_index
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at
	`

	err := r.db.QueryRow(ctx, query,
		q.SessionID,
		q.QuestionOrder,
		q.ItemID,
		string(q.QuestionType),
		q.Prompt,
		q.CorrectAnswer,
		q.Options,
		q.CorrectIndex,
	).Scan(&q.ID, &q.CreatedAt)
	if err != nil {
		return fmt.Errorf("create quiz question: %w", err)
	}

	return nil
}

// GetSession retrieves a session owned by the user.
func (r *QuizRepository) GetSession(ctx context.Context, sessionID int64, userID uuid.UUID) (*entities.QuizSession, error) {
	query := `SELECT ` + sessionColumns + ` FROM quiz_sessions WHERE id = $1 AND user_id = $2`

	s, err := scanSession(r.db.QueryRow(ctx, query, sessionID, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("get quiz session: %w", err)
	}
	return s, nil
}

// GetSessionForUpdate retrieves a session with a row-level lock.
func (r *QuizRepository) GetSessionForUpdate(ctx context.Context, sessionID int64, userID uuid.UUID) (*entities.QuizSession, error) {
	query := `SELECT ` + sessionColumns + ` FROM quiz_sessions WHERE id = $1 AND user_id = $2 FOR UPDATE`

	s, err := scanSession(r.db.QueryRow(ctx, query, sessionID, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("get session for update: %w", err)
	}
	return s, nil
}

// GetQuestionByOrder retrieves a question by its position in the session.
func (r *QuizRepository) GetQuestionByOrder(ctx context.Context, sessionID int64, order int) (*entities.QuizQuestion, error) {
	query := `
		SELECT id, session_id, question_order, item_id, question_type,
		       prompt, correct_answer, options, correct_index, created_at
		FROM quiz_questions
		WHERE session_id = $1 AND question_order = $2
	`

	var q entities.QuizQuestion
	var qType string
	err := r.db.QueryRow(ctx, query, sessionID, order).Scan(
		&q.ID,
		&q.SessionID,
		&q.QuestionOrder,
		&q.ItemID,
		&qType,
		&q.Prompt,
		&q.CorrectAnswer,
		&q.Options,
		&q.CorrectIndex,
		&q.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrQuestionNotFound
		}
		return nil, fmt.Errorf("get question by order: %w", err)
	}
	q.QuestionType = entities.QuestionType(qType)

	return &q, nil
}

// SaveAnswer stores the answer to a question.
func (r *QuizRepository) SaveAnswer(ctx context.Context, a *entities.QuizAnswer) error {
	query := `
		INSERT INTO quiz_answers (
			user_id, session_id, question_id, item_id, user_answer,
			correct_answer, question_type, is_correct, answered_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id
	`

	err := r.db.QueryRow(ctx, query,
		a.UserID,
		a.SessionID,
		a.QuestionID,
		a.ItemID,
		a.UserAnswer,
		a.CorrectAnswer,
		string(a.QuestionType),
		a.IsCorrect,
		a.AnsweredAt,
	).Scan(&a.ID)
	if err != nil {
		return fmt.Errorf("save answer: %w", err)
	}

	return nil
}

// UpdateSession updates a quiz session using optimistic locking.
func (r *QuizRepository) UpdateSession(ctx context.Context, session *entities.QuizSession) error {
	query := `
		UPDATE quiz_sessions
		SET current_question_num = $1,
		    correct_answers = $2,
		    session_status = $3,
		    completed_at = $4,
		    version = version + 1
		WHERE id = $5 AND version = $6
	`

	result, err := r.db.Exec(ctx, query,
		session.CurrentQuestionNum,
		session.CorrectAnswers,
		string(session.SessionStatus),
		session.CompletedAt,
		session.ID,
		session.Version,
	)
	if err != nil {
		return fmt.Errorf("update session: %w", err)
	}

	if result.RowsAffected() == 0 {
		return ErrOptimisticLock
	}

	session.Version++
	return nil
}

// AbandonActiveSessions marks the user's active sessions as abandoned.
func (r *QuizRepository) AbandonActiveSessions(ctx context.Context, userID uuid.UUID) error {
	query := `
		UPDATE quiz_sessions
		SET session_status = 'abandoned', version = version + 1
		WHERE user_id = $1 AND session_status = 'active'
	`

	if _, err := r.db.Exec(ctx, query, userID); err != nil {
		return fmt.Errorf("abandon active sessions: %w", err)
	}

	return nil
}

// ListFinished returns the user's completed sessions, newest first.
func (r *QuizRepository) ListFinished(ctx context.Context, userID uuid.UUID, limit int) ([]*entities.QuizSession, error) {
	query := `
		SELECT ` + sessionColumns + `
		FROM quiz_sessions
		WHERE user_id = $1 AND session_status = 'completed'
		ORDER BY completed_at DESC
		LIMIT $2
	`

	rows, err := r.db.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list finished sessions: %w", err)
	}
	defer rows.Close()

	var sessions []*entities.QuizSession
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		sessions = append(sessions, s)
	}
	return sessions, rows.Err()
}
