package entities

import (
	"time"

	"github.com/google/uuid"
)

// QuizMode selects which items a quiz draws from.
type QuizMode string

const (
	QuizModeNew    QuizMode = "new"    // items the user has never reviewed
	QuizModeReview QuizMode = "review" // items due for review
	QuizModeMixed  QuizMode = "mixed"  // due items first, then new ones
)

func (m QuizMode) Valid() bool {
	switch m {
	case QuizModeNew, QuizModeReview, QuizModeMixed:
		return true
	}
	return false
}

// SessionStatus is the lifecycle state of a quiz session.
type SessionStatus string

const (
	SessionActive    SessionStatus = "active"
	SessionCompleted SessionStatus = "completed"
	SessionAbandoned SessionStatus = "abandoned"
)

// QuestionType describes what a quiz question asks for.
type QuestionType string

const (
	QuestionMeaning    QuestionType = "meaning"    // show expression, pick the meaning
	QuestionExpression QuestionType = "expression" // show meaning, pick the expression
	QuestionReading    QuestionType = "reading"    // show expression, pick the kana reading
	QuestionGrammar    QuestionType = "grammar"    // show a meaning, pick the grammar pattern
)

// QuizSession represents a single quiz session for a user.
// It tracks progress, mode, status and an optimistic lock version.
type QuizSession struct {
	ID                 int64         `json:"id"`
	UserID             uuid.UUID     `json:"-"`
	Kind               ItemKind      `json:"kind,omitempty"` // empty means any kind
	CurrentQuestionNum int           `json:"current_question"`
	CorrectAnswers     int           `json:"correct_answers"`
	TotalQuestions     int           `json:"total_questions"`
	QuizMode           QuizMode      `json:"mode"`
	SessionStatus      SessionStatus `json:"status"`
	StartedAt          time.Time     `json:"started_at"`
	CompletedAt        *time.Time    `json:"completed_at,omitempty"`
	Version            int           `json:"-"`
}

// NewQuizSession creates an active session positioned on the first question.
func NewQuizSession(userID uuid.UUID, totalQuestions int, mode QuizMode, kind ItemKind, now time.Time) *QuizSession {
	return &QuizSession{
		UserID:             userID,
		Kind:               kind,
		CurrentQuestionNum: 1,
		TotalQuestions:     totalQuestions,
		QuizMode:           mode,
		SessionStatus:      SessionActive,
		StartedAt:          now,
	}
}

func (qs *QuizSession) IsActive() bool {
	return qs.SessionStatus == SessionActive
}

// Advance records the outcome of the current question and moves to the next
// one. It completes the session after the last question and reports whether it did.
func (qs *QuizSession) Advance(correct bool, now time.Time) bool {
	if correct {
		qs.CorrectAnswers++
	}
	qs.CurrentQuestionNum++
	if qs.CurrentQuestionNum > qs.TotalQuestions {
		qs.Complete(now)
		return true
	}
	return false
}

// Complete marks the quiz session as completed and sets the completion timestamp.
func (qs *QuizSession) Complete(now time.Time) {
	qs.SessionStatus = SessionCompleted
	qs.CompletedAt = &now
}

// Score is the share of correct answers among the questions answered so far.
func (qs *QuizSession) Score() float64 {
	answered := min(qs.CurrentQuestionNum-1, qs.TotalQuestions)
	if answered <= 0 {
		return 0
	}
	return float64(qs.CorrectAnswers) / float64(answered)
}

// QuizQuestion is one multiple choice question of a session.
type QuizQuestion struct {
	ID            int64        `json:"id"`
	SessionID     int64        `json:"session_id"`
	QuestionOrder int          `json:"order"`
	ItemID        int64        `json:"item_id"`
	QuestionType  QuestionType `json:"type"`
	Prompt        string       `json:"prompt"`
	Options       []string     `json:"options"`
	CorrectAnswer string       `json:"-"`
	CorrectIndex  int          `json:"-"`
	CreatedAt     time.Time    `json:"-"`
}

// QuizAnswer represents a user's answer to a quiz question.
type QuizAnswer struct {
	ID            int64
	UserID        uuid.UUID
	SessionID     int64
	QuestionID    int64
	ItemID        int64
	UserAnswer    string
	CorrectAnswer string
	QuestionType  QuestionType
	IsCorrect     bool
	AnsweredAt    time.Time
}

// NewQuizAnswer creates an answer record for the given question.
func NewQuizAnswer(userID uuid.UUID, q *QuizQuestion, userAnswer string, correct bool, now time.Time) *QuizAnswer {
	return &QuizAnswer{
		UserID:        userID,
		SessionID:     q.SessionID,
		QuestionID:    q.ID,
		ItemID:        q.ItemID,
		UserAnswer:    userAnswer,
		CorrectAnswer: q.CorrectAnswer,
		QuestionType:  q.QuestionType,
		IsCorrect:     correct,
		AnsweredAt:    now,
	}
}
