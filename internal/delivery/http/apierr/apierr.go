// Package apierr maps service and repository errors onto HTTP statuses and
// writes the JSON error envelope.
package apierr

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/aliskhannn/jlpt-n1-study/internal/domain/entities"
	"github.com/aliskhannn/jlpt-n1-study/internal/domain/srs"
	"github.com/aliskhannn/jlpt-n1-study/internal/infra/postgres/repository"
	"github.com/aliskhannn/jlpt-n1-study/internal/service"
)

// Error is an error with the status and machine readable code sent to clients.
type Error struct {
	Status  int
	Code    string
	Message string
}

func (e *Error) Error() string { return e.Message }

func New(status int, code, message string) *Error {
	return &Error{Status: status, Code: code, Message: message}
}

type APIError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

type Envelope struct {
	Error APIError `json:"error"`
}

var rules = []struct {
	target error
	status int
	code   string
}{
	{entities.ErrInvalidItem, http.StatusBadRequest, "invalid_item"},
	{entities.ErrInvalidSettings, http.StatusBadRequest, "invalid_settings"},
	{entities.ErrInvalidReminders, http.StatusBadRequest, "invalid_reminders"},
	{entities.ErrMissingOutcome, http.StatusBadRequest, "invalid_review"},
	{entities.ErrAmbiguousOutcome, http.StatusBadRequest, "invalid_review"},
	{srs.ErrQualityOutOfRange, http.StatusBadRequest, "invalid_review"},
	{service.ErrInvalidMode, http.StatusBadRequest, "invalid_mode"},
	{service.ErrInvalidAnswer, http.StatusBadRequest, "invalid_answer"},
	{service.ErrInvalidCount, http.StatusBadRequest, "invalid_count"},
	{service.ErrInvalidKind, http.StatusBadRequest, "invalid_kind"},

	{service.ErrNotOwner, http.StatusForbidden, "not_owner"},

	{service.ErrItemNotFound, http.StatusNotFound, "item_not_found"},
	{repository.ErrItemNotFound, http.StatusNotFound, "item_not_found"},
	{repository.ErrSessionNotFound, http.StatusNotFound, "session_not_found"},
	{repository.ErrQuestionNotFound, http.StatusNotFound, "question_not_found"},
	{repository.ErrUserNotFound, http.StatusNotFound, "user_not_found"},
	{service.ErrNoItemsAvailable, http.StatusNotFound, "no_items_available"},

	{service.ErrSessionNotActive, http.StatusConflict, "session_not_active"},
	{repository.ErrOptimisticLock, http.StatusConflict, "concurrent_update"},
	{repository.ErrDuplicateItem, http.StatusConflict, "duplicate_item"},
	{repository.ErrChatAlreadyLinked, http.StatusConflict, "chat_already_linked"},

	{service.ErrQuotaExceeded, http.StatusTooManyRequests, "quota_exceeded"},

	{service.ErrGenerationDisabled, http.StatusServiceUnavailable, "generation_disabled"},
	{service.ErrTelegramDisabled, http.StatusServiceUnavailable, "telegram_disabled"},
}

// From classifies err. Unknown errors become a 500 with a generic message.
func From(err error) *Error {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr
	}
	if errors.Is(err, entities.ErrInvalidGeneratedContent) {
		return New(http.StatusBadGateway, "bad_model_output", err.Error())
	}
	for _, r := range rules {
		if errors.Is(err, r.target) {
			return New(r.status, r.code, err.Error())
		}
	}
	return New(http.StatusInternalServerError, "internal", "internal server error")
}

// Respond writes err as an error envelope and aborts the chain. The
// original error is attached to the context for the request log.
func Respond(c *gin.Context, err error) {
	e := From(err)
	_ = c.Error(err)
	c.AbortWithStatusJSON(e.Status, Envelope{Error: APIError{Message: e.Message, Code: e.Code}})
}

func BadRequest(c *gin.Context, err error) {
	Respond(c, New(http.StatusBadRequest, "invalid_request", err.Error()))
}
