package service

import "errors"

var (
	ErrItemNotFound       = errors.New("item not found")
	ErrNotOwner           = errors.New("item belongs to another user or the catalog")
	ErrNoItemsAvailable   = errors.New("no items available")
	ErrSessionNotActive   = errors.New("quiz session is not active")
	ErrInvalidMode        = errors.New("unknown quiz mode")
	ErrInvalidAnswer      = errors.New("invalid answer")
	ErrInvalidCount       = errors.New("count out of range")
	ErrQuotaExceeded      = errors.New("daily generation quota exceeded")
	ErrGenerationDisabled = errors.New("content generation is not configured")
	ErrTelegramDisabled   = errors.New("telegram reminders are not configured")
)
