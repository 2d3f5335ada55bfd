package entities

import (
	"time"

	"github.com/google/uuid"
)

// TelegramLinkTTL is how long a link code stays valid.
const TelegramLinkTTL = 15 * time.Minute

// TelegramLink is a one-time code the user sends to the bot as /start <code>.
type TelegramLink struct {
	Code      string    `json:"code"`
	UserID    uuid.UUID `json:"-"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (l *TelegramLink) Expired(now time.Time) bool {
	return !now.Before(l.ExpiresAt)
}
