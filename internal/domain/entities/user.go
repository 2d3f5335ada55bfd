package entities

import (
	"time"

	"github.com/google/uuid"
)

// User is an account of the hosted auth backend. The id is the token subject.
type User struct {
	ID          uuid.UUID `json:"id"`
	Email       string    `json:"email,omitempty"`
	DisplayName string    `json:"display_name,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	LastSeenAt  time.Time `json:"last_seen_at"`
}

func NewUser(id uuid.UUID, email, displayName string) *User {
	now := time.Now()
	return &User{
		ID:          id,
		Email:       email,
		DisplayName: displayName,
		CreatedAt:   now,
		LastSeenAt:  now,
	}
}
