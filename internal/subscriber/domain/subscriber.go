package domain

import (
	"errors"
	"time"
)

const (
	PlatformPubSub = "pubsub"
	PlatformWeb    = "web"

	AnonymousOwner = "anonymous"
)

var (
	ErrTokenRequired   = errors.New("token is required")
	ErrTokenSuppressed = errors.New("token was rejected by the push provider")
	ErrNotFound        = errors.New("token not found")
)

// Subscriber is a registered push token for a citizen device or browser.
type Subscriber struct {
	ID        string    `json:"id" gorm:"primaryKey"`
	Owner     string    `json:"owner" gorm:"index;not null"`
	Token     string    `json:"-" gorm:"uniqueIndex;not null"` // never echoed back
	Platform  string    `json:"platform" gorm:"index"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// RegisterTokenRequest is the body of POST /register-token.
type RegisterTokenRequest struct {
	Token    string `json:"token" binding:"required"`
	Platform string `json:"platform,omitempty"`
}
