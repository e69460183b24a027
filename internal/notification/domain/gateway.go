package domain

import (
	"context"
	"time"

	"alertsphere/pkg/readiness"
)

// Permission is the user's notification permission decision.
type Permission string

const (
	// PermissionDefault means the prompt was dismissed or never answered.
	PermissionDefault Permission = "default"
	PermissionGranted Permission = "granted"
	PermissionDenied  Permission = "denied"
)

// Registration is a background delivery context registered with the platform.
type Registration struct {
	Path         string    `json:"path" db:"path"`
	Subscription string    `json:"subscription" db:"subscription"`
	RegisteredAt time.Time `json:"registered_at" db:"registered_at"`
}

// DeviceToken is the platform-issued routing token for this installation.
type DeviceToken struct {
	Value    string    `json:"token"`
	Owner    string    `json:"owner"`
	Platform string    `json:"platform"`
	IssuedAt time.Time `json:"issued_at"`
}

// Gateway abstracts the host notification capabilities. Implementations
// differ per platform; the pipeline is written against this interface only.
type Gateway interface {
	RequestPermission(ctx context.Context) (Permission, error)
	RegisterBackgroundContext(ctx context.Context, path string) (*Registration, error)
	FetchToken(ctx context.Context, vapidKey string, reg *Registration) (string, error)
	ShowNotification(ctx context.Context, n Notification) error
}

// MessageHandler receives push payloads delivered to the foreground.
type MessageHandler func(ctx context.Context, p Payload)

// Messaging is the asynchronously initialised messaging subsystem.
type Messaging interface {
	// Ready is resolved exactly once when initialisation finishes or fails.
	Ready() *readiness.Signal
	// OnMessage attaches a foreground handler.
	OnMessage(handler MessageHandler) (Listener, error)
}

// Listener is an attached foreground handler.
type Listener interface {
	// Stop detaches the handler and waits for delivery to end.
	Stop()
	// Done is closed once delivery has ended, whether stopped or failed.
	Done() <-chan struct{}
}

// Display is the device notification display primitive.
type Display interface {
	Show(ctx context.Context, n Notification) error
}
