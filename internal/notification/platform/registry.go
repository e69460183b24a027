package platform

import (
	"context"
	"errors"
	"strings"
	"time"

	"alertsphere/internal/device/store"
	"alertsphere/internal/notification/domain"
)

// SubscriptionAdmin manages the per-device subscriptions that carry pushes.
// Names returned and accepted are fully qualified resource names.
type SubscriptionAdmin interface {
	EnsureSubscription(ctx context.Context, id string) (string, error)
	SubscriptionExists(ctx context.Context, name string) (bool, error)
}

// RegistrationStore remembers registered background contexts.
type RegistrationStore interface {
	Registration(ctx context.Context, path string) (*domain.Registration, error)
	SaveRegistration(ctx context.Context, reg domain.Registration) error
}

// ContextRegistry binds a background context path to a dedicated
// subscription on the alerts topic. Registering the same path again returns
// the existing registration while its subscription still exists.
type ContextRegistry struct {
	admin    SubscriptionAdmin
	store    RegistrationStore
	deviceID string
	now      func() time.Time
}

func NewContextRegistry(admin SubscriptionAdmin, store RegistrationStore, deviceID string) *ContextRegistry {
	return &ContextRegistry{
		admin:    admin,
		store:    store,
		deviceID: deviceID,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (r *ContextRegistry) Register(ctx context.Context, path string) (*domain.Registration, error) {
	if !strings.HasPrefix(path, "/") || len(path) < 2 {
		return nil, &domain.PlatformError{Op: "registerBackgroundContext", Code: "invalid-path"}
	}

	existing, err := r.store.Registration(ctx, path)
	switch {
	case err == nil:
		ok, err := r.admin.SubscriptionExists(ctx, existing.Subscription)
		if err != nil {
			return nil, &domain.PlatformError{Op: "registerBackgroundContext", Code: "registration-failed", Err: err}
		}
		if ok {
			return existing, nil
		}
		// The subscription was deleted or expired; bind the path again.
	case !errors.Is(err, store.ErrNotFound):
		return nil, err
	}

	name, err := r.admin.EnsureSubscription(ctx, SubscriptionID(path, r.deviceID))
	if err != nil {
		var pe *domain.PlatformError
		if errors.As(err, &pe) {
			return nil, err
		}
		return nil, &domain.PlatformError{Op: "registerBackgroundContext", Code: "registration-failed", Err: err}
	}

	reg := domain.Registration{Path: path, Subscription: name, RegisteredAt: r.now()}
	if err := r.store.SaveRegistration(ctx, reg); err != nil {
		return nil, err
	}
	return &reg, nil
}

// SubscriptionID derives a valid subscription id from a context path and a
// device id, e.g. "/firebase-messaging-sw.js" becomes
// "firebase-messaging-sw-js-<device>".
func SubscriptionID(path, deviceID string) string {
	var b strings.Builder
	lastDash := true
	for _, c := range strings.ToLower(path) {
		switch {
		case c >= 'a' && c <= 'z', c >= '0' && c <= '9':
			b.WriteRune(c)
			lastDash = false
		case !lastDash:
			b.WriteByte('-')
			lastDash = true
		}
	}
	id := strings.Trim(b.String(), "-")
	if id == "" || id[0] < 'a' || id[0] > 'z' {
		id = "ctx-" + id
	}
	id = strings.TrimSuffix(id, "-")
	if deviceID != "" {
		id += "-" + deviceID
	}
	if len(id) > 255 {
		id = id[:255]
	}
	return id
}
