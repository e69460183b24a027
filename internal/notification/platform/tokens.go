package platform

import (
	"context"
	"errors"
	"time"

	"alertsphere/internal/device/store"
	"alertsphere/internal/notification/domain"
)

// TokenStore keeps the token history of this device.
type TokenStore interface {
	ActiveToken(ctx context.Context, subscription string) (*store.TokenRecord, error)
	RecordToken(ctx context.Context, rec store.TokenRecord) error
}

// TokenIssuer derives the device token from the application server key and
// the registered subscription. The same inputs always give the same token; a
// new key rotates it and the old one is recorded as superseded.
type TokenIssuer struct {
	admin SubscriptionAdmin
	store TokenStore
	now   func() time.Time
}

func NewTokenIssuer(admin SubscriptionAdmin, store TokenStore) *TokenIssuer {
	return &TokenIssuer{
		admin: admin,
		store: store,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

func (i *TokenIssuer) Fetch(ctx context.Context, vapidKey string, reg *domain.Registration) (string, error) {
	if vapidKey == "" {
		return "", &domain.PlatformError{Op: "getToken", Code: "invalid-vapid-key"}
	}
	if reg == nil || reg.Subscription == "" {
		return "", &domain.PlatformError{Op: "getToken", Code: "no-registration"}
	}

	exists, err := i.admin.SubscriptionExists(ctx, reg.Subscription)
	if err != nil {
		return "", &domain.PlatformError{Op: "getToken", Code: "unavailable", Err: err}
	}
	if !exists {
		return "", &domain.PlatformError{Op: "getToken", Code: "subscription-missing"}
	}

	token := domain.FormatPubSubToken(vapidKey, reg.Subscription)

	active, err := i.store.ActiveToken(ctx, reg.Subscription)
	switch {
	case err == nil && active.Value == token:
		return token, nil
	case err != nil && !errors.Is(err, store.ErrNotFound):
		return "", &domain.PlatformError{Op: "getToken", Code: "storage-error", Err: err}
	}

	rec := store.TokenRecord{
		Value:        token,
		Subscription: reg.Subscription,
		KeyHash:      domain.KeyFingerprint(vapidKey),
		IssuedAt:     i.now(),
	}
	if err := i.store.RecordToken(ctx, rec); err != nil {
		return "", &domain.PlatformError{Op: "getToken", Code: "storage-error", Err: err}
	}
	return token, nil
}
