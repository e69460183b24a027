package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"alertsphere/internal/notification/domain"
	"alertsphere/pkg/metrics"
)

const defaultReadyTimeout = 5 * time.Second

// TokenManagerConfig holds the fixed inputs of token acquisition.
type TokenManagerConfig struct {
	VAPIDKey       string
	BackgroundPath string
	ReadyTimeout   time.Duration
	Owner          string
	Platform       string
}

// TokenManager requests notification permission, registers the background
// delivery context and obtains the device token. It is the only writer of the
// process-wide token state; it persists nothing itself.
type TokenManager struct {
	gateway   domain.Gateway
	messaging domain.Messaging
	cfg       TokenManagerConfig
	logger    *slog.Logger
	now       func() time.Time

	current atomic.Pointer[domain.DeviceToken]
}

func NewTokenManager(gateway domain.Gateway, messaging domain.Messaging, cfg TokenManagerConfig, logger *slog.Logger) *TokenManager {
	if cfg.ReadyTimeout <= 0 {
		cfg.ReadyTimeout = defaultReadyTimeout
	}
	if cfg.Owner == "" {
		cfg.Owner = "anonymous"
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &TokenManager{
		gateway:   gateway,
		messaging: messaging,
		cfg:       cfg,
		logger:    logger,
		now:       time.Now,
	}
}

// Current returns the last token acquired in this process, or nil.
func (m *TokenManager) Current() *domain.DeviceToken {
	return m.current.Load()
}

// AcquireToken runs the permission, registration, readiness and token steps in
// order. It returns a nil token with ErrPermissionDenied,
// ErrMessagingUnavailable or ErrTokenAcquisitionFailed on any failure; every
// failure is logged here so callers may treat the error as informational.
func (m *TokenManager) AcquireToken(ctx context.Context) (*domain.DeviceToken, error) {
	permission, err := m.gateway.RequestPermission(ctx)
	if err != nil {
		m.logger.Warn("permission request failed", slog.Any("error", err))
		return m.fail("permission_denied", fmt.Errorf("%w: %v", domain.ErrPermissionDenied, err))
	}
	if permission != domain.PermissionGranted {
		m.logger.Info("notifications permission not granted", slog.String("permission", string(permission)))
		return m.fail("permission_denied", domain.ErrPermissionDenied)
	}

	reg, err := m.gateway.RegisterBackgroundContext(ctx, m.cfg.BackgroundPath)
	if err != nil {
		m.logFailure("background context registration failed", err)
		return m.fail("registration_failed", fmt.Errorf("%w: %w", domain.ErrTokenAcquisitionFailed, err))
	}

	if err := m.messaging.Ready().Wait(ctx, m.cfg.ReadyTimeout); err != nil {
		m.logger.Error("messaging subsystem not ready",
			slog.Duration("timeout", m.cfg.ReadyTimeout),
			slog.Any("error", err),
		)
		return m.fail("messaging_unavailable", fmt.Errorf("%w: %w", domain.ErrMessagingUnavailable, err))
	}

	value, err := m.gateway.FetchToken(ctx, m.cfg.VAPIDKey, reg)
	if err != nil {
		m.logFailure("device token fetch failed", err)
		return m.fail("token_failed", fmt.Errorf("%w: %w", domain.ErrTokenAcquisitionFailed, err))
	}
	if value == "" {
		m.logger.Error("device token fetch returned an empty token")
		return m.fail("token_failed", fmt.Errorf("%w: empty token", domain.ErrTokenAcquisitionFailed))
	}

	token := &domain.DeviceToken{
		Value:    value,
		Owner:    m.cfg.Owner,
		Platform: m.cfg.Platform,
		IssuedAt: m.now().UTC(),
	}
	if prev := m.current.Swap(token); prev != nil && prev.Value != token.Value {
		m.logger.Info("device token rotated")
	}
	metrics.TokenAcquisitionsTotal.WithLabelValues("acquired").Inc()
	m.logger.Info("device token acquired", slog.String("registration", reg.Subscription))
	return token, nil
}

func (m *TokenManager) fail(result string, err error) (*domain.DeviceToken, error) {
	metrics.TokenAcquisitionsTotal.WithLabelValues(result).Inc()
	return nil, err
}

// logFailure records enough detail to tell failure categories apart.
func (m *TokenManager) logFailure(msg string, err error) {
	name := fmt.Sprintf("%T", err)
	var pe *domain.PlatformError
	if errors.As(err, &pe) {
		name = pe.Op
	}
	m.logger.Error(msg,
		slog.String("name", name),
		slog.String("message", err.Error()),
		slog.String("code", domain.ErrorCode(err)),
		slog.String("detail", fmt.Sprintf("%+v", err)),
	)
}
