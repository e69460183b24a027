package notification

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"alertsphere/internal/notification/platform"
)

// PushHandler renders one raw push payload.
type PushHandler interface {
	HandlePush(ctx context.Context, raw []byte) error
}

// ForegroundLease reports whether the foreground client currently owns the
// device's pushes.
type ForegroundLease interface {
	ForegroundActive(ctx context.Context) (bool, error)
}

// Service is the background delivery context: it keeps the device
// subscription registered and renders every push that arrives on it while
// the foreground client is not running.
type Service struct {
	source  platform.MessageSource
	handler PushHandler
	path    string
	logger  *slog.Logger

	lease ForegroundLease
	poll  time.Duration
}

func NewService(source platform.MessageSource, handler PushHandler, path string, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{source: source, handler: handler, path: path, logger: logger}
}

// WithForegroundLease pauses delivery while lease reports an active
// foreground client, checking every poll.
func (s *Service) WithForegroundLease(lease ForegroundLease, poll time.Duration) *Service {
	s.lease = lease
	s.poll = poll
	return s
}

// Start blocks receiving pushes until ctx is done. Handler failures are
// logged; the message is acknowledged regardless so it is never redelivered.
func (s *Service) Start(ctx context.Context) error {
	s.logger.Info("background delivery context listening", slog.String("path", s.path))
	if s.lease == nil {
		return s.receive(ctx)
	}

	for {
		if err := s.waitForBackground(ctx); err != nil {
			return nil
		}
		rctx, cancel := context.WithCancel(ctx)
		go s.yieldToForeground(rctx, cancel)
		err := s.receive(rctx)
		yielded := rctx.Err() != nil
		cancel()
		if err != nil {
			return err
		}
		if ctx.Err() != nil || !yielded {
			return nil
		}
		s.logger.Info("foreground client active, background delivery paused")
	}
}

func (s *Service) receive(ctx context.Context) error {
	err := s.source.Receive(ctx, func(ctx context.Context, data []byte) {
		if err := s.handler.HandlePush(ctx, data); err != nil {
			s.logger.Error("failed to handle push",
				slog.String("path", s.path),
				slog.Any("error", err),
			)
		}
	})
	if err != nil && ctx.Err() == nil {
		return fmt.Errorf("receive pushes: %w", err)
	}
	return nil
}

// waitForBackground returns once no foreground lease is live, or ctx's error.
func (s *Service) waitForBackground(ctx context.Context) error {
	for {
		if !s.foregroundActive(ctx) {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(s.poll):
		}
	}
}

// yieldToForeground cancels receiving as soon as a foreground lease appears.
func (s *Service) yieldToForeground(ctx context.Context, cancel context.CancelFunc) {
	ticker := time.NewTicker(s.poll)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if s.foregroundActive(ctx) {
				cancel()
				return
			}
		}
	}
}

// foregroundActive treats an unreadable lease as absent so pushes keep
// being shown.
func (s *Service) foregroundActive(ctx context.Context) bool {
	active, err := s.lease.ForegroundActive(ctx)
	if err != nil {
		if ctx.Err() == nil {
			s.logger.Warn("failed to read foreground lease", slog.Any("error", err))
		}
		return false
	}
	return active
}

// EnsureRegistered registers path if it is not registered yet and returns the
// subscription bound to it.
func EnsureRegistered(ctx context.Context, registry *platform.ContextRegistry, path string) (string, error) {
	reg, err := registry.Register(ctx, path)
	if err != nil {
		return "", fmt.Errorf("register background context %s: %w", path, err)
	}
	return reg.Subscription, nil
}
