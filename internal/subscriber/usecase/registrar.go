package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	notificationdomain "alertsphere/internal/notification/domain"
	"alertsphere/pkg/metrics"
)

// TokenSink is one place the device token is recorded.
type TokenSink interface {
	Name() string
	Persist(ctx context.Context, token notificationdomain.DeviceToken) error
}

// Registrar writes the device token to every sink. Sinks are independent:
// they run concurrently, no sink waits on another and one failure does not
// stop the rest.
type Registrar struct {
	sinks  []TokenSink
	logger *slog.Logger
}

func NewRegistrar(logger *slog.Logger, sinks ...TokenSink) *Registrar {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registrar{sinks: sinks, logger: logger}
}

// Register returns the joined sink errors, or nil when every sink succeeded.
func (r *Registrar) Register(ctx context.Context, token notificationdomain.DeviceToken) error {
	if token.Value == "" {
		return errors.New("empty device token")
	}

	errs := make([]error, len(r.sinks))
	var wg sync.WaitGroup
	for i, sink := range r.sinks {
		wg.Add(1)
		go func(i int, sink TokenSink) {
			defer wg.Done()
			if err := sink.Persist(ctx, token); err != nil {
				metrics.TokenRegistrationsTotal.WithLabelValues(sink.Name(), "error").Inc()
				r.logger.Error("failed to persist device token",
					slog.String("sink", sink.Name()),
					slog.Any("error", err),
				)
				errs[i] = fmt.Errorf("%s: %w", sink.Name(), err)
				return
			}
			metrics.TokenRegistrationsTotal.WithLabelValues(sink.Name(), "ok").Inc()
			r.logger.Info("device token persisted", slog.String("sink", sink.Name()))
		}(i, sink)
	}
	wg.Wait()

	return errors.Join(errs...)
}
