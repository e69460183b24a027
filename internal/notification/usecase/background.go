package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"alertsphere/internal/notification/domain"
	"alertsphere/pkg/metrics"
)

// BackgroundHandler renders OS notifications for push events received while
// the application is not in the foreground. It never retries or deduplicates.
type BackgroundHandler struct {
	display domain.Display
	icon    string
	logger  *slog.Logger
}

func NewBackgroundHandler(display domain.Display, icon string, logger *slog.Logger) *BackgroundHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &BackgroundHandler{display: display, icon: icon, logger: logger}
}

// HandlePush extracts notification.title and notification.body from raw and
// displays them once.
func (h *BackgroundHandler) HandlePush(ctx context.Context, raw []byte) error {
	payload, err := domain.DecodePayload(raw)
	if err != nil {
		metrics.NotificationsDroppedTotal.WithLabelValues("background", "malformed").Inc()
		return fmt.Errorf("decode push payload: %w", err)
	}

	n, ok := payload.ToNotification(h.icon)
	if !ok {
		metrics.NotificationsDroppedTotal.WithLabelValues("background", "no_title").Inc()
		h.logger.Warn("push payload has no notification title, nothing to display")
		return nil
	}

	if err := h.display.Show(ctx, n); err != nil {
		return fmt.Errorf("show notification: %w", err)
	}
	metrics.NotificationsShownTotal.WithLabelValues("background").Inc()
	return nil
}
